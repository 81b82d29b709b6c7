package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

// DefaultModel is used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.5-flash"

// Gemini is a Completer backed by the Gemini Developer API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete implements Completer
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		slog.WarnContext(ctx, "Gemini request failed", "model", g.model, "error", err)
		return "", classify(err)
	}
	return resp.Text(), nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Code: CodeTimeout, Message: "request cancelled", Retryable: false, Cause: err}
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &Error{Code: CodeRateLimited, Message: apiErr.Message, Retryable: true, Cause: err}
		case apiErr.Code >= 500:
			return &Error{Code: CodeServer, Message: apiErr.Message, Retryable: true, Cause: err}
		default:
			return &Error{Code: CodeRequest, Message: apiErr.Message, Retryable: false, Cause: err}
		}
	}
	// Transport errors: retry
	return &Error{Code: CodeServer, Message: "transport error", Retryable: true, Cause: err}
}
