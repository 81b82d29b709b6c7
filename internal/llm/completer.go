// Package llm wraps the remote text-completion model behind a one-method interface.
//
// Callers build a self-contained prompt and receive the raw completion text.
// Failures are returned as *Error so the retry helper can tell transient
// errors from permanent ones; callers in the chat pipeline treat every
// error as "fall through to the next tier".
package llm

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=completer.go -destination=completer_mock.go -package=llm

// Completer sends a single prompt and returns a single completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultTimeout bounds a whole completion including retries.
const DefaultTimeout = 12 * time.Second

// ErrUnavailable is returned by Disabled.
var ErrUnavailable = errors.New("llm: completion backend not configured")

// Disabled is the Completer used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, string) (string, error) {
	return "", &Error{Code: CodeUnavailable, Message: "no api key", Retryable: false, Cause: ErrUnavailable}
}

// Client guards a Completer with an overall timeout and retries.
type Client struct {
	next    Completer
	timeout time.Duration
	retry   RetryConfig
}

// Option configures a Client.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(next Completer, opts ...Option) *Client {
	if next == nil {
		next = Disabled{}
	}
	c := &Client{next: next, timeout: DefaultTimeout, retry: DefaultGeminiRetryConfig}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Completer. Empty completions are reported as a non-retryable error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		out, err := c.next.Complete(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return "", &Error{Code: CodeTimeout, Message: "completion timed out", Retryable: false, Cause: err}
			}
			return "", err
		}
		if out == "" {
			return "", &Error{Code: CodeEmpty, Message: "empty completion", Retryable: false}
		}
		return out, nil
	})
}
