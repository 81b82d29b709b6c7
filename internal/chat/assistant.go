package chat

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/llm"
)

// Assistant answers messages that are neither commands nor transactions.
type Assistant struct {
	llm llm.Completer
}

func NewAssistant(c llm.Completer) *Assistant {
	if c == nil {
		c = llm.Disabled{}
	}
	return &Assistant{llm: c}
}

// Reply always returns a displayable answer. Messages with digits get the
// transaction hint prompt and the tip suffix.
func (a *Assistant) Reply(ctx context.Context, text string) string {
	numeric := HasNumber(text)
	prompt := advicePrompt(text)
	if numeric {
		prompt = transactionHintPrompt(text)
	}

	out, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		slog.WarnContext(ctx, "Assistant completion failed", "error", err)
		return AssistantOfflineText
	}
	out = strings.TrimSpace(out)
	if out == "" {
		slog.WarnContext(ctx, "Assistant completion was empty")
		return AssistantFallbackText
	}
	if numeric {
		return out + TransactionTip
	}
	return out
}
