package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/config"
	"fintrack/internal/llm"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewCompleterWithoutKey(t *testing.T) {
	c := NewCompleter(context.Background(), discard(), &config.Config{})
	assert.IsType(t, llm.Disabled{}, c)
}

func TestNewConverterWithoutKey(t *testing.T) {
	conv := NewConverter(discard(), &config.Config{})
	if conv == nil {
		t.Fatal("expected an offline converter")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	res := OpenBackend(context.Background(), discard(), &config.Config{DataBackend: "memory"}, false)
	defer res.Close()
	assert.NotNil(t, res.Store)
	assert.Nil(t, res.Publisher)
}

func TestBuildServices(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", ChatRetentionMaxMessages: 10}
	res := OpenBackend(context.Background(), discard(), cfg, false)
	defer res.Close()

	svc := BuildServices(context.Background(), discard(), cfg, res)
	reply, err := svc.Chat.Send(context.Background(), "spent 120 on groceries")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	assert.NotEmpty(t, reply.Metadata)

	totals, err := svc.Transactions.Totals(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(12000), totals.Expenses.Cents)
}
