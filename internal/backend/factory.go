package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type dialFunc func(url, exchange, queue string) (*amqp.Client, error)

// Opener builds a Backend from Options.
type Opener struct {
	logger *slog.Logger
	dial   dialFunc
}

func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{logger: logger, dial: amqp.NewClient}
}

func (o *Opener) Open(ctx context.Context, opts Options) (*Backend, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}
	switch opts.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.Store, b.Ready = repo, repo.Ping
		b.closers = append(b.closers, repo.Close)
		o.logger.InfoContext(ctx, "SQLite store opened", "db_path", opts.SQLitePath)
	case Memory:
		store := memory.New()
		b.Store = store
		b.closers = append(b.closers, store.Close)
		o.logger.InfoContext(ctx, "Memory store opened")
	}

	if opts.AMQPURL == "" {
		return b, nil
	}
	client, err := o.dial(opts.AMQPURL, opts.AMQPExchange, opts.AMQPQueue)
	if err != nil {
		if opts.RequireEvents {
			_ = b.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		o.logger.WarnContext(ctx, "AMQP unavailable, continuing without events", "error", err)
		return b, nil
	}
	b.Events, b.Publisher = client, client
	b.closers = append(b.closers, client.Close)
	o.logger.InfoContext(ctx, "AMQP client connected",
		"exchange", opts.AMQPExchange,
		"queue", opts.AMQPQueue)
	return b, nil
}
