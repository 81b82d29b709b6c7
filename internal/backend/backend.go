// Package backend opens the persistence and event backends selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/ports"
)

// Kind names a persistence backend.
type Kind string

const (
	SQLite Kind = config.BackendSQLite
	Memory Kind = config.BackendMemory
)

// Kinds lists the supported backends in order of preference.
var Kinds = []Kind{SQLite, Memory}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Options selects the store and the optional AMQP connection.
type Options struct {
	Kind       Kind
	SQLitePath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// RequireEvents turns an AMQP connection failure into an error instead
	// of running without events.
	RequireEvents bool
}

// OptionsFrom maps the application config onto backend options.
func OptionsFrom(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("backend: nil config")
	}
	kind := Kind(cfg.DataBackend)
	if !kind.Valid() {
		return Options{}, fmt.Errorf("backend: unknown kind %q (want one of %s)", cfg.DataBackend, kindList())
	}
	return Options{
		Kind:         kind,
		SQLitePath:   cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}, nil
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func (o Options) Validate() error {
	var errs []error
	if !o.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", o.Kind))
	}
	if o.Kind == SQLite && o.SQLitePath == "" {
		errs = append(errs, errors.New("sqlite path is required"))
	}
	if o.RequireEvents && o.AMQPURL == "" {
		errs = append(errs, errors.New("amqp url is required when events are mandatory"))
	}
	if o.AMQPURL != "" && (o.AMQPExchange == "" || o.AMQPQueue == "") {
		errs = append(errs, errors.New("amqp exchange and queue are required with an amqp url"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("backend options: %w", err)
	}
	return nil
}

// Backend holds the opened store and, when connected, the AMQP client.
// Publisher is nil whenever Events is nil.
type Backend struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Events    *amqp.Client

	// Ready is nil for stores that have nothing to probe.
	Ready func(ctx context.Context) error

	closers []func() error
}

// Close releases the AMQP connection first, then the store.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}
