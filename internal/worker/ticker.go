package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one run of a periodic task.
type Job func(ctx context.Context) error

// Ticker runs a Job immediately and then on every interval until stopped.
type Ticker struct {
	name     string
	interval time.Duration
	job      Job

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewTicker(name string, interval time.Duration, job Job) *Ticker {
	return &Ticker{name: name, interval: interval, job: job}
}

// Start begins the loop. Returns an error if already running.
func (t *Ticker) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive", t.name)
	}
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return fmt.Errorf("%s is already running", t.name)
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	t.mu.Unlock()

	go t.runLoop(ctx)

	slog.InfoContext(ctx, "Periodic job started", "job", t.name, "interval", t.interval)
	return nil
}

// Stop signals the loop and waits for the running job to return.
func (t *Ticker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	stopCh, doneCh := t.stopCh, t.doneCh
	t.running = false
	t.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Periodic job stopped", "job", t.name)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Periodic job stop timed out", "job", t.name)
		return ctx.Err()
	}
}

func (t *Ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) runLoop(ctx context.Context) {
	defer close(t.doneCh)

	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	t.runOnce(ctx)
	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-tick.C:
			t.runOnce(ctx)
		}
	}
}

func (t *Ticker) runOnce(ctx context.Context) {
	start := time.Now()
	if err := t.job(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic job failed", "job", t.name, "error", err)
		return
	}
	slog.DebugContext(ctx, "Periodic job completed", "job", t.name, "duration", time.Since(start))
}

// Run starts the ticker and blocks until ctx is done, for use in an errgroup.
func (t *Ticker) Run(ctx context.Context) error {
	if err := t.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return t.Stop(stopCtx)
}
