// Package keepalive runs the liveness read on a timer.
//
// Hosted stores on a free tier pause after a period without traffic. The
// Prober issues the same one-row read as GET /keepalive so the store stays
// awake even when no scheduler calls the endpoint.
package keepalive

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// probeTimeout bounds a single probe so a hung store can't stall the loop.
const probeTimeout = 30 * time.Second

// Target is anything that can perform the liveness read.
type Target interface {
	Probe(ctx context.Context) (int, error)
}

// Prober calls Target.Probe every interval until stopped. Failures are
// logged and never stop the loop.
type Prober struct {
	target   Target
	interval time.Duration
	logger   *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewProber creates a Prober. interval must be positive.
func NewProber(target Target, interval time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		target:   target,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Calling it again is a no-op.
func (p *Prober) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting keepalive prober", slog.Duration("interval", p.interval))
		p.wg.Add(1)
		go p.loop()
	})
}

// Stop ends the loop and waits for an in-flight probe to finish.
// It is safe to call more than once, and before Start.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Prober) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			p.logger.Info("keepalive prober stopped")
			return
		case <-ticker.C:
			p.probeOnce()
		}
	}
}

func (p *Prober) probeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	// Stop cancels an in-flight probe instead of waiting out the timeout.
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	n, err := p.target.Probe(ctx)
	if err != nil {
		p.logger.Warn("keepalive probe failed", slog.String("error", err.Error()))
		return
	}
	p.logger.Debug("keepalive probe ok", slog.Int("rows", n))
}
