// Package poller runs the discovery loop: connect to the FTP drop, list
// unprocessed files each cycle, and feed them through the pipeline one
// at a time.
//
// Connection supervision is deliberately simple. A startup connection
// failure is fatal so misconfiguration surfaces immediately. A failure
// mid-loop triggers exactly one reconnect attempt, then the loop moves
// on to the next cycle; whatever survived stays claimed in the ledger
// and the remote markers keep replays idempotent.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/drayage/log"
)

// DefaultInterval is the default pause between poll cycles.
const DefaultInterval = 30 * time.Second

// Transport is the connection surface the poller supervises.
type Transport interface {
	Connect() error
	Reconnect() error
	ListNew() ([]string, error)
	Close() error
}

// Processor runs one file through the document pipeline.
type Processor interface {
	Process(ctx context.Context, name string) error
}

// Config configures the poller.
type Config struct {
	// Interval is the pause between poll cycles (default 30s).
	Interval time.Duration
}

// Poller drives the poll loop until its context is canceled.
type Poller struct {
	config    Config
	transport Transport
	processor Processor
	logger    *log.Logger
}

// New creates a poller.
func New(cfg Config, t Transport, p Processor, logger *log.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{
		config:    cfg,
		transport: t,
		processor: p,
		logger:    logger,
	}
}

// Run polls until ctx is canceled. The initial connection failure is
// returned as-is; later failures are absorbed by reconnection.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.transport.Connect(); err != nil {
		return fmt.Errorf("poller: initial connect: %w", err)
	}
	defer func() {
		if err := p.transport.Close(); err != nil {
			p.logger.Warn("close failed", map[string]any{"error": err.Error()})
		}
	}()

	p.logger.Info("poller started", map[string]any{
		"interval": p.config.Interval.String(),
	})

	for {
		if err := p.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Error("poll cycle failed", map[string]any{"error": err.Error()})
			if rerr := p.transport.Reconnect(); rerr != nil {
				p.logger.Error("reconnect failed", map[string]any{"error": rerr.Error()})
			}
		}

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", nil)
			return nil
		case <-time.After(p.config.Interval):
		}
	}
}

// cycle lists new files and processes them in order. The first failure
// aborts the cycle: a dead connection fails every subsequent file the
// same way, so there is nothing to gain from continuing.
func (p *Poller) cycle(ctx context.Context) error {
	names, err := p.transport.ListNew()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		p.logger.Info("discovered files", map[string]any{"count": len(names)})
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processor.Process(ctx, name); err != nil {
			return fmt.Errorf("process %s: %w", name, err)
		}
	}
	return nil
}
