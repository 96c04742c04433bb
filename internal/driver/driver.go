package driver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTickLength = time.Second / 30
)

// Ticker is advanced once per period, in registration order.
type Ticker interface {
	Tick(context.Context) error
}

type Driver struct {
	tickLength time.Duration
	tickers    []Ticker
}

func NewDriver(tickers []Ticker, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start ticks until ctx is cancelled. A failing ticker is logged and the
// loop carries on with the next period.
func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	zap.S().Infow("driver started", "tick_length", d.tickLength)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			if err := d.Tick(ctx); err != nil {
				zap.S().Warnw("tick failed", "error", err)
			}
			if elapsed := time.Since(start); elapsed > d.tickLength {
				zap.S().Debugw("tick overran", "elapsed", elapsed, "tick_length", d.tickLength)
			}
		}
	}
}

// Tick runs every ticker once. It stops at the first error.
func (d *Driver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
