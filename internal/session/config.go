package session

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultOutboxSize   = 256
	DefaultWriteTimeout = 5 * time.Second
	DefaultMaxLineBytes = 64 * 1024

	// MinOutboxSize leaves room for the welcome records queued on join plus
	// a state snapshot and a chat line racing in behind them.
	MinOutboxSize = 4
)

// Config tunes per-connection buffering.
type Config struct {
	OutboxSize   int           `json:"outbox_size"`
	WriteTimeout time.Duration `json:"-"`
	MaxLineBytes int           `json:"max_line_bytes"`
}

func DefaultConfig() Config {
	return Config{
		OutboxSize:   DefaultOutboxSize,
		WriteTimeout: DefaultWriteTimeout,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

func (c Config) Validate() error {
	el := errors.NewErrorList()

	if c.OutboxSize < MinOutboxSize {
		el.Add(fmt.Errorf("outbox_size must be at least %d", MinOutboxSize))
	}
	if c.WriteTimeout < 0 {
		el.Add(fmt.Errorf("write_timeout must not be negative"))
	}
	if c.MaxLineBytes < 64 {
		el.Add(fmt.Errorf("max_line_bytes must be at least 64"))
	}

	return el.Err()
}
