package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-arena/internal/session"
)

type SessionConfig struct {
	OutboxSize   int    `json:"outbox_size"`
	WriteTimeout string `json:"write_timeout"`
	MaxLineBytes int    `json:"max_line_bytes"`
}

func (c *SessionConfig) validate() error {
	_, err := c.sessionConfig()
	return err
}

func (c *SessionConfig) sessionConfig() (session.Config, error) {
	cfg := session.DefaultConfig()

	if c.OutboxSize != 0 {
		cfg.OutboxSize = c.OutboxSize
	}
	if c.MaxLineBytes != 0 {
		cfg.MaxLineBytes = c.MaxLineBytes
	}
	if c.WriteTimeout != "" {
		d, err := time.ParseDuration(c.WriteTimeout)
		if err != nil {
			return session.Config{}, fmt.Errorf("parsing write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return session.Config{}, err
	}
	return cfg, nil
}
