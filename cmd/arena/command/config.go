package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-arena/internal/driver"
	"github.com/pixil98/go-arena/internal/logging"
	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string           `json:"tick_interval"`
	World        WorldConfig      `json:"world"`
	Session      SessionConfig    `json:"session"`
	Spawn        SpawnConfig      `json:"spawn"`
	Listeners    []ListenerConfig `json:"listeners"`
	Nats         NatsConfig       `json:"nats"`
	Logging      logging.Config   `json:"logging"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if _, err := c.tickInterval(); err != nil {
		el.Add(err)
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	if err := c.World.validate(); err != nil {
		el.Add(fmt.Errorf("world: %w", err))
	}
	if err := c.Session.validate(); err != nil {
		el.Add(fmt.Errorf("session: %w", err))
	}
	if err := c.Spawn.validate(); err != nil {
		el.Add(fmt.Errorf("spawn: %w", err))
	}
	if err := c.Nats.validate(); err != nil {
		el.Add(fmt.Errorf("nats: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		el.Add(fmt.Errorf("logging: %w", err))
	}

	return el.Err()
}

func (c *Config) tickInterval() (time.Duration, error) {
	if c.TickInterval == "" {
		return driver.DefaultTickLength, nil
	}

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing tick_interval: %w", err)
	}
	if d <= 0 || d > time.Second {
		return 0, fmt.Errorf("tick_interval must be between 0 and 1s")
	}
	return d, nil
}
