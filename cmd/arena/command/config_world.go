package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-arena/internal/game"
)

// WorldConfig overrides the default world tuning. Zero fields keep the
// default.
type WorldConfig struct {
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	PlayerSize         float64 `json:"player_size"`
	Speed              float64 `json:"speed"`
	RotationRate       float64 `json:"rotation_rate"`
	ProjectileSpeed    float64 `json:"projectile_speed"`
	ProjectileLifetime int     `json:"projectile_lifetime"`
	ChatMaxLength      int     `json:"chat_max_length"`
	ChatHistory        int     `json:"chat_history"`
	ChatTTL            string  `json:"chat_ttl"`
}

func (c *WorldConfig) validate() error {
	_, err := c.gameConfig()
	return err
}

func (c *WorldConfig) gameConfig() (game.Config, error) {
	cfg := game.DefaultConfig()

	overrideFloat(&cfg.Width, c.Width)
	overrideFloat(&cfg.Height, c.Height)
	overrideFloat(&cfg.PlayerSize, c.PlayerSize)
	overrideFloat(&cfg.Speed, c.Speed)
	overrideFloat(&cfg.RotationRate, c.RotationRate)
	overrideFloat(&cfg.ProjectileSpeed, c.ProjectileSpeed)
	overrideInt(&cfg.ProjectileLifetime, c.ProjectileLifetime)
	overrideInt(&cfg.ChatMaxLength, c.ChatMaxLength)
	overrideInt(&cfg.ChatHistory, c.ChatHistory)

	if c.ChatTTL != "" {
		d, err := time.ParseDuration(c.ChatTTL)
		if err != nil {
			return game.Config{}, fmt.Errorf("parsing chat_ttl: %w", err)
		}
		cfg.ChatTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}

func overrideFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
