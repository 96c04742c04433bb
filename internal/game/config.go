package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultWidth              = 800.0
	DefaultHeight             = 600.0
	DefaultPlayerSize         = 20.0
	DefaultSpeed              = 3.0
	DefaultRotationRate       = 5.0
	DefaultProjectileSpeed    = 8.0
	DefaultProjectileLifetime = 60
	DefaultChatMaxLength      = 140
	DefaultChatHistory        = 3
	DefaultChatTTL            = 5 * time.Second
)

// Config holds the world dimensions and per-tick tuning constants.
type Config struct {
	Width              float64       `json:"width"`
	Height             float64       `json:"height"`
	PlayerSize         float64       `json:"player_size"`
	Speed              float64       `json:"speed"`
	RotationRate       float64       `json:"rotation_rate"`
	ProjectileSpeed    float64       `json:"projectile_speed"`
	ProjectileLifetime int           `json:"projectile_lifetime"`
	ChatMaxLength      int           `json:"chat_max_length"`
	ChatHistory        int           `json:"chat_history"`
	ChatTTL            time.Duration `json:"-"`
}

// DefaultConfig returns the tuning used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		PlayerSize:         DefaultPlayerSize,
		Speed:              DefaultSpeed,
		RotationRate:       DefaultRotationRate,
		ProjectileSpeed:    DefaultProjectileSpeed,
		ProjectileLifetime: DefaultProjectileLifetime,
		ChatMaxLength:      DefaultChatMaxLength,
		ChatHistory:        DefaultChatHistory,
		ChatTTL:            DefaultChatTTL,
	}
}

// Margin is the distance a player's center must keep from every world edge.
func (c Config) Margin() float64 {
	return c.PlayerSize / 2
}

func (c Config) Validate() error {
	el := errors.NewErrorList()

	if c.Width <= 0 || c.Height <= 0 {
		el.Add(fmt.Errorf("width and height must be positive"))
	}
	if c.PlayerSize < 0 || c.PlayerSize >= c.Width || c.PlayerSize >= c.Height {
		el.Add(fmt.Errorf("player_size must fit inside the world"))
	}
	if c.Speed < 0 || c.RotationRate < 0 || c.ProjectileSpeed < 0 {
		el.Add(fmt.Errorf("speeds must not be negative"))
	}
	if c.ProjectileLifetime <= 0 {
		el.Add(fmt.Errorf("projectile_lifetime must be positive"))
	}
	if c.ChatMaxLength <= 0 {
		el.Add(fmt.Errorf("chat_max_length must be positive"))
	}
	if c.ChatHistory <= 0 {
		el.Add(fmt.Errorf("chat_history must be positive"))
	}
	if c.ChatTTL < 0 {
		el.Add(fmt.Errorf("chat ttl must not be negative"))
	}

	return el.Err()
}
