package game

import (
	"fmt"
	"time"
)

// PlayerID identifies a player for the lifetime of the process.
type PlayerID string

func (id PlayerID) String() string {
	return string(id)
}

// Direction names one of the four independent input flags.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

var directionNames = map[Direction]string{
	DirUp:    "up",
	DirDown:  "down",
	DirLeft:  "left",
	DirRight: "right",
}

func (d Direction) String() string {
	if n, ok := directionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts a wire name into a Direction.
func ParseDirection(s string) (Direction, error) {
	for d, n := range directionNames {
		if n == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidInput, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	n, ok := directionNames[d]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInput, int(d))
	}
	return []byte(n), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Inputs are the held movement keys of a player. Opposing flags may both be
// set; the simulation nets them out.
type Inputs struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Set sets or clears the flag for dir.
func (in *Inputs) Set(dir Direction, on bool) error {
	switch dir {
	case DirUp:
		in.Up = on
	case DirDown:
		in.Down = on
	case DirLeft:
		in.Left = on
	case DirRight:
		in.Right = on
	default:
		return fmt.Errorf("%w: %d", ErrInvalidInput, int(dir))
	}
	return nil
}

// Thrust returns +1, 0 or -1 along the facing angle.
func (in Inputs) Thrust() float64 {
	return axis(in.Up, in.Down)
}

// Turn returns +1 (clockwise), 0 or -1.
func (in Inputs) Turn() float64 {
	return axis(in.Right, in.Left)
}

func axis(pos, neg bool) float64 {
	var v float64
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

// ChatEntry is one recent chat line. ExpiresAt is advisory for clients.
type ChatEntry struct {
	Text      string `json:"text"`
	ExpiresAt int64  `json:"expiresAt"` // unix milliseconds
}

// PlayerState is the authoritative state of one connected player.
type PlayerState struct {
	ID       PlayerID    `json:"id"`
	Name     string      `json:"name"`
	Color    string      `json:"color"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Angle    float64     `json:"angle"`
	Inputs   Inputs      `json:"inputs"`
	Messages []ChatEntry `json:"messages"`
}

// Clone returns a deep copy safe to hand outside the world lock.
func (p *PlayerState) Clone() PlayerState {
	c := *p
	c.Messages = make([]ChatEntry, len(p.Messages))
	copy(c.Messages, p.Messages)
	return c
}

// pushChat prepends an entry and evicts the oldest beyond limit.
func (p *PlayerState) pushChat(text string, now time.Time, ttl time.Duration, limit int) ChatEntry {
	entry := ChatEntry{Text: text, ExpiresAt: now.Add(ttl).UnixMilli()}

	msgs := make([]ChatEntry, 0, limit)
	msgs = append(msgs, entry)
	for _, m := range p.Messages {
		if len(msgs) >= limit {
			break
		}
		msgs = append(msgs, m)
	}
	p.Messages = msgs
	return entry
}
