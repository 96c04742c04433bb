package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-arena/internal/game"
)

// Delimiter terminates every encoded record.
const Delimiter = '\n'

type envelope struct {
	Type string `json:"type"`
}

// Encode renders m as a single JSON object tagged with its type, followed by
// the record delimiter.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encoding nil message")
	}
	if _, ok := m.(Unknown); ok {
		return nil, fmt.Errorf("encoding unknown message %q", m.Type())
	}

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Type(), err)
	}
	tag, err := json.Marshal(m.Type())
	if err != nil {
		return nil, fmt.Errorf("encoding %s tag: %w", m.Type(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	// body is always a JSON object; splice its fields after the tag
	if fields := body[1 : len(body)-1]; len(fields) > 0 {
		buf.WriteByte(',')
		buf.Write(fields)
	}
	buf.WriteByte('}')
	buf.WriteByte(Delimiter)

	return buf.Bytes(), nil
}

// Decode parses one record. Malformed input yields a *DecodeError; a
// well-formed record with an unrecognized tag yields Unknown.
func Decode(record []byte) (Message, error) {
	line := bytes.TrimSpace(record)
	if len(line) == 0 {
		return nil, decodeErr(record, "empty record")
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, decodeErr(record, "%w", err)
	}
	if env.Type == "" {
		return nil, decodeErr(record, "missing type")
	}

	switch env.Type {
	case TypeMoveStart:
		dir, err := decodeDirection(line)
		if err != nil {
			return nil, err
		}
		return MoveStart{Direction: dir}, nil
	case TypeMoveStop:
		dir, err := decodeDirection(line)
		if err != nil {
			return nil, err
		}
		return MoveStop{Direction: dir}, nil
	case TypeChat:
		return decodeBody[Chat](line)
	case TypeShoot:
		return Shoot{}, nil
	case TypeYourInfo:
		return decodeBody[YourInfo](line)
	case TypeCurrentPlayers:
		return decodeBody[CurrentPlayers](line)
	case TypeNewPlayer:
		return decodeBody[NewPlayer](line)
	case TypePlayerDisconnected:
		return decodeBody[PlayerDisconnected](line)
	case TypeState:
		return decodeBody[State](line)
	default:
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		return Unknown{Tag: env.Type, Raw: raw}, nil
	}
}

func decodeBody[T Message](line []byte) (Message, error) {
	var out T
	if err := json.Unmarshal(line, &out); err != nil {
		return nil, decodeErr(line, "%s: %w", out.Type(), err)
	}
	return out, nil
}

func decodeDirection(line []byte) (game.Direction, error) {
	var body struct {
		Direction *game.Direction `json:"direction"`
	}
	if err := json.Unmarshal(line, &body); err != nil {
		return 0, decodeErr(line, "direction: %w", err)
	}
	if body.Direction == nil {
		return 0, decodeErr(line, "missing direction")
	}
	return *body.Direction, nil
}
