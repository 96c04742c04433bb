package messaging

import (
	"bytes"
	"fmt"

	"github.com/pixil98/go-arena/internal/protocol"
	"github.com/vmihailenco/msgpack/v5"
)

// SubjectPrefix heads every spectator subject; the message type follows.
const SubjectPrefix = "arena.events."

// Bus is the subset of NatsServer the feed publishes through.
type Bus interface {
	Publish(subject string, data []byte) error
}

// FeedPublisher mirrors broadcast messages onto the bus as msgpack, using
// the same field names as the JSON wire format.
type FeedPublisher struct {
	bus Bus
}

func NewFeedPublisher(bus Bus) *FeedPublisher {
	return &FeedPublisher{bus: bus}
}

func Subject(msgType string) string {
	return SubjectPrefix + msgType
}

func (p *FeedPublisher) PublishMessage(msg protocol.Message) error {
	data, err := MarshalEvent(msg)
	if err != nil {
		return err
	}
	if err := p.bus.Publish(Subject(msg.Type()), data); err != nil {
		return fmt.Errorf("publishing %s: %w", msg.Type(), err)
	}
	return nil
}

// MarshalEvent encodes v the way the feed does.
func MarshalEvent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalEvent decodes a feed payload into v.
func UnmarshalEvent(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}
	return nil
}
