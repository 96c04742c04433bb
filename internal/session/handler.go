package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pixil98/go-arena/internal/broadcast"
	"github.com/pixil98/go-arena/internal/display"
	"github.com/pixil98/go-arena/internal/game"
	"github.com/pixil98/go-arena/internal/protocol"
	"go.uber.org/zap"
)

type State int

const (
	StateHandshaking State = iota
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler drives one connection from join to teardown. It is used by a
// single goroutine.
type Handler struct {
	conn     *Conn
	registry *Registry
	world    *game.World
	bc       *broadcast.Broadcaster
	maxLine  int

	state State
	id    game.PlayerID
	log   *zap.SugaredLogger
}

// Run joins the session, dispatches records until the connection ends and
// then tears the session down. A clean disconnect returns nil.
func (h *Handler) Run(ctx context.Context) error {
	go h.conn.writePump()

	if err := h.join(); err != nil {
		h.leave()
		return fmt.Errorf("joining session: %w", err)
	}
	defer h.leave()

	return h.play(ctx)
}

func (h *Handler) State() State {
	return h.state
}

func (h *Handler) join() error {
	var ps game.PlayerState
	var err error
	h.bc.Batch(func(s broadcast.Sender) {
		ps, err = h.registry.Register(h.conn)
		if err != nil {
			return
		}
		h.id = ps.ID
		h.state = StateActive
		h.log = h.log.With("player", ps.ID)

		err = h.send(protocol.YourInfo{ID: ps.ID, Player: ps})
		if err != nil {
			return
		}
		err = h.send(protocol.CurrentPlayers{Players: h.world.Players()})
		if err != nil {
			return
		}
		_, err = s.Send(protocol.NewPlayer{Player: ps}, ps.ID)
	})
	if err != nil {
		return err
	}

	h.log.Infow("player joined", "name", ps.Name)
	return nil
}

func (h *Handler) play(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		r := bufio.NewReaderSize(h.conn, h.maxLine)
		for {
			line, err := readRecord(r)
			if errors.Is(err, ErrRecordTooLong) {
				h.log.Debugw("discarding record", "error", err)
				continue
			}
			if err != nil {
				readErr <- err
				close(lines)
				return
			}
			select {
			case lines <- line:
			case <-h.conn.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-h.conn.Done():
			return h.conn.Err()

		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if errors.Is(err, io.EOF) {
					return nil
				}
				// a closed pipe after our own Close is not a failure
				select {
				case <-h.conn.Done():
					return h.conn.Err()
				default:
				}
				return &TransportError{Op: "read", Err: err}
			}
			h.dispatch(line)
		}
	}
}

// readRecord returns the next line without its line ending. A line that
// does not fit in r's buffer is skipped up to its newline and reported as
// ErrRecordTooLong, leaving r at the start of the following record.
func readRecord(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = r.ReadSlice('\n')
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrRecordTooLong
	}
	if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
		return nil, err
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return append([]byte(nil), line...), nil
}

func (h *Handler) dispatch(line []byte) {
	msg, err := protocol.Decode(line)
	if err != nil {
		h.log.Debugw("discarding record", "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.MoveStart:
		err = h.world.SetInput(h.id, m.Direction, true)
	case protocol.MoveStop:
		err = h.world.SetInput(h.id, m.Direction, false)
	case protocol.Chat:
		err = h.chat(m.Text)
	case protocol.Shoot:
		_, err = h.world.Shoot(h.id)
	case protocol.Unknown:
		h.log.Debugw("ignoring unknown record", "type", m.Tag)
	default:
		h.log.Debugw("ignoring server record", "type", m.Type())
	}

	if err != nil {
		h.log.Debugw("handling record", "type", msg.Type(), "error", err)
	}
}

func (h *Handler) chat(text string) error {
	text = display.Truncate(display.Sanitize(text), h.world.Config().ChatMaxLength)
	if text == "" {
		return nil
	}

	if _, err := h.world.Chat(h.id, text); err != nil {
		return err
	}
	_, err := h.bc.Broadcast(protocol.Chat{ID: h.id, Text: text})
	return err
}

func (h *Handler) send(msg protocol.Message) error {
	record, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if !h.conn.Enqueue(record) {
		return ErrOutboxFull
	}
	return nil
}

// leave tears the session down once. Failures here only get logged.
func (h *Handler) leave() {
	if h.state == StateActive {
		h.state = StateClosing
		h.bc.Batch(func(s broadcast.Sender) {
			if !h.registry.Unregister(h.id) {
				return
			}
			if _, err := s.Send(protocol.PlayerDisconnected{ID: h.id}); err != nil {
				h.log.Debugw("announcing disconnect", "error", err)
			}
		})
		h.log.Infow("player left")
	}
	h.state = StateClosing

	if err := h.conn.Close(); err != nil {
		h.log.Debugw("closing connection", "error", err)
	}
}
