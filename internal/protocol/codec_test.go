package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/pixil98/go-arena/internal/game"
	"github.com/pixil98/go-testutil"
)

func TestEncode(t *testing.T) {
	tests := map[string]struct {
		msg    Message
		exp    string
		expErr string
	}{
		"shoot has only a tag": {
			msg: Shoot{},
			exp: `{"type":"shoot"}`,
		},
		"move start": {
			msg: MoveStart{Direction: game.DirLeft},
			exp: `{"type":"moveStart","direction":"left"}`,
		},
		"inbound chat omits id": {
			msg: Chat{Text: "hi"},
			exp: `{"type":"chat","text":"hi"}`,
		},
		"relayed chat": {
			msg: Chat{ID: "4", Text: "hi"},
			exp: `{"type":"chat","id":"4","text":"hi"}`,
		},
		"player disconnected": {
			msg: PlayerDisconnected{ID: "9"},
			exp: `{"type":"playerDisconnected","id":"9"}`,
		},
		"empty state": {
			msg: NewState(game.Snapshot{Tick: 3}),
			exp: `{"type":"state","tick":3,"players":{},"projectiles":[]}`,
		},
		"unknown cannot be encoded": {
			msg:    Unknown{Tag: "dance"},
			expErr: `encoding unknown message "dance"`,
		},
		"nil": {
			msg:    nil,
			expErr: "encoding nil message",
		},
		"invalid direction": {
			msg:    MoveStop{Direction: game.Direction(9)},
			expErr: "encoding moveStop",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Encode(tt.msg)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "record", string(got), tt.exp+"\n")
		})
	}
}

func TestDecode(t *testing.T) {
	tests := map[string]struct {
		record    string
		exp       Message
		expDecErr string
	}{
		"move start": {
			record: `{"type":"moveStart","direction":"up"}`,
			exp:    MoveStart{Direction: game.DirUp},
		},
		"move stop with crlf": {
			record: "{\"type\":\"moveStop\",\"direction\":\"right\"}\r\n",
			exp:    MoveStop{Direction: game.DirRight},
		},
		"chat": {
			record: `{"type":"chat","text":"hello there"}`,
			exp:    Chat{Text: "hello there"},
		},
		"shoot ignores extra fields": {
			record: `{"type":"shoot","power":9000}`,
			exp:    Shoot{},
		},
		"player disconnected": {
			record: `{"type":"playerDisconnected","id":"12"}`,
			exp:    PlayerDisconnected{ID: "12"},
		},
		"unknown tag": {
			record: `{"type":"dance","style":"waltz"}`,
			exp:    Unknown{Tag: "dance", Raw: []byte(`{"type":"dance","style":"waltz"}`)},
		},
		"not json": {
			record:    `hello`,
			expDecErr: "decoding record",
		},
		"truncated json": {
			record:    `{"type":"moveStart"`,
			expDecErr: "decoding record",
		},
		"array": {
			record:    `[1,2,3]`,
			expDecErr: "decoding record",
		},
		"missing type": {
			record:    `{"direction":"up"}`,
			expDecErr: "missing type",
		},
		"blank line": {
			record:    "   \n",
			expDecErr: "empty record",
		},
		"missing direction": {
			record:    `{"type":"moveStart"}`,
			expDecErr: "missing direction",
		},
		"bad direction": {
			record:    `{"type":"moveStop","direction":"sideways"}`,
			expDecErr: "invalid input direction",
		},
		"chat text wrong type": {
			record:    `{"type":"chat","text":42}`,
			expDecErr: "chat",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(tt.record))
			if tt.expDecErr != "" {
				var decErr *DecodeError
				if !errors.As(err, &decErr) {
					t.Fatalf("error = %v, expected *DecodeError", err)
				}
				testutil.AssertErrorContains(t, err, tt.expDecErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if u, ok := tt.exp.(Unknown); ok {
				gu, ok := got.(Unknown)
				if !ok {
					t.Fatalf("got %T, expected Unknown", got)
				}
				testutil.AssertEqual(t, "tag", gu.Tag, u.Tag)
				testutil.AssertEqual(t, "raw", string(gu.Raw), string(u.Raw))
				return
			}
			testutil.AssertEqual(t, "message", got, tt.exp)
		})
	}
}

func TestEncodeDecode_State(t *testing.T) {
	snap := game.Snapshot{
		Tick: 42,
		Players: map[game.PlayerID]game.PlayerState{
			"1": {
				ID: "1", Name: "Otter1234", Color: "#112233", X: 10.5, Y: 20.25, Angle: 90,
				Inputs:   game.Inputs{Up: true, Left: true},
				Messages: []game.ChatEntry{{Text: "hi", ExpiresAt: 99}},
			},
		},
		Projectiles: []game.Projectile{{ID: 7, X: 1, Y: 2, Angle: 45, Owner: "1", Remaining: 30}},
	}

	record, err := Encode(NewState(snap))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(string(record), "\n") || strings.Count(string(record), "\n") != 1 {
		t.Fatalf("record %q is not a single line", record)
	}

	msg, err := Decode(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, ok := msg.(State)
	if !ok {
		t.Fatalf("got %T, expected State", msg)
	}
	testutil.AssertEqual(t, "tick", state.Tick, uint64(42))
	testutil.AssertEqual(t, "player", state.Players["1"], snap.Players["1"])
	testutil.AssertEqual(t, "projectiles", state.Projectiles, snap.Projectiles)
}
