package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func newTestWorld(t *testing.T, players ...PlayerState) *World {
	t.Helper()
	now := time.UnixMilli(1_000_000)
	w := NewWorld(DefaultConfig(), WithClock(func() time.Time { return now }))
	for _, ps := range players {
		if err := w.AddPlayer(ps); err != nil {
			t.Fatalf("adding player %s: %v", ps.ID, err)
		}
	}
	return w
}

func TestWorld_AddPlayer(t *testing.T) {
	tests := map[string]struct {
		existing []PlayerState
		add      PlayerState
		expErr   error
		expX     float64
		expAngle float64
	}{
		"new player": {
			add:  PlayerState{ID: "1", X: 100, Y: 100},
			expX: 100,
		},
		"clamps position and angle": {
			add:      PlayerState{ID: "1", X: -20, Y: 100, Angle: -90},
			expX:     10,
			expAngle: 270,
		},
		"duplicate id": {
			existing: []PlayerState{{ID: "1", X: 50, Y: 50}},
			add:      PlayerState{ID: "1", X: 100, Y: 100},
			expErr:   ErrPlayerExists,
			expX:     50,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, tt.existing...)

			err := w.AddPlayer(tt.add)
			if !errors.Is(err, tt.expErr) {
				t.Fatalf("error = %v, expected %v", err, tt.expErr)
			}

			ps, ok := w.GetPlayer(tt.add.ID)
			testutil.AssertEqual(t, "found", ok, true)
			testutil.AssertEqual(t, "x", ps.X, tt.expX)
			testutil.AssertEqual(t, "angle", ps.Angle, tt.expAngle)
		})
	}
}

func TestWorld_AddPlayer_EmptyId(t *testing.T) {
	w := newTestWorld(t)
	err := w.AddPlayer(PlayerState{})
	testutil.AssertErrorContains(t, err, "player id must be set")
}

func TestWorld_RemovePlayer(t *testing.T) {
	w := newTestWorld(t, PlayerState{ID: "1", X: 100, Y: 100})

	ps, err := w.RemovePlayer("1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "removed id", ps.ID, PlayerID("1"))
	testutil.AssertEqual(t, "count", w.PlayerCount(), 0)

	_, err = w.RemovePlayer("1")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("second remove error = %v, expected %v", err, ErrPlayerNotFound)
	}
}

func TestWorld_SetInput(t *testing.T) {
	tests := map[string]struct {
		id      PlayerID
		dir     Direction
		on      bool
		initial Inputs
		exp     Inputs
		expErr  error
	}{
		"set up": {
			id: "1", dir: DirUp, on: true,
			exp: Inputs{Up: true},
		},
		"opposing flags coexist": {
			id: "1", dir: DirDown, on: true,
			initial: Inputs{Up: true},
			exp:     Inputs{Up: true, Down: true},
		},
		"clear right": {
			id: "1", dir: DirRight, on: false,
			initial: Inputs{Right: true, Left: true},
			exp:     Inputs{Left: true},
		},
		"unknown player": {
			id: "2", dir: DirUp, on: true,
			expErr: ErrPlayerNotFound,
		},
		"invalid direction leaves state untouched": {
			id: "1", dir: Direction(42), on: true,
			initial: Inputs{Left: true},
			exp:     Inputs{Left: true},
			expErr:  ErrInvalidInput,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, PlayerState{ID: "1", X: 100, Y: 100, Inputs: tt.initial})

			err := w.SetInput(tt.id, tt.dir, tt.on)
			if !errors.Is(err, tt.expErr) {
				t.Fatalf("error = %v, expected %v", err, tt.expErr)
			}

			ps, _ := w.GetPlayer("1")
			testutil.AssertEqual(t, "inputs", ps.Inputs, tt.exp)
		})
	}
}

func TestWorld_Chat(t *testing.T) {
	w := newTestWorld(t, PlayerState{ID: "1", X: 100, Y: 100})

	for _, text := range []string{"one", "two", "three", "four"} {
		if _, err := w.Chat("1", text); err != nil {
			t.Fatalf("chat %q: %v", text, err)
		}
	}

	ps, _ := w.GetPlayer("1")
	testutil.AssertEqual(t, "history length", len(ps.Messages), DefaultChatHistory)
	testutil.AssertEqual(t, "most recent first", ps.Messages[0].Text, "four")
	testutil.AssertEqual(t, "oldest kept", ps.Messages[2].Text, "two")
	testutil.AssertEqual(t, "expiry", ps.Messages[0].ExpiresAt, int64(1_000_000+5_000))

	_, err := w.Chat("missing", "hi")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("error = %v, expected %v", err, ErrPlayerNotFound)
	}
}

func TestWorld_GetPlayer_ReturnsCopy(t *testing.T) {
	w := newTestWorld(t, PlayerState{ID: "1", X: 100, Y: 100})
	if _, err := w.Chat("1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ps, _ := w.GetPlayer("1")
	ps.X = 500
	ps.Messages[0].Text = "mutated"

	again, _ := w.GetPlayer("1")
	testutil.AssertEqual(t, "x", again.X, 100.0)
	testutil.AssertEqual(t, "message", again.Messages[0].Text, "hello")
}

func TestWorld_ThrustScenario(t *testing.T) {
	w := newTestWorld(t, PlayerState{ID: "a", X: 100, Y: 300})

	if err := w.SetInput("a", DirUp, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if err := w.SetInput("a", DirUp, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Step()

	ps, _ := w.GetPlayer("a")
	if !approxEqual(ps.X, 100+10*DefaultSpeed) {
		t.Errorf("x = %v, expected %v", ps.X, 100+10*DefaultSpeed)
	}
	testutil.AssertEqual(t, "y", ps.Y, 300.0)
}

func TestWorld_ProjectileLifecycle(t *testing.T) {
	tests := map[string]struct {
		player   PlayerState
		expTicks int
	}{
		"leaves through the bottom": {
			player:   PlayerState{ID: "1", X: 100, Y: 300, Angle: 90},
			expTicks: 37, // 300 + 37*8 = 596 stays inside, the 38th tick leaves
		},
		"expires by age": {
			player:   PlayerState{ID: "1", X: 10, Y: 300},
			expTicks: DefaultProjectileLifetime - 1,
		},
		"leaves after one tick": {
			player:   PlayerState{ID: "1", X: 790, Y: 300},
			expTicks: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, tt.player)

			p, err := w.Shoot("1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "remaining", p.Remaining, DefaultProjectileLifetime)
			testutil.AssertEqual(t, "owner", p.Owner, PlayerID("1"))

			last := p.Remaining
			seen := 0
			for i := 0; i < 2*DefaultProjectileLifetime; i++ {
				w.Step()
				projs := w.Projectiles()
				if len(projs) == 0 {
					break
				}
				testutil.AssertEqual(t, "projectile count", len(projs), 1)
				if projs[0].Remaining >= last || projs[0].Remaining <= 0 {
					t.Fatalf("remaining went from %d to %d", last, projs[0].Remaining)
				}
				last = projs[0].Remaining
				seen++
			}
			testutil.AssertEqual(t, "ticks alive", seen, tt.expTicks)
			testutil.AssertEqual(t, "projectiles left", len(w.Projectiles()), 0)
		})
	}
}

func TestWorld_Shoot_UnknownPlayer(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.Shoot("nobody")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("error = %v, expected %v", err, ErrPlayerNotFound)
	}
	testutil.AssertEqual(t, "projectiles", len(w.Projectiles()), 0)
}

func TestWorld_ConcurrentMutationsDuringSteps(t *testing.T) {
	w := newTestWorld(t, PlayerState{ID: "1", X: 400, Y: 300})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w.Step()
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		dirs := []Direction{DirUp, DirDown, DirLeft, DirRight}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = w.SetInput("1", dirs[i%4], i%3 == 0)
			if i%50 == 0 {
				_, _ = w.Shoot("1")
				_, _ = w.Chat("1", "pew")
			}
		}
	}()

	wg.Wait()

	snap := w.Snapshot()
	testutil.AssertEqual(t, "tick", snap.Tick, uint64(1000))
	ps := snap.Players["1"]
	if ps.Angle < 0 || ps.Angle >= 360 {
		t.Errorf("angle %v out of range", ps.Angle)
	}
	for _, p := range snap.Projectiles {
		if p.Remaining <= 0 {
			t.Errorf("projectile %d stored with remaining %d", p.ID, p.Remaining)
		}
	}
}
