package game

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-errors"
)

const DefaultNameTemplate = "{{ .Word }}{{ randNumeric 4 }}"

var defaultWords = []string{
	"Aardvark", "Badger", "Cheetah", "Dolphin", "Eagle", "Fox", "Giraffe",
	"Hippo", "Iguana", "Jaguar", "Koala", "Lemur", "Meerkat", "Narwhal",
	"Otter", "Panda", "Quokka", "Raccoon", "Shark", "Tiger", "Urchin",
	"Vulture", "Walrus", "Xerus", "Yak", "Zebra",
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SpawnTable is a loadable set of name words and optional colors.
type SpawnTable struct {
	Words  []string `json:"words"`
	Colors []string `json:"colors,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (t *SpawnTable) Validate() error {
	if t == nil {
		return fmt.Errorf("spawn table must be set")
	}

	el := errors.NewErrorList()

	if len(t.Words) == 0 {
		el.Add(fmt.Errorf("words must not be empty"))
	}
	for i, w := range t.Words {
		if strings.TrimSpace(w) == "" {
			el.Add(fmt.Errorf("word %d is blank", i))
		}
	}
	for _, c := range t.Colors {
		if !colorPattern.MatchString(c) {
			el.Add(fmt.Errorf("color %q must look like #rrggbb", c))
		}
	}

	return el.Err()
}

// nameData is what a name template is rendered with.
type nameData struct {
	Word string
	ID   PlayerID
}

// Spawner creates fresh player states at random valid positions.
type Spawner struct {
	cfg    Config
	tmpl   *template.Template
	words  []string
	colors []string

	mu  sync.Mutex
	rng *rand.Rand
}

type SpawnerOpt func(*Spawner) error

// WithNameTemplate sets the text/template used to build player names. Sprig
// functions are available.
func WithNameTemplate(text string) SpawnerOpt {
	return func(s *Spawner) error {
		tmpl, err := template.New("name").Funcs(sprig.TxtFuncMap()).Parse(text)
		if err != nil {
			return fmt.Errorf("parsing name template: %w", err)
		}
		s.tmpl = tmpl
		return nil
	}
}

// WithTables replaces the default word list with the union of the tables.
func WithTables(tables []*SpawnTable) SpawnerOpt {
	return func(s *Spawner) error {
		var words, colors []string
		for _, t := range tables {
			words = append(words, t.Words...)
			colors = append(colors, t.Colors...)
		}
		if len(words) > 0 {
			s.words = words
		}
		s.colors = colors
		return nil
	}
}

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) SpawnerOpt {
	return func(s *Spawner) error {
		s.rng = r
		return nil
	}
}

func NewSpawner(cfg Config, opts ...SpawnerOpt) (*Spawner, error) {
	s := &Spawner{
		cfg:   cfg,
		words: defaultWords,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	opts = append([]SpawnerOpt{WithNameTemplate(DefaultNameTemplate)}, opts...)
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Spawn builds the initial state for a newly connected player.
func (s *Spawner) Spawn(id PlayerID) (PlayerState, error) {
	s.mu.Lock()
	m := s.cfg.Margin()
	x := m + s.rng.Float64()*(s.cfg.Width-2*m)
	y := m + s.rng.Float64()*(s.cfg.Height-2*m)
	word := s.words[s.rng.IntN(len(s.words))]
	color := fmt.Sprintf("#%06x", s.rng.IntN(0x1000000))
	if len(s.colors) > 0 {
		color = s.colors[s.rng.IntN(len(s.colors))]
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, nameData{Word: word, ID: id}); err != nil {
		return PlayerState{}, fmt.Errorf("rendering name: %w", err)
	}

	return PlayerState{
		ID:       id,
		Name:     strings.TrimSpace(buf.String()),
		Color:    color,
		X:        x,
		Y:        y,
		Messages: []ChatEntry{},
	}, nil
}
