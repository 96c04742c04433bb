package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-arena/internal/game"
	"github.com/pixil98/go-arena/internal/storage"
	"github.com/pixil98/go-errors"
)

type SpawnConfig struct {
	NameTemplate string                        `json:"name_template"`
	Tables       AssetConfig[*game.SpawnTable] `json:"tables"`
}

func (c *SpawnConfig) validate() error {
	el := errors.NewErrorList()

	if c.Tables.Path != "" {
		el.Add(c.Tables.Validate("tables"))
	}
	if c.NameTemplate != "" {
		if _, err := game.NewSpawner(game.DefaultConfig(), game.WithNameTemplate(c.NameTemplate)); err != nil {
			el.Add(err)
		}
	}

	return el.Err()
}

func (c *SpawnConfig) buildSpawner(cfg game.Config) (*game.Spawner, error) {
	var opts []game.SpawnerOpt
	if c.NameTemplate != "" {
		opts = append(opts, game.WithNameTemplate(c.NameTemplate))
	}
	if c.Tables.Path != "" {
		tables, err := c.Tables.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("loading spawn tables: %w", err)
		}
		opts = append(opts, game.WithTables(tables.Values()))
	}

	return game.NewSpawner(cfg, opts...)
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
