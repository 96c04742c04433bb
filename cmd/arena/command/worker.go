package command

import (
	"fmt"

	"github.com/pixil98/go-arena/internal/broadcast"
	"github.com/pixil98/go-arena/internal/driver"
	"github.com/pixil98/go-arena/internal/game"
	"github.com/pixil98/go-arena/internal/listener"
	"github.com/pixil98/go-arena/internal/logging"
	"github.com/pixil98/go-arena/internal/messaging"
	"github.com/pixil98/go-arena/internal/session"
	"github.com/pixil98/go-service"
	"go.uber.org/zap"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	worldCfg, err := cfg.World.gameConfig()
	if err != nil {
		return nil, fmt.Errorf("configuring world: %w", err)
	}
	world := game.NewWorld(worldCfg)

	spawner, err := cfg.Spawn.buildSpawner(worldCfg)
	if err != nil {
		return nil, fmt.Errorf("creating spawner: %w", err)
	}
	registry := session.NewRegistry(world, spawner)

	workers := service.WorkerList{}

	// Mirror broadcasts onto the spectator bus
	var bcOpts []broadcast.BroadcasterOpt
	if cfg.Nats.Enabled {
		ns, err := cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = ns
		bcOpts = append(bcOpts, broadcast.WithMirror(messaging.NewFeedPublisher(ns)))
	}
	bc := broadcast.NewBroadcaster(registry, world, bcOpts...)

	sessCfg, err := cfg.Session.sessionConfig()
	if err != nil {
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}
	cm := listener.NewConnectionManager(session.NewManager(sessCfg, world, registry, bc))

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d-%s", i, l.Protocol)] = w
	}

	tick, err := cfg.tickInterval()
	if err != nil {
		return nil, err
	}

	// Simulate first, then send the resulting state
	workers["driver"] = driver.NewDriver([]driver.Ticker{world, bc}, driver.WithTickLength(tick))
	workers["listeners"] = &listeners

	return workers, nil
}
