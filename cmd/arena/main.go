package main

import (
	"context"

	"github.com/pixil98/go-arena/cmd/arena/command"
	"github.com/pixil98/go-service"
	"go.uber.org/zap"
)

func main() {
	// Replaced by the configured logger once the config is loaded.
	logger := zap.Must(zap.NewProduction())
	zap.ReplaceGlobals(logger)

	app, err := service.NewApp(&command.Config{}, command.BuildWorkers)
	if err != nil {
		logger.Fatal("creating application", zap.Error(err))
	}

	err = app.Run(context.Background())
	if err != nil {
		zap.L().Fatal("running application", zap.Error(err))
	}

	zap.L().Info("exiting")
	_ = zap.L().Sync()
}
