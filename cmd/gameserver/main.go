// Package main provides the game server binary: it runs one match's frame loop
// and accepts synced commands for the local player on stdin.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/console"
	"github.com/cory-johannsen/rts/internal/game/sim"
	"github.com/cory-johannsen/rts/internal/journal/backend"
	"github.com/cory-johannsen/rts/internal/lockstep"
	"github.com/cory-johannsen/rts/internal/match"
	"github.com/cory-johannsen/rts/internal/observability"
	"github.com/cory-johannsen/rts/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.Duration("frame_interval", cfg.Simulation.FrameInterval),
		zap.String("journal", cfg.Journal.Backend),
	)

	contentStart := time.Now()
	content, err := sim.LoadContent(cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("unit_defs", len(content.UnitDefs)),
		zap.Int("cegs", len(content.CEGs.Tags())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	matchID := uuid.New()
	mlog := observability.ForMatch(logger, matchID, cfg.Simulation.LocalPlayer)

	m, err := match.New(cfg, content, match.Hooks{
		UpdateTeams: func() {
			logger.Debug("team view refreshed")
		},
		CommandsChanged: func() {
			logger.Debug("unit commands changed")
		},
	}, mlog)
	if err != nil {
		logger.Fatal("creating match", zap.Error(err))
	}
	defer m.Close()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening action journal", zap.Error(err))
	}
	defer store.Close()

	loop := lockstep.New(lockstep.Config{
		World:    m.World,
		Commands: m.Commands,
		Lua:      m.Lua,
		Journal:  store,
		MatchID:  matchID,
		Interval: cfg.Simulation.FrameInterval,
		Logger:   mlog,
	})

	con := console.New(os.Stdin, os.Stdout, cfg.Simulation.LocalPlayer, loop, m.Help, mlog)

	lifecycle := server.NewLifecycle(logger)
	framesDone := make(chan struct{})
	lifecycle.Add("frames", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			defer close(framesDone)
			return loop.Run(ctx)
		},
		// Lua and the world are released after the last frame finishes.
		StopFn: func() { <-framesDone },
	})
	lifecycle.Add("console", &server.FuncService{
		StartFn: con.Run,
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("match", matchID.String()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	logger.Info("match ended", zap.Int("frame", loop.Frame()))
}
