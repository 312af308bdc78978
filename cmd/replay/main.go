// Package main provides the replay binary: it re-executes a journaled match
// against a fresh world and reports whether every action reproduced.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/game/sim"
	"github.com/cory-johannsen/rts/internal/journal"
	"github.com/cory-johannsen/rts/internal/journal/backend"
	"github.com/cory-johannsen/rts/internal/lockstep"
	"github.com/cory-johannsen/rts/internal/match"
	"github.com/cory-johannsen/rts/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	matchFlag := flag.String("match", "", "match ID to replay; empty = most recent")
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

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening action journal", zap.Error(err))
	}
	defer store.Close()

	var matchID uuid.UUID
	if *matchFlag == "" {
		matchID, err = journal.Latest(ctx, store)
	} else {
		matchID, err = uuid.Parse(*matchFlag)
	}
	if err != nil {
		logger.Fatal("selecting match", zap.String("match", *matchFlag), zap.Error(err))
	}

	entries, err := store.Entries(ctx, matchID)
	if err != nil {
		logger.Fatal("reading journal", zap.String("match", matchID.String()), zap.Error(err))
	}
	logger.Info("replaying match",
		zap.String("match", matchID.String()),
		zap.Int("actions", len(entries)),
	)

	mlog := observability.ForMatch(logger, matchID, cfg.Simulation.LocalPlayer)

	content, err := sim.LoadContent(cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	m, err := match.New(cfg, content, match.Hooks{}, mlog)
	if err != nil {
		logger.Fatal("creating match", zap.Error(err))
	}
	defer m.Close()

	// The replay must not append to the journal it reads.
	loop := lockstep.New(lockstep.Config{
		World:    m.World,
		Commands: m.Commands,
		Lua:      m.Lua,
		Journal:  journal.Nop{},
		MatchID:  matchID,
		Interval: cfg.Simulation.FrameInterval,
		Logger:   mlog,
	})

	err = loop.Replay(ctx, entries)
	fields := []zap.Field{
		zap.String("match", matchID.String()),
		zap.Int("frame", loop.Frame()),
		zap.Int("units", m.World.Units.Count()),
		zap.Bool("cheat", m.World.Global.CheatEnabled),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case errors.Is(err, lockstep.ErrReplayDiverged):
		logger.Error("replay diverged", append(fields, zap.Error(err))...)
	case err != nil:
		logger.Error("replay failed", append(fields, zap.Error(err))...)
	default:
		logger.Info("replay reproduced the match", fields...)
	}
}
