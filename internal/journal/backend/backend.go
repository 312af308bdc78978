// Package backend opens the journal.Store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/journal"
	"github.com/cory-johannsen/rts/internal/storage/boltjournal"
	"github.com/cory-johannsen/rts/internal/storage/postgres"
)

// ErrUnknownBackend is returned for a journal backend name Open does not know.
var ErrUnknownBackend = errors.New("unknown journal backend")

// Open returns the Store named by cfg.Journal.Backend.
//
// Precondition: cfg must have passed Validate.
// Postcondition: The caller must Close the returned store.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (journal.Store, error) {
	switch cfg.Journal.Backend {
	case "", "none":
		logger.Info("action journal disabled")
		return journal.Nop{}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening postgres journal: %w", err)
		}
		if err := pool.RequireSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("action journal connected",
			zap.String("backend", "postgres"),
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
		)
		return postgres.NewOwnedJournalRepository(pool), nil

	case "bolt":
		if dir := filepath.Dir(cfg.Journal.BoltPath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating journal dir: %w", err)
			}
		}
		store, err := boltjournal.Open(cfg.Journal.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info("action journal opened",
			zap.String("backend", "bolt"),
			zap.String("path", store.Path()),
		)
		return store, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Journal.Backend)
	}
}
