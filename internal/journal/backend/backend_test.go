package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/journal"
	"github.com/cory-johannsen/rts/internal/journal/backend"
	"github.com/cory-johannsen/rts/internal/storage/boltjournal"
)

func TestOpen_None(t *testing.T) {
	var cfg config.Config
	cfg.Journal.Backend = "none"
	store, err := backend.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, journal.Nop{}, store)
}

func TestOpen_Bolt(t *testing.T) {
	var cfg config.Config
	cfg.Journal.Backend = "bolt"
	cfg.Journal.BoltPath = filepath.Join(t.TempDir(), "nested", "journal.db")

	store, err := backend.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &boltjournal.Store{}, store)
}

func TestOpen_Unknown(t *testing.T) {
	var cfg config.Config
	cfg.Journal.Backend = "redis"
	_, err := backend.Open(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, backend.ErrUnknownBackend)
}
