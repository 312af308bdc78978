package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rts/internal/journal"
)

// JournalRepository persists synced actions in the synced_actions table.
// It satisfies journal.Store.
type JournalRepository struct {
	db *pgxpool.Pool
	// closeFn releases the owning Pool; nil when the caller owns it.
	closeFn func()
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the
// synced_actions migration applied.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// NewOwnedJournalRepository creates a JournalRepository that closes p on Close.
func NewOwnedJournalRepository(p *Pool) *JournalRepository {
	return &JournalRepository{db: p.DB(), closeFn: p.Close}
}

// Record inserts e.
//
// Postcondition: Returns an error if (match_id, seq) already exists.
func (r *JournalRepository) Record(ctx context.Context, e journal.Entry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO synced_actions
		     (match_id, seq, frame, player_id, command, args, accepted, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.MatchID, e.Seq, e.Frame, e.PlayerID, e.Command, e.Args, e.Accepted, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("recording synced action %s/%d: %w", e.MatchID, e.Seq, err)
	}
	return nil
}

// Entries returns every entry of matchID ordered by seq.
func (r *JournalRepository) Entries(ctx context.Context, matchID uuid.UUID) ([]journal.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT match_id, seq, frame, player_id, command, args, accepted, recorded_at
		 FROM synced_actions
		 WHERE match_id = $1
		 ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying synced actions: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (journal.Entry, error) {
		var e journal.Entry
		err := row.Scan(&e.MatchID, &e.Seq, &e.Frame, &e.PlayerID, &e.Command, &e.Args, &e.Accepted, &e.RecordedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning synced actions: %w", err)
	}
	return entries, nil
}

// Matches returns every match with recorded actions, oldest first.
func (r *JournalRepository) Matches(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT match_id
		 FROM synced_actions
		 GROUP BY match_id
		 ORDER BY MIN(recorded_at), match_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scanning matches: %w", err)
	}
	return ids, nil
}

// Close releases the pool if this repository owns it.
func (r *JournalRepository) Close() error {
	if r.closeFn != nil {
		r.closeFn()
	}
	return nil
}
