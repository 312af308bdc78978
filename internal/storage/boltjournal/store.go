// Package boltjournal stores the synced action journal in a local bbolt file.
// Each match gets its own bucket keyed by sequence number.
package boltjournal

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/cory-johannsen/rts/internal/journal"
)

// bucketMatches maps a match ID to the big-endian unix nanos of its first entry.
var bucketMatches = []byte("matches")

// Store is a journal.Store backed by bbolt.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates the journal file at path.
//
// Postcondition: Returns a Store with the matches bucket present, or an error.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltjournal: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMatches)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltjournal: create buckets: %w", err)
	}
	return &Store{bolt: db}, nil
}

// Path returns the filesystem path of the journal file.
func (s *Store) Path() string {
	return s.bolt.Path()
}

// Close closes the journal file.
func (s *Store) Close() error {
	return s.bolt.Close()
}

// Record appends e to its match bucket.
func (s *Store) Record(_ context.Context, e journal.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("boltjournal: encode entry %d: %w", e.Seq, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		name := matchKey(e.MatchID)
		b, err := tx.CreateBucketIfNotExists(name)
		if err != nil {
			return err
		}
		matches := tx.Bucket(bucketMatches)
		if matches.Get(name) == nil {
			if err := matches.Put(name, seqKey(e.RecordedAt.UnixNano())); err != nil {
				return err
			}
		}
		return b.Put(seqKey(e.Seq), data)
	})
}

// Entries returns the entries of matchID in Seq order.
//
// Postcondition: Returns an empty slice for an unknown match.
func (s *Store) Entries(_ context.Context, matchID uuid.UUID) ([]journal.Entry, error) {
	var out []journal.Entry
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(matchKey(matchID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e journal.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("boltjournal: decode entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Matches returns every recorded match ordered by its first entry's time.
func (s *Store) Matches(context.Context) ([]uuid.UUID, error) {
	type started struct {
		id uuid.UUID
		at []byte
	}
	var all []started
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMatches).ForEach(func(k, v []byte) error {
			id, err := uuid.ParseBytes(k)
			if err != nil {
				return fmt.Errorf("boltjournal: bad match key %q: %w", k, err)
			}
			all = append(all, started{id: id, at: bytes.Clone(v)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return bytes.Compare(all[i].at, all[j].at) < 0 })
	ids := make([]uuid.UUID, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.id)
	}
	return ids, nil
}

func matchKey(id uuid.UUID) []byte {
	return []byte(id.String())
}

// seqKey converts n to an 8-byte big-endian key so bbolt iterates in order.
func seqKey(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}
