// Package mvcc wires the abstract "get/set/remove/iter/commit" storage
// substrate of §6 to github.com/cockroachdb/pebble, a real embeddable LSM
// key-value store. The repo never touches pebble's on-disk file format
// (§1 places that out of scope), only its Batch/Snapshot/Iterator surface.
package mvcc

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/VictoriaMetrics/metrics"
)

var (
	metricCommits  = metrics.NewCounter("kipsql_commit_total")
	metricConflict = metrics.NewCounter("kipsql_commit_conflict_total")
	metricOps      = metrics.NewCounter(`kipsql_storage_ops_total`)
	metricCommitSec = metrics.NewHistogram("kipsql_commit_seconds")
)

// Store owns the pebble.DB and the bookkeeping needed for optimistic
// conflict detection: a monotonic version counter and, for every key ever
// written, the version of its most recent committed write.
type Store struct {
	db *pebble.DB

	mu        sync.Mutex
	version   uint64
	lastWrite map[string]uint64
}

// Open opens (creating if absent) a pebble store at dir on the real
// filesystem.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "mvcc: open store")
	}
	return newStore(db), nil
}

// OpenMem opens an in-memory pebble store, the shape used by tests and by
// any caller that does not need durability across process restarts.
func OpenMem() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, errors.Wrap(err, "mvcc: open in-memory store")
	}
	return newStore(db), nil
}

func newStore(db *pebble.DB) *Store {
	return &Store{db: db, lastWrite: make(map[string]uint64)}
}

// Close releases the underlying pebble handle.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "mvcc: close store")
}

// Begin starts a new transaction: a write batch plus a consistent
// snapshot of the store as of this instant.
func (s *Store) Begin() *Txn {
	s.mu.Lock()
	beginVersion := s.version
	s.mu.Unlock()

	return &Txn{
		store:        s,
		snap:         s.db.NewSnapshot(),
		beginVersion: beginVersion,
		writes:       make(map[string][]byte),
		deletes:      make(map[string]bool),
		readSet:      make(map[string]struct{}),
	}
}
