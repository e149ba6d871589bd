package mvcc

import (
	"bytes"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// Txn is the "MVCC handle" storage.Transaction owns: an in-memory write set
// (staged sets and deletes, copied into one pebble.Batch and applied
// atomically on Commit) layered over a pebble.Snapshot (the consistent read
// view), plus the set of keys this transaction has observed, used for
// optimistic conflict detection at commit (§4.2, §4.9).
type Txn struct {
	store        *Store
	snap         *pebble.Snapshot
	beginVersion uint64

	writes  map[string][]byte
	deletes map[string]bool
	readSet map[string]struct{}

	done bool
}

// Get consults the write set first (read-your-writes), then the snapshot.
func (t *Txn) Get(key []byte) (value []byte, found bool, err error) {
	sk := string(key)
	if t.deletes[sk] {
		return nil, false, nil
	}
	if v, ok := t.writes[sk]; ok {
		return v, true, nil
	}
	t.readSet[sk] = struct{}{}
	metricOps.Inc()

	v, closer, err := t.snap.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "mvcc: get")
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, true, nil
}

// Set stages a write visible to this transaction immediately and to the
// store only after Commit.
func (t *Txn) Set(key, value []byte) {
	sk := string(key)
	t.writes[sk] = append([]byte(nil), value...)
	delete(t.deletes, sk)
	metricOps.Inc()
}

// Delete stages a tombstone.
func (t *Txn) Delete(key []byte) {
	sk := string(key)
	t.deletes[sk] = true
	delete(t.writes, sk)
	metricOps.Inc()
}

// entry is one key/value pair produced by a range scan.
type entry struct {
	key   []byte
	value []byte
}

// Iter performs a forward range scan over [lower, upper), merging the
// snapshot with this transaction's pending writes and deletes.
func (t *Txn) Iter(lower, upper []byte) (*Iter, error) {
	merged := make(map[string][]byte)

	it, err := t.snap.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, "mvcc: iter")
	}
	for it.First(); it.Valid(); it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := append([]byte(nil), it.Value()...)
		merged[string(k)] = v
		t.readSet[string(k)] = struct{}{}
	}
	if cerr := it.Close(); cerr != nil {
		return nil, errors.Wrap(cerr, "mvcc: close iter")
	}

	for k, v := range t.writes {
		kb := []byte(k)
		if inRange(kb, lower, upper) {
			merged[k] = v
		}
	}
	for k := range t.deletes {
		delete(merged, k)
	}

	entries := make([]entry, 0, len(merged))
	for k, v := range merged {
		entries = append(entries, entry{key: []byte(k), value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].key, entries[j].key) < 0 })

	return &Iter{entries: entries, pos: -1}, nil
}

func inRange(key, lower, upper []byte) bool {
	if lower != nil && bytes.Compare(key, lower) < 0 {
		return false
	}
	if upper != nil && bytes.Compare(key, upper) >= 0 {
		return false
	}
	return true
}

// Commit checks every key in readSet against the store's last-write
// version recorded since this transaction began; any mismatch is a
// concurrent modification and the commit fails with ErrConflict (§5, §4.9).
// On success the write set is applied to the store with pebble.Sync.
func (t *Txn) Commit() error {
	if t.done {
		return errors.New("mvcc: transaction already closed")
	}
	start := time.Now()
	defer func() { metricCommitSec.UpdateDuration(start) }()

	t.store.mu.Lock()
	for rk := range t.readSet {
		if v, ok := t.store.lastWrite[rk]; ok && v > t.beginVersion {
			t.store.mu.Unlock()
			metricConflict.Inc()
			t.Rollback()
			return ErrConflict
		}
	}

	batch := t.store.db.NewBatch()
	for k, v := range t.writes {
		if err := batch.Set([]byte(k), v, nil); err != nil {
			t.store.mu.Unlock()
			return errors.Wrap(err, "mvcc: stage set")
		}
	}
	for k := range t.deletes {
		if err := batch.Delete([]byte(k), nil); err != nil {
			t.store.mu.Unlock()
			return errors.Wrap(err, "mvcc: stage delete")
		}
	}
	if err := t.store.db.Apply(batch, pebble.Sync); err != nil {
		t.store.mu.Unlock()
		return errors.Wrap(err, "mvcc: apply batch")
	}

	newVersion := t.store.version + 1
	for k := range t.writes {
		t.store.lastWrite[k] = newVersion
	}
	for k := range t.deletes {
		t.store.lastWrite[k] = newVersion
	}
	t.store.version = newVersion
	t.store.mu.Unlock()

	metricCommits.Inc()
	t.done = true
	return t.snap.Close()
}

// Rollback discards the write set and closes the snapshot without applying any
// write, matching §5's "cancellation is equivalent to dropping the
// transaction without committing".
func (t *Txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.writes = nil
	t.deletes = nil
	return t.snap.Close()
}
