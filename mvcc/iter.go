package mvcc

// Iter is a forward cursor over a merged snapshot+write-set range, produced
// by Txn.Iter. Usage: for it.Next() { ... it.Key() ... it.Value() ... }.
type Iter struct {
	entries []entry
	pos     int
}

// Next advances the cursor and reports whether an entry is available.
func (it *Iter) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

// Key returns the current entry's key. Valid only after a Next() that
// returned true.
func (it *Iter) Key() []byte { return it.entries[it.pos].key }

// Value returns the current entry's value.
func (it *Iter) Value() []byte { return it.entries[it.pos].value }

// Close releases the iterator. Merged iterators hold no external resources
// beyond the already-closed snapshot read, so Close is a no-op kept for
// symmetry with the borrow-from-transaction lifetime model (§5, §9).
func (it *Iter) Close() error { return nil }
