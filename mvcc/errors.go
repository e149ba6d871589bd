package mvcc

import "errors"

// ErrConflict is returned by Commit when optimistic concurrency detects
// that a key this transaction read was modified by another transaction
// that committed first (§5).
var ErrConflict = errors.New("mvcc: commit conflict")
