package mvcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetCommitVisibleToNewTxn(t *testing.T) {
	s := newTestStore(t)

	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	require.NoError(t, txn.Commit())

	txn2 := s.Begin()
	v, found, err := txn2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("1"), v)
	require.NoError(t, txn2.Commit())
}

func TestReadYourOwnWrites(t *testing.T) {
	s := newTestStore(t)
	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	v, found, err := txn.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("1"), v)
	require.NoError(t, txn.Commit())
}

func TestDeleteRemovesKey(t *testing.T) {
	s := newTestStore(t)
	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	require.NoError(t, txn.Commit())

	txn2 := s.Begin()
	txn2.Delete([]byte("a"))
	require.NoError(t, txn2.Commit())

	txn3 := s.Begin()
	_, found, err := txn3.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, txn3.Commit())
}

func TestOptimisticConflict(t *testing.T) {
	s := newTestStore(t)
	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	require.NoError(t, txn.Commit())

	t1 := s.Begin()
	t2 := s.Begin()

	_, _, err := t1.Get([]byte("a"))
	require.NoError(t, err)

	t2.Set([]byte("a"), []byte("2"))
	require.NoError(t, t2.Commit())

	t1.Set([]byte("a"), []byte("3"))
	err = t1.Commit()
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIterMergesWritesAndSnapshot(t *testing.T) {
	s := newTestStore(t)
	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	txn.Set([]byte("b"), []byte("2"))
	require.NoError(t, txn.Commit())

	txn2 := s.Begin()
	txn2.Set([]byte("c"), []byte("3"))
	txn2.Delete([]byte("a"))

	it, err := txn2.Iter([]byte("a"), []byte("z"))
	require.NoError(t, err)

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"b", "c"}, keys)
	require.NoError(t, txn2.Commit())
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := newTestStore(t)
	txn := s.Begin()
	txn.Set([]byte("a"), []byte("1"))
	require.NoError(t, txn.Rollback())

	txn2 := s.Begin()
	_, found, err := txn2.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, found)
}
