package storage

import (
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/codec"
	"github.com/k0kubun/kipsql/mvcc"
)

// IndexIter produces a lazy sequence of tuples by walking a queue of
// ConstantBinary predicates over one index's key domain (§4.3).
//
// For a primary index the key domain coincides with the Tuple family
// itself, so Eq/Scope read the Tuple family directly and materialisation
// needs no second lookup. For a secondary unique index, Eq/Scope read the
// Idx family (whose payload is a list of TupleIds) and materialisation
// does a second point lookup into the Tuple family.
type IndexIter struct {
	tx          *Transaction
	table       catalog.TableName
	indexMeta   catalog.IndexMeta
	projections []uint32

	offset int
	limit  int // -1 means unlimited

	binaries    []ConstantBinary
	indexValues []catalog.Value // queue of pending TupleIds read from a secondary index
	pending     []catalog.Tuple // tuples already decoded while scanning a primary Scope range
	scopeIter   *mvcc.Iter
}

// ReadByIndex returns an iterator driven by binaries over index's key
// domain. Fails if index names a composite column set (Open Question #1).
func (tx *Transaction) ReadByIndex(table catalog.TableName, offset, limit *int, projections []uint32, index catalog.IndexMeta, binaries []ConstantBinary) (*IndexIter, error) {
	if len(index.ColumnIDs) != 1 {
		return nil, catalog.ErrUnsupportedIndex
	}
	off := 0
	if offset != nil {
		off = *offset
	}
	lim := -1
	if limit != nil {
		lim = *limit
	}
	return &IndexIter{
		tx:          tx,
		table:       table,
		indexMeta:   index,
		projections: projections,
		offset:      off,
		limit:       lim,
		binaries:    append([]ConstantBinary(nil), binaries...),
	}, nil
}

// Next executes the step algorithm of §4.3 until a tuple is produced or the
// iterator is exhausted.
func (it *IndexIter) Next() (*catalog.Tuple, bool, error) {
	for {
		if it.limit == 0 {
			return nil, false, nil
		}

		if len(it.pending) > 0 {
			tup := it.pending[0]
			it.pending = it.pending[1:]
			if done, result, ok := it.shouldSkip(tup); done {
				return result, ok, nil
			}
			continue
		}

		if len(it.indexValues) > 0 {
			id := it.indexValues[0]
			it.indexValues = it.indexValues[1:]
			tup, err := it.loadByID(id)
			if err != nil {
				return nil, false, err
			}
			if tup == nil {
				continue
			}
			if done, result, ok := it.shouldSkip(*tup); done {
				return result, ok, nil
			}
			continue
		}

		if it.scopeIter != nil {
			if it.scopeIter.Next() {
				if err := it.consumeScopeEntry(); err != nil {
					return nil, false, err
				}
				continue
			}
			_ = it.scopeIter.Close()
			it.scopeIter = nil
			continue
		}

		if len(it.binaries) == 0 {
			return nil, false, nil
		}
		b := it.binaries[0]
		it.binaries = it.binaries[1:]
		if err := it.openBinary(b); err != nil {
			return nil, false, err
		}
	}
}

// shouldSkip applies offset-skipping and limit-decrementing to a
// materialised tuple, per §4.3 ("offset is applied after materialisation").
// done reports whether Next should return immediately with (result, ok);
// done==false means the caller should keep looping (the tuple was skipped
// to satisfy offset).
func (it *IndexIter) shouldSkip(tup catalog.Tuple) (done bool, result *catalog.Tuple, ok bool) {
	if it.offset > 0 {
		it.offset--
		return false, nil, false
	}
	if it.limit > 0 {
		it.limit--
	}
	projected := projectTuple(tup, it.projections)
	return true, &projected, true
}

func (it *IndexIter) openBinary(b ConstantBinary) error {
	switch b.Kind {
	case BinaryEq:
		return it.openEq(*b.EqValue)
	case BinaryScope:
		return it.openScope(b.Min, b.Max, b.MinExcl, b.MaxExcl)
	}
	return nil
}

func (it *IndexIter) openEq(v catalog.Value) error {
	if it.indexMeta.IsPrimary {
		tup, err := it.loadTuple(v)
		if err != nil {
			return err
		}
		if tup != nil {
			it.pending = append(it.pending, *tup)
		}
		return nil
	}
	key := codec.IdxKey(it.table, it.indexMeta.ID, v)
	raw, found, err := it.tx.rawGet(key)
	if err != nil {
		return engineErr(err)
	}
	if !found {
		return nil
	}
	ids, err := codec.DecodeTupleIDs(raw)
	if err != nil {
		return codecErr(err)
	}
	it.indexValues = append(it.indexValues, ids...)
	return nil
}

func (it *IndexIter) openScope(min, max *catalog.Value, minExcl, maxExcl bool) error {
	var bound codec.Bound
	if it.indexMeta.IsPrimary {
		bound = codec.TupleKeyBound(it.table, min, max, minExcl, maxExcl)
	} else {
		bound = codec.IdxKeyBound(it.table, it.indexMeta.ID, min, max, minExcl, maxExcl)
	}
	iter, err := it.tx.rawIter(bound.Lower, bound.Upper)
	if err != nil {
		return engineErr(err)
	}
	it.scopeIter = iter
	return nil
}

// consumeScopeEntry decodes the current scopeIter entry: for a primary
// index this is a tuple payload ready to yield directly; for a secondary
// index this is a list of TupleIds to resolve via a second lookup.
func (it *IndexIter) consumeScopeEntry() error {
	if it.indexMeta.IsPrimary {
		cols, vals, err := codec.DecodeTuple(it.scopeIter.Value())
		if err != nil {
			return codecErr(err)
		}
		tup := catalog.Tuple{Columns: cols, Values: vals}
		if id, ok := tup.ValueFor(it.indexMeta.ColumnIDs[0]); ok {
			tup.ID = &id
		}
		it.pending = append(it.pending, tup)
		return nil
	}
	ids, err := codec.DecodeTupleIDs(it.scopeIter.Value())
	if err != nil {
		return codecErr(err)
	}
	it.indexValues = append(it.indexValues, ids...)
	return nil
}

// loadByID resolves a TupleId dequeued from a secondary index's payload by
// a second point lookup into the Tuple family.
func (it *IndexIter) loadByID(id catalog.Value) (*catalog.Tuple, error) {
	return it.loadTuple(id)
}

func (it *IndexIter) loadTuple(id catalog.Value) (*catalog.Tuple, error) {
	key := codec.TupleKey(it.table, id)
	raw, found, err := it.tx.rawGet(key)
	if err != nil {
		return nil, engineErr(err)
	}
	if !found {
		return nil, nil
	}
	cols, vals, err := codec.DecodeTuple(raw)
	if err != nil {
		return nil, codecErr(err)
	}
	idCopy := id
	return &catalog.Tuple{ID: &idCopy, Columns: cols, Values: vals}, nil
}

// Close is a no-op beyond releasing any open scope iterator.
func (it *IndexIter) Close() error {
	if it.scopeIter != nil {
		return it.scopeIter.Close()
	}
	return nil
}
