package storage

import (
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/codec"
	"github.com/k0kubun/kipsql/mvcc"
)

// TupleIter is the iterator returned by Read: a forward scan over one
// table's tuple family, with offset/limit and projection applied (§4.2).
type TupleIter struct {
	inner       *mvcc.Iter
	table       *catalog.TableCatalog
	projections []uint32
	offset      int
	limit       int // -1 means unlimited
}

// Read opens a forward iterator over the tuple family of table, skipping
// offset physical entries and yielding at most limit tuples, each
// projected to projections (nil projections means "all columns"). Fails
// TableNotFound if the table is absent.
func (tx *Transaction) Read(table catalog.TableName, offset, limit *int, projections []uint32) (*TupleIter, error) {
	tbl, err := tx.Table(table)
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errTableNotFound(table)
	}

	b := codec.TupleBound(table)
	it, err := tx.rawIter(b.Lower, b.Upper)
	if err != nil {
		return nil, engineErr(err)
	}

	off := 0
	if offset != nil {
		off = *offset
	}
	lim := -1
	if limit != nil {
		lim = *limit
	}
	return &TupleIter{inner: it, table: tbl, projections: projections, offset: off, limit: lim}, nil
}

// Next advances the cursor, returning the next (offset-skipped,
// limit-bounded, projected) tuple.
func (it *TupleIter) Next() (*catalog.Tuple, bool, error) {
	if it.limit == 0 {
		return nil, false, nil
	}
	for it.inner.Next() {
		cols, vals, err := codec.DecodeTuple(it.inner.Value())
		if err != nil {
			return nil, false, codecErr(err)
		}
		if it.offset > 0 {
			it.offset--
			continue
		}
		if it.limit > 0 {
			it.limit--
		}
		tup := projectTuple(catalog.NewTuple(it.table, cols, vals), it.projections)
		return &tup, true, nil
	}
	return nil, false, nil
}

// Close releases the underlying cursor.
func (it *TupleIter) Close() error { return it.inner.Close() }

// projectTuple narrows a tuple's columns/values to the requested
// projection, preserving order; nil projections returns the tuple as-is.
func projectTuple(tup catalog.Tuple, projections []uint32) catalog.Tuple {
	if projections == nil {
		return tup
	}
	out := catalog.Tuple{ID: tup.ID}
	for _, col := range projections {
		if v, ok := tup.ValueFor(col); ok {
			out.Columns = append(out.Columns, col)
			out.Values = append(out.Values, v)
		}
	}
	return out
}
