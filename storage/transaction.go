// Package storage is the concurrency and durability boundary: it wraps an
// mvcc.Txn and the codec to expose catalog CRUD, tuple append/delete, index
// maintenance, range iteration, and commit (§4.2).
package storage

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/codec"
	"github.com/k0kubun/kipsql/mvcc"
)

// DefaultCatalogCacheSize bounds the per-transaction TableCatalog LRU when
// config.Engine does not override it (§5).
const DefaultCatalogCacheSize = 128

// Transaction is the public handle DDL/DML operators are built against. It
// is exclusively owned by one caller from creation through Commit (§5).
type Transaction struct {
	txn   *mvcc.Txn
	cache *lru.Cache[catalog.TableName, *catalog.TableCatalog]
}

// Begin opens a new Transaction over store, with a catalog cache bounded to
// cacheSize entries.
func Begin(store *mvcc.Store, cacheSize int) *Transaction {
	if cacheSize <= 0 {
		cacheSize = DefaultCatalogCacheSize
	}
	cache, _ := lru.New[catalog.TableName, *catalog.TableCatalog](cacheSize)
	return &Transaction{txn: store.Begin(), cache: cache}
}

// CreateTable writes the root entry, derives index metas for every indexed
// column, writes per-column and per-index-meta entries, and seeds the LRU.
func (tx *Transaction) CreateTable(name catalog.TableName, cols []catalog.ColumnCatalog, ifNotExists bool) (*catalog.TableCatalog, error) {
	rootKey := codec.RootKey(name)
	_, found, err := tx.txn.Get(rootKey)
	if err != nil {
		return nil, engineErr(err)
	}
	if found {
		if ifNotExists {
			return tx.Table(name)
		}
		return nil, errTableExists(name)
	}

	tbl, err := catalog.NewTableCatalog(name, cols)
	if err != nil {
		return nil, err
	}

	tx.txn.Set(rootKey, codec.EncodeTableName(name))
	for _, c := range tbl.Columns() {
		tx.txn.Set(codec.ColKey(name, c.ID), codec.EncodeColumn(c))
	}
	for _, idx := range tbl.Indexes {
		tx.txn.Set(codec.IdxMetaKey(name, idx.ID), codec.EncodeIndexMeta(idx))
	}

	tx.cache.Add(name, tbl)
	return tbl, nil
}

// DropTable deletes every key in the tuple family, every key in every
// index family, every column entry, every index-meta entry, and finally
// the root entry, in that order, evicting the cache entry.
func (tx *Transaction) DropTable(name catalog.TableName) error {
	tbl, err := tx.Table(name)
	if err != nil {
		return err
	}
	if tbl == nil {
		return errTableNotFound(name)
	}

	tupleBound := codec.TupleBound(name)
	if err := tx.deleteRange(tupleBound); err != nil {
		return err
	}
	for _, idx := range tbl.Indexes {
		if err := tx.deleteRange(codec.IdxBound(name, idx.ID)); err != nil {
			return err
		}
	}
	for _, c := range tbl.Columns() {
		tx.txn.Delete(codec.ColKey(name, c.ID))
	}
	for _, idx := range tbl.Indexes {
		tx.txn.Delete(codec.IdxMetaKey(name, idx.ID))
	}
	tx.txn.Delete(codec.RootKey(name))

	tx.cache.Remove(name)
	return nil
}

func (tx *Transaction) deleteRange(b codec.Bound) error {
	it, err := tx.txn.Iter(b.Lower, b.Upper)
	if err != nil {
		return engineErr(err)
	}
	var keys [][]byte
	for it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	_ = it.Close()
	for _, k := range keys {
		tx.txn.Delete(k)
	}
	return nil
}

// Table returns the cached catalog for name or, on miss, reconstructs it by
// range-scanning the column family and the index-meta family. Returns nil,
// nil when the table does not exist or when its stored entries cannot be
// decoded or assembled into a TableCatalog.
func (tx *Transaction) Table(name catalog.TableName) (*catalog.TableCatalog, error) {
	if tbl, ok := tx.cache.Get(name); ok {
		return tbl, nil
	}

	colBound := codec.ColBound(name)
	it, err := tx.txn.Iter(colBound.Lower, colBound.Upper)
	if err != nil {
		return nil, engineErr(err)
	}
	var cols []catalog.ColumnCatalog
	for it.Next() {
		c, err := codec.DecodeColumn(it.Value())
		if err != nil {
			return nil, nil
		}
		cols = append(cols, c)
	}
	_ = it.Close()

	if len(cols) == 0 {
		return nil, nil
	}

	tbl, err := catalog.NewTableCatalog(name, cols)
	if err != nil {
		return nil, nil
	}

	idxBound := codec.IdxMetaBound(name)
	it2, err := tx.txn.Iter(idxBound.Lower, idxBound.Upper)
	if err != nil {
		return nil, engineErr(err)
	}
	var indexes []catalog.IndexMeta
	for it2.Next() {
		m, err := codec.DecodeIndexMeta(it2.Value())
		if err != nil {
			return nil, nil
		}
		indexes = append(indexes, m)
	}
	_ = it2.Close()
	if indexes != nil {
		tbl.Indexes = indexes
	}

	tx.cache.Add(name, tbl)
	return tbl, nil
}

// ShowTables range-scans the root family and decodes each present value.
func (tx *Transaction) ShowTables() ([]catalog.TableName, error) {
	b := codec.RootBound()
	it, err := tx.txn.Iter(b.Lower, b.Upper)
	if err != nil {
		return nil, engineErr(err)
	}
	var names []catalog.TableName
	for it.Next() {
		n, err := codec.DecodeTableName(it.Value())
		if err != nil {
			return nil, codecErr(err)
		}
		names = append(names, n)
	}
	_ = it.Close()
	return names, nil
}

// Append encodes the tuple and writes it. If !isOverwrite and the key
// exists, fails DuplicatePrimaryKey.
func (tx *Transaction) Append(table catalog.TableName, tup catalog.Tuple, isOverwrite bool) error {
	if tup.ID == nil {
		return errTableNotFound(table) // a table without a primary index cannot append by id in this slice
	}
	key := codec.TupleKey(table, *tup.ID)
	if !isOverwrite {
		_, found, err := tx.txn.Get(key)
		if err != nil {
			return engineErr(err)
		}
		if found {
			return errDuplicatePrimaryKey(table, *tup.ID)
		}
	}
	tx.txn.Set(key, codec.EncodeTuple(tup.Columns, tup.Values))
	return nil
}

// Delete removes the tuple row. Index maintenance is the caller's
// responsibility (§4.2).
func (tx *Transaction) Delete(table catalog.TableName, tupleID catalog.Value) {
	tx.txn.Delete(codec.TupleKey(table, tupleID))
}

// AddIndex encodes the index entry and writes it. A differing stored id
// under a unique index is DuplicateUniqueValue; an equal id is a no-op.
// Only single-column indexes are supported in this slice (Open Question #1).
func (tx *Transaction) AddIndex(table catalog.TableName, index catalog.IndexMeta, key catalog.Value, tupleID catalog.Value, isUnique bool) error {
	if len(index.ColumnIDs) != 1 {
		return catalog.ErrUnsupportedIndex
	}
	idxKey := codec.IdxKey(table, index.ID, key)
	raw, found, err := tx.txn.Get(idxKey)
	if err != nil {
		return engineErr(err)
	}
	if found {
		ids, err := codec.DecodeTupleIDs(raw)
		if err != nil {
			return codecErr(err)
		}
		if isUnique {
			if len(ids) == 1 && ids[0].Equal(tupleID) {
				return nil // equal stored id is a no-op
			}
			return errDuplicateUniqueValue(table, index.Name, key)
		}
		ids = append(ids, tupleID)
		tx.txn.Set(idxKey, codec.EncodeTupleIDs(ids))
		return nil
	}
	tx.txn.Set(idxKey, codec.EncodeTupleIDs([]catalog.Value{tupleID}))
	return nil
}

// DelIndex removes the index entry unconditionally.
func (tx *Transaction) DelIndex(table catalog.TableName, index catalog.IndexMeta, key catalog.Value) error {
	if len(index.ColumnIDs) != 1 {
		return catalog.ErrUnsupportedIndex
	}
	tx.txn.Delete(codec.IdxKey(table, index.ID, key))
	return nil
}

// Commit attempts atomic commit of the underlying mvcc batch; propagates
// the conflict error verbatim (§4.2, §7).
func (tx *Transaction) Commit() error {
	if err := tx.txn.Commit(); err != nil {
		return engineErr(err)
	}
	return nil
}

// Rollback discards the transaction without committing.
func (tx *Transaction) Rollback() error {
	return engineErr(tx.txn.Rollback())
}

// rawGet/rawIter expose the underlying mvcc handle to IndexIter, which
// lives in this package and needs direct key access beyond the
// table/tuple/index helpers above.
func (tx *Transaction) rawGet(key []byte) ([]byte, bool, error) { return tx.txn.Get(key) }
func (tx *Transaction) rawIter(lower, upper []byte) (*mvcc.Iter, error) {
	return tx.txn.Iter(lower, upper)
}
