// Package exec drives a physical.Operator tree to completion against a
// storage.Transaction (§4.7). It performs no optimisation and no
// concurrency: a single-threaded loop that pulls from the operator and
// applies bound expressions row by row.
package exec

import (
	"fmt"
	"log/slog"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/copyio"
	"github.com/k0kubun/kipsql/physical"
	"github.com/k0kubun/kipsql/plan"
	"github.com/k0kubun/kipsql/storage"
	"github.com/k0kubun/kipsql/util"
)

// Row is one output row: the projected values in projection order.
type Row []catalog.Value

// Result is what Execute hands back to a caller (the CLI, a test).
type Result struct {
	Rows         []Row
	RowsAffected int
	Tables       []catalog.TableName
}

// Execute dispatches on op's dynamic type and drives it to completion
// against tx (§4.7; §5: synchronous, single-threaded).
func Execute(tx *storage.Transaction, op physical.Operator) (Result, error) {
	switch o := op.(type) {
	case *physical.CreateTable:
		_, err := tx.CreateTable(o.TableName, o.Columns, o.IfNotExists)
		return Result{}, err

	case *physical.Insert:
		return execInsert(tx, o)

	case *physical.Delete:
		return execDelete(tx, o)

	case *physical.Update:
		return execUpdate(tx, o)

	case *physical.DropTable:
		tbl, err := tx.Table(o.TableName)
		if err != nil {
			return Result{}, err
		}
		if tbl == nil {
			if o.IfExists {
				return Result{}, nil
			}
			return Result{}, storage.ErrTableNotFound
		}
		return Result{}, tx.DropTable(o.TableName)

	case *physical.Truncate:
		return execTruncate(tx, o)

	case *physical.ShowTables:
		names, err := tx.ShowTables()
		return Result{Tables: names}, err

	case *physical.Copy:
		return execCopy(tx, o)

	case *physical.Projection:
		return execProjection(tx, o)

	case *physical.TableScan:
		rows, err := scanAll(tx, o.Base)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: rowsOf(rows)}, nil

	default:
		return Result{}, fmt.Errorf("exec: unsupported operator %T", op)
	}
}

func rowsOf(tuples []catalog.Tuple) []Row {
	out := make([]Row, len(tuples))
	for i, t := range tuples {
		out[i] = Row(t.Values)
	}
	return out
}

// scanAll pulls every tuple of table to completion; the minimal executor
// performs no pushdown beyond what TableScan/Read already offers.
func scanAll(tx *storage.Transaction, table *catalog.TableCatalog) ([]catalog.Tuple, error) {
	it, err := tx.Read(table.Name, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []catalog.Tuple
	for {
		tup, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, *tup)
	}
	return out, nil
}

func execProjection(tx *storage.Transaction, p *physical.Projection) (Result, error) {
	childRes, err := Execute(tx, p.Child)
	if err != nil {
		return Result{}, err
	}
	var tbl *catalog.TableCatalog
	if scan, ok := p.Child.(*physical.TableScan); ok {
		tbl = scan.Base
	}

	var out []Row
	for _, r := range childRes.Rows {
		tup := catalog.Tuple{Columns: columnIDsOf(tbl), Values: []catalog.Value(r)}
		row, err := projectRow(tup, p.Exprs, tbl)
		if err != nil {
			return Result{}, err
		}
		out = append(out, row)
	}
	return Result{Rows: out}, nil
}

func columnIDsOf(tbl *catalog.TableCatalog) []uint32 {
	if tbl == nil {
		return nil
	}
	cols := tbl.Columns()
	ids := make([]uint32, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}

func projectRow(tup catalog.Tuple, exprs []plan.BoundExpr, tbl *catalog.TableCatalog) (Row, error) {
	var out Row
	for _, e := range exprs {
		if _, ok := e.(*plan.Star); ok {
			out = append(out, tup.Values...)
			continue
		}
		v, err := Eval(tup, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func execInsert(tx *storage.Transaction, o *physical.Insert) (Result, error) {
	tbl, err := tx.Table(o.TableName)
	if err != nil {
		return Result{}, err
	}
	if tbl == nil {
		return Result{}, storage.ErrTableNotFound
	}
	n := 0
	for _, row := range o.Rows {
		tup := catalog.NewTuple(tbl, o.ColIdxs, row)
		if err := tx.Append(o.TableName, tup, o.Overwrite); err != nil {
			return Result{}, err
		}
		if err := maintainIndexesOnInsert(tx, tbl, tup); err != nil {
			return Result{}, err
		}
		n++
	}
	return Result{RowsAffected: n}, nil
}

// maintainIndexesOnInsert emits one add_index call per indexed column, as
// the executor is required to ("the executor emits paired del_index/
// delete operations") for index maintenance (§4.2, §4.7).
func maintainIndexesOnInsert(tx *storage.Transaction, tbl *catalog.TableCatalog, tup catalog.Tuple) error {
	for _, idx := range tbl.Indexes {
		col := idx.ColumnIDs[0]
		v, ok := tup.ValueFor(col)
		if !ok {
			continue
		}
		if err := tx.AddIndex(tbl.Name, idx, v, *tup.ID, idx.IsUnique); err != nil {
			return err
		}
	}
	return nil
}

func removeIndexesForTuple(tx *storage.Transaction, tbl *catalog.TableCatalog, tup catalog.Tuple) error {
	for _, idx := range tbl.Indexes {
		col := idx.ColumnIDs[0]
		v, ok := tup.ValueFor(col)
		if !ok {
			continue
		}
		if err := tx.DelIndex(tbl.Name, idx, v); err != nil {
			return err
		}
	}
	return nil
}

func execDelete(tx *storage.Transaction, o *physical.Delete) (Result, error) {
	tbl, err := tx.Table(o.TableName)
	if err != nil {
		return Result{}, err
	}
	if tbl == nil {
		return Result{}, storage.ErrTableNotFound
	}
	tuples, err := scanAll(tx, tbl)
	if err != nil {
		return Result{}, err
	}
	n := 0
	for _, tup := range tuples {
		if o.Selection != nil {
			keep, err := evalBool(tup, o.Selection)
			if err != nil {
				return Result{}, err
			}
			if !keep {
				continue
			}
		}
		if err := removeIndexesForTuple(tx, tbl, tup); err != nil {
			return Result{}, err
		}
		tx.Delete(o.TableName, *tup.ID)
		n++
	}
	return Result{RowsAffected: n}, nil
}

func execUpdate(tx *storage.Transaction, o *physical.Update) (Result, error) {
	tbl, err := tx.Table(o.TableName)
	if err != nil {
		return Result{}, err
	}
	if tbl == nil {
		return Result{}, storage.ErrTableNotFound
	}
	tuples, err := scanAll(tx, tbl)
	if err != nil {
		return Result{}, err
	}
	n := 0
	for _, tup := range tuples {
		if o.Selection != nil {
			keep, err := evalBool(tup, o.Selection)
			if err != nil {
				return Result{}, err
			}
			if !keep {
				continue
			}
		}
		newTup := tup
		newTup.Values = append([]catalog.Value(nil), tup.Values...)
		for _, a := range o.Assignments {
			v, err := Eval(tup, a.Value)
			if err != nil {
				return Result{}, err
			}
			for i, c := range newTup.Columns {
				if c == a.ColumnID {
					newTup.Values[i] = v
				}
			}
		}
		newTup = catalog.NewTuple(tbl, newTup.Columns, newTup.Values)

		if err := removeIndexesForTuple(tx, tbl, tup); err != nil {
			return Result{}, err
		}
		tx.Delete(o.TableName, *tup.ID)
		if err := tx.Append(o.TableName, newTup, true); err != nil {
			return Result{}, err
		}
		if err := maintainIndexesOnInsert(tx, tbl, newTup); err != nil {
			return Result{}, err
		}
		n++
	}
	return Result{RowsAffected: n}, nil
}

// execCopy drives a COPY in either direction via copyio: TO a file reads
// every tuple of the table and writes them out; FROM a file reads rows in
// and appends them, maintaining indexes the same way Insert does.
func execCopy(tx *storage.Transaction, o *physical.Copy) (Result, error) {
	tbl, err := tx.Table(o.TableName)
	if err != nil {
		return Result{}, err
	}
	if tbl == nil {
		return Result{}, storage.ErrTableNotFound
	}

	var optAttrs []any
	for k, v := range util.CanonicalMapIter(o.Options) {
		optAttrs = append(optAttrs, slog.String(k, v))
	}
	slog.Debug("exec: copy", append(optAttrs, slog.String("table", string(o.TableName)), slog.Bool("to", o.To))...)

	if o.To {
		tuples, err := scanAll(tx, tbl)
		if err != nil {
			return Result{}, err
		}
		if err := copyio.WriteTo(o.Target, tbl, tuples); err != nil {
			return Result{}, err
		}
		return Result{RowsAffected: len(tuples)}, nil
	}

	hasHeader := o.Options["header"] == "true"
	tuples, err := copyio.ReadFrom(o.Source, tbl, hasHeader)
	if err != nil {
		return Result{}, err
	}
	for _, tup := range tuples {
		if err := tx.Append(o.TableName, tup, false); err != nil {
			return Result{}, err
		}
		if err := maintainIndexesOnInsert(tx, tbl, tup); err != nil {
			return Result{}, err
		}
	}
	return Result{RowsAffected: len(tuples)}, nil
}

func execTruncate(tx *storage.Transaction, o *physical.Truncate) (Result, error) {
	tbl, err := tx.Table(o.TableName)
	if err != nil {
		return Result{}, err
	}
	if tbl == nil {
		return Result{}, storage.ErrTableNotFound
	}
	tuples, err := scanAll(tx, tbl)
	if err != nil {
		return Result{}, err
	}
	for _, tup := range tuples {
		if err := removeIndexesForTuple(tx, tbl, tup); err != nil {
			return Result{}, err
		}
		tx.Delete(o.TableName, *tup.ID)
	}
	return Result{RowsAffected: len(tuples)}, nil
}

// Eval evaluates a bound expression against one tuple.
func Eval(tup catalog.Tuple, e plan.BoundExpr) (catalog.Value, error) {
	switch n := e.(type) {
	case *plan.Const:
		return n.Value, nil
	case *plan.ColumnRef:
		v, ok := tup.ValueFor(n.ID)
		if !ok {
			return catalog.Null(), nil
		}
		return v, nil
	case *plan.Binary:
		return evalBinary(tup, n)
	default:
		return catalog.Value{}, fmt.Errorf("exec: cannot evaluate %T outside an aggregate/scan context", e)
	}
}

func evalBool(tup catalog.Tuple, e plan.BoundExpr) (bool, error) {
	v, err := Eval(tup, e)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	return v.Bool(), nil
}

func evalBinary(tup catalog.Tuple, n *plan.Binary) (catalog.Value, error) {
	l, err := Eval(tup, n.Left)
	if err != nil {
		return catalog.Value{}, err
	}
	r, err := Eval(tup, n.Right)
	if err != nil {
		return catalog.Value{}, err
	}

	switch n.Op {
	case ast.OpAnd:
		return catalog.NewBool(!l.IsNull() && !r.IsNull() && l.Bool() && r.Bool()), nil
	case ast.OpOr:
		return catalog.NewBool((!l.IsNull() && l.Bool()) || (!r.IsNull() && r.Bool())), nil
	default:
		cmp, ok := compare(l, r)
		if !ok {
			return catalog.NewBool(false), nil
		}
		switch n.Op {
		case ast.OpEq:
			return catalog.NewBool(cmp == 0), nil
		case ast.OpNe:
			return catalog.NewBool(cmp != 0), nil
		case ast.OpLt:
			return catalog.NewBool(cmp < 0), nil
		case ast.OpLe:
			return catalog.NewBool(cmp <= 0), nil
		case ast.OpGt:
			return catalog.NewBool(cmp > 0), nil
		case ast.OpGe:
			return catalog.NewBool(cmp >= 0), nil
		default:
			return catalog.Value{}, fmt.Errorf("exec: unsupported binary operator %v", n.Op)
		}
	}
}

// compare returns -1/0/1 comparing l and r, or ok=false when either is
// Null or their types disagree.
func compare(l, r catalog.Value) (int, bool) {
	if l.IsNull() || r.IsNull() || l.Type() != r.Type() {
		return 0, false
	}
	switch l.Type() {
	case catalog.Integer:
		switch {
		case l.Int64() < r.Int64():
			return -1, true
		case l.Int64() > r.Int64():
			return 1, true
		default:
			return 0, true
		}
	case catalog.Varchar:
		switch {
		case l.Varchar() < r.Varchar():
			return -1, true
		case l.Varchar() > r.Varchar():
			return 1, true
		default:
			return 0, true
		}
	case catalog.Boolean:
		if l.Bool() == r.Bool() {
			return 0, true
		}
		if !l.Bool() {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}
