// Package copyio is the row source/sink behind a COPY statement's
// external file specifier (§4.4, §4.5): reading rows in FROM a CSV file
// and writing rows OUT TO one.
//
// Grounded on driver/database.go's dispatch-by-kind shape (one
// switch/case entry point delegating to a per-format implementation) and
// driver/{mysql,postgres}.go's DB-row-shaped helpers, retargeted here
// from "dump an external database's rows" to "read/write one CSV file,"
// the distinct role COPY needs that importer/ (schema introspection)
// does not cover.
package copyio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
)

// ReadFrom streams rows out of target's file, coercing each field
// against the declared column type in table order. One csv.Reader record
// per catalog.Tuple; the header row, if present, is asked for via
// hasHeader and discarded.
func ReadFrom(target ast.CopyTarget, table *catalog.TableCatalog, hasHeader bool) ([]catalog.Tuple, error) {
	f, err := os.Open(target.Path)
	if err != nil {
		return nil, fmt.Errorf("copyio: opening %s: %w", target.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	cols := table.Columns()
	colIDs := make([]uint32, len(cols))
	for i, c := range cols {
		colIDs[i] = c.ID
	}

	var tuples []catalog.Tuple
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("copyio: reading %s: %w", target.Path, err)
		}
		if first && hasHeader {
			first = false
			continue
		}
		first = false

		if len(record) != len(cols) {
			return nil, fmt.Errorf("copyio: %s: row has %d fields, table %s has %d columns", target.Path, len(record), table.Name, len(cols))
		}
		values := make([]catalog.Value, len(cols))
		for i, field := range record {
			v, err := parseField(field, cols[i].Desc.LogicalType)
			if err != nil {
				return nil, fmt.Errorf("copyio: %s: column %s: %w", target.Path, cols[i].Name, err)
			}
			values[i] = v
		}
		tuples = append(tuples, catalog.NewTuple(table, colIDs, values))
	}
	return tuples, nil
}

func parseField(field string, t catalog.LogicalType) (catalog.Value, error) {
	if field == "" {
		return catalog.Null(), nil
	}
	switch t {
	case catalog.Integer:
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.NewInt64(n), nil
	case catalog.Boolean:
		b, err := strconv.ParseBool(field)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.NewBool(b), nil
	default:
		return catalog.NewVarchar(field), nil
	}
}

// WriteTo serializes rows to target's file as CSV, one record per tuple
// in table column order, writing a header row first.
func WriteTo(target ast.CopyTarget, table *catalog.TableCatalog, rows []catalog.Tuple) error {
	f, err := os.Create(target.Path)
	if err != nil {
		return fmt.Errorf("copyio: creating %s: %w", target.Path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := table.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("copyio: writing header to %s: %w", target.Path, err)
	}

	for _, tup := range rows {
		record := make([]string, len(cols))
		for i, c := range cols {
			v, ok := tup.ValueFor(c.ID)
			if !ok || v.IsNull() {
				record[i] = ""
				continue
			}
			record[i] = v.String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("copyio: writing row to %s: %w", target.Path, err)
		}
	}
	w.Flush()
	return w.Error()
}
