package bind

import (
	"fmt"
	"strings"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/plan"
	"github.com/k0kubun/kipsql/storage"
)

// Bind dispatches on the statement's dynamic type and produces the
// corresponding plan.LogicalPlan, per §4.4's per-statement-kind
// responsibilities.
func Bind(tx *storage.Transaction, stmt ast.Statement) (plan.LogicalPlan, error) {
	ctx := NewContext(tx)
	switch s := stmt.(type) {
	case *ast.Query:
		return bindQuery(ctx, s)
	case *ast.CreateTableStmt:
		return bindCreateTable(ctx, s)
	case *ast.InsertStmt:
		return bindInsert(ctx, s)
	case *ast.UpdateStmt:
		return bindUpdate(ctx, s)
	case *ast.DeleteStmt:
		return bindDelete(ctx, s)
	case *ast.TruncateStmt:
		return bindTruncate(ctx, s)
	case *ast.DropStmt:
		return bindDrop(ctx, s)
	case *ast.ShowTablesStmt:
		return &plan.ShowTables{}, nil
	case *ast.CopyStmt:
		return bindCopy(ctx, s)
	default:
		return nil, errUnsupportedStmt(fmt.Sprintf("%T", stmt))
	}
}

func normalizeObjectName(name ast.ObjectName) (schema, table string) {
	schema = catalog.DefaultSchema
	if name.Schema != "" {
		schema = catalog.NormalizeIdentifierName(name.Schema)
	}
	table = catalog.NormalizeIdentifierName(name.Name)
	return schema, table
}

func logicalTypeOf(typ string) catalog.LogicalType {
	switch strings.ToUpper(typ) {
	case "BOOL", "BOOLEAN":
		return catalog.Boolean
	case "VARCHAR", "TEXT", "CHAR", "STRING":
		return catalog.Varchar
	default:
		return catalog.Integer
	}
}

// --- CREATE TABLE ------------------------------------------------------

func bindCreateTable(ctx *Context, s *ast.CreateTableStmt) (plan.LogicalPlan, error) {
	_, table := normalizeObjectName(s.Name)
	if table == "" {
		return nil, errInvalidTableName(s.Name.Name)
	}

	seen := make(map[string]bool, len(s.Columns))
	cols := make([]catalog.ColumnCatalog, 0, len(s.Columns))
	for i, cd := range s.Columns {
		name := catalog.NormalizeIdentifierName(cd.Name)
		if seen[name] {
			return nil, errInvalidColumn(name)
		}
		seen[name] = true

		var def *catalog.Value
		if cd.Default != nil {
			lit, ok := cd.Default.(*ast.Literal)
			if !ok {
				return nil, errSubquery("column default must be a literal")
			}
			v := literalValue(*lit)
			def = &v
		}

		desc := catalog.ColumnDesc{
			LogicalType: logicalTypeOf(cd.Type),
			IsPrimary:   cd.PrimaryKey,
			IsUnique:    cd.Unique,
			Default:     def,
		}
		cols = append(cols, catalog.NewColumnCatalog(uint32(i), name, !cd.NotNull && !cd.PrimaryKey, desc))
	}

	return &plan.CreateTable{
		Name:        catalog.NewTableName(table),
		Columns:     cols,
		IfNotExists: s.IfNotExists,
	}, nil
}

// --- INSERT --------------------------------------------------------------

func bindInsert(ctx *Context, s *ast.InsertStmt) (plan.LogicalPlan, error) {
	_, tableName := normalizeObjectName(s.Table)
	tbl, err := ctx.tx.Table(catalog.NewTableName(tableName))
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errInvalidTable(tableName)
	}

	values, ok := s.Source.(*ast.ValuesList)
	if !ok {
		return nil, errUnsupportedStmt("INSERT source must be a literal VALUES list")
	}

	// Resolve the provided column list (or all columns in declaration
	// order when none is given) to dense column ids.
	var colIDs []uint32
	if len(s.Columns) == 0 {
		for _, c := range tbl.Columns() {
			colIDs = append(colIDs, c.ID)
		}
	} else {
		for _, name := range s.Columns {
			c, ok := tbl.Column(catalog.NormalizeIdentifierName(name))
			if !ok {
				return nil, errInvalidColumn(name)
			}
			colIDs = append(colIDs, c.ID)
		}
	}

	rows := make([][]catalog.Value, 0, len(values.Rows))
	for _, row := range values.Rows {
		if len(row) != len(colIDs) {
			return nil, errUnsupportedStmt("VALUES row arity does not match column list")
		}
		rowVals := make([]catalog.Value, len(tbl.Columns()))
		set := make([]bool, len(rowVals))
		for i, e := range row {
			lit, ok := e.(*ast.Literal)
			if !ok {
				return nil, errUnsupportedStmt("INSERT values must be literals")
			}
			col, _ := tbl.ColumnByID(colIDs[i])
			v, err := literalValue(*lit).CoerceTo(col.Desc.LogicalType)
			if err != nil {
				return nil, errBinaryOpTypeMismatch(col.Desc.LogicalType.String(), "literal")
			}
			rowVals[colIDs[i]] = v
			set[colIDs[i]] = true
		}
		for _, c := range tbl.Columns() {
			if set[c.ID] {
				continue
			}
			if c.Desc.Default != nil {
				rowVals[c.ID] = *c.Desc.Default
			} else if !c.Nullable {
				return nil, errInvalidColumn(c.Name)
			} else {
				rowVals[c.ID] = catalog.Null() // Open Question #3 decision
			}
		}
		rows = append(rows, rowVals)
	}

	allIDs := make([]uint32, len(tbl.Columns()))
	for i, c := range tbl.Columns() {
		allIDs[i] = c.ID
	}

	return &plan.Insert{
		Table:     tbl,
		ColIdxs:   allIDs,
		Rows:      rows,
		Overwrite: s.Overwrite,
	}, nil
}

// --- UPDATE / DELETE -------------------------------------------------------

func bindUpdate(ctx *Context, s *ast.UpdateStmt) (plan.LogicalPlan, error) {
	_, tableName := normalizeObjectName(s.Table)
	tbl, err := ctx.bindTableName(catalog.NewTableName(tableName), "")
	if err != nil {
		return nil, err
	}

	assigns := make([]plan.BoundAssignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		col, ok := tbl.Column(catalog.NormalizeIdentifierName(a.Column))
		if !ok {
			return nil, errInvalidColumn(a.Column)
		}
		v, err := bindExpr(ctx, a.Value, false)
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, plan.BoundAssignment{ColumnID: col.ID, Value: v})
	}

	var sel plan.BoundExpr
	if s.Selection != nil {
		sel, err = bindExpr(ctx, s.Selection, false)
		if err != nil {
			return nil, err
		}
	}

	return &plan.Update{Table: tbl, Assignments: assigns, Selection: sel}, nil
}

func bindDelete(ctx *Context, s *ast.DeleteStmt) (plan.LogicalPlan, error) {
	_, tableName := normalizeObjectName(s.From)
	tbl, err := ctx.bindTableName(catalog.NewTableName(tableName), "")
	if err != nil {
		return nil, err
	}

	var sel plan.BoundExpr
	if s.Selection != nil {
		sel, err = bindExpr(ctx, s.Selection, false)
		if err != nil {
			return nil, err
		}
	}
	return &plan.Delete{Table: tbl, Selection: sel}, nil
}

// --- TRUNCATE / DROP / COPY -------------------------------------------------

func bindTruncate(ctx *Context, s *ast.TruncateStmt) (plan.LogicalPlan, error) {
	_, tableName := normalizeObjectName(s.Table)
	tbl, err := ctx.tx.Table(catalog.NewTableName(tableName))
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errInvalidTable(tableName)
	}
	return &plan.Truncate{Table: tbl}, nil
}

func bindDrop(ctx *Context, s *ast.DropStmt) (plan.LogicalPlan, error) {
	if s.Object != ast.ObjectTable {
		return nil, errUnsupportedStmt("DROP of a non-table object")
	}
	if len(s.Names) != 1 {
		return nil, errUnsupportedStmt("DROP TABLE with more than one name")
	}
	_, tableName := normalizeObjectName(s.Names[0])
	if !s.IfExists {
		tbl, err := ctx.tx.Table(catalog.NewTableName(tableName))
		if err != nil {
			return nil, err
		}
		if tbl == nil {
			return nil, errInvalidTable(tableName)
		}
	}
	return &plan.DropTable{Name: catalog.NewTableName(tableName), IfExists: s.IfExists}, nil
}

func bindCopy(ctx *Context, s *ast.CopyStmt) (plan.LogicalPlan, error) {
	_, tableName := normalizeObjectName(s.Table)
	tbl, err := ctx.tx.Table(catalog.NewTableName(tableName))
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errInvalidTable(tableName)
	}
	return &plan.Copy{
		Table:   tbl,
		Source:  s.Source,
		To:      s.To,
		Target:  s.Target,
		Options: s.Options,
	}, nil
}

// --- SELECT ----------------------------------------------------------------

func bindQuery(ctx *Context, q *ast.Query) (plan.LogicalPlan, error) {
	core, ok := q.Body.(*ast.SelectCore)
	if !ok {
		return nil, errSubquery("compound SELECT bodies are not supported")
	}

	if len(core.From) == 0 {
		return nil, errUnsupportedStmt("SELECT without FROM")
	}

	var child plan.Operator
	for i, ref := range core.From {
		_, tableName := normalizeObjectName(ref.Name)
		tbl, err := ctx.bindTableName(catalog.NewTableName(tableName), ref.Alias)
		if err != nil {
			return nil, err
		}
		scan := &plan.Scan{Table: tbl}
		if i == 0 {
			child = scan
		} else {
			var on plan.BoundExpr
			if ref.On != nil {
				on, err = bindExpr(ctx, ref.On, false)
				if err != nil {
					return nil, err
				}
			}
			child = &plan.Join{Left: child, Right: scan, Kind: ref.Join, On: on}
		}
	}

	if core.Where != nil {
		pred, err := bindExpr(ctx, core.Where, false)
		if err != nil {
			return nil, err
		}
		child = &plan.Filter{Predicate: pred, Child: child}
	}

	projExprs := make([]plan.BoundExpr, 0, len(core.Projection))
	for _, p := range core.Projection {
		bound, err := bindExpr(ctx, p, true)
		if err != nil {
			return nil, err
		}
		projExprs = append(projExprs, bound)
	}

	// Bind GROUP BY after the projection's aggregate calls so aggregate/
	// group-key indices follow the "aggregates first, then group keys"
	// convention: aggregates take 0..|agg_calls|-1, group keys follow (§9).
	for _, g := range core.GroupBy {
		if _, err := bindGroupByExpr(ctx, g); err != nil {
			return nil, err
		}
	}
	if err := isAggLegal(ctx, projExprs); err != nil {
		return nil, err
	}

	if len(ctx.aggCalls) > 0 || len(ctx.groupByExprs) > 0 {
		child = &plan.Aggregate{AggCalls: ctx.aggCalls, GroupBy: ctx.groupByExprs, Child: child}
	}

	root := plan.Operator(&plan.Project{Exprs: projExprs, Child: child})

	if len(core.OrderBy) > 0 {
		keys := make([]plan.SortKey, 0, len(core.OrderBy))
		for _, ob := range core.OrderBy {
			bound, err := bindExpr(ctx, ob.Expr, false)
			if err != nil {
				return nil, err
			}
			keys = append(keys, plan.SortKey{Expr: bound, Desc: ob.Desc})
		}
		root = &plan.Sort{Keys: keys, Child: root}
	}

	if core.Limit != nil || core.Offset != nil {
		root = &plan.Limit{Offset: core.Offset, Count: core.Limit, Child: root}
	}

	return &plan.Select{Root: root}, nil
}
