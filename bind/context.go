package bind

import (
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/plan"
	"github.com/k0kubun/kipsql/storage"
)

// boundTable is one FROM-clause entry: its catalog view and the alias it
// was bound under ("" when none was given).
type boundTable struct {
	catalog *catalog.TableCatalog
	alias   string
}

// Context holds everything §4.4 says the binder needs: a read-only
// transaction reference, a bind-table map, an alias map, a table-alias
// map, a group-by expression list, and an aggregate-call list.
type Context struct {
	tx *storage.Transaction

	bindOrder  []string // aliased-or-real table keys, in FROM bind order
	bindTable  map[string]*boundTable
	tableAlias map[string]catalog.TableName // alias -> real name; also real name -> itself

	columnAlias map[string]plan.BoundExpr // SELECT-list alias -> bound expr

	groupByExprs []plan.BoundExpr
	aggCalls     []plan.BoundExpr
}

// NewContext builds an empty binder context over tx.
func NewContext(tx *storage.Transaction) *Context {
	return &Context{
		tx:          tx,
		bindTable:   make(map[string]*boundTable),
		tableAlias:  make(map[string]catalog.TableName),
		columnAlias: make(map[string]plan.BoundExpr),
	}
}

// bindTableName resolves and registers one FROM-clause table, through
// alias rewriting. Aliases are write-once: a duplicate raises InvalidTable
// (§4.4 rule 3).
func (c *Context) bindTableName(name catalog.TableName, alias string) (*catalog.TableCatalog, error) {
	key := alias
	if key == "" {
		key = string(name)
	}
	if _, exists := c.bindTable[key]; exists {
		return nil, errInvalidTable(key)
	}

	tbl, err := c.tx.Table(name)
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errInvalidTable(string(name))
	}

	c.bindTable[key] = &boundTable{catalog: tbl, alias: alias}
	c.bindOrder = append(c.bindOrder, key)
	c.tableAlias[key] = name
	return tbl, nil
}

// resolveTableAlias looks up t in the table-alias map (rule 2).
func (c *Context) resolveTableAlias(t string) (*boundTable, bool) {
	bt, ok := c.bindTable[t]
	return bt, ok
}

// resolveBareColumn implements rule 1: consult the column-alias map first,
// then each bound table in bind order; a match in more than one unaliased
// table is ambiguous.
func (c *Context) resolveBareColumn(name string) (*plan.ColumnRef, error) {
	if expr, ok := c.columnAlias[name]; ok {
		if ref, ok := expr.(*plan.ColumnRef); ok {
			return ref, nil
		}
	}

	var found *plan.ColumnRef
	matches := 0
	for _, key := range c.bindOrder {
		bt := c.bindTable[key]
		col, ok := bt.catalog.Column(name)
		if !ok {
			continue
		}
		matches++
		found = &plan.ColumnRef{Table: bt.catalog.Name, ID: col.ID, Name: col.Name}
	}
	if matches == 0 {
		return nil, errInvalidColumn(name)
	}
	if matches > 1 {
		return nil, errAmbiguousColumn(name)
	}
	return found, nil
}

// resolveQualifiedColumn implements rule 2.
func (c *Context) resolveQualifiedColumn(table, column string) (*plan.ColumnRef, error) {
	bt, ok := c.resolveTableAlias(table)
	if !ok {
		return nil, errInvalidTable(table)
	}
	col, ok := bt.catalog.Column(column)
	if !ok {
		return nil, errInvalidColumn(table + "." + column)
	}
	return &plan.ColumnRef{Table: bt.catalog.Name, ID: col.ID, Name: col.Name}, nil
}

// registerColumnAlias write-once registers a SELECT-list alias (rule 3).
func (c *Context) registerColumnAlias(name string, expr plan.BoundExpr) error {
	if _, exists := c.columnAlias[name]; exists {
		return errInvalidColumn(name)
	}
	c.columnAlias[name] = expr
	return nil
}
