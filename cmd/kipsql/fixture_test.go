package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/kipsql/ast"
)

func TestLoadFixtureParsesEveryStatementKind(t *testing.T) {
	doc := []byte(`
statements:
  - create_table:
      name: people
      columns:
        - {name: id, type: INT, primary_key: true}
        - {name: name, type: VARCHAR}
  - insert:
      table: people
      columns: [id, name]
      values:
        - [1, "alice"]
  - select:
      from: people
      projection: ["id", "name"]
      where: {column: id, op: "=", value: 1}
  - update:
      table: people
      set:
        - {column: name, value: "bob"}
      where: {column: id, op: "=", value: 1}
  - delete:
      from: people
      where: {column: id, op: "=", value: 1}
  - truncate:
      name: people
  - drop:
      name: people
      if_exists: true
  - show_tables: {}
`)
	fx, err := loadFixture(doc)
	require.NoError(t, err)
	require.Len(t, fx.Statements, 8)

	stmt, err := fx.Statements[0].toStatement()
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTableStmt)
	require.True(t, ok)
	assert.Equal(t, "people", ct.Name.Name)
	assert.Len(t, ct.Columns, 2)

	stmt, err = fx.Statements[1].toStatement()
	require.NoError(t, err)
	ins, ok := stmt.(*ast.InsertStmt)
	require.True(t, ok)
	vl, ok := ins.Source.(*ast.ValuesList)
	require.True(t, ok)
	require.Len(t, vl.Rows, 1)

	stmt, err = fx.Statements[2].toStatement()
	require.NoError(t, err)
	q, ok := stmt.(*ast.Query)
	require.True(t, ok)
	sel, ok := q.Body.(*ast.SelectCore)
	require.True(t, ok)
	assert.NotNil(t, sel.Where)

	stmt, err = fx.Statements[7].toStatement()
	require.NoError(t, err)
	_, ok = stmt.(*ast.ShowTablesStmt)
	assert.True(t, ok)
}

func TestLoadFixtureRejectsUnknownField(t *testing.T) {
	_, err := loadFixture([]byte(`statements: [{create_tabel: {name: x}}]`))
	assert.Error(t, err)
}

func TestStatementSpecWithNoVariantErrors(t *testing.T) {
	_, err := statementSpec{}.toStatement()
	assert.Error(t, err)
}
