package main

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/k0kubun/kipsql/ast"
)

// fixture is the small YAML shape the CLI reads instead of SQL text: the
// core recognises only the statement shapes §4.6 lists, so the input
// format mirrors that sum directly rather than round-tripping through a
// grammar this repo doesn't own (§1, §4.10).
type fixture struct {
	Statements []statementSpec `yaml:"statements"`
}

type statementSpec struct {
	CreateTable *createTableSpec `yaml:"create_table"`
	Insert      *insertSpec      `yaml:"insert"`
	Select      *selectSpec      `yaml:"select"`
	Update      *updateSpec      `yaml:"update"`
	Delete      *deleteSpec      `yaml:"delete"`
	Drop        *dropSpec        `yaml:"drop"`
	Truncate    *truncateSpec    `yaml:"truncate"`
	ShowTables  *struct{}        `yaml:"show_tables"`
}

type columnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
	Unique     bool   `yaml:"unique"`
	NotNull    bool   `yaml:"not_null"`
}

type createTableSpec struct {
	Name        string       `yaml:"name"`
	IfNotExists bool         `yaml:"if_not_exists"`
	Columns     []columnSpec `yaml:"columns"`
}

type insertSpec struct {
	Table     string     `yaml:"table"`
	Columns   []string   `yaml:"columns"`
	Values    [][]any    `yaml:"values"`
	Overwrite bool       `yaml:"overwrite"`
}

type whereSpec struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
}

type selectSpec struct {
	From       string      `yaml:"from"`
	Projection []string    `yaml:"projection"`
	Where      *whereSpec  `yaml:"where"`
	Limit      *int64      `yaml:"limit"`
	Offset     *int64      `yaml:"offset"`
}

type assignmentSpec struct {
	Column string `yaml:"column"`
	Value  any    `yaml:"value"`
}

type updateSpec struct {
	Table string           `yaml:"table"`
	Set   []assignmentSpec `yaml:"set"`
	Where *whereSpec       `yaml:"where"`
}

type deleteSpec struct {
	From  string     `yaml:"from"`
	Where *whereSpec `yaml:"where"`
}

type dropSpec struct {
	Name     string `yaml:"name"`
	IfExists bool   `yaml:"if_exists"`
}

type truncateSpec struct {
	Name string `yaml:"name"`
}

func loadFixture(buf []byte) (fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	var f fixture
	if err := dec.Decode(&f); err != nil {
		return fixture{}, fmt.Errorf("fixture: %w", err)
	}
	return f, nil
}

func literalOf(v any) ast.Expr {
	switch x := v.(type) {
	case nil:
		return &ast.Literal{Kind: ast.LiteralNull}
	case int:
		return &ast.Literal{Kind: ast.LiteralInt, Int: int64(x)}
	case int64:
		return &ast.Literal{Kind: ast.LiteralInt, Int: x}
	case bool:
		return &ast.Literal{Kind: ast.LiteralBool, Bool: x}
	case string:
		return &ast.Literal{Kind: ast.LiteralString, Str: x}
	default:
		return &ast.Literal{Kind: ast.LiteralString, Str: fmt.Sprint(x)}
	}
}

func whereExpr(w *whereSpec) ast.Expr {
	if w == nil {
		return nil
	}
	op := ast.OpEq
	switch w.Op {
	case "", "=", "eq":
		op = ast.OpEq
	case "!=", "<>", "ne":
		op = ast.OpNe
	case "<", "lt":
		op = ast.OpLt
	case "<=", "le":
		op = ast.OpLe
	case ">", "gt":
		op = ast.OpGt
	case ">=", "ge":
		op = ast.OpGe
	}
	return &ast.BinaryExpr{Op: op, Left: &ast.Ident{Name: w.Column}, Right: literalOf(w.Value)}
}

// toStatement lowers one statementSpec into the single ast.Statement it
// names; exactly one field of statementSpec must be set.
func (s statementSpec) toStatement() (ast.Statement, error) {
	switch {
	case s.CreateTable != nil:
		cols := make([]ast.ColumnDef, len(s.CreateTable.Columns))
		for i, c := range s.CreateTable.Columns {
			cols[i] = ast.ColumnDef{Name: c.Name, Type: c.Type, NotNull: c.NotNull, PrimaryKey: c.PrimaryKey, Unique: c.Unique}
		}
		return &ast.CreateTableStmt{
			Name:        ast.ObjectName{Name: s.CreateTable.Name},
			Columns:     cols,
			IfNotExists: s.CreateTable.IfNotExists,
		}, nil

	case s.Insert != nil:
		rows := make([][]ast.Expr, len(s.Insert.Values))
		for i, row := range s.Insert.Values {
			exprs := make([]ast.Expr, len(row))
			for j, v := range row {
				exprs[j] = literalOf(v)
			}
			rows[i] = exprs
		}
		return &ast.InsertStmt{
			Table:     ast.ObjectName{Name: s.Insert.Table},
			Columns:   s.Insert.Columns,
			Source:    &ast.ValuesList{Rows: rows},
			Overwrite: s.Insert.Overwrite,
		}, nil

	case s.Select != nil:
		proj := make([]ast.Expr, len(s.Select.Projection))
		for i, c := range s.Select.Projection {
			if c == "*" {
				proj[i] = &ast.Star{}
				continue
			}
			proj[i] = &ast.Ident{Name: c}
		}
		return &ast.Query{Body: &ast.SelectCore{
			Projection: proj,
			From:       []ast.TableRef{{Name: ast.ObjectName{Name: s.Select.From}}},
			Where:      whereExpr(s.Select.Where),
			Limit:      s.Select.Limit,
			Offset:     s.Select.Offset,
		}}, nil

	case s.Update != nil:
		assigns := make([]ast.Assignment, len(s.Update.Set))
		for i, a := range s.Update.Set {
			assigns[i] = ast.Assignment{Column: a.Column, Value: literalOf(a.Value)}
		}
		return &ast.UpdateStmt{
			Table:       ast.ObjectName{Name: s.Update.Table},
			Assignments: assigns,
			Selection:   whereExpr(s.Update.Where),
		}, nil

	case s.Delete != nil:
		return &ast.DeleteStmt{
			From:      ast.ObjectName{Name: s.Delete.From},
			Selection: whereExpr(s.Delete.Where),
		}, nil

	case s.Drop != nil:
		return &ast.DropStmt{
			Object:   ast.ObjectTable,
			Names:    []ast.ObjectName{{Name: s.Drop.Name}},
			IfExists: s.Drop.IfExists,
		}, nil

	case s.Truncate != nil:
		return &ast.TruncateStmt{Table: ast.ObjectName{Name: s.Truncate.Name}}, nil

	case s.ShowTables != nil:
		return &ast.ShowTablesStmt{}, nil

	default:
		return nil, fmt.Errorf("fixture: statement entry has no recognised variant set")
	}
}
