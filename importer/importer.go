// Package importer bootstraps kipsql's catalog from a live external
// RDBMS (§4.11): it opens a database/sql connection, introspects its
// tables and columns, topologically orders tables by foreign-key
// dependency, and issues one storage.Transaction.CreateTable per table.
//
// Grounded on database/{mysql,postgres,mssql,sqlite3}/database.go's DSN
// construction, adapted from "dump DDL text for a diff" to "describe one
// table's columns for CreateTable."
package importer

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"
	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/config"
	"github.com/k0kubun/kipsql/storage"
	"github.com/k0kubun/kipsql/util"
)

// Source is the live connection an import runs against.
type Source struct {
	driver string
	db     *sql.DB
}

// Open opens the database/sql connection named by cfg.Driver, building
// the DSN the way each teacher dialect package does (§4.11).
func Open(cfg config.Bootstrap) (*Source, error) {
	var driverName, dsn string
	switch cfg.Driver {
	case "mysql":
		driverName, dsn = "mysql", mysqlDSN(cfg)
	case "postgres":
		driverName, dsn = "postgres", postgresDSN(cfg)
	case "mssql":
		driverName, dsn = "sqlserver", mssqlDSN(cfg)
	case "sqlite3":
		driverName, dsn = "sqlite", cfg.DbName
	default:
		return nil, fmt.Errorf("importer: unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("importer: open %s: %w", cfg.Driver, err)
	}
	return &Source{driver: cfg.Driver, db: db}, nil
}

func (s *Source) Close() error { return s.db.Close() }

func mysqlDSN(cfg config.Bootstrap) string {
	c := mysqldriver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.DbName
	if cfg.Socket == "" {
		c.Net = "tcp"
		c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	} else {
		c.Net = "unix"
		c.Addr = cfg.Socket
	}
	return c.FormatDSN()
}

func postgresDSN(cfg config.Bootstrap) string {
	host := cfg.Host
	if cfg.Socket != "" {
		host = cfg.Socket
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", host, cfg.Port),
		Path:   "/" + cfg.DbName,
	}
	q := url.Values{}
	if cfg.SslMode != "" {
		q.Set("sslmode", cfg.SslMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func mssqlDSN(cfg config.Bootstrap) string {
	q := url.Values{}
	q.Add("database", cfg.DbName)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// columnInfo is one introspected column, engine-agnostic.
type columnInfo struct {
	name       string
	sqlType    string
	nullable   bool
	primaryKey bool
}

// tableInfo is one introspected table: its columns and the names of
// tables it references via a foreign key, for dependency ordering.
type tableInfo struct {
	name    string
	columns []columnInfo
	depends []string
}

// tableNames lists user tables, portably enough across the three
// information_schema dialects this importer targets; sqlite3 uses its own
// sqlite_master catalog instead (§4.11).
func (s *Source) tableNames() ([]string, error) {
	if s.driver == "sqlite3" {
		rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var names []string
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				return nil, err
			}
			names = append(names, n)
		}
		return names, rows.Err()
	}

	rows, err := s.db.Query(`
		SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'sys')
		AND table_type = 'BASE TABLE'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Source) columns(table string) ([]columnInfo, error) {
	if s.driver == "sqlite3" {
		rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var cols []columnInfo
		for rows.Next() {
			var cid int
			var name, ctype string
			var notnull, pk int
			var dflt any
			if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				return nil, err
			}
			cols = append(cols, columnInfo{name: name, sqlType: ctype, nullable: notnull == 0, primaryKey: pk != 0})
		}
		return cols, rows.Err()
	}

	rows, err := s.db.Query(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []columnInfo
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, err
		}
		cols = append(cols, columnInfo{name: name, sqlType: dataType, nullable: isNullable == "YES"})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pkCols, err := s.primaryKeyColumns(table)
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		if pkCols[c.name] {
			cols[i].primaryKey = true
		}
	}
	return cols, nil
}

func (s *Source) primaryKeyColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_name = $1
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func (s *Source) foreignKeyDependencies(table string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT ccu.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = $1
	`, table)
	if err != nil {
		return nil, nil // dialects without this view (sqlite3/mssql variance) import flat, unordered
	}
	defer rows.Close()
	var deps []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

func quoteIdent(name string) string { return `"` + name + `"` }

// logicalTypeOf maps an engine-reported SQL type name onto kipsql's three
// logical types (§3); anything unrecognised defaults to Varchar so the
// import never hard-fails on an exotic column type it cannot represent
// precisely.
func logicalTypeOf(sqlType string) catalog.LogicalType {
	switch sqlType {
	case "int", "integer", "bigint", "smallint", "tinyint", "INTEGER", "INT":
		return catalog.Integer
	case "bool", "boolean", "BOOLEAN", "BOOL", "bit":
		return catalog.Boolean
	default:
		return catalog.Varchar
	}
}

// Import introspects every table of s and creates each in tx, ordered so a
// referenced table is created before the table that references it. When
// the foreign-key dependencies form a cycle, tables are created in the
// order the source listed them.
func Import(s *Source, tx *storage.Transaction) ([]catalog.TableName, error) {
	names, err := s.tableNames()
	if err != nil {
		return nil, fmt.Errorf("importer: listing tables: %w", err)
	}

	tables := make([]tableInfo, 0, len(names))
	deps := map[string][]string{}
	for _, n := range names {
		cols, err := s.columns(n)
		if err != nil {
			return nil, fmt.Errorf("importer: columns of %s: %w", n, err)
		}
		fks, _ := s.foreignKeyDependencies(n)
		tables = append(tables, tableInfo{name: n, columns: cols, depends: fks})
		deps[n] = fks
	}

	ordered := topologicalSort(tables, deps, func(t tableInfo) string { return t.name })

	var created []catalog.TableName
	for _, t := range ordered {
		colIdx := 0
		cols := util.TransformSlice(t.columns, func(c columnInfo) catalog.ColumnCatalog {
			col := catalog.NewColumnCatalog(uint32(colIdx), c.name, c.nullable, catalog.ColumnDesc{
				LogicalType: logicalTypeOf(c.sqlType),
				IsPrimary:   c.primaryKey,
			})
			colIdx++
			return col
		})
		tblName := catalog.NewTableName(t.name)
		if _, err := tx.CreateTable(tblName, cols, true); err != nil {
			return nil, fmt.Errorf("importer: creating %s: %w", t.name, err)
		}
		created = append(created, tblName)
	}
	return created, nil
}
