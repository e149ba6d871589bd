package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/config"
)

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	items := []tableInfo{{name: "orders"}, {name: "users"}}
	deps := map[string][]string{"orders": {"users"}}
	sorted := topologicalSort(items, deps, func(t tableInfo) string { return t.name })
	require := assert.New(t)
	require.Len(sorted, 2)
	require.Equal("users", sorted[0].name)
	require.Equal("orders", sorted[1].name)
}

func TestTopologicalSortCircularDependencyReturnsUnordered(t *testing.T) {
	items := []tableInfo{{name: "a"}, {name: "b"}}
	deps := map[string][]string{"a": {"b"}, "b": {"a"}}
	sorted := topologicalSort(items, deps, func(t tableInfo) string { return t.name })
	assert.Equal(t, items, sorted)
}

func TestLogicalTypeOfMapsKnownTypes(t *testing.T) {
	assert.Equal(t, catalog.Integer, logicalTypeOf("bigint"))
	assert.Equal(t, catalog.Boolean, logicalTypeOf("boolean"))
	assert.Equal(t, catalog.Varchar, logicalTypeOf("text"))
	assert.Equal(t, catalog.Varchar, logicalTypeOf("some_exotic_type"))
}

func TestMysqlDSNUsesTCPWhenNoSocket(t *testing.T) {
	dsn := mysqlDSN(config.Bootstrap{User: "root", DbName: "app", Host: "127.0.0.1", Port: 3306})
	assert.Contains(t, dsn, "127.0.0.1:3306")
	assert.Contains(t, dsn, "app")
}

func TestMysqlDSNUsesSocketWhenSet(t *testing.T) {
	dsn := mysqlDSN(config.Bootstrap{User: "root", DbName: "app", Socket: "/tmp/mysql.sock"})
	assert.Contains(t, dsn, "unix")
}

func TestPostgresDSNIncludesSslMode(t *testing.T) {
	dsn := postgresDSN(config.Bootstrap{User: "u", DbName: "d", Host: "localhost", Port: 5432, SslMode: "disable"})
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestOpenRejectsUnsupportedDriver(t *testing.T) {
	_, err := Open(config.Bootstrap{Driver: "oracle"})
	assert.Error(t, err)
}
