package catalog

import "errors"

var (
	// ErrDuplicateColumn is raised when CREATE TABLE declares the same
	// column name twice.
	ErrDuplicateColumn = errors.New("catalog: duplicate column name")
	// ErrUnsupportedIndex is raised by storage when an IndexMeta names more
	// than one column: composite secondary indexes are reserved but
	// unimplemented in this slice (Open Question #1).
	ErrUnsupportedIndex = errors.New("catalog: composite secondary indexes are not supported")
	// ErrColumnNotFound is raised when a name does not resolve against a
	// TableCatalog.
	ErrColumnNotFound = errors.New("catalog: column not found")
	// ErrInvalidPrimaryKey is raised when CREATE TABLE declares zero or
	// more than one PRIMARY KEY column; a TableCatalog has exactly one
	// primary index (§3).
	ErrInvalidPrimaryKey = errors.New("catalog: table must declare exactly one primary key column")
)
