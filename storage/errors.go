package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/k0kubun/kipsql/catalog"
)

// Storage errors are operational: conflicts, missing objects, constraint
// violations (§7). They wrap the underlying codec/engine error where one
// exists so StorageError.Engine(wrapped) has a concrete carrier with
// correct errors.Is/As semantics.
var (
	ErrTableNotFound        = errors.New("storage: table not found")
	ErrTableExists          = errors.New("storage: table already exists")
	ErrDuplicatePrimaryKey  = errors.New("storage: duplicate primary key")
	ErrDuplicateUniqueValue = errors.New("storage: duplicate unique value")
)

func errTableNotFound(name catalog.TableName) error {
	return errors.Wrapf(ErrTableNotFound, "table %q", name)
}

func errTableExists(name catalog.TableName) error {
	return errors.Wrapf(ErrTableExists, "table %q", name)
}

func errDuplicatePrimaryKey(name catalog.TableName, id catalog.Value) error {
	return errors.Wrapf(ErrDuplicatePrimaryKey, "table %q, id %v", name, id)
}

func errDuplicateUniqueValue(name catalog.TableName, index string, v catalog.Value) error {
	return errors.Wrapf(ErrDuplicateUniqueValue, "table %q, index %q, value %v", name, index, v)
}

// engineErr wraps an error returned by the mvcc layer (§4.9), preserving
// ErrConflict's identity through errors.Is.
func engineErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, "storage: engine")
}

// codecErr wraps an error returned by the codec layer.
func codecErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, "storage: codec")
}
