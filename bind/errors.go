// Package bind consumes a parsed statement AST plus a transaction-scoped
// catalog view and produces a logical plan (§4.4). Binding errors are
// user-facing messages about a rejected statement; the binder never
// mutates storage, so every error here is purely local and recoverable
// (§7).
package bind

import "fmt"

// Error is the binder's single error type: a kind tag plus a message
// naming the offending object, per §7 ("every error carries a message
// naming the offending object").
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorKind enumerates the binder's disjoint error taxonomy (§4.4).
type ErrorKind int

const (
	KindUnsupportedStmt ErrorKind = iota
	KindInvalidTable
	KindInvalidTableName
	KindInvalidColumn
	KindAmbiguousColumn
	KindBinaryOpTypeMismatch
	KindSubquery
	KindAggMiss
)

func errUnsupportedStmt(stmtText string) error {
	return &Error{Kind: KindUnsupportedStmt, Message: fmt.Sprintf("bind: unsupported statement: %s", stmtText)}
}

func errInvalidTable(name string) error {
	return &Error{Kind: KindInvalidTable, Message: fmt.Sprintf("bind: invalid table: %s", name)}
}

func errInvalidTableName(name string) error {
	return &Error{Kind: KindInvalidTableName, Message: fmt.Sprintf("bind: invalid table name: %s", name)}
}

func errInvalidColumn(name string) error {
	return &Error{Kind: KindInvalidColumn, Message: fmt.Sprintf("bind: invalid column: %s", name)}
}

func errAmbiguousColumn(name string) error {
	return &Error{Kind: KindAmbiguousColumn, Message: fmt.Sprintf("bind: ambiguous column: %s", name)}
}

func errBinaryOpTypeMismatch(l, r string) error {
	return &Error{Kind: KindBinaryOpTypeMismatch, Message: fmt.Sprintf("bind: binary op type mismatch: %s vs %s", l, r)}
}

func errSubquery(msg string) error {
	return &Error{Kind: KindSubquery, Message: fmt.Sprintf("bind: subquery: %s", msg)}
}

func errAggMiss(msg string) error {
	return &Error{Kind: KindAggMiss, Message: fmt.Sprintf("bind: %s", msg)}
}
