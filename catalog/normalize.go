package catalog

import "strings"

// DefaultSchema is substituted when the parser yields an unqualified
// object name (§6 "a default schema constant is substituted").
const DefaultSchema = "public"

// NormalizeIdentifierName folds an identifier to lowercase before storage.
//
// Adapted from schema.NormalizeIdentifierName, trimmed from a four-dialect,
// legacy/quote-aware mode switch down to a single rule: one engine, one
// normalisation.
func NormalizeIdentifierName(name string) string {
	return strings.ToLower(name)
}
