// Package quoting provides shared Cypher identifier and string escaping.
package quoting

import (
	"strings"
	"unicode"
)

// reserved holds Cypher keywords that cannot be used as bare identifiers.
var reserved = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "ASC": true, "ASCENDING": true,
	"BY": true, "CALL": true, "CASE": true, "CONTAINS": true, "CREATE": true,
	"DELETE": true, "DESC": true, "DESCENDING": true, "DETACH": true,
	"DISTINCT": true, "ELSE": true, "END": true, "ENDS": true, "EXISTS": true,
	"FALSE": true, "IN": true, "IS": true, "LIMIT": true, "MATCH": true,
	"MERGE": true, "NOT": true, "NULL": true, "ON": true, "OPTIONAL": true,
	"OR": true, "ORDER": true, "REMOVE": true, "RETURN": true, "SET": true,
	"SKIP": true, "STARTS": true, "THEN": true, "TRUE": true, "UNION": true,
	"UNWIND": true, "WHEN": true, "WHERE": true, "WITH": true, "XOR": true,
	"YIELD": true,
}

// IsIdentifier reports whether s can be used unescaped as a Cypher
// variable, label, relationship type or property key.
func IsIdentifier(s string) bool {
	if s == "" || reserved[strings.ToUpper(s)] {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// Backtick quotes a Cypher identifier using backticks.
// Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Name returns s unchanged when it is a plain identifier, otherwise
// backtick-quoted.
func Name(s string) string {
	if IsIdentifier(s) {
		return s
	}
	return Backtick(s)
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// EscapeString escapes a string for use inside a single-quoted Cypher
// string literal.
//
// SECURITY: Values from untrusted sources belong in parameters ($name),
// which the execution layer binds separately from the statement text.
func EscapeString(s string) string {
	return stringEscaper.Replace(s)
}
