package parser

import "strings"

// keywords is the set of words the lexer marks TokKeyword instead of
// TokIdent. It is intentionally small: just what this DDL subset's
// grammar needs to recognize, not a full SQL reserved-word list.
var keywords = func() map[string]bool {
	words := []string{
		"CREATE", "TABLE", "INDEX", "UNIQUE", "VIEW", "MATERIALIZED", "TYPE",
		"AS", "ENUM", "FUNCTION", "PROCEDURE", "TRIGGER", "SEQUENCE",
		"EXTENSION", "SCHEMA", "COMMENT", "ON", "IS", "IF", "NOT", "EXISTS",
		"NULL", "DEFAULT", "PRIMARY", "KEY", "FOREIGN", "REFERENCES",
		"CONSTRAINT", "CHECK", "DELETE", "UPDATE", "CASCADE", "RESTRICT",
		"ACTION", "SET", "NO", "DEFERRABLE", "INITIALLY", "DEFERRED",
		"IMMEDIATE", "GENERATED", "ALWAYS", "BY", "IDENTITY", "START",
		"WITH", "INCREMENT", "MINVALUE", "MAXVALUE", "CACHE", "CYCLE",
		"OWNED", "USING", "WHERE", "ASC", "DESC", "NULLS", "FIRST", "LAST",
		"RETURNS", "LANGUAGE", "VOLATILE", "STABLE", "IMMUTABLE", "STRICT",
		"CALLED", "INPUT", "BEFORE", "AFTER", "INSTEAD", "OF", "INSERT",
		"TRUNCATE", "FOR", "EACH", "ROW", "STATEMENT", "WHEN", "EXECUTE",
		"PROCEDURE", "OR", "REPLACE", "OPTION", "LOCAL", "CASCADED",
		"POLICY", "PERMISSIVE", "RESTRICTIVE", "ALL", "SELECT", "TO",
		"GRANT", "ROLE", "PUBLIC", "VALUES", "ARRAY", "VARYING",
		"CHARACTER", "VARCHAR", "INT", "INTEGER", "BIGINT", "SMALLINT",
		"NUMERIC", "DECIMAL", "TEXT", "BOOLEAN", "TIMESTAMP", "TIME",
		"ZONE", "WITHOUT", "DOUBLE", "PRECISION", "REAL", "SERIAL",
		"BIGSERIAL", "SMALLSERIAL", "TRUE", "FALSE", "COLUMN", "DOMAIN",
		"CONCURRENTLY",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

func isKeyword(text string) bool {
	return keywords[strings.ToUpper(text)]
}
