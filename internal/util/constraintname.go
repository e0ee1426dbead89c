package util

import "fmt"

// BuildPostgresConstraintName generates a constraint name following
// PostgreSQL's naming convention, truncating to 63 characters
// (NAMEDATALEN - 1) using PostgreSQL's own algorithm. Grounded on the
// teacher's util.BuildPostgresConstraintName (util/postgres_util.go),
// used by the parser to auto-name inline constraints that omit an
// explicit CONSTRAINT name, and by the differ/provider when rendering
// auto-generated foreign key / unique constraint names.
func BuildPostgresConstraintName(tableName, columnName, suffix string) string {
	fullName := fmt.Sprintf("%s_%s_%s", tableName, columnName, suffix)
	if len(fullName) <= 63 {
		return fullName
	}

	overflow := len(fullName) - 63
	tableLen := len(tableName)
	columnLen := len(columnName)

	tableRemove := 0
	columnRemove := 0

	if columnLen > 28 {
		columnRemove = overflow
		if columnRemove > columnLen-28 {
			tableRemove = columnRemove - (columnLen - 28)
			columnRemove = columnLen - 28
		}
	} else {
		tableRemove = overflow
	}

	truncatedTable := tableName[:tableLen-tableRemove]
	truncatedColumn := columnName[:columnLen-columnRemove]

	return fmt.Sprintf("%s_%s_%s", truncatedTable, truncatedColumn, suffix)
}
