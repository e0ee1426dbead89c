package parser

import (
	"fmt"
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/internal/util"
)

// assignDefaultConstraintNames fills in the ConstraintName fields the
// grammar leaves empty when a constraint has no CONSTRAINT clause, using
// PostgreSQL's own default-naming convention (<table>_pkey,
// <table>_<cols>_key, <table>_<cols>_fkey, <table>_check[N]). Without
// this, a table defined with unnamed constraints would never compare
// equal to the same table introspected back from a live database, since
// the database always assigns one of these names at creation time.
func assignDefaultConstraintNames(table *catalog.Table) {
	if table.PrimaryKey != nil && table.PrimaryKey.ConstraintName == "" {
		table.PrimaryKey.ConstraintName = truncate63(fmt.Sprintf("%s_pkey", table.Name))
	}

	for i := range table.UniqueConstraints {
		u := &table.UniqueConstraints[i]
		if u.ConstraintName == "" {
			u.ConstraintName = util.BuildPostgresConstraintName(table.Name, strings.Join(u.Columns, "_"), "key")
		}
	}

	for i := range table.ForeignKeys {
		fk := &table.ForeignKeys[i]
		if fk.ConstraintName == "" {
			fk.ConstraintName = util.BuildPostgresConstraintName(table.Name, strings.Join(fk.Columns, "_"), "fkey")
		}
	}

	seq := 0
	for i := range table.CheckConstraints {
		ck := &table.CheckConstraints[i]
		if ck.ConstraintName == "" {
			seq++
			name := fmt.Sprintf("%s_check", table.Name)
			if seq > 1 {
				name = fmt.Sprintf("%s_check%d", table.Name, seq-1)
			}
			ck.ConstraintName = truncate63(name)
		}
	}
}

func truncate63(name string) string {
	if len(name) <= 63 {
		return name
	}
	return name[:63]
}
