package sqlite

import (
	"fmt"
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/internal/util"
	"github.com/elitan/terra/provider"
)

// Dialect identifies this provider to generic callers.
func (p *Provider) Dialect() string { return "sqlite" }

// SupportsFeature reports SQLite's feature set. SQLite has no
// schema/extension/enum/sequence/procedure/policy/materialized-view
// concept, and no server-side advisory lock; CREATE INDEX CONCURRENTLY
// has no SQLite equivalent either, since SQLite locks the whole database
// file for any write.
func (p *Provider) SupportsFeature(f provider.Feature) bool {
	switch f {
	case provider.FeatureAlterColumnType, provider.FeatureDropColumnInPlace:
		return true
	default:
		return false
	}
}

// RenderEdit turns one structured diff.Edit into the SQLite statement(s)
// that implement it. Grounded on the teacher's database/sqlite3 package
// for quoting/DDL conventions; table alterations beyond ADD/DROP COLUMN
// fall back to SQLite's documented twelve-step "rebuild the table"
// recipe, since SQLite's ALTER TABLE cannot express a type change, a
// constraint change, or a NOT NULL/DEFAULT change directly.
func (p *Provider) RenderEdit(e diff.Edit) ([]provider.Statement, error) {
	switch e.Kind {
	case diff.KindCreateTable:
		return renderCreateTableStatements(e.Table), nil
	case diff.KindDropTable:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP TABLE %s", quoteIdent(e.Table.Name))}}, nil
	case diff.KindAlterTable:
		return renderAlterTable(e.Alteration), nil

	case diff.KindAddForeignKey, diff.KindDropForeignKey:
		// SQLite cannot add or drop a foreign key on an existing table;
		// any foreign key change always routes through diffTables' wider
		// TableAlteration and the rebuild path above.
		return nil, fmt.Errorf("sqlite: standalone foreign key edits are unsupported; expected a table rebuild")

	case diff.KindCreateView:
		return []provider.Statement{{SQL: renderCreateView(e.View)}}, nil
	case diff.KindReplaceView:
		// SQLite has no CREATE OR REPLACE VIEW; reconstruct as DROP+CREATE.
		return []provider.Statement{
			{SQL: fmt.Sprintf("DROP VIEW %s", quoteIdent(e.View.Name))},
			{SQL: renderCreateView(e.View)},
		}, nil
	case diff.KindDropView:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP VIEW %s", quoteIdent(e.View.Name))}}, nil

	case diff.KindCreateTrigger:
		return []provider.Statement{{SQL: renderCreateTrigger(e.Trigger)}}, nil
	case diff.KindDropTrigger:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP TRIGGER %s", quoteIdent(e.Trigger.Name))}}, nil

	case diff.KindSetComment:
		// SQLite has no COMMENT ON; comments are not representable and are
		// silently dropped by the differ's caller for this dialect (see
		// provider/sqlite's SupportsFeature and the Introspect doc comment:
		// Comments are never populated from a SQLite Catalog, so diffComments
		// never actually sees a difference to report here in practice).
		return nil, nil

	case diff.KindCreateSchema, diff.KindDropSchema, diff.KindCreateExtension, diff.KindDropExtension,
		diff.KindCreateEnum, diff.KindAddEnumValue, diff.KindDropEnum,
		diff.KindCreateSequence, diff.KindAlterSequence, diff.KindDropSequence,
		diff.KindCreateFunction, diff.KindReplaceFunction, diff.KindDropFunction:
		return nil, fmt.Errorf("sqlite: edit kind %q has no SQLite equivalent", e.Kind)

	default:
		return nil, fmt.Errorf("sqlite: unsupported edit kind %q", e.Kind)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdentList(names []string) string {
	return strings.Join(util.TransformSlice(names, quoteIdent), ", ")
}

// singleColumnAutoincrementPK reports whether t's primary key is exactly
// the SQLite "INTEGER PRIMARY KEY AUTOINCREMENT" idiom, which must be
// written inline on the column rather than as a separate table
// constraint.
func singleColumnAutoincrementPK(t *catalog.Table) (column string, ok bool) {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) != 1 {
		return "", false
	}
	c := t.ColumnByName(t.PrimaryKey.Columns[0])
	if c == nil || c.Identity == nil {
		return "", false
	}
	return c.Name, true
}

func renderCreateTableStatements(t *catalog.Table) []provider.Statement {
	stmt := renderCreateTableSQL(t, t.Name)
	statements := []provider.Statement{{SQL: stmt}}
	for _, ix := range t.Indexes {
		if isConstraintBackingIndex(t, ix) {
			continue
		}
		statements = append(statements, provider.Statement{SQL: renderCreateIndex(t.Name, ix)})
	}
	return statements
}

func renderCreateTableSQL(t *catalog.Table, tableName string) string {
	autoPKCol, hasAutoPK := singleColumnAutoincrementPK(t)

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+columnDefSQL(c, hasAutoPK && c.Name == autoPKCol))
	}
	if t.PrimaryKey != nil && !hasAutoPK {
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s PRIMARY KEY (%s)", quoteIdent(t.PrimaryKey.ConstraintName), quoteIdentList(t.PrimaryKey.Columns)))
	}
	for _, u := range t.UniqueConstraints {
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s UNIQUE (%s)", quoteIdent(u.ConstraintName), quoteIdentList(u.Columns)))
	}
	for _, ck := range t.CheckConstraints {
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s CHECK (%s)", quoteIdent(ck.ConstraintName), ck.Expression))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, "  "+foreignKeyClause(fk))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", quoteIdent(tableName), strings.Join(lines, ",\n"))
}

func isConstraintBackingIndex(t *catalog.Table, ix catalog.Index) bool {
	if t.PrimaryKey != nil && ix.Name == t.PrimaryKey.ConstraintName {
		return true
	}
	for _, u := range t.UniqueConstraints {
		if ix.Name == u.ConstraintName {
			return true
		}
	}
	return false
}

func columnDefSQL(c catalog.Column, inlineAutoPK bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", quoteIdent(c.Name), columnTypeSQL(c))
	if inlineAutoPK {
		b.WriteString(" PRIMARY KEY AUTOINCREMENT")
		return b.String()
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", *c.Default)
	}
	return b.String()
}

func columnTypeSQL(c catalog.Column) string {
	base := c.Type
	if c.Length != nil && c.Scale != nil {
		base = fmt.Sprintf("%s(%d,%d)", base, *c.Length, *c.Scale)
	} else if c.Length != nil {
		base = fmt.Sprintf("%s(%d)", base, *c.Length)
	}
	return base
}

func foreignKeyClause(fk catalog.ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(fk.ConstraintName), quoteIdentList(fk.Columns),
		quoteIdent(fk.ReferencedTable), quoteIdentList(fk.ReferencedColumns))
	if fk.OnDelete != "" && fk.OnDelete != catalog.ActionNoAction {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" && fk.OnUpdate != catalog.ActionNoAction {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	return b.String()
}

func renderCreateIndex(table string, ix catalog.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if ix.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", quoteIdent(ix.Name), quoteIdent(table), indexColumnListSQL(ix.Columns))
	if ix.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", ix.Where)
	}
	return b.String()
}

func indexColumnListSQL(cols []catalog.IndexColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		var expr string
		if c.Expression != "" {
			expr = "(" + c.Expression + ")"
		} else {
			expr = quoteIdent(c.Column)
		}
		if c.Direction == "desc" {
			expr += " DESC"
		}
		parts[i] = expr
	}
	return strings.Join(parts, ", ")
}

// renderAlterTable uses SQLite's native ADD COLUMN/DROP COLUMN when the
// alteration is exactly that; anything involving a type, nullability,
// default, or constraint change falls back to renderTableRebuild.
//
// alt.AddPolicies/DropPolicies are never populated for this dialect: SQLite
// has no row-level-security concept (SupportsFeature doesn't advertise
// FeaturePolicies), so the parser and introspector never put anything in
// catalog.Table.Policies here.
func renderAlterTable(alt *diff.TableAlteration) []provider.Statement {
	if needsRebuild(alt) {
		return renderTableRebuild(alt)
	}

	var statements []provider.Statement
	for _, col := range alt.DropColumns {
		statements = append(statements, provider.Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(tableNameOf(alt)), quoteIdent(col)),
		})
	}
	for _, c := range alt.AddColumns {
		statements = append(statements, provider.Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(tableNameOf(alt)), columnDefSQL(c, false)),
		})
	}
	for _, ix := range alt.DropIndexes {
		statements = append(statements, provider.Statement{SQL: fmt.Sprintf("DROP INDEX %s", quoteIdent(ix.Name))})
	}
	for _, ix := range alt.AddIndexes {
		statements = append(statements, provider.Statement{SQL: renderCreateIndex(tableNameOf(alt), ix)})
	}
	return statements
}

func tableNameOf(alt *diff.TableAlteration) string {
	if alt.DesiredTable != nil {
		return alt.DesiredTable.Name
	}
	parts := strings.SplitN(alt.Table, ".", 2)
	return parts[len(parts)-1]
}

func needsRebuild(alt *diff.TableAlteration) bool {
	return len(alt.AlterColTypes) > 0 || len(alt.SetNotNull) > 0 || len(alt.DropNotNull) > 0 ||
		len(alt.SetDefault) > 0 || len(alt.DropDefault) > 0 ||
		alt.AddPrimaryKey != nil || alt.DropPrimaryKey != nil ||
		len(alt.AddUnique) > 0 || len(alt.DropUnique) > 0 ||
		len(alt.AddCheck) > 0 || len(alt.DropCheck) > 0 ||
		len(alt.AddForeignKeys) > 0 || len(alt.DropForeignKeys) > 0
}

// renderTableRebuild implements SQLite's documented "twelve-step" table
// rebuild: create the desired table under a temporary name, copy over
// every desired column that already existed in the old table (including
// ones whose type changed), drop the old table, and rename
// the new one into place. Columns newly added by this same alteration are
// left to their DEFAULT (or NULL) rather than sourced from the old table,
// since they never existed there.
func renderTableRebuild(alt *diff.TableAlteration) []provider.Statement {
	t := alt.DesiredTable
	tmpName := t.Name + "__terra_new"

	added := map[string]bool{}
	for _, c := range alt.AddColumns {
		added[c.Name] = true
	}
	var surviving []string
	for _, c := range t.Columns {
		if !added[c.Name] {
			surviving = append(surviving, c.Name)
		}
	}

	statements := []provider.Statement{
		{SQL: "PRAGMA foreign_keys=OFF"},
		{SQL: renderCreateTableSQL(t, tmpName)},
	}
	if len(surviving) > 0 {
		cols := quoteIdentList(surviving)
		statements = append(statements, provider.Statement{
			SQL: fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", quoteIdent(tmpName), cols, cols, quoteIdent(t.Name)),
		})
	}
	statements = append(statements,
		provider.Statement{SQL: fmt.Sprintf("DROP TABLE %s", quoteIdent(t.Name))},
		provider.Statement{SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(tmpName), quoteIdent(t.Name))},
	)
	for _, ix := range t.Indexes {
		if isConstraintBackingIndex(t, ix) {
			continue
		}
		statements = append(statements, provider.Statement{SQL: renderCreateIndex(t.Name, ix)})
	}
	statements = append(statements, provider.Statement{SQL: "PRAGMA foreign_keys=ON"})
	return statements
}

func renderCreateView(v *catalog.View) string {
	return fmt.Sprintf("CREATE VIEW %s AS %s", quoteIdent(v.Name), v.Definition)
}

func renderCreateTrigger(t *catalog.Trigger) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TRIGGER %s %s %s ON %s", quoteIdent(t.Name), t.Timing, strings.Join(t.Events, " OR "), quoteIdent(t.Table))
	fmt.Fprintf(&b, " FOR EACH %s", t.Level)
	if t.When != "" {
		fmt.Fprintf(&b, " WHEN (%s)", t.When)
	}
	fmt.Fprintf(&b, " BEGIN %s END", t.Function)
	return b.String()
}

var _ = quoteLiteral // reserved for future trigger-argument literal rendering
