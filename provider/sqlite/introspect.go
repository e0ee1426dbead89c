// Package sqlite implements the Provider interface for SQLite, grounded
// on the teacher's database/sqlite3 package. Unlike PostgreSQL, SQLite
// exposes almost no structured catalog beyond `sqlite_master` and a
// handful of PRAGMAs (spec.md §4.2's own enumeration: "sqlite_master,
// PRAGMA table_info, PRAGMA foreign_key_list, PRAGMA index_list/info"),
// so CHECK constraints and trigger/view bodies are recovered from the
// verbatim CREATE statement text sqlite_master stores rather than from a
// dedicated system view.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
	"github.com/elitan/terra/normalize"
)

// Provider introspects and renders DDL against a live SQLite database.
type Provider struct {
	DB     *sql.DB
	Config dbcore.Config
}

// Open connects to a SQLite file using the pure-Go modernc.org/sqlite
// driver (spec.md §9: "avoid cgo").
func Open(dsn string, cfg dbcore.Config) (*Provider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &dbcore.DriverError{Message: err.Error()}
	}
	return &Provider{DB: db, Config: cfg}, nil
}

func (p *Provider) Close() error { return p.DB.Close() }

// Introspect builds a Catalog reflecting the live database's current
// state. SQLite has no schema/extension/enum/sequence/stored-procedure
// concept (spec.md §4.2 feature flags), so those Catalog fields are
// always left empty; the Differ and Resolver are expected to skip them
// for this provider.
func (p *Provider) Introspect(ctx context.Context) (*catalog.Catalog, error) {
	cat := catalog.NewCatalog()

	names, err := p.objectNames(ctx, "table")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	for _, n := range names {
		table, err := p.introspectTable(ctx, n.name, n.sql)
		if err != nil {
			return nil, fmt.Errorf("introspecting table %s: %w", n.name, err)
		}
		cat.Tables = append(cat.Tables, table)
	}

	viewNames, err := p.objectNames(ctx, "view")
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	for _, n := range viewNames {
		view, err := parseViewSQL(n.name, n.sql)
		if err != nil {
			return nil, fmt.Errorf("introspecting view %s: %w", n.name, err)
		}
		cat.Views = append(cat.Views, view)
	}

	triggerNames, err := p.objectNames(ctx, "trigger")
	if err != nil {
		return nil, fmt.Errorf("listing triggers: %w", err)
	}
	for _, n := range triggerNames {
		trig, err := parseTriggerSQL(n.sql)
		if err != nil {
			return nil, fmt.Errorf("introspecting trigger %s: %w", n.name, err)
		}
		cat.Triggers = append(cat.Triggers, trig)
	}

	cat.ResolveForeignKeys()
	return cat, nil
}

type masterRow struct {
	name string
	sql  string
}

func (p *Provider) objectNames(ctx context.Context, kind string) ([]masterRow, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT tbl_name, COALESCE(sql, '') FROM sqlite_master
		WHERE type = ? AND tbl_name NOT LIKE 'sqlite_%'
		ORDER BY tbl_name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []masterRow
	for rows.Next() {
		var r masterRow
		if err := rows.Scan(&r.name, &r.sql); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Provider) introspectTable(ctx context.Context, name, createSQL string) (catalog.Table, error) {
	table := catalog.Table{Name: name}

	cols, pk, err := p.introspectColumns(ctx, name, createSQL)
	if err != nil {
		return table, err
	}
	table.Columns = cols
	table.PrimaryKey = pk

	if table.ForeignKeys, err = p.introspectForeignKeys(ctx, name); err != nil {
		return table, err
	}

	indexes, uniques, err := p.introspectIndexesAndUniques(ctx, name)
	if err != nil {
		return table, err
	}
	table.Indexes = indexes
	table.UniqueConstraints = uniques

	table.CheckConstraints = extractCheckConstraints(createSQL)

	return table, nil
}

type pragmaColumn struct {
	cid       int
	name      string
	ctype     string
	notNull   bool
	dfltValue sql.NullString
	pk        int
}

func (p *Provider) introspectColumns(ctx context.Context, table, createSQL string) ([]catalog.Column, *catalog.PrimaryKey, error) {
	rows, err := p.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var pcols []pragmaColumn
	for rows.Next() {
		var c pragmaColumn
		var notNullInt int
		if err := rows.Scan(&c.cid, &c.name, &c.ctype, &notNullInt, &c.dfltValue, &c.pk); err != nil {
			return nil, nil, err
		}
		c.notNull = notNullInt != 0
		pcols = append(pcols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	autoincrement := regexp.MustCompile(`(?i)AUTOINCREMENT`).MatchString(createSQL)

	var pkCols []string
	maxPK := 0
	for _, c := range pcols {
		if c.pk > maxPK {
			maxPK = c.pk
		}
	}
	if maxPK > 0 {
		pkCols = make([]string, maxPK)
		for _, c := range pcols {
			if c.pk > 0 {
				pkCols[c.pk-1] = c.name
			}
		}
	}

	var cols []catalog.Column
	for _, c := range pcols {
		col := catalog.Column{Name: c.name, Nullable: !c.notNull}
		canon, length, scale := normalize.TypeName(c.ctype, nil, nil, normalize.DialectSQLite)
		col.Type = canon
		col.Length = length
		col.Scale = scale

		if c.dfltValue.Valid {
			canon := normalize.DefaultExpr(c.dfltValue.String)
			col.Default = &canon
		}

		if len(pkCols) == 1 && c.pk == 1 && strings.EqualFold(strings.TrimSpace(c.ctype), "integer") {
			col.Nullable = false
			if autoincrement {
				col.Identity = &catalog.Identity{Generation: "BY DEFAULT"}
			}
		}
		cols = append(cols, col)
	}

	var pk *catalog.PrimaryKey
	if len(pkCols) > 0 {
		pk = &catalog.PrimaryKey{Columns: pkCols}
	}
	return cols, pk, nil
}

func (p *Provider) introspectForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	rows, err := p.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[int]*catalog.ForeignKey{}
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &catalog.ForeignKey{
				ReferencedTable: refTable,
				OnUpdate:        sqliteAction(onUpdate),
				OnDelete:        sqliteAction(onDelete),
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.ForeignKey, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func sqliteAction(s string) catalog.ForeignKeyAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASCADE":
		return catalog.ActionCascade
	case "SET NULL":
		return catalog.ActionSetNull
	case "SET DEFAULT":
		return catalog.ActionSetDefault
	case "RESTRICT":
		return catalog.ActionRestrict
	default:
		return catalog.ActionNoAction
	}
}

func (p *Provider) introspectIndexesAndUniques(ctx context.Context, table string) ([]catalog.Index, []catalog.UniqueConstraint, error) {
	rows, err := p.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type idxMeta struct {
		name    string
		unique  bool
		origin  string
		partial bool
	}
	var metas []idxMeta
	for rows.Next() {
		var seq int
		var m idxMeta
		var uniqueInt, partialInt int
		if err := rows.Scan(&seq, &m.name, &uniqueInt, &m.origin, &partialInt); err != nil {
			return nil, nil, err
		}
		m.unique = uniqueInt != 0
		m.partial = partialInt != 0
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var indexes []catalog.Index
	var uniques []catalog.UniqueConstraint
	for _, m := range metas {
		if m.origin == "pk" {
			continue // already captured by introspectColumns' PrimaryKey
		}
		cols, err := p.introspectIndexColumns(ctx, m.name)
		if err != nil {
			return nil, nil, err
		}
		if m.origin == "u" {
			var colNames []string
			for _, c := range cols {
				colNames = append(colNames, c.Column)
			}
			uniques = append(uniques, catalog.UniqueConstraint{ConstraintName: m.name, Columns: colNames})
			continue
		}
		indexes = append(indexes, catalog.Index{
			Name:    m.name,
			Unique:  m.unique,
			Method:  "btree",
			Columns: cols,
		})
	}
	return indexes, uniques, nil
}

func (p *Provider) introspectIndexColumns(ctx context.Context, indexName string) ([]catalog.IndexColumn, error) {
	rows, err := p.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_xinfo(%s)`, quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.IndexColumn
	for rows.Next() {
		var seqno, cid, desc, keyInt int
		var name sql.NullString
		var coll string
		if err := rows.Scan(&seqno, &cid, &name, &desc, &coll, &keyInt); err != nil {
			return nil, err
		}
		if keyInt == 0 {
			continue // auxiliary rowid column appended by SQLite, not part of the key
		}
		ic := catalog.IndexColumn{Direction: "asc"}
		if desc != 0 {
			ic.Direction = "desc"
		}
		if cid == -2 {
			ic.Expression = "expr" // SQLite does not expose the expression text via PRAGMA; reflected as opaque
		} else if name.Valid {
			ic.Column = name.String
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// checkPattern finds a `CHECK (` keyword inside a CREATE TABLE body; the
// matching close paren is found by depth-counting since SQLite has no
// PRAGMA exposing check constraints (spec.md §4.2's SQLite catalog list
// omits one).
var checkPattern = regexp.MustCompile(`(?i)CHECK\s*\(`)

func extractCheckConstraints(createSQL string) []catalog.CheckConstraint {
	var out []catalog.CheckConstraint
	idx := 0
	for {
		loc := checkPattern.FindStringIndex(createSQL[idx:])
		if loc == nil {
			break
		}
		start := idx + loc[1] - 1 // position of the opening paren
		end := matchingParen(createSQL, start)
		if end < 0 {
			break
		}
		expr := createSQL[start+1 : end]
		out = append(out, catalog.CheckConstraint{Expression: normalize.DefaultExpr(expr)})
		idx = end + 1
	}
	return out
}

func matchingParen(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var createViewPattern = regexp.MustCompile(`(?is)^CREATE\s+VIEW\s+(?:IF\s+NOT\s+EXISTS\s+)?\S+\s*(?:\([^)]*\)\s*)?AS\s+(.*)$`)

func parseViewSQL(name, createSQL string) (catalog.View, error) {
	createSQL = strings.TrimSuffix(strings.TrimSpace(createSQL), ";")
	m := createViewPattern.FindStringSubmatch(createSQL)
	if m == nil {
		return catalog.View{}, fmt.Errorf("unrecognized view definition: %q", createSQL)
	}
	return catalog.View{Name: name, Definition: normalize.Body(m[1])}, nil
}

var createTriggerPattern = regexp.MustCompile(`(?is)^CREATE\s+TRIGGER\s+(?:IF\s+NOT\s+EXISTS\s+)?(\S+)\s+` +
	`(BEFORE|AFTER|INSTEAD OF)\s+(INSERT|UPDATE|DELETE)(?:\s+OF\s+([^\n]+?))?\s+ON\s+(\S+)\s*` +
	`(?:FOR\s+EACH\s+ROW\s*)?(?:WHEN\s+(.+?)\s+)?BEGIN\s+(.*)\s+END\s*$`)

func parseTriggerSQL(createSQL string) (catalog.Trigger, error) {
	createSQL = strings.TrimSuffix(strings.TrimSpace(createSQL), ";")
	m := createTriggerPattern.FindStringSubmatch(createSQL)
	if m == nil {
		return catalog.Trigger{}, fmt.Errorf("unrecognized trigger definition: %q", createSQL)
	}
	trig := catalog.Trigger{
		Name:   unquoteSQLiteIdent(m[1]),
		Timing: strings.ToUpper(m[2]),
		Events: []string{strings.ToUpper(m[3])},
		Table:  unquoteSQLiteIdent(m[5]),
		Level:  "ROW",
	}
	if m[4] != "" {
		for _, col := range strings.Split(m[4], ",") {
			trig.UpdateColumns = append(trig.UpdateColumns, strings.TrimSpace(col))
		}
	}
	if m[6] != "" {
		trig.When = normalize.DefaultExpr(m[6])
	}
	return trig, nil
}

func unquoteSQLiteIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`' || s[0] == '[') {
		return s[1 : len(s)-1]
	}
	return s
}
