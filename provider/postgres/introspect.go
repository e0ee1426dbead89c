// Package postgres implements the Provider interface (introspection and
// DDL rendering) for PostgreSQL, grounded on the teacher's
// database/postgres package: the same pg_catalog/information_schema
// queries, but mapped into catalog.Catalog values instead of DDL text,
// since this system diffs structured Catalogs rather than re-parsing
// dumped SQL (spec.md §4.2 "Introspection").
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
	"github.com/elitan/terra/internal/util"
	"github.com/elitan/terra/normalize"
)

// Provider introspects and renders DDL against a live PostgreSQL database.
type Provider struct {
	DB     *sql.DB
	Config dbcore.Config
}

// Open connects to PostgreSQL using lib/pq and returns a ready Provider.
func Open(dsn string, cfg dbcore.Config) (*Provider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &dbcore.DriverError{Message: err.Error()}
	}
	return &Provider{DB: db, Config: cfg}, nil
}

func (p *Provider) Close() error { return p.DB.Close() }

// Introspect builds a Catalog reflecting the live database's current
// state, restricted to p.Config.ManagedSchemas (spec.md §4.2). Table
// bodies are fetched concurrently, bounded by p.Config.DumpConcurrency
// (grounded on database/concurrent.go's ConcurrentMapFuncWithError).
func (p *Provider) Introspect(ctx context.Context) (*catalog.Catalog, error) {
	cat := catalog.NewCatalog()

	var err error
	if cat.Schemas, err = p.introspectSchemas(ctx); err != nil {
		return nil, fmt.Errorf("introspecting schemas: %w", err)
	}
	if cat.Extensions, err = p.introspectExtensions(ctx); err != nil {
		return nil, fmt.Errorf("introspecting extensions: %w", err)
	}
	if cat.Enums, err = p.introspectEnums(ctx); err != nil {
		return nil, fmt.Errorf("introspecting enums: %w", err)
	}
	if cat.Sequences, err = p.introspectSequences(ctx); err != nil {
		return nil, fmt.Errorf("introspecting sequences: %w", err)
	}
	if cat.Functions, err = p.introspectFunctions(ctx, false); err != nil {
		return nil, fmt.Errorf("introspecting functions: %w", err)
	}
	if cat.Procedures, err = p.introspectFunctions(ctx, true); err != nil {
		return nil, fmt.Errorf("introspecting procedures: %w", err)
	}

	tableNames, err := p.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	tables, err := util.ConcurrentMap(ctx, tableNames, p.Config.DumpConcurrency,
		func(ctx context.Context, qname [2]string) (catalog.Table, error) {
			return p.introspectTable(ctx, qname[0], qname[1])
		})
	if err != nil {
		return nil, fmt.Errorf("introspecting tables: %w", err)
	}
	cat.Tables = tables

	if cat.Views, err = p.introspectViews(ctx, false); err != nil {
		return nil, fmt.Errorf("introspecting views: %w", err)
	}
	matviews, err := p.introspectViews(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("introspecting materialized views: %w", err)
	}
	cat.Views = append(cat.Views, matviews...)

	if cat.Triggers, err = p.introspectTriggers(ctx); err != nil {
		return nil, fmt.Errorf("introspecting triggers: %w", err)
	}
	if cat.Comments, err = p.introspectComments(ctx); err != nil {
		return nil, fmt.Errorf("introspecting comments: %w", err)
	}

	cat.ResolveForeignKeys()
	if err := cat.ValidateManagedSchemas(p.Config.ManagedSchemas); err != nil {
		return nil, err
	}
	return cat, nil
}

func (p *Provider) managed(schema string) bool {
	if len(p.Config.ManagedSchemas) == 0 {
		return schema == "public"
	}
	return catalog.ContainsString(p.Config.ManagedSchemas, schema)
}

func (p *Provider) introspectSchemas(ctx context.Context) ([]catalog.Schema, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT LIKE 'pg\_%' AND schema_name != 'information_schema'
		ORDER BY schema_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Schema
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name == "public" || p.managed(name) {
			out = append(out, catalog.Schema{Name: name})
		}
	}
	return out, rows.Err()
}

func (p *Provider) introspectExtensions(ctx context.Context) ([]catalog.Extension, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT e.extname, n.nspname
		FROM pg_extension e JOIN pg_namespace n ON n.oid = e.extnamespace
		WHERE e.extname != 'plpgsql'
		ORDER BY e.extname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Extension
	for rows.Next() {
		var name, schema string
		if err := rows.Scan(&name, &schema); err != nil {
			return nil, err
		}
		out = append(out, catalog.Extension{Name: name, TargetSchema: schema})
	}
	return out, rows.Err()
}

func (p *Provider) introspectEnums(ctx context.Context) ([]catalog.EnumType, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, t.typname, array_agg(e.enumlabel ORDER BY e.enumsortorder)
		FROM pg_enum e
		JOIN pg_type t ON e.enumtypid = t.oid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = t.oid AND d.deptype = 'e')
		GROUP BY n.nspname, t.typname
		ORDER BY n.nspname, t.typname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.EnumType
	for rows.Next() {
		var schema, name string
		var values stringArray
		if err := rows.Scan(&schema, &name, &values); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		out = append(out, catalog.EnumType{Name: name, Schema: schema, Values: values})
	}
	return out, rows.Err()
}

func (p *Provider) introspectSequences(ctx context.Context) ([]catalog.Sequence, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, c.relname, s.seqtypid::regtype::text,
		       s.seqstart, s.seqmin, s.seqmax, s.seqincrement, s.seqcache, s.seqcycle
		FROM pg_sequence s
		JOIN pg_class c ON c.oid = s.seqrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = c.oid AND d.deptype = 'e')
		  AND NOT EXISTS (
		    SELECT 1 FROM pg_depend ad
		    WHERE ad.objid = c.oid AND ad.deptype = 'a'
		  )
		ORDER BY n.nspname, c.relname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Sequence
	for rows.Next() {
		var schema, name, typ string
		var start, min, max, incr, cache int64
		var cycle bool
		if err := rows.Scan(&schema, &name, &typ, &start, &min, &max, &incr, &cache, &cycle); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		out = append(out, catalog.Sequence{
			Name: name, Schema: schema, Type: typ,
			StartValue: &start, MinValue: &min, MaxValue: &max,
			IncrementBy: &incr, Cache: &cache, Cycle: cycle,
		})
	}
	return out, rows.Err()
}

// tableNames returns [schema, name] pairs for ordinary (non-partition,
// non-extension-owned) tables, grounded on database/postgres/database.go's
// tableNames query.
func (p *Provider) tableNames(ctx context.Context) ([][2]string, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, c.relname
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON c.relnamespace = n.oid
		WHERE n.nspname NOT IN ('information_schema', 'pg_catalog')
		  AND c.relkind IN ('r', 'p')
		  AND c.relpersistence IN ('p', 'u')
		  AND NOT c.relispartition
		  AND NOT EXISTS (SELECT 1 FROM pg_catalog.pg_depend d WHERE c.oid = d.objid AND d.deptype = 'e')
		ORDER BY n.nspname, c.relname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		out = append(out, [2]string{schema, name})
	}
	return out, rows.Err()
}

func (p *Provider) introspectTable(ctx context.Context, schema, name string) (catalog.Table, error) {
	table := catalog.Table{Name: name, Schema: schema}

	cols, err := p.introspectColumns(ctx, schema, name)
	if err != nil {
		return table, err
	}
	table.Columns = cols

	pk, err := p.introspectPrimaryKey(ctx, schema, name)
	if err != nil {
		return table, err
	}
	table.PrimaryKey = pk

	if table.ForeignKeys, err = p.introspectForeignKeys(ctx, schema, name); err != nil {
		return table, err
	}
	if table.UniqueConstraints, err = p.introspectUniqueConstraints(ctx, schema, name); err != nil {
		return table, err
	}
	if table.CheckConstraints, err = p.introspectCheckConstraints(ctx, schema, name); err != nil {
		return table, err
	}
	if table.Indexes, err = p.introspectIndexes(ctx, schema, name); err != nil {
		return table, err
	}
	if table.Policies, err = p.introspectPolicies(ctx, schema, name); err != nil {
		return table, err
	}

	return table, nil
}

func (p *Provider) introspectColumns(ctx context.Context, schema, name string) ([]catalog.Column, error) {
	const query = `
		SELECT a.attname,
		       format_type(a.atttypid, a.atttypmod),
		       NOT a.attnotnull,
		       pg_get_expr(ad.adbin, ad.adrelid),
		       a.attidentity,
		       col_description(c.oid, a.attnum)
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef ad ON ad.adrelid = c.oid AND ad.adnum = a.attnum
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`

	rows, err := p.DB.QueryContext(ctx, query, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Column
	for rows.Next() {
		var colName, formatted string
		var nullable bool
		var defaultExpr, identity, comment sql.NullString
		if err := rows.Scan(&colName, &formatted, &nullable, &defaultExpr, &identity, &comment); err != nil {
			return nil, err
		}

		rawType, length, scale, isArray := splitFormattedType(formatted)
		col := catalog.Column{Name: colName, Nullable: nullable, Array: isArray}

		if defaultExpr.Valid {
			if seqName := normalize.DetectSerialPattern(defaultExpr.String); seqName != "" && identity.String == "" {
				canon, _, _ := normalize.TypeName(rawType, length, scale, normalize.DialectPostgres)
				col.Type = canon
				col.Identity = &catalog.Identity{Generation: "BY DEFAULT", SequenceName: seqName}
			} else {
				canon := normalize.DefaultExpr(defaultExpr.String)
				col.Default = &canon
			}
		}
		if col.Type == "" {
			canon, outLen, outScale := normalize.TypeName(rawType, length, scale, normalize.DialectPostgres)
			col.Type = canon
			col.Length = outLen
			col.Scale = outScale
		}
		if identity.String == "a" || identity.String == "d" {
			gen := "ALWAYS"
			if identity.String == "d" {
				gen = "BY DEFAULT"
			}
			col.Identity = &catalog.Identity{Generation: gen, SequenceName: fmt.Sprintf("%s_%s_seq", name, colName)}
		}
		if comment.Valid {
			col.Comment = comment.String
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// splitFormattedType parses format_type()'s output (e.g.
// "character varying(255)", "numeric(10,2)", "integer[]") back into a
// bare type name plus length/scale, the inverse of how the parser builds
// a type spec, so both converge on the same normalize.TypeName call.
func splitFormattedType(formatted string) (rawType string, length, scale *int, isArray bool) {
	s := strings.TrimSpace(formatted)
	if strings.HasSuffix(s, "[]") {
		isArray = true
		s = strings.TrimSuffix(s, "[]")
	}
	if i := strings.Index(s, "("); i >= 0 && strings.HasSuffix(s, ")") {
		rawType = strings.TrimSpace(s[:i])
		args := s[i+1 : len(s)-1]
		parts := strings.Split(args, ",")
		if len(parts) >= 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				length = &n
			}
		}
		if len(parts) >= 2 {
			if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				scale = &n
			}
		}
		return rawType, length, scale, isArray
	}
	return s, nil, nil, isArray
}

func (p *Provider) introspectPrimaryKey(ctx context.Context, schema, name string) (*catalog.PrimaryKey, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT con.conname, a.attname
		FROM pg_constraint con
		JOIN pg_namespace nsp ON nsp.oid = con.connamespace
		JOIN pg_class cls ON cls.oid = con.conrelid
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = cls.oid AND a.attnum = k.attnum
		WHERE con.contype = 'p' AND nsp.nspname = $1 AND cls.relname = $2
		ORDER BY k.ord`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk *catalog.PrimaryKey
	for rows.Next() {
		var conname, col string
		if err := rows.Scan(&conname, &col); err != nil {
			return nil, err
		}
		if pk == nil {
			pk = &catalog.PrimaryKey{ConstraintName: conname}
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, rows.Err()
}

func (p *Provider) introspectForeignKeys(ctx context.Context, schema, name string) ([]catalog.ForeignKey, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT con.conname, a1.attname, n2.nspname, r2.relname, a2.attname,
		       con.confupdtype, con.confdeltype, con.condeferrable, con.condeferred, k.ord
		FROM pg_constraint con
		JOIN pg_namespace n1 ON n1.oid = con.connamespace
		JOIN pg_class r1 ON r1.oid = con.conrelid
		JOIN pg_class r2 ON r2.oid = con.confrelid
		JOIN pg_namespace n2 ON n2.oid = r2.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(key1, key2, ord)
		JOIN pg_attribute a1 ON a1.attrelid = con.conrelid AND a1.attnum = k.key1
		JOIN pg_attribute a2 ON a2.attrelid = con.confrelid AND a2.attnum = k.key2
		WHERE con.contype = 'f' AND n1.nspname = $1 AND r1.relname = $2
		ORDER BY con.conname, k.ord`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*catalog.ForeignKey{}
	var order []string
	for rows.Next() {
		var conname, col, refSchema, refTable, refCol, updType, delType string
		var deferrable, deferred bool
		var ord int
		if err := rows.Scan(&conname, &col, &refSchema, &refTable, &refCol, &updType, &delType, &deferrable, &deferred, &ord); err != nil {
			return nil, err
		}
		fk, ok := byName[conname]
		if !ok {
			fk = &catalog.ForeignKey{
				ConstraintName:    conname,
				ReferencedSchema:  refSchema,
				ReferencedTable:   refTable,
				OnUpdate:          pgActionFromChar(updType),
				OnDelete:          pgActionFromChar(delType),
				Deferrable:        deferrable,
				InitiallyDeferred: deferred,
			}
			byName[conname] = fk
			order = append(order, conname)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.ForeignKey, 0, len(order))
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, nil
}

func pgActionFromChar(c string) catalog.ForeignKeyAction {
	switch c {
	case "c":
		return catalog.ActionCascade
	case "n":
		return catalog.ActionSetNull
	case "d":
		return catalog.ActionSetDefault
	case "r":
		return catalog.ActionRestrict
	default:
		return catalog.ActionNoAction
	}
}

func (p *Provider) introspectUniqueConstraints(ctx context.Context, schema, name string) ([]catalog.UniqueConstraint, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT con.conname, a.attname
		FROM pg_constraint con
		JOIN pg_namespace nsp ON nsp.oid = con.connamespace
		JOIN pg_class cls ON cls.oid = con.conrelid
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = cls.oid AND a.attnum = k.attnum
		WHERE con.contype = 'u' AND nsp.nspname = $1 AND cls.relname = $2
		ORDER BY con.conname, k.ord`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*catalog.UniqueConstraint{}
	var order []string
	for rows.Next() {
		var conname, col string
		if err := rows.Scan(&conname, &col); err != nil {
			return nil, err
		}
		uc, ok := byName[conname]
		if !ok {
			uc = &catalog.UniqueConstraint{ConstraintName: conname}
			byName[conname] = uc
			order = append(order, conname)
		}
		uc.Columns = append(uc.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]catalog.UniqueConstraint, 0, len(order))
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, nil
}

func (p *Provider) introspectCheckConstraints(ctx context.Context, schema, name string) ([]catalog.CheckConstraint, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT con.conname, pg_get_constraintdef(con.oid, true), con.connoinherit
		FROM pg_constraint con
		JOIN pg_namespace nsp ON nsp.oid = con.connamespace
		JOIN pg_class cls ON cls.oid = con.conrelid
		WHERE con.contype = 'c' AND nsp.nspname = $1 AND cls.relname = $2
		ORDER BY con.conname`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.CheckConstraint
	for rows.Next() {
		var conname, def string
		var noInherit bool
		if err := rows.Scan(&conname, &def, &noInherit); err != nil {
			return nil, err
		}
		expr := strings.TrimPrefix(def, "CHECK ")
		expr = strings.TrimPrefix(expr, "(")
		expr = strings.TrimSuffix(expr, ")")
		out = append(out, catalog.CheckConstraint{
			ConstraintName: conname,
			Expression:     normalize.DefaultExpr(expr),
			NoInherit:      noInherit,
		})
	}
	return out, rows.Err()
}

func (p *Provider) introspectIndexes(ctx context.Context, schema, name string) ([]catalog.Index, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT i.relname, ix.indisunique, am.amname, pg_get_expr(ix.indpred, ix.indrelid)
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = i.relam
		WHERE n.nspname = $1 AND t.relname = $2
		  AND NOT EXISTS (
		    SELECT 1 FROM pg_constraint con
		    WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u', 'x')
		  )
		ORDER BY i.relname`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type idxRow struct {
		name, method string
		unique       bool
		where        sql.NullString
	}
	var idxRows []idxRow
	for rows.Next() {
		var r idxRow
		if err := rows.Scan(&r.name, &r.unique, &r.method, &r.where); err != nil {
			return nil, err
		}
		idxRows = append(idxRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []catalog.Index
	for _, r := range idxRows {
		cols, err := p.introspectIndexColumns(ctx, r.name)
		if err != nil {
			return nil, err
		}
		where := ""
		if r.where.Valid {
			where = normalize.DefaultExpr(r.where.String)
		}
		out = append(out, catalog.Index{
			Name: r.name, Unique: r.unique, Method: r.method, Columns: cols, Where: where,
		})
	}
	return out, nil
}

func (p *Provider) introspectIndexColumns(ctx context.Context, indexName string) ([]catalog.IndexColumn, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT
		  CASE WHEN a.attnum > 0 THEN a.attname ELSE '' END,
		  pg_get_indexdef(ix.indexrelid, k.n, true),
		  CASE WHEN (ix.indoption[k.n-1] & 1) = 1 THEN 'desc' ELSE 'asc' END,
		  COALESCE(opc.opcname, '')
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		CROSS JOIN LATERAL generate_series(1, ix.indnkeyatts) AS k(n)
		LEFT JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = ix.indkey[k.n-1]
		LEFT JOIN pg_opclass opc ON opc.oid = ix.indclass[k.n-1]
		WHERE i.relname = $1
		ORDER BY k.n`, indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.IndexColumn
	for rows.Next() {
		var attname, exprDef, direction, opclass string
		if err := rows.Scan(&attname, &exprDef, &direction, &opclass); err != nil {
			return nil, err
		}
		ic := catalog.IndexColumn{Direction: direction}
		if attname != "" {
			ic.Column = attname
		} else {
			ic.Expression = normalize.IndexExpression(exprDef)
		}
		if opclass != "" && !isDefaultOpclass(opclass) {
			ic.OpClass = normalize.OpClass(opclass)
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

// isDefaultOpclass reports whether opclass is the btree default for its
// underlying type family (e.g. "int4_ops", "text_ops"); these are never
// rendered explicitly since the parser's Catalog never populates OpClass
// unless the source SQL names one explicitly.
func isDefaultOpclass(name string) bool {
	return strings.HasSuffix(name, "_ops") && !strings.Contains(name, "pattern")
}

func (p *Provider) introspectPolicies(ctx context.Context, schema, name string) ([]catalog.Policy, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT policyname, permissive, roles, cmd, qual, with_check
		FROM pg_policies
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY policyname`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Policy
	for rows.Next() {
		var policyName, permissive, roles, cmd string
		var using, withCheck sql.NullString
		if err := rows.Scan(&policyName, &permissive, &roles, &cmd, &using, &withCheck); err != nil {
			return nil, err
		}
		pol := catalog.Policy{
			Name:       policyName,
			Permissive: permissive == "PERMISSIVE",
			Scope:      cmd,
			Roles:      parsePgTextArray(roles),
		}
		if using.Valid {
			pol.Using = normalize.DefaultExpr(using.String)
		}
		if withCheck.Valid {
			pol.WithCheck = normalize.DefaultExpr(withCheck.String)
		}
		out = append(out, pol)
	}
	return out, rows.Err()
}

func parsePgTextArray(s string) []string {
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (p *Provider) introspectViews(ctx context.Context, materialized bool) ([]catalog.View, error) {
	relkind := "v"
	if materialized {
		relkind = "m"
	}
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, c.relname, pg_get_viewdef(c.oid), COALESCE(c.reloptions, '{}')
		FROM pg_class c
		JOIN pg_namespace n ON c.relnamespace = n.oid
		WHERE c.relkind = $1
		  AND NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = c.oid AND d.deptype = 'e')
		ORDER BY n.nspname, c.relname`, relkind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.View
	for rows.Next() {
		var schema, name, def string
		var reloptions stringArray
		if err := rows.Scan(&schema, &name, &def, &reloptions); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		view := catalog.View{
			Name:            name,
			Schema:          schema,
			Definition:      normalize.Body(strings.TrimSuffix(strings.TrimSpace(def), ";")),
			Materialized:    materialized,
			CheckOption:     reloptionValue(reloptions, "check_option"),
			SecurityBarrier: reloptionValue(reloptions, "security_barrier") == "true",
		}
		if view.CheckOption != "" {
			view.CheckOption = strings.ToUpper(view.CheckOption)
		}
		if materialized {
			idx, err := p.introspectIndexes(ctx, schema, name)
			if err != nil {
				return nil, err
			}
			view.Indexes = idx
		}
		out = append(out, view)
	}
	return out, rows.Err()
}

func (p *Provider) introspectFunctions(ctx context.Context, procedures bool) ([]catalog.Function, error) {
	prokind := "f"
	if procedures {
		prokind = "p"
	}
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, p.proname, pg_get_function_identity_arguments(p.oid),
		       CASE WHEN p.prokind = 'f' THEN pg_get_function_result(p.oid) ELSE '' END,
		       l.lanname, p.prosrc, p.provolatile, p.proisstrict
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND p.prokind = $1
		  AND NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = p.oid AND d.deptype = 'e')
		ORDER BY n.nspname, p.proname`, prokind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Function
	for rows.Next() {
		var schema, name, args, returnType, lang, body string
		var volatility string
		var strict bool
		if err := rows.Scan(&schema, &name, &args, &returnType, &lang, &body, &volatility, &strict); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		out = append(out, catalog.Function{
			Name:        name,
			Schema:      schema,
			Parameters:  parseIdentityArguments(args),
			ReturnType:  returnType,
			Language:    lang,
			Body:        normalize.Body(body),
			Volatility:  pgVolatilityFromChar(volatility),
			Strict:      strict,
			IsProcedure: procedures,
		})
	}
	return out, rows.Err()
}

func pgVolatilityFromChar(c string) string {
	switch c {
	case "i":
		return "IMMUTABLE"
	case "s":
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

// parseIdentityArguments parses pg_get_function_identity_arguments()'s
// output ("a integer, b text" or "IN a integer, OUT b text") back into
// Parameters.
func parseIdentityArguments(args string) []catalog.Parameter {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}
	var out []catalog.Parameter
	for _, part := range strings.Split(args, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		mode := "IN"
		i := 0
		switch strings.ToUpper(fields[0]) {
		case "IN":
			i = 1
		case "OUT":
			mode = "OUT"
			i = 1
		case "INOUT":
			mode = "INOUT"
			i = 1
		case "VARIADIC":
			mode = "VARIADIC"
			i = 1
		}
		if i >= len(fields) {
			continue
		}
		name, typ := "", strings.Join(fields[i:], " ")
		if i+1 < len(fields) {
			name = fields[i]
			typ = strings.Join(fields[i+1:], " ")
		}
		out = append(out, catalog.Parameter{Name: name, Type: typ, Mode: mode})
	}
	return out
}

func (p *Provider) introspectTriggers(ctx context.Context) ([]catalog.Trigger, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT n.nspname, c.relname, t.tgname, pg_get_triggerdef(t.oid)
		FROM pg_trigger t
		JOIN pg_class c ON c.oid = t.tgrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE NOT t.tgisinternal
		  AND NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = t.oid AND d.deptype = 'e')
		ORDER BY n.nspname, c.relname, t.tgname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Trigger
	for rows.Next() {
		var schema, table, name, def string
		if err := rows.Scan(&schema, &table, &name, &def); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		trig, err := parseTriggerDef(def)
		if err != nil {
			return nil, err
		}
		trig.Name = name
		trig.Table = table
		trig.TableSchema = schema
		out = append(out, trig)
	}
	return out, rows.Err()
}

func (p *Provider) introspectComments(ctx context.Context) ([]catalog.Comment, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT 'table', n.nspname, c.relname, '', obj_description(c.oid)
		FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p', 'v', 'm') AND obj_description(c.oid) IS NOT NULL
		UNION ALL
		SELECT 'column', n.nspname, c.relname, a.attname, col_description(c.oid, a.attnum)
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE a.attnum > 0 AND NOT a.attisdropped AND col_description(c.oid, a.attnum) IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Comment
	for rows.Next() {
		var kind, schema, objName, col, text string
		if err := rows.Scan(&kind, &schema, &objName, &col, &text); err != nil {
			return nil, err
		}
		if !p.managed(schema) {
			continue
		}
		full := schema + "." + objName
		k := catalog.KindTable
		if kind == "column" {
			k = catalog.KindColumn
			full += "." + col
		}
		out = append(out, catalog.Comment{Object: catalog.ObjectID{Kind: k, Name: full}, Text: text})
	}
	return out, rows.Err()
}

// reloptionValue looks up key in a pg_class.reloptions-style list of
// "key=value" entries.
func reloptionValue(opts []string, key string) string {
	for _, opt := range opts {
		if k, v, ok := strings.Cut(opt, "="); ok && k == key {
			return v
		}
	}
	return ""
}

// stringArray scans a Postgres text[]/name[] result into a []string,
// avoiding a dependency on lib/pq's pq.Array for this one-off need.
type stringArray []string

func (a *stringArray) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("stringArray: unsupported scan type %T", src)
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		*a = nil
		return nil
	}
	*a = strings.Split(s, ",")
	return nil
}
