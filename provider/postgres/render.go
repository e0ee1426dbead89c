package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/internal/util"
	"github.com/elitan/terra/provider"
)

// Dialect identifies this provider to generic callers.
func (p *Provider) Dialect() string { return "postgres" }

// SupportsFeature reports PostgreSQL's feature set; every optional
// capability spec.md §4.2 lists is available here.
func (p *Provider) SupportsFeature(f provider.Feature) bool {
	switch f {
	case provider.FeatureSchemas, provider.FeatureExtensions, provider.FeatureEnums,
		provider.FeatureSequences, provider.FeaturePolicies, provider.FeatureMaterializedViews,
		provider.FeatureProcedures, provider.FeatureConcurrentIndex, provider.FeatureAdvisoryLock,
		provider.FeatureAlterColumnType, provider.FeatureDropColumnInPlace:
		return true
	default:
		return false
	}
}

// RenderEdit turns one structured diff.Edit into the PostgreSQL
// statement(s) that implement it. Grounded on the teacher's
// schema/generator.go DDL-string construction (same quoting and
// clause-joining conventions), adapted to render from an Edit value
// instead of a stateful Generator's internal diff pass.
func (p *Provider) RenderEdit(e diff.Edit) ([]provider.Statement, error) {
	switch e.Kind {
	case diff.KindCreateSchema:
		return []provider.Statement{{SQL: fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(e.Schema.Name))}}, nil
	case diff.KindDropSchema:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP SCHEMA %s CASCADE", quoteIdent(e.Schema.Name))}}, nil

	case diff.KindCreateExtension:
		return renderCreateExtension(e.Extension), nil
	case diff.KindDropExtension:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP EXTENSION %s CASCADE", quoteIdent(e.Extension.Name))}}, nil

	case diff.KindCreateEnum:
		return []provider.Statement{{SQL: renderCreateEnum(e.Enum)}}, nil
	case diff.KindAddEnumValue:
		return []provider.Statement{{
			SQL:    fmt.Sprintf("ALTER TYPE %s ADD VALUE %s", qualify(e.Enum.Schema, e.Enum.Name), quoteLiteral(e.EnumValue)),
			Bucket: diff.BucketConcurrent,
		}}, nil
	case diff.KindDropEnum:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP TYPE %s", qualify(e.Enum.Schema, e.Enum.Name))}}, nil

	case diff.KindCreateSequence:
		return []provider.Statement{{SQL: renderCreateSequence(e.Sequence)}}, nil
	case diff.KindAlterSequence:
		return []provider.Statement{{SQL: renderAlterSequence(e.Sequence)}}, nil
	case diff.KindDropSequence:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP SEQUENCE %s", qualify(e.Sequence.Schema, e.Sequence.Name))}}, nil

	case diff.KindCreateTable:
		return renderCreateTable(e.Table), nil
	case diff.KindDropTable:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP TABLE %s", qualify(e.Table.Schema, e.Table.Name))}}, nil
	case diff.KindAlterTable:
		return renderAlterTable(e.Alteration), nil

	case diff.KindAddForeignKey:
		return []provider.Statement{{
			SQL:    fmt.Sprintf("ALTER TABLE %s ADD %s", quoteQualifiedTable(e.ForeignKey.Table), foreignKeyClause(e.ForeignKey.ForeignKey)),
			Bucket: e.Bucket,
		}}, nil
	case diff.KindDropForeignKey:
		return []provider.Statement{{
			SQL:    fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", quoteQualifiedTable(e.ForeignKey.Table), quoteIdent(e.ForeignKey.ForeignKey.ConstraintName)),
			Bucket: e.Bucket,
		}}, nil

	case diff.KindCreateView:
		return []provider.Statement{{SQL: renderCreateView(e.View, false)}}, nil
	case diff.KindReplaceView:
		return []provider.Statement{{SQL: renderCreateView(e.View, true)}}, nil
	case diff.KindDropView:
		return []provider.Statement{{SQL: renderDropView(e.View)}}, nil

	case diff.KindCreateFunction, diff.KindReplaceFunction:
		return []provider.Statement{{SQL: renderCreateFunction(e.Function)}}, nil
	case diff.KindDropFunction:
		return []provider.Statement{{SQL: renderDropFunction(e.Function)}}, nil

	case diff.KindCreateTrigger:
		return []provider.Statement{{SQL: renderCreateTrigger(e.Trigger)}}, nil
	case diff.KindDropTrigger:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP TRIGGER %s ON %s", quoteIdent(e.Trigger.Name), qualify(e.Trigger.TableSchema, e.Trigger.Table))}}, nil

	case diff.KindSetComment:
		return []provider.Statement{{SQL: renderComment(e.Comment)}}, nil

	default:
		return nil, fmt.Errorf("postgres: unsupported edit kind %q", e.Kind)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func qualify(schema, name string) string {
	if schema == "" {
		return quoteIdent(name)
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

// quoteQualifiedTable quotes a "schema.table" or "table" string produced
// by catalog.Table.QualifiedName().
func quoteQualifiedTable(qualifiedName string) string {
	parts := strings.SplitN(qualifiedName, ".", 2)
	if len(parts) == 2 {
		return qualify(parts[0], parts[1])
	}
	return quoteIdent(qualifiedName)
}

func renderCreateExtension(ext *catalog.Extension) []provider.Statement {
	var b strings.Builder
	b.WriteString("CREATE EXTENSION")
	if ext.IfNotExists {
		b.WriteString(" IF NOT EXISTS")
	}
	fmt.Fprintf(&b, " %s", quoteIdent(ext.Name))
	if ext.TargetSchema != "" {
		fmt.Fprintf(&b, " SCHEMA %s", quoteIdent(ext.TargetSchema))
	}
	return []provider.Statement{{SQL: b.String()}}
}

func renderCreateEnum(e *catalog.EnumType) string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = quoteLiteral(v)
	}
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", qualify(e.Schema, e.Name), strings.Join(vals, ", "))
}

func renderCreateSequence(s *catalog.Sequence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE SEQUENCE %s", qualify(s.Schema, s.Name))
	b.WriteString(sequenceOptionsClause(s))
	return b.String()
}

func renderAlterSequence(s *catalog.Sequence) string {
	return fmt.Sprintf("ALTER SEQUENCE %s%s", qualify(s.Schema, s.Name), sequenceOptionsClause(s))
}

func sequenceOptionsClause(s *catalog.Sequence) string {
	var b strings.Builder
	if s.Type != "" {
		fmt.Fprintf(&b, " AS %s", s.Type)
	}
	if s.IncrementBy != nil {
		fmt.Fprintf(&b, " INCREMENT BY %d", *s.IncrementBy)
	}
	if s.MinValue != nil {
		fmt.Fprintf(&b, " MINVALUE %d", *s.MinValue)
	}
	if s.MaxValue != nil {
		fmt.Fprintf(&b, " MAXVALUE %d", *s.MaxValue)
	}
	if s.StartValue != nil {
		fmt.Fprintf(&b, " START WITH %d", *s.StartValue)
	}
	if s.Cache != nil {
		fmt.Fprintf(&b, " CACHE %d", *s.Cache)
	}
	if s.Cycle {
		b.WriteString(" CYCLE")
	} else {
		b.WriteString(" NO CYCLE")
	}
	if s.OwnedBy != "" {
		fmt.Fprintf(&b, " OWNED BY %s", quoteOwnedBy(s.OwnedBy))
	}
	return b.String()
}

func quoteOwnedBy(ownedBy string) string {
	idx := strings.LastIndex(ownedBy, ".")
	if idx < 0 {
		return quoteIdent(ownedBy)
	}
	return quoteQualifiedTable(ownedBy[:idx]) + "." + quoteIdent(ownedBy[idx+1:])
}

func renderCreateTable(t *catalog.Table) []provider.Statement {
	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+columnDefSQL(c))
	}
	if t.PrimaryKey != nil {
		lines = append(lines, "  "+primaryKeyClause(*t.PrimaryKey))
	}
	for _, u := range t.UniqueConstraints {
		lines = append(lines, "  "+uniqueClause(u))
	}
	for _, ck := range t.CheckConstraints {
		lines = append(lines, "  "+checkClause(ck))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, "  "+foreignKeyClause(fk))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n)", qualify(t.Schema, t.Name), strings.Join(lines, ",\n"))
	statements := []provider.Statement{{SQL: stmt}}

	for _, ix := range t.Indexes {
		if ix.Primary || isConstraintBackingIndex(t, ix) {
			continue
		}
		statements = append(statements, renderCreateIndex(t.Schema, t.Name, ix))
	}
	for _, pol := range t.Policies {
		statements = append(statements, provider.Statement{SQL: renderCreatePolicy(t.Schema, t.Name, pol)})
	}
	return statements
}

// isConstraintBackingIndex skips emitting a separate CREATE INDEX for the
// index PostgreSQL creates implicitly to back a PK/UNIQUE constraint
// already rendered inline above.
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

func columnDefSQL(c catalog.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", quoteIdent(c.Name), columnTypeSQL(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Identity != nil {
		fmt.Fprintf(&b, " GENERATED %s AS IDENTITY", c.Identity.Generation)
	} else if c.Default != nil {
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
	if c.Array {
		base += "[]"
	}
	return base
}

func primaryKeyClause(pk catalog.PrimaryKey) string {
	return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", quoteIdent(pk.ConstraintName), quoteIdentList(pk.Columns))
}

func uniqueClause(u catalog.UniqueConstraint) string {
	return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", quoteIdent(u.ConstraintName), quoteIdentList(u.Columns))
}

func checkClause(ck catalog.CheckConstraint) string {
	s := fmt.Sprintf("CONSTRAINT %s CHECK (%s)", quoteIdent(ck.ConstraintName), ck.Expression)
	if ck.NoInherit {
		s += " NO INHERIT"
	}
	return s
}

func foreignKeyClause(fk catalog.ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(fk.ConstraintName), quoteIdentList(fk.Columns),
		qualify(fk.ReferencedSchema, fk.ReferencedTable), quoteIdentList(fk.ReferencedColumns))
	if fk.OnDelete != "" && fk.OnDelete != catalog.ActionNoAction {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" && fk.OnUpdate != catalog.ActionNoAction {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	if fk.Deferrable {
		b.WriteString(" DEFERRABLE")
		if fk.InitiallyDeferred {
			b.WriteString(" INITIALLY DEFERRED")
		}
	}
	return b.String()
}

func quoteIdentList(names []string) string {
	return strings.Join(util.TransformSlice(names, quoteIdent), ", ")
}

func renderCreateIndex(schema, table string, ix catalog.Index) provider.Statement {
	var b strings.Builder
	b.WriteString("CREATE ")
	if ix.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if ix.Concurrent {
		b.WriteString("CONCURRENTLY ")
	}
	fmt.Fprintf(&b, "%s ON %s", quoteIdent(ix.Name), qualify(schema, table))
	if ix.Method != "" {
		fmt.Fprintf(&b, " USING %s", ix.Method)
	}
	fmt.Fprintf(&b, " (%s)", indexColumnListSQL(ix.Columns))
	if len(ix.Storage) > 0 {
		b.WriteString(" WITH (")
		b.WriteString(storageOptionsSQL(ix.Storage))
		b.WriteString(")")
	}
	if ix.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", ix.Where)
	}
	bucket := diff.BucketTransactional
	if ix.Concurrent {
		bucket = diff.BucketConcurrent
	}
	return provider.Statement{SQL: b.String(), Bucket: bucket}
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
		if c.OpClass != "" {
			expr += " " + c.OpClass
		}
		if c.Direction == "desc" {
			expr += " DESC"
		}
		parts[i] = expr
	}
	return strings.Join(parts, ", ")
}

func storageOptionsSQL(storage map[string]string) string {
	keys := make([]string, 0, len(storage))
	for k := range storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %s", k, storage[k])
	}
	return strings.Join(parts, ", ")
}

func renderCreatePolicy(schema, table string, pol catalog.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE POLICY %s ON %s", quoteIdent(pol.Name), qualify(schema, table))
	if !pol.Permissive {
		b.WriteString(" AS RESTRICTIVE")
	}
	if pol.Scope != "" {
		fmt.Fprintf(&b, " FOR %s", pol.Scope)
	}
	if len(pol.Roles) > 0 {
		fmt.Fprintf(&b, " TO %s", strings.Join(pol.Roles, ", "))
	}
	if pol.Using != "" {
		fmt.Fprintf(&b, " USING (%s)", pol.Using)
	}
	if pol.WithCheck != "" {
		fmt.Fprintf(&b, " WITH CHECK (%s)", pol.WithCheck)
	}
	return b.String()
}

func renderAlterTable(alt *diff.TableAlteration) []provider.Statement {
	table := quoteQualifiedTable(alt.Table)
	var clauses []string

	for _, fk := range alt.DropForeignKeys {
		clauses = append(clauses, fmt.Sprintf("DROP CONSTRAINT %s", quoteIdent(fk.ConstraintName)))
	}
	for _, ck := range alt.DropCheck {
		clauses = append(clauses, fmt.Sprintf("DROP CONSTRAINT %s", quoteIdent(ck.ConstraintName)))
	}
	for _, u := range alt.DropUnique {
		clauses = append(clauses, fmt.Sprintf("DROP CONSTRAINT %s", quoteIdent(u.ConstraintName)))
	}
	if alt.DropPrimaryKey != nil {
		clauses = append(clauses, fmt.Sprintf("DROP CONSTRAINT %s", quoteIdent(alt.DropPrimaryKey.ConstraintName)))
	}
	for _, col := range alt.DropColumns {
		clauses = append(clauses, fmt.Sprintf("DROP COLUMN %s", quoteIdent(col)))
	}
	for _, col := range alt.DropDefault {
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", quoteIdent(col)))
	}
	for _, col := range alt.DropNotNull {
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", quoteIdent(col)))
	}

	for _, tc := range alt.AlterColTypes {
		newType := tc.NewType
		if tc.NewLength != nil && tc.NewScale != nil {
			newType = fmt.Sprintf("%s(%d,%d)", newType, *tc.NewLength, *tc.NewScale)
		} else if tc.NewLength != nil {
			newType = fmt.Sprintf("%s(%d)", newType, *tc.NewLength)
		}
		if tc.NewArray {
			newType += "[]"
		}
		clause := fmt.Sprintf("ALTER COLUMN %s TYPE %s", quoteIdent(tc.Column), newType)
		if !tc.SameFamily {
			clause += fmt.Sprintf(" USING %s::%s", quoteIdent(tc.Column), newType)
		}
		clauses = append(clauses, clause)
	}

	for _, col := range alt.SetNotNull {
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", quoteIdent(col)))
	}
	for _, d := range alt.SetDefault {
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", quoteIdent(d.Column), d.NewDefault))
	}
	for _, c := range alt.AddColumns {
		clauses = append(clauses, fmt.Sprintf("ADD COLUMN %s", columnDefSQL(c)))
	}
	if alt.AddPrimaryKey != nil {
		clauses = append(clauses, "ADD "+primaryKeyClause(*alt.AddPrimaryKey))
	}
	for _, u := range alt.AddUnique {
		clauses = append(clauses, "ADD "+uniqueClause(u))
	}
	for _, ck := range alt.AddCheck {
		clauses = append(clauses, "ADD "+checkClause(ck))
	}
	for _, fk := range alt.AddForeignKeys {
		clauses = append(clauses, "ADD "+foreignKeyClause(fk))
	}

	var statements []provider.Statement
	if len(clauses) > 0 {
		stmt := fmt.Sprintf("ALTER TABLE %s\n  %s", table, strings.Join(clauses, ",\n  "))
		statements = append(statements, provider.Statement{SQL: stmt})
	}

	schema, name := splitQualified(alt.Table)
	for _, ix := range alt.DropIndexes {
		statements = append(statements, provider.Statement{SQL: fmt.Sprintf("DROP INDEX %s", qualify(schema, ix.Name))})
	}
	for _, ix := range alt.AddIndexes {
		statements = append(statements, renderCreateIndex(schema, name, ix))
	}
	for _, pol := range alt.DropPolicies {
		statements = append(statements, provider.Statement{SQL: fmt.Sprintf("DROP POLICY %s ON %s", quoteIdent(pol.Name), qualify(schema, name))})
	}
	for _, pol := range alt.AddPolicies {
		statements = append(statements, provider.Statement{SQL: renderCreatePolicy(schema, name, pol)})
	}
	return statements
}

func splitQualified(qualifiedName string) (schema, name string) {
	parts := strings.SplitN(qualifiedName, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", qualifiedName
}

func renderCreateView(v *catalog.View, replace bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if replace && !v.Materialized {
		b.WriteString("OR REPLACE ")
	}
	if v.Materialized {
		b.WriteString("MATERIALIZED ")
	}
	fmt.Fprintf(&b, "VIEW %s", qualify(v.Schema, v.Name))
	if v.SecurityBarrier {
		b.WriteString(" WITH (security_barrier = true)")
	}
	fmt.Fprintf(&b, " AS %s", v.Definition)
	if v.CheckOption != "" {
		fmt.Fprintf(&b, " WITH %s CHECK OPTION", v.CheckOption)
	}
	return b.String()
}

func renderDropView(v *catalog.View) string {
	if v.Materialized {
		return fmt.Sprintf("DROP MATERIALIZED VIEW %s", qualify(v.Schema, v.Name))
	}
	return fmt.Sprintf("DROP VIEW %s", qualify(v.Schema, v.Name))
}

func renderCreateFunction(f *catalog.Function) string {
	var b strings.Builder
	kind := "FUNCTION"
	if f.IsProcedure {
		kind = "PROCEDURE"
	}
	fmt.Fprintf(&b, "CREATE OR REPLACE %s %s(%s)", kind, qualify(f.Schema, f.Name), parameterListSQL(f.Parameters))
	if !f.IsProcedure {
		fmt.Fprintf(&b, " RETURNS %s", f.ReturnType)
	}
	fmt.Fprintf(&b, " LANGUAGE %s", f.Language)
	if !f.IsProcedure {
		b.WriteString(" " + f.Volatility)
		if f.Strict {
			b.WriteString(" STRICT")
		}
	}
	fmt.Fprintf(&b, " AS $terra$\n%s\n$terra$", f.Body)
	return b.String()
}

func renderDropFunction(f *catalog.Function) string {
	kind := "FUNCTION"
	if f.IsProcedure {
		kind = "PROCEDURE"
	}
	return fmt.Sprintf("DROP %s %s(%s)", kind, qualify(f.Schema, f.Name), parameterTypeListSQL(f.Parameters))
}

func parameterListSQL(params []catalog.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		mode := p.Mode
		if mode == "" {
			mode = "IN"
		}
		if p.Name != "" {
			parts[i] = fmt.Sprintf("%s %s %s", mode, quoteIdent(p.Name), p.Type)
		} else {
			parts[i] = fmt.Sprintf("%s %s", mode, p.Type)
		}
	}
	return strings.Join(parts, ", ")
}

func parameterTypeListSQL(params []catalog.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Type
	}
	return strings.Join(parts, ", ")
}

func renderCreateTrigger(t *catalog.Trigger) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TRIGGER %s %s", quoteIdent(t.Name), t.Timing)
	events := make([]string, len(t.Events))
	for i, ev := range t.Events {
		if strings.EqualFold(ev, "UPDATE") && len(t.UpdateColumns) > 0 {
			events[i] = "UPDATE OF " + quoteIdentList(t.UpdateColumns)
		} else {
			events[i] = ev
		}
	}
	fmt.Fprintf(&b, " %s ON %s", strings.Join(events, " OR "), qualify(t.TableSchema, t.Table))
	fmt.Fprintf(&b, " FOR EACH %s", t.Level)
	if t.When != "" {
		fmt.Fprintf(&b, " WHEN (%s)", t.When)
	}
	args := make([]string, len(t.Arguments))
	for i, a := range t.Arguments {
		args[i] = quoteLiteral(a)
	}
	fmt.Fprintf(&b, " EXECUTE FUNCTION %s(%s)", t.Function, strings.Join(args, ", "))
	return b.String()
}

// renderComment builds COMMENT ON ... IS ...; Object.Name carries the
// full dotted path ("schema.table" or "schema.table.column") rather than
// a separate Schema field, matching how both the parser (statements_misc.go's
// parseComment) and introspectComments above encode a Comment's identity.
func renderComment(c *catalog.Comment) string {
	var target string
	if c.Object.Kind == catalog.KindColumn {
		idx := strings.LastIndex(c.Object.Name, ".")
		target = fmt.Sprintf("COLUMN %s.%s", quoteQualifiedTable(c.Object.Name[:idx]), quoteIdent(c.Object.Name[idx+1:]))
	} else {
		target = fmt.Sprintf("%s %s", commentObjectKeyword(c.Object.Kind), quoteQualifiedTable(c.Object.Name))
	}
	text := "NULL"
	if c.Text != "" {
		text = quoteLiteral(c.Text)
	}
	return fmt.Sprintf("COMMENT ON %s IS %s", target, text)
}

func commentObjectKeyword(k catalog.Kind) string {
	switch k {
	case catalog.KindFunction:
		return "FUNCTION"
	case catalog.KindProcedure:
		return "PROCEDURE"
	case catalog.KindTrigger:
		return "TRIGGER"
	case catalog.KindIndex:
		return "INDEX"
	case catalog.KindEnum:
		return "TYPE"
	case catalog.KindView:
		return "VIEW"
	default:
		return "TABLE"
	}
}
