// Package catalog defines the canonical, dialect-neutral representation of a
// database schema. A Catalog is built once, either by parsing desired-state
// SQL (see package parser) or by introspecting a live database (see package
// provider), and is never mutated afterwards: the Differ consumes two
// Catalogs and produces Edits, it never writes back into either one.
package catalog

import "fmt"

// Kind identifies the sort of object an Edit or identifier refers to.
type Kind string

const (
	KindSchema    Kind = "schema"
	KindExtension Kind = "extension"
	KindEnum      Kind = "enum"
	KindSequence  Kind = "sequence"
	KindTable     Kind = "table"
	KindColumn    Kind = "column"
	KindIndex     Kind = "index"
	KindPrimary   Kind = "primary_key"
	KindUnique    Kind = "unique"
	KindCheck     Kind = "check"
	KindForeign   Kind = "foreign_key"
	KindPolicy    Kind = "policy"
	KindView      Kind = "view"
	KindFunction  Kind = "function"
	KindProcedure Kind = "procedure"
	KindTrigger   Kind = "trigger"
	KindComment   Kind = "comment"
)

// ObjectID uniquely identifies one object within a Catalog: kind plus
// qualified (schema, name) pair. Catalog invariant (1): within one Catalog
// every ObjectID is unique.
type ObjectID struct {
	Kind   Kind
	Schema string
	Name   string
}

func (o ObjectID) String() string {
	if o.Schema == "" {
		return fmt.Sprintf("%s:%s", o.Kind, o.Name)
	}
	return fmt.Sprintf("%s:%s.%s", o.Kind, o.Schema, o.Name)
}

// Catalog is an immutable snapshot of one database's schema, restricted to
// the managed schemas. Its shape is identical whether it was produced by
// the Parser or the Introspector.
type Catalog struct {
	Schemas    []Schema
	Extensions []Extension
	Enums      []EnumType
	Sequences  []Sequence
	Tables     []Table
	Views      []View
	Functions  []Function
	Procedures []Function
	Triggers   []Trigger
	Comments   []Comment
}

// NewCatalog returns an empty Catalog, the result of parsing an empty
// schema string (spec.md §6: "reconcile everything away").
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Schema is a namespace.
type Schema struct {
	Name string
}

// Extension is an installed PostgreSQL extension (CREATE EXTENSION).
type Extension struct {
	Name          string
	TargetSchema  string
	IfNotExists   bool
}

// EnumType is a CREATE TYPE ... AS ENUM definition.
type EnumType struct {
	Name   string
	Schema string
	Values []string // ordered
}

// Sequence is a CREATE SEQUENCE definition.
type Sequence struct {
	Name        string
	Schema      string
	Type        string // integer | bigint | smallint, default bigint
	StartValue  *int64
	MinValue    *int64
	MaxValue    *int64
	IncrementBy *int64
	Cache       *int64
	Cycle       bool
	OwnedBy     string // "table.column", empty if none
}

// Table is a CREATE TABLE definition.
type Table struct {
	Name              string
	Schema            string
	Columns           []Column // ordered, invariant (2)
	PrimaryKey        *PrimaryKey
	ForeignKeys       []ForeignKey
	UniqueConstraints []UniqueConstraint
	CheckConstraints  []CheckConstraint
	Indexes           []Index
	Policies          []Policy
}

func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnByName looks up a column by normalized name; returns nil if absent.
func (t Table) ColumnByName(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Column is one column of a Table. Type, Default and everything else here
// is always stored in canonical form (see package normalize).
type Column struct {
	Name       string
	Type       string // canonical type name, e.g. "integer", "character varying"
	Length     *int   // varchar(n), numeric precision argument 1
	Scale      *int   // numeric(p,s) argument 2
	Array      bool
	Nullable   bool
	Default    *string // canonical default expression, nil if none
	Identity   *Identity
	Comment    string
}

// Identity models a serial/IDENTITY column, normalized per spec.md §4.1
// ("serial ≡ integer + identity sequence + NOT NULL + default nextval(...)").
type Identity struct {
	Generation  string // "ALWAYS" | "BY DEFAULT"
	SequenceName string
	StartValue  *int64
	IncrementBy *int64
	MinValue    *int64
	MaxValue    *int64
	Cycle       bool
}

// PrimaryKey is an ordered list of column names under one constraint name.
type PrimaryKey struct {
	ConstraintName string
	Columns        []string
}

// ForeignKeyAction enumerates the referential actions spec.md §3 names.
type ForeignKeyAction string

const (
	ActionNoAction   ForeignKeyAction = "NO ACTION"
	ActionRestrict   ForeignKeyAction = "RESTRICT"
	ActionCascade    ForeignKeyAction = "CASCADE"
	ActionSetNull    ForeignKeyAction = "SET NULL"
	ActionSetDefault ForeignKeyAction = "SET DEFAULT"
)

// ForeignKey is a child-to-parent reference.
type ForeignKey struct {
	ConstraintName    string
	Columns           []string // child columns, ordered
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string // ordered, same length as Columns
	OnDelete          ForeignKeyAction
	OnUpdate          ForeignKeyAction
	Deferrable        bool
	InitiallyDeferred bool
	// External marks a FK whose referenced table could not be resolved
	// within this Catalog (invariant (3)): the object is outside the
	// managed schemas and is trusted to already exist.
	External bool
}

// UniqueConstraint is a named UNIQUE constraint over one or more columns.
type UniqueConstraint struct {
	ConstraintName string
	Columns        []string // ordered; column order is significant (spec.md §9)
}

// CheckConstraint is a named CHECK constraint.
type CheckConstraint struct {
	ConstraintName string
	Expression     string // canonical expression text
	NoInherit      bool
}

// IndexColumn is one column or expression participating in an index.
type IndexColumn struct {
	Column     string // empty if Expression is set
	Expression string // parenthesized expression, canonicalized (spec.md §4.1)
	Direction  string // "asc" | "desc"
	OpClass    string // operator class name, case-folded
}

// Index is a CREATE INDEX definition, or the index backing a UNIQUE/PRIMARY
// KEY constraint.
type Index struct {
	Name       string
	Unique     bool
	Primary    bool
	Method     string // btree | hash | gin | gist | brin
	Columns    []IndexColumn
	Where      string            // partial index predicate, canonicalized; empty if none
	Storage    map[string]string // storage parameters (e.g. fillfactor)
	Concurrent bool              // whether to render with CONCURRENTLY
}

// Policy is a PostgreSQL row-level security policy (CREATE POLICY).
type Policy struct {
	Name       string
	Permissive bool
	Scope      string // ALL | SELECT | INSERT | UPDATE | DELETE
	Roles      []string
	Using      string
	WithCheck  string
}

// View is a CREATE VIEW / CREATE MATERIALIZED VIEW definition.
type View struct {
	Name            string
	Schema          string
	Definition      string // canonical SELECT text
	Materialized    bool
	CheckOption     string // "" | "LOCAL" | "CASCADED"
	SecurityBarrier bool
	Indexes         []Index // indexes on a materialized view
}

func (v View) QualifiedName() string {
	if v.Schema == "" {
		return v.Name
	}
	return v.Schema + "." + v.Name
}

// Parameter is one argument of a Function/Procedure.
type Parameter struct {
	Name string
	Type string
	Mode string // IN | OUT | INOUT | VARIADIC
}

// Function models CREATE FUNCTION or CREATE PROCEDURE (Procedure == no
// ReturnType and IsProcedure == true).
type Function struct {
	Name        string
	Schema      string
	Parameters  []Parameter
	ReturnType  string // empty for a procedure
	Language    string
	Body        string // canonical (whitespace-normalized) body
	Volatility  string // VOLATILE | STABLE | IMMUTABLE
	Strict      bool
	IsProcedure bool
}

func (f Function) QualifiedName() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

// Trigger is a CREATE TRIGGER definition.
type Trigger struct {
	Name          string
	Table         string
	TableSchema   string
	Timing        string   // BEFORE | AFTER | INSTEAD OF
	Events        []string // INSERT | UPDATE | DELETE | TRUNCATE
	UpdateColumns []string // optional column list for UPDATE OF
	Level         string   // ROW | STATEMENT
	When          string   // canonical WHEN condition, empty if none
	Function      string   // qualified function name
	Arguments     []string
}

// Comment attaches a free-text comment to any other object kind.
type Comment struct {
	Object ObjectID
	Text   string
}
