// Package diff computes the set of changes needed to reconcile a current
// Catalog into a desired one (spec.md §4.3). It never renders SQL and
// never decides execution order or transactionality beyond the coarse
// bucket hints a single edit unambiguously implies (e.g. "ALTER TYPE ADD
// VALUE is never transactional in PostgreSQL"): ordering across edits and
// cyclic-FK deferral are the Resolver's job (package depgraph).
//
// Grounded on the teacher's schema/generator.go, which performs the same
// current-vs-desired walk but emits DDL text directly; this package keeps
// the teacher's per-kind comparison structure while emitting structured
// Edit values instead, since spec.md's Differ -> Resolver -> Executor
// pipeline needs a dialect-neutral intermediate the Resolver can reorder
// and the Provider can render.
package diff

import "github.com/elitan/terra/catalog"

// Bucket is the coarse execution lane an Edit belongs to (spec.md §4.5).
// The Differ only sets the lane when a single edit kind unconditionally
// requires it (ADD VALUE, CONCURRENTLY); transactional/deferred
// splitting for cyclic foreign keys is done by plan.Build, which strips
// the foreign keys package depgraph marks as deferred out of their
// CreateTable or TableAlteration and emits each as a deferred
// AddForeignKey edit.
type Bucket int

const (
	BucketTransactional Bucket = iota
	BucketDeferred
	BucketConcurrent
)

// Kind identifies the shape of change an Edit carries.
type Kind string

const (
	KindCreateSchema    Kind = "create_schema"
	KindDropSchema      Kind = "drop_schema"
	KindCreateExtension Kind = "create_extension"
	KindDropExtension   Kind = "drop_extension"
	KindCreateEnum      Kind = "create_enum"
	KindAddEnumValue    Kind = "add_enum_value"
	KindDropEnum        Kind = "drop_enum"
	KindCreateSequence  Kind = "create_sequence"
	KindAlterSequence   Kind = "alter_sequence"
	KindDropSequence    Kind = "drop_sequence"
	KindCreateTable     Kind = "create_table"
	KindDropTable       Kind = "drop_table"
	KindAlterTable      Kind = "alter_table"
	KindCreateView      Kind = "create_view"
	KindReplaceView     Kind = "replace_view"
	KindDropView        Kind = "drop_view"
	KindCreateFunction  Kind = "create_function"
	KindReplaceFunction Kind = "replace_function"
	KindDropFunction    Kind = "drop_function"
	KindCreateTrigger   Kind = "create_trigger"
	KindDropTrigger     Kind = "drop_trigger"
	KindAddForeignKey   Kind = "add_foreign_key"
	KindDropForeignKey  Kind = "drop_foreign_key"
	KindSetComment      Kind = "set_comment"
)

// Edit is one atomic change the Executor will eventually render and run.
// Exactly one of the Kind-specific payload fields is populated, chosen by
// Kind; this mirrors the teacher's tagged-union DDL interface
// (schema/ddl.go's CreateTable/AddIndex/... types) but as plain data
// instead of a render-itself interface, since here the Provider renders.
type Edit struct {
	Kind   Kind
	Object catalog.ObjectID
	Bucket Bucket

	Schema        *catalog.Schema
	Extension     *catalog.Extension
	Enum          *catalog.EnumType
	EnumValue     string // for KindAddEnumValue, appended after Enum.Values' current tail
	Sequence      *catalog.Sequence
	Table         *catalog.Table // full desired table, for Create/Drop
	Alteration    *TableAlteration
	View          *catalog.View
	Function      *catalog.Function
	Trigger       *catalog.Trigger
	ForeignKey    *ForeignKeyEdit
	Comment       *catalog.Comment

	// Warning is surfaced to the caller's plan output without blocking
	// execution (spec.md §9's CREATE EXTENSION ... CASCADE decision).
	Warning string
}

// ForeignKeyEdit names the owning table for a standalone ADD/DROP
// CONSTRAINT edit (used both for ordinary FK changes on an existing table
// and for cyclic FKs the Resolver splits out of a CreateTable edit).
type ForeignKeyEdit struct {
	Table      string // qualified table name
	ForeignKey catalog.ForeignKey
}

// TableAlteration batches every column/constraint/index sub-edit for one
// existing table into a single ALTER TABLE when the dialect permits
// (spec.md §4.3: "batched per table into a single ALTER TABLE").
type TableAlteration struct {
	Table string // qualified name

	// DesiredTable is the full desired definition of this table, supplied
	// so a dialect whose ALTER TABLE cannot express every sub-edit (SQLite,
	// for structural changes beyond ADD/DROP COLUMN) can fall back to
	// rebuilding the table from scratch.
	DesiredTable *catalog.Table

	AddColumns    []catalog.Column
	DropColumns   []string
	AlterColTypes []ColumnTypeChange
	SetNotNull    []string
	DropNotNull   []string
	SetDefault    []ColumnDefaultChange
	DropDefault   []string

	DropPrimaryKey *catalog.PrimaryKey
	AddPrimaryKey  *catalog.PrimaryKey

	DropUnique []catalog.UniqueConstraint
	AddUnique  []catalog.UniqueConstraint

	DropCheck []catalog.CheckConstraint
	AddCheck  []catalog.CheckConstraint

	DropForeignKeys []catalog.ForeignKey
	AddForeignKeys  []catalog.ForeignKey

	DropIndexes []catalog.Index
	AddIndexes  []catalog.Index

	DropPolicies []catalog.Policy
	AddPolicies  []catalog.Policy
}

// Empty reports whether the alteration carries no sub-edits at all, so
// the Differ can skip emitting a no-op ALTER TABLE.
func (a *TableAlteration) Empty() bool {
	return len(a.AddColumns) == 0 && len(a.DropColumns) == 0 && len(a.AlterColTypes) == 0 &&
		len(a.SetNotNull) == 0 && len(a.DropNotNull) == 0 && len(a.SetDefault) == 0 &&
		len(a.DropDefault) == 0 && a.DropPrimaryKey == nil && a.AddPrimaryKey == nil &&
		len(a.DropUnique) == 0 && len(a.AddUnique) == 0 && len(a.DropCheck) == 0 &&
		len(a.AddCheck) == 0 && len(a.DropForeignKeys) == 0 && len(a.AddForeignKeys) == 0 &&
		len(a.DropIndexes) == 0 && len(a.AddIndexes) == 0 &&
		len(a.DropPolicies) == 0 && len(a.AddPolicies) == 0
}

// ColumnTypeChange is a type-only (or type+length/scale) change (spec.md
// §4.3: "if only the type changed and the canonical default is unchanged,
// emit ONLY the type change").
type ColumnTypeChange struct {
	Column      string
	NewType     string
	NewLength   *int
	NewScale    *int
	NewArray    bool
	SameFamily  bool // same-family casts render without an explicit USING cast
}

// ColumnDefaultChange sets a column's default to a new canonical
// expression (DropDefault is used instead when a default is removed
// entirely).
type ColumnDefaultChange struct {
	Column     string
	NewDefault string
}
