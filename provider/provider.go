// Package provider declares the dialect seam spec.md §2 describes: every
// PostgreSQL/SQLite-specific concern (catalog introspection, DDL
// rendering, feature availability, advisory locking) lives behind this
// interface so the Differ and Resolver packages stay dialect-neutral.
// Concrete implementations live in provider/postgres and provider/sqlite.
package provider

import (
	"context"
	"database/sql"
	"time"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
)

// Statement is one rendered SQL statement paired with the execution lane
// it must run in (spec.md §4.5's three-bucket model).
type Statement struct {
	SQL    string
	Bucket diff.Bucket
}

// Feature names an optional dialect capability (spec.md §4.2's
// per-dialect feature-flag table: schemas, extensions, enums, sequences,
// policies, materialized views, procedures all exist in PostgreSQL and
// not in SQLite).
type Feature string

const (
	FeatureSchemas           Feature = "schemas"
	FeatureExtensions        Feature = "extensions"
	FeatureEnums             Feature = "enums"
	FeatureSequences         Feature = "sequences"
	FeaturePolicies          Feature = "policies"
	FeatureMaterializedViews Feature = "materialized_views"
	FeatureProcedures        Feature = "procedures"
	FeatureConcurrentIndex   Feature = "concurrent_index"
	FeatureAdvisoryLock      Feature = "advisory_lock"
	FeatureAlterColumnType   Feature = "alter_column_type"
	FeatureDropColumnInPlace Feature = "drop_column_in_place"
)

// Provider is the abstract surface spec.md §6 describes as createClient /
// client.query / provider.getCurrent<Kind> / provider.executeInTransaction
// / provider.acquire-releaseAdvisoryLock / provider.supportsFeature /
// provider.validateSchema, collapsed into one Go interface.
type Provider interface {
	// Dialect names the provider ("postgres", "sqlite").
	Dialect() string

	// Introspect builds a Catalog reflecting the live database's current
	// state, canonicalized through the same normalize rules the parser
	// applies to desired-state SQL (spec.md §3).
	Introspect(ctx context.Context) (*catalog.Catalog, error)

	// RenderEdit turns one structured Edit into the statement(s) that
	// implement it in this dialect's own syntax. Most edits render to
	// exactly one statement; a handful (SQLite table rebuild, a CREATE
	// TABLE followed by its indexes and policies) render to several.
	RenderEdit(edit diff.Edit) ([]Statement, error)

	// SupportsFeature reports whether this dialect implements an optional
	// capability.
	SupportsFeature(f Feature) bool

	// Conn returns the live connection so the Executor owns transaction
	// discipline directly (spec.md §5: "connection owned exclusively by
	// Executor").
	Conn() *sql.DB

	// AcquireLock implements spec.md §4.5's advisory-lock protocol:
	// exponential backoff (100ms initial, 5s cap) up to timeout, keyed by
	// a stable hash of name. Returns a release function. SQLite, which has
	// no server-side advisory lock concept, returns a no-op release.
	AcquireLock(ctx context.Context, name string, timeout time.Duration) (release func(context.Context) error, err error)

	Close() error
}
