// Package dbcore holds the error taxonomy (spec.md §7) and the
// configuration types shared by every stage of the pipeline.
package dbcore

import "fmt"

// ParseError is returned for malformed SQL in the desired schema.
// Non-recoverable; surfaced with line/column (spec.md §7).
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ValidationError is returned when the desired Catalog violates a
// provider rule (e.g. SQLite + ENUM, a schema outside the managed list).
type ValidationError struct {
	Code       string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (suggestion: %s)", e.Code, e.Message, e.Suggestion)
}

// UnsafeChangeError is returned when a desired change is syntactically
// supported but would destroy data or ordering (ENUM value
// removal/reorder per spec.md §4.3). The caller must edit the schema.
type UnsafeChangeError struct {
	ObjectName string
	Reason     string
	Values     []string
}

func (e *UnsafeChangeError) Error() string {
	return fmt.Sprintf("unsafe change to %s: %s (values: %v)", e.ObjectName, e.Reason, e.Values)
}

// DependencyError is returned when the resolver could not produce an
// order after cycle-breaking. This indicates an internal bug, not user
// error (spec.md §4.4 step 4: "InternalResolverError").
type DependencyError struct {
	Cycles [][]string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency resolver could not produce a valid order; detected cycles: %v", e.Cycles)
}

// DriverError carries the structured fields a database driver returns
// alongside a rejected statement (code/detail/hint/position), used by both
// MigrationError and PartiallyAppliedError.
type DriverError struct {
	Code     string
	Message  string
	Detail   string
	Hint     string
	Position int
}

func (e DriverError) Error() string {
	return e.Message
}

// MigrationError is returned when the database rejects a DDL statement in
// the transactional bucket. The transaction is rolled back; the database
// is unchanged.
type MigrationError struct {
	Statement string
	Driver    DriverError
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration failed executing %q: %s", e.Statement, e.Driver.Error())
}

func (e *MigrationError) Unwrap() error { return e.Driver }

// PartiallyAppliedError is returned when a concurrent-tail statement fails
// after the transactional bucket already committed (spec.md §4.5 step 4).
type PartiallyAppliedError struct {
	Succeeded []string
	Failed    string
	Skipped   []string
	Driver    DriverError
}

func (e *PartiallyAppliedError) Error() string {
	return fmt.Sprintf(
		"plan partially applied: %d statement(s) succeeded, %q failed (%s), %d statement(s) skipped",
		len(e.Succeeded), e.Failed, e.Driver.Error(), len(e.Skipped),
	)
}

func (e *PartiallyAppliedError) Unwrap() error { return e.Driver }

// LockTimeoutError is returned when the advisory lock was not acquired
// within the caller-supplied timeout.
type LockTimeoutError struct {
	LockName string
	Timeout  string
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire advisory lock %q within %s; retry later", e.LockName, e.Timeout)
}

// InternalResolverError wraps a DependencyError surfaced after an
// unexpected cycle-break failure (spec.md §4.4 step 4).
type InternalResolverError struct {
	Cause error
}

func (e *InternalResolverError) Error() string {
	return fmt.Sprintf("internal error: dependency resolver bug: %s", e.Cause)
}

func (e *InternalResolverError) Unwrap() error { return e.Cause }
