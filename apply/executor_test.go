package apply

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/plan"
	"github.com/elitan/terra/provider"
)

type fakeProvider struct {
	db           *sql.DB
	lockAcquired bool
	lockErr      error
	released     bool
}

func (f *fakeProvider) Dialect() string { return "fake" }
func (f *fakeProvider) Introspect(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.NewCatalog(), nil
}
func (f *fakeProvider) RenderEdit(diff.Edit) ([]provider.Statement, error) { return nil, nil }
func (f *fakeProvider) SupportsFeature(provider.Feature) bool              { return false }
func (f *fakeProvider) Conn() *sql.DB                                      { return f.db }
func (f *fakeProvider) AcquireLock(ctx context.Context, name string, timeout time.Duration) (func(context.Context) error, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.lockAcquired = true
	return func(context.Context) error { f.released = true; return nil }, nil
}
func (f *fakeProvider) Close() error { return nil }

func newMockProvider(t *testing.T) (*fakeProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &fakeProvider{db: db}, mock
}

func TestRunDryRunNeverTouchesDatabase(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{Transactional: []string{"CREATE TABLE widgets (id integer)"}}
	cfg := dbcore.Config{DryRun: true}

	result, err := Run(context.Background(), mp, prov, cfg, nil)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunEmptyPlanShortCircuitsWithoutConfirmOrLock(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{}
	cfg := dbcore.Config{LockName: "terra"}

	result, err := Run(context.Background(), mp, prov, cfg, func(*plan.MigrationPlan) (bool, error) {
		t.Fatal("confirm should not be called for an empty plan")
		return false, nil
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.False(t, prov.lockAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCancelledWhenConfirmDeclines(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{Transactional: []string{"DROP TABLE widgets"}}
	cfg := dbcore.Config{}

	result, err := Run(context.Background(), mp, prov, cfg, func(*plan.MigrationPlan) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.False(t, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCommitsTransactionalThenDeferredInOneTransaction(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{
		Transactional: []string{"CREATE TABLE a (id integer)"},
		Deferred:      []string{"ALTER TABLE a ADD CONSTRAINT a_fk FOREIGN KEY (b_id) REFERENCES b (id)"},
	}
	cfg := dbcore.Config{AutoApprove: true}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(mp.Transactional[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(mp.Deferred[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	result, err := Run(context.Background(), mp, prov, cfg, nil)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRollsBackOnTransactionalStatementError(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{Transactional: []string{"CREATE TABLE a (id integer)"}}
	cfg := dbcore.Config{AutoApprove: true}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(mp.Transactional[0])).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	_, err := Run(context.Background(), mp, prov, cfg, nil)
	require.Error(t, err)
	var migErr *dbcore.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, mp.Transactional[0], migErr.Statement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunConcurrentBucketRunsOutsideTransactionAfterCommit(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{
		Transactional: []string{"CREATE TABLE a (id integer)"},
		Concurrent:    []string{"CREATE INDEX CONCURRENTLY a_idx ON a (id)"},
	}
	cfg := dbcore.Config{AutoApprove: true}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(mp.Transactional[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta(mp.Concurrent[0])).WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := Run(context.Background(), mp, prov, cfg, nil)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunConcurrentFailureReportsPartiallyApplied(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{
		Concurrent: []string{"CREATE INDEX CONCURRENTLY a_idx ON a (id)", "CREATE INDEX CONCURRENTLY b_idx ON b (id)"},
	}
	cfg := dbcore.Config{AutoApprove: true}

	mock.ExpectExec(regexp.QuoteMeta(mp.Concurrent[0])).WillReturnError(errors.New("lock not available"))

	_, err := Run(context.Background(), mp, prov, cfg, nil)
	require.Error(t, err)
	var partialErr *dbcore.PartiallyAppliedError
	require.ErrorAs(t, err, &partialErr)
	assert.Equal(t, mp.Concurrent[0], partialErr.Failed)
	assert.Equal(t, []string{mp.Concurrent[1]}, partialErr.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAcquiresAndReleasesAdvisoryLockWhenLockNameSet(t *testing.T) {
	prov, mock := newMockProvider(t)
	mp := &plan.MigrationPlan{Transactional: []string{"CREATE TABLE a (id integer)"}}
	cfg := dbcore.Config{AutoApprove: true, LockName: "terra_migrate", LockTimeout: time.Second}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(mp.Transactional[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := Run(context.Background(), mp, prov, cfg, nil)
	require.NoError(t, err)
	assert.True(t, prov.lockAcquired)
	assert.True(t, prov.released)
}

func TestRunPropagatesLockAcquisitionError(t *testing.T) {
	prov, _ := newMockProvider(t)
	prov.lockErr = errors.New("lock timeout")
	mp := &plan.MigrationPlan{Transactional: []string{"CREATE TABLE a (id integer)"}}
	cfg := dbcore.Config{AutoApprove: true, LockName: "terra_migrate"}

	_, err := Run(context.Background(), mp, prov, cfg, nil)
	assert.Error(t, err)
}
