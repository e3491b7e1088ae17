package dynasql

import (
	"context"
	"database/sql"

	jsql "github.com/dynasql/dynasql/sql"
	"github.com/dynasql/dynasql/session"
)

// Runner defines the interface for SQL operations.
// It provides methods for executing SELECT, INSERT, UPDATE, and DELETE operations.
type Runner interface {
	Select(ctx context.Context, param Param) (jsql.Rows, error)
	Insert(ctx context.Context, param Param) (jsql.Result, error)
	Update(ctx context.Context, param Param) (jsql.Result, error)
	Delete(ctx context.Context, param Param) (jsql.Result, error)
}

// SQLRunner is the standard implementation of Runner interface.
// It holds the SQL query, engine configuration, and session information.
type SQLRunner struct {
	query   string
	engine  *Engine
	session session.Session
}

// BuildExecutor creates a new SQL executor based on the given action.
// It configures the statement handler with the necessary driver and middleware.
func (r *SQLRunner) BuildExecutor(action Action) Executor[*sql.Rows] {
	statement := RawSQLStatement{
		query:  r.query,
		cfg:    r.engine.GetConfiguration(),
		action: action,
	}
	statementHandler := newQueryBuildStatementHandler(
		r.engine.driver,
		r.session,
		r.engine.GetConfiguration(),
		r.engine.middlewares...,
	)
	return &sqlRowsExecutor{
		statement:        statement,
		statementHandler: statementHandler,
		driver:           r.engine.driver,
	}
}

// queryContext executes a SELECT query with the given context and parameters.
// It returns the query results as jsql.Rows and any error that occurred.
func (r *SQLRunner) queryContext(ctx context.Context, param Param) (jsql.Rows, error) {
	executor := r.BuildExecutor(Select)
	return executor.QueryContext(ctx, param)
}

// execContext executes a non-query SQL operation (INSERT, UPDATE, DELETE)
// with the given context and parameters.
func (r *SQLRunner) execContext(action Action, ctx context.Context, param Param) (jsql.Result, error) {
	executor := r.BuildExecutor(action)
	return executor.ExecContext(ctx, param)
}

// Select executes a SELECT query and returns the result rows.
func (r *SQLRunner) Select(ctx context.Context, param Param) (jsql.Rows, error) {
	return r.queryContext(ctx, param)
}

// Insert executes an INSERT statement and returns the result.
func (r *SQLRunner) Insert(ctx context.Context, param Param) (jsql.Result, error) {
	return r.execContext(Insert, ctx, param)
}

// Update executes an UPDATE statement and returns the result.
func (r *SQLRunner) Update(ctx context.Context, param Param) (jsql.Result, error) {
	return r.execContext(Update, ctx, param)
}

// Delete executes a DELETE statement and returns the result.
func (r *SQLRunner) Delete(ctx context.Context, param Param) (jsql.Result, error) {
	return r.execContext(Delete, ctx, param)
}

// NewRunner creates a new SQLRunner instance with the specified query, engine, and session.
func NewRunner(query string, engine *Engine, session session.Session) Runner {
	return &SQLRunner{
		query:   query,
		engine:  engine,
		session: session,
	}
}

// ErrorRunner is a Runner implementation that always returns an error.
// Useful for handling invalid states or configurations.
type ErrorRunner struct {
	error error
}

// Select executes a SELECT query and returns the result rows.
// It always returns an error.
func (r *ErrorRunner) Select(_ context.Context, _ Param) (jsql.Rows, error) {
	return nil, r.error
}

// Insert executes an INSERT statement and returns the result.
// It always returns an error.
func (r *ErrorRunner) Insert(_ context.Context, _ Param) (jsql.Result, error) {
	return nil, r.error
}

// Update executes an UPDATE statement and returns the result.
// It always returns an error.
func (r *ErrorRunner) Update(_ context.Context, _ Param) (jsql.Result, error) {
	return nil, r.error
}

// Delete executes a DELETE statement and returns the result.
// It always returns an error.
func (r *ErrorRunner) Delete(_ context.Context, _ Param) (jsql.Result, error) {
	return nil, r.error
}

// NewErrorRunner creates a new ErrorRunner that always returns the specified error.
func NewErrorRunner(err error) Runner {
	return &ErrorRunner{error: err}
}

// GenericRunner adapts a Runner's raw row-returning Select into typed results.
// It wraps List, Bind and List2 over the rows a Runner's query produces.
type GenericRunner[T any] struct {
	Runner
}

// List runs the query and binds every row to a slice of T.
func (r *GenericRunner[T]) List(ctx context.Context, param Param) ([]T, error) {
	rows, err := r.Select(ctx, param)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return jsql.List[T](rows)
}

// Bind runs the query and binds the result to a single value of T.
func (r *GenericRunner[T]) Bind(ctx context.Context, param Param) (T, error) {
	rows, err := r.Select(ctx, param)
	if err != nil {
		var zero T
		return zero, err
	}
	defer func() { _ = rows.Close() }()
	return jsql.Bind[T](rows)
}

// List2 runs the query and binds every row to a slice of pointers to T.
func (r *GenericRunner[T]) List2(ctx context.Context, param Param) ([]*T, error) {
	rows, err := r.Select(ctx, param)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return jsql.List2[T](rows)
}
