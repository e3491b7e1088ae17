/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dynasql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/dynasql/dynasql/driver"
	"github.com/dynasql/dynasql/session"
)

// cachingExecutor is the session-scoped Executor: one instance is shared
// by every statement invoked against the same underlying session — an
// Engine's implicit auto-commit *sql.DB, or one database transaction — and
// owns the state that must survive across those calls: the local cache,
// the deferred-load queue, the nesting-depth counter and the closed flag.
// It is not safe for concurrent use; an Executor has a single owner.
type cachingExecutor struct {
	session         session.Session
	driver          driver.Driver
	configuration   Configuration
	middlewares     MiddlewareGroup
	chain           *InterceptorChain
	envID           string
	localCacheScope string

	cache    *localCache
	deferred *deferredLoadQueue
	depth    int
	closed   bool
}

// newCachingExecutor builds a cachingExecutor bound to sess. localCacheScope
// is read from the configuration's "localCacheScope" setting ("SESSION",
// the default, or "STATEMENT").
func newCachingExecutor(sess session.Session, drv driver.Driver, cfg Configuration, envID string, chain *InterceptorChain, middlewares ...Middleware) *cachingExecutor {
	scope := cfg.Settings().Get("localCacheScope").String()
	if scope == "" {
		scope = "SESSION"
	}
	return &cachingExecutor{
		session:         sess,
		driver:          drv,
		configuration:   cfg,
		middlewares:     middlewares,
		chain:           chain,
		envID:           envID,
		localCacheScope: scope,
		cache:           newLocalCache(),
		deferred:        &deferredLoadQueue{},
	}
}

// queryOutcome is what query returns: exactly one of Rows (a cache miss —
// the caller must decode it and call store) or a cache hit, in which case
// Cached already holds the decoded value and Rows is nil.
type queryOutcome struct {
	Rows     *sql.Rows
	Cached   any
	HitCache bool
	Key      CacheKey
}

// query runs steps 1-6 of the Executor's query algorithm: compose bound
// SQL, build the CacheKey, flush the cache at the top of a flushCache
// statement, enter a nesting level, and either resolve from the local
// cache or install the building sentinel and hit the database. Step 6's
// sentinel is always removed before query returns, success or failure.
// Steps 7-8 (depth decrement, deferred-load drain) are the caller's
// responsibility via finishQuery, run only after the result — cached or
// freshly decoded — has been stored.
func (e *cachingExecutor) query(ctx context.Context, statement Statement, param Param, rowBounds RowBounds) (queryOutcome, error) {
	if e.closed {
		return queryOutcome{}, ErrExecutorClosed
	}

	query, args, err := buildStatementQuery(statement, e.configuration, e.driver, param)
	if err != nil {
		return queryOutcome{}, &BuildError{StatementID: statement.ID(), Err: err}
	}
	if paginator, ok := e.driver.(driver.Paginator); ok && rowBounds.Limit > 0 {
		query, args = paginator.Paginate(query, args, rowBounds.Offset, rowBounds.Limit)
	}

	key := newQueryCacheKey(statement.ID(), rowBounds, query, args, e.envID)

	if e.depth == 0 && statement.Attribute("flushCache") == "true" {
		e.cache.clear()
	}
	e.depth++

	if cached, ok := e.cache.get(key); ok {
		return queryOutcome{Cached: cached, HitCache: true, Key: key}, nil
	}

	e.cache.startBuilding(key)
	handler := newCompiledStatementHandler(query, args, e.middlewares, e.driver, e.configuration)
	rows, err := newContextStatementHandler(e.session, handler).QueryContext(ctx, statement, param)
	e.cache.finishBuilding(key)
	if err != nil {
		_ = e.finishQuery()
		return queryOutcome{}, &StatementError{StatementID: statement.ID(), SQL: query, Err: err}
	}
	return queryOutcome{Rows: rows, Key: key}, nil
}

// finishQuery runs steps 7-8: decrement the nesting depth, and at depth
// zero, drain the deferred-load queue and — if the configured
// localCacheScope is STATEMENT rather than SESSION — clear the local
// cache so nothing outlives the top-level statement it was built for.
func (e *cachingExecutor) finishQuery() error {
	e.depth--
	if e.depth > 0 {
		return nil
	}
	err := e.deferred.drain(e.cache)
	if e.localCacheScope == "STATEMENT" {
		e.cache.clear()
	}
	return err
}

// update runs the Executor's write path: a write invalidates every cached
// read (there is no dependency tracking finer than "clear everything"),
// then delegates to the ordinary batch-aware statement handler.
func (e *cachingExecutor) update(ctx context.Context, statement Statement, param Param) (sql.Result, error) {
	if e.closed {
		return nil, ErrExecutorClosed
	}
	e.cache.clear()
	handler := newBatchStatementHandler(e.driver, e.session, e.configuration, e.middlewares...)
	result, err := handler.ExecContext(ctx, statement, param)
	if err != nil {
		return nil, &StatementError{StatementID: statement.ID(), Err: err}
	}
	return result, nil
}

// queryCursor bypasses the local cache entirely for streaming access to a
// statement's raw rows: a cursor cannot be replayed from a cached value,
// and caching it would defeat the point of streaming.
func (e *cachingExecutor) queryCursor(ctx context.Context, statement Statement, param Param, rowBounds RowBounds) (*sql.Rows, error) {
	if e.closed {
		return nil, ErrExecutorClosed
	}
	query, args, err := buildStatementQuery(statement, e.configuration, e.driver, param)
	if err != nil {
		return nil, &BuildError{StatementID: statement.ID(), Err: err}
	}
	if paginator, ok := e.driver.(driver.Paginator); ok && rowBounds.Limit > 0 {
		query, args = paginator.Paginate(query, args, rowBounds.Offset, rowBounds.Limit)
	}
	handler := newCompiledStatementHandler(query, args, e.middlewares, e.driver, e.configuration)
	return newContextStatementHandler(e.session, handler).QueryContext(ctx, statement, param)
}

// flushStatements clears the local cache and, when rollback is true and
// the session is bound to a transaction, rolls it back.
func (e *cachingExecutor) flushStatements(rollback bool) error {
	if e.closed {
		return ErrExecutorClosed
	}
	e.cache.clear()
	if rollback {
		if tx, ok := e.session.(session.Transaction); ok {
			if err := tx.Rollback(); err != nil {
				return &TransactionError{Op: "rollback", Err: err}
			}
		}
	}
	return nil
}

// commit flushes the local cache and, when required and the session is a
// transaction, commits it. Commit never closes the Executor.
func (e *cachingExecutor) commit(required bool) error {
	if e.closed {
		return ErrExecutorClosed
	}
	if err := e.flushStatements(false); err != nil {
		return err
	}
	if !required {
		return nil
	}
	tx, ok := e.session.(session.Transaction)
	if !ok {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return &TransactionError{Op: "commit", Err: err}
	}
	return nil
}

// rollback flushes the local cache and, when required and the session is
// a transaction, rolls it back. Rollback never closes the Executor.
func (e *cachingExecutor) rollback(required bool) error {
	if e.closed {
		return ErrExecutorClosed
	}
	if err := e.flushStatements(false); err != nil {
		return err
	}
	if !required {
		return nil
	}
	tx, ok := e.session.(session.Transaction)
	if !ok {
		return nil
	}
	if err := tx.Rollback(); err != nil {
		return &TransactionError{Op: "rollback", Err: err}
	}
	return nil
}

// close releases the Executor's resources: the local cache and deferred
// queue are discarded, and, if forceRollback is set and the session is a
// transaction, it is rolled back. close is idempotent — calling it again
// is a silent no-op — and every operation after it returns ErrExecutorClosed.
func (e *cachingExecutor) close(forceRollback bool) error {
	if e.closed {
		return nil
	}
	var err error
	if forceRollback {
		if tx, ok := e.session.(session.Transaction); ok {
			if rerr := tx.Rollback(); rerr != nil {
				err = &TransactionError{Op: "rollback", Err: rerr}
			}
		}
	}
	e.cache.clear()
	e.deferred.pending = nil
	e.closed = true
	return err
}

// CachingExecutor is the type-safe front door onto a cachingExecutor for
// one Statement: it runs the full cache-aware query algorithm and decodes
// the result into T via the statement's ResultMap. Every CachingExecutor[T]
// built from the same session shares the same underlying cachingExecutor,
// so a cache hit in one mapper method is visible to another.
type CachingExecutor[T any] struct {
	core      *cachingExecutor
	statement Statement
	driver    driver.Driver
}

// Statement implements Executor.
func (e *CachingExecutor[T]) Statement() Statement { return e.statement }

// Driver implements Executor.
func (e *CachingExecutor[T]) Driver() driver.Driver { return e.driver }

// Configuration exposes the session's Configuration, for interceptors that
// need to consult global settings alongside the Statement's attributes.
func (e *CachingExecutor[T]) Configuration() Configuration { return e.core.configuration }

// QueryContext implements Executor: it runs Query with no row bounds.
func (e *CachingExecutor[T]) QueryContext(ctx context.Context, param Param) (result T, err error) {
	if e.core.chain == nil {
		return e.Query(ctx, param, NoRowBounds)
	}
	results, err := e.core.chain.Invoke(e, "Query", ctx, param, NoRowBounds)
	if err != nil {
		return result, err
	}
	if v, ok := results[0].(T); ok {
		result = v
	}
	return result, err
}

// Query runs the Executor's query algorithm for this statement — cache
// key, local cache, nesting depth, deferred loads — and decodes the
// result into T. It is also the reflect dispatch target for an
// InterceptorChain's "Query" invocations: interceptors call this
// indirectly via Invocation.Proceed, never directly.
func (e *CachingExecutor[T]) Query(ctx context.Context, param Param, rowBounds RowBounds) (result T, err error) {
	outcome, err := e.core.query(ctx, e.statement, param, rowBounds)
	if err != nil {
		return result, err
	}

	if outcome.HitCache {
		typed, ok := outcome.Cached.(T)
		if !ok {
			return result, fmt.Errorf("dynasql: cached value for statement %q has unexpected type %T", e.statement.ID(), outcome.Cached)
		}
		if drainErr := e.core.finishQuery(); drainErr != nil {
			return typed, drainErr
		}
		return typed, nil
	}

	defer func() { _ = outcome.Rows.Close() }()
	retMap, mapErr := e.statement.ResultMap()
	if mapErr != nil && !errors.Is(mapErr, ErrResultMapNotSet) {
		_ = e.core.finishQuery()
		return result, mapErr
	}

	result, err = BindWithResultMap[T](outcome.Rows, retMap)
	if err != nil {
		_ = e.core.finishQuery()
		return result, err
	}
	e.core.cache.put(outcome.Key, result)
	if drainErr := e.core.finishQuery(); drainErr != nil {
		err = drainErr
	}
	return result, err
}

// ExecContext implements Executor: it runs Update, through the
// interceptor chain when one is configured.
func (e *CachingExecutor[T]) ExecContext(ctx context.Context, param Param) (sql.Result, error) {
	if e.core.chain == nil {
		return e.Update(ctx, param)
	}
	results, err := e.core.chain.Invoke(e, "Update", ctx, param)
	if err != nil {
		return nil, err
	}
	result, _ := results[0].(sql.Result)
	return result, err
}

// Update executes a non-query statement, invalidating the local cache
// first. It is the reflect dispatch target for an InterceptorChain's
// "Update" invocations (e.g. GeneratedKeysInterceptor).
func (e *CachingExecutor[T]) Update(ctx context.Context, param Param) (sql.Result, error) {
	return e.core.update(ctx, e.statement, param)
}

// QueryCursor streams this statement's raw rows, bypassing the local
// cache entirely.
func (e *CachingExecutor[T]) QueryCursor(ctx context.Context, param Param, rowBounds RowBounds) (*sql.Rows, error) {
	return e.core.queryCursor(ctx, e.statement, param, rowBounds)
}

// DeferLoad resolves or queues a nested-result assignment against this
// Executor's session-scoped cache: owner.property is set to the value
// cached under key, converted to targetType, either immediately (if key
// already has a materialized entry) or the next time nesting depth
// returns to zero.
func (e *CachingExecutor[T]) DeferLoad(owner any, property string, key CacheKey, targetType reflect.Type) error {
	return e.core.deferLoad(owner, property, key, targetType)
}

// FlushStatements clears this session's local cache and, when rollback is
// true, rolls back its transaction (if it has one).
func (e *CachingExecutor[T]) FlushStatements(rollback bool) error {
	return e.core.flushStatements(rollback)
}

// Commit flushes the local cache and, when required, commits this
// session's transaction.
func (e *CachingExecutor[T]) Commit(required bool) error {
	return e.core.commit(required)
}

// Rollback flushes the local cache and, when required, rolls back this
// session's transaction.
func (e *CachingExecutor[T]) Rollback(required bool) error {
	return e.core.rollback(required)
}

// Close releases this session's cache and deferred-load queue, optionally
// forcing a transaction rollback first. It is idempotent.
func (e *CachingExecutor[T]) Close(forceRollback bool) error {
	return e.core.close(forceRollback)
}

// ensure CachingExecutor implements Executor and statementTarget.
var (
	_ Executor[any]    = (*CachingExecutor[any])(nil)
	_ statementTarget  = (*CachingExecutor[any])(nil)
)
