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

// Package session abstracts over *sql.DB and *sql.Tx behind a single
// interface, and carries whichever of the two is live for a given
// context.Context so that statement execution does not need to know
// whether it is running inside a transaction.
package session

import (
	"context"
	"database/sql"
	"errors"
)

// Session is implemented by both *sql.DB and *sql.Tx.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ Session = (*sql.DB)(nil)
	_ Session = (*sql.Tx)(nil)
)

// Transaction is a Session bound to an in-flight database transaction: it
// additionally exposes Commit and Rollback.
type Transaction interface {
	Session
	Commit() error
	Rollback() error
}

var _ Transaction = (*sql.Tx)(nil)

// ErrNoSession is returned by FromContext when ctx carries no Session, or
// carries a nil one.
var ErrNoSession = errors.New("session: no session in context")

type sessionCtxKey struct{}

// WithContext returns a copy of ctx carrying sess.
func WithContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// FromContext returns the Session carried by ctx, or ErrNoSession if ctx
// carries none (or a nil Session value).
func FromContext(ctx context.Context) (Session, error) {
	sess, ok := ctx.Value(sessionCtxKey{}).(Session)
	if !ok || sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}
