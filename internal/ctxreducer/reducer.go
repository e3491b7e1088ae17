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

// Package ctxreducer composes the handful of values a statement execution
// needs to thread onto a context.Context (the bound parameter, the active
// session) into a single reduction step, so callers build one context
// instead of nesting context.WithValue calls by hand.
package ctxreducer

import (
	"context"

	"github.com/dynasql/dynasql/eval"
	"github.com/dynasql/dynasql/session"
)

// ContextReducer folds some value into a context.Context.
type ContextReducer interface {
	Reduce(ctx context.Context) context.Context
}

// ContextReducerFunc adapts a function to ContextReducer.
type ContextReducerFunc func(ctx context.Context) context.Context

// Reduce implements ContextReducer.
func (f ContextReducerFunc) Reduce(ctx context.Context) context.Context {
	return f(ctx)
}

// ContextReducerGroup applies a sequence of ContextReducers in order, each
// receiving the context produced by the one before it.
type ContextReducerGroup []ContextReducer

// G is a shorthand alias for ContextReducerGroup.
type G = ContextReducerGroup

// Reduce implements ContextReducer.
func (g ContextReducerGroup) Reduce(ctx context.Context) context.Context {
	for _, reducer := range g {
		ctx = reducer.Reduce(ctx)
	}
	return ctx
}

// NewParamContextReducer returns a ContextReducer that attaches param to
// the context via eval.CtxWithParam.
func NewParamContextReducer(param eval.Param) ContextReducer {
	return ContextReducerFunc(func(ctx context.Context) context.Context {
		return eval.CtxWithParam(ctx, param)
	})
}

// NewSessionContextReducer returns a ContextReducer that attaches sess to
// the context via session.WithContext.
func NewSessionContextReducer(sess session.Session) ContextReducer {
	return ContextReducerFunc(func(ctx context.Context) context.Context {
		return session.WithContext(ctx, sess)
	})
}
