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
	"strconv"
	"time"

	"go.uber.org/zap"
)

// InterceptorError reports a failure raised while running an interceptor
// chain: a panic recovered from an interceptor, or a deliberate contract
// violation such as calling Invocation.Proceed twice.
type InterceptorError struct {
	Interceptor string
	Err         error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("dynasql: interceptor %s: %v", e.Interceptor, e.Err)
}

func (e *InterceptorError) Unwrap() error { return e.Err }

// errProceedCalledTwice is the panic value Invocation.Proceed raises on its
// second call; the chain recovers it into an InterceptorError.
var errProceedCalledTwice = errors.New("Proceed called more than once")

// Invocation is the mutable call-site record an Interceptor receives: the
// target collaborator, the method being invoked, and its argument list.
// An Interceptor may rewrite Args before calling Proceed; Proceed dispatches
// to the next interceptor in the chain, or to the real method at the
// bottom, using whatever Args hold at the time it is called.
type Invocation struct {
	// Target is the collaborator the intercepted method belongs to
	// (typically a *CachingExecutor[T]).
	Target any
	// Method is the name of the method being invoked.
	Method string
	// Args is the method's argument list. An Interceptor may replace any
	// element before calling Proceed.
	Args []any

	proceed func(args []any) ([]any, error)
	called  bool
}

// Proceed dispatches to the next link in the chain (or the real method),
// using the current value of Args. Calling Proceed a second time panics;
// the chain recovers that panic into an InterceptorError, so "exactly
// once" is a hard contract rather than a convention.
func (inv *Invocation) Proceed() ([]any, error) {
	if inv.called {
		panic(errProceedCalledTwice)
	}
	inv.called = true
	return inv.proceed(inv.Args)
}

// Interceptor wraps one (target, method) call. Intercept receives the
// Invocation and must either call inv.Proceed() exactly once and return its
// result, or deliberately short-circuit by returning without calling it —
// but the latter must be declared via ShortCircuiter, or registration
// rejects the interceptor.
type Interceptor interface {
	Intercept(inv *Invocation) ([]any, error)
}

// InterceptorFunc adapts a plain function to an Interceptor.
type InterceptorFunc func(inv *Invocation) ([]any, error)

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(inv *Invocation) ([]any, error) { return f(inv) }

// ShortCircuiter is implemented by interceptors that may deliberately
// return without calling Invocation.Proceed for some invocations (e.g. a
// second-level cache returning a hit without touching the database).
// RegisterInterceptor skips the proceed canary for these.
type ShortCircuiter interface {
	ShortCircuits() bool
}

// ErrInterceptorMustProceed is returned by NewInterceptorChain when an
// interceptor neither calls Invocation.Proceed during a canary invocation
// nor declares itself a ShortCircuiter.
var ErrInterceptorMustProceed = errors.New("dynasql: interceptor does not call Invocation.Proceed")

// verifyProceeds runs interceptor through a no-op canary Invocation and
// reports whether it called Proceed. This is the structural guarantee
// registration enforces: an interceptor that would unconditionally
// swallow every call is rejected before it ever reaches a real statement.
func verifyProceeds(interceptor Interceptor) error {
	if sc, ok := interceptor.(ShortCircuiter); ok && sc.ShortCircuits() {
		return nil
	}
	proceeded := false
	inv := &Invocation{
		Method: "__canary__",
		proceed: func(args []any) ([]any, error) {
			proceeded = true
			return args, nil
		},
	}
	func() {
		defer func() { _ = recover() }()
		_, _ = interceptor.Intercept(inv)
	}()
	if !proceeded {
		return fmt.Errorf("%w: %T", ErrInterceptorMustProceed, interceptor)
	}
	return nil
}

// InterceptorChain wraps a target's methods with a Russian-doll pipeline of
// Interceptors. The first interceptor passed to NewInterceptorChain is
// outermost: it sees the call first and the result last.
type InterceptorChain struct {
	interceptors []Interceptor
}

// NewInterceptorChain builds an InterceptorChain from interceptors, in
// registration order (first registered, outermost). Each interceptor is
// run once through a canary Invocation; one that never calls Proceed (and
// does not declare itself a ShortCircuiter) makes this return
// ErrInterceptorMustProceed instead of a chain.
func NewInterceptorChain(interceptors ...Interceptor) (*InterceptorChain, error) {
	for _, interceptor := range interceptors {
		if err := verifyProceeds(interceptor); err != nil {
			return nil, err
		}
	}
	return &InterceptorChain{interceptors: interceptors}, nil
}

// Invoke calls target.method(args...) through the chain. Interceptors not
// registered for this target/method still run, but are expected to
// recognize (via a type assertion on inv.Target and a check of inv.Method)
// that the call isn't theirs and pass it through unchanged via Proceed.
func (c *InterceptorChain) Invoke(target any, method string, args ...any) ([]any, error) {
	call := func(args []any) ([]any, error) {
		return callMethod(target, method, args)
	}
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		next := call
		call = func(args []any) (res []any, callErr error) {
			inv := &Invocation{Target: target, Method: method, Args: args, proceed: next}
			defer func() {
				if r := recover(); r != nil {
					rerr, ok := r.(error)
					if !ok {
						rerr = fmt.Errorf("%v", r)
					}
					callErr = &InterceptorError{Interceptor: reflect.TypeOf(interceptor).String(), Err: rerr}
				}
			}()
			return interceptor.Intercept(inv)
		}
	}
	return call(args)
}

// callMethod invokes target's exported method named name via reflection,
// passing args positionally, and returns its results as []any. A nil
// argument is passed as the zero value of the corresponding parameter
// type, since reflect.ValueOf(nil) is not itself a usable reflect.Value.
func callMethod(target any, name string, args []any) ([]any, error) {
	rv := reflect.ValueOf(target)
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("dynasql: %T has no method %s", target, name)
	}
	mt := m.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.New(mt.In(i)).Elem()
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out := m.Call(in)
	results := make([]any, len(out))
	var err error
	for i, o := range out {
		if o.Type() == errorType {
			if !o.IsNil() {
				err, _ = o.Interface().(error)
			}
			continue
		}
		results[i] = o.Interface()
	}
	return results, err
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// statementTarget is the structural interface every CachingExecutor[T]
// satisfies, letting interceptors inspect the Statement and Configuration
// behind a call without knowing the concrete result type T.
type statementTarget interface {
	Statement() Statement
	Configuration() Configuration
}

// ---- Canonical interceptors ----

// PaginationInterceptor derives a RowBounds from a statement's declared
// paging parameters ("page"/"pageSize", or "offset"/"limit") and rewrites
// the Query call's RowBounds argument accordingly, so SQL-level pagination
// (driver.Paginator) is applied without every mapper query hand-writing
// LIMIT/OFFSET.
type PaginationInterceptor struct{}

// Intercept implements Interceptor.
func (PaginationInterceptor) Intercept(inv *Invocation) ([]any, error) {
	if inv.Method != "Query" || len(inv.Args) != 3 {
		return inv.Proceed()
	}
	param, _ := inv.Args[1].(Param)
	rowBounds, _ := inv.Args[2].(RowBounds)

	if rowBounds == NoRowBounds {
		if derived, ok := rowBoundsFromParam(param); ok {
			inv.Args[2] = derived
		}
	}
	return inv.Proceed()
}

// rowBoundsFromParam looks for page/pageSize or offset/limit fields on
// param and, if found, derives a RowBounds from them.
func rowBoundsFromParam(param Param) (RowBounds, bool) {
	if param == nil {
		return NoRowBounds, false
	}
	generic := newGenericParam(param, "")
	if offsetV, ok := generic.Get("offset"); ok {
		limitV, _ := generic.Get("limit")
		offset, limit := intOf(offsetV), intOf(limitV)
		if limit > 0 {
			return RowBounds{Offset: offset, Limit: limit}, true
		}
	}
	if pageV, ok := generic.Get("page"); ok {
		sizeV, ok2 := generic.Get("pageSize")
		if !ok2 {
			return NoRowBounds, false
		}
		page, size := intOf(pageV), intOf(sizeV)
		if page > 0 && size > 0 {
			return RowBounds{Offset: (page - 1) * size, Limit: size}, true
		}
	}
	return NoRowBounds, false
}

func intOf(v reflect.Value) int {
	if !v.IsValid() {
		return 0
	}
	v = reflect.Indirect(v)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint())
	case reflect.String:
		n, _ := strconv.Atoi(v.String())
		return n
	default:
		return 0
	}
}

// debugLogger is the zap.Logger DebugInterceptor writes to.
var debugLogger, _ = zap.NewDevelopment()

// DebugInterceptor structured-logs every Query and Update call: statement
// name, argument count, and how long the call took to return.
type DebugInterceptor struct{}

// Intercept implements Interceptor.
func (DebugInterceptor) Intercept(inv *Invocation) ([]any, error) {
	target, ok := inv.Target.(statementTarget)
	if !ok || (inv.Method != "Query" && inv.Method != "Update") {
		return inv.Proceed()
	}
	stmt := target.Statement()
	if stmt.Attribute("debug") == "false" {
		return inv.Proceed()
	}
	if cfg := target.Configuration(); cfg != nil && cfg.Settings().Get("debug").String() == "false" {
		return inv.Proceed()
	}

	start := time.Now()
	results, err := inv.Proceed()
	debugLogger.Debug("dynasql statement",
		zap.String("statement", stmt.Name()),
		zap.String("method", inv.Method),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return results, err
}

// TimeoutInterceptor derives a per-call context deadline from a
// statement's "timeout" attribute (milliseconds) and wraps the call's
// context with it before proceeding.
type TimeoutInterceptor struct{}

// Intercept implements Interceptor.
func (TimeoutInterceptor) Intercept(inv *Invocation) ([]any, error) {
	target, ok := inv.Target.(statementTarget)
	if !ok || len(inv.Args) == 0 || (inv.Method != "Query" && inv.Method != "Update") {
		return inv.Proceed()
	}
	timeoutAttr := target.Statement().Attribute("timeout")
	if timeoutAttr == "" {
		return inv.Proceed()
	}
	millis, err := strconv.ParseInt(timeoutAttr, 10, 64)
	if err != nil || millis <= 0 {
		return inv.Proceed()
	}
	ctx, ok := inv.Args[0].(context.Context)
	if !ok {
		return inv.Proceed()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(millis)*time.Millisecond)
	defer cancel()
	inv.Args[0] = ctx
	return inv.Proceed()
}

// GeneratedKeysInterceptor writes a database-generated key back onto the
// insert statement's struct (or slice of structs) parameter, the same
// useGeneratedKeys/keyProperty/keyIncrement attributes
// useGeneratedKeysMiddleware reads, generalized to the Invocation
// protocol's Query/Update granularity.
type GeneratedKeysInterceptor struct{}

// Intercept implements Interceptor.
func (GeneratedKeysInterceptor) Intercept(inv *Invocation) ([]any, error) {
	target, ok := inv.Target.(statementTarget)
	if !ok || inv.Method != "Update" || len(inv.Args) != 2 {
		return inv.Proceed()
	}
	stmt := target.Statement()
	if stmt.Action() != Insert {
		return inv.Proceed()
	}
	cfg := target.Configuration()
	useGeneratedKeys := stmt.Attribute("useGeneratedKeys") == "true" ||
		(cfg != nil && cfg.Settings().Get("useGeneratedKeys").String() == "true")
	if !useGeneratedKeys {
		return inv.Proceed()
	}

	results, err := inv.Proceed()
	if err != nil {
		return results, err
	}
	result, _ := results[0].(sql.Result)
	if result == nil {
		return results, err
	}

	if keyErr := writeGeneratedKeys(stmt, inv.Args[1], result); keyErr != nil {
		return results, keyErr
	}
	return results, nil
}

// writeGeneratedKeys mirrors useGeneratedKeysMiddleware's key-writing
// logic, reused here at the Invocation layer.
func writeGeneratedKeys(stmt Statement, param any, result sql.Result) error {
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 1 {
		id = id + rowsAffected - 1
	}
	if param == nil {
		return errors.New("dynasql: useGeneratedKeys is true, but the param is nil")
	}

	rv := reflect.ValueOf(param)
	if rv.Kind() == reflect.Map {
		if rv.Len() != 1 {
			return fmt.Errorf("dynasql: useGeneratedKeys is true, map must contain exactly one key-value pair, got %d", rv.Len())
		}
		rv = rv.MapIndex(rv.MapKeys()[0])
	}

	keyProperty := stmt.Attribute("keyProperty")
	var generator selectKeyGenerator

	switch indirectKind(rv) {
	case reflect.Struct:
		generator = &singleKeyGenerator{keyProperty: keyProperty, id: id}
	case reflect.Array, reflect.Slice:
		keyIncrement, _ := strconv.ParseInt(stmt.Attribute("keyIncrement"), 10, 64)
		if keyIncrement == 0 {
			keyIncrement = 1
		}
		generator = &batchKeyGenerator{
			keyProperty:                   keyProperty,
			id:                            id,
			keyIncrement:                  keyIncrement,
			batchInsertIDGenerateStrategy: stmt.Attribute("batchInsertIDGenerateStrategy"),
		}
	default:
		return errStructPointerOrSliceArrayRequired
	}
	return generator.GenerateKeyTo(rv)
}

func indirectKind(rv reflect.Value) reflect.Kind {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv.Kind()
		}
		rv = rv.Elem()
	}
	return rv.Kind()
}

// ensure the canonical interceptors satisfy Interceptor.
var (
	_ Interceptor = PaginationInterceptor{}
	_ Interceptor = DebugInterceptor{}
	_ Interceptor = TimeoutInterceptor{}
	_ Interceptor = GeneratedKeysInterceptor{}
)
