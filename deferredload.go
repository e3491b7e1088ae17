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
	"errors"
	"fmt"
	"reflect"

	"github.com/dynasql/dynasql/internal/reflectlite"
)

// deferredLoad is one queued nested-result assignment: once key's local
// cache entry is materialized, its value is converted to targetType (if
// needed) and written onto owner's property field.
type deferredLoad struct {
	key        CacheKey
	owner      reflect.Value
	property   string
	targetType reflect.Type
}

// deferredLoadQueue accumulates deferredLoads raised by nested queries
// issued while an outer query is still running, and resolves them once
// nesting depth returns to zero (spec: the Executor's query algorithm,
// steps 7-8). It is re-entrancy-aware only in the sense that it is owned
// by the same single-owner Executor as the nesting-depth counter: queueing
// never blocks and draining always runs at depth zero, after every nested
// query (whatever depth it ran at) has already populated the cache.
type deferredLoadQueue struct {
	pending []deferredLoad
}

// enqueue appends load to the queue.
func (q *deferredLoadQueue) enqueue(load deferredLoad) {
	q.pending = append(q.pending, load)
}

// drain resolves every queued load against cache and empties the queue.
// Each load reads its own key independently, so one unresolved or failing
// load never blocks the rest; every failure is joined into the returned
// error.
func (q *deferredLoadQueue) drain(cache *localCache) error {
	pending := q.pending
	q.pending = nil

	var errs error
	for _, load := range pending {
		value, ok := cache.get(load.key)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("dynasql: deferred load for %s.%s never resolved", load.owner.Type(), load.property))
			continue
		}
		if err := assignDeferredValue(load.owner, load.property, value, load.targetType); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// assignDeferredValue writes value onto owner's property field, converting
// it to targetType first when the two types are not already identical.
func assignDeferredValue(owner reflect.Value, property string, value any, targetType reflect.Type) error {
	owner = reflectlite.Unwrap(owner)
	if owner.Kind() != reflect.Struct {
		return fmt.Errorf("dynasql: deferred load owner must be a struct, got %s", owner.Kind())
	}
	field := owner.FieldByName(property)
	if !field.IsValid() {
		return fmt.Errorf("dynasql: deferred load property %q not found on %s", property, owner.Type())
	}
	if !field.CanSet() {
		return fmt.Errorf("dynasql: deferred load property %q on %s is not settable", property, owner.Type())
	}

	rv := reflect.ValueOf(value)
	if targetType != nil && rv.IsValid() && rv.Type() != targetType {
		if !rv.Type().ConvertibleTo(targetType) {
			return &ExpressionError{Context: fmt.Sprintf("deferred load %q", property), Err: fmt.Errorf("cannot convert %s to %s", rv.Type(), targetType)}
		}
		rv = rv.Convert(targetType)
	}
	if !rv.IsValid() || !rv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("dynasql: deferred load value of type %v is not assignable to %s.%s (%s)", rv.Type(), owner.Type(), property, field.Type())
	}
	field.Set(rv)
	return nil
}

// deferLoad resolves or queues one nested-result assignment, per the
// Executor's query algorithm: if key is already materialized in the local
// cache the assignment happens immediately; otherwise it is queued and
// resolved the next time nesting depth returns to zero.
func (e *cachingExecutor) deferLoad(owner any, property string, key CacheKey, targetType reflect.Type) error {
	rv := reflect.ValueOf(owner)
	load := deferredLoad{key: key, owner: rv, property: property, targetType: targetType}

	if value, ok := e.cache.get(key); ok {
		return assignDeferredValue(rv, property, value, targetType)
	}
	e.deferred.enqueue(load)
	return nil
}
