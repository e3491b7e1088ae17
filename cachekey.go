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
	"encoding/binary"
	"hash/fnv"
	"reflect"
	"strconv"
)

// RowBounds restricts a query's result window. Offset skips that many rows;
// Limit caps how many are returned. The zero value, NoRowBounds, means the
// statement's own SQL decides how many rows come back.
type RowBounds struct {
	Offset int
	Limit  int
}

// NoRowBounds is the zero-value RowBounds: no offset, no limit applied by
// the Executor.
var NoRowBounds = RowBounds{}

// nullComponent is absorbed in place of a nil value, so that a cache key
// built from a nil argument never collides with one built from the literal
// string "<nil>" or an absent component.
const nullComponent = "\x00nil\x00"

// CacheKey identifies one Executor query: the ordered tuple of statement
// ID, row bounds, composed SQL text, bound parameter values and
// environment ID. Two CacheKeys are equal exactly when every component in
// that tuple compares equal, in order; the hash is order-sensitive so
// swapping two parameter values never accidentally collides.
//
// CacheKey is a plain comparable struct so it can be used directly as a map
// key; the signature field is a canonical, unambiguous encoding of the
// absorbed components, built incrementally by update.
type CacheKey struct {
	hash      uint64
	signature string
}

// componentSep separates absorbed components in the signature. It is a
// control character that legitimate values are vanishingly unlikely to
// contain literally, and even if one did, the accompanying hash still
// distinguishes most accidental collisions.
const componentSep = "\x1f"

// newCacheKey returns the empty CacheKey, ready to have components folded
// into it via update.
func newCacheKey() CacheKey {
	h := fnv.New64a()
	return CacheKey{hash: h.Sum64()}
}

// update returns a new CacheKey with value folded into the running hash and
// appended to the signature. CacheKey is immutable: update never modifies
// its receiver, so a partially built key can be safely reused as the base
// for several different continuations.
func (k CacheKey) update(value any) CacheKey {
	return k.absorb(value)
}

// absorb folds one component into the key. Byte slices and other
// slice/array values are absorbed element-wise (prefixed with their
// length, so "[]int{1,2}" and "[]int{1},[]int{2}" cannot collide), nil is
// absorbed as the reserved null marker, and everything else is absorbed by
// its fmt-rendered, type-qualified text.
func (k CacheKey) absorb(value any) CacheKey {
	if value == nil {
		return k.absorbText(nullComponent)
	}
	if b, ok := value.([]byte); ok {
		k = k.absorbText("bytes:" + strconv.Itoa(len(b)))
		return k.absorbText(string(b))
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		k = k.absorbText("seq:" + strconv.Itoa(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			k = k.absorb(rv.Index(i).Interface())
		}
		return k
	default:
		return k.absorbText(rv.Type().String() + ":" + renderValue(rv))
	}
}

// renderValue stringifies a scalar reflect.Value without going through
// fmt, which would stringify error/Stringer arguments inconsistently for
// cache-key purposes.
func renderValue(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nullComponent
		}
		return renderValue(rv.Elem())
	default:
		return rv.String()
	}
}

// absorbText folds a single textual component into the running hash and
// signature.
func (k CacheKey) absorbText(s string) CacheKey {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], k.hash)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(s))
	k.hash = h.Sum64()
	if k.signature != "" {
		k.signature += componentSep
	}
	k.signature += s
	return k
}

// newQueryCacheKey builds the CacheKey for one query: statement ID, row
// bounds, composed SQL text, bound parameter values in order, and the
// active environment ID.
func newQueryCacheKey(statementID string, rowBounds RowBounds, query string, args []any, envID string) CacheKey {
	key := newCacheKey()
	key = key.update(statementID)
	key = key.update(rowBounds.Offset)
	key = key.update(rowBounds.Limit)
	key = key.update(query)
	for _, arg := range args {
		key = key.update(arg)
	}
	key = key.update(envID)
	return key
}
