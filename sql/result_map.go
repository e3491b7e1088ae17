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

package sql

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"time"
)

// tagName is the struct tag used to map a column name to a struct field.
const tagName = "column"

var (
	// scannerType is the reflect.Type of sql.Scanner.
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

	// timeType is the reflect.Type of time.Time.
	timeType = reflect.TypeOf(time.Time{})

	// rowScannerType is the reflect.Type of RowScanner.
	rowScannerType = reflect.TypeOf((*RowScanner)(nil)).Elem()
)

// sink is the scan destination for columns that have no matching struct field.
var sink any

// resultMapPreserveNilSlice controls whether MultiRowsResultMap leaves a nil
// slice destination nil when no rows are returned, instead of allocating an
// empty slice. It is read once from the environment at startup, but tests
// may override it directly.
var resultMapPreserveNilSlice = func() bool {
	return os.Getenv("DYNASQL_RESULT_MAP_PRESERVE_NIL_SLICE") == "true"
}()

// ResultMap maps the current rows of a query result to a destination value.
type ResultMap interface {
	// MapTo maps rows onto rv, which must be a pointer.
	MapTo(rv reflect.Value, rows Rows) error
}

// RowScanner lets a destination type take over its own row scanning,
// bypassing struct-tag based field mapping entirely.
type RowScanner interface {
	ScanRows(rows Rows) error
}

// isImplementsRowScanner reports whether rt implements RowScanner.
func isImplementsRowScanner(rt reflect.Type) bool {
	return rt != nil && rt.Implements(rowScannerType)
}

// SingleRowResultMap maps exactly one row onto the destination.
// It returns sql.ErrNoRows if the query produced no rows and ErrTooManyRows
// if it produced more than one.
type SingleRowResultMap struct{}

// MapTo implements ResultMap.
func (SingleRowResultMap) MapTo(rv reflect.Value, rows Rows) error {
	if rv.Kind() != reflect.Ptr {
		return ErrPointerRequired
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	dest := &rowDestination{}
	scanDest, err := dest.Destination(rv, columns)
	if err != nil {
		return err
	}

	if err := rows.Scan(scanDest...); err != nil {
		return err
	}

	if rows.Next() {
		return ErrTooManyRows
	}

	return rows.Err()
}

// MultiRowsResultMap maps every row of a query result onto a slice
// destination. New, if set, is used to allocate each element instead of
// reflect.New; it must return a pointer to the element type.
type MultiRowsResultMap struct {
	New func() reflect.Value
}

// MapTo implements ResultMap.
func (m MultiRowsResultMap) MapTo(rv reflect.Value, rows Rows) error {
	if rv.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to slice, got %s: %w", rv.Kind(), ErrPointerRequired)
	}
	sliceVal := rv.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("expected pointer to slice, got pointer to %s", sliceVal.Kind())
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	elemType := sliceVal.Type().Elem()
	isPtrElem := elemType.Kind() == reflect.Ptr
	baseType := elemType
	if isPtrElem {
		baseType = elemType.Elem()
	}

	pointerType := elemType
	if !isPtrElem {
		pointerType = reflect.PointerTo(elemType)
	}
	useRowScanner := isImplementsRowScanner(pointerType)

	dest := &rowDestination{}
	result := reflect.MakeSlice(sliceVal.Type(), 0, 0)

	for rows.Next() {
		var itemPtr reflect.Value
		if m.New != nil {
			itemPtr = m.New()
		} else {
			itemPtr = reflect.New(baseType)
		}

		if useRowScanner {
			scanner := itemPtr.Interface().(RowScanner)
			if err := scanner.ScanRows(rows); err != nil {
				return fmt.Errorf("failed to scan row using RowScanner: %w", err)
			}
		} else {
			scanDest, err := dest.Destination(itemPtr, columns)
			if err != nil {
				return err
			}
			if err := rows.Scan(scanDest...); err != nil {
				return err
			}
		}

		if isPtrElem {
			result = reflect.Append(result, itemPtr)
		} else {
			result = reflect.Append(result, itemPtr.Elem())
		}
	}

	if result.Len() == 0 && resultMapPreserveNilSlice {
		sliceVal.Set(reflect.Zero(sliceVal.Type()))
	} else {
		sliceVal.Set(result)
	}

	return rows.Err()
}

// rowDestination resolves the scan destinations for a row, caching the
// struct-field indexes matched against a set of columns so repeated rows of
// the same shape avoid re-walking the struct.
type rowDestination struct {
	indexes [][]int
	typ     reflect.Type
}

// Destination returns the scan destinations for columns against rv.
//
// rv may be a pointer to a scalar type, a pointer to time.Time, a pointer to
// a type implementing sql.Scanner, a pointer to a struct, or a struct value
// itself (as produced by recursing from the pointer case). Columns with no
// matching struct field scan into the shared sink.
func (d *rowDestination) Destination(rv reflect.Value, columns []string) ([]any, error) {
	if rv.Kind() == reflect.Ptr {
		elem := rv.Elem()
		if len(columns) == 1 && (elem.Type() == timeType || rv.Type().Implements(scannerType) || elem.Kind() != reflect.Struct) {
			return []any{rv.Interface()}, nil
		}
		if elem.Kind() != reflect.Struct {
			return nil, fmt.Errorf("expected struct, but got %s", elem.Kind())
		}
		return d.Destination(elem, columns)
	}

	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, but got %s", rv.Kind())
	}

	if d.indexes == nil || d.typ != rv.Type() {
		byColumn := fieldIndexesByColumn(rv.Type())
		indexes := make([][]int, len(columns))
		for i, column := range columns {
			indexes[i] = byColumn[column]
		}
		d.indexes = indexes
		d.typ = rv.Type()
	}

	dest := make([]any, len(columns))
	for i, idx := range d.indexes {
		if idx == nil {
			dest[i] = &sink
			continue
		}
		dest[i] = rv.FieldByIndex(idx).Addr().Interface()
	}
	return dest, nil
}

// fieldIndexesByColumn walks t's fields, recursing into anonymous struct
// fields to promote their tagged fields, and returns a map of column tag to
// field index path.
func fieldIndexesByColumn(t reflect.Type) map[string][]int {
	result := make(map[string][]int)

	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			idx := make([]int, len(prefix)+1)
			copy(idx, prefix)
			idx[len(prefix)] = i

			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				walk(field.Type, idx)
				continue
			}

			tag := field.Tag.Get(tagName)
			if tag == "" || tag == "-" {
				continue
			}
			if _, exists := result[tag]; !exists {
				result[tag] = idx
			}
		}
	}

	walk(t, nil)
	return result
}
