/*
Copyright 2023 eatmoreapple

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
	"fmt"
	"reflect"

	"github.com/dynasql/dynasql/internal/reflectlite"
)

// selectKeyGenerator writes a database-generated key back onto the
// parameter a useGeneratedKeys insert was called with.
type selectKeyGenerator interface {
	// GenerateKeyTo assigns the generated key onto rv, the (already
	// unwrapped) parameter value the insert statement was built from.
	GenerateKeyTo(rv reflect.Value) error
}

// keyFieldOf finds the struct field tagged `column:"keyProperty"` on rv,
// which must be a struct or a pointer to one.
func keyFieldOf(rv reflect.Value, keyProperty string) (reflect.Value, error) {
	if keyProperty == "" {
		return reflect.Value{}, fmt.Errorf("dynasql: useGeneratedKeys is true, but keyProperty is not set")
	}
	field, ok := reflectlite.ValueFrom(rv).FindFieldFromTag(tagName, keyProperty)
	if !ok {
		return reflect.Value{}, fmt.Errorf("dynasql: keyProperty %q not found on %s", keyProperty, rv.Type())
	}
	if !field.CanSet() {
		return reflect.Value{}, fmt.Errorf("dynasql: keyProperty %q on %s is not settable", keyProperty, rv.Type())
	}
	return field.Value, nil
}

// setKeyValue assigns id into field, converting between the database's
// int64 and the field's actual integer kind.
func setKeyValue(field reflect.Value, id int64) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.SetUint(uint64(id))
	default:
		if !reflect.TypeOf(id).ConvertibleTo(field.Type()) {
			return fmt.Errorf("dynasql: cannot assign generated key of type int64 to field of type %s", field.Type())
		}
		field.Set(reflect.ValueOf(id).Convert(field.Type()))
	}
	return nil
}

// singleKeyGenerator assigns one generated id to a single struct parameter.
type singleKeyGenerator struct {
	keyProperty string
	id          int64
}

// GenerateKeyTo implements selectKeyGenerator.
func (g *singleKeyGenerator) GenerateKeyTo(rv reflect.Value) error {
	field, err := keyFieldOf(rv, g.keyProperty)
	if err != nil {
		return err
	}
	return setKeyValue(field, g.id)
}

// tagName mirrors sql.tagName (the "column" struct tag); keyProperty is
// resolved against it so a batch insert's generated keys land on the same
// field its rows were scanned into.
const tagName = "column"

// batchKeyGenerator assigns generated ids across a slice/array of struct
// parameters inserted in a single batch. id is the last row's generated id
// (per useGeneratedKeysMiddleware's rowsAffected adjustment); earlier rows'
// ids are derived from it and keyIncrement according to
// batchInsertIDGenerateStrategy.
type batchKeyGenerator struct {
	keyProperty                   string
	id                            int64
	keyIncrement                  int64
	batchInsertIDGenerateStrategy string
}

// GenerateKeyTo implements selectKeyGenerator.
func (g *batchKeyGenerator) GenerateKeyTo(rv reflect.Value) error {
	rv = reflectlite.Unwrap(rv)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("dynasql: batch key generation requires a slice or array, got %s", rv.Kind())
	}
	n := rv.Len()
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		elem := reflectlite.Unwrap(rv.Index(i))
		field, err := keyFieldOf(elem, g.keyProperty)
		if err != nil {
			return err
		}
		var id int64
		switch g.batchInsertIDGenerateStrategy {
		case "desc":
			// rows were inserted in reverse order: the first row in the
			// slice received the largest id.
			id = g.id - int64(i)*g.keyIncrement
		default:
			// "asc" (the default): the last row in the slice received id;
			// earlier rows received smaller, evenly-spaced ids.
			id = g.id - int64(n-1-i)*g.keyIncrement
		}
		if err := setKeyValue(field, id); err != nil {
			return err
		}
	}
	return nil
}
