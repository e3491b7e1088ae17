/*
Copyright 2024 eatmoreapple

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

// Package stmt provides helpers for inspecting *sql.Stmt values.
package stmt

import (
	"database/sql"
	"reflect"
	"unsafe"
)

// Query returns the SQL query text that was used to create the given
// *sql.Stmt. database/sql does not expose this publicly, so it is read
// via reflection from the unexported "query" field.
func Query(s *sql.Stmt) string {
	if s == nil {
		return ""
	}
	v := reflect.ValueOf(s).Elem()
	f := v.FieldByName("query")
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	return f.String()
}
