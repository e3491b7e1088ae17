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

// Package driver provides the dialect abstraction needed to turn a
// composed node tree into SQL text a particular database understands:
// parameter placeholder style (?, $1, :name) and the name reported to the
// rest of the package for logging and _databaseId parameter injection.
package driver

import (
	"fmt"
	"sync"
)

// Translator turns a named parameter (the identifier inside #{...}) into
// the placeholder text written into the SQL string. Implementations that
// need a positional counter (e.g. Postgres' $1, $2, ...) must be stateful
// per Translator instance; Driver.Translator returns a fresh instance for
// every composition so counters never leak across statements.
type Translator interface {
	Translate(name string) string
}

// TranslateFunc adapts a function to a Translator.
type TranslateFunc func(name string) string

// Translate implements Translator.
func (f TranslateFunc) Translate(name string) string {
	return f(name)
}

// Driver describes a SQL dialect: its registered database/sql driver name
// and the placeholder Translator it composes statements with.
type Driver interface {
	// Name returns the name this driver is registered under, and the value
	// injected as the _databaseId parameter.
	Name() string

	// Translator returns a new Translator for one statement composition.
	Translator() Translator
}

// Paginator rewrites a composed query to return only a window of its
// rows, appending whatever LIMIT/OFFSET syntax (and placeholder args) its
// dialect requires. Not every Driver implements it; callers should type-
// assert and fall back to the statement's own SQL when absent.
type Paginator interface {
	Paginate(query string, args []any, offset, limit int) (string, []any)
}

var (
	mu       sync.RWMutex
	registry = map[string]Driver{
		"mysql":    MySQLDriver{},
		"postgres": PostgresDriver{},
		"sqlite3":  SQLiteDriver{},
	}
)

// Register makes a Driver available under name for later lookup via Get.
// It overwrites any previously registered driver with the same name.
func Register(name string, d Driver) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = d
}

// Get returns the Driver registered under name.
func Get(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("dynasql: driver %q is not registered", name)
	}
	return d, nil
}
