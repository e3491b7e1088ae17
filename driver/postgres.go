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

package driver

import "strconv"

// PostgresDriver speaks Postgres' "$1", "$2", ... positional placeholder
// style, via lib/pq.
type PostgresDriver struct{}

// Name implements Driver.
func (PostgresDriver) Name() string { return "postgres" }

// Translator implements Driver. Unlike MySQL/SQLite's stateless "?", each
// placeholder needs its ordinal, so every call returns a fresh counter
// scoped to the one statement composition it backs.
func (PostgresDriver) Translator() Translator {
	n := 0
	return TranslateFunc(func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

// Paginate implements Paginator. Postgres' placeholders are positional and
// sequential, so the injected LIMIT/OFFSET simply continue numbering from
// len(args), without needing the Translator instance that built args.
func (PostgresDriver) Paginate(query string, args []any, offset, limit int) (string, []any) {
	n := len(args)
	query += " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	return query, append(append([]any{}, args...), limit, offset)
}

var (
	_ Driver    = PostgresDriver{}
	_ Paginator = PostgresDriver{}
)
