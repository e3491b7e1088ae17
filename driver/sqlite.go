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

// SQLiteDriver speaks SQLite's "?" positional placeholder style.
type SQLiteDriver struct{}

// Name implements Driver. driver/options registers modernc.org/sqlite
// under this alias so database/sql.Open("sqlite3", dsn) works.
func (SQLiteDriver) Name() string { return "sqlite3" }

// Translator implements Driver.
func (SQLiteDriver) Translator() Translator {
	return TranslateFunc(func(string) string { return "?" })
}

// Paginate implements Paginator by appending a "LIMIT ? OFFSET ?" clause.
func (SQLiteDriver) Paginate(query string, args []any, offset, limit int) (string, []any) {
	return query + " LIMIT ? OFFSET ?", append(append([]any{}, args...), limit, offset)
}

var (
	_ Driver    = SQLiteDriver{}
	_ Paginator = SQLiteDriver{}
)
