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

import jsql "github.com/dynasql/dynasql/sql"

// Action is the action of a Statement: select, insert, update or delete.
type Action = jsql.Action

const (
	// Select is an Action for query
	Select = jsql.Select

	// Insert is an Action for insert
	Insert = jsql.Insert

	// Update is an Action for update
	Update = jsql.Update

	// Delete is an Action for delete
	Delete = jsql.Delete
)

// ResultMap is the strategy a Statement uses to map query rows onto a Go value.
type ResultMap = jsql.ResultMap
