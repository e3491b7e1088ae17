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

package node

import "strings"

// WhereNode represents a SQL WHERE clause and its conditions. It manages a
// group of condition Nodes that form the complete WHERE clause.
type WhereNode struct {
	Nodes     NodeGroup
	BindNodes BindNodeGroup
}

// Apply implements Node. It handles several special cases:
//  1. Removes a leading "AND"/"OR" from the assembled body.
//  2. Prepends "WHERE " if not already present.
//  3. Contributes nothing if the body is empty.
func (w WhereNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := w.BindNodes.Scope(ctx)
	defer scoped.Close()

	mark := ctx.Mark()
	ok, err := w.Nodes.Apply(ctx)
	body := ctx.Since(mark)
	ctx.Truncate(mark)
	if err != nil {
		return false, err
	}
	if !ok || strings.TrimSpace(body) == "" {
		return false, nil
	}

	body = strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(body, "AND "):
		body = body[4:]
	case strings.HasPrefix(body, "and "):
		body = body[4:]
	case strings.HasPrefix(body, "OR "):
		body = body[3:]
	case strings.HasPrefix(body, "or "):
		body = body[3:]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return false, nil
	}

	if !strings.HasPrefix(body, "WHERE ") && !strings.HasPrefix(body, "where ") {
		body = "WHERE " + body
	}
	ctx.AppendSQL(body)
	return true, nil
}

var _ Node = (*WhereNode)(nil)
