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

// SetNode represents a SQL SET clause for UPDATE statements. It manages a
// group of assignment expressions and automatically handles the comma
// separators and SET prefix.
//
// Example results:
//
//	Case 1 (name and age set):   UPDATE users SET name = ?, age = ? WHERE id = ?
//	Case 2 (only status set):    UPDATE users SET status = ? WHERE id = ?
type SetNode struct {
	Nodes     Group
	BindNodes BindNodeGroup
}

// Apply implements Node.
func (s SetNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := s.BindNodes.Scope(ctx)
	defer scoped.Close()

	mark := ctx.Mark()
	ok, err := s.Nodes.Apply(ctx)
	body := ctx.Since(mark)
	ctx.Truncate(mark)
	if err != nil {
		return false, err
	}
	if !ok || strings.TrimSpace(body) == "" {
		return false, nil
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, ",")
	body = strings.TrimSpace(body)
	if body == "" {
		return false, nil
	}

	if !strings.HasPrefix(body, "SET ") && !strings.HasPrefix(body, "set ") {
		body = "SET " + body
	}
	ctx.AppendSQL(body)
	return true, nil
}

var _ Node = (*SetNode)(nil)
