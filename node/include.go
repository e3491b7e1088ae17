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

// nodeManager resolves a named SQL fragment, possibly across mapper
// namespaces. Mapper implements this.
type nodeManager interface {
	GetSQLNodeByID(id string) (Node, error)
}

// IncludeNode represents a reference to another named SQL fragment,
// enabling SQL reuse across statements and mappers.
//
// Example XML:
//
//	<sql id="userFields">id, name, age, status</sql>
//	<select id="getUsers">
//	  SELECT <include refid="userFields"/> FROM users
//	</select>
type IncludeNode struct {
	sqlNode Node
	manager nodeManager
	refId   string
}

// Apply implements Node. Resolution is lazy and memoized: the first Apply
// call resolves refId through the manager, subsequent calls reuse it.
func (i *IncludeNode) Apply(ctx *Context) (contributed bool, err error) {
	if i.sqlNode == nil {
		sqlNode, err := i.manager.GetSQLNodeByID(i.refId)
		if err != nil {
			return false, err
		}
		i.sqlNode = sqlNode
	}
	return i.sqlNode.Apply(ctx)
}

// NewIncludeNode creates an IncludeNode referencing refId, resolved lazily
// through manager.
func NewIncludeNode(sqlNode Node, manager nodeManager, refId string) *IncludeNode {
	return &IncludeNode{sqlNode: sqlNode, manager: manager, refId: refId}
}

var _ Node = (*IncludeNode)(nil)
