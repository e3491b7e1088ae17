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

// OtherwiseNode represents the default branch in a <choose> statement,
// applied when none of the When branches contribute content.
type OtherwiseNode struct {
	Nodes     Group
	BindNodes BindNodeGroup
}

// Apply implements Node.
func (o OtherwiseNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := o.BindNodes.Scope(ctx)
	defer scoped.Close()

	return o.Nodes.Apply(ctx)
}

var _ Node = (*OtherwiseNode)(nil)
