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

// ChooseNode implements a switch-like conditional structure for SQL
// generation: it evaluates each When in order and applies the first one
// that contributes content, falling back to Otherwise if none do.
type ChooseNode struct {
	WhenNodes     []Node
	OtherwiseNode Node
	BindNodes     BindNodeGroup
}

// Apply implements Node.
func (c ChooseNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := c.BindNodes.Scope(ctx)
	defer scoped.Close()

	for _, when := range c.WhenNodes {
		mark := ctx.Mark()
		ok, err := when.Apply(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		// a When that matched but produced only whitespace, or didn't
		// match at all, must not leave partial output behind.
		ctx.Truncate(mark)
	}

	if c.OtherwiseNode != nil {
		return c.OtherwiseNode.Apply(ctx)
	}
	return false, nil
}

var _ Node = (*ChooseNode)(nil)
