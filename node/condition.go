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

import (
	"errors"

	"github.com/dynasql/dynasql/eval"
)

// ErrNilExpression is returned when a ConditionNode is applied before Parse
// has compiled its test expression.
var ErrNilExpression = errors.New("dynasql: nil expression")

// ConditionNode represents a conditional SQL fragment with its evaluation
// expression and child Nodes. It backs both If and When.
type ConditionNode struct {
	expr      eval.Expression
	Nodes     Group
	BindNodes BindNodeGroup
}

// Parse compiles the given expression string into an evaluable expression.
// The expression syntax supports:
//   - Comparison: ==, !=, >, <, >=, <=
//   - Logical: &&, ||, ! (also spelled and/or/not)
//   - Null checks: != nil, == nil
//   - Property access: user.age, order.status
func (c *ConditionNode) Parse(test string) (err error) {
	c.expr, err = eval.Compile(test)
	return err
}

// Apply implements Node.
func (c *ConditionNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := c.BindNodes.Scope(ctx)
	defer scoped.Close()

	matched, err := c.Match(ctx.Parameter())
	if err != nil {
		return false, err
	}
	if !matched {
		return false, nil
	}
	return c.Nodes.Apply(ctx)
}

// Match evaluates the compiled expression against p and converts the
// result to a boolean via reflect.Value.IsZero (so 0, "", nil, and false
// are all falsy, matching every other truthiness rule in the package).
func (c *ConditionNode) Match(p eval.Parameter) (bool, error) {
	if c.expr == nil {
		return false, ErrNilExpression
	}
	value, err := c.expr.Execute(p)
	if err != nil {
		return false, err
	}
	return !value.IsZero(), nil
}

var _ Node = (*ConditionNode)(nil)
