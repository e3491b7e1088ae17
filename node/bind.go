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

package node

import (
	"errors"

	"github.com/dynasql/dynasql/eval"
)

// ErrBindVariableNotFound is returned when a bind variable lookup fails.
var ErrBindVariableNotFound = errors.New("dynasql: bind variable not found")

// BindNode represents a named bind variable backed by a compiled
// expression, e.g. <bind name="pattern" value="'%' + name + '%'"/>.
type BindNode struct {
	Name string
	expr eval.Expression
}

// Parse compiles the given expression string and stores the result.
func (b *BindNode) Parse(expression string) (err error) {
	b.expr, err = eval.Compile(expression)
	return err
}

// Execute evaluates the compiled expression against p.
func (b *BindNode) Execute(p eval.Parameter) (any, error) {
	value, err := b.expr.Execute(p)
	if err != nil {
		return nil, err
	}
	if !value.IsValid() || !value.CanInterface() {
		return nil, nil
	}
	return value.Interface(), nil
}

// BindNodeGroup is an ordered set of named bind variables declared
// alongside a node's children, e.g. a <where> or <if> body.
type BindNodeGroup []*BindNode

// Scope evaluates every bind variable in the group against ctx's current
// parameter view and registers them in ctx's binding map for the lifetime
// of the returned scope. Bind variables never see each other: each is
// evaluated against ctx's unscoped parameter rather than a dependency
// chain, matching the teacher's flat bindScope namespace.
func (b BindNodeGroup) Scope(ctx *Context) *bindScope {
	if len(b) == 0 {
		return &bindScope{}
	}
	names := make([]string, 0, len(b))
	for _, bind := range b {
		value, err := bind.Execute(ctx.Parameter())
		if err != nil {
			continue
		}
		ctx.Bind(bind.Name, value)
		names = append(names, bind.Name)
	}
	return &bindScope{ctx: ctx, names: names}
}

// bindScope unwinds the bindings a BindNodeGroup introduced once the node
// that owns them finishes applying, so they don't leak into sibling
// subtrees that happen to reuse the same name.
type bindScope struct {
	ctx   *Context
	names []string
}

// Close removes every binding this scope introduced.
func (s *bindScope) Close() {
	if s.ctx == nil {
		return
	}
	for _, name := range s.names {
		s.ctx.Unbind(name)
	}
}
