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
	"bytes"
	"fmt"
	"reflect"

	"github.com/dynasql/dynasql/driver"
	"github.com/dynasql/dynasql/eval"
)

// ParamMode describes how a bound parameter participates in a call.
type ParamMode int

const (
	// ParamIn is a regular input parameter (the common case, #{name}).
	ParamIn ParamMode = iota
	// ParamOut is a stored-procedure OUT parameter.
	ParamOut
	// ParamInOut is a stored-procedure INOUT parameter.
	ParamInOut
)

// ParamDescriptor carries one bound parameter in the order it was
// encountered during composition, along with enough metadata for callable
// statement support and type-handler dispatch.
type ParamDescriptor struct {
	Name     string
	Value    any
	Mode     ParamMode
	DBType   string
	Nullable bool
}

// BoundSQL is the result of composing a node tree against a Binding Map:
// finished SQL text plus its ordered parameters.
type BoundSQL struct {
	SQL              string
	Params           []ParamDescriptor
	AdditionalParams map[string]any
}

// contextState is the mutable accumulator shared by every Context derived
// from the same composition, including the per-iteration contexts created
// by ForeachNode. Sharing state (rather than the Parameter view) is what
// lets a child iteration's bound variables disappear once it finishes while
// the SQL/params it wrote remain.
type contextState struct {
	builder   bytes.Buffer
	params    []ParamDescriptor
	bindings  map[string]any
	uniqueSeq int
}

// Context is the Dynamic Context accumulator threaded through Node.Apply.
// It is deliberately small: nodes never reach past it into sibling state,
// and the only way to change the parameter view for a subtree (ForeachNode,
// BindNode) is WithParameter, which clones the Context but keeps the same
// underlying contextState.
type Context struct {
	translator driver.Translator
	parameter  eval.Parameter
	state      *contextState
}

// NewContext starts a fresh composition against the given translator and
// top-level parameter.
func NewContext(translator driver.Translator, parameter eval.Parameter) *Context {
	return &Context{
		translator: translator,
		parameter:  parameter,
		state:      &contextState{},
	}
}

// WithParameter returns a Context that shares this one's accumulator but
// resolves #{...}/${...} lookups against a different Parameter. Used by
// ForeachNode to scope per-iteration item/index bindings and by BindNode to
// layer in a named bind variable.
func (c *Context) WithParameter(p eval.Parameter) *Context {
	return &Context{translator: c.translator, parameter: p, state: c.state}
}

// Parameter returns the Context's current parameter view.
func (c *Context) Parameter() eval.Parameter {
	return c.parameter
}

// Translator returns the dialect translator in use for this composition.
func (c *Context) Translator() driver.Translator {
	return c.translator
}

// AppendSQL appends raw SQL text to the accumulator.
func (c *Context) AppendSQL(s string) {
	c.state.builder.WriteString(s)
}

// Mark returns a position in the accumulated SQL that can later be passed
// to Since or Truncate. It lets a composite node (Trim, Where, Set, Choose)
// isolate exactly what its children wrote without maintaining a private
// builder.
func (c *Context) Mark() int {
	return c.state.builder.Len()
}

// Since returns everything appended after mark.
func (c *Context) Since(mark int) string {
	b := c.state.builder.Bytes()
	if mark > len(b) {
		return ""
	}
	return string(b[mark:])
}

// Truncate discards everything appended after mark. Composite nodes use it
// to roll back a child's raw output once they have captured it via Since,
// so they can re-append a post-processed version (with prefixes stripped,
// added, and so on).
func (c *Context) Truncate(mark int) {
	b := c.state.builder.Bytes()
	if mark > len(b) {
		mark = len(b)
	}
	c.state.builder.Truncate(mark)
}

// SQL returns the fully composed SQL text so far.
func (c *Context) SQL() string {
	return c.state.builder.String()
}

// Bind records a named binding (e.g. a ForeachNode item/index value or a
// BindNode result) that participates in the Binding Map for the rest of
// this composition's lifetime, or until the node that created it finishes.
func (c *Context) Bind(name string, value any) {
	if c.state.bindings == nil {
		c.state.bindings = make(map[string]any)
	}
	c.state.bindings[name] = value
}

// Unbind removes a previously bound name. ForeachNode uses it to keep
// bindings scoped to the current iteration.
func (c *Context) Unbind(name string) {
	delete(c.state.bindings, name)
}

// Bindings returns the current binding map. The returned map must not be
// mutated by callers; use Bind/Unbind instead.
func (c *Context) Bindings() map[string]any {
	return c.state.bindings
}

// NextUniqueNumber returns a monotonically increasing number, used to
// uniquify generated placeholder names (e.g. __frch_item_0, __frch_item_1)
// across iterations of the same ForeachNode so that repeated #{item}
// references inside one iteration don't collide with another's.
func (c *Context) NextUniqueNumber() int {
	n := c.state.uniqueSeq
	c.state.uniqueSeq++
	return n
}

// Params returns the ordered parameters bound so far.
func (c *Context) Params() []ParamDescriptor {
	return c.state.params
}

// AdditionalParams exposes the binding map in the shape BoundSQL carries it.
func (c *Context) AdditionalParams() map[string]any {
	if len(c.state.bindings) == 0 {
		return nil
	}
	cp := make(map[string]any, len(c.state.bindings))
	for k, v := range c.state.bindings {
		cp[k] = v
	}
	return cp
}

// BoundSQL snapshots the accumulator into a finished result.
func (c *Context) BoundSQL() BoundSQL {
	return BoundSQL{SQL: c.SQL(), Params: c.Params(), AdditionalParams: c.AdditionalParams()}
}

// resolve looks up name first in the binding map (so a ForeachNode item
// shadows an outer parameter of the same name) and falls back to the
// Parameter view.
func (c *Context) resolve(name string) (reflect.Value, bool) {
	if c.state.bindings != nil {
		if v, ok := c.state.bindings[name]; ok {
			return reflect.ValueOf(v), true
		}
	}
	return c.parameter.Get(name)
}

// WriteParam evaluates name (#{name}), appends the dialect's placeholder
// marker to the SQL text and records the bound value as a parameter.
func (c *Context) WriteParam(name string) error {
	value, ok := c.resolve(name)
	if !ok {
		return fmt.Errorf("dynasql: parameter %q not found", name)
	}
	c.AppendSQL(c.translator.Translate(name))
	var iface any
	if value.IsValid() && value.CanInterface() {
		iface = value.Interface()
	}
	c.state.params = append(c.state.params, ParamDescriptor{Name: name, Value: iface, Mode: ParamIn})
	return nil
}

// WriteText evaluates name (${name}) and splices its textual form directly
// into the SQL, bypassing parameter binding. Callers are responsible for
// using this only with trusted/validated identifiers.
func (c *Context) WriteText(name string) error {
	value, ok := c.resolve(name)
	if !ok {
		return fmt.Errorf("dynasql: parameter %q not found", name)
	}
	c.AppendSQL(reflectValueToString(value))
	return nil
}
