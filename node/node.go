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

// Package node implements the dynamic SQL node tree: the building blocks
// (If, Choose/When/Otherwise, Trim/Where/Set, ForEach, Bind, Include, Text,
// SQL) that compose a mapped statement's raw body into concrete SQL text
// and an ordered parameter list against a runtime Binding Map.
package node

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/dynasql/dynasql/internal/reflectlite"
)

var (
	// paramRegex matches parameter placeholders in SQL queries using #{...} syntax.
	// Examples:
	//   - #{ID}         -> matches
	//   - #{user.name}  -> matches
	//   - #{  age  }    -> matches (whitespace is ignored)
	//   - #{}           -> doesn't match (requires identifier)
	paramRegex = regexp.MustCompile(`#{\s*(\w+(?:\.\w+)*)\s*}`)

	// formatRegexp matches string interpolation placeholders using ${...} syntax.
	// Unlike paramRegex, these are spliced directly into the SQL string and
	// never parameter-bound: callers must only use it with trusted identifiers.
	formatRegexp = regexp.MustCompile(`\${\s*(\w+(?:\.\w+)*)\s*}`)
)

// Node is the fundamental interface for every dynamic SQL building block.
//
// Apply evaluates the node against ctx: it may append SQL text
// (ctx.AppendSQL), bind a parameter (ctx.WriteParam), splice text
// (ctx.WriteText), or introduce a scoped binding (ctx.Bind). It returns
// whether it contributed any content; composite nodes (Group, Trim,
// Choose) use that boolean to decide separators and detect empty branches
// instead of inspecting the accumulated SQL string.
//
// Implementing types:
//   - SQLNode: complete statement bodies
//   - WhereNode, SetNode, TrimNode: clause assembly with prefix/suffix rules
//   - ConditionNode (If, When): conditional inclusion
//   - ChooseNode, OtherwiseNode: switch-like branching
//   - ForeachNode: collection iteration
//   - BindNode: named bind variables
//   - IncludeNode: cross-reference to a named SQL fragment
//   - TextNode: static text with #{...}/${...} tokens
type Node interface {
	Apply(ctx *Context) (contributed bool, err error)
}

// NodeGroup is an alias kept for field declarations (Nodes NodeGroup)
// throughout the package; it behaves exactly like Group.
type NodeGroup = Group

// Group wraps multiple Nodes and composes their output, inserting exactly
// one separating space between contributing siblings and dropping any that
// contributed nothing.
type Group []Node

// Apply implements Node.
func (g Group) Apply(ctx *Context) (contributed bool, err error) {
	switch len(g) {
	case 0:
		return false, nil
	case 1:
		return g[0].Apply(ctx)
	}

	segments := make([]string, 0, len(g))
	for _, n := range g {
		mark := ctx.Mark()
		ok, err := n.Apply(ctx)
		seg := ctx.Since(mark)
		ctx.Truncate(mark)
		if err != nil {
			return false, err
		}
		seg = strings.TrimSpace(seg)
		if !ok || seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return false, nil
	}
	ctx.AppendSQL(strings.Join(segments, " "))
	return true, nil
}

var _ Node = (Group)(nil)

// reflectValueToString converts a reflect.Value to its SQL-text-splice
// representation, used for ${...} substitution.
func reflectValueToString(v reflect.Value) string {
	v = reflectlite.Unwrap(v)
	if !v.IsValid() {
		return ""
	}
	switch t := v.Interface().(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(v.Bytes())
	case fmt.Stringer:
		return t.String()
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(v.Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprintf("%v", t)
	}
}
