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
	"fmt"
	"reflect"
)

// ForeachNode represents a dynamic SQL fragment that iterates over a
// collection, commonly used for IN clauses or batch inserts.
//
// Example XML:
//
//	<foreach collection="ids" item="id" separator="," open="(" close=")">
//	  #{id}
//	</foreach>
type ForeachNode struct {
	Collection string
	Nodes      []Node
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
	BindNodes  BindNodeGroup
}

// Apply implements Node.
func (f ForeachNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := f.BindNodes.Scope(ctx)
	defer scoped.Close()

	if _, exists := ctx.Parameter().Get(f.Item); exists {
		return false, fmt.Errorf("dynasql: foreach item %q already exists in scope", f.Item)
	}

	value, exists := ctx.Parameter().Get(f.Collection)
	if !exists {
		return false, fmt.Errorf("dynasql: foreach collection %q not found", f.Collection)
	}
	if !value.CanInterface() {
		return false, fmt.Errorf("dynasql: foreach collection %q cannot be iterated", f.Collection)
	}
	for value.Kind() == reflect.Interface {
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Array, reflect.Slice:
		return f.applySlice(ctx, value)
	case reflect.Map:
		return f.applyMap(ctx, value)
	default:
		return false, fmt.Errorf("dynasql: foreach collection %q is not a slice, array, or map", f.Collection)
	}
}

// iterate runs one iteration body: binds item/index under both their
// declared names and unique, collision-proof aliases
// (__frch_<item>_<n>, __frch_<index>_<n>), applies the child Nodes, then
// unbinds everything — so nested foreach loops reusing the same variable
// names never leak into each other.
func (f ForeachNode) iterate(ctx *Context, item, index any) error {
	n := ctx.NextUniqueNumber()

	uniqueItem := fmt.Sprintf("__frch_%s_%d", f.Item, n)
	ctx.Bind(f.Item, item)
	ctx.Bind(uniqueItem, item)
	defer ctx.Unbind(f.Item)
	defer ctx.Unbind(uniqueItem)

	if f.Index != "" {
		uniqueIndex := fmt.Sprintf("__frch_%s_%d", f.Index, n)
		ctx.Bind(f.Index, index)
		ctx.Bind(uniqueIndex, index)
		defer ctx.Unbind(f.Index)
		defer ctx.Unbind(uniqueIndex)
	}

	for _, child := range f.Nodes {
		if _, err := child.Apply(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f ForeachNode) applySlice(ctx *Context, value reflect.Value) (contributed bool, err error) {
	length := value.Len()
	if length == 0 {
		return false, nil
	}

	ctx.AppendSQL(f.Open)
	for i := 0; i < length; i++ {
		if i > 0 {
			ctx.AppendSQL(f.Separator)
		}
		item := value.Index(i).Interface()
		if err := f.iterate(ctx, item, i); err != nil {
			return false, err
		}
	}
	ctx.AppendSQL(f.Close)
	return true, nil
}

func (f ForeachNode) applyMap(ctx *Context, value reflect.Value) (contributed bool, err error) {
	keys := value.MapKeys()
	if len(keys) == 0 {
		return false, nil
	}

	ctx.AppendSQL(f.Open)
	for i, key := range keys {
		if i > 0 {
			ctx.AppendSQL(f.Separator)
		}
		item := value.MapIndex(key).Interface()
		if err := f.iterate(ctx, item, key.Interface()); err != nil {
			return false, err
		}
	}
	ctx.AppendSQL(f.Close)
	return true, nil
}

var _ Node = (*ForeachNode)(nil)
