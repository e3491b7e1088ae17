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

// TrimNode handles SQL fragment cleanup by managing prefixes, suffixes, and
// their overrides. WhereNode and SetNode are themselves special-cased Trim
// behavior; TrimNode exposes the general mechanism directly.
//
// Example:
//
//	Prefix: "WHERE ", PrefixOverrides: []string{"AND ", "OR "}
//	Input:  "AND id = ? AND name = ?"
//	Output: "WHERE id = ? AND name = ?"
type TrimNode struct {
	Nodes           NodeGroup
	Prefix          string
	PrefixOverrides []string
	Suffix          string
	SuffixOverrides []string
	BindNodes       BindNodeGroup
}

// Apply implements Node. The prefix and suffix are each separated from the
// trimmed body by exactly one space, regardless of whether Prefix/Suffix
// themselves end/start with whitespace.
func (t TrimNode) Apply(ctx *Context) (contributed bool, err error) {
	scoped := t.BindNodes.Scope(ctx)
	defer scoped.Close()

	mark := ctx.Mark()
	ok, err := t.Nodes.Apply(ctx)
	body := ctx.Since(mark)
	ctx.Truncate(mark)
	if err != nil {
		return false, err
	}
	body = strings.TrimSpace(body)
	if !ok || body == "" {
		return false, nil
	}

	for _, prefix := range t.PrefixOverrides {
		if strings.HasPrefix(body, prefix) {
			body = strings.TrimSpace(body[len(prefix):])
			break
		}
	}
	for _, suffix := range t.SuffixOverrides {
		if strings.HasSuffix(body, suffix) {
			body = strings.TrimSpace(body[:len(body)-len(suffix)])
			break
		}
	}

	b := getStringBuilder()
	defer putStringBuilder(b)
	b.Grow(len(t.Prefix) + 1 + len(body) + 1 + len(t.Suffix))
	if prefix := strings.TrimSpace(t.Prefix); prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(body)
	if suffix := strings.TrimSpace(t.Suffix); suffix != "" {
		b.WriteByte(' ')
		b.WriteString(suffix)
	}

	ctx.AppendSQL(b.String())
	return true, nil
}

var _ Node = (*TrimNode)(nil)
