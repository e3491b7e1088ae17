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

import "sort"

// pureTextNode is static text with no #{...}/${...} tokens. It is kept
// separate from TextNode to avoid token-scanning overhead on SQL that
// never needs it.
type pureTextNode string

// Apply implements Node.
func (p pureTextNode) Apply(ctx *Context) (contributed bool, err error) {
	if p == "" {
		return false, nil
	}
	ctx.AppendSQL(string(p))
	return true, nil
}

var _ Node = pureTextNode("")

// TextNode is static text containing one or more #{...} parameter
// placeholders or ${...} text-substitution tokens.
type TextNode struct {
	value  string
	tokens []textToken
}

type textToken struct {
	match    string
	name     string
	isFormat bool // true for ${...}, false for #{...}
	index    int
}

// Apply implements Node. Substitution happens in a single left-to-right
// pass over value; the output of one token is never re-scanned for
// further tokens.
func (c *TextNode) Apply(ctx *Context) (contributed bool, err error) {
	if len(c.tokens) == 0 {
		if c.value == "" {
			return false, nil
		}
		ctx.AppendSQL(c.value)
		return true, nil
	}

	lastIndex := 0
	for _, t := range c.tokens {
		ctx.AppendSQL(c.value[lastIndex:t.index])
		if t.isFormat {
			if err := ctx.WriteText(t.name); err != nil {
				return false, err
			}
		} else {
			if err := ctx.WriteParam(t.name); err != nil {
				return false, err
			}
		}
		lastIndex = t.index + len(t.match)
	}
	ctx.AppendSQL(c.value[lastIndex:])
	return true, nil
}

// NewTextNode creates a new text node from str, returning a lightweight
// pureTextNode when it has no placeholders/substitutions.
func NewTextNode(str string) Node {
	placeholder := paramRegex.FindAllStringSubmatchIndex(str, -1)
	textSubstitution := formatRegexp.FindAllStringSubmatchIndex(str, -1)

	if len(placeholder) == 0 && len(textSubstitution) == 0 {
		return pureTextNode(str)
	}

	tokens := make([]textToken, 0, len(placeholder)+len(textSubstitution))
	for _, p := range placeholder {
		tokens = append(tokens, textToken{
			match: str[p[0]:p[1]],
			name:  str[p[2]:p[3]],
			index: p[0],
		})
	}
	for _, s := range textSubstitution {
		tokens = append(tokens, textToken{
			match:    str[s[0]:s[1]],
			name:     str[s[2]:s[3]],
			isFormat: true,
			index:    s[0],
		})
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].index < tokens[j].index
	})

	return &TextNode{value: str, tokens: tokens}
}

var _ Node = (*TextNode)(nil)
