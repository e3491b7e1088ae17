/*
Copyright 2023-2025 eatmoreapple

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
	"github.com/dynasql/dynasql/driver"
	"github.com/dynasql/dynasql/eval"
)

// accept composes n against a fresh Context, mirroring the query/args
// signature the node tests were originally written against.
func accept(n Node, translator driver.Translator, p eval.Parameter) (query string, args []any, err error) {
	ctx := NewContext(translator, p)
	if _, err = n.Apply(ctx); err != nil {
		return "", nil, err
	}
	params := ctx.Params()
	if len(params) > 0 {
		args = make([]any, len(params))
		for i, pd := range params {
			args[i] = pd.Value
		}
	}
	return ctx.SQL(), args, nil
}
