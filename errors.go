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

package dynasql

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/dynasql/dynasql/sql"
)

var (
	// ErrEmptyQuery is an error that is returned when the query is empty.
	ErrEmptyQuery = errors.New("empty query")

	// ErrPointerRequired is an error that is returned when the destination is not a pointer.
	ErrPointerRequired = sql.ErrPointerRequired

	// ErrResultMapNotSet is an error that is returned when a Statement has no
	// ResultMap configured.
	ErrResultMapNotSet = sql.ErrResultMapNotSet

	// errSliceOrArrayRequired is an error that is returned when the destination is not a slice or array.
	errSliceOrArrayRequired = errors.New("type must be a slice or array")

	// ErrNoStatementFound is an error that is returned when the statement is not found.
	ErrNoStatementFound = errors.New("no statement found")

	// ErrExecutorClosed is returned by every cachingExecutor operation once
	// Close has been called. Commit and Rollback do not close the
	// Executor; only Close does, and Close is idempotent.
	ErrExecutorClosed = errors.New("dynasql: executor is closed")
)

// ExpressionError wraps a failure evaluating a dynamic expression or
// converting a dynamically-typed value against an expected Go type — the
// same family of failure the eval package's condition and parameter
// evaluation can raise, surfaced with enough context to name the field or
// expression involved.
type ExpressionError struct {
	// Context names the expression or field being evaluated.
	Context string
	Err     error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("dynasql: expression error in %s: %v", e.Context, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// BuildError wraps a failure composing a Statement's bound SQL (its Build
// call): node tree traversal, dynamic-tag evaluation, or placeholder
// translation all surface through here.
type BuildError struct {
	StatementID string
	Err         error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("dynasql: build statement %q: %v", e.StatementID, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// StatementError wraps a failure the database driver itself returned,
// carrying the statement ID and the exact SQL text that was sent so a
// reader does not have to re-derive it from the mapper.
type StatementError struct {
	StatementID string
	SQL         string
	Err         error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("dynasql: statement %q failed: %v\n\tsql: %s", e.StatementID, e.Err, e.SQL)
}

func (e *StatementError) Unwrap() error { return e.Err }

// TransactionError wraps a failure committing, rolling back, or beginning
// a transaction.
type TransactionError struct {
	Op  string // "begin", "commit", or "rollback"
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("dynasql: transaction %s failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// nodeUnclosedError is an error that is returned when the node is not closed.
type nodeUnclosedError struct {
	nodeName string
	_        struct{}
}

// Error returns the error message.
func (e *nodeUnclosedError) Error() string {
	return fmt.Sprintf("node %s is not closed", e.nodeName)
}

// nodeAttributeRequiredError is an error that is returned when the node requires an attribute.
type nodeAttributeRequiredError struct {
	nodeName string
	attrName string
}

// Error returns the error message.
func (e *nodeAttributeRequiredError) Error() string {
	return fmt.Sprintf("node %s requires attribute %s", e.nodeName, e.attrName)
}

// nodeAttributeConflictError is an error that is returned when the node has conflicting attributes.
type nodeAttributeConflictError struct {
	nodeName string
	attrName string
}

// Error returns the error message.
func (e *nodeAttributeConflictError) Error() string {
	return fmt.Sprintf("node %s has conflicting attribute %s", e.nodeName, e.attrName)
}

// XMLParseError reports a failure parsing a mapper or configuration XML
// document, carrying enough context (which namespace, which element) for a
// reader to find the offending tag without re-running the parser.
type XMLParseError struct {
	// Namespace is the mapper namespace being parsed, if known.
	Namespace string
	// XMLContent is the opening tag of the element that failed to parse.
	XMLContent string
	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *XMLParseError) Error() string {
	var b strings.Builder
	b.WriteString("XML parse error")
	if e.Namespace != "" {
		b.WriteString(fmt.Sprintf(": namespace '%s'", e.Namespace))
	}
	if e.XMLContent != "" {
		b.WriteString(fmt.Sprintf(", element %s", e.XMLContent))
	}
	if e.Err != nil {
		b.WriteString(fmt.Sprintf(": %s", e.Err.Error()))
	}
	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As.
func (e *XMLParseError) Unwrap() error {
	return e.Err
}

// buildXMLContent reconstructs the opening tag of token, e.g.
// <if test="id != null">, preserving attribute order.
func buildXMLContent(token xml.StartElement) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(token.Name.Local)
	for _, attr := range token.Attr {
		b.WriteByte(' ')
		b.WriteString(attr.Name.Local)
		b.WriteString(`="`)
		b.WriteString(attr.Value)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

// unreachable is a function that is used to mark unreachable code.
// nolint:deadcode,unused
func unreachable() error {
	panic("unreachable")
}
