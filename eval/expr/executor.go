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

// Package expr evaluates the binary and unary operators that appear in
// compiled test expressions, dispatching on the reflect.Kind of the
// operands rather than their static Go type.
package expr

import (
	"errors"
	"fmt"
	"go/token"
	"math"
	"reflect"
)

// OperatorExpr identifies a binary operator independent of the go/token
// representation used to parse it.
type OperatorExpr int

const (
	Add OperatorExpr = iota
	Sub
	Mul
	Quo
	Rem
	And
	Land
	Or
	Lor
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

// String returns the symbol of the operator, or "" for an unrecognized one.
func (o OperatorExpr) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Quo:
		return "/"
	case Rem:
		return "%"
	case And:
		return "&"
	case Land:
		return "&&"
	case Or:
		return "|"
	case Lor:
		return "||"
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return ""
	}
}

// OperationError reports an operator applied to operands it does not support.
type OperationError struct {
	Left, Right reflect.Value
	Op          string
}

func (e *OperationError) Error() string {
	leftType := "<invalid>"
	if e.Left.IsValid() {
		leftType = e.Left.Type().String()
	}
	rightType := "<invalid>"
	if e.Right.IsValid() {
		rightType = e.Right.Type().String()
	}
	return fmt.Sprintf("invalid operation %s (mismatched types %s and %s)", e.Op, leftType, rightType)
}

// NewOperationError builds an OperationError for left op right.
func NewOperationError(left, right reflect.Value, op string) error {
	return &OperationError{Left: left, Right: right, Op: op}
}

// Operator applies an OperatorExpr to a pair of operands of a specific kind.
type Operator interface {
	Operate(left, right reflect.Value) (reflect.Value, error)
}

// IntOperator operates on signed integer kinds.
type IntOperator struct{ OperatorExpr }

func (o IntOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.Int(), right.Int()
	switch o.OperatorExpr {
	case Add:
		return reflect.ValueOf(l + r), nil
	case Sub:
		return reflect.ValueOf(l - r), nil
	case Mul:
		return reflect.ValueOf(l * r), nil
	case Quo:
		return reflect.ValueOf(l / r), nil
	case Rem:
		return reflect.ValueOf(l % r), nil
	case And:
		return reflect.ValueOf(l & r), nil
	case Land:
		return reflect.ValueOf(l != 0 && r != 0), nil
	case Or:
		return reflect.ValueOf(l | r), nil
	case Lor:
		return reflect.ValueOf(l != 0 || r != 0), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	case Lt:
		return reflect.ValueOf(l < r), nil
	case Le:
		return reflect.ValueOf(l <= r), nil
	case Gt:
		return reflect.ValueOf(l > r), nil
	case Ge:
		return reflect.ValueOf(l >= r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// UintOperator operates on unsigned integer kinds.
type UintOperator struct{ OperatorExpr }

func (o UintOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.Uint(), right.Uint()
	switch o.OperatorExpr {
	case Add:
		return reflect.ValueOf(l + r), nil
	case Sub:
		return reflect.ValueOf(l - r), nil
	case Mul:
		return reflect.ValueOf(l * r), nil
	case Quo:
		return reflect.ValueOf(l / r), nil
	case Rem:
		return reflect.ValueOf(l % r), nil
	case And:
		return reflect.ValueOf(l & r), nil
	case Land:
		return reflect.ValueOf(l != 0 && r != 0), nil
	case Or:
		return reflect.ValueOf(l | r), nil
	case Lor:
		return reflect.ValueOf(l != 0 || r != 0), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	case Lt:
		return reflect.ValueOf(l < r), nil
	case Le:
		return reflect.ValueOf(l <= r), nil
	case Gt:
		return reflect.ValueOf(l > r), nil
	case Ge:
		return reflect.ValueOf(l >= r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// FloatOperator operates on floating-point kinds.
type FloatOperator struct{ OperatorExpr }

func (o FloatOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.Float(), right.Float()
	switch o.OperatorExpr {
	case Add:
		return reflect.ValueOf(l + r), nil
	case Sub:
		return reflect.ValueOf(l - r), nil
	case Mul:
		return reflect.ValueOf(l * r), nil
	case Quo:
		return reflect.ValueOf(l / r), nil
	case Rem:
		return reflect.ValueOf(math.Mod(l, r)), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	case Lt:
		return reflect.ValueOf(l < r), nil
	case Le:
		return reflect.ValueOf(l <= r), nil
	case Gt:
		return reflect.ValueOf(l > r), nil
	case Ge:
		return reflect.ValueOf(l >= r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// StringOperator operates on the string kind. Add concatenates; the
// bitwise and logical operators are not defined for strings.
type StringOperator struct{ OperatorExpr }

func (o StringOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.String(), right.String()
	switch o.OperatorExpr {
	case Add:
		return reflect.ValueOf(l + r), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	case Lt:
		return reflect.ValueOf(l < r), nil
	case Le:
		return reflect.ValueOf(l <= r), nil
	case Gt:
		return reflect.ValueOf(l > r), nil
	case Ge:
		return reflect.ValueOf(l >= r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// BoolOperator operates on the bool kind.
type BoolOperator struct{ OperatorExpr }

func (o BoolOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.Bool(), right.Bool()
	switch o.OperatorExpr {
	case And, Land:
		return reflect.ValueOf(l && r), nil
	case Or, Lor:
		return reflect.ValueOf(l || r), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// ComplexOperator operates on the complex64/complex128 kinds. Complex
// numbers have no ordering, so Lt/Le/Gt/Ge are unsupported.
type ComplexOperator struct{ OperatorExpr }

func (o ComplexOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := left.Complex(), right.Complex()
	switch o.OperatorExpr {
	case Add:
		return reflect.ValueOf(l + r), nil
	case Sub:
		return reflect.ValueOf(l - r), nil
	case Mul:
		return reflect.ValueOf(l * r), nil
	case Quo:
		return reflect.ValueOf(l / r), nil
	case Eq:
		return reflect.ValueOf(l == r), nil
	case Ne:
		return reflect.ValueOf(l != r), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// InvalidTypeOperator operates on a pair of operands where at least one is
// the zero reflect.Value, e.g. a nil map lookup. Only equality is defined:
// two invalid values are considered equal to each other.
type InvalidTypeOperator struct{ OperatorExpr }

func (o InvalidTypeOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	leftNil, rightNil := !left.IsValid(), !right.IsValid()
	switch o.OperatorExpr {
	case Eq:
		return reflect.ValueOf(leftNil == rightNil), nil
	case Ne:
		return reflect.ValueOf(leftNil != rightNil), nil
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

// GenericOperator dispatches to the Operator matching the reflect.Kind of
// its operands. Operands of differing kinds (other than both being
// invalid) are always a mismatched-type error.
type GenericOperator struct{ OperatorExpr }

func (o GenericOperator) Operate(left, right reflect.Value) (reflect.Value, error) {
	l, r := unwrapInterface(left), unwrapInterface(right)

	if !l.IsValid() || !r.IsValid() {
		return InvalidTypeOperator{o.OperatorExpr}.Operate(l, r)
	}

	lk, rk := l.Kind(), r.Kind()
	if lk != rk {
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}

	switch lk {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntOperator{o.OperatorExpr}.Operate(l, r)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return UintOperator{o.OperatorExpr}.Operate(l, r)
	case reflect.Float32, reflect.Float64:
		return FloatOperator{o.OperatorExpr}.Operate(l, r)
	case reflect.String:
		return StringOperator{o.OperatorExpr}.Operate(l, r)
	case reflect.Bool:
		return BoolOperator{o.OperatorExpr}.Operate(l, r)
	case reflect.Complex64, reflect.Complex128:
		return ComplexOperator{o.OperatorExpr}.Operate(l, r)
	default:
		return reflect.Value{}, NewOperationError(left, right, o.OperatorExpr.String())
	}
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

// ExprFunc lazily produces one side of a binary expression. Lazy
// evaluation lets short-circuiting executors (LAND, LOR) skip evaluating
// the side effects of an operand they never need.
type ExprFunc func() (reflect.Value, error)

// ExprExecutor evaluates a binary (or, for NOT/LPAREN/RPAREN/COMMENT,
// pseudo-binary) expression given lazy producers for its operands.
type ExprExecutor interface {
	Exec(x, y ExprFunc) (reflect.Value, error)
}

// OperatorExecutor adapts an Operator, which compares already-evaluated
// values, to the ExprExecutor interface, which evaluates both sides first.
type OperatorExecutor struct {
	Operator Operator
}

func (e OperatorExecutor) Exec(x, y ExprFunc) (reflect.Value, error) {
	left, err := x()
	if err != nil {
		return reflect.Value{}, err
	}
	right, err := y()
	if err != nil {
		return reflect.Value{}, err
	}
	return e.Operator.Operate(left, right)
}

// LANDExprExecutor implements short-circuiting &&: y is never evaluated
// when x is false.
type LANDExprExecutor struct{}

func (LANDExprExecutor) Exec(x, y ExprFunc) (reflect.Value, error) {
	lv, err := x()
	if err != nil {
		return reflect.Value{}, err
	}
	if lv.Kind() != reflect.Bool {
		return reflect.Value{}, NewOperationError(lv, lv, Land.String())
	}
	if !lv.Bool() {
		return lv, nil
	}
	rv, err := y()
	if err != nil {
		return reflect.Value{}, err
	}
	if rv.Kind() != reflect.Bool {
		return reflect.Value{}, NewOperationError(rv, rv, Land.String())
	}
	return reflect.ValueOf(lv.Bool() && rv.Bool()), nil
}

// LORExprExecutor implements short-circuiting ||: y is never evaluated
// when x is true.
type LORExprExecutor struct{}

func (LORExprExecutor) Exec(x, y ExprFunc) (reflect.Value, error) {
	lv, err := x()
	if err != nil {
		return reflect.Value{}, err
	}
	if lv.Kind() != reflect.Bool {
		return reflect.Value{}, NewOperationError(lv, lv, Lor.String())
	}
	if lv.Bool() {
		return lv, nil
	}
	rv, err := y()
	if err != nil {
		return reflect.Value{}, err
	}
	if rv.Kind() != reflect.Bool {
		return reflect.Value{}, NewOperationError(rv, rv, Lor.String())
	}
	return reflect.ValueOf(lv.Bool() || rv.Bool()), nil
}

// ANDExprExecutor implements the non-short-circuiting & operator.
type ANDExprExecutor struct{}

func (ANDExprExecutor) Exec(x, y ExprFunc) (reflect.Value, error) {
	return OperatorExecutor{Operator: GenericOperator{And}}.Exec(x, y)
}

// ORExprExecutor implements the non-short-circuiting | operator.
type ORExprExecutor struct{}

func (ORExprExecutor) Exec(x, y ExprFunc) (reflect.Value, error) {
	return OperatorExecutor{Operator: GenericOperator{Or}}.Exec(x, y)
}

// NOTExprExecutor implements unary negation. x is unused; the operand is
// always passed as y to match how the parser feeds unary nodes through
// the same binary-shaped executor pipeline.
type NOTExprExecutor struct{}

func (NOTExprExecutor) Exec(_, y ExprFunc) (reflect.Value, error) {
	if y == nil {
		return reflect.Value{}, errors.New("expr: not expects an operand")
	}
	v, err := y()
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Kind() != reflect.Bool {
		return reflect.Value{}, NewOperationError(v, v, "!")
	}
	return reflect.ValueOf(!v.Bool()), nil
}

// LPARENExprExecutor passes through the value enclosed in parentheses.
type LPARENExprExecutor struct{}

func (LPARENExprExecutor) Exec(_, y ExprFunc) (reflect.Value, error) {
	if y == nil {
		return reflect.Value{}, nil
	}
	return y()
}

// RPARENExprExecutor passes through the value preceding the closing
// parenthesis.
type RPARENExprExecutor struct{}

func (RPARENExprExecutor) Exec(x, _ ExprFunc) (reflect.Value, error) {
	if x == nil {
		return reflect.Value{}, nil
	}
	return x()
}

// COMMENTExprExecutor is a no-op: a comment token contributes nothing to
// the expression's value.
type COMMENTExprExecutor struct{}

func (COMMENTExprExecutor) Exec(_, _ ExprFunc) (reflect.Value, error) {
	return reflect.ValueOf(true), nil
}

// ErrUnsupportedBinaryExpr is returned by FromToken for a token with no
// registered executor.
var ErrUnsupportedBinaryExpr = errors.New("expr: unsupported binary expression")

// FromToken returns the ExprExecutor registered for a go/token.Token.
func FromToken(tok token.Token) (ExprExecutor, error) {
	switch tok {
	case token.EQL:
		return OperatorExecutor{Operator: GenericOperator{Eq}}, nil
	case token.NEQ:
		return OperatorExecutor{Operator: GenericOperator{Ne}}, nil
	case token.LSS:
		return OperatorExecutor{Operator: GenericOperator{Lt}}, nil
	case token.LEQ:
		return OperatorExecutor{Operator: GenericOperator{Le}}, nil
	case token.GTR:
		return OperatorExecutor{Operator: GenericOperator{Gt}}, nil
	case token.GEQ:
		return OperatorExecutor{Operator: GenericOperator{Ge}}, nil
	case token.ADD:
		return OperatorExecutor{Operator: GenericOperator{Add}}, nil
	case token.SUB:
		return OperatorExecutor{Operator: GenericOperator{Sub}}, nil
	case token.MUL:
		return OperatorExecutor{Operator: GenericOperator{Mul}}, nil
	case token.QUO:
		return OperatorExecutor{Operator: GenericOperator{Quo}}, nil
	case token.REM:
		return OperatorExecutor{Operator: GenericOperator{Rem}}, nil
	case token.LAND:
		return LANDExprExecutor{}, nil
	case token.LOR:
		return LORExprExecutor{}, nil
	case token.AND:
		return ANDExprExecutor{}, nil
	case token.OR:
		return ORExprExecutor{}, nil
	case token.NOT:
		return NOTExprExecutor{}, nil
	case token.LPAREN:
		return LPARENExprExecutor{}, nil
	case token.RPAREN:
		return RPARENExprExecutor{}, nil
	case token.COMMENT:
		return COMMENTExprExecutor{}, nil
	default:
		return nil, ErrUnsupportedBinaryExpr
	}
}
