// Copyright 2024 The ProgressiveQL Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr implements the compiled-AST replacement for the
// source engine's string-interpolated expression evaluation
// (spec.md §9 design note): arithmetic expressions for GROUPBYAGG's
// `col` and boolean predicates for WHERE are represented as a small
// closed AST and compiled once, at operator construction, into a
// closure over the columnar frame facade — never interpolated into a
// host-language expression.
package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/progressiveql/flowengine/frame"
)

// Expr is a scalar arithmetic expression over column references and
// literals: Col(name) | Lit(value) | BinOp(op, left, right).
type Expr interface {
	isExpr()
}

// Col references a named column.
type Col struct {
	Name string
}

func (Col) isExpr() {}

// Lit is a literal operand. Arithmetic (Compile) accepts only numeric
// values; as the right side of a Cmp it may also hold a string, bool,
// or date.
type Lit struct {
	Value interface{}
}

func (Lit) isExpr() {}

// BinOp is one of "+", "-", "*", "/" applied elementwise.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (BinOp) isExpr() {}

// CompiledExpr is an Expr compiled once into a closure that evaluates
// against a frame's columns.
type CompiledExpr struct {
	eval func(f *frame.Frame) (*array.Float64, error)
}

// Eval runs the compiled expression over f, producing one float64
// value per row.
func (c CompiledExpr) Eval(f *frame.Frame) (*array.Float64, error) {
	return c.eval(f)
}

// Compile builds a CompiledExpr from an Expr AST.
func Compile(e Expr) (CompiledExpr, error) {
	fn, err := compileExpr(e)
	if err != nil {
		return CompiledExpr{}, err
	}
	return CompiledExpr{eval: fn}, nil
}

func compileExpr(e Expr) (func(*frame.Frame) (*array.Float64, error), error) {
	switch v := e.(type) {
	case Col:
		name := v.Name
		return func(f *frame.Frame) (*array.Float64, error) {
			return frame.ColumnAsFloat64(f, name)
		}, nil
	case Lit:
		val, err := literalFloat64(v.Value)
		if err != nil {
			return nil, err
		}
		return func(f *frame.Frame) (*array.Float64, error) {
			return frame.ConstFloat64(val, int(f.NumRows())), nil
		}, nil
	case BinOp:
		if v.Op != "+" && v.Op != "-" && v.Op != "*" && v.Op != "/" {
			return nil, fmt.Errorf("expr: unsupported arithmetic operator %q", v.Op)
		}
		left, err := compileExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := compileExpr(v.Right)
		if err != nil {
			return nil, err
		}
		op := v.Op
		return func(f *frame.Frame) (*array.Float64, error) {
			l, err := left(f)
			if err != nil {
				return nil, err
			}
			r, err := right(f)
			if err != nil {
				return nil, err
			}
			return frame.CombineFloat64(op, l, r)
		}, nil
	default:
		return nil, fmt.Errorf("expr: unknown expression node %T", e)
	}
}

func literalFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expr: literal %v (%T) is not numeric", v, v)
	}
}
