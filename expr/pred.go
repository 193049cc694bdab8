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

package expr

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/progressiveql/flowengine/frame"
)

// Pred is a boolean predicate: Cmp(col, op, lit) | And | Or.
type Pred interface {
	isPred()
}

// Cmp compares a column against a literal. Op is one of
// "=", "!=", "<", "<=", ">", ">=".
type Cmp struct {
	Left  Col
	Op    string
	Right Lit
}

func (Cmp) isPred() {}

// And conjoins two predicates.
type And struct {
	Left, Right Pred
}

func (And) isPred() {}

// Or disjoins two predicates.
type Or struct {
	Left, Right Pred
}

func (Or) isPred() {}

// CompiledPred is a Pred compiled once into a closure producing a
// row mask.
type CompiledPred struct {
	eval func(f *frame.Frame) ([]bool, error)
}

// Eval runs the compiled predicate, returning one boolean per row.
func (c CompiledPred) Eval(f *frame.Frame) ([]bool, error) {
	return c.eval(f)
}

// CompilePred builds a CompiledPred from a Pred AST.
func CompilePred(p Pred) (CompiledPred, error) {
	fn, err := compilePred(p)
	if err != nil {
		return CompiledPred{}, err
	}
	return CompiledPred{eval: fn}, nil
}

func compilePred(p Pred) (func(*frame.Frame) ([]bool, error), error) {
	switch v := p.(type) {
	case Cmp:
		return compileCmp(v)
	case And:
		left, err := compilePred(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := compilePred(v.Right)
		if err != nil {
			return nil, err
		}
		return func(f *frame.Frame) ([]bool, error) {
			l, err := left(f)
			if err != nil {
				return nil, err
			}
			r, err := right(f)
			if err != nil {
				return nil, err
			}
			out := make([]bool, len(l))
			for i := range out {
				out[i] = l[i] && r[i]
			}
			return out, nil
		}, nil
	case Or:
		left, err := compilePred(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := compilePred(v.Right)
		if err != nil {
			return nil, err
		}
		return func(f *frame.Frame) ([]bool, error) {
			l, err := left(f)
			if err != nil {
				return nil, err
			}
			r, err := right(f)
			if err != nil {
				return nil, err
			}
			out := make([]bool, len(l))
			for i := range out {
				out[i] = l[i] || r[i]
			}
			return out, nil
		}, nil
	default:
		return nil, fmt.Errorf("expr: unknown predicate node %T", p)
	}
}

func compileCmp(c Cmp) (func(*frame.Frame) ([]bool, error), error) {
	if !validCmpOp(c.Op) {
		return nil, fmt.Errorf("expr: unsupported comparison operator %q", c.Op)
	}
	colName := c.Left.Name
	op := c.Op
	litValue := c.Right.Value
	return func(f *frame.Frame) ([]bool, error) {
		col, err := f.Column(colName)
		if err != nil {
			return nil, err
		}
		target, err := coerceLiteral(col, litValue)
		if err != nil {
			return nil, fmt.Errorf("expr: column %q: %w", colName, err)
		}
		n := col.Len()
		mask := make([]bool, n)
		for i := 0; i < n; i++ {
			cmp, err := frame.CompareValues(frame.ValueAt(col, i), target)
			if err != nil {
				return nil, err
			}
			mask[i] = matchOp(op, cmp)
		}
		return mask, nil
	}, nil
}

func validCmpOp(op string) bool {
	switch op {
	case "=", "!=", "<", "<=", ">", ">=", "≠", "≤", "≥":
		return true
	default:
		return false
	}
}

func matchOp(op string, cmp int) bool {
	switch op {
	case "=":
		return cmp == 0
	case "!=", "≠":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=", "≤":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=", "≥":
		return cmp >= 0
	default:
		return false
	}
}

// coerceLiteral types a raw config literal according to the target
// column's declared Arrow type (spec.md §4.1): date literals are
// detected by the column's type and parsed as ISO calendar dates,
// strings compare lexicographically, everything else numerically.
func coerceLiteral(col arrow.Array, lit interface{}) (interface{}, error) {
	switch col.(type) {
	case *array.Date32:
		switch v := lit.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return nil, fmt.Errorf("invalid date literal %q (want YYYY-MM-DD): %w", v, err)
			}
			return t, nil
		default:
			return nil, fmt.Errorf("date column compared against non-date literal %v (%T)", lit, lit)
		}
	case *array.String:
		return cast.ToStringE(lit)
	case *array.Boolean:
		return cast.ToBoolE(lit)
	case *array.Int64:
		return cast.ToInt64E(lit)
	case *array.Float64:
		return cast.ToFloat64E(lit)
	default:
		return nil, fmt.Errorf("unsupported column type %s for predicate comparison", col.DataType())
	}
}
