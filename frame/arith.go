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

package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// ColumnAsFloat64 reads a column as a float64 array, widening Int64
// columns. It is the leaf case for scalar column arithmetic
// (GROUPBYAGG's `col` expressions, spec.md §4.1).
func ColumnAsFloat64(f *Frame, name string) (*array.Float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *array.Float64:
		return c, nil
	case *array.Int64:
		b := array.NewFloat64Builder(Allocator)
		defer b.Release()
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(float64(c.Value(i)))
			}
		}
		return b.NewFloat64Array(), nil
	default:
		return nil, fmt.Errorf("frame: column %q is not numeric (%s)", name, col.DataType())
	}
}

// ConstFloat64 builds a constant float64 array of length n, the leaf
// case for a literal operand in arithmetic.
func ConstFloat64(v float64, n int) *array.Float64 {
	b := array.NewFloat64Builder(Allocator)
	defer b.Release()
	for i := 0; i < n; i++ {
		b.Append(v)
	}
	return b.NewFloat64Array()
}

// CombineFloat64 applies a binary arithmetic op elementwise. op is
// one of "+", "-", "*", "/"; division by zero (or by a null) yields a
// null cell rather than a runtime error, matching how the engine
// treats ragged arithmetic on partial partitions.
func CombineFloat64(op string, a, b *array.Float64) (*array.Float64, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("frame: arithmetic operand length mismatch (%d vs %d)", a.Len(), b.Len())
	}
	out := array.NewFloat64Builder(Allocator)
	defer out.Release()
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) || b.IsNull(i) {
			out.AppendNull()
			continue
		}
		x, y := a.Value(i), b.Value(i)
		switch op {
		case "+":
			out.Append(x + y)
		case "-":
			out.Append(x - y)
		case "*":
			out.Append(x * y)
		case "/":
			if y == 0 {
				out.AppendNull()
			} else {
				out.Append(x / y)
			}
		default:
			return nil, fmt.Errorf("frame: unsupported arithmetic operator %q", op)
		}
	}
	return out.NewFloat64Array(), nil
}
