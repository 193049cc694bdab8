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

package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/progressiveql/flowengine/expr"
	"github.com/progressiveql/flowengine/frame"
)

func priceSchema() *arrow.Schema {
	return frame.NewSchema(
		frame.ColumnSpec{Name: "price", Type: arrow.PrimitiveTypes.Float64},
		frame.ColumnSpec{Name: "discount", Type: arrow.PrimitiveTypes.Float64},
	)
}

func TestCompileExprArithmetic(t *testing.T) {
	b := frame.NewBuilder(priceSchema())
	require.NoError(t, b.AppendRow(10.0, 0.1))
	require.NoError(t, b.AppendRow(20.0, 0.5))
	f := b.Finish()

	// price * (1 - discount)
	e := expr.BinOp{
		Op:   "*",
		Left: expr.Col{Name: "price"},
		Right: expr.BinOp{
			Op:   "-",
			Left: expr.Lit{Value: 1.0},
			Right: expr.Col{Name: "discount"},
		},
	}
	compiled, err := expr.Compile(e)
	require.NoError(t, err)
	out, err := compiled.Eval(f)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	require.InDelta(t, 9.0, out.Value(0), 1e-9)
	require.InDelta(t, 10.0, out.Value(1), 1e-9)
}

func TestCompilePredDNF(t *testing.T) {
	schema := frame.NewSchema(
		frame.ColumnSpec{Name: "brand", Type: arrow.BinaryTypes.String},
		frame.ColumnSpec{Name: "size", Type: arrow.PrimitiveTypes.Int64},
	)
	b := frame.NewBuilder(schema)
	require.NoError(t, b.AppendRow("A", int64(5)))
	require.NoError(t, b.AppendRow("A", int64(6)))
	require.NoError(t, b.AppendRow("B", int64(9)))
	require.NoError(t, b.AppendRow("B", int64(11)))
	f := b.Finish()

	// (brand=A AND size<=5) OR (brand=B AND size<=10)
	pred := expr.Or{
		Left: expr.And{
			Left:  expr.Cmp{Left: expr.Col{Name: "brand"}, Op: "=", Right: expr.Lit{Value: "A"}},
			Right: expr.Cmp{Left: expr.Col{Name: "size"}, Op: "<=", Right: expr.Lit{Value: int64(5)}},
		},
		Right: expr.And{
			Left:  expr.Cmp{Left: expr.Col{Name: "brand"}, Op: "=", Right: expr.Lit{Value: "B"}},
			Right: expr.Cmp{Left: expr.Col{Name: "size"}, Op: "<=", Right: expr.Lit{Value: int64(10)}},
		},
	}
	compiled, err := expr.CompilePred(pred)
	require.NoError(t, err)
	mask, err := compiled.Eval(f)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true, false}, mask)
}

func TestCompilePredDateLiteral(t *testing.T) {
	schema := frame.NewSchema(frame.ColumnSpec{Name: "ship_date", Type: arrow.FixedWidthTypes.Date32})
	b := frame.NewBuilder(schema)
	require.NoError(t, b.AppendRow("1998-01-01"))
	require.NoError(t, b.AppendRow("1998-06-01"))
	f := b.Finish()

	pred := expr.Cmp{Left: expr.Col{Name: "ship_date"}, Op: "<", Right: expr.Lit{Value: "1998-03-01"}}
	compiled, err := expr.CompilePred(pred)
	require.NoError(t, err)
	mask, err := compiled.Eval(f)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, mask)
}
