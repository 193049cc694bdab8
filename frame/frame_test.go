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

package frame_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/progressiveql/flowengine/frame"
)

func kvSchema() *arrow.Schema {
	return frame.NewSchema(
		frame.ColumnSpec{Name: "k", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "v", Type: arrow.BinaryTypes.String},
	)
}

func buildKV(t *testing.T, rows ...[2]interface{}) *frame.Frame {
	t.Helper()
	b := frame.NewBuilder(kvSchema())
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r[0], r[1]))
	}
	return b.Finish()
}

func TestConcatPreservesOrder(t *testing.T) {
	a := buildKV(t, [2]interface{}{int64(1), "x"})
	b := buildKV(t, [2]interface{}{int64(2), "y"}, [2]interface{}{int64(3), "z"})

	out, err := frame.Concat(a, b)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.NumRows())

	want := [][]interface{}{
		{int64(1), "x"}, {int64(2), "y"}, {int64(3), "z"},
	}
	if diff := cmp.Diff(want, out.Rows()); diff != "" {
		t.Fatalf("concat mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterMask(t *testing.T) {
	f := buildKV(t,
		[2]interface{}{int64(1), "x"},
		[2]interface{}{int64(2), "y"},
		[2]interface{}{int64(3), "z"},
	)
	out, err := frame.Filter(f, []bool{false, true, true})
	require.NoError(t, err)
	want := [][]interface{}{{int64(2), "y"}, {int64(3), "z"}}
	require.Equal(t, want, out.Rows())
}

func TestProjectOrdersAndSubsets(t *testing.T) {
	f := buildKV(t, [2]interface{}{int64(1), "x"})
	out, err := frame.Project(f, []string{"v", "k"})
	require.NoError(t, err)
	require.Equal(t, []string{"v", "k"}, out.ColumnNames())
	require.Equal(t, []interface{}{"x", int64(1)}, out.Row(0))

	_, err = frame.Project(f, []string{"nope"})
	require.Error(t, err)
}

func TestInnerJoinDropsRightKeys(t *testing.T) {
	leftSchema := frame.NewSchema(
		frame.ColumnSpec{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "l", Type: arrow.BinaryTypes.String},
	)
	rightSchema := frame.NewSchema(
		frame.ColumnSpec{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "r", Type: arrow.BinaryTypes.String},
	)
	lb := frame.NewBuilder(leftSchema)
	require.NoError(t, lb.AppendRow(int64(1), "l1"))
	require.NoError(t, lb.AppendRow(int64(2), "l2"))
	left := lb.Finish()

	rb := frame.NewBuilder(rightSchema)
	require.NoError(t, rb.AppendRow(int64(1), "r1"))
	require.NoError(t, rb.AppendRow(int64(2), "r2"))
	right := rb.Finish()

	out, err := frame.InnerJoin(left, right, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "l", "r"}, out.ColumnNames())
	require.ElementsMatch(t, [][]interface{}{
		{int64(1), "l1", "r1"},
		{int64(2), "l2", "r2"},
	}, out.Rows())
}

func TestGroupBySumEmptyKeyIsSingleGroup(t *testing.T) {
	schema := frame.NewSchema(frame.ColumnSpec{Name: "x", Type: arrow.PrimitiveTypes.Float64})
	b := frame.NewBuilder(schema)
	require.NoError(t, b.AppendRow(1.0))
	require.NoError(t, b.AppendRow(2.0))
	f := b.Finish()

	xCol, err := frame.ColumnAsFloat64(f, "x")
	require.NoError(t, err)
	out, err := frame.GroupBySum(f, nil, []frame.AggInput{{Alias: "total", Op: frame.Sum, Values: xCol}})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.NumRows())
	require.Equal(t, []interface{}{3.0}, out.Row(0))
}

func TestSortByStableMultiKey(t *testing.T) {
	schema := frame.NewSchema(
		frame.ColumnSpec{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "b", Type: arrow.PrimitiveTypes.Int64},
	)
	b := frame.NewBuilder(schema)
	rows := [][2]int64{{1, 1}, {1, 0}, {0, 5}}
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r[0], r[1]))
	}
	f := b.Finish()

	out, err := frame.SortBy(f, []frame.SortKey{{Column: "a", Desc: true}})
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(1), int64(1)}, out.Row(0))
	require.Equal(t, []interface{}{int64(1), int64(0)}, out.Row(1))
	require.Equal(t, []interface{}{int64(0), int64(5)}, out.Row(2))
}

func TestHeadTruncates(t *testing.T) {
	f := buildKV(t,
		[2]interface{}{int64(1), "x"},
		[2]interface{}{int64(2), "y"},
		[2]interface{}{int64(3), "z"},
	)
	out := frame.Head(f, 2)
	require.Equal(t, int64(2), out.NumRows())
	out2 := frame.Head(f, 10)
	require.Equal(t, int64(3), out2.NumRows())
}
