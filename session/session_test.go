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

package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/progressiveql/flowengine/expr"
	"github.com/progressiveql/flowengine/frame"
	"github.com/progressiveql/flowengine/graph"
	"github.com/progressiveql/flowengine/op"
	"github.com/progressiveql/flowengine/session"
)

func lineitemSchema() *arrow.Schema {
	return frame.NewSchema(
		frame.ColumnSpec{Name: "brand", Type: arrow.BinaryTypes.String},
		frame.ColumnSpec{Name: "size", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "price", Type: arrow.PrimitiveTypes.Float64},
	)
}

func lineitemChunk(t *testing.T, rows ...[3]interface{}) *frame.Frame {
	t.Helper()
	b := frame.NewBuilder(lineitemSchema())
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r[0], r[1], r[2]))
	}
	return b.Finish()
}

// buildFilterProjectGraph wires TABLE -> WHERE(brand='A' AND size>10) ->
// SELECT(brand, price), marking SELECT the output, mirroring spec.md's
// filter+project seed scenario (the WHERE is written in CNF form).
func buildFilterProjectGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	tbl, err := op.NewTable(op.TableArgs{Table: "lineitem"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("lineitem", tbl, nil, false))

	where, err := op.NewWhere(op.WhereArgs{
		Form: "CNF",
		Predicates: [][]op.PredicateArg{
			{{Left: "brand", Op: "=", Right: "A"}},
			{{Left: "size", Op: ">", Right: int64(10)}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("filtered", where, []graph.NodeID{"lineitem"}, false))

	sel, err := op.NewSelect(op.SelectArgs{Columns: []string{"brand", "price"}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("projected", sel, []graph.NodeID{"filtered"}, true))

	return g
}

func TestSessionFilterProjectChainAccumulatesAcrossTicks(t *testing.T) {
	g := buildFilterProjectGraph(t)
	sess := session.New(g)

	out, err := sess.RunIncremental(context.Background(), "projected", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t,
			[3]interface{}{"A", int64(20), 9.99},
			[3]interface{}{"B", int64(20), 5.00},
		),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.NumRows())

	out, err = sess.RunIncremental(context.Background(), "projected", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t,
			[3]interface{}{"A", int64(5), 1.00},
			[3]interface{}{"A", int64(30), 4.50},
		),
	})
	require.NoError(t, err)
	// Cumulative: the 9.99 row from tick one plus the 4.50 row from
	// tick two; the size=5 row never passes the WHERE.
	require.Equal(t, int64(2), out.NumRows())
}

// buildGroupedGraph wires TABLE -> GROUPBYAGG(brand, sum(price) as
// total) as the sole output.
func buildGroupedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	tbl, err := op.NewTable(op.TableArgs{Table: "lineitem"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("lineitem", tbl, nil, false))

	agg, err := op.NewGroupByAgg(op.GroupByAggArgs{
		GroupByKey: []string{"brand"},
		Aggregates: []op.AggArg{
			{Op: "sum", Col: expr.Col{Name: "price"}, Alias: "total"},
			{Op: "count", Alias: "n"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("agg", agg, []graph.NodeID{"lineitem"}, true))

	return g
}

func TestSessionGroupedSumReaggregatesAcrossTicks(t *testing.T) {
	g := buildGroupedGraph(t)
	sess := session.New(g)

	out, err := sess.RunIncremental(context.Background(), "agg", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t,
			[3]interface{}{"A", int64(1), 10.0},
			[3]interface{}{"B", int64(1), 2.0},
		),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), out.NumRows())

	out, err = sess.RunIncremental(context.Background(), "agg", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t,
			[3]interface{}{"A", int64(1), 30.0},
		),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), out.NumRows())

	totals := map[string]float64{}
	counts := map[string]int64{}
	brandCol, err := out.Column("brand")
	require.NoError(t, err)
	totalCol, err := out.Column("total")
	require.NoError(t, err)
	nCol, err := out.Column("n")
	require.NoError(t, err)
	for i := 0; i < int(out.NumRows()); i++ {
		brand := frame.ValueAt(brandCol, i).(string)
		totals[brand] = frame.ValueAt(totalCol, i).(float64)
		counts[brand] = frame.ValueAt(nCol, i).(int64)
	}
	require.Equal(t, 40.0, totals["A"])
	require.Equal(t, int64(2), counts["A"])
	require.Equal(t, 2.0, totals["B"])
	require.Equal(t, int64(1), counts["B"])
}

func custSchemaS() *arrow.Schema {
	return frame.NewSchema(
		frame.ColumnSpec{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "name", Type: arrow.BinaryTypes.String},
	)
}

func custFrameS(t *testing.T, rows ...[2]interface{}) *frame.Frame {
	t.Helper()
	b := frame.NewBuilder(custSchemaS())
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r[0], r[1]))
	}
	return b.Finish()
}

func orderSchemaS() *arrow.Schema {
	return frame.NewSchema(
		frame.ColumnSpec{Name: "cust_id", Type: arrow.PrimitiveTypes.Int64},
		frame.ColumnSpec{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
	)
}

func orderFrameS(t *testing.T, rows ...[2]interface{}) *frame.Frame {
	t.Helper()
	b := frame.NewBuilder(orderSchemaS())
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r[0], r[1]))
	}
	return b.Finish()
}

func buildJoinGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	custTbl, err := op.NewTable(op.TableArgs{Table: "customer"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("customer", custTbl, nil, false))

	orderTbl, err := op.NewTable(op.TableArgs{Table: "orders"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("orders", orderTbl, nil, false))

	join, err := op.NewInnerJoin(op.InnerJoinArgs{LeftOn: []string{"id"}, RightOn: []string{"cust_id"}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("joined", join, []graph.NodeID{"customer", "orders"}, true))

	return g
}

// TestSessionInnerJoinGatedUntilBothSidesSeenData drives the scheduler
// (not just the bare operator) through the gated-node seed scenario:
// a delta landing on only one of the join's two slots must retain
// state but never propagate a result to the output node.
func TestSessionInnerJoinGatedUntilBothSidesSeenData(t *testing.T) {
	g := buildJoinGraph(t)
	sess := session.New(g)

	out, err := sess.RunIncremental(context.Background(), "joined", map[graph.NodeID]*frame.Frame{
		"customer": custFrameS(t, [2]interface{}{int64(1), "alice"}),
	})
	require.NoError(t, err)
	require.Nil(t, out)

	out, err = sess.RunIncremental(context.Background(), "joined", map[graph.NodeID]*frame.Frame{
		"orders": orderFrameS(t, [2]interface{}{int64(1), 99.5}),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, int64(1), out.NumRows())
}

// TestSessionInnerJoinBothSlotsInSameTick feeds both sides of the join
// in a single RunIncremental call, the common case where one batch of
// deltas seeds more than one source table at once.
func TestSessionInnerJoinBothSlotsInSameTick(t *testing.T) {
	g := buildJoinGraph(t)
	sess := session.New(g)

	out, err := sess.RunIncremental(context.Background(), "joined", map[graph.NodeID]*frame.Frame{
		"customer": custFrameS(t, [2]interface{}{int64(1), "alice"}, [2]interface{}{int64(2), "bob"}),
		"orders":   orderFrameS(t, [2]interface{}{int64(1), 10.0}, [2]interface{}{int64(2), 20.0}),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, int64(2), out.NumRows())
}

// TestSessionReturnsRetainedResultWhenTickMakesNoProgress feeds a
// third tick that touches neither join slot at all (no task is ever
// queued): RunIncremental must keep reporting the join's
// already-materialized result rather than regressing to nil, since
// evalNode's accumulated value hasn't changed.
func TestSessionReturnsRetainedResultWhenTickMakesNoProgress(t *testing.T) {
	g := buildJoinGraph(t)
	sess := session.New(g)

	_, err := sess.RunIncremental(context.Background(), "joined", map[graph.NodeID]*frame.Frame{
		"customer": custFrameS(t, [2]interface{}{int64(1), "alice"}),
		"orders":   orderFrameS(t, [2]interface{}{int64(1), 10.0}),
	})
	require.NoError(t, err)

	out, err := sess.RunIncremental(context.Background(), "joined", map[graph.NodeID]*frame.Frame{})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, int64(1), out.NumRows())
}

// buildOrderLimitGraph wires TABLE -> ORDERBY(price desc) -> LIMIT(2).
func buildOrderLimitGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	tbl, err := op.NewTable(op.TableArgs{Table: "lineitem"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("lineitem", tbl, nil, false))

	ob, err := op.NewOrderBy(op.OrderByArgs{Terms: []op.OrderByTerm{{Column: "price", Order: "desc"}}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("ordered", ob, []graph.NodeID{"lineitem"}, false))

	lim, err := op.NewLimit(op.LimitArgs{K: 2})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("top2", lim, []graph.NodeID{"ordered"}, true))

	return g
}

func TestSessionOrderByLimitReRanksAcrossTicks(t *testing.T) {
	g := buildOrderLimitGraph(t)
	sess := session.New(g)

	out, err := sess.RunIncremental(context.Background(), "top2", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t,
			[3]interface{}{"A", int64(1), 10.0},
			[3]interface{}{"B", int64(1), 5.0},
		),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), out.NumRows())

	out, err = sess.RunIncremental(context.Background(), "top2", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t, [3]interface{}{"C", int64(1), 100.0}),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), out.NumRows())

	priceCol, err := out.Column("price")
	require.NoError(t, err)
	top := frame.ValueAt(priceCol, 0).(float64)
	require.Equal(t, 100.0, top)
}

func TestSessionRejectsNonOutputEvalNode(t *testing.T) {
	g := buildFilterProjectGraph(t)
	sess := session.New(g)

	_, err := sess.RunIncremental(context.Background(), "filtered", map[graph.NodeID]*frame.Frame{
		"lineitem": lineitemChunk(t, [3]interface{}{"A", int64(20), 9.99}),
	})
	require.Error(t, err)
}
