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

package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/progressiveql/flowengine/expr"
	"github.com/progressiveql/flowengine/graph"
	"github.com/progressiveql/flowengine/op"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	tbl, err := op.NewTable(op.TableArgs{Table: "lineitem"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("t", tbl, nil, false))

	where, err := op.NewWhere(op.WhereArgs{
		Form:       "DNF",
		Predicates: [][]op.PredicateArg{{{Left: "size", Op: ">", Right: int64(0)}}},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("w", where, []graph.NodeID{"t"}, false))

	agg, err := op.NewGroupByAgg(op.GroupByAggArgs{
		GroupByKey: []string{"brand"},
		Aggregates: []op.AggArg{{Op: "sum", Col: expr.Col{Name: "price"}, Alias: "total"}},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("g", agg, []graph.NodeID{"w"}, true))

	return g
}

func TestAddNodeRejectsUnknownInput(t *testing.T) {
	g := graph.New()
	tbl, err := op.NewTable(op.TableArgs{Table: "orders"})
	require.NoError(t, err)
	err = g.AddNode("x", tbl, []graph.NodeID{"does-not-exist"}, false)
	require.Error(t, err)
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	g := graph.New()
	tbl, err := op.NewTable(op.TableArgs{Table: "orders"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("x", tbl, nil, false))
	require.Error(t, g.AddNode("x", tbl, nil, false))
}

func TestNeedsState(t *testing.T) {
	g := graph.New()

	tbl, err := op.NewTable(op.TableArgs{Table: "lineitem"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("t", tbl, nil, false))

	where, err := op.NewWhere(op.WhereArgs{
		Form:       "DNF",
		Predicates: [][]op.PredicateArg{{{Left: "size", Op: ">", Right: int64(0)}}},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("w", where, []graph.NodeID{"t"}, false))

	sel, err := op.NewSelect(op.SelectArgs{Columns: []string{"size"}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("s", sel, []graph.NodeID{"w"}, true))

	orderBy, err := op.NewOrderBy(op.OrderByArgs{Terms: []op.OrderByTerm{{Column: "size", Order: "desc"}}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("o", orderBy, []graph.NodeID{"w"}, false))

	customer, err := op.NewTable(op.TableArgs{Table: "customer"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("c", customer, nil, false))

	join, err := op.NewInnerJoin(op.InnerJoinArgs{LeftOn: []string{"size"}, RightOn: []string{"size"}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("j", join, []graph.NodeID{"w", "c"}, false))

	tNode, _ := g.Node("t")
	wNode, _ := g.Node("w")
	sNode, _ := g.Node("s")
	oNode, _ := g.Node("o")
	jNode, _ := g.Node("j")

	require.False(t, graph.NeedsState(tNode), "a plain non-output TABLE node needs no retained state")
	require.False(t, graph.NeedsState(wNode), "a plain non-output, non-DM, non-stateful-input WHERE node needs no retained state")
	require.True(t, graph.NeedsState(sNode), "an output node always needs retained state")
	require.True(t, graph.NeedsState(oNode), "a DM-class node always needs retained state")
	require.True(t, graph.NeedsState(jNode), "a StatefulInputs node always needs retained state")
}

func TestCompileRejectsWrongArity(t *testing.T) {
	g := graph.New()
	tbl, err := op.NewTable(op.TableArgs{Table: "customer"})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("c", tbl, nil, false))

	join, err := op.NewInnerJoin(op.InnerJoinArgs{LeftOn: []string{"id"}, RightOn: []string{"id"}})
	require.NoError(t, err)
	require.NoError(t, g.AddNode("j", join, []graph.NodeID{"c"}, true))

	require.Error(t, g.Compile())
}

func TestCompileAcceptsValidArityAndFreezesGraph(t *testing.T) {
	g := buildSampleGraph(t)
	require.NoError(t, g.Compile())

	tbl, err := op.NewTable(op.TableArgs{Table: "orders"})
	require.NoError(t, err)
	require.Error(t, g.AddNode("x", tbl, nil, false), "AddNode must refuse to extend a compiled graph")
}

func TestGraphTopologyHelpers(t *testing.T) {
	g := buildSampleGraph(t)

	sources := g.Sources()
	require.Len(t, sources, 1)
	require.Equal(t, graph.NodeID("t"), sources[0].ID)

	parents := g.Parents("t")
	require.Len(t, parents, 1)
	require.Equal(t, graph.NodeID("w"), parents[0].ID)

	outputs := g.OutputNodes()
	require.Len(t, outputs, 1)
	require.Equal(t, graph.NodeID("g"), outputs[0].ID)
}

// TestSaveLoadRoundTrip is the property required by spec.md §4.2: a
// graph saved then loaded must be fingerprint-identical node for
// node.
func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)

	data, err := graph.Save(g)
	require.NoError(t, err)

	loaded, err := graph.Load(data)
	require.NoError(t, err)

	want := g.Nodes()
	got := loaded.Nodes()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
		require.Equal(t, want[i].Inputs, got[i].Inputs)
		require.Equal(t, want[i].Output, got[i].Output)

		wantFP, err := want[i].Fingerprint()
		require.NoError(t, err)
		gotFP, err := got[i].Fingerprint()
		require.NoError(t, err)
		require.Equal(t, wantFP, gotFP)
	}
}

func TestTreePrinterNestedChildren(t *testing.T) {
	p := graph.NewTreePrinter()
	p.WriteNode("Project(%s, %s)", "a", "b")

	p2 := graph.NewTreePrinter()
	p2.WriteNode("CrossJoin")
	p2.WriteChildren("TableA", "TableB")

	p3 := graph.NewTreePrinter()
	p3.WriteNode("CrossJoin")
	p3.WriteChildren("TableC", "TableD")

	p.WriteChildren(p2.String(), p3.String())

	want := "Project(a, b)\n" +
		" ├─ CrossJoin\n" +
		" │   ├─ TableA\n" +
		" │   └─ TableB\n" +
		" └─ CrossJoin\n" +
		"     ├─ TableC\n" +
		"     └─ TableD\n"
	require.Equal(t, want, p.String())
}

func TestTreeAndDOTRenderWithoutPanicking(t *testing.T) {
	g := buildSampleGraph(t)
	require.Contains(t, graph.Tree(g), "GROUPBYAGG(g)")
	require.Contains(t, graph.DOT(g), "digraph flowengine")
}
