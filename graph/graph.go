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

package graph

import (
	"fmt"

	"github.com/progressiveql/flowengine/op"
)

// Graph is an immutable-after-construction DAG of operator nodes.
// Nodes must be added in an order where every input already exists,
// which also makes insertion order a valid topological order.
type Graph struct {
	nodes    map[NodeID]*Node
	order    []NodeID
	compiled bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode validates operator and wires it into the graph as id, fed
// by the given upstream node IDs in positional order. output marks
// this node as a terminal whose result the session reports out.
func (g *Graph) AddNode(id NodeID, operator op.Operator, inputs []NodeID, output bool) error {
	if g.compiled {
		return fmt.Errorf("graph: cannot add node %q to a compiled graph", id)
	}
	if id == "" {
		return fmt.Errorf("graph: node id must not be empty")
	}
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("graph: duplicate node id %q", id)
	}
	for _, in := range inputs {
		if _, ok := g.nodes[in]; !ok {
			return fmt.Errorf("graph: node %q references unknown input %q", id, in)
		}
	}
	if err := operator.Validate(); err != nil {
		return err
	}
	g.nodes[id] = &Node{ID: id, Operator: operator, Inputs: inputs, Output: output}
	g.order = append(g.order, id)
	return nil
}

// requiredArity returns the number of inbound edges a kind's Evaluate
// and Merge contract requires: TABLE reads nothing, INNERJOIN reads
// both sides, every other kind reads a single upstream slot.
func requiredArity(k op.Kind) int {
	switch k {
	case op.KindTable:
		return 0
	case op.KindInnerJoin:
		return 2
	default:
		return 1
	}
}

// Compile validates the graph built so far and freezes it against
// further AddNode calls (spec.md §4.2, §6): every node's inbound
// arity must match its operator kind's expected slot count, and the
// input edges must form an acyclic graph. AddNode already refuses an
// input that doesn't exist yet, which rules out cycles by
// construction, but Compile re-derives acyclicity directly from the
// edges rather than leaning on that invariant, so a future relaxation
// of AddNode's ordering rule can't silently reintroduce one.
//
// Compile returns an op.ErrConfig error on the first problem found. Load
// calls Compile before returning a deserialized graph, so any graph
// built through this package's public API is compiled by the time
// calling code can observe it.
func (g *Graph) Compile() error {
	if g.compiled {
		return nil
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[NodeID]int, len(g.order))
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return op.ErrConfig.New(fmt.Sprintf("cycle detected at node %q", id))
		}
		state[id] = visiting
		n := g.nodes[id]
		for _, in := range n.Inputs {
			if err := visit(in); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}

	for _, n := range g.Nodes() {
		want := requiredArity(n.Operator.Kind())
		if len(n.Inputs) != want {
			return op.ErrConfig.New(fmt.Sprintf(
				"node %q (%s) requires %d input(s), got %d", n.ID, n.Operator.Kind(), want, len(n.Inputs)))
		}
	}

	g.compiled = true
	return nil
}

// Node looks up a node by ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node in topological (insertion) order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Sources returns nodes with no inbound edges (TABLE nodes, in every
// graph this operator set can build).
func (g *Graph) Sources() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if len(n.Inputs) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Parents returns every node that has id among its Inputs.
func (g *Graph) Parents(id NodeID) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		for _, in := range n.Inputs {
			if in == id {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// NeedsState reports whether the session must retain an op.State for
// n across ticks (spec.md §4.3): true for output nodes, DM-kind
// nodes, and any operator declaring stateful_inputs. Every other node
// only ever receives pure Evaluate calls and holds no state between
// ticks.
func NeedsState(n *Node) bool {
	return n.Output || n.Class() == op.ClassDM || n.Operator.StatefulInputs()
}

// OutputNodes returns every node marked Output.
func (g *Graph) OutputNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Output {
			out = append(out, n)
		}
	}
	return out
}
