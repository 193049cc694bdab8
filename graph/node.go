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

// Package graph implements the query graph (spec.md §4.2): a DAG of
// op.Operator nodes wired together by positional input edges, with
// save/load and display support grounded on the teacher's
// sql.TreePrinter and on dshills-langgraph-go's node/edge shape.
package graph

import (
	"github.com/mitchellh/hashstructure/v2"

	"github.com/progressiveql/flowengine/op"
)

// NodeID names a node uniquely within a Graph.
type NodeID string

// Node is one vertex of the query graph: an operator plus the
// ordered list of upstream node IDs feeding its input slots
// (Inputs[i] feeds slot "inputN" — see op.InputSlot).
type Node struct {
	ID       NodeID
	Operator op.Operator
	Inputs   []NodeID
	Output   bool
}

// Class reports this node's propagation classification.
func (n *Node) Class() op.Class {
	return op.ClassOf(n.Operator.Kind())
}

// Fingerprint hashes the node's (kind, args) pair (spec.md §4.2),
// used both for the round-trip save/load equality check and as a
// stable short label in DOT display.
func (n *Node) Fingerprint() (uint64, error) {
	return hashstructure.Hash(struct {
		Kind op.Kind
		Args interface{}
	}{n.Operator.Kind(), n.Operator.Args()}, hashstructure.FormatV2, nil)
}
