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

// Package op implements the operator algebra (spec.md §4.1): the
// closed set of node kinds a query graph can be built from, each
// exposing the same capability record — validate / stateful_inputs /
// evaluate / merge — so the scheduler in package session can drive
// every kind through one uniform dispatch loop.
package op

import (
	"fmt"

	"github.com/progressiveql/flowengine/frame"
)

// Kind names one of the seven closed operator variants. Kind is also
// the tag used by graph.Node when (de)serializing a saved graph, so
// its string values are part of the on-disk format.
type Kind string

const (
	KindTable      Kind = "TABLE"
	KindWhere      Kind = "WHERE"
	KindSelect     Kind = "SELECT"
	KindInnerJoin  Kind = "INNERJOIN"
	KindGroupByAgg Kind = "GROUPBYAGG"
	KindOrderBy    Kind = "ORDERBY"
	KindLimit      Kind = "LIMIT"
)

// Class is a node's propagation classification (spec.md §3): DA nodes
// propagate by re-evaluation and associative merge without forcing
// materialization; DM nodes require the full accumulated input before
// they can produce a correct output.
type Class string

const (
	ClassDA Class = "DA"
	ClassDM Class = "DM"
)

// ClassOf returns a kind's fixed propagation classification.
// GROUPBYAGG is DA despite keeping its own running totals: its
// aggregates are additive and merge associatively, so it never forces
// a downstream consumer to wait on the full accumulated input the way
// ORDERBY/LIMIT do.
func ClassOf(k Kind) Class {
	switch k {
	case KindOrderBy, KindLimit:
		return ClassDM
	default:
		return ClassDA
	}
}

// InputSlot returns the conventional slot name for positional input i
// (spec.md's "input0", "input1", ...), the key both Operator.Evaluate
// and Operator.Merge index their inputs map by.
func InputSlot(i int) string {
	return fmt.Sprintf("input%d", i)
}

// Operator is the uniform capability record every node kind
// implements. Construction (NewTable, NewWhere, ...) already runs
// Validate, so a *Operator value in hand is always valid; Validate is
// exposed separately so graph.AddNode can re-check an operator
// without re-running construction side effects.
type Operator interface {
	// Kind identifies which of the seven variants this is.
	Kind() Kind

	// Validate reports an ErrConfig (or, for an unknown WHERE form,
	// ErrUnsupported) error if the operator's arguments are malformed.
	Validate() error

	// StatefulInputs reports whether correct incremental execution
	// requires retaining every prior input per inbound edge (true only
	// for INNERJOIN). Materialization operators (ORDERBY, LIMIT) keep
	// their own running result regardless of this flag.
	StatefulInputs() bool

	// Evaluate computes this operator's output from a slot-keyed map
	// of input frames, with no reference to any retained state. It is
	// a pure function of its arguments.
	Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error)

	// Merge folds a slot-keyed delta into state, returning the updated
	// state and either just the newly produced delta (returnDelta) or
	// the full accumulated result.
	Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error)

	// Args returns the operator's configuration in a form suitable for
	// YAML (de)serialization by package graph.
	Args() interface{}
}

// State is a node's retained execution state (spec.md §9 design
// note): Result is the materialized accumulated output (used by
// TABLE, WHERE, SELECT, GROUPBYAGG, ORDERBY, LIMIT); Inputs holds the
// per-slot accumulated input buffers used only by stateful-input
// operators (INNERJOIN). A zero State is the correct starting point
// for every node.
type State struct {
	Result *frame.Frame
	Inputs []*frame.Frame
}

// soleInput returns the single frame of a single-slot inputs map, or
// nil if the map holds no entry for that slot (the node was dispatched
// with an empty/gated delta). Operators with exactly one inbound edge
// (WHERE, SELECT, GROUPBYAGG, ORDERBY, LIMIT) always read input0.
func soleInput(inputs map[string]*frame.Frame) *frame.Frame {
	return inputs[InputSlot(0)]
}

// accumulate appends delta onto the running result by concatenation,
// the common case for operators whose merge never needs to
// re-aggregate (TABLE, WHERE, SELECT: row selection and projection
// both commute with concatenation).
func accumulate(result *frame.Frame, delta *frame.Frame) (*frame.Frame, error) {
	if delta == nil {
		return result, nil
	}
	if result == nil {
		return delta, nil
	}
	return frame.Concat(result, delta)
}
