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

package op

import "github.com/progressiveql/flowengine/frame"

// TableArgs names the base relation a TABLE node reads partitions
// from. The session addresses TABLE nodes by node ID; mapping a table
// name to its node is the caller's job (cmd/flowctl run does it via
// TableName). The operator itself is a pass-through accumulator over
// whatever partitions it is handed.
type TableArgs struct {
	Table string `yaml:"table"`
}

// Table is the source node of a query graph: it has no inbound edges.
// The session seeds it with incremental_evaluate tasks, which pass each
// delivered partition through unchanged; its Merge accumulates the
// partitions it is handed.
type Table struct {
	args TableArgs
}

// NewTable validates args and constructs a Table operator.
func NewTable(args TableArgs) (*Table, error) {
	t := &Table{args: args}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) Kind() Kind              { return KindTable }
func (t *Table) StatefulInputs() bool    { return false }
func (t *Table) Args() interface{}       { return t.args }
func (t *Table) TableName() string       { return t.args.Table }

func (t *Table) Validate() error {
	if t.args.Table == "" {
		return ErrConfig.New("TABLE requires a table name")
	}
	return nil
}

// Evaluate returns the sole input frame unchanged; a TABLE node has no
// transformation of its own, only an identity pass of whatever
// partition arrived this tick.
func (t *Table) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	return soleInput(inputs), nil
}

func (t *Table) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	d, err := t.Evaluate(delta)
	if err != nil {
		return state, nil, err
	}
	merged, err := accumulate(state.Result, d)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	state.Result = merged
	if returnDelta {
		return state, d, nil
	}
	return state, state.Result, nil
}
