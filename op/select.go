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

// SelectArgs names the output columns, in order. A single column named
// "*" means "all columns unchanged" (spec.md §4.1, grounded on the
// original's SELECT.evaluate shortcut for columns == ['*']).
type SelectArgs struct {
	Columns []string `yaml:"columns"`
}

// Select is a column-projection operator.
type Select struct {
	args SelectArgs
}

// NewSelect validates args and constructs a Select operator.
func NewSelect(args SelectArgs) (*Select, error) {
	s := &Select{args: args}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Select) Kind() Kind           { return KindSelect }
func (s *Select) StatefulInputs() bool { return false }
func (s *Select) Args() interface{}    { return s.args }

func (s *Select) Validate() error {
	if len(s.args.Columns) == 0 {
		return ErrConfig.New("SELECT requires at least one column")
	}
	return nil
}

func (s *Select) isStar() bool {
	return len(s.args.Columns) == 1 && s.args.Columns[0] == "*"
}

// Evaluate projects the sole input frame onto the configured columns.
func (s *Select) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	in := soleInput(inputs)
	if in == nil {
		return nil, nil
	}
	if s.isStar() {
		return in, nil
	}
	out, err := frame.Project(in, s.args.Columns)
	if err != nil {
		return nil, ErrSchema.New(err.Error())
	}
	return out, nil
}

// Merge accumulates projected deltas by concatenation: projection is
// column selection, which commutes with row concatenation.
func (s *Select) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	d, err := s.Evaluate(delta)
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
