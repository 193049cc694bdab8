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

// LimitArgs caps output at K rows.
type LimitArgs struct {
	K int `yaml:"k"`
}

// Limit is a materialization (DM) operator: which rows belong in the
// first K depends on the complete accumulated input (and, downstream
// of an ORDERBY, on the full sort order), so merge re-evaluates over the
// full concatenation every tick.
type Limit struct {
	args LimitArgs
}

// NewLimit validates args and constructs a Limit operator.
func NewLimit(args LimitArgs) (*Limit, error) {
	l := &Limit{args: args}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Limit) Kind() Kind           { return KindLimit }
func (l *Limit) StatefulInputs() bool { return false }
func (l *Limit) Args() interface{}    { return l.args }

func (l *Limit) Validate() error {
	if l.args.K < 0 {
		return ErrConfig.New("LIMIT requires a non-negative k")
	}
	return nil
}

// Evaluate truncates the sole input frame to the first K rows.
func (l *Limit) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	in := soleInput(inputs)
	if in == nil {
		return nil, nil
	}
	return frame.Head(in, l.args.K), nil
}

// Merge concatenates the prior full result with the raw delta and
// re-truncates (grounded on the original's LIMIT.merge, which also
// asserts return_delta is always false).
func (l *Limit) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	raw := soleInput(delta)
	combined, err := accumulate(state.Result, raw)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	if combined == nil {
		return state, nil, nil
	}
	state.Result = frame.Head(combined, l.args.K)
	return state, state.Result, nil
}
