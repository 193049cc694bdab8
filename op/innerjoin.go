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

// InnerJoinArgs names the equi-join key columns on each side.
type InnerJoinArgs struct {
	LeftOn  []string `yaml:"left_on"`
	RightOn []string `yaml:"right_on"`
}

// InnerJoin is the one operator kind that declares StatefulInputs:
// correct incremental output requires joining each new chunk against
// the opposite side's full accumulated buffer, not just the chunk
// that happens to arrive on the same tick.
type InnerJoin struct {
	args InnerJoinArgs
}

// NewInnerJoin validates args and constructs an InnerJoin operator.
func NewInnerJoin(args InnerJoinArgs) (*InnerJoin, error) {
	j := &InnerJoin{args: args}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *InnerJoin) Kind() Kind           { return KindInnerJoin }
func (j *InnerJoin) StatefulInputs() bool { return true }
func (j *InnerJoin) Args() interface{}    { return j.args }

func (j *InnerJoin) Validate() error {
	if len(j.args.LeftOn) == 0 || len(j.args.RightOn) == 0 {
		return ErrConfig.New("INNERJOIN requires left_on and right_on")
	}
	if len(j.args.LeftOn) != len(j.args.RightOn) {
		return ErrConfig.New("INNERJOIN left_on and right_on must have equal length")
	}
	return nil
}

// Evaluate joins whatever of the two slots are present, ignoring any
// retained state. It is only a correct full-batch answer when both
// slots are supplied in the same call; the incremental path (state
// carried per slot across ticks) lives in Merge.
func (j *InnerJoin) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	left := inputs[InputSlot(0)]
	right := inputs[InputSlot(1)]
	if left == nil || right == nil {
		return nil, nil
	}
	out, err := frame.InnerJoin(left, right, j.args.LeftOn, j.args.RightOn)
	if err != nil {
		return nil, ErrSchema.New(err.Error())
	}
	return out, nil
}

// Merge implements the incremental join (spec.md §9 Open Question
// resolution, grounded on the original INNERJOIN.evaluate/merge):
// a delta landing on one slot is joined against the *current*
// accumulated buffer of the opposite slot, and only afterward is it
// appended to its own slot's buffer. Joining before appending is what
// keeps a same-tick new-left × new-right contribution from being
// produced twice: it surfaces exactly once, on whichever slot's delta
// is processed second, against the first slot's already-updated
// buffer.
func (j *InnerJoin) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	if state.Inputs == nil {
		state.Inputs = make([]*frame.Frame, 2)
	}

	var newChunk *frame.Frame
	var slot int
	if f, ok := delta[InputSlot(0)]; ok && f != nil {
		newChunk, slot = f, 0
	} else if f, ok := delta[InputSlot(1)]; ok && f != nil {
		newChunk, slot = f, 1
	} else {
		return state, state.Result, nil
	}
	other := 1 - slot
	otherBuf := state.Inputs[other]

	var emitted *frame.Frame
	if otherBuf != nil && otherBuf.NumRows() > 0 {
		var joined *frame.Frame
		var err error
		if slot == 0 {
			joined, err = frame.InnerJoin(newChunk, otherBuf, j.args.LeftOn, j.args.RightOn)
		} else {
			joined, err = frame.InnerJoin(otherBuf, newChunk, j.args.LeftOn, j.args.RightOn)
		}
		if err != nil {
			return state, nil, ErrSchema.New(err.Error())
		}
		emitted = joined
	}

	ownBuf, err := accumulate(state.Inputs[slot], newChunk)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	state.Inputs[slot] = ownBuf

	merged, err := accumulate(state.Result, emitted)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	state.Result = merged

	if returnDelta {
		return state, emitted, nil
	}
	return state, state.Result, nil
}
