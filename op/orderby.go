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

// OrderByTerm is one sort key: Column name plus direction ("asc" or
// "desc", case-insensitive; absent means "asc", matching the
// original's default).
type OrderByTerm struct {
	Column string `yaml:"column"`
	Order  string `yaml:"order"`
}

// OrderByArgs is the ordered list of sort terms.
type OrderByArgs struct {
	Terms []OrderByTerm `yaml:"terms"`
}

// OrderBy is a materialization (DM) operator: a correct sort requires
// the complete accumulated input, so merge always re-sorts the full
// concatenation rather than just the newest delta.
type OrderBy struct {
	args OrderByArgs
	keys []frame.SortKey
}

// NewOrderBy validates args and constructs an OrderBy operator.
func NewOrderBy(args OrderByArgs) (*OrderBy, error) {
	o := &OrderBy{args: args}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	for _, t := range args.Terms {
		o.keys = append(o.keys, frame.SortKey{Column: t.Column, Desc: isDesc(t.Order)})
	}
	return o, nil
}

func (o *OrderBy) Kind() Kind           { return KindOrderBy }
func (o *OrderBy) StatefulInputs() bool { return false }
func (o *OrderBy) Args() interface{}    { return o.args }

func (o *OrderBy) Validate() error {
	if len(o.args.Terms) == 0 {
		return ErrConfig.New("ORDERBY requires at least one sort term")
	}
	for _, t := range o.args.Terms {
		if t.Column == "" {
			return ErrConfig.New("ORDERBY term requires a column")
		}
		if t.Order != "" && !isAsc(t.Order) && !isDesc(t.Order) {
			return ErrConfig.New("ORDERBY order must be asc or desc")
		}
	}
	return nil
}

func isAsc(order string) bool  { return equalFold(order, "asc") }
func isDesc(order string) bool { return equalFold(order, "desc") }

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Evaluate sorts the sole input frame by the configured keys.
func (o *OrderBy) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	in := soleInput(inputs)
	if in == nil {
		return nil, nil
	}
	out, err := frame.SortBy(in, o.keys)
	if err != nil {
		return nil, ErrSchema.New(err.Error())
	}
	return out, nil
}

// Merge concatenates the prior full result with the raw delta and
// re-sorts the whole thing; a sort cannot be done incrementally
// without re-examining every previously seen row (grounded on the
// original's ORDERBY.merge, which asserts return_delta is always
// false for exactly this reason).
func (o *OrderBy) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	raw := soleInput(delta)
	combined, err := accumulate(state.Result, raw)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	if combined == nil {
		return state, nil, nil
	}
	sorted, err := frame.SortBy(combined, o.keys)
	if err != nil {
		return state, nil, ErrSchema.New(err.Error())
	}
	state.Result = sorted
	return state, state.Result, nil
}
