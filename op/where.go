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

import (
	"github.com/progressiveql/flowengine/expr"
	"github.com/progressiveql/flowengine/frame"
)

// PredicateArg is one leaf comparison in a WHERE's DNF/CNF predicate
// list: Left is a column name, Op one of the comparison operators
// expr.Cmp accepts, Right a literal value as decoded from config.
type PredicateArg struct {
	Left  string      `yaml:"left"`
	Op    string      `yaml:"op"`
	Right interface{} `yaml:"right"`
}

// WhereArgs is a two-level list of predicates plus the connective
// ("DNF" or "CNF") the outer list uses (spec.md §4.1): inner lists are
// conjoined under DNF and disjoined under CNF, and the outer list
// composes them with the complementary connective.
type WhereArgs struct {
	Predicates [][]PredicateArg `yaml:"predicates"`
	Form       string           `yaml:"form"`
}

// Where is a row-filtering operator compiled once, at construction,
// into a single expr.CompiledPred closure (spec.md §9 design note) —
// never re-interpreted per row or per tick.
type Where struct {
	args     WhereArgs
	compiled expr.CompiledPred
}

// NewWhere validates args, builds the predicate AST from it, and
// compiles it.
func NewWhere(args WhereArgs) (*Where, error) {
	w := &Where{args: args}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	pred, err := buildPred(args)
	if err != nil {
		return nil, ErrConfig.New(err.Error())
	}
	compiled, err := expr.CompilePred(pred)
	if err != nil {
		return nil, ErrUnsupported.New(err.Error())
	}
	w.compiled = compiled
	return w, nil
}

func (w *Where) Kind() Kind           { return KindWhere }
func (w *Where) StatefulInputs() bool { return false }
func (w *Where) Args() interface{}    { return w.args }

func (w *Where) Validate() error {
	if len(w.args.Predicates) == 0 {
		return ErrConfig.New("WHERE requires at least one predicate group")
	}
	if w.args.Form != "DNF" && w.args.Form != "CNF" {
		return ErrUnsupported.New("WHERE form must be DNF or CNF")
	}
	for _, group := range w.args.Predicates {
		if len(group) == 0 {
			return ErrConfig.New("WHERE predicate group must not be empty")
		}
	}
	return nil
}

func buildPred(args WhereArgs) (expr.Pred, error) {
	groups := make([]expr.Pred, len(args.Predicates))
	for i, group := range args.Predicates {
		cmps := make([]expr.Pred, len(group))
		for j, p := range group {
			cmps[j] = expr.Cmp{Left: expr.Col{Name: p.Left}, Op: p.Op, Right: expr.Lit{Value: p.Right}}
		}
		if args.Form == "DNF" {
			groups[i] = reduceAnd(cmps)
		} else {
			groups[i] = reduceOr(cmps)
		}
	}
	if args.Form == "DNF" {
		return reduceOr(groups), nil
	}
	return reduceAnd(groups), nil
}

func reduceAnd(preds []expr.Pred) expr.Pred {
	out := preds[0]
	for _, p := range preds[1:] {
		out = expr.And{Left: out, Right: p}
	}
	return out
}

func reduceOr(preds []expr.Pred) expr.Pred {
	out := preds[0]
	for _, p := range preds[1:] {
		out = expr.Or{Left: out, Right: p}
	}
	return out
}

// Evaluate filters the sole input frame by the compiled predicate.
func (w *Where) Evaluate(inputs map[string]*frame.Frame) (*frame.Frame, error) {
	in := soleInput(inputs)
	if in == nil {
		return nil, nil
	}
	mask, err := w.compiled.Eval(in)
	if err != nil {
		return nil, ErrSchema.New(err.Error())
	}
	out, err := frame.Filter(in, mask)
	if err != nil {
		return nil, ErrSchema.New(err.Error())
	}
	return out, nil
}

// Merge accumulates filtered deltas by concatenation: row selection
// commutes with concatenation, so there is no re-filtering step here,
// only bookkeeping of the running result for whichever downstream
// consumer asks for it as a materialization boundary.
func (w *Where) Merge(state State, delta map[string]*frame.Frame, returnDelta bool) (State, *frame.Frame, error) {
	d, err := w.Evaluate(delta)
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
