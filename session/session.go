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

// Package session implements the progressive query engine's task
// scheduler (spec.md §4.3): a FIFO task queue that drives a query
// graph's operators incrementally, one delta at a time, dispatching
// each node through evaluate or merge according to its classification
// and the task type it was reached by.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"

	"github.com/progressiveql/flowengine/frame"
	"github.com/progressiveql/flowengine/graph"
	"github.com/progressiveql/flowengine/op"
)

// Session runs incremental evaluations against a fixed query graph,
// retaining per-node state across calls to RunIncremental the way a
// long-lived query does across successive partition arrivals.
type Session struct {
	ID    string
	graph *graph.Graph

	state map[graph.NodeID]op.State

	log     *logrus.Entry
	tracer  opentracing.Tracer
	metrics *metrics
}

// Option configures a Session at construction.
type Option func(*Session)

// WithTracer overrides the tracer used for per-run and per-task spans.
// Defaults to opentracing.GlobalTracer().
func WithTracer(tracer opentracing.Tracer) Option {
	return func(s *Session) { s.tracer = tracer }
}

// WithMetricsRegisterer registers the session's Prometheus collectors
// into reg instead of leaving them unregistered.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(s *Session) { s.metrics = newMetrics(reg) }
}

// WithLogger overrides the base logger entry the session annotates
// with its session ID.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// New constructs a Session bound to g. Each Session gets a fresh
// UUID (satori/go.uuid) used to correlate logs and trace spans across
// the lifetime of the session.
func New(g *graph.Graph, opts ...Option) *Session {
	id, _ := uuid.NewV4()
	s := &Session{
		ID:      id.String(),
		graph:   g,
		state:   make(map[graph.NodeID]op.State),
		log:     logrus.WithField("component", "session"),
		tracer:  opentracing.GlobalTracer(),
		metrics: newMetrics(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("session_id", s.ID)
	return s
}

// RunIncremental feeds one batch of per-table deltas through the
// graph toward evalNode and returns the resulting frame at that node
// (spec.md §4.3). evalNode must name an output node with no inbound
// edges violated by inputNodes: every key of inputNodes must be a
// source node (no parents of its own).
//
// The returned frame is evalNode's full current accumulated result,
// not just this tick's delta. RunIncremental returns a nil frame, not
// an error, when no task reaches evalNode this tick and evalNode holds
// no retained merge state: every path to it is still gated on a
// missing input (e.g. an INNERJOIN that has only ever seen one of its
// two sides), or evalNode is reached only by evaluate tasks (e.g. a
// LIMIT above an ORDERBY), which keep no state between ticks. Callers
// must check for nil before calling any *frame.Frame method on the
// result.
func (s *Session) RunIncremental(ctx context.Context, evalNode graph.NodeID, inputNodes map[graph.NodeID]*frame.Frame) (*frame.Frame, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, s.tracer, "session.run_incremental")
	defer span.Finish()
	span.SetTag("session_id", s.ID)
	span.SetTag("eval_node", string(evalNode))

	target, ok := s.graph.Node(evalNode)
	if !ok || !target.Output {
		return nil, op.ErrConfig.New(fmt.Sprintf("eval_node %q is not an output node", evalNode))
	}

	q := &taskQueue{}
	for nodeID, delta := range inputNodes {
		n, ok := s.graph.Node(nodeID)
		if !ok {
			return nil, op.ErrConfig.New(fmt.Sprintf("unknown input node %q", nodeID))
		}
		if len(n.Inputs) != 0 {
			return nil, op.ErrConfig.New(fmt.Sprintf("input node %q has inbound edges", nodeID))
		}
		q.push(Task{Node: nodeID, Input: map[string]*frame.Frame{op.InputSlot(0): delta}, Type: TaskIncrementalEvaluate})
	}

	var result *frame.Frame
	for {
		task, ok := q.pop()
		if !ok {
			break
		}

		dispatchSpan, _ := opentracing.StartSpanFromContextWithTracer(ctx, s.tracer, "session.dispatch")
		dispatchSpan.SetTag("node", string(task.Node))
		dispatchSpan.SetTag("task_type", string(task.Type))

		n, ok := s.graph.Node(task.Node)
		if !ok {
			dispatchSpan.Finish()
			return nil, op.ErrSchema.New(fmt.Sprintf("task references unknown node %q", task.Node))
		}

		gated := s.isGated(n, task)
		start := time.Now()
		out, err := s.execute(n, task)
		s.metrics.observeTask(task.Type, q.len(), time.Since(start))
		dispatchSpan.Finish()
		if err != nil {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"node": task.Node, "type": task.Type, "gated": gated,
		}).Debug("task dispatched")

		if task.Node == evalNode && out != nil {
			result = out
		}
		if out == nil || gated {
			continue
		}

		for _, parent := range s.graph.Parents(task.Node) {
			slotIdx := indexOf(parent.Inputs, task.Node)
			if slotIdx < 0 {
				continue
			}
			nt := nextTaskType(parent, evalNode, task.Type)
			q.push(Task{
				Node:  parent.ID,
				Input: map[string]*frame.Frame{op.InputSlot(slotIdx): out},
				Type:  nt,
			})
		}
	}

	if result == nil {
		// evalNode made no progress this run (nothing dispatched to it,
		// or it dispatched but stayed gated). If its retained merge
		// state holds a result from a prior run, that value is still
		// current and is returned; otherwise (never merged, or reached
		// only by evaluate tasks) the result is nil.
		result = s.state[evalNode].Result
	}
	return result, nil
}

// execute runs a dispatched task against its node. A node only ever
// reaches the merge cases below via a task type nextTaskType assigns
// to boundary and stateful-input nodes, but the persisted state write
// is still gated on graph.NeedsState(n) (spec.md §4.2's needs_state)
// rather than on that dispatch side effect, so the two don't drift
// apart if the priority table ever changes.
func (s *Session) execute(n *graph.Node, task Task) (*frame.Frame, error) {
	switch task.Type {
	case TaskIncrementalEvaluate, TaskEvaluate:
		return n.Operator.Evaluate(task.Input)
	case TaskMergeStateful:
		st := s.state[task.Node]
		newState, out, err := n.Operator.Merge(st, task.Input, true)
		if err != nil {
			return nil, err
		}
		if graph.NeedsState(n) {
			s.state[task.Node] = newState
		}
		return out, nil
	case TaskMergeResult:
		st := s.state[task.Node]
		newState, out, err := n.Operator.Merge(st, task.Input, false)
		if err != nil {
			return nil, err
		}
		if graph.NeedsState(n) {
			s.state[task.Node] = newState
		}
		return out, nil
	default:
		return nil, op.ErrUnsupported.New(fmt.Sprintf("task type %q", task.Type))
	}
}

// isGated implements the missing-input gate (spec.md §4.3 step 2):
// for a node with multiple inbound slots, every slot's combined input
// (retained state buffer union this task's delta) must have at least
// one row, or the task runs (to update state) but nothing propagates
// to its parents.
func (s *Session) isGated(n *graph.Node, task Task) bool {
	if len(n.Inputs) < 2 {
		return false
	}
	st := s.state[n.ID]
	for i := range n.Inputs {
		var buf *frame.Frame
		if st.Inputs != nil && i < len(st.Inputs) {
			buf = st.Inputs[i]
		}
		delta := task.Input[op.InputSlot(i)]
		if (buf != nil && buf.NumRows() > 0) || (delta != nil && delta.NumRows() > 0) {
			continue
		}
		return true
	}
	return false
}

// nextTaskType chooses the task type a parent is dispatched with,
// following spec.md §4.3's priority-ordered table exactly (first
// matching row wins).
func nextTaskType(parent *graph.Node, evalNode graph.NodeID, incoming TaskType) TaskType {
	isBoundary := parent.ID == evalNode || parent.Class() == op.ClassDM
	if isBoundary && (incoming == TaskIncrementalEvaluate || incoming == TaskMergeStateful) {
		return TaskMergeResult
	}
	if parent.Operator.StatefulInputs() {
		return TaskMergeStateful
	}
	if incoming == TaskMergeResult {
		return TaskEvaluate
	}
	return TaskIncrementalEvaluate
}

func indexOf(ids []graph.NodeID, target graph.NodeID) int {
	for i, id := range ids {
		if id == target {
			return i
		}
	}
	return -1
}
