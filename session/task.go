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

package session

import (
	"github.com/progressiveql/flowengine/frame"
	"github.com/progressiveql/flowengine/graph"
)

// TaskType names one of the four task kinds the scheduler dispatches
// (spec.md §4.3).
type TaskType string

const (
	// TaskIncrementalEvaluate calls Operator.Evaluate with no state
	// mutation; used below any materialization boundary for nodes
	// that are neither the eval_node nor DM-kind.
	TaskIncrementalEvaluate TaskType = "incremental_evaluate"

	// TaskMergeStateful calls Operator.Merge(..., returnDelta=true);
	// used for nodes whose operator declares stateful_inputs, so they
	// keep accumulating even when not themselves a materialization
	// boundary.
	TaskMergeStateful TaskType = "merge_stateful"

	// TaskMergeResult calls Operator.Merge(..., returnDelta=false);
	// used at a materialization boundary (the eval_node or a DM-kind
	// node) to produce the definitive accumulated frame.
	TaskMergeResult TaskType = "merge_result"

	// TaskEvaluate calls Operator.Evaluate with no state mutation;
	// used above a materialization boundary, where every upstream
	// value is already fully accumulated and only needs pure
	// re-derivation.
	TaskEvaluate TaskType = "evaluate"
)

// Task is one unit of scheduler work: run node's operator against a
// slot-keyed input using the semantics Type names.
type Task struct {
	Node  graph.NodeID
	Input map[string]*frame.Frame
	Type  TaskType
}
