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

package op_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/progressiveql/flowengine/frame"
	"github.com/progressiveql/flowengine/op"
)

// TestOrderByThenLimitReRanksAcrossTicks covers the combined
// order+limit seed scenario: a later, smaller-value delta must be
// able to displace a row already in the top-K. As in the scheduler,
// LIMIT above the ORDERBY materialization boundary is re-evaluated
// over ORDERBY's full accumulated output each tick.
func TestOrderByThenLimitReRanksAcrossTicks(t *testing.T) {
	ob, err := op.NewOrderBy(op.OrderByArgs{Terms: []op.OrderByTerm{{Column: "size", Order: "asc"}}})
	require.NoError(t, err)
	lim, err := op.NewLimit(op.LimitArgs{K: 2})
	require.NoError(t, err)

	var obState op.State

	chunk1 := lineitemFrame(t,
		[3]interface{}{"A", int64(5), 1.0},
		[3]interface{}{"A", int64(3), 2.0},
	)
	obState, obOut, err := ob.Merge(obState, map[string]*frame.Frame{"input0": chunk1}, false)
	require.NoError(t, err)
	limOut, err := lim.Evaluate(map[string]*frame.Frame{"input0": obOut})
	require.NoError(t, err)
	require.Equal(t, int64(2), limOut.NumRows())
	require.Equal(t, int64(3), limOut.Row(0)[1])
	require.Equal(t, int64(5), limOut.Row(1)[1])

	chunk2 := lineitemFrame(t, [3]interface{}{"B", int64(1), 3.0})
	obState, obOut, err = ob.Merge(obState, map[string]*frame.Frame{"input0": chunk2}, false)
	require.NoError(t, err)
	limOut, err = lim.Evaluate(map[string]*frame.Frame{"input0": obOut})
	require.NoError(t, err)
	require.Equal(t, int64(2), limOut.NumRows())
	require.Equal(t, int64(1), limOut.Row(0)[1])
	require.Equal(t, int64(3), limOut.Row(1)[1])
}

func TestOrderByDescending(t *testing.T) {
	ob, err := op.NewOrderBy(op.OrderByArgs{Terms: []op.OrderByTerm{{Column: "size", Order: "DESC"}}})
	require.NoError(t, err)
	in := lineitemFrame(t,
		[3]interface{}{"A", int64(1), 1.0},
		[3]interface{}{"A", int64(3), 2.0},
	)
	out, err := ob.Evaluate(map[string]*frame.Frame{"input0": in})
	require.NoError(t, err)
	require.Equal(t, int64(3), out.Row(0)[1])
	require.Equal(t, int64(1), out.Row(1)[1])
}

func TestOrderByRejectsBadOrder(t *testing.T) {
	_, err := op.NewOrderBy(op.OrderByArgs{Terms: []op.OrderByTerm{{Column: "size", Order: "sideways"}}})
	require.Error(t, err)
}

func TestLimitRejectsNegativeK(t *testing.T) {
	_, err := op.NewLimit(op.LimitArgs{K: -1})
	require.Error(t, err)
}
