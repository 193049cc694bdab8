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

package frame

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

const keySeparator = "\x1f"

func compositeKey(rec arrow.Record, colIdx []int, row int) string {
	var b strings.Builder
	for i, c := range colIdx {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		fmt.Fprintf(&b, "%v", ValueAt(rec.Column(c), row))
	}
	return b.String()
}

func columnsOf(rec arrow.Record) []arrow.Array {
	cols := make([]arrow.Array, rec.NumCols())
	for i := range cols {
		cols[i] = rec.Column(i)
	}
	return cols
}

// InnerJoin equi-joins left and right on the named key lists
// (|leftOn| == |rightOn| >= 1). Right-side key columns are dropped
// from the result, matching spec.md §4.1 INNERJOIN. The join is
// implemented as a hash join that builds its index on the right side;
// INNERJOIN's Merge passes the slot-1 frame (buffer or new chunk) as
// the right side.
func InnerJoin(left, right *Frame, leftOn, rightOn []string) (*Frame, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("frame: inner join requires equal, non-empty key lists (got %d left, %d right)", len(leftOn), len(rightOn))
	}

	leftKeyIdx := make([]int, len(leftOn))
	for i, name := range leftOn {
		idxs := left.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown left join column %q", name)
		}
		leftKeyIdx[i] = idxs[0]
	}
	rightKeyIdx := make([]int, len(rightOn))
	rightDrop := make(map[int]bool, len(rightOn))
	for i, name := range rightOn {
		idxs := right.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown right join column %q", name)
		}
		rightKeyIdx[i] = idxs[0]
		rightDrop[idxs[0]] = true
	}

	rightRows := int(right.NumRows())
	index := make(map[string][]int, rightRows)
	for r := 0; r < rightRows; r++ {
		k := compositeKey(right.record, rightKeyIdx, r)
		index[k] = append(index[k], r)
	}

	outFields := append([]arrow.Field{}, left.Schema().Fields()...)
	keepRight := make([]int, 0, right.Schema().NumFields())
	for i, fld := range right.Schema().Fields() {
		if rightDrop[i] {
			continue
		}
		outFields = append(outFields, fld)
		keepRight = append(keepRight, i)
	}
	outSchema := arrow.NewSchema(outFields, nil)

	leftRows := int(left.NumRows())
	var leftIdx, rightIdx []int
	for l := 0; l < leftRows; l++ {
		k := compositeKey(left.record, leftKeyIdx, l)
		for _, r := range index[k] {
			leftIdx = append(leftIdx, l)
			rightIdx = append(rightIdx, r)
		}
	}

	leftPart, err := Take(left.record, leftIdx)
	if err != nil {
		return nil, fmt.Errorf("frame: join left side: %w", err)
	}
	rightPart, err := Take(right.record, rightIdx)
	if err != nil {
		return nil, fmt.Errorf("frame: join right side: %w", err)
	}

	cols := append([]arrow.Array{}, columnsOf(leftPart)...)
	for _, idx := range keepRight {
		cols = append(cols, rightPart.Column(idx))
	}
	return New(array.NewRecord(outSchema, cols, int64(len(leftIdx)))), nil
}
