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

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Reduce groups f by keys and sums each of reduceCols within each
// group, preserving each column's original numeric type (Int64 stays
// Int64, Float64 stays Float64). It is GROUPBYAGG.merge's "re-group-sum"
// step (spec.md §4.1): both sum and count aggregates distribute over
// union, so merging is re-grouping the concatenation of the prior
// result with the new delta's evaluate() output and summing again.
func Reduce(f *Frame, keys []string, reduceCols []string) (*Frame, error) {
	n := int(f.NumRows())
	keyIdx := make([]int, len(keys))
	for i, name := range keys {
		idxs := f.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown group-by column %q", name)
		}
		keyIdx[i] = idxs[0]
	}
	reduceIdx := make([]int, len(reduceCols))
	for i, name := range reduceCols {
		idxs := f.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown reduce column %q", name)
		}
		reduceIdx[i] = idxs[0]
	}

	order := make([]string, 0)
	firstRow := make(map[string]int)
	groupIndex := make(map[string]int)
	groupOf := make([]int, n)
	for r := 0; r < n; r++ {
		k := ""
		if len(keyIdx) > 0 {
			k = compositeKey(f.record, keyIdx, r)
		}
		gi, ok := groupIndex[k]
		if !ok {
			gi = len(order)
			groupIndex[k] = gi
			order = append(order, k)
			firstRow[k] = r
		}
		groupOf[r] = gi
	}
	numGroups := len(order)

	floatSums := make([][]float64, len(reduceIdx))
	intSums := make([][]int64, len(reduceIdx))
	isFloat := make([]bool, len(reduceIdx))
	for i, idx := range reduceIdx {
		switch f.record.Column(idx).(type) {
		case *array.Float64:
			isFloat[i] = true
			floatSums[i] = make([]float64, numGroups)
		case *array.Int64:
			intSums[i] = make([]int64, numGroups)
		default:
			return nil, fmt.Errorf("frame: reduce column %q is not a numeric aggregate column", reduceCols[i])
		}
	}

	for r := 0; r < n; r++ {
		gi := groupOf[r]
		for i, idx := range reduceIdx {
			col := f.record.Column(idx)
			if isFloat[i] {
				c := col.(*array.Float64)
				if !c.IsNull(r) {
					floatSums[i][gi] += c.Value(r)
				}
			} else {
				c := col.(*array.Int64)
				if !c.IsNull(r) {
					intSums[i][gi] += c.Value(r)
				}
			}
		}
	}

	fields := make([]arrow.Field, 0, len(keys)+len(reduceCols))
	for _, idx := range keyIdx {
		fields = append(fields, f.Schema().Field(idx))
	}
	for _, idx := range reduceIdx {
		fields = append(fields, f.Schema().Field(idx))
	}
	schema := arrow.NewSchema(fields, nil)

	cols := make([]arrow.Array, 0, len(fields))
	if len(keyIdx) > 0 {
		repRows := make([]int, numGroups)
		for i, k := range order {
			repRows[i] = firstRow[k]
		}
		for _, idx := range keyIdx {
			col, err := takeColumn(f.record.Column(idx), repRows)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
		}
	}
	for i := range reduceIdx {
		if isFloat[i] {
			b := array.NewFloat64Builder(Allocator)
			for g := 0; g < numGroups; g++ {
				b.Append(floatSums[i][g])
			}
			cols = append(cols, b.NewFloat64Array())
			b.Release()
		} else {
			b := array.NewInt64Builder(Allocator)
			for g := 0; g < numGroups; g++ {
				b.Append(intSums[i][g])
			}
			cols = append(cols, b.NewInt64Array())
			b.Release()
		}
	}
	return New(array.NewRecord(schema, cols, int64(numGroups))), nil
}
