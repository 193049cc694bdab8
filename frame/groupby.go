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

// AggOp is one of GROUPBYAGG's two distributive aggregates (spec.md
// §4.1): both sum and count over a group distribute over union,
// which is what lets GROUPBYAGG be classified DA (its merge is an
// associative re-reduction rather than a materialization boundary).
type AggOp int

const (
	Sum AggOp = iota
	Count
)

// AggInput is one compiled aggregate: Values holds the already
// evaluated `col` expression (required for Sum, ignored for Count).
type AggInput struct {
	Alias  string
	Op     AggOp
	Values *array.Float64
}

// GroupBySum groups f by keys (empty keys means a single synthetic
// group, per spec.md §4.1) and reduces each AggInput within every
// group. Group order in the output is first-occurrence order of the
// key within f, which keeps GroupBySum deterministic for a given
// input even though spec.md does not otherwise constrain group order.
func GroupBySum(f *Frame, keys []string, aggs []AggInput) (*Frame, error) {
	n := int(f.NumRows())
	keyIdx := make([]int, len(keys))
	for i, name := range keys {
		idxs := f.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown group-by column %q", name)
		}
		keyIdx[i] = idxs[0]
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

	sums := make([][]float64, len(aggs))
	counts := make([][]int64, len(aggs))
	for ai := range aggs {
		sums[ai] = make([]float64, numGroups)
		counts[ai] = make([]int64, numGroups)
	}
	for r := 0; r < n; r++ {
		gi := groupOf[r]
		for ai, agg := range aggs {
			switch agg.Op {
			case Sum:
				if agg.Values == nil {
					return nil, fmt.Errorf("frame: sum aggregate %q has no evaluated expression", agg.Alias)
				}
				if !agg.Values.IsNull(r) {
					sums[ai][gi] += agg.Values.Value(r)
				}
			case Count:
				counts[ai][gi]++
			default:
				return nil, fmt.Errorf("frame: unsupported aggregate op for %q", agg.Alias)
			}
		}
	}

	fields := make([]arrow.Field, 0, len(keys)+len(aggs))
	for _, idx := range keyIdx {
		fields = append(fields, f.Schema().Field(idx))
	}
	for _, agg := range aggs {
		switch agg.Op {
		case Sum:
			fields = append(fields, arrow.Field{Name: agg.Alias, Type: arrow.PrimitiveTypes.Float64})
		case Count:
			fields = append(fields, arrow.Field{Name: agg.Alias, Type: arrow.PrimitiveTypes.Int64})
		}
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
	for ai, agg := range aggs {
		switch agg.Op {
		case Sum:
			b := array.NewFloat64Builder(Allocator)
			for g := 0; g < numGroups; g++ {
				b.Append(sums[ai][g])
			}
			cols = append(cols, b.NewFloat64Array())
			b.Release()
		case Count:
			b := array.NewInt64Builder(Allocator)
			for g := 0; g < numGroups; g++ {
				b.Append(counts[ai][g])
			}
			cols = append(cols, b.NewInt64Array())
			b.Release()
		}
	}
	return New(array.NewRecord(schema, cols, int64(numGroups))), nil
}
