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

// Take builds a new record containing only the rows at indices, in
// the given order. It underlies Filter, SortBy, and Head.
func Take(rec arrow.Record, indices []int) (arrow.Record, error) {
	cols := make([]arrow.Array, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		col, err := takeColumn(rec.Column(i), indices)
		if err != nil {
			return nil, fmt.Errorf("frame: take column %q: %w", rec.ColumnName(i), err)
		}
		cols[i] = col
	}
	return array.NewRecord(rec.Schema(), cols, int64(len(indices))), nil
}

func takeColumn(col arrow.Array, indices []int) (arrow.Array, error) {
	switch c := col.(type) {
	case *array.Int64:
		b := array.NewInt64Builder(Allocator)
		defer b.Release()
		for _, idx := range indices {
			if c.IsNull(idx) {
				b.AppendNull()
			} else {
				b.Append(c.Value(idx))
			}
		}
		return b.NewInt64Array(), nil
	case *array.Float64:
		b := array.NewFloat64Builder(Allocator)
		defer b.Release()
		for _, idx := range indices {
			if c.IsNull(idx) {
				b.AppendNull()
			} else {
				b.Append(c.Value(idx))
			}
		}
		return b.NewFloat64Array(), nil
	case *array.String:
		b := array.NewStringBuilder(Allocator)
		defer b.Release()
		for _, idx := range indices {
			if c.IsNull(idx) {
				b.AppendNull()
			} else {
				b.Append(c.Value(idx))
			}
		}
		return b.NewStringArray(), nil
	case *array.Boolean:
		b := array.NewBooleanBuilder(Allocator)
		defer b.Release()
		for _, idx := range indices {
			if c.IsNull(idx) {
				b.AppendNull()
			} else {
				b.Append(c.Value(idx))
			}
		}
		return b.NewBooleanArray(), nil
	case *array.Date32:
		b := array.NewDate32Builder(Allocator)
		defer b.Release()
		for _, idx := range indices {
			if c.IsNull(idx) {
				b.AppendNull()
			} else {
				b.Append(c.Value(idx))
			}
		}
		return b.NewDate32Array(), nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", col.DataType())
	}
}

// Filter returns the rows for which mask is true, preserving order.
func Filter(f *Frame, mask []bool) (*Frame, error) {
	if int64(len(mask)) != f.NumRows() {
		return nil, fmt.Errorf("frame: filter mask has %d entries, frame has %d rows", len(mask), f.NumRows())
	}
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	rec, err := Take(f.record, indices)
	if err != nil {
		return nil, err
	}
	return New(rec), nil
}

// Head returns the first k rows (or fewer, if the frame is shorter).
func Head(f *Frame, k int) *Frame {
	n := int(f.NumRows())
	if k > n {
		k = n
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	rec, err := Take(f.record, indices)
	if err != nil {
		// Take only fails on an unsupported column type, which would
		// already have failed when the frame was first built.
		panic(err)
	}
	return New(rec)
}
