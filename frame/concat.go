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

// Concatenable reports whether two frames share an equal schema
// (field names, types, and order) and can therefore be vertically
// concatenated.
func Concatenable(a, b *Frame) bool {
	return a.Schema().Equal(b.Schema())
}

// Concat vertically concatenates frames, preserving order: all rows
// of frames[0] first, then frames[1], and so on. All frames must be
// concatenable with one another; Concat of zero frames is an error,
// callers should special-case that against their own "no delta yet"
// state instead.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("frame: concat requires at least one frame")
	}
	schema := frames[0].Schema()
	records := make([]arrow.Record, 0, len(frames))
	for _, f := range frames {
		if !f.Schema().Equal(schema) {
			return nil, fmt.Errorf("frame: concat schema mismatch: %s vs %s", schema, f.Schema())
		}
		records = append(records, f.record)
	}
	if len(records) == 1 {
		return New(records[0]), nil
	}
	numCols := int(schema.NumFields())
	cols := make([]arrow.Array, numCols)
	var numRows int64
	for c := 0; c < numCols; c++ {
		parts := make([]arrow.Array, len(records))
		for i, rec := range records {
			parts[i] = rec.Column(c)
		}
		merged, err := array.Concatenate(parts, Allocator)
		if err != nil {
			return nil, fmt.Errorf("frame: concat column %q: %w", schema.Field(c).Name, err)
		}
		cols[c] = merged
		numRows = int64(merged.Len())
	}
	return New(array.NewRecord(schema, cols, numRows)), nil
}
