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

// Package frame implements the columnar table facade that the
// operator algebra is built on (vertical concatenation, projection,
// filtering, equi-join, group-by aggregation, multi-key sort, and
// scalar column arithmetic). It wraps Apache Arrow's Go columnar
// format for schema and array storage; the relational kernels
// themselves are hand-written over Arrow arrays rather than Arrow's
// compute engine (see DESIGN.md).
package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Allocator is the shared Arrow memory allocator used throughout the
// runtime. A single Go-heap allocator is sufficient: the engine has
// no durability or off-heap requirements (spec Non-goals).
var Allocator memory.Allocator = memory.NewGoAllocator()

// Frame is an ordered, typed, named-column table. Frames are
// immutable once produced by an operator; every transformation in
// this package returns a new Frame rather than mutating its inputs.
type Frame struct {
	record arrow.Record
}

// New wraps an existing Arrow record as a Frame.
func New(record arrow.Record) *Frame {
	return &Frame{record: record}
}

// Record returns the underlying Arrow record.
func (f *Frame) Record() arrow.Record {
	return f.record
}

// Schema returns the frame's column schema.
func (f *Frame) Schema() *arrow.Schema {
	return f.record.Schema()
}

// NumRows returns the row count.
func (f *Frame) NumRows() int64 {
	if f == nil || f.record == nil {
		return 0
	}
	return f.record.NumRows()
}

// Empty reports whether the frame has zero rows (or is nil, which
// represents the scheduler's "no output" / Empty sentinel, see §7).
func (f *Frame) Empty() bool {
	return f.NumRows() == 0
}

// ColumnNames returns the ordered column names.
func (f *Frame) ColumnNames() []string {
	fields := f.Schema().Fields()
	names := make([]string, len(fields))
	for i, fld := range fields {
		names[i] = fld.Name
	}
	return names
}

// Column returns the named column's array. It fails if the column is
// absent, or if the name is ambiguous (more than one field sharing
// the name).
func (f *Frame) Column(name string) (arrow.Array, error) {
	idxs := f.Schema().FieldIndices(name)
	if len(idxs) == 0 {
		return nil, fmt.Errorf("frame: unknown column %q", name)
	}
	if len(idxs) > 1 {
		return nil, fmt.Errorf("frame: ambiguous column %q", name)
	}
	return f.record.Column(idxs[0]), nil
}

// HasColumn reports whether name resolves to exactly one column.
func (f *Frame) HasColumn(name string) bool {
	return len(f.Schema().FieldIndices(name)) == 1
}

// EmptyWithSchema constructs a zero-row frame with the given schema,
// useful as the identity element for Concat. The scheduler does not
// use it: when no path reaches the eval node it returns the node's
// retained result or nil.
func EmptyWithSchema(schema *arrow.Schema) *Frame {
	cols := make([]arrow.Array, len(schema.Fields()))
	for i, fld := range schema.Fields() {
		cols[i] = array.MakeArrayOfNull(Allocator, fld.Type, 0)
	}
	return New(array.NewRecord(schema, cols, 0))
}

// ValueAt reads the value of a single cell as a Go value (nil for
// SQL NULL). It understands the arrow types this package's operators
// produce: Int64, Float64, String, Boolean, and Date32.
func ValueAt(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime()
	default:
		return nil
	}
}

// Row materializes row i as a slice of Go values in schema order,
// mainly useful for tests and for the demo loader/CLI.
func (f *Frame) Row(i int) []interface{} {
	n := int(f.record.NumCols())
	row := make([]interface{}, n)
	for c := 0; c < n; c++ {
		row[c] = ValueAt(f.record.Column(c), i)
	}
	return row
}

// Rows materializes every row; intended for small frames (tests,
// CLI pretty-printing), never for the hot path.
func (f *Frame) Rows() [][]interface{} {
	n := int(f.NumRows())
	rows := make([][]interface{}, n)
	for i := 0; i < n; i++ {
		rows[i] = f.Row(i)
	}
	return rows
}
