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
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ColumnSpec declares one named, typed column for NewSchema.
type ColumnSpec struct {
	Name     string
	Type     arrow.DataType
	Nullable bool
}

// NewSchema builds an Arrow schema from column specs, in order.
func NewSchema(cols ...ColumnSpec) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}

// Builder accumulates Go-typed rows into a Frame. It is used by the
// demo loader and by tests to construct partitions without hand
// wiring Arrow builders.
type Builder struct {
	schema   *arrow.Schema
	builders []array.Builder
}

// NewBuilder allocates column builders for schema.
func NewBuilder(schema *arrow.Schema) *Builder {
	builders := make([]array.Builder, len(schema.Fields()))
	for i, fld := range schema.Fields() {
		builders[i] = array.NewBuilder(Allocator, fld.Type)
	}
	return &Builder{schema: schema, builders: builders}
}

// AppendRow appends one row. Values must align with the schema order;
// nil represents SQL NULL. Date32 columns accept either time.Time or
// an ISO "YYYY-MM-DD" string.
func (b *Builder) AppendRow(values ...interface{}) error {
	if len(values) != len(b.builders) {
		return fmt.Errorf("frame: row has %d values, schema has %d columns", len(values), len(b.builders))
	}
	for i, v := range values {
		if err := appendValue(b.builders[i], b.schema.Field(i).Type, v); err != nil {
			return fmt.Errorf("frame: column %q: %w", b.schema.Field(i).Name, err)
		}
	}
	return nil
}

func appendValue(bld array.Builder, typ arrow.DataType, v interface{}) error {
	if v == nil {
		bld.AppendNull()
		return nil
	}
	switch b := bld.(type) {
	case *array.Int64Builder:
		switch n := v.(type) {
		case int64:
			b.Append(n)
		case int:
			b.Append(int64(n))
		default:
			return fmt.Errorf("expected int64-compatible value, got %T", v)
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			b.Append(n)
		case float32:
			b.Append(float64(n))
		case int:
			b.Append(float64(n))
		case int64:
			b.Append(float64(n))
		default:
			return fmt.Errorf("expected float64-compatible value, got %T", v)
		}
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		b.Append(s)
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		b.Append(bv)
	case *array.Date32Builder:
		switch d := v.(type) {
		case time.Time:
			b.Append(arrow.Date32FromTime(d))
		case string:
			t, err := time.Parse("2006-01-02", d)
			if err != nil {
				return fmt.Errorf("invalid date literal %q: %w", d, err)
			}
			b.Append(arrow.Date32FromTime(t))
		default:
			return fmt.Errorf("expected date, got %T", v)
		}
	default:
		return fmt.Errorf("unsupported column type %s", typ)
	}
	return nil
}

// Finish builds the accumulated rows into a Frame and resets the
// builders so the Builder can be reused for the next partition.
func (b *Builder) Finish() *Frame {
	cols := make([]arrow.Array, len(b.builders))
	n := int64(0)
	for i, bld := range b.builders {
		cols[i] = bld.NewArray()
		n = int64(cols[i].Len())
	}
	return New(array.NewRecord(b.schema, cols, n))
}
