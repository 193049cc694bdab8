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

// Project returns a frame restricted to columns, in the given order.
// An unknown column name is the caller's responsibility to surface as
// a SchemaError (see op.SELECT).
func Project(f *Frame, columns []string) (*Frame, error) {
	fields := make([]arrow.Field, len(columns))
	cols := make([]arrow.Array, len(columns))
	for i, name := range columns {
		idxs := f.Schema().FieldIndices(name)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown column %q", name)
		}
		fields[i] = f.Schema().Field(idxs[0])
		cols[i] = f.record.Column(idxs[0])
	}
	schema := arrow.NewSchema(fields, nil)
	return New(array.NewRecord(schema, cols, f.NumRows())), nil
}
