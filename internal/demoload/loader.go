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

// Package demoload is a throwaway newline-delimited-JSON partition
// reader for flowctl's "run" subcommand. It is deliberately naive —
// each column's type is inferred from the first record of each file
// (a whole JSON number makes it Int64, any other number Float64), and
// the first record's keys, sorted alphabetically, give the column
// order — and exists only to feed a sample
// graph from the command line, never to define the runtime's actual
// partition ingestion contract.
package demoload

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/progressiveql/flowengine/frame"
)

// Ticks returns the sorted list of partition directories under root,
// one per scheduler tick, each holding one newline-delimited-JSON file
// per table.
func Ticks(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("demoload: read %s: %w", root, err)
	}
	var ticks []string
	for _, e := range entries {
		if e.IsDir() {
			ticks = append(ticks, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(ticks)
	return ticks, nil
}

// LoadTick reads every "<table>.ndjson" file directly under dir into a
// table-name-keyed map of frames, inferring each frame's schema from
// the field set of its first JSON object.
func LoadTick(dir string) (map[string]*frame.Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("demoload: read %s: %w", dir, err)
	}
	out := make(map[string]*frame.Frame)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".ndjson") {
			continue
		}
		table := strings.TrimSuffix(e.Name(), ".ndjson")
		f, err := loadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("demoload: table %q: %w", table, err)
		}
		out[table] = f
	}
	return out, nil
}

func loadFile(path string) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var rows []map[string]interface{}
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("invalid JSON line: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}

	fields := fieldOrder(rows[0])
	specs := inferSpecs(fields, rows[0])
	schema := frame.NewSchema(specs...)
	b := frame.NewBuilder(schema)
	for _, row := range rows {
		values := make([]interface{}, len(fields))
		for i, name := range fields {
			values[i] = coerce(row[name], specs[i].Type)
		}
		if err := b.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	return b.Finish(), nil
}

// coerce adapts encoding/json's decoded value (always float64 for any
// JSON number) to whatever Go type the inferred Arrow column expects.
func coerce(v interface{}, typ arrow.DataType) interface{} {
	if v == nil {
		return nil
	}
	if typ == arrow.PrimitiveTypes.Int64 {
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	}
	return v
}

// fieldOrder sorts a JSON object's keys alphabetically: map iteration
// order isn't stable, and this loader has no sidecar schema to take
// column order from.
func fieldOrder(row map[string]interface{}) []string {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func inferSpecs(fields []string, sample map[string]interface{}) []frame.ColumnSpec {
	specs := make([]frame.ColumnSpec, len(fields))
	for i, name := range fields {
		specs[i] = frame.ColumnSpec{Name: name, Type: inferType(sample[name]), Nullable: true}
	}
	return specs
}

func inferType(v interface{}) arrow.DataType {
	switch n := v.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case float64:
		if n == float64(int64(n)) {
			return arrow.PrimitiveTypes.Int64
		}
		return arrow.PrimitiveTypes.Float64
	case string:
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.String
	}
}
