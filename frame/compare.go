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

// CompareValues orders two already-typed Go values of the same kind
// (int64, float64, string, bool, or time.Time) the way WHERE and
// ORDERBY need: numeric values compare numerically, strings compare
// lexicographically, dates compare by calendar day. Nulls (nil) sort
// before any non-null value, matching SQL NULLS FIRST-style ordering.
func CompareValues(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	switch av := a.(type) {
	case int64:
		bv, err := asInt64(b)
		if err != nil {
			return 0, err
		}
		return cmpInt64(av, bv), nil
	case float64:
		bv, err := asFloat64(b)
		if err != nil {
			return 0, err
		}
		return cmpFloat64(av, bv), nil
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("frame: cannot compare string with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("frame: cannot compare bool with %T", b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av && bv:
			return -1, nil
		default:
			return 1, nil
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("frame: cannot compare date with %T", b)
		}
		switch {
		case av.Before(bv):
			return -1, nil
		case av.After(bv):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("frame: unsupported comparison type %T", a)
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("frame: cannot compare int64 with %T", v)
	}
}

func asFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("frame: cannot compare float64 with %T", v)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareColumnAt orders rows i and j of the same array without
// materializing intermediate Go values for the common numeric case,
// falling back to ValueAt + CompareValues otherwise.
func compareColumnAt(arr arrow.Array, i, j int) int {
	ni, nj := arr.IsNull(i), arr.IsNull(j)
	switch {
	case ni && nj:
		return 0
	case ni:
		return -1
	case nj:
		return 1
	}
	switch a := arr.(type) {
	case *array.Int64:
		return cmpInt64(a.Value(i), a.Value(j))
	case *array.Float64:
		return cmpFloat64(a.Value(i), a.Value(j))
	case *array.String:
		vi, vj := a.Value(i), a.Value(j)
		switch {
		case vi < vj:
			return -1
		case vi > vj:
			return 1
		default:
			return 0
		}
	case *array.Date32:
		return cmpInt64(int64(a.Value(i)), int64(a.Value(j)))
	case *array.Boolean:
		vi, vj := a.Value(i), a.Value(j)
		switch {
		case vi == vj:
			return 0
		case !vi && vj:
			return -1
		default:
			return 1
		}
	default:
		c, _ := CompareValues(ValueAt(arr, i), ValueAt(arr, j))
		return c
	}
}
