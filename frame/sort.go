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
	"sort"
)

// SortKey names one sort column and its direction.
type SortKey struct {
	Column string
	Desc   bool
}

// SortBy performs a stable, multi-key sort with per-key direction.
// Ties on all keys preserve input order (the "stable" half of
// spec.md §4.1 ORDERBY).
func SortBy(f *Frame, keys []SortKey) (*Frame, error) {
	if len(keys) == 0 {
		return f, nil
	}
	n := int(f.NumRows())
	cols := make([]int, len(keys))
	for i, k := range keys {
		idxs := f.Schema().FieldIndices(k.Column)
		if len(idxs) != 1 {
			return nil, fmt.Errorf("frame: unknown sort column %q", k.Column)
		}
		cols[i] = idxs[0]
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := idx[a], idx[b]
		for ki, k := range keys {
			c := compareColumnAt(f.record.Column(cols[ki]), ra, rb)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	rec, err := Take(f.record, idx)
	if err != nil {
		return nil, fmt.Errorf("frame: sort: %w", err)
	}
	return New(rec), nil
}
