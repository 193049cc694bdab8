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

package op

import "gopkg.in/src-d/go-errors.v1"

// Error kinds for the operator layer (spec.md §4.1 error taxonomy),
// grounded on the teacher's auth package (auth.ErrNotAuthorized /
// auth.ErrNoPermission) and used the same way: wrap a formatted
// message, compare with errors.Is via the Kind's Is method.
var (
	// ErrConfig reports a malformed or incomplete operator
	// configuration caught at construction time, e.g. a WHERE with
	// no predicates or a GROUPBYAGG aggregate missing an alias.
	ErrConfig = errors.NewKind("config error: %s")

	// ErrSchema reports a mismatch discovered while running an
	// operator against actual data: an unknown column, an
	// incompatible join key type, a non-numeric aggregate column.
	ErrSchema = errors.NewKind("schema error: %s")

	// ErrUnsupported reports a syntactically valid but unimplemented
	// request: an aggregate op other than sum/count, a comparison
	// operator the compiler doesn't recognize.
	ErrUnsupported = errors.NewKind("unsupported: %s")
)
