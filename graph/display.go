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

package graph

import (
	"fmt"
	"strings"
)

// TreePrinter renders a labelled tree as indented ASCII, matching the
// teacher's sql.TreePrinter exactly (grounded on sql/treeprinter_test.go,
// the one surviving file for that type in the retrieval pack — its
// non-test source was not retrieved, so this is a from-scratch
// reimplementation built to satisfy that test's documented contract).
type TreePrinter struct {
	lines []string
}

// NewTreePrinter returns an empty printer.
func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

// WriteNode sets this printer's own node label. It must be called
// before WriteChildren and at most once.
func (p *TreePrinter) WriteNode(format string, args ...interface{}) {
	label := fmt.Sprintf(format, args...)
	if len(p.lines) == 0 {
		p.lines = append(p.lines, label)
		return
	}
	p.lines[0] = label
}

// WriteChildren attaches child blocks, each either a single label or
// another TreePrinter's rendered String() output.
func (p *TreePrinter) WriteChildren(children ...string) {
	if len(p.lines) == 0 {
		p.lines = append(p.lines, "")
	}
	p.lines = append(p.lines, children...)
}

// String renders the tree.
func (p *TreePrinter) String() string {
	if len(p.lines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.lines[0])
	sb.WriteString("\n")

	children := p.lines[1:]
	for i, child := range children {
		last := i == len(children)-1
		for j, line := range strings.Split(child, "\n") {
			if line == "" {
				continue
			}
			if j == 0 {
				if last {
					sb.WriteString(" └─ ")
				} else {
					sb.WriteString(" ├─ ")
				}
			} else if last {
				sb.WriteString("    ")
			} else {
				sb.WriteString(" │  ")
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Tree renders the whole graph as an ASCII ancestry tree rooted at
// each output node (a query graph may have more than one output).
func Tree(g *Graph) string {
	var sb strings.Builder
	for _, root := range g.OutputNodes() {
		sb.WriteString(treeFor(g, root).String())
	}
	return sb.String()
}

func treeFor(g *Graph, n *Node) *TreePrinter {
	p := NewTreePrinter()
	p.WriteNode("%s(%s)", n.Operator.Kind(), n.ID)
	var children []string
	for _, inID := range n.Inputs {
		in, ok := g.Node(inID)
		if !ok {
			continue
		}
		children = append(children, treeFor(g, in).String())
	}
	if len(children) > 0 {
		p.WriteChildren(children...)
	}
	return p
}

// DOT renders the graph in Graphviz DOT format, labelling each node
// with its kind, ID, and fingerprint for quick visual diffing between
// graph revisions.
func DOT(g *Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph flowengine {\n")
	for _, n := range g.Nodes() {
		fp, _ := n.Fingerprint()
		sb.WriteString(fmt.Sprintf("  %q [label=%q];\n", n.ID,
			fmt.Sprintf("%s\\n%s\\nfp:%x", n.Operator.Kind(), n.ID, fp)))
	}
	for _, n := range g.Nodes() {
		for i, inID := range n.Inputs {
			sb.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", inID, n.ID, fmt.Sprintf("input%d", i)))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
