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

	"gopkg.in/yaml.v2"

	"github.com/progressiveql/flowengine/expr"
	"github.com/progressiveql/flowengine/op"
)

// exprDoc is the YAML mirror of expr.Expr's three-variant AST: a leaf
// has Col or Lit set, an interior node has Op/Left/Right set.
type exprDoc struct {
	Col   string      `yaml:"col,omitempty"`
	Lit   interface{} `yaml:"lit"`
	Op    string      `yaml:"op,omitempty"`
	Left  *exprDoc    `yaml:"left,omitempty"`
	Right *exprDoc    `yaml:"right,omitempty"`
}

func exprToDoc(e expr.Expr) (*exprDoc, error) {
	switch v := e.(type) {
	case expr.Col:
		return &exprDoc{Col: v.Name}, nil
	case expr.Lit:
		return &exprDoc{Lit: v.Value}, nil
	case expr.BinOp:
		left, err := exprToDoc(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := exprToDoc(v.Right)
		if err != nil {
			return nil, err
		}
		return &exprDoc{Op: v.Op, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("graph: unknown expr node %T", e)
	}
}

func exprFromDoc(d *exprDoc) (expr.Expr, error) {
	if d == nil {
		return nil, fmt.Errorf("graph: nil expression")
	}
	switch {
	case d.Col != "":
		return expr.Col{Name: d.Col}, nil
	case d.Op != "":
		left, err := exprFromDoc(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := exprFromDoc(d.Right)
		if err != nil {
			return nil, err
		}
		return expr.BinOp{Op: d.Op, Left: left, Right: right}, nil
	default:
		return expr.Lit{Value: d.Lit}, nil
	}
}

type aggArgDoc struct {
	Op    string   `yaml:"op"`
	Col   *exprDoc `yaml:"col,omitempty"`
	Alias string   `yaml:"alias"`
}

type groupByAggArgsDoc struct {
	GroupByKey []string    `yaml:"groupby_key"`
	Aggregates []aggArgDoc `yaml:"aggregates"`
}

// nodeDoc is the YAML mirror of a single Node. Args is kind-specific
// and re-decoded by buildOperator once Kind is known.
type nodeDoc struct {
	ID     NodeID      `yaml:"id"`
	Kind   op.Kind     `yaml:"kind"`
	Inputs []NodeID    `yaml:"inputs,omitempty"`
	Output bool        `yaml:"output,omitempty"`
	Args   interface{} `yaml:"args"`
}

type graphDoc struct {
	Nodes []nodeDoc `yaml:"nodes"`
}

func nodeToDoc(n *Node) (nodeDoc, error) {
	doc := nodeDoc{ID: n.ID, Kind: n.Operator.Kind(), Inputs: n.Inputs, Output: n.Output}
	if g, ok := n.Operator.(*op.GroupByAgg); ok {
		args := g.Args().(op.GroupByAggArgs)
		aggDocs := make([]aggArgDoc, len(args.Aggregates))
		for i, a := range args.Aggregates {
			ad := aggArgDoc{Op: a.Op, Alias: a.Alias}
			if a.Col != nil {
				ed, err := exprToDoc(a.Col)
				if err != nil {
					return nodeDoc{}, err
				}
				ad.Col = ed
			}
			aggDocs[i] = ad
		}
		doc.Args = groupByAggArgsDoc{GroupByKey: args.GroupByKey, Aggregates: aggDocs}
		return doc, nil
	}
	doc.Args = n.Operator.Args()
	return doc, nil
}

// Save serializes the graph to YAML (spec.md §4.2).
func Save(g *Graph) ([]byte, error) {
	doc := graphDoc{}
	for _, n := range g.Nodes() {
		nd, err := nodeToDoc(n)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	return yaml.Marshal(doc)
}

// Load deserializes a graph previously produced by Save.
func Load(data []byte) (*Graph, error) {
	var doc graphDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph: decode: %w", err)
	}
	g := New()
	for _, nd := range doc.Nodes {
		operator, err := buildOperator(nd)
		if err != nil {
			return nil, fmt.Errorf("graph: node %q: %w", nd.ID, err)
		}
		if err := g.AddNode(nd.ID, operator, nd.Inputs, nd.Output); err != nil {
			return nil, err
		}
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return g, nil
}

// remarshal re-encodes an interface{} decoded generically by
// yaml.Unmarshal (map[interface{}]interface{} nesting) into dst, a
// pointer to the kind-specific args struct, by round-tripping through
// YAML bytes. This is the standard trick for decoding a polymorphic
// field whose concrete type is only known once a sibling tag (Kind)
// has been read.
func remarshal(src interface{}, dst interface{}) error {
	raw, err := yaml.Marshal(src)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, dst)
}

func buildOperator(nd nodeDoc) (op.Operator, error) {
	switch nd.Kind {
	case op.KindTable:
		var args op.TableArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewTable(args)
	case op.KindWhere:
		var args op.WhereArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewWhere(args)
	case op.KindSelect:
		var args op.SelectArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewSelect(args)
	case op.KindInnerJoin:
		var args op.InnerJoinArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewInnerJoin(args)
	case op.KindGroupByAgg:
		var docArgs groupByAggArgsDoc
		if err := remarshal(nd.Args, &docArgs); err != nil {
			return nil, err
		}
		args := op.GroupByAggArgs{GroupByKey: docArgs.GroupByKey}
		for _, ad := range docArgs.Aggregates {
			a := op.AggArg{Op: ad.Op, Alias: ad.Alias}
			if ad.Col != nil {
				e, err := exprFromDoc(ad.Col)
				if err != nil {
					return nil, err
				}
				a.Col = e
			}
			args.Aggregates = append(args.Aggregates, a)
		}
		return op.NewGroupByAgg(args)
	case op.KindOrderBy:
		var args op.OrderByArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewOrderBy(args)
	case op.KindLimit:
		var args op.LimitArgs
		if err := remarshal(nd.Args, &args); err != nil {
			return nil, err
		}
		return op.NewLimit(args)
	default:
		return nil, fmt.Errorf("unknown operator kind %q", nd.Kind)
	}
}
