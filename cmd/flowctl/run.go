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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/progressiveql/flowengine/frame"
	"github.com/progressiveql/flowengine/graph"
	"github.com/progressiveql/flowengine/internal/demoload"
	"github.com/progressiveql/flowengine/op"
	"github.com/progressiveql/flowengine/session"
)

var (
	runGraphPath    string
	runPartitions   string
	runOutputNodeID string
)

func init() {
	RunCmd.Flags().StringVar(&runGraphPath, "graph", "", "path to a saved graph YAML file (required)")
	RunCmd.Flags().StringVar(&runPartitions, "partitions", "", "directory of tick subdirectories holding per-table .ndjson files (required)")
	RunCmd.Flags().StringVar(&runOutputNodeID, "output", "", "output node to report each tick (default: the graph's sole output node)")
	RunCmd.MarkFlagRequired("graph")
	RunCmd.MarkFlagRequired("partitions")
}

// RunCmd loads a saved graph, feeds it tick-by-tick from a demo
// partition directory, and prints each tick's snapshot of the output
// node to stdout.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Feed a saved graph from a demo partition directory and print each tick's output",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(runGraphPath)
		if err != nil {
			return fmt.Errorf("flowctl run: %w", err)
		}
		g, err := graph.Load(data)
		if err != nil {
			return fmt.Errorf("flowctl run: loading graph: %w", err)
		}

		evalNode, err := resolveOutputNode(g, runOutputNodeID)
		if err != nil {
			return err
		}

		tableNodes := tableNodesByName(g)

		ticks, err := demoload.Ticks(runPartitions)
		if err != nil {
			return fmt.Errorf("flowctl run: %w", err)
		}

		sess := session.New(g, session.WithLogger(logrus.WithField("command", "run")))
		ctx := context.Background()

		for i, tickDir := range ticks {
			partitions, err := demoload.LoadTick(tickDir)
			if err != nil {
				return fmt.Errorf("flowctl run: tick %d: %w", i, err)
			}
			inputs, err := mapToNodeInputs(tableNodes, partitions)
			if err != nil {
				return fmt.Errorf("flowctl run: tick %d: %w", i, err)
			}

			out, err := sess.RunIncremental(ctx, evalNode, inputs)
			if err != nil {
				return fmt.Errorf("flowctl run: tick %d: %w", i, err)
			}

			printTick(cmd, i, out)
		}
		return nil
	},
}

func resolveOutputNode(g *graph.Graph, requested string) (graph.NodeID, error) {
	if requested != "" {
		n, ok := g.Node(graph.NodeID(requested))
		if !ok || !n.Output {
			return "", fmt.Errorf("flowctl run: %q is not an output node", requested)
		}
		return n.ID, nil
	}
	outputs := g.OutputNodes()
	if len(outputs) != 1 {
		return "", fmt.Errorf("flowctl run: graph has %d output nodes, pass --output to pick one", len(outputs))
	}
	return outputs[0].ID, nil
}

func tableNodesByName(g *graph.Graph) map[string]graph.NodeID {
	names := make(map[string]graph.NodeID)
	for _, n := range g.Sources() {
		tbl, ok := n.Operator.(*op.Table)
		if !ok {
			continue
		}
		names[tbl.TableName()] = n.ID
	}
	return names
}

// mapToNodeInputs rekeys a tick's table-name-keyed partitions by the
// TABLE node ID that consumes them, erroring on any table a loaded
// partition names that the graph doesn't declare a source for.
func mapToNodeInputs(tableNodes map[string]graph.NodeID, partitions map[string]*frame.Frame) (map[graph.NodeID]*frame.Frame, error) {
	inputs := make(map[graph.NodeID]*frame.Frame, len(partitions))
	for table, delta := range partitions {
		nodeID, ok := tableNodes[table]
		if !ok {
			return nil, fmt.Errorf("partition file names table %q, which no TABLE node in the graph reads", table)
		}
		inputs[nodeID] = delta
	}
	return inputs, nil
}

func printTick(cmd *cobra.Command, tick int, out *frame.Frame) {
	if out == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "tick %d: (gated, no output)\n", tick)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "tick %d: %d row(s)\n", tick, out.NumRows())
	for _, col := range out.ColumnNames() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s", col)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for _, row := range out.Rows() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", row)
	}
}
