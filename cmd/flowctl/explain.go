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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/progressiveql/flowengine/graph"
)

var explainGraphPath string

func init() {
	ExplainCmd.Flags().StringVar(&explainGraphPath, "graph", "", "path to a saved graph YAML file (required)")
	ExplainCmd.MarkFlagRequired("graph")
}

// ExplainCmd prints the ASCII tree and DOT rendering of a saved graph.
var ExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Print the ASCII tree and DOT form of a saved graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(explainGraphPath)
		if err != nil {
			return fmt.Errorf("flowctl explain: %w", err)
		}
		g, err := graph.Load(data)
		if err != nil {
			return fmt.Errorf("flowctl explain: loading graph: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, graph.Tree(g))
		fmt.Fprintln(out, "---")
		fmt.Fprintln(out, graph.DOT(g))
		return nil
	},
}
