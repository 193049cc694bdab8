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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.AddCommand(RunCmd)
	RootCmd.AddCommand(ExplainCmd)
	RootCmd.AddCommand(ServeCmd)
}

// RootCmd is the main command for the flowctl binary, an operator CLI
// for the progressive query engine: run a saved graph over a demo
// partition feed, explain its shape, or serve it for inspection.
var RootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "flowctl drives and inspects flowengine query graphs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}
