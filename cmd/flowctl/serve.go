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
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/progressiveql/flowengine/graph"
)

var (
	serveGraphPath string
	serveAddr      string
)

func init() {
	ServeCmd.Flags().StringVar(&serveGraphPath, "graph", "", "path to a saved graph YAML file (required)")
	ServeCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	ServeCmd.MarkFlagRequired("graph")
}

// ServeCmd serves a saved graph's DOT rendering alongside liveness and
// Prometheus metrics endpoints, for hooking a running flowctl up to
// operator tooling.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a saved graph's DOT rendering, health, and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(serveGraphPath)
		if err != nil {
			return fmt.Errorf("flowctl serve: %w", err)
		}
		g, err := graph.Load(data)
		if err != nil {
			return fmt.Errorf("flowctl serve: loading graph: %w", err)
		}

		router := mux.NewRouter().StrictSlash(true)
		router.Methods(http.MethodGet).Path("/graph").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/vnd.graphviz")
			fmt.Fprint(w, graph.DOT(g))
		})
		router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "ok")
		})
		router.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())

		logged := handlers.LoggingHandler(os.Stdout, router)
		logrus.WithField("addr", serveAddr).Info("flowctl serve listening")
		return http.ListenAndServe(serveAddr, logged)
	},
}
