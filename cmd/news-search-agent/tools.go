// Copyright 2025 The NLP Odyssey Authors
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
	"io"
	"text/tabwriter"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/spf13/cobra"
)

func newToolsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Connect the research tool server and list its tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			tools, err := a.pipeline.EnsureTools(ctx)
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), tools)
		},
	}
}

func printTools(w io.Writer, tools []agents.FunctionTool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tools {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", t.Name, firstLine(t.Description)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
