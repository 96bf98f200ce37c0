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
	"strings"
	"time"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/newsagent"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		reportDir string
		details   bool
	)
	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Research a topic once and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
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

			if cmd.Flags().Changed("report-dir") {
				a.cfg.ReportDir = reportDir
			}
			return runTopic(ctx, a, strings.Join(args, " "), cmd.OutOrStdout(), details)
		},
	}
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory where the report is written")
	cmd.Flags().BoolVar(&details, "details", false, "Print the run details after the report")
	return cmd
}

// runTopic runs the pipeline once. The process ends right after, so the
// research tools are connected first: a one-shot run has no later retry
// that could use a connection started in the background.
func runTopic(ctx context.Context, a *app, topic string, w io.Writer, details bool) error {
	if _, err := a.pipeline.EnsureTools(ctx); err != nil {
		return err
	}
	report, err := a.pipeline.Run(ctx, a.runner, topic)
	if err != nil {
		return err
	}

	if report.Interrupted {
		_, err = fmt.Fprintf(w, "[%s] %s\n", report.Result.InterruptedBy, report.Message)
		return err
	}
	if _, err = fmt.Fprintln(w, report.Markdown); err != nil {
		return err
	}

	if a.cfg.ReportDir != "" {
		path, err := newsagent.WriteReport(a.cfg.ReportDir, report, time.Now())
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(w, "\nReport written to %s\n", path); err != nil {
			return err
		}
	}
	if details {
		_, err = fmt.Fprintln(w, "\n"+agents.PrettyPrintResult(*report.Result))
	}
	return err
}
