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

// Command news-search-agent searches the news on a topic and compiles a
// Markdown report, using Bright Data MCP tools and a Gemini or OpenAI model.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	model      string
	sessionID  string
	database   string
	wait       bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := new(rootFlags)
	cmd := &cobra.Command{
		Use:           "news-search-agent",
		Short:         "Search the news on a topic and compile a report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&flags.model, "model", "", "Model name, e.g. gemini-2.0-flash or openai/gpt-4.1")
	pf.StringVar(&flags.sessionID, "session", "", "Session ID (default: a new random ID)")
	pf.StringVar(&flags.database, "db", "", "Session database: SQLite file path or postgres:// URL")
	pf.BoolVar(&flags.wait, "wait", false, "Connect the research tools before the first repl query (run and tools always do)")
	pf.BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(flags),
		newReplCmd(flags),
		newToolsCmd(flags),
	)
	return cmd
}
