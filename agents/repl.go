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

package agents

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/nlpodyssey/news-search-agent/memory"
)

// RunDemoLoop runs a simple REPL loop with the given pipeline.
//
// This utility allows quick manual testing and debugging of a pipeline from
// the command line. Conversation state is preserved across turns through the
// runner's session, or an in-memory one if none is configured. Enter "exit"
// or "quit" to stop the loop.
func RunDemoLoop(ctx context.Context, runner Runner, pipeline *SequentialAgent) error {
	return RunDemoLoopRW(ctx, runner, pipeline, os.Stdin, os.Stdout)
}

func RunDemoLoopRW(ctx context.Context, runner Runner, pipeline *SequentialAgent, r io.Reader, w io.Writer) error {
	if runner.Config.Session == nil {
		runner.Config.Session = memory.NewInMemorySession(uuid.NewString())
	}

	writeAndFlush := func(s string) (err error) {
		if _, err = w.Write([]byte(s)); err != nil {
			return err
		}
		if flusher, ok := w.(interface{ Flush() error }); ok {
			_ = flusher.Flush()
		} else if syncer, ok := w.(interface{ Sync() error }); ok {
			_ = syncer.Sync()
		}
		return nil
	}

	bufReader := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAndFlush("> "); err != nil {
			return err
		}

		line, _, err := bufReader.ReadLine()
		if errors.Is(err, io.EOF) {
			return writeAndFlush("\n")
		}
		if err != nil {
			return err
		}
		userInput := string(line)

		if v := strings.ToLower(strings.TrimSpace(userInput)); v == "exit" || v == "quit" {
			return nil
		} else if v == "" {
			continue
		}

		result, err := runner.Run(ctx, pipeline, userInput)
		if err != nil {
			return err
		}

		if result.Interrupted {
			err = writeAndFlush(fmt.Sprintf("[%s] %s\n", result.InterruptedBy, result.FinalOutput))
		} else {
			err = writeAndFlush(fmt.Sprintln(result.FinalOutput))
		}
		if err != nil {
			return err
		}
	}
}
