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

package toolinit

import (
	"cmp"
	"context"
	"log/slog"

	"github.com/nlpodyssey/news-search-agent/agents"
)

// Messages are the texts returned in place of a model response while the
// tools are not usable.
type Messages struct {
	Initializing string
	InProgress   string
	Failed       string
}

var DefaultMessages = Messages{
	Initializing: "Initializing news research tools. This process happens once. Please try your query again in a few moments.",
	InProgress:   "News research tool initialization is currently in progress. Please wait a moment and try again.",
	Failed:       "There was an issue initializing news research tools. Please check the logs.",
}

func (m Messages) withDefaults() Messages {
	return Messages{
		Initializing: cmp.Or(m.Initializing, DefaultMessages.Initializing),
		InProgress:   cmp.Or(m.InProgress, DefaultMessages.InProgress),
		Failed:       cmp.Or(m.Failed, DefaultMessages.Failed),
	}
}

// BeforeModel returns a callback for the agent named stageName, which needs
// the guarded tools.
//
// While the tools are not ready the callback answers in place of the model:
// the first call starts the connection in the background and asks the user
// to retry, calls during the attempt report that it is in progress, and
// calls after a failure report the failure. Once the tools are ready, and
// for every other agent, the model call proceeds.
func (g *Guard) BeforeModel(stageName string) agents.BeforeModelCallback {
	return func(ctx context.Context, cc *agents.CallbackContext, req *agents.ModelRequest) (*agents.ModelResponse, error) {
		if cc.AgentName != stageName {
			return nil, nil
		}

		state := g.State()
		if state == StateUninitialized {
			if _, started := g.Start(ctx); started {
				agents.Logger().Info("Tool initialization triggered",
					slog.String("agent", cc.AgentName),
					slog.String("invocationID", cc.InvocationID))
				return agents.NewTextModelResponse(g.messages.Initializing), nil
			}
			state = g.State()
		}

		switch state {
		case StateReady:
			if len(req.Tools) == 0 {
				req.Tools = g.Tools()
			}
			return nil, nil
		case StateInProgress:
			return agents.NewTextModelResponse(g.messages.InProgress), nil
		default:
			// Failed, or closed before any attempt.
			return agents.NewTextModelResponse(g.messages.Failed), nil
		}
	}
}
