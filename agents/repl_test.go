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

package agents_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/agentstesting"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemoLoopRW(t *testing.T) {
	model := agentstesting.NewFakeModel(textOutput("hello"), textOutput("again"))
	pipeline := agents.NewSequentialAgent("p", agents.New("a").WithModelInstance(model))

	input := strings.NewReader("Hi\n\n  \nSecond\nquit\nnever read\n")
	var output bytes.Buffer
	err := agents.RunDemoLoopRW(t.Context(), agents.Runner{}, pipeline, input, &output)
	require.NoError(t, err)

	assert.Equal(t, "> hello\n> > > again\n> ", output.String())
	assert.Equal(t, 2, model.CallCount())

	// History is carried across turns.
	req, _ := model.LastRequest()
	assert.Equal(t, []message.Message{
		message.User("Hi"),
		message.Assistant("a", "hello"),
		message.User("Second"),
	}, req.Input)
}

func TestRunDemoLoopRW_Interrupted(t *testing.T) {
	wait := func(context.Context, *agents.CallbackContext, *agents.ModelRequest) (*agents.ModelResponse, error) {
		return agents.NewTextModelResponse("please wait"), nil
	}
	pipeline := agents.NewSequentialAgent("p",
		agents.New("researcher").WithModelInstance(agentstesting.NewFakeModel()).WithBeforeModelCallback(wait))

	var output bytes.Buffer
	err := agents.RunDemoLoopRW(t.Context(), agents.Runner{}, pipeline, strings.NewReader("topic"), &output)
	require.NoError(t, err)
	assert.Equal(t, "> [researcher] please wait\n> \n", output.String())
}
