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

package toolinit_test

import (
	"errors"
	"testing"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/agentstesting"
	"github.com/nlpodyssey/news-search-agent/toolinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callbackContext(agentName string) *agents.CallbackContext {
	return agents.NewCallbackContext(agentName, "inv", nil)
}

func TestGuard_BeforeModel_OtherStage(t *testing.T) {
	connector := agentstesting.NewFakeConnector(agentstesting.GetFunctionTools(1), nil)
	g := newGuard(t, connector)
	cb := g.BeforeModel("news_researcher")

	resp, err := cb(t.Context(), callbackContext("news_planner"), &agents.ModelRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, toolinit.StateUninitialized, g.State())
	assert.Equal(t, 0, g.Attempts())
}

func TestGuard_BeforeModel_Lifecycle(t *testing.T) {
	connector := agentstesting.NewBlockingFakeConnector(agentstesting.GetFunctionTools(2), nil)
	g := newGuard(t, connector)
	cb := g.BeforeModel("news_researcher")
	cc := callbackContext("news_researcher")

	// The first call starts the attempt and asks to retry.
	resp, err := cb(t.Context(), cc, &agents.ModelRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, toolinit.DefaultMessages.Initializing, resp.Output.Text)
	assert.Equal(t, 1, g.Attempts())
	<-connector.Started()

	// While in progress, callers are told to wait and nothing else happens.
	for range 3 {
		resp, err = cb(t.Context(), cc, &agents.ModelRequest{})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, toolinit.DefaultMessages.InProgress, resp.Output.Text)
	}
	assert.Equal(t, 1, g.Attempts())
	assert.Equal(t, 1, connector.Connects())

	close(connector.Release)
	require.NoError(t, g.Task().Await().Error)

	// Once ready, the model call proceeds with the tools.
	req := &agents.ModelRequest{}
	resp, err = cb(t.Context(), cc, req)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, []string{"tool_0", "tool_1"}, agents.ToolNames(req.Tools))
	assert.Equal(t, 1, g.Attempts())
}

func TestGuard_BeforeModel_Failed(t *testing.T) {
	connector := agentstesting.NewFakeConnector(nil, errors.New("bad token"))
	g := newGuard(t, connector)
	cb := g.BeforeModel("news_researcher")
	cc := callbackContext("news_researcher")

	resp, err := cb(t.Context(), cc, &agents.ModelRequest{})
	require.NoError(t, err)
	assert.Equal(t, toolinit.DefaultMessages.Initializing, resp.Output.Text)
	_ = g.Task().Await()

	for range 3 {
		resp, err = cb(t.Context(), cc, &agents.ModelRequest{})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, toolinit.DefaultMessages.Failed, resp.Output.Text)
	}
	assert.Equal(t, 1, connector.Connects())
}

func TestGuard_BeforeModel_Closed(t *testing.T) {
	connector := agentstesting.NewFakeConnector(agentstesting.GetFunctionTools(1), nil)
	g := newGuard(t, connector)
	require.NoError(t, g.Close(t.Context()))

	resp, err := g.BeforeModel("r")(t.Context(), callbackContext("r"), &agents.ModelRequest{})
	require.NoError(t, err)
	assert.Equal(t, toolinit.DefaultMessages.Failed, resp.Output.Text)
	assert.Equal(t, 0, connector.Connects())
}

func TestGuard_BeforeModel_CustomMessages(t *testing.T) {
	connector := agentstesting.NewFakeConnector(agentstesting.GetFunctionTools(1), nil)
	g := toolinit.NewGuard(toolinit.GuardParams{
		Connector: connector,
		Messages:  toolinit.Messages{Initializing: "warming up"},
	})
	t.Cleanup(func() { _ = g.Close(t.Context()) })

	resp, err := g.BeforeModel("r")(t.Context(), callbackContext("r"), &agents.ModelRequest{})
	require.NoError(t, err)
	assert.Equal(t, "warming up", resp.Output.Text)
	require.NoError(t, g.Wait(t.Context()))
}

// Two users query the pipeline while a provider exposing twelve tools
// connects: the first triggers the connection, the second is asked to
// wait, and both get all twelve tools on their next try.
func TestPipeline_TwoCallers(t *testing.T) {
	connector := agentstesting.NewBlockingFakeConnector(agentstesting.GetFunctionTools(12), nil)
	registry := agents.NewToolRegistry()
	g := newGuard(t, connector, registry)

	model := agentstesting.NewFakeModel()
	researcher := agents.New("news_researcher").
		WithModelInstance(model).
		WithToolRegistry(registry).
		WithBeforeModelCallback(g.BeforeModel("news_researcher"))
	pipeline := agents.NewSequentialAgent("news_search_pipeline_agent", researcher)

	first, err := agents.Run(t.Context(), pipeline, "topic A")
	require.NoError(t, err)
	assert.True(t, first.Interrupted)
	assert.Equal(t, toolinit.DefaultMessages.Initializing, first.FinalOutput)

	<-connector.Started()
	second, err := agents.Run(t.Context(), pipeline, "topic B")
	require.NoError(t, err)
	assert.True(t, second.Interrupted)
	assert.Equal(t, toolinit.DefaultMessages.InProgress, second.FinalOutput)
	assert.Equal(t, 0, model.CallCount())

	close(connector.Release)
	require.NoError(t, g.Wait(t.Context()))

	for _, topic := range []string{"topic A", "topic B"} {
		model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: agentstesting.GetTextMessage("[]")})
		result, err := agents.Run(t.Context(), pipeline, topic)
		require.NoError(t, err)
		assert.False(t, result.Interrupted)

		req, ok := model.LastRequest()
		require.True(t, ok)
		assert.Len(t, req.Tools, 12)
	}
	assert.Equal(t, 1, connector.Connects())
	assert.Equal(t, 1, g.Attempts())
}
