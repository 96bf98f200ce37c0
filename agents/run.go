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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/nlpodyssey/news-search-agent/memory"
	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/nlpodyssey/news-search-agent/usage"
)

const DefaultMaxTurns = 10

// DefaultRunner is the default Runner instance used by package-level Run
// helpers.
var DefaultRunner = Runner{}

// Runner executes pipelines using the configured RunConfig.
//
// The zero value is valid.
type Runner struct {
	Config RunConfig
}

// RunConfig configures settings for the entire pipeline run.
type RunConfig struct {
	// Optional model name used for every agent. Agents with a Model
	// instance are not affected.
	ModelName string

	// Optional model provider to use when looking up string model names.
	// Defaults to a MultiProvider configured from the environment.
	ModelProvider ModelProvider

	// Optional global model settings. Any present values will override the
	// agent-specific model settings.
	ModelSettings modelsettings.ModelSettings

	// The maximum number of model calls per stage. Defaults to DefaultMaxTurns.
	MaxTurns uint64

	// Optional session storing conversation history and state across runs.
	Session memory.Session

	// Number of history items loaded from the session. Zero loads all.
	HistorySize int
}

// StageResult is the outcome of a single pipeline stage.
type StageResult struct {
	AgentName string

	// Final text output of the stage. For stages with an output schema it is
	// the validated JSON value.
	Output string

	// Items produced by the stage: assistant messages and tool results.
	NewItems []message.Message

	// Whether a before-model callback supplied the output.
	Interrupted bool

	Usage *usage.Usage
}

type RunResult struct {
	// Identifier of this invocation, passed to callbacks.
	InvocationID string

	// The original input.
	Input string

	// Output of the last stage that ran.
	FinalOutput string

	// Results of the stages that ran, in order.
	Stages []StageResult

	// Items produced during this run, starting with the user input.
	NewItems []message.Message

	// Session state after the run.
	State map[string]any

	// Whether a before-model callback ended the pipeline early. Later
	// stages did not run.
	Interrupted bool

	// Name of the agent whose callback ended the pipeline.
	InterruptedBy string

	// The last agent that ran.
	LastAgent *Agent

	// Usage summed over all model calls.
	Usage *usage.Usage
}

// StageOutput returns the output of the named stage, if it ran.
func (r *RunResult) StageOutput(agentName string) (string, bool) {
	for _, s := range r.Stages {
		if s.AgentName == agentName {
			return s.Output, true
		}
	}
	return "", false
}

// Run executes pipeline with DefaultRunner.
func Run(ctx context.Context, pipeline *SequentialAgent, input string) (*RunResult, error) {
	return DefaultRunner.Run(ctx, pipeline, input)
}

// RunAgent runs a single agent as a one-stage pipeline.
func (r Runner) RunAgent(ctx context.Context, agent *Agent, input string) (*RunResult, error) {
	return r.Run(ctx, NewSequentialAgent(agent.Name, agent), input)
}

// Run executes the stages of pipeline in order.
//
// Each stage sees the conversation so far. Messages written by other stages
// are presented as context from the user. A stage whose before-model
// callback returns a response ends the run: the response becomes the final
// output and RunResult.Interrupted is set.
//
// When a session is configured, the history is loaded before the run and
// the new items and state changes are saved after it. The items of an
// interrupted stage are not saved.
func (r Runner) Run(ctx context.Context, pipeline *SequentialAgent, input string) (*RunResult, error) {
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	provider := r.Config.ModelProvider
	if provider == nil {
		provider = NewMultiProvider(NewMultiProviderParams{})
	}

	result := &RunResult{
		InvocationID: uuid.NewString(),
		Input:        input,
		Usage:        usage.NewUsage(),
	}
	ctx = usage.NewContext(ctx, result.Usage)

	history, state, err := r.loadSession(ctx)
	if err != nil {
		return nil, err
	}

	userMessage := message.User(input)
	conversation := append(history, userMessage)
	result.NewItems = []message.Message{userMessage}
	stateDelta := make(map[string]any)

	// A callback answer given in place of the model is shown to the caller
	// but is not saved as part of the conversation.
	sessionItems := []message.Message{userMessage}

	Logger().Debug("Running pipeline",
		slog.String("pipeline", pipeline.Name),
		slog.String("invocationID", result.InvocationID),
		slog.Int("historyItems", len(history)))

	for _, agent := range pipeline.SubAgents {
		stage, err := r.runStage(ctx, provider, agent, result.InvocationID, conversation, state)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", agent.Name, err)
		}

		result.Stages = append(result.Stages, *stage)
		result.NewItems = append(result.NewItems, stage.NewItems...)
		result.FinalOutput = stage.Output
		result.LastAgent = agent
		conversation = append(conversation, stage.NewItems...)

		if stage.Interrupted {
			result.Interrupted = true
			result.InterruptedBy = agent.Name
			Logger().Info("Pipeline interrupted by callback",
				slog.String("pipeline", pipeline.Name),
				slog.String("agent", agent.Name))
			break
		}
		sessionItems = append(sessionItems, stage.NewItems...)

		if agent.OutputKey != "" {
			state[agent.OutputKey] = stage.Output
			stateDelta[agent.OutputKey] = stage.Output
		}
	}
	result.State = state

	if err = r.saveSession(ctx, sessionItems, stateDelta); err != nil {
		return nil, err
	}
	return result, nil
}

func (r Runner) loadSession(ctx context.Context) ([]message.Message, map[string]any, error) {
	session := r.Config.Session
	if session == nil {
		return nil, make(map[string]any), nil
	}
	history, err := session.GetItems(ctx, r.Config.HistorySize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session history: %w", err)
	}
	state, err := session.GetState(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session state: %w", err)
	}
	if state == nil {
		state = make(map[string]any)
	}
	return history, state, nil
}

func (r Runner) saveSession(ctx context.Context, items []message.Message, stateDelta map[string]any) error {
	session := r.Config.Session
	if session == nil {
		return nil
	}
	return errors.Join(
		session.AddItems(ctx, items),
		session.UpdateState(ctx, stateDelta),
	)
}

func (r Runner) runStage(
	ctx context.Context,
	provider ModelProvider,
	agent *Agent,
	invocationID string,
	conversation []message.Message,
	state map[string]any,
) (*StageResult, error) {
	model, err := r.getModel(provider, agent)
	if err != nil {
		return nil, err
	}

	var instructions string
	if agent.Instructions != nil {
		instructions, err = agent.Instructions.GetInstructions(ctx, agent)
		if err != nil {
			return nil, fmt.Errorf("failed to get instructions: %w", err)
		}
		instructions = InjectSessionState(instructions, state)
	}

	stage := &StageResult{AgentName: agent.Name, Usage: usage.NewUsage()}
	input := ContextualizeHistory(conversation, agent.Name)
	callbackContext := NewCallbackContext(agent.Name, invocationID, maps.Clone(state))
	maxTurns := cmp.Or(r.Config.MaxTurns, DefaultMaxTurns)

	for turn := uint64(1); turn <= maxTurns; turn++ {
		req := ModelRequest{
			SystemInstructions: instructions,
			Input:              append(input[:len(input):len(input)], stage.NewItems...),
			ModelSettings:      agent.ModelSettings.Resolve(r.Config.ModelSettings),
			Tools:              agent.AllTools(),
			OutputSchema:       agent.OutputSchema,
		}

		resp, err := r.beforeModel(ctx, agent, callbackContext, &req)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			out := stageMessage(agent, resp.Output)
			stage.NewItems = append(stage.NewItems, out)
			stage.Output = out.Text
			stage.Interrupted = true
			return stage, nil
		}

		resp, err = model.GetResponse(ctx, req)
		if err != nil {
			return nil, err
		}
		stage.Usage.Add(resp.Usage)
		if total, ok := usage.FromContext(ctx); ok {
			total.Add(resp.Usage)
		}

		out := stageMessage(agent, resp.Output)
		stage.NewItems = append(stage.NewItems, out)

		if !out.HasToolCalls() {
			stage.Output, err = finalOutput(ctx, agent, out.Text)
			if err != nil {
				return nil, err
			}
			return stage, nil
		}

		results := r.runTools(ctx, agent, req.Tools, out.ToolCalls)
		stage.NewItems = append(stage.NewItems, results...)
	}

	return nil, MaxTurnsExceededErrorf("max turns (%d) exceeded", maxTurns)
}

func (r Runner) beforeModel(ctx context.Context, agent *Agent, cc *CallbackContext, req *ModelRequest) (*ModelResponse, error) {
	for _, cb := range agent.BeforeModelCallbacks {
		resp, err := cb(ctx, cc, req)
		if err != nil {
			return nil, fmt.Errorf("before-model callback error: %w", err)
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

func stageMessage(agent *Agent, m message.Message) message.Message {
	m.Role = message.RoleAssistant
	m.Author = agent.Name
	return m
}

func finalOutput(ctx context.Context, agent *Agent, text string) (string, error) {
	if agent.OutputSchema == nil {
		if text == "" {
			Logger().Warn("Agent produced an empty output", slog.String("agent", agent.Name))
		}
		return text, nil
	}
	return agent.OutputSchema.ValidateJSON(ctx, text)
}

// runTools invokes the requested tools concurrently. Failures are reported
// back to the model as error results, in call order.
func (r Runner) runTools(ctx context.Context, agent *Agent, tools []FunctionTool, calls []message.ToolCall) []message.Message {
	results := make([]message.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = message.Tool(agent.Name, invokeTool(ctx, tools, call))
		}()
	}
	wg.Wait()

	return results
}

func invokeTool(ctx context.Context, tools []FunctionTool, call message.ToolCall) message.ToolResult {
	result := message.ToolResult{CallID: call.ID, Name: call.Name}

	tool, ok := findTool(tools, call.Name)
	if !ok {
		Logger().Warn("Model called an unknown tool", slog.String("toolName", call.Name))
		result.Output = fmt.Sprintf("Error: tool %q not found", call.Name)
		result.IsError = true
		return result
	}

	if DontLogToolData {
		Logger().Debug("Invoking tool", slog.String("toolName", call.Name))
	} else {
		Logger().Debug("Invoking tool",
			slog.String("toolName", call.Name),
			slog.String("arguments", call.Arguments))
	}

	output, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		Logger().Warn("Tool call failed",
			slog.String("toolName", call.Name),
			slog.String("error", err.Error()))
		result.Output = fmt.Sprintf("Error: %s", err)
		result.IsError = true
		return result
	}
	result.Output = output
	return result
}

func (r Runner) getModel(provider ModelProvider, agent *Agent) (Model, error) {
	if agent.Model != nil {
		return agent.Model, nil
	}
	name := cmp.Or(r.Config.ModelName, agent.ModelName)
	model, err := provider.GetModel(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get model %q: %w", name, err)
	}
	return model, nil
}

// ContextualizeHistory prepares the conversation for agentName.
//
// User messages and the agent's own messages are kept. Text written by
// other agents is turned into user messages of the form
// "For context: [name] said: text"; their tool calls and results are
// dropped.
func ContextualizeHistory(conversation []message.Message, agentName string) []message.Message {
	out := make([]message.Message, 0, len(conversation))
	for _, m := range conversation {
		switch {
		case m.Role == message.RoleUser, m.Author == "", m.Author == agentName:
			out = append(out, m)
		case m.Role == message.RoleAssistant && m.Text != "":
			out = append(out, message.User(fmt.Sprintf("For context: [%s] said: %s", m.Author, m.Text)))
		}
	}
	return out
}
