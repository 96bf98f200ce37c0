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

// Package newsagent assembles the news search pipeline: a planner turning a
// topic into search queries, a researcher collecting articles with tools
// from a Bright Data MCP server, and a publisher writing a Markdown report.
package newsagent

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/toolinit"
)

const (
	PipelineName   = "news_search_pipeline_agent"
	PlannerName    = "news_planner"
	ResearcherName = "news_researcher"
	PublisherName  = "news_publisher"

	DefaultModel = "gemini-2.0-flash"
)

// Session state keys written by the stages.
const (
	SearchQueriesKey = "search_queries"
	NewsArticlesKey  = "news_articles"
	ReportKey        = "news_report_document"
)

type PipelineParams struct {
	// Model name used by every stage. Defaults to DefaultModel.
	ModelName string

	// Optional model used by every stage instead of ModelName.
	Model agents.Model

	// Optional tuning parameters shared by every stage.
	ModelSettings modelsettings.ModelSettings

	// Source of the researcher tools. Required.
	Connector toolinit.Connector

	// Optional texts answered while the tools are not usable.
	Messages toolinit.Messages
}

// Pipeline is the news search pipeline together with the guard that owns
// the researcher tool connection.
type Pipeline struct {
	Agent *agents.SequentialAgent
	Guard *toolinit.Guard
	Tools *agents.ToolRegistry
}

func NewPipeline(params PipelineParams) *Pipeline {
	registry := agents.NewToolRegistry()
	guard := toolinit.NewGuard(toolinit.GuardParams{
		Name:       ResearcherName,
		Connector:  params.Connector,
		Registries: []*agents.ToolRegistry{registry},
		Messages:   params.Messages,
	})

	stage := func(name, description, instructions string) *agents.Agent {
		a := agents.New(name).
			WithDescription(description).
			WithInstructions(instructions).
			WithModelSettings(params.ModelSettings)
		if params.Model != nil {
			return a.WithModelInstance(params.Model)
		}
		return a.WithModel(cmp.Or(params.ModelName, DefaultModel))
	}

	planner := stage(PlannerName, PlannerDescription, PlannerInstructions).
		WithOutputSchema(searchPlanSchema).
		WithOutputKey(SearchQueriesKey)

	researcher := stage(ResearcherName, ResearcherDescription, ResearcherInstructions).
		WithToolRegistry(registry).
		WithOutputSchema(articlesSchema).
		WithOutputKey(NewsArticlesKey).
		WithBeforeModelCallback(guard.BeforeModel(ResearcherName))

	publisher := stage(PublisherName, PublisherDescription, PublisherInstructions).
		WithOutputKey(ReportKey)

	return &Pipeline{
		Agent: agents.NewSequentialAgent(PipelineName, planner, researcher, publisher).
			WithDescription(PipelineDescription),
		Guard: guard,
		Tools: registry,
	}
}

// Report is the outcome of one pipeline run.
type Report struct {
	Topic string

	// Outputs of the stages that ran.
	Queries  []string
	Articles []Article
	Markdown string

	// Whether the researcher answered in place of the model because its
	// tools were not usable. Message holds that answer; the publisher did
	// not run.
	Interrupted bool
	Message     string

	Result *agents.RunResult
}

// Run runs the pipeline on topic.
func (p *Pipeline) Run(ctx context.Context, runner agents.Runner, topic string) (*Report, error) {
	result, err := runner.Run(ctx, p.Agent, topic)
	if err != nil {
		return nil, err
	}
	return newReport(topic, result)
}

func newReport(topic string, result *agents.RunResult) (*Report, error) {
	report := &Report{
		Topic:       topic,
		Interrupted: result.Interrupted,
		Result:      result,
	}
	if result.Interrupted {
		report.Message = result.FinalOutput
	}

	if out, ok := stageOutput(result, PlannerName); ok {
		plan, err := ParseSearchPlan(out)
		if err != nil {
			return nil, fmt.Errorf("%s output: %w", PlannerName, err)
		}
		report.Queries = plan.Queries
	}
	if out, ok := stageOutput(result, ResearcherName); ok {
		articles, err := ParseArticles(out)
		if err != nil {
			return nil, fmt.Errorf("%s output: %w", ResearcherName, err)
		}
		report.Articles = articles
	}
	if out, ok := stageOutput(result, PublisherName); ok {
		report.Markdown = out
	}

	agents.Logger().Debug("News pipeline finished",
		slog.String("topic", topic),
		slog.Int("queries", len(report.Queries)),
		slog.Int("articles", len(report.Articles)),
		slog.Bool("interrupted", report.Interrupted))
	return report, nil
}

// stageOutput returns the output of a stage that ran to completion.
// An interrupted stage output is a canned answer, not model output.
func stageOutput(result *agents.RunResult, name string) (string, bool) {
	for _, s := range result.Stages {
		if s.AgentName == name && !s.Interrupted {
			return s.Output, true
		}
	}
	return "", false
}

// EnsureTools connects the researcher tools now and waits for the outcome,
// so that the first run does not get the initialization answer.
func (p *Pipeline) EnsureTools(ctx context.Context) ([]agents.FunctionTool, error) {
	return p.Guard.Ensure(ctx)
}

// Close releases the researcher tool connection.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.Guard.Close(ctx)
}
