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

package newsagent

import (
	"github.com/nlpodyssey/news-search-agent/agents"
)

// SearchPlan is the planner output.
type SearchPlan struct {
	Queries []string `json:"queries" jsonschema:"minItems=1"`
}

// Article is a single researched news article.
type Article struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	PublicationDate string `json:"publication_date"`
	Summary         string `json:"summary"`
}

var (
	searchPlanSchema = agents.NewOutputSchema[SearchPlan]()
	articlesSchema   = agents.NewOutputSchema[[]Article]()
)

// ParseSearchPlan decodes the planner output stored in the session state.
func ParseSearchPlan(jsonValue string) (SearchPlan, error) {
	return agents.ParseOutput[SearchPlan](jsonValue)
}

// ParseArticles decodes the researcher output stored in the session state.
func ParseArticles(jsonValue string) ([]Article, error) {
	articles, err := agents.ParseOutput[[]Article](jsonValue)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []Article{}
	}
	return articles, nil
}
