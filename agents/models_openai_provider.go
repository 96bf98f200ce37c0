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
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAIProviderParams struct {
	// The API key to use for the OpenAI client. Defaults to the
	// OPENAI_API_KEY environment variable.
	APIKey string

	// The base URL to use for the OpenAI client. If not provided, we will use the
	// default base URL.
	BaseURL string

	// An optional OpenAI client to use. If not provided, we will create a new
	// OpenAI client using the APIKey and BaseURL.
	OpenaiClient *OpenaiClient

	// The organization to use for the OpenAI client.
	Organization string

	// The project to use for the OpenAI client.
	Project string
}

type OpenAIProvider struct {
	params OpenAIProviderParams
	mu     sync.Mutex
	client *OpenaiClient
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(params OpenAIProviderParams) *OpenAIProvider {
	if params.OpenaiClient != nil && (params.APIKey != "" || params.BaseURL != "") {
		panic(errors.New("OpenAIProvider: don't provide APIKey or BaseURL if you provide OpenaiClient"))
	}
	return &OpenAIProvider{
		params: params,
		client: params.OpenaiClient,
	}
}

func (provider *OpenAIProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get OpenAI model without a name")
	}
	client, err := provider.getClient()
	if err != nil {
		return nil, err
	}
	return NewOpenAIChatCompletionsModel(openai.ChatModel(modelName), *client), nil
}

// We lazy load the client in case you never actually use OpenAIProvider.
func (provider *OpenAIProvider) getClient() (*OpenaiClient, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	if provider.client != nil {
		return provider.client, nil
	}

	apiKey := cmp.Or(provider.params.APIKey, os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, NewUserError("OpenAIProvider: an API key is missing, set OPENAI_API_KEY")
	}

	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if v := provider.params.Organization; v != "" {
		options = append(options, option.WithOrganization(v))
	}
	if v := provider.params.Project; v != "" {
		options = append(options, option.WithProject(v))
	}

	client := NewOpenaiClient(provider.params.BaseURL, options...)
	provider.client = &client
	return provider.client, nil
}
