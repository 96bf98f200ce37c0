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
	"maps"
	"strings"
	"sync"
)

// MultiProvider is a ModelProvider that maps to a Model based on the prefix of the model name.
// By default, the mapping is:
//   - "openai/" prefix -> OpenAIProvider. e.g. "openai/gpt-4.1"
//   - "gemini/" or "google/" prefix -> GeminiProvider. e.g. "gemini/gemini-2.0-flash"
//   - no prefix -> GeminiProvider if the name starts with "gemini", otherwise
//     OpenAIProvider. e.g. "gemini-2.0-flash", "gpt-4.1"
//
// You can override or customize this mapping with a MultiProviderMap.
type MultiProvider struct {
	// Optional provider map.
	ProviderMap    *MultiProviderMap
	OpenAIProvider *OpenAIProvider
	GeminiProvider *GeminiProvider
}

type NewMultiProviderParams struct {
	// Optional MultiProviderMap that maps prefixes to ModelProviders. If not provided,
	// we will use a default mapping. See the documentation for MultiProvider to see the
	// default mapping.
	ProviderMap *MultiProviderMap

	// The API key to use for the OpenAI provider. If not provided, we will use
	// the default API key.
	OpenaiAPIKey string

	// The base URL to use for the OpenAI provider. If not provided, we will
	// use the default base URL.
	OpenaiBaseURL string

	// Optional OpenAI client to use. If not provided, we will create a new
	// OpenAI client using the OpenaiAPIKey and OpenaiBaseURL.
	OpenaiClient *OpenaiClient

	// The organization to use for the OpenAI provider.
	OpenaiOrganization string

	// The project to use for the OpenAI provider.
	OpenaiProject string

	// The API key to use for the Gemini provider.
	GeminiAPIKey string

	// Optional generator to use for the Gemini provider.
	GeminiGenerator GeminiContentGenerator
}

// NewMultiProvider creates a new MultiProvider.
func NewMultiProvider(params NewMultiProviderParams) *MultiProvider {
	return &MultiProvider{
		ProviderMap: params.ProviderMap,
		OpenAIProvider: NewOpenAIProvider(OpenAIProviderParams{
			APIKey:       params.OpenaiAPIKey,
			BaseURL:      params.OpenaiBaseURL,
			OpenaiClient: params.OpenaiClient,
			Organization: params.OpenaiOrganization,
			Project:      params.OpenaiProject,
		}),
		GeminiProvider: NewGeminiProvider(GeminiProviderParams{
			APIKey:    params.GeminiAPIKey,
			Generator: params.GeminiGenerator,
		}),
	}
}

func (mp *MultiProvider) getPrefixAndModelName(modelName string) (_, _ string) {
	if modelName == "" {
		return "", ""
	}
	if prefix, name, ok := strings.Cut(modelName, "/"); ok {
		return prefix, name
	}
	return "", modelName
}

func (mp *MultiProvider) getFallbackProvider(prefix, name string) (ModelProvider, error) {
	switch prefix {
	case "openai":
		return mp.OpenAIProvider, nil
	case "gemini", "google":
		return mp.GeminiProvider, nil
	case "":
		if strings.HasPrefix(name, "gemini") {
			return mp.GeminiProvider, nil
		}
		return mp.OpenAIProvider, nil
	default:
		return nil, UserErrorf("unknown prefix %q", prefix)
	}
}

// GetModel returns a Model based on the model name. The model name can have a prefix, ending with
// a "/", which will be used to look up the ModelProvider.
func (mp *MultiProvider) GetModel(modelName string) (Model, error) {
	prefix, name := mp.getPrefixAndModelName(modelName)

	if prefix != "" && mp.ProviderMap != nil {
		if provider, ok := mp.ProviderMap.GetProvider(prefix); ok {
			return provider.GetModel(name)
		}
	}

	fp, err := mp.getFallbackProvider(prefix, name)
	if err != nil {
		return nil, err
	}
	return fp.GetModel(name)
}

// MultiProviderMap is a map of model name prefixes to ModelProvider objects.
// It is safe for concurrent use.
type MultiProviderMap struct {
	mu sync.RWMutex
	m  map[string]ModelProvider
}

func NewMultiProviderMap() *MultiProviderMap {
	return &MultiProviderMap{
		m: make(map[string]ModelProvider),
	}
}

// HasPrefix returns true if the given prefix is in the mapping.
func (m *MultiProviderMap) HasPrefix(prefix string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.m[prefix]
	return ok
}

// GetMapping returns a copy of the current prefix -> ModelProvider mapping.
func (m *MultiProviderMap) GetMapping() map[string]ModelProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.m)
}

// SetMapping overwrites the current mapping with a new one.
func (m *MultiProviderMap) SetMapping(mapping map[string]ModelProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m = maps.Clone(mapping)
}

func (m *MultiProviderMap) GetProvider(prefix string) (ModelProvider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[prefix]
	return v, ok
}

func (m *MultiProviderMap) AddProvider(prefix string, provider ModelProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[prefix] = provider
}

func (m *MultiProviderMap) RemoveProvider(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, prefix)
}
