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

package usage

import (
	"context"
	"fmt"
)

// Usage accumulates token accounting across model requests.
type Usage struct {
	// Total requests made to the LLM API.
	Requests uint64 `json:"requests"`

	// Total input tokens sent, across all requests.
	InputTokens uint64 `json:"input_tokens"`

	// Input tokens served from the provider's prompt cache.
	CachedInputTokens uint64 `json:"cached_input_tokens"`

	// Total output tokens received, across all requests.
	OutputTokens uint64 `json:"output_tokens"`

	// Output tokens spent on reasoning ("thinking") by the model.
	ReasoningTokens uint64 `json:"reasoning_tokens"`

	// Total tokens sent and received, across all requests.
	TotalTokens uint64 `json:"total_tokens"`
}

func NewUsage() *Usage {
	return new(Usage)
}

func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.Requests += other.Requests
	u.InputTokens += other.InputTokens
	u.CachedInputTokens += other.CachedInputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningTokens += other.ReasoningTokens
	u.TotalTokens += other.TotalTokens
}

func (u Usage) String() string {
	return fmt.Sprintf("requests=%d input=%d (cached %d) output=%d (reasoning %d) total=%d",
		u.Requests, u.InputTokens, u.CachedInputTokens, u.OutputTokens, u.ReasoningTokens, u.TotalTokens)
}

type usageContextKey struct{}

func NewContext(ctx context.Context, u *Usage) context.Context {
	return context.WithValue(ctx, usageContextKey{}, u)
}

func FromContext(ctx context.Context) (*Usage, bool) {
	u, ok := ctx.Value(usageContextKey{}).(*Usage)
	return u, ok
}
