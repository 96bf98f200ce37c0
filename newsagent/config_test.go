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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv hides the variables read by ApplyEnv for the duration of t.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"NEWS_AGENT_MODEL", "GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "NEWS_AGENT_DB", "NEWS_AGENT_MCP_PRESET", "BRIGHTDATA_API_TOKEN",
		"API_TOKEN", "WEB_UNLOCKER_ZONE", "BROWSER_AUTH", "RATE_LIMIT", "TAVILY_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, PresetBrightData, cfg.MCP.Preset)
	assert.Equal(t, DefaultWebUnlockerZone, cfg.MCP.WebUnlockerZone)
	assert.Equal(t, 2*time.Minute, cfg.MCP.ConnectTimeout)
	assert.EqualValues(t, 10, cfg.MaxTurns)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRIGHTDATA_API_TOKEN", "from-env")
	path := writeFile(t, "config.yaml", `
model: openai/gpt-4.1
openai_api_key: sk-test
history_size: 20
report_dir: reports
mcp:
  connect_timeout: 45s
  rate_limit: 100/1h
  allowed_tools: [search_engine, scraping_browser_navigate]
  env:
    EXTRA: "1"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4.1", cfg.Model)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 20, cfg.HistorySize)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Equal(t, 45*time.Second, cfg.MCP.ConnectTimeout)
	assert.Equal(t, "100/1h", cfg.MCP.RateLimit)
	assert.Equal(t, "from-env", cfg.MCP.APIToken)
	assert.Equal(t, []string{"search_engine", "scraping_browser_navigate"}, cfg.MCP.AllowedTools)
	assert.Equal(t, map[string]string{"EXTRA": "1"}, cfg.MCP.Env)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = LoadConfig(writeFile(t, "bad.yaml", "model: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "NEWS_AGENT_TEST_DOTENV=from-file\nNEWS_AGENT_TEST_SET=from-file\n")
	t.Setenv("NEWS_AGENT_TEST_SET", "from-env")
	t.Setenv("NEWS_AGENT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("NEWS_AGENT_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("NEWS_AGENT_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("NEWS_AGENT_TEST_SET"))
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"NEWS_AGENT_MODEL":  "gemini-2.5-pro",
		"GEMINI_API_KEY":    "gemini-key",
		"GOOGLE_API_KEY":    "google-key",
		"OPENAI_API_KEY":    "openai-key",
		"NEWS_AGENT_DB":     "news.db",
		"API_TOKEN":         "api-token",
		"WEB_UNLOCKER_ZONE": "zone",
		"BROWSER_AUTH":      "browser",
		"TAVILY_API_KEY":    "tavily",
	}))
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, "google-key", cfg.GeminiAPIKey)
	assert.Equal(t, "openai-key", cfg.OpenAIAPIKey)
	assert.Equal(t, "news.db", cfg.Database)
	assert.Equal(t, "api-token", cfg.MCP.APIToken)
	assert.Equal(t, "zone", cfg.MCP.WebUnlockerZone)
	assert.Equal(t, "browser", cfg.MCP.BrowserAuth)
	assert.Equal(t, "tavily", cfg.MCP.TavilyAPIKey)

	cfg.ApplyEnv(envMap(map[string]string{"BRIGHTDATA_API_TOKEN": "bd-token", "API_TOKEN": "other"}))
	assert.Equal(t, "bd-token", cfg.MCP.APIToken)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.GeminiAPIKey = "key"
		cfg.MCP.APIToken = "token"
		return cfg
	}

	testCases := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{"valid", func(*Config) {}, nil},
		{"openai with base url", func(c *Config) {
			c.Model, c.OpenAIBaseURL = "gpt-4.1", "http://localhost:8080/v1"
		}, nil},
		{"custom command needs no token", func(c *Config) {
			c.MCP.APIToken, c.MCP.Command = "", "my-server"
		}, nil},
		{"tavily", func(c *Config) {
			c.MCP.Preset, c.MCP.TavilyAPIKey = PresetTavily, "key"
		}, nil},
		{"missing gemini key", func(c *Config) { c.GeminiAPIKey = "" }, []string{"Gemini API key"}},
		{"missing openai key", func(c *Config) { c.Model = "openai/gpt-4.1" }, []string{"OpenAI API key"}},
		{"missing model", func(c *Config) { c.Model = "" }, []string{"no model configured"}},
		{"all problems", func(c *Config) {
			c.GeminiAPIKey = ""
			c.MCP.APIToken = ""
			c.HistorySize = -1
			c.MCP.ConnectTimeout = -time.Second
		}, []string{"Gemini API key", "BRIGHTDATA_API_TOKEN", "history_size", "connect_timeout"}},
		{"missing tavily key", func(c *Config) { c.MCP.Preset = PresetTavily }, []string{"TAVILY_API_KEY"}},
		{"unknown preset", func(c *Config) { c.MCP.Preset = "serpapi" }, []string{`unknown mcp.preset "serpapi"`}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			for _, want := range tc.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestUsesGemini(t *testing.T) {
	testCases := map[string]bool{
		"gemini-2.0-flash":        true,
		"gemini/gemini-2.0-flash": true,
		"google/gemini-2.5-pro":   true,
		"gpt-4.1":                 false,
		"openai/gpt-4.1":          false,
		"openai/gemini-lookalike": false,
	}
	for model, want := range testCases {
		assert.Equal(t, want, usesGemini(model), model)
	}
}

func TestConfig_ConnectorParams(t *testing.T) {
	t.Run("brightdata", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MCP.APIToken = "token"
		cfg.MCP.Env = map[string]string{"EXTRA": "1"}
		cfg.MCP.BlockedTools = []string{"scraping_browser_screenshot"}

		params := cfg.ConnectorParams()
		assert.Equal(t, PresetBrightData, params.Name)
		assert.Equal(t, "npx", params.Command)
		assert.Equal(t, []string{"-y", "@brightdata/mcp"}, params.Args)
		assert.Equal(t, map[string]string{
			"API_TOKEN":         "token",
			"WEB_UNLOCKER_ZONE": DefaultWebUnlockerZone,
			"EXTRA":             "1",
		}, params.Env)
		assert.Equal(t, 2*time.Minute, params.ConnectTimeout)
		assert.Equal(t, []string{"scraping_browser_screenshot"}, params.BlockedTools)
		assert.Nil(t, params.Stderr)
	})

	t.Run("tavily", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MCP.Preset = PresetTavily
		cfg.MCP.TavilyAPIKey = "key"
		cfg.MCP.LogStderr = true

		params := cfg.ConnectorParams()
		assert.Equal(t, []string{"-y", "tavily-mcp@0.1.3"}, params.Args)
		assert.Equal(t, map[string]string{"TAVILY_API_KEY": "key"}, params.Env)
		assert.Equal(t, os.Stderr, params.Stderr)
	})

	t.Run("custom command", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MCP.Command = "node"
		cfg.MCP.Args = []string{"server.js"}

		params := cfg.ConnectorParams()
		assert.Equal(t, "node", params.Command)
		assert.Equal(t, []string{"server.js"}, params.Args)
	})

	t.Run("url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MCP.URL = "http://localhost:3000/mcp"

		params := cfg.ConnectorParams()
		assert.Equal(t, "http://localhost:3000/mcp", params.URL)
		assert.Empty(t, params.Command)
	})
}

func TestConfig_ModelProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = "key"
	provider := cfg.ModelProvider()
	require.NotNil(t, provider.GeminiProvider)
	require.NotNil(t, provider.OpenAIProvider)
}
