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
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/toolinit"
	"gopkg.in/yaml.v3"
)

// Tool server presets.
const (
	PresetBrightData = "brightdata"
	PresetTavily     = "tavily"
)

const DefaultWebUnlockerZone = "mcp_unlocker"

var presetCommands = map[string][]string{
	PresetBrightData: {"npx", "-y", "@brightdata/mcp"},
	PresetTavily:     {"npx", "-y", "tavily-mcp@0.1.3"},
}

type Config struct {
	// Model name, optionally prefixed by a provider ("openai/gpt-4.1").
	Model string `yaml:"model"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	// Maximum number of model calls per stage.
	MaxTurns uint64 `yaml:"max_turns"`

	// Number of session history items given to the stages. Zero means all.
	HistorySize int `yaml:"history_size"`

	// Session database: a SQLite file path, or a postgres:// URL.
	// Empty keeps sessions in memory.
	Database string `yaml:"database"`

	// Directory where reports are written. Empty disables writing.
	ReportDir string `yaml:"report_dir"`

	MCP MCPConfig `yaml:"mcp"`
}

type MCPConfig struct {
	// Preset selecting the default command and environment.
	Preset string `yaml:"preset"`

	// Command line overriding the preset one.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// URL of a Streamable HTTP server, used instead of a command.
	URL string `yaml:"url"`

	// Extra environment of the server process.
	Env map[string]string `yaml:"env"`

	// Bright Data preset settings.
	APIToken        string `yaml:"api_token"`
	WebUnlockerZone string `yaml:"web_unlocker_zone"`
	BrowserAuth     string `yaml:"browser_auth"`
	RateLimit       string `yaml:"rate_limit"`

	// Tavily preset settings.
	TavilyAPIKey string `yaml:"tavily_api_key"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	AllowedTools   []string      `yaml:"allowed_tools"`
	BlockedTools   []string      `yaml:"blocked_tools"`

	// Whether the server stderr is copied to the process stderr.
	LogStderr bool `yaml:"log_stderr"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		MaxTurns: agents.DefaultMaxTurns,
		MCP: MCPConfig{
			Preset:          PresetBrightData,
			WebUnlockerZone: DefaultWebUnlockerZone,
			ConnectTimeout:  2 * time.Minute,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// the environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.fillDefaults()
	return cfg, nil
}

// LoadDotEnv loads variables from the given files, ".env" by default,
// without overriding the ones already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides the configuration with the variables set in the
// environment read by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Model, "NEWS_AGENT_MODEL")
	set(&c.GeminiAPIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	set(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	set(&c.Database, "NEWS_AGENT_DB")
	set(&c.MCP.Preset, "NEWS_AGENT_MCP_PRESET")
	set(&c.MCP.APIToken, "BRIGHTDATA_API_TOKEN", "API_TOKEN")
	set(&c.MCP.WebUnlockerZone, "WEB_UNLOCKER_ZONE")
	set(&c.MCP.BrowserAuth, "BROWSER_AUTH")
	set(&c.MCP.RateLimit, "RATE_LIMIT")
	set(&c.MCP.TavilyAPIKey, "TAVILY_API_KEY")
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	c.Model = cmp.Or(c.Model, def.Model)
	c.MaxTurns = cmp.Or(c.MaxTurns, def.MaxTurns)
	c.MCP.Preset = cmp.Or(strings.ToLower(c.MCP.Preset), def.MCP.Preset)
	c.MCP.WebUnlockerZone = cmp.Or(c.MCP.WebUnlockerZone, def.MCP.WebUnlockerZone)
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("no model configured"))
	} else if usesGemini(c.Model) {
		if c.GeminiAPIKey == "" {
			errs = append(errs, fmt.Errorf("model %s needs a Gemini API key (set GOOGLE_API_KEY)", c.Model))
		}
	} else if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
		errs = append(errs, fmt.Errorf("model %s needs an OpenAI API key (set OPENAI_API_KEY)", c.Model))
	}
	if c.HistorySize < 0 {
		errs = append(errs, fmt.Errorf("invalid history_size %d", c.HistorySize))
	}
	if c.MCP.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid mcp.connect_timeout %s", c.MCP.ConnectTimeout))
	}

	custom := c.MCP.Command != "" || c.MCP.URL != ""
	switch c.MCP.Preset {
	case PresetBrightData:
		if !custom && c.MCP.APIToken == "" {
			errs = append(errs, errors.New("the brightdata tool server needs an API token (set BRIGHTDATA_API_TOKEN)"))
		}
	case PresetTavily:
		if !custom && c.MCP.TavilyAPIKey == "" {
			errs = append(errs, errors.New("the tavily tool server needs an API key (set TAVILY_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mcp.preset %q (valid: %s, %s)", c.MCP.Preset, PresetBrightData, PresetTavily))
	}
	return errors.Join(errs...)
}

// usesGemini reports whether a model name is routed to Gemini by
// agents.MultiProvider.
func usesGemini(model string) bool {
	prefix, name, ok := strings.Cut(model, "/")
	if !ok {
		return strings.HasPrefix(model, "gemini")
	}
	return prefix == "gemini" || prefix == "google" || (prefix == "" && strings.HasPrefix(name, "gemini"))
}

// ModelProvider returns a provider for the configured model keys.
func (c *Config) ModelProvider() *agents.MultiProvider {
	return agents.NewMultiProvider(agents.NewMultiProviderParams{
		OpenaiAPIKey:  c.OpenAIAPIKey,
		OpenaiBaseURL: c.OpenAIBaseURL,
		GeminiAPIKey:  c.GeminiAPIKey,
	})
}

// ConnectorParams returns the parameters launching the configured tool
// server.
func (c *Config) ConnectorParams() toolinit.MCPConnectorParams {
	m := c.MCP
	params := toolinit.MCPConnectorParams{
		Name:           cmp.Or(m.Preset, PresetBrightData),
		URL:            m.URL,
		ConnectTimeout: m.ConnectTimeout,
		AllowedTools:   m.AllowedTools,
		BlockedTools:   m.BlockedTools,
		Env:            c.presetEnv(),
	}
	maps.Copy(params.Env, m.Env)

	if m.URL == "" {
		if m.Command != "" {
			params.Command, params.Args = m.Command, slices.Clone(m.Args)
		} else if cmdline, ok := presetCommands[params.Name]; ok {
			params.Command, params.Args = cmdline[0], slices.Clone(cmdline[1:])
		}
	}
	if m.LogStderr {
		params.Stderr = os.Stderr
	}
	return params
}

func (c *Config) presetEnv() map[string]string {
	env := make(map[string]string)
	put := func(k, v string) {
		if v != "" {
			env[k] = v
		}
	}
	switch c.MCP.Preset {
	case PresetTavily:
		put("TAVILY_API_KEY", c.MCP.TavilyAPIKey)
	default:
		put("API_TOKEN", c.MCP.APIToken)
		put("WEB_UNLOCKER_ZONE", c.MCP.WebUnlockerZone)
		put("BROWSER_AUTH", c.MCP.BrowserAuth)
		put("RATE_LIMIT", c.MCP.RateLimit)
	}
	return env
}
