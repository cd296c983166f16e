// Package config holds the persisted reprompt settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reprompt/internal/extract"
	"reprompt/internal/llm"
	"reprompt/internal/prompt"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("reprompt.config")

const appName = "reprompt"

const DefaultPrompt = "You are a thoughtful writing partner. Read the user's notes and reply " +
	"with exactly one short, open question that would push their thinking further. " +
	"Do not summarize, answer or give advice. Reply with the question only."

type Settings struct {
	APIKey    string `toml:"api_key" json:"api_key"`
	APIKeyEnv string `toml:"api_key_env" json:"api_key_env"`
	BaseURL   string `toml:"base_url" json:"base_url"`
	Model     string `toml:"model" json:"model"`
	Prompt    string `toml:"prompt" json:"prompt"`

	Prefix      string `toml:"prefix" json:"prefix"`
	Postfix     string `toml:"postfix" json:"postfix"`
	IncludePath bool   `toml:"include_path" json:"include_path"`

	Divider        string           `toml:"divider" json:"divider"`
	IncludeDivider bool             `toml:"include_divider" json:"include_divider"`
	Fallback       extract.Fallback `toml:"fallback" json:"fallback"`

	RequestTimeout Duration `toml:"request_timeout" json:"request_timeout"`
	Journal        bool     `toml:"journal" json:"journal"`
}

var defaultSettings = Settings{
	APIKeyEnv:      "OPENAI_API_KEY",
	Model:          llm.DefaultModel,
	Prompt:         DefaultPrompt,
	Prefix:         "> AI: ",
	Postfix:        "\n",
	Divider:        extract.DefaultPattern,
	IncludeDivider: true,
	Fallback:       extract.FallbackPrefix,
	RequestTimeout: Duration(2 * time.Minute),
	Journal:        true,
}

func Default() Settings {
	return defaultSettings
}

// Load merges v over the defaults. Only fields present in v overwrite.
func Load(v any) (Settings, error) {
	return Merge(Default(), v)
}

// Merge overlays v, typically decoded LSP JSON, on base.
func Merge(base Settings, v any) (Settings, error) {
	if v == nil {
		return base, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal into Settings: %w", err)
	}
	return base, nil
}

// LoadFile reads a TOML settings file over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (Settings, error) {
	s := Default()
	meta, err := toml.DecodeFile(path, &s)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.Warningf("unknown setting %q in %s", key.String(), path)
	}
	return s, nil
}

// SaveFile writes s to path, replacing it atomically.
func SaveFile(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(s); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Validate reports the first invalid field as a configuration error.
func (s Settings) Validate() error {
	_, err := s.Compile()
	return err
}

// Compile checks the settings and builds the extractor they describe.
func (s Settings) Compile() (*extract.Extractor, error) {
	if !llm.Supported(s.Model) {
		return nil, prompt.Configuration("settings", fmt.Errorf("unsupported model %q", s.Model))
	}
	if !s.Fallback.Valid() {
		return nil, prompt.Configuration("settings", fmt.Errorf("unknown fallback %q, want %q or %q",
			s.Fallback, extract.FallbackPrefix, extract.FallbackEmpty))
	}
	if s.RequestTimeout < 0 {
		return nil, prompt.Configuration("settings", fmt.Errorf("negative request_timeout %s", s.RequestTimeout))
	}

	e, err := extract.New(s.Divider)
	if err != nil {
		return nil, prompt.Configuration("settings", err)
	}
	e.IncludeDivider = s.IncludeDivider
	e.Fallback = s.Fallback
	return e, nil
}

// Credential returns the API key, reading it from the environment variable
// named by APIKeyEnv when no key is stored.
func (s Settings) Credential() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	if s.APIKeyEnv != "" {
		return os.Getenv(s.APIKeyEnv)
	}
	return ""
}

func (s Settings) Request() prompt.Request {
	return prompt.Request{
		APIKey:      s.Credential(),
		BaseURL:     s.BaseURL,
		Prompt:      s.Prompt,
		Model:       s.Model,
		Prefix:      s.Prefix,
		Postfix:     s.Postfix,
		IncludePath: s.IncludePath,
		Timeout:     time.Duration(s.RequestTimeout),
	}
}

// Duration is a time.Duration written as a string such as "2m".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
