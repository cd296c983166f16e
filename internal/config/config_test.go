package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reprompt/internal/extract"
	"reprompt/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	want := Settings{
		APIKey:         "sk-secret \"quoted\"",
		APIKeyEnv:      "MY_KEY",
		BaseURL:        "http://localhost:11434/v1",
		Model:          "gpt-4o",
		Prompt:         "Ask\none question.\t",
		Prefix:         "**Q:** ",
		Postfix:        "\n\n",
		IncludePath:    true,
		Divider:        `(?m)^\*\*\*`,
		IncludeDivider: false,
		Fallback:       extract.FallbackEmpty,
		RequestTimeout: Duration(45 * time.Second),
		Journal:        false,
	}

	require.NoError(t, SaveFile(path, want))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFileMissingKeysUseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = \"sk-1\"\nmodel = \"gpt-4\"\n"), 0600))

	got, err := LoadFile(path)
	require.NoError(t, err)

	want := Default()
	want.APIKey = "sk-1"
	want.Model = "gpt-4"
	assert.Equal(t, want, got)
}

func TestLoadFileMissingFile(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("model = "), 0600))
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, "> AI: ", s.Prefix)
	assert.Equal(t, "\n", s.Postfix)
	assert.Equal(t, extract.DefaultPattern, s.Divider)
	assert.False(t, s.IncludePath)
	assert.Equal(t, 2*time.Minute, time.Duration(s.RequestTimeout))
	require.NoError(t, s.Validate())
}

func TestMergeJSON(t *testing.T) {
	var opts any
	require.NoError(t, json.Unmarshal([]byte(`{
		"model": "gemini-2.5-flash",
		"include_path": true,
		"request_timeout": "10s"
	}`), &opts))

	base := Default()
	base.APIKey = "from-file"
	got, err := Merge(base, opts)
	require.NoError(t, err)

	assert.Equal(t, "from-file", got.APIKey)
	assert.Equal(t, "gemini-2.5-flash", got.Model)
	assert.True(t, got.IncludePath)
	assert.Equal(t, 10*time.Second, time.Duration(got.RequestTimeout))
	assert.Equal(t, "> AI: ", got.Prefix)

	same, err := Merge(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, same)
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	_, err := Load(map[string]any{"include_path": "yes"})
	require.Error(t, err)
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"invalid divider", func(s *Settings) { s.Divider = `^(#+` }},
		{"unknown model", func(s *Settings) { s.Model = "gpt-9" }},
		{"unknown fallback", func(s *Settings) { s.Fallback = "whole" }},
		{"negative timeout", func(s *Settings) { s.RequestTimeout = Duration(-time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)
			_, err := s.Compile()
			require.Error(t, err)
			assert.Equal(t, prompt.ConfigurationError, prompt.KindOf(err))
		})
	}

	s := Default()
	s.IncludeDivider = false
	s.Fallback = extract.FallbackEmpty
	e, err := s.Compile()
	require.NoError(t, err)
	assert.False(t, e.IncludeDivider)
	assert.Equal(t, extract.FallbackEmpty, e.Fallback)
	assert.Equal(t, extract.DefaultPattern, e.Pattern())
}

func TestCredential(t *testing.T) {
	t.Setenv("REPROMPT_TEST_KEY", "from-env")

	s := Default()
	s.APIKeyEnv = "REPROMPT_TEST_KEY"
	assert.Equal(t, "from-env", s.Credential())

	s.APIKey = "stored"
	assert.Equal(t, "stored", s.Credential())

	s.APIKey = ""
	s.APIKeyEnv = ""
	assert.Equal(t, "", s.Credential())
}

func TestRequest(t *testing.T) {
	s := Default()
	s.APIKey = "sk-1"
	s.IncludePath = true
	req := s.Request()
	assert.Equal(t, prompt.Request{
		APIKey:      "sk-1",
		Prompt:      DefaultPrompt,
		Model:       s.Model,
		Prefix:      "> AI: ",
		Postfix:     "\n",
		IncludePath: true,
		Timeout:     2 * time.Minute,
	}, req)
}

func TestXDGDirs(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "config", "reprompt", "settings.toml"), path)

	dir, err := StateDir()
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(root, "state", "reprompt"), dir)
}
