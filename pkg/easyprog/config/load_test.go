package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.REPL.Prompt != ">>> " {
		t.Errorf("expected default prompt '>>> ', got %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.ContinuationPrompt != "... " {
		t.Errorf("expected default continuation prompt '... ', got %q", cfg.REPL.ContinuationPrompt)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("expected default debounce 200ms, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Stdlib.Disable) != 0 {
		t.Errorf("expected every stdlib group enabled, got %v disabled", cfg.Stdlib.Disable)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "EP_PROMPT":
			return "ep> "
		case "EP_DIR":
			return "/var/ep"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "prompt: ${EP_PROMPT}", "prompt: ep> "},
		{"with default (env set)", "prompt: ${EP_PROMPT:-> }", "prompt: ep> "},
		{"with default (env not set)", "prompt: ${UNSET_VAR:-> }", "prompt: > "},
		{"multiple substitutions", "history_file: ${EP_DIR}/${UNSET:-history}", "history_file: /var/ep/history"},
		{"unset without default", "prompt: ${UNSET_VAR}", "prompt: "},
		{"no patterns", "color: true", "color: true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
repl:
  prompt: "${EP_PROMPT:-ep> }"
  history_file: .ep_history
  color: true
stdlib:
  disable: [db, crypto]
  max_depth: 500
watch:
  debounce: 1s
`)

	cfg, err := Load(path, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.REPL.Prompt != "ep> " {
		t.Errorf("Prompt = %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.ContinuationPrompt != "... " {
		t.Errorf("unset fields should keep defaults, got %q", cfg.REPL.ContinuationPrompt)
	}
	if want := filepath.Join(filepath.Dir(path), ".ep_history"); cfg.REPL.HistoryFile != want {
		t.Errorf("HistoryFile = %q, want %q", cfg.REPL.HistoryFile, want)
	}
	if !cfg.REPL.Color {
		t.Error("Color should be true")
	}
	if !reflect.DeepEqual(cfg.Stdlib.Disable, []string{"db", "crypto"}) {
		t.Errorf("Disable = %v", cfg.Stdlib.Disable)
	}
	if cfg.Stdlib.MaxDepth != 500 {
		t.Errorf("MaxDepth = %d", cfg.Stdlib.MaxDepth)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoadFromEnvVar(t *testing.T) {
	path := writeConfig(t, "repl:\n  prompt: \"env> \"\n")
	getenv := func(key string) string {
		if key == EnvVar {
			return path
		}
		return ""
	}

	cfg, err := Load("", getenv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.REPL.Prompt != "env> " {
		t.Errorf("Prompt = %q", cfg.REPL.Prompt)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown group", "stdlib:\n  disable: [io, network]\n", `unknown group "network"`},
		{"negative debounce", "watch:\n  debounce: -1s\n", "watch.debounce must not be negative"},
		{"bad yaml", "repl: [", "failed to parse config"},
		{"bad duration", "watch:\n  debounce: soon\n", "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), noEnv)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv); err == nil {
		t.Error("an explicit path that does not exist should be an error")
	}

	getenv := func(key string) string {
		if key == EnvVar {
			return "/definitely/not/here.yaml"
		}
		return ""
	}
	if _, err := Load("", getenv); err == nil || !strings.Contains(err.Error(), EnvVar) {
		t.Errorf("missing %s file error = %v", EnvVar, err)
	}
}

func TestLoadWithoutAnyFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	t.Setenv("HOME", dir)

	cfg, err := Load("", noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Errorf("Load without files = %+v, want defaults", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Stdlib.Disable = []string{"nope", "io"}
	cfg.Stdlib.MaxDepth = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{`unknown group "nope"`, "max_depth"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	if Validate(Defaults()) != nil {
		t.Error("defaults should validate")
	}
}
