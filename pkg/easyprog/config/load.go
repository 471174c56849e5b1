package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/easyprog/easyprog/pkg/easyprog/stdlib"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "EASYPROG_CONFIG"

// FileName is the config file looked for in the working directory.
const FileName = "easyprog.yaml"

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations and falls back to
// Defaults when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Interpolate environment variables
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Path = path

	// Relative history files live next to the config file
	if h := cfg.REPL.HistoryFile; h != "" {
		cfg.REPL.HistoryFile = expandHome(h)
		if !filepath.IsAbs(cfg.REPL.HistoryFile) {
			cfg.REPL.HistoryFile = filepath.Join(filepath.Dir(path), cfg.REPL.HistoryFile)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	var errs []string
	for _, g := range cfg.Stdlib.Disable {
		if !stdlib.IsGroup(g) {
			errs = append(errs, fmt.Sprintf("stdlib.disable: unknown group %q", g))
		}
	}
	if cfg.Stdlib.MaxDepth < 0 {
		errs = append(errs, "stdlib.max_depth must not be negative")
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > EASYPROG_CONFIG env > ./easyprog.yaml > ~/.config/easyprog/easyprog.yaml
// An empty result with a nil error means no file exists.
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv(EnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s file not found: %s", EnvVar, envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "easyprog", FileName)
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		varName := string(parts[1])
		value := getenv(varName)
		if value == "" && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}
