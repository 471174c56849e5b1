// Package config loads easyprog.yaml, the settings shared by the ep command,
// its interactive prompt and its file watcher.
package config

import "time"

// Config represents the complete easy_prog configuration
type Config struct {
	Path   string       `yaml:"-"` // File the configuration was read from, empty for defaults
	REPL   REPLConfig   `yaml:"repl"`
	Stdlib StdlibConfig `yaml:"stdlib"`
	Watch  WatchConfig  `yaml:"watch"`
}

// REPLConfig holds interactive prompt settings
type REPLConfig struct {
	Prompt             string `yaml:"prompt"`              // Main prompt (default: ">>> ")
	ContinuationPrompt string `yaml:"continuation_prompt"` // Shown while brackets are open (default: "... ")
	HistoryFile        string `yaml:"history_file"`        // Empty disables history
	Color              bool   `yaml:"color"`               // Colour error headings
}

// StdlibConfig controls which native functions a fresh scope gets
type StdlibConfig struct {
	Disable  []string `yaml:"disable"`   // Groups to leave out: io, file, string, core, debug, time, db, crypto
	MaxDepth int      `yaml:"max_depth"` // Nested call limit, 0 keeps the interpreter default
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // Quiet period before re-running (default: 200ms)
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:             ">>> ",
			ContinuationPrompt: "... ",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
