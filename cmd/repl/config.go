package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the REPL settings. Values come from the config file, then
// environment variables, then command-line flags, each overriding the
// last.
//
// Example ~/.cypherbee.yaml:
//
//	graph: movies
//	dsn: postgres://postgres@localhost:5432/postgres?sslmode=disable
//	pretty: true
//	opa:
//	  url: http://localhost:8181
//	  policy: data.app.allow
//	  input:
//	    user: alice
type Config struct {
	Graph         string    `yaml:"graph"`
	DSN           string    `yaml:"dsn"`
	Journal       string    `yaml:"journal"` // empty disables the journal
	LogLevel      string    `yaml:"log_level"`
	Pretty        bool      `yaml:"pretty"`
	NormalizeCase bool      `yaml:"normalize_case"`
	HistoryFile   string    `yaml:"history_file"`
	OPA           OPAConfig `yaml:"opa"`
}

// OPAConfig configures the opa plugin's server mode.
type OPAConfig struct {
	URL    string         `yaml:"url"`
	Policy string         `yaml:"policy"`
	Input  map[string]any `yaml:"input"`
}

// defaultConfig returns the settings used when nothing overrides them.
func defaultConfig() Config {
	cfg := Config{Graph: "graph", LogLevel: "warn"}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Journal = filepath.Join(home, ".cypherbee", "journal.db")
		cfg.HistoryFile = filepath.Join(home, ".cypherbee_history")
	}
	return cfg
}

// defaultConfigPath returns ~/.cypherbee.yaml, or "" without a home
// directory.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cypherbee.yaml")
}

// loadConfig reads the YAML file at path over the defaults. A missing
// file is fine unless the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decodeConfig(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// decodeConfig decodes YAML into cfg, rejecting unknown keys.
func decodeConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("CYPHERBEE_GRAPH"); v != "" {
		c.Graph = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.DSN = v
	}
	if v, ok := lookup(getenv, "CYPHERBEE_JOURNAL"); ok {
		c.Journal = v
	}
	if v := getenv("CYPHERBEE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("CYPHERBEE_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CYPHERBEE_PRETTY: %w", err)
		}
		c.Pretty = b
	}
	if v := getenv("OPA_URL"); v != "" {
		c.OPA.URL = v
	}
	return nil
}

// lookup treats the value "none" as an explicit empty setting.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch {
	case v == "":
		return "", false
	case strings.EqualFold(v, "none"):
		return "", true
	}
	return v, true
}

// level parses LogLevel.
func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
