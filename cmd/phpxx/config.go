package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "phpxx.yaml"
	defaultScriptName = "main.phpxx"
)

// projectConfig is the optional phpxx.yaml next to a script. Command-line
// flags take precedence over every field.
type projectConfig struct {
	Entry          string `yaml:"entry"`
	StepQuota      int    `yaml:"step_quota"`
	RecursionLimit int    `yaml:"recursion_limit"`
	LogLevel       string `yaml:"log_level"`

	dir string
}

// loadProjectConfig reads path. An empty file is a valid, empty config.
func loadProjectConfig(path string) (projectConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return projectConfig{}, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return projectConfig{}, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	cfg := projectConfig{dir: filepath.Dir(absPath)}
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return projectConfig{}, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	if err := cfg.validate(); err != nil {
		return projectConfig{}, fmt.Errorf("config: %s: %w", absPath, err)
	}
	return cfg, nil
}

func (c projectConfig) validate() error {
	var issues []string
	if c.StepQuota < 0 {
		issues = append(issues, "step_quota must not be negative")
	}
	if c.RecursionLimit < 0 {
		issues = append(issues, "recursion_limit must not be negative")
	}
	if c.LogLevel != "" {
		if _, err := parseLogLevel(c.LogLevel); err != nil {
			issues = append(issues, err.Error())
		}
	}
	if len(issues) > 0 {
		return errors.New(strings.Join(issues, "; "))
	}
	return nil
}

// resolveProjectConfig loads the explicit config when one is given, and
// otherwise phpxx.yaml from dir if it exists.
func resolveProjectConfig(explicit, dir string) (projectConfig, error) {
	if explicit != "" {
		return loadProjectConfig(explicit)
	}
	candidate := filepath.Join(dir, projectConfigName)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return projectConfig{dir: dir}, nil
		}
		return projectConfig{}, fmt.Errorf("config: stat %s: %w", candidate, err)
	}
	return loadProjectConfig(candidate)
}

// entryPath resolves the script to run: the explicit argument, then the
// configured entry relative to the config file, then main.phpxx.
func (c projectConfig) entryPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.Entry != "" {
		if filepath.IsAbs(c.Entry) {
			return c.Entry
		}
		return filepath.Join(c.dir, c.Entry)
	}
	return defaultScriptName
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger builds the text logger used by the CLI. An empty path logs to
// stderr; the returned close function releases the log file.
func newLogger(level, path string) (*slog.Logger, func() error, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
		closeFn = file.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), closeFn, nil
}
