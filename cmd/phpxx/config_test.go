package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, projectConfigName)
	writeFile(t, path, "entry: src/app.phpxx\nstep_quota: 500\nrecursion_limit: 64\nlog_level: debug\n")

	cfg, err := loadProjectConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cfg.entryPath(""); got != filepath.Join(dir, "src", "app.phpxx") {
		t.Fatalf("unexpected entry path %q", got)
	}
	if got := cfg.entryPath("other.phpxx"); got != "other.phpxx" {
		t.Fatalf("explicit script should win, got %q", got)
	}

	cfg.dir = ""
	want := projectConfig{Entry: "src/app.phpxx", StepQuota: 500, RecursionLimit: 64, LogLevel: "debug"}
	if diff := cmp.Diff(want, cfg, cmp.AllowUnexported(projectConfig{})); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProjectConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), projectConfigName)
	writeFile(t, path, "")

	cfg, err := loadProjectConfig(path)
	if err != nil {
		t.Fatalf("empty config should load: %v", err)
	}
	if got := cfg.entryPath(""); got != defaultScriptName {
		t.Fatalf("expected default script, got %q", got)
	}
}

func TestLoadProjectConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), projectConfigName)
	writeFile(t, path, "entry: main.phpxx\nmodules: [a]\n")

	_, err := loadProjectConfig(path)
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadProjectConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), projectConfigName)
	writeFile(t, path, "step_quota: -1\nlog_level: loud\n")

	_, err := loadProjectConfig(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"step_quota must not be negative", `invalid log level "loud"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestResolveProjectConfigWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := resolveProjectConfig("", dir)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.StepQuota != 0 || cfg.Entry != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("WARN")
	if err != nil || level != slog.LevelWarn {
		t.Fatalf("unexpected level %v (%v)", level, err)
	}
	if _, err := parseLogLevel("chatty"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
