package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFmtCommandRequiresPath(t *testing.T) {
	err := fmtCommand(nil)
	if err == nil {
		t.Fatalf("expected path required error")
	}
	if !strings.Contains(err.Error(), "path required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFmtCommandCheckDetectsUnformattedFiles(t *testing.T) {
	path := writeScript(t, "function f() {  \n  throw(1);\t \n}")
	out, err := captureStdout(t, func() error {
		return fmtCommand([]string{"-check", path})
	})
	if err == nil {
		t.Fatalf("expected formatting check failure")
	}
	if !strings.Contains(err.Error(), "need formatting") {
		t.Fatalf("unexpected check error: %v", err)
	}
	if !strings.Contains(out, "script.phpxx") {
		t.Fatalf("expected the file to be listed, got %q", out)
	}
}

func TestFmtCommandWriteFormatsFileInPlace(t *testing.T) {
	path := writeScript(t, "function f() {  \n  throw(1);\t \n}")
	if err := fmtCommand([]string{"-w", path}); err != nil {
		t.Fatalf("fmt -w failed: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read formatted file: %v", err)
	}
	if got := string(updated); got != "function f() {\n  throw(1);\n}\n" {
		t.Fatalf("unexpected formatted output: %q", got)
	}
}

func TestFmtCommandPrintsFormattedOutput(t *testing.T) {
	path := writeScript(t, "\n\necho 1;  \r\n\r\n\r\n\r\necho 2;\n\n")
	out, err := captureStdout(t, func() error {
		return fmtCommand([]string{path})
	})
	if err != nil {
		t.Fatalf("fmt command failed: %v", err)
	}
	if out != "echo 1;\n\necho 2;\n" {
		t.Fatalf("unexpected stdout output: %q", out)
	}
}

func TestFmtCommandFormatsDirectories(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a.phpxx")
	second := filepath.Join(root, "nested", "b.phpxx")
	ignored := filepath.Join(root, "notes.txt")
	if err := os.MkdirAll(filepath.Dir(second), 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	writeFile(t, first, "echo 1;  \n")
	writeFile(t, second, "echo 2;\t\n\n\n")
	writeFile(t, ignored, "left   \n")

	if err := fmtCommand([]string{"-w", root}); err != nil {
		t.Fatalf("fmt directory failed: %v", err)
	}
	if err := fmtCommand([]string{"-check", root}); err != nil {
		t.Fatalf("expected no formatting diffs after write, got %v", err)
	}
	notes, err := os.ReadFile(ignored)
	if err != nil {
		t.Fatalf("read ignored file: %v", err)
	}
	if string(notes) != "left   \n" {
		t.Fatalf("non-script file was rewritten: %q", notes)
	}
}

func TestFormatScriptSourceKeepsMultilineStrings(t *testing.T) {
	source := "echo \"a  \n\n\nb\";  \n# \"comment  \necho 1;  \n"
	want := "echo \"a  \n\n\nb\";\n# \"comment\necho 1;\n"
	if got := formatScriptSource(source); got != want {
		t.Fatalf("unexpected formatting:\nwant %q\ngot  %q", want, got)
	}
}

func TestFormatScriptSourceKeepsCarriageReturnsInStrings(t *testing.T) {
	source := "echo \"a\r\nb\rc\";\r\n# \"x\recho \"\\\"\r\n\";  \r\n"
	want := "echo \"a\r\nb\rc\";\n# \"x\necho \"\\\"\r\n\";\n"
	if got := formatScriptSource(source); got != want {
		t.Fatalf("unexpected formatting:\nwant %q\ngot  %q", want, got)
	}
}
