package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const scriptExt = ".phpxx"

type fmtMode int

const (
	fmtPrint fmtMode = iota
	fmtWrite
	fmtCheck
)

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "rewrite files in place")
	check := fs.Bool("check", false, "list files that need formatting and fail if any do")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("phpxx fmt: path required")
	}

	mode := fmtPrint
	switch {
	case *check:
		mode = fmtCheck
	case *write:
		mode = fmtWrite
	}

	files, err := collectScriptFiles(fs.Args())
	if err != nil {
		return err
	}
	pending := 0
	for _, path := range files {
		changed, err := formatFile(path, mode)
		if err != nil {
			return err
		}
		if changed {
			pending++
		}
	}
	if mode == fmtCheck && pending > 0 {
		return fmt.Errorf("phpxx fmt: %d file(s) need formatting", pending)
	}
	return nil
}

// formatFile applies mode to one file and reports whether its contents
// differ from the formatted form.
func formatFile(path string, mode fmtMode) (bool, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	formatted := formatScriptSource(string(original))
	changed := formatted != string(original)

	switch mode {
	case fmtPrint:
		fmt.Print(formatted)
	case fmtCheck:
		if changed {
			fmt.Println(path)
		}
	case fmtWrite:
		if !changed {
			return false, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return changed, nil
}

// collectScriptFiles expands directories recursively into their .phpxx
// files. Explicit file arguments are kept whatever their extension.
func collectScriptFiles(targets []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			if err := add(target); err != nil {
				return nil, err
			}
			continue
		}
		walk := func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() || filepath.Ext(path) != scriptExt {
				return err
			}
			return add(path)
		}
		if err := filepath.WalkDir(target, walk); err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatScriptSource normalises line endings, strips trailing whitespace,
// collapses runs of blank lines and ends the file with one newline. Lines
// that continue a multi-line string literal are left alone.
func formatScriptSource(source string) string {
	normalized := normalizeLineEndings(source)

	lines := strings.Split(normalized, "\n")
	out := make([]string, 0, len(lines))
	inString := false
	for _, line := range lines {
		startsInString := inString
		inString = scanStringState(line, inString)
		if !inString {
			line = strings.TrimRight(line, " \t")
		}
		if !startsInString && line == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, line)
	}

	joined := strings.Join(out, "\n")
	if !inString {
		joined = strings.TrimRight(joined, "\n")
	}
	return joined + "\n"
}

// normalizeLineEndings turns CRLF and lone CR into LF outside string
// literals. Carriage returns inside a literal are part of its value.
func normalizeLineEndings(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	inString, inComment := false, false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case inString:
			switch c {
			case '\\':
				if i+1 < len(source) {
					b.WriteByte(c)
					i++
					c = source[i]
				}
			case '"':
				inString = false
			}
		case c == '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				continue
			}
			inComment = false
			c = '\n'
		case c == '\n':
			inComment = false
		case inComment:
		case c == '"':
			inString = true
		case c == '#', c == '/' && i+1 < len(source) && source[i+1] == '/':
			inComment = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// scanStringState reports whether line ends inside a string literal, given
// whether it started inside one. Comments end the scan.
func scanStringState(line string, inString bool) bool {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
		case c == '#':
			return false
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return false
		}
	}
	return inString
}
