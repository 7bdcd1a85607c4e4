package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/phpxx-lang/phpxx/phpxx"
)

var failureStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("9")).
	Bold(true)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "dump":
		return dumpCommand(args[2:])
	case "analyze":
		return analyzeCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "repl":
		return runREPL()
	case "lsp":
		return runLSP()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

// reportedError carries text already formatted for the terminal.
type reportedError struct {
	text string
	err  error
}

func (e *reportedError) Error() string { return e.text }

func (e *reportedError) Unwrap() error { return e.err }

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	configPath := fs.String("config", "", "project config file (default phpxx.yaml next to the script)")
	function := fs.String("function", "", "function to invoke after the top level has run")
	checkOnly := fs.Bool("check", false, "only compile the script without executing")
	stepQuota := fs.Int("step-quota", 0, "maximum number of executed statements (0 is unlimited)")
	recursionLimit := fs.Int("recursion-limit", 0, "maximum call depth")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logFile := fs.String("log-file", "", "write logs to this file instead of stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	remaining := fs.Args()
	scriptArg := ""
	if len(remaining) > 0 {
		scriptArg, remaining = remaining[0], remaining[1:]
	}

	configDir := "."
	if scriptArg != "" {
		configDir = filepath.Dir(scriptArg)
	}
	cfg, err := resolveProjectConfig(*configPath, configDir)
	if err != nil {
		return err
	}
	if explicit["step-quota"] {
		cfg.StepQuota = *stepQuota
	}
	if explicit["recursion-limit"] {
		cfg.RecursionLimit = *recursionLimit
	}
	if explicit["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}

	scriptPath := cfg.entryPath(scriptArg)
	source, err := readScript(scriptPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.LogLevel, *logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	engine, err := phpxx.NewEngine(phpxx.Config{
		StepQuota:      cfg.StepQuota,
		RecursionLimit: cfg.RecursionLimit,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	program, err := compileScript(engine, source, false)
	if err != nil {
		return err
	}
	if *checkOnly {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	argsValues := make([]phpxx.Value, len(remaining))
	for i, raw := range remaining {
		argsValues[i] = phpxx.NewString(raw)
	}

	if *function != "" {
		result, err := engine.Call(ctx, program, *function, argsValues...)
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		if !result.IsVoid() {
			fmt.Println(result.String())
		}
		return nil
	}

	result, err := engine.Run(ctx, program, argsValues...)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if result.Halted {
		logger.Info("program halted", "script", scriptPath, "payload", result.Payload.Visualize())
	}
	return nil
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("phpxx check: script path required")
	}
	for _, path := range fs.Args() {
		source, err := readScript(path)
		if err != nil {
			return err
		}
		if _, err := compileScript(phpxx.MustNewEngine(phpxx.Config{}), source, true); err != nil {
			return err
		}
	}
	return nil
}

func dumpCommand(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("phpxx dump: script path required")
	}
	source, err := readScript(fs.Arg(0))
	if err != nil {
		return err
	}
	program, err := compileScript(phpxx.MustNewEngine(phpxx.Config{}), source, false)
	if err != nil {
		return err
	}
	fmt.Print(program.Listing())
	return nil
}

func readScript(path string) (string, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return "", &reportedError{
			text: failureStyle.Render(fmt.Sprintf("Failed to read file '%s'", path)),
			err:  err,
		}
	}
	return string(input), nil
}

// compileScript reports parse errors as `message - 'excerpt'`, optionally
// followed by the code frame.
func compileScript(engine *phpxx.Engine, source string, withFrame bool) (*phpxx.Program, error) {
	program, err := engine.Compile(source)
	if err == nil {
		return program, nil
	}
	var perr *phpxx.ParseError
	if !errors.As(err, &perr) {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	text := perr.Message
	if excerpt := perr.Excerpt(); excerpt != "" {
		text = fmt.Sprintf("%s - '%s'", perr.Message, excerpt)
	}
	text = failureStyle.Render(text)
	if withFrame {
		if frame := perr.CodeFrame(); frame != "" {
			text += "\n" + frame
		}
	}
	return nil, &reportedError{text: text, err: err}
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [arguments]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [flags] [script] [args...]")
	fmt.Fprintln(os.Stderr, "    run a script (default main.phpxx)")
	fmt.Fprintln(os.Stderr, "  check <script>...")
	fmt.Fprintln(os.Stderr, "    compile scripts without running them")
	fmt.Fprintln(os.Stderr, "  dump <script>")
	fmt.Fprintln(os.Stderr, "    print the flattened statement list")
	fmt.Fprintln(os.Stderr, "  analyze <script>")
	fmt.Fprintln(os.Stderr, "    report unreachable statements and undefined calls")
	fmt.Fprintln(os.Stderr, "  fmt [-w] [-check] <path>...")
	fmt.Fprintln(os.Stderr, "    normalise whitespace in .phpxx files")
	fmt.Fprintln(os.Stderr, "  repl")
	fmt.Fprintln(os.Stderr, "    start an interactive session")
	fmt.Fprintln(os.Stderr, "  lsp")
	fmt.Fprintln(os.Stderr, "    serve the language server protocol on stdio")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -config <file>        project config (default phpxx.yaml next to the script)")
	fmt.Fprintln(os.Stderr, "  -function <name>      call a function and print its result")
	fmt.Fprintln(os.Stderr, "  -check                only compile the script")
	fmt.Fprintln(os.Stderr, "  -step-quota <n>       cap executed statements")
	fmt.Fprintln(os.Stderr, "  -recursion-limit <n>  cap call depth")
	fmt.Fprintln(os.Stderr, "  -log-level <level>    debug, info, warn or error (default error)")
	fmt.Fprintln(os.Stderr, "  -log-file <file>      write logs to a file")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
