// Command pye is the engine's standalone driver: `pye run FILE` compiles
// and executes a script, `pye compile FILE [-o OUT]` emits a .pyq bytecode
// image, and bare `pye FILE` (the teacher cmd/taipy shape: read a path from
// argv[1], or stdin if absent) runs a script directly. Adapted from
// reusee-tai/cmd/taipy/main.go, with command dispatch moved from a flat
// os.Args switch onto pycli's reflection-based Executor.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/embedpy/pye/pycli"
	"github.com/embedpy/pye/pyconfig"
	"github.com/embedpy/pye/pye"
	"github.com/embedpy/pye/pylog"
)

const version = "0.1.0"

func main() {
	logger := pylog.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	executor := pycli.NewExecutor()

	executor.Define("run", pycli.Func(runScript).Desc("compile and run a script file, binding any trailing arguments as argv"))
	executor.Define("compile", pycli.Func(compileScript).Desc("compile a script to a .pyq bytecode image"))
	executor.Define("-version", pycli.Func(printVersion).Desc("print the engine version").Alias("--version"))
	executor.Define("-log-debug", pycli.Func(func() {
		pylog.SetLevel(slog.LevelDebug)
	}).Desc("set the log level to debug"))
	executor.Define("-log-info", pycli.Func(func() {
		pylog.SetLevel(slog.LevelInfo)
	}).Desc("set the log level to info"))

	args := os.Args[1:]
	if len(args) == 0 {
		runStdin()
		return
	}

	// bare `pye FILE`, mirroring cmd/taipy's argv[1]-or-stdin shape, when the
	// first argument isn't a known command.
	if _, isCommand := map[string]bool{
		"run": true, "compile": true, "-version": true, "--version": true,
		"-log-debug": true, "-log-info": true, "-h": true, "help": true, "-help": true, "--help": true,
	}[args[0]]; !isCommand {
		runFile(args[0])
		return
	}

	if err := executor.Execute(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Println("pye " + version)
}

func runStdin() {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		fail(err)
	}
	runSource("<stdin>", string(src))
}

func runFile(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fail(err)
	}
	runSource(path, string(src))
}

func runScript(path string, scriptArgs pycli.Rest) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := newContext(path)
	ctx.Set("argv", pycli.ToPyArgs(scriptArgs))
	_, err = ctx.Eval(string(src))
	return err
}

func compileScript(path string, flag *string, out *string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := newContext(path)
	image, err := ctx.Compile(string(src))
	if err != nil {
		return err
	}
	outPath := path + ".pyq"
	if flag != nil && *flag != "" {
		if *flag != "-o" {
			return fmt.Errorf("compile: unexpected argument %q", *flag)
		}
		if out != nil && *out != "" {
			outPath = *out
		}
	}
	return os.WriteFile(outPath, image, 0o644)
}

func runSource(name, src string) {
	ctx := newContext(name)
	if _, err := ctx.Eval(src); err != nil {
		fail(err)
	}
}

func newContext(scriptPath string) *pye.Context {
	settings, err := pyconfig.LoadEngineSettings([]string{"pye.cue"})
	if err != nil {
		slog.Debug("no engine config loaded", "path", scriptPath, "error", err)
		return pye.New()
	}
	if settings.LogLevel != "" {
		if level, parseErr := parseLevel(settings.LogLevel); parseErr == nil {
			pylog.SetLevel(level)
		}
	}
	return pye.NewWithMaxCallDepth(settings.MaxRecursionDepth)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
