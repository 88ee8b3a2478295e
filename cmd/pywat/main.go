package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/tliron/commonlog"

	"pywat/internal/artifact"
	"pywat/internal/codegen"
	"pywat/internal/compiler"
	"pywat/internal/config"
	"pywat/internal/diag"
	"pywat/internal/evaluator"
	"pywat/internal/lsp"
	"pywat/internal/object"
	"pywat/internal/typesys"
	"pywat/internal/wat"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("pywat.cli")

var (
	exitFn     = os.Exit
	compileFn  = compiler.Compile
	assembleFn = codegen.Assemble
	replFn     = runREPL
	lspFn      = func() error { return lsp.New(version).RunStdio() }
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runCLIContext(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	exitFn(code)
}

func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return runCLIContext(context.Background(), args, stdin, stdout, stderr)
}

func runCLIContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	case "version", "--version":
		fmt.Fprintf(stdout, "pywat %s\n", version)
		return 0
	case "build":
		return buildCommand(ctx, args[1:], stdin, stdout, stderr)
	case "check":
		return checkCommand(args[1:], stdin, stdout, stderr)
	case "run":
		return runCommand(ctx, args[1:], stdin, stdout, stderr)
	case "repl":
		return replCommand(args[1:], stderr)
	case "lsp":
		return lspCommand(args[1:], stderr)
	}
	return buildCommand(ctx, args, stdin, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pywat [build] [flags] <file.py|->")
	fmt.Fprintln(w, "       pywat check [flags] <file.py|->")
	fmt.Fprintln(w, "       pywat run [flags] <file.py|file.pyc|->")
	fmt.Fprintln(w, "       pywat repl")
	fmt.Fprintln(w, "       pywat lsp")
	fmt.Fprintln(w, "Build flags:")
	fmt.Fprintln(w, "  -o <path>        output path (- for stdout)")
	fmt.Fprintln(w, "  -emit <format>   wat, artifact or wasm")
	fmt.Fprintln(w, "  -dump-ast        print the typed AST")
	fmt.Fprintln(w, "  -run             execute the program after building")
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  -config <path>   use this pywat.toml instead of searching for one")
	fmt.Fprintln(w, "  -v               raise log verbosity (repeatable)")
	fmt.Fprintln(w, "  -log <path>      write logs to a file")
}

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v = verbosity(n)
	return nil
}

// common holds the flags every file command accepts.
type common struct {
	configPath string
	verbose    verbosity
	logPath    string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to pywat.toml")
	fs.Var(&c.verbose, "v", "raise log verbosity")
	fs.StringVar(&c.logPath, "log", "", "log file")
}

// setup loads the configuration for file and configures logging from it,
// with flags taking precedence.
func (c *common) setup(file string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case c.configPath != "":
		cfg, err = config.Load(c.configPath)
	case file == "-" || file == "":
		dir, werr := os.Getwd()
		if werr != nil {
			return nil, werr
		}
		cfg, err = config.FindAndLoad(dir)
	default:
		cfg, err = config.FindAndLoad(filepath.Dir(file))
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Verbosity
	if c.verbose > 0 {
		level = int(c.verbose)
	}
	path := cfg.Log.File
	if c.logPath != "" {
		path = c.logPath
	}
	configureLogging(level, path)
	if cfg.Path != "" {
		log.Debugf("using configuration %s", cfg.Path)
	}
	return cfg, nil
}

func configureLogging(level int, path string) {
	if path == "" {
		commonlog.Configure(level, nil)
		return
	}
	commonlog.Configure(level, &path)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// singleFile returns the one positional argument.
func singleFile(fs *flag.FlagSet, stderr io.Writer) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "pywat %s: expected exactly one source file, got %d\n", fs.Name(), fs.NArg())
		return "", false
	}
	return fs.Arg(0), true
}

// readSource reads file, or stdin for "-". The returned name is used in
// diagnostics.
func readSource(file string, stdin io.Reader) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return file, string(data), nil
}

func buildCommand(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("build", stderr)
	var opts common
	opts.register(fs)
	output := fs.String("o", "", "output path")
	emit := fs.String("emit", "", "output format: wat, artifact or wasm")
	dumpAST := fs.Bool("dump-ast", false, "print the typed AST")
	run := fs.Bool("run", false, "execute after building")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	file, ok := singleFile(fs, stderr)
	if !ok {
		return 1
	}

	cfg, err := opts.setup(file)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	name, source, err := readSource(file, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	format := cfg.Build.Emit
	if *emit != "" {
		format = *emit
	}
	switch format {
	case config.EmitWAT, config.EmitArtifact, config.EmitWasm:
	default:
		fmt.Fprintf(stderr, "unknown emit format %q\n", format)
		return 1
	}

	res, err := compileFn(source)
	if err != nil {
		printCompileError(stderr, name, source, err)
		return 1
	}
	if *dumpAST {
		dumpConfig.Fdump(stdout, res.Program)
	}

	out := *output
	if out == "" {
		if file == "-" {
			if format != config.EmitWAT {
				fmt.Fprintf(stderr, "pywat build: -o is required to emit %s from stdin\n", format)
				return 1
			}
			out = "-"
		} else {
			out = cfg.OutputPath(file, format)
		}
	}

	if err := emitOutput(ctx, format, out, source, res, stdout); err != nil {
		fmt.Fprintf(stderr, "Compilation failed: %v\n", err)
		return 1
	}
	if out != "-" {
		fmt.Fprintf(stdout, "Compiled to: %s\n", out)
	}
	log.Infof("built %s as %s", name, format)

	if !*run {
		return 0
	}
	return execute(ctx, cfg, name, source, res.Module, res.Program.Type, stdout, stderr)
}

func emitOutput(ctx context.Context, format, out, source string, res *compiler.Result, stdout io.Writer) error {
	switch format {
	case config.EmitArtifact:
		if out == "-" {
			return errors.New("cannot write an artifact to stdout")
		}
		return artifact.WriteFile(out, artifact.New(source, res.Program, res.Module))
	case config.EmitWasm:
		if out == "-" {
			return errors.New("cannot write a binary module to stdout")
		}
		return assembleFn(ctx, res.Text, out)
	}
	if out == "-" {
		_, err := io.WriteString(stdout, res.Text)
		return err
	}
	return os.WriteFile(out, []byte(res.Text), 0o644)
}

func checkCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("check", stderr)
	var opts common
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	file, ok := singleFile(fs, stderr)
	if !ok {
		return 1
	}
	if _, err := opts.setup(file); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	name, source, err := readSource(file, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	program, err := compiler.Check(source)
	if err != nil {
		printCompileError(stderr, name, source, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s: ok, result type %s\n", name, program.Type)
	return 0
}

// warnStale reports an artifact whose sibling source no longer matches it.
func warnStale(stderr io.Writer, file string, a *artifact.Artifact) {
	src := strings.TrimSuffix(file, ".pyc") + ".py"
	data, err := os.ReadFile(src)
	if err != nil {
		return
	}
	if !a.Matches(string(data)) {
		fmt.Fprintf(stderr, "warning: %s was not built from the current %s\n", file, src)
	}
}

func runCommand(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("run", stderr)
	var opts common
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	file, ok := singleFile(fs, stderr)
	if !ok {
		return 1
	}
	cfg, err := opts.setup(file)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	if filepath.Ext(file) == ".pyc" {
		a, err := artifact.ReadFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Execution failed: %v\n", err)
			return 1
		}
		log.Debugf("loaded artifact %s: %s", file, a.Summary())
		warnStale(stderr, file, a)
		return execute(ctx, cfg, file, "", a.Module, a.ResultType, stdout, stderr)
	}

	name, source, err := readSource(file, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	res, err := compileFn(source)
	if err != nil {
		printCompileError(stderr, name, source, err)
		return 1
	}
	return execute(ctx, cfg, name, source, res.Module, res.Program.Type, stdout, stderr)
}

// execute runs module on the reference runtime, then prints the entry's
// value when it has one.
func execute(ctx context.Context, cfg *config.Config, name, source string, module *wat.Module, result typesys.Type, stdout, stderr io.Writer) int {
	host := evaluator.Host{
		Stdout:      stdout,
		MemoryPages: cfg.Runtime.MemoryPages,
		MaxDepth:    cfg.Runtime.MaxDepth,
	}
	res, err := evaluator.Run(ctx, module, host)
	if err != nil {
		fmt.Fprint(stderr, diag.Render(name, source, "Runtime", diag.CodeError{Message: err.Error()}))
		return 1
	}
	if res.HasValue {
		if v := object.FromRaw(res.Value, result); v.Type() != object.NONE_OBJ {
			fmt.Fprintln(stdout, v.Inspect())
		}
	}
	return 0
}

func printCompileError(w io.Writer, name, source string, err error) {
	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		fmt.Fprintf(w, "Compilation failed: %v\n", err)
		return
	}
	errs := cerr.All
	if len(errs) == 0 {
		errs = []diag.CodeError{cerr.Diagnostic}
	}
	for _, e := range errs {
		fmt.Fprint(w, diag.Render(name, source, string(cerr.Stage), e))
	}
}

func replCommand(args []string, stderr io.Writer) int {
	fs := newFlagSet("repl", stderr)
	var opts common
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	cfg, err := opts.setup("")
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if err := replFn(cfg); err != nil {
		fmt.Fprintf(stderr, "repl: %v\n", err)
		return 1
	}
	return 0
}

func lspCommand(args []string, stderr io.Writer) int {
	fs := newFlagSet("lsp", stderr)
	var opts common
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if _, err := opts.setup(""); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if err := lspFn(); err != nil {
		fmt.Fprintf(stderr, "lsp: %v\n", err)
		return 1
	}
	return 0
}
