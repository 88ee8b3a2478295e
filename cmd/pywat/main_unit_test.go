package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pywat/internal/compiler"
	"pywat/internal/config"
	"pywat/internal/diag"
)

const ratProgram = `class Rat(object):
    n : int = 0
    d : int = 1
    def __init__(self : Rat, n : int, d : int):
        self.n = n
        self.d = d
    def mul(self : Rat, other : Rat) -> Rat:
        return Rat(self.n * other.n, self.d * other.d)
r : Rat = None
r = Rat(2, 3).mul(Rat(5, 7))
print(r.n)
r.d
`

func writeSource(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func cli(args []string, stdin string) (int, string, string) {
	var out, errb bytes.Buffer
	code := runCLI(args, strings.NewReader(stdin), &out, &errb)
	return code, out.String(), errb.String()
}

func TestRunCLINoArgs(t *testing.T) {
	code, _, errOut := cli(nil, "")
	if code != 1 {
		t.Fatalf("runCLI() code=%d want=1", code)
	}
	if !strings.Contains(errOut, "Usage: pywat") {
		t.Fatalf("expected usage output, got:\n%s", errOut)
	}
}

func TestRunCLIHelpAndVersion(t *testing.T) {
	if code, out, _ := cli([]string{"help"}, ""); code != 0 || !strings.Contains(out, "Usage: pywat") {
		t.Fatalf("help code=%d out=%s", code, out)
	}
	if code, out, _ := cli([]string{"version"}, ""); code != 0 || out != "pywat "+version+"\n" {
		t.Fatalf("version code=%d out=%q", code, out)
	}
}

func TestMainUsesExitFn(t *testing.T) {
	oldArgs := os.Args
	oldExit := exitFn
	defer func() {
		os.Args = oldArgs
		exitFn = oldExit
	}()

	os.Args = []string{"pywat"}
	var got int
	exitFn = func(code int) { got = code }
	main()
	if got != 1 {
		t.Fatalf("main exit code=%d want=1", got)
	}
}

func TestBuildWritesWATNextToSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "rat.py", ratProgram)

	code, out, errOut := cli([]string{"build", src}, "")
	if code != 0 {
		t.Fatalf("build failed code=%d stderr=%s", code, errOut)
	}
	want := filepath.Join(dir, "rat.wat")
	if !strings.Contains(out, "Compiled to: "+want) {
		t.Fatalf("missing compile message: %s", out)
	}
	text, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(text), "(module\n") || !strings.Contains(string(text), "(func $Rat$mul") {
		t.Fatalf("unexpected module text:\n%s", text)
	}
}

func TestBuildFromStdinWritesStdout(t *testing.T) {
	code, out, errOut := cli([]string{"-"}, "print(1)\n")
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	if !strings.HasPrefix(out, "(module\n") || strings.Contains(out, "Compiled to:") {
		t.Fatalf("expected module text on stdout, got:\n%s", out)
	}

	code, _, errOut = cli([]string{"-emit", "artifact", "-"}, "print(1)\n")
	if code != 1 || !strings.Contains(errOut, "-o is required") {
		t.Fatalf("artifact from stdin without -o: code=%d stderr=%s", code, errOut)
	}
}

func TestBuildReportsDiagnostics(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"x = = 1\n", []string{"Parse error: expected an expression", "--> <stdin>:1:"}},
		{"x : int = 0\nx = True\n", []string{"Type error: expected type int, got bool", "--> <stdin>:2:1", " 2 | x = True"}},
	}
	for _, tt := range tests {
		code, _, errOut := cli([]string{"-"}, tt.input)
		if code != 1 {
			t.Fatalf("%q: code=%d want=1", tt.input, code)
		}
		for _, w := range tt.want {
			if !strings.Contains(errOut, w) {
				t.Fatalf("%q: stderr missing %q:\n%s", tt.input, w, errOut)
			}
		}
	}
}

func TestBuildAndRun(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "rat.py", ratProgram)
	outPath := filepath.Join(dir, "out.wat")

	code, out, errOut := cli([]string{"-run", "-o", outPath, src}, "")
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	if out != "Compiled to: "+outPath+"\n10\n21\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheckCommand(t *testing.T) {
	code, out, _ := cli([]string{"check", "-"}, "1 + 2\n")
	if code != 0 || out != "<stdin>: ok, result type int\n" {
		t.Fatalf("code=%d out=%q", code, out)
	}
	code, _, errOut := cli([]string{"check", "-"}, "print(y)\n")
	if code != 1 || !strings.Contains(errOut, "Type error: unknown variable y") {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	code, _, errOut = cli([]string{"check"}, "")
	if code != 1 || !strings.Contains(errOut, "expected exactly one source file") {
		t.Fatalf("missing file: code=%d stderr=%s", code, errOut)
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "rat.py", ratProgram)

	code, out, errOut := cli([]string{"run", src}, "")
	if code != 0 || out != "10\n21\n" {
		t.Fatalf("code=%d out=%q stderr=%s", code, out, errOut)
	}

	code, out, _ = cli([]string{"run", "-"}, "print(True)\nprint(None)\n")
	if code != 0 || out != "True\nNone\n" {
		t.Fatalf("code=%d out=%q", code, out)
	}
}

func TestRunArtifact(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "rat.py", ratProgram)
	pyc := filepath.Join(dir, "rat.pyc")

	code, out, errOut := cli([]string{"build", "-emit", "artifact", src}, "")
	if code != 0 || !strings.Contains(out, "Compiled to: "+pyc) {
		t.Fatalf("code=%d out=%s stderr=%s", code, out, errOut)
	}
	code, out, errOut = cli([]string{"run", pyc}, "")
	if code != 0 || out != "10\n21\n" {
		t.Fatalf("code=%d out=%q stderr=%s", code, out, errOut)
	}
	if strings.Contains(errOut, "warning:") {
		t.Fatalf("fresh artifact reported stale: %s", errOut)
	}

	writeSource(t, dir, "rat.py", ratProgram+"print(1)\n")
	code, out, errOut = cli([]string{"run", pyc}, "")
	if code != 0 || out != "10\n21\n" {
		t.Fatalf("stale run: code=%d out=%q stderr=%s", code, out, errOut)
	}
	if !strings.Contains(errOut, "warning: "+pyc+" was not built from the current "+src) {
		t.Fatalf("expected stale warning, stderr=%s", errOut)
	}

	bad := writeSource(t, dir, "bad.pyc", "not cbor")
	code, _, errOut = cli([]string{"run", bad}, "")
	if code != 1 || !strings.Contains(errOut, "Execution failed:") {
		t.Fatalf("bad artifact: code=%d stderr=%s", code, errOut)
	}
}

func TestRunRuntimeError(t *testing.T) {
	input := "class C(object):\n    n : int = 0\nc : C = None\nprint(c.n)\n"
	code, _, errOut := cli([]string{"run", "-"}, input)
	if code != 1 {
		t.Fatalf("code=%d want=1", code)
	}
	if !strings.Contains(errOut, "Runtime error: RUNTIME ERROR: the obj is null") {
		t.Fatalf("stderr=%s", errOut)
	}
}

func TestDumpAST(t *testing.T) {
	code, out, errOut := cli([]string{"-dump-ast", "-"}, "x : int = 1\nprint(x)\n")
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, "ast.Program") || !strings.Contains(out, "VarDefs") {
		t.Fatalf("expected AST dump, got:\n%s", out)
	}
}

func TestBuildWasmUsesAssembler(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "one.py", "print(1)\n")

	oldAssemble := assembleFn
	defer func() { assembleFn = oldAssemble }()

	var gotText string
	assembleFn = func(_ context.Context, text, out string) error {
		gotText = text
		return os.WriteFile(out, []byte("\x00asm"), 0o644)
	}
	code, out, errOut := cli([]string{"-emit", "wasm", src}, "")
	if code != 0 || !strings.Contains(out, "Compiled to: "+filepath.Join(dir, "one.wasm")) {
		t.Fatalf("code=%d out=%s stderr=%s", code, out, errOut)
	}
	if !strings.Contains(gotText, "(module") {
		t.Fatalf("assembler got %q", gotText)
	}

	assembleFn = func(context.Context, string, string) error { return errors.New("boom") }
	code, _, errOut = cli([]string{"-emit", "wasm", src}, "")
	if code != 1 || !strings.Contains(errOut, "Compilation failed: boom") {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
}

func TestUnknownEmitFormat(t *testing.T) {
	code, _, errOut := cli([]string{"-emit", "elf", "-"}, "print(1)\n")
	if code != 1 || !strings.Contains(errOut, `unknown emit format "elf"`) {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
}

func TestConfigDiscovery(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, root, config.FileName, "[build]\nemit = \"artifact\"\n")
	src := writeSource(t, sub, "rat.py", ratProgram)

	code, out, errOut := cli([]string{src}, "")
	if code != 0 || !strings.Contains(out, "Compiled to: "+filepath.Join(sub, "rat.pyc")) {
		t.Fatalf("code=%d out=%s stderr=%s", code, out, errOut)
	}

	badCfg := writeSource(t, root, "bad.toml", "[build]\ncolour = \"red\"\n")
	code, _, errOut = cli([]string{"-config", badCfg, src}, "")
	if code != 1 || !strings.Contains(errOut, "Configuration error:") {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
}

func TestCompileFnFailure(t *testing.T) {
	oldCompile := compileFn
	defer func() { compileFn = oldCompile }()
	compileFn = func(string) (*compiler.Result, error) { return nil, errors.New("compile boom") }

	code, _, errOut := cli([]string{"-"}, "print(1)\n")
	if code != 1 || !strings.Contains(errOut, "Compilation failed: compile boom") {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
}

func TestReplAndLSPCommands(t *testing.T) {
	oldRepl, oldLSP := replFn, lspFn
	defer func() { replFn, lspFn = oldRepl, oldLSP }()

	var pages int
	replFn = func(cfg *config.Config) error {
		pages = cfg.Runtime.MemoryPages
		return nil
	}
	if code, _, errOut := cli([]string{"repl"}, ""); code != 0 || pages != 1 {
		t.Fatalf("repl code=%d pages=%d stderr=%s", code, pages, errOut)
	}

	lspFn = func() error { return errors.New("stdio closed badly") }
	if code, _, errOut := cli([]string{"lsp"}, ""); code != 1 || !strings.Contains(errOut, "lsp: stdio closed badly") {
		t.Fatalf("lsp code=%d stderr=%s", code, errOut)
	}
}

func TestPrintCompileErrorVariants(t *testing.T) {
	source := "x : int = 1\nprint(x)\n"
	var out bytes.Buffer
	printCompileError(&out, "f.py", source, &compiler.Error{
		Stage: compiler.StageParse,
		All: []diag.CodeError{
			{Message: "bad", Line: 1, Column: 1},
			{Message: "bad2", Line: 2, Column: 7},
		},
	})
	if !strings.Contains(out.String(), "Parse error: bad\n  --> f.py:1:1") || !strings.Contains(out.String(), "Parse error: bad2\n  --> f.py:2:7") {
		t.Fatalf("unexpected parse output:\n%s", out.String())
	}

	out.Reset()
	printCompileError(&out, "f.py", source, &compiler.Error{
		Stage:      compiler.StageCodegen,
		Diagnostic: diag.CodeError{Message: "bad3", Context: "nope"},
	})
	if !strings.Contains(out.String(), "Codegen error: bad3") || !strings.Contains(out.String(), "context: nope") {
		t.Fatalf("unexpected codegen output:\n%s", out.String())
	}
}

func TestVerbosityFlag(t *testing.T) {
	var v verbosity
	for _, s := range []string{"true", "true"} {
		if err := v.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if v != 2 {
		t.Fatalf("v=%d want=2", v)
	}
	if err := v.Set("5"); err != nil || v != 5 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	if err := v.Set("loud"); err == nil {
		t.Fatalf("expected an error")
	}
}
