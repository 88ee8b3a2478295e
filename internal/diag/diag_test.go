package diag

import (
	"strings"
	"testing"
)

func TestLocateContext(t *testing.T) {
	src := "x : int = 1\nreturn x\nprint(x)\n"

	line, col, ok := LocateContext(src, "return x")
	if !ok || line != 2 || col != 1 {
		t.Fatalf("exact locate got=(%d,%d,%v)", line, col, ok)
	}

	line, col, ok = LocateContext(src, "`print(x)`")
	if !ok || line != 3 || col != 1 {
		t.Fatalf("backtick locate got=(%d,%d,%v)", line, col, ok)
	}

	if _, _, ok := LocateContext(src, ""); ok {
		t.Fatalf("empty context should fail")
	}
	if _, _, ok := LocateContext(src, "x"); ok {
		t.Fatalf("ambiguous context should fail")
	}
	if _, _, ok := LocateContext(src, "does not exist"); ok {
		t.Fatalf("missing context should fail")
	}
}

func TestRenderWithPosition(t *testing.T) {
	src := "x : int = 1\nprint(y)\n"
	out := Render("prog.py", src, "Type", CodeError{Message: "unknown name y", Line: 2, Column: 7})
	for _, want := range []string{
		"Type error: unknown name y\n",
		"--> prog.py:2:7\n",
		" 2 | print(y)\n",
		"   |       ^\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderFallbacks(t *testing.T) {
	src := "x : int = 1\nprint(x)\n"
	out := Render("f.py", src, "Parse", CodeError{Message: "bad", Context: "print(x)"})
	if !strings.Contains(out, "--> f.py:2:1") {
		t.Fatalf("context should be located:\n%s", out)
	}
	out = Render("f.py", src, "Parse", CodeError{Message: "bad", Context: "nope"})
	if !strings.Contains(out, "Parse error: bad") || !strings.Contains(out, "context: nope") {
		t.Fatalf("unexpected fallback output:\n%s", out)
	}
}

func TestCodeErrorString(t *testing.T) {
	if got := (CodeError{Message: "m", Line: 3, Column: 4}).Error(); got != "3:4: m" {
		t.Fatalf("Error()=%q", got)
	}
	if got := (CodeError{Message: "m", Context: "x = 1"}).Error(); got != "m (at `x = 1`)" {
		t.Fatalf("Error()=%q", got)
	}
	if got := (CodeError{Message: "m"}).Error(); got != "m" {
		t.Fatalf("Error()=%q", got)
	}
}
