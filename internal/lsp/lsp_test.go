package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"pywat/internal/diag"
)

const ratSource = `class Rat(object):
    n : int = 0
    def get(self : Rat) -> int:
        return self.n
r : Rat = None
r = Rat()
print(r.get())
`

func TestAnalyzeClean(t *testing.T) {
	diags, symbols, ok := Analyze("x : int = 1\nprint(x)\n")
	if !ok || len(diags) != 0 {
		t.Fatalf("expected clean analysis, got ok=%v diags=%+v", ok, diags)
	}
	if len(symbols) != 2 {
		t.Fatalf("symbols=%+v", symbols)
	}
	if symbols[0].Line != 1 || symbols[0].Column != 1 || symbols[1].Line != 2 || symbols[1].Column != 7 {
		t.Fatalf("unexpected positions %+v", symbols)
	}
}

func TestAnalyzeTypeError(t *testing.T) {
	diags, symbols, ok := Analyze("print(y)\n")
	if ok || symbols != nil {
		t.Fatalf("type error should fail analysis")
	}
	if len(diags) != 1 {
		t.Fatalf("want the first type error only, got %+v", diags)
	}
	d := diags[0]
	if d.Range.Start.Line != 0 || d.Range.Start.Character != 6 {
		t.Fatalf("start=%+v", d.Range.Start)
	}
	if d.Range.End.Character != 7 {
		t.Fatalf("end=%+v", d.Range.End)
	}
	if !strings.HasPrefix(d.Message, "Type error: unknown variable y") {
		t.Fatalf("message=%q", d.Message)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Fatalf("severity=%v", d.Severity)
	}
}

func TestAnalyzeReportsAllParseErrors(t *testing.T) {
	diags, _, ok := Analyze("x = = 1\ny = = 2\n")
	if ok || len(diags) < 2 {
		t.Fatalf("expected several parse diagnostics, got %+v", diags)
	}
	for _, d := range diags {
		if !strings.HasPrefix(d.Message, "Parse error: ") {
			t.Fatalf("message=%q", d.Message)
		}
	}
	if diags[1].Range.Start.Line != 1 {
		t.Fatalf("second error on line %d", diags[1].Range.Start.Line)
	}
}

func TestDiagnosticPositions(t *testing.T) {
	source := "x : int = 1\nprint(x)\n"
	tests := []struct {
		err  diag.CodeError
		line protocol.UInteger
		char protocol.UInteger
	}{
		{diag.CodeError{Message: "m", Line: 2, Column: 3}, 1, 2},
		{diag.CodeError{Message: "m", Context: "print(x)"}, 1, 0},
		{diag.CodeError{Message: "m"}, 0, 0},
	}
	for _, tt := range tests {
		d := Diagnostic(source, "", tt.err)
		if d.Range.Start.Line != tt.line || d.Range.Start.Character != tt.char {
			t.Fatalf("%+v: start=%+v", tt.err, d.Range.Start)
		}
		if d.Message != "m" {
			t.Fatalf("message=%q", d.Message)
		}
	}
}

func TestHover(t *testing.T) {
	_, symbols, ok := Analyze(ratSource)
	if !ok {
		t.Fatalf("program should check")
	}
	tests := []struct {
		line, char protocol.UInteger
		want       string
	}{
		{1, 4, "n : int"},      // field definition
		{2, 13, "self : Rat"}, // parameter
		{3, 20, "n : int"},     // field read
		{4, 0, "r : Rat"},      // global definition
		{6, 6, "r : Rat"},      // receiver of a method call
	}
	for _, tt := range tests {
		h := Hover(symbols, protocol.Position{Line: tt.line, Character: tt.char})
		if h == nil {
			t.Fatalf("%d:%d: no hover", tt.line, tt.char)
		}
		content, ok := h.Contents.(protocol.MarkupContent)
		if !ok || !strings.Contains(content.Value, tt.want) {
			t.Fatalf("%d:%d: hover=%+v want %q", tt.line, tt.char, h.Contents, tt.want)
		}
	}
	if h := Hover(symbols, protocol.Position{Line: 0, Character: 0}); h != nil {
		t.Fatalf("keyword should have no hover, got %+v", h)
	}
}

func TestSymbolsSkipsSynthesizedParameters(t *testing.T) {
	_, symbols, ok := Analyze("class C(object):\n    pass\nc : C = None\n")
	if !ok {
		t.Fatalf("program should check")
	}
	for _, s := range symbols {
		if s.Name == "self" {
			t.Fatalf("synthesized constructor parameter leaked: %+v", s)
		}
	}
	if _, found := SymbolAt(symbols, protocol.Position{Line: 2, Character: 0}); !found {
		t.Fatalf("global c not indexed: %+v", symbols)
	}
}

func TestSymbolsNil(t *testing.T) {
	if Symbols(nil) != nil {
		t.Fatalf("nil program has no symbols")
	}
}
