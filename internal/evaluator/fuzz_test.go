package evaluator

import (
	"context"
	"testing"
	"time"

	"pywat/internal/checker"
	"pywat/internal/codegen"
	"pywat/internal/lexer"
	"pywat/internal/parser"
)

// FuzzEvaluatorNoPanic ensures running any checked program never panics.
func FuzzEvaluatorNoPanic(f *testing.F) {
	seeds := []string{
		"",
		"1 + 2\n",
		"x : int = 1\nx = x + 1\nx\n",
		"if True:\n    print(1)\nelse:\n    print(2)\n",
		"class C(object):\n    n : int = 0\nc : C = None\nc.n\n",
		"def f(n : int) -> int:\n    return f(n)\nf(1)\n",
		"while True:\n    pass\n",
		"print(1 // 0)\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("evaluator panicked for input %q: %v", input, r)
			}
		}()

		p := parser.New(lexer.New(input))
		program := p.ParseProgram()
		if len(p.Errors()) > 0 {
			return
		}
		typed, err := checker.Check(program)
		if err != nil {
			return
		}
		module, err := codegen.Generate(typed)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, _ = Run(ctx, module, Host{MaxDepth: 200})
	})
}
