package parser

import (
	"strings"
	"testing"

	"pywat/internal/ast"
	"pywat/internal/lexer"
	"pywat/internal/typesys"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkNoParserErrors(t, p)
	return program
}

func checkNoParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}
	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func expectParseError(t *testing.T, input string, fragment string) {
	t.Helper()
	p := New(lexer.New(input))
	_ = p.ParseProgram()
	for _, msg := range p.Errors() {
		if strings.Contains(msg, fragment) {
			return
		}
	}
	t.Fatalf("expected a parse error containing %q, got %v", fragment, p.Errors())
}

const ratProgram = `class Rat(object):
    n : int = 456
    d : int = 789
    def __init__(self : Rat):
        pass
    def new(self : Rat, n : int, d : int) -> Rat:
        self.n = n
        self.d = d
        return self
    def mul(self : Rat, other : Rat) -> Rat:
        return Rat().new(self.n * other.n, self.d * other.d)

r1 : Rat = None
r2 : Rat = None
r1 = Rat().new(4, 5)
r2 = Rat().new(2, 3)
print(r1.mul(r2).n)
`

func TestParseClassProgram(t *testing.T) {
	program := parse(t, ratProgram)

	if len(program.ClassDefs) != 1 || len(program.VarDefs) != 2 || len(program.Statements) != 3 {
		t.Fatalf("unexpected shape: classes=%d vars=%d stmts=%d",
			len(program.ClassDefs), len(program.VarDefs), len(program.Statements))
	}
	rat := program.ClassDefs[0]
	if rat.Name != "Rat" || len(rat.Fields) != 2 || len(rat.Methods) != 3 {
		t.Fatalf("unexpected class: %s fields=%d methods=%d", rat.Name, len(rat.Fields), len(rat.Methods))
	}
	if rat.Fields[1].Var.Name != "d" || rat.Fields[1].Value.Number != 789 {
		t.Fatalf("unexpected field %s", rat.Fields[1].String())
	}
	newMethod := rat.Methods[1]
	if newMethod.Name != "new" || len(newMethod.Params) != 3 || !newMethod.ReturnType.Equal(typesys.ClassOf("Rat")) {
		t.Fatalf("unexpected method signature %s", newMethod.String())
	}
	if _, ok := newMethod.Body.Statements[0].(*ast.FieldAssignStatement); !ok {
		t.Fatalf("expected field assignment, got %T", newMethod.Body.Statements[0])
	}
	if !program.VarDefs[0].Var.Type.Equal(typesys.ClassOf("Rat")) || program.VarDefs[0].Value.Kind != ast.NoneLiteral {
		t.Fatalf("unexpected global %s", program.VarDefs[0].String())
	}

	assign, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected assignment, got %T", program.Statements[0])
	}
	call, ok := assign.Value.(*ast.MethodCallExpression)
	if !ok || call.Method.Value != "new" || len(call.Arguments) != 2 {
		t.Fatalf("unexpected value %s", assign.Value.String())
	}
	if _, ok := call.Object.(*ast.CallExpression); !ok {
		t.Fatalf("expected Rat() call as receiver, got %T", call.Object)
	}
}

func TestParseFunctionLocalsAndBody(t *testing.T) {
	program := parse(t, `def f(x : int) -> int:
    y : int = -3
    b : bool = True
    while x > 0:
        x = x - 1
    return x + y

f(2)
`)
	fd := program.FunDefs[0]
	if len(fd.Locals) != 2 || fd.Locals[0].Value.Number != -3 || !fd.Locals[1].Value.Bool {
		t.Fatalf("unexpected locals %v", fd.Locals)
	}
	if len(fd.Body.Statements) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(fd.Body.Statements))
	}
	if _, ok := fd.Body.Statements[0].(*ast.WhileStatement); !ok {
		t.Fatalf("expected while, got %T", fd.Body.Statements[0])
	}
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3\n", "(1 + (2 * 3))"},
		{"a - b - c\n", "((a - b) - c)"},
		{"-a * b\n", "((-a) * b)"},
		{"not a == b\n", "(not (a == b))"},
		{"a + b < c * d\n", "((a + b) < (c * d))"},
		{"a // b % c\n", "((a // b) % c)"},
		{"x is None\n", "(x is None)"},
		{"-r.n\n", "(-r.n)"},
		{"(1 + 2) * 3\n", "(((1 + 2)) * 3)"},
		{"a.b.c(1, x)\n", "a.b.c(1, x)"},
		{"f(g(1), 2 + 3)\n", "f(g(1), (2 + 3))"},
		{"not not True\n", "(not (not True))"},
		{"-2147483648\n", "-2147483648"},
		{"x = -2147483648 + 1\n", "x = (-2147483648 + 1)"},
		{"-2147483647\n", "(-2147483647)"},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)
		if got := program.String(); got != tt.expected+"\n" {
			t.Fatalf("input %q: expected=%q, got=%q", tt.input, tt.expected, strings.TrimSpace(got))
		}
	}
}

func TestParseIfElifElse(t *testing.T) {
	program := parse(t, `if a:
    x = 1
elif b:
    x = 2
elif c:
    pass
else:
    x = 3
if d:
    pass
`)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	first := program.Statements[0].(*ast.IfStatement)
	if len(first.Elifs) != 2 || first.Alternative == nil {
		t.Fatalf("unexpected if shape: elifs=%d else=%v", len(first.Elifs), first.Alternative != nil)
	}
	second := program.Statements[1].(*ast.IfStatement)
	if second.Alternative != nil || len(second.Elifs) != 0 {
		t.Fatalf("if without else should have nil Alternative")
	}
}

func TestParseAssignmentsAndReturn(t *testing.T) {
	program := parse(t, "def f():\n    return\nr.n = 3\nx = r.n\n")
	ret := program.FunDefs[0].Body.Statements[0].(*ast.ReturnStatement)
	if ret.ReturnValue != nil {
		t.Fatalf("bare return should have no value")
	}
	fa, ok := program.Statements[0].(*ast.FieldAssignStatement)
	if !ok || fa.Field.Value != "n" || fa.Object.String() != "r" {
		t.Fatalf("unexpected field assignment %v", program.Statements[0])
	}
	if _, ok := program.Statements[1].(*ast.AssignStatement); !ok {
		t.Fatalf("expected assignment, got %T", program.Statements[1])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		fragment string
	}{
		{"x = 1\ndef f():\n    pass\n", "function definitions must come before statements"},
		{"print(1)\nclass A(object):\n    pass\n", "class definitions must come before statements"},
		{"pass\nx : int = 1\n", "variable definitions must come before statements"},
		{"def f():\n    pass\n    y : int = 1\n", "variable definitions must come before statements"},
		{"if x:\npass\n", "expected an indented block"},
		{"class A(B):\n    pass\n", "must derive from object"},
		{"a and b\n", "operator and is not supported"},
		{"a or b\n", "operator or is not supported"},
		{"x = 99999999999\n", "32-bit integer"},
		{"x = -2147483649\n", "32-bit integer"},
		{"f() = 1\n", "cannot assign to f()"},
		{"x : int = y\n", "expected a literal initializer"},
		{"while x:\n    def g():\n        pass\n", "only allowed at the top level"},
		{"x = (1 + 2\n", "expected next token to be )"},
		{"(a + b)(1)\n", "cannot call"},
		{"class A(object):\n    x = 1\n", "unexpected"},
		{"x = \n", "expected an expression"},
	}
	for _, tt := range tests {
		expectParseError(t, tt.input, tt.fragment)
	}
}

func TestParseErrorPositions(t *testing.T) {
	p := New(lexer.New("x : int = 1\ny = $\n"))
	_ = p.ParseProgram()
	errs := p.DetailedErrors()
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	if errs[0].Line != 2 || errs[0].Column != 5 {
		t.Fatalf("unexpected position %d:%d (%s)", errs[0].Line, errs[0].Column, errs[0].Message)
	}
}
