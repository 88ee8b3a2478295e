package checker

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"pywat/internal/ast"
	"pywat/internal/lexer"
	"pywat/internal/parser"
	"pywat/internal/typesys"
)

func parseSource(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return program
}

func checkSource(t *testing.T, input string) (*ast.Program, error) {
	t.Helper()
	return Check(parseSource(t, input))
}

func mustCheck(t *testing.T, input string) *ast.Program {
	t.Helper()
	typed, err := checkSource(t, input)
	if err != nil {
		t.Fatalf("unexpected type error: %v", err)
	}
	return typed
}

func TestWellTypedPrograms(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		result typesys.Type
	}{
		{"arith", "1 + 2\n", typesys.Number},
		{"ends with pass", "1 + 2\npass\n", typesys.None},
		{"none to class", "class A(object):\n    pass\na : A = None\na\n", typesys.ClassOf("A")},
		{"comparison", "x : int = 3\nx <= 4\n", typesys.Bool},
		{"not", "not True\n", typesys.Bool},
		{"is", "class A(object):\n    pass\na : A = None\na is None\n", typesys.Bool},
		{"none is none", "None is None\n", typesys.Bool},
		{"equality of bools", "True == False\n", typesys.Bool},
		{"equality of classes", "class A(object):\n    pass\nA() != A()\n", typesys.Bool},
		{"print", "print(1)\n", typesys.None},
		{"builtins", "abs(-1) + min(1, 2) + max(3, 4) + pow(2, 3)\n", typesys.Number},
		{"void call", "def f():\n    pass\nf()\n", typesys.None},
		{"top level assignment to global", "x : int = 1\nx = 2\nx\n", typesys.Number},
		{"empty program", "", typesys.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typed := mustCheck(t, tt.input)
			be.Equal(t, typed.Type, tt.result)
		})
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fragment string
	}{
		{"bool into int", "x : int = True\n", "expected type int, got bool"},
		{"unknown class", "x : Foo = None\n", "unknown class Foo"},
		{"duplicate global", "x : int = 1\nx : int = 2\n", "duplicate declaration of variable x"},
		{"duplicate function", "def f():\n    pass\ndef f():\n    pass\n", "duplicate declaration of function f"},
		{"duplicate class", "class A(object):\n    pass\nclass A(object):\n    pass\n", "duplicate declaration of class A"},
		{"duplicate field", "class A(object):\n    x : int = 1\n    x : int = 2\n", "duplicate declaration of x in class A"},
		{"field and method clash", "class A(object):\n    f : int = 1\n    def f(self : A):\n        pass\n", "duplicate declaration of f in class A"},
		{"duplicate param", "def f(a : int, a : int):\n    pass\n", "duplicate parameter a"},
		{"local shadows param", "def f(a : int):\n    a : int = 1\n    pass\n", "duplicate declaration of a in function f"},
		{"builtin redefined", "def print(x : int):\n    pass\n", "cannot redefine built-in function print"},
		{"primitive redefined", "def runtime_check(x : int):\n    pass\n", "cannot redefine built-in function runtime_check"},
		{"reserved class", "class abs(object):\n    pass\n", "reserved name abs"},
		{"heap global", "heap : int = 0\n", "reserved name heap"},
		{"function class clash", "class A(object):\n    pass\ndef A():\n    pass\n", "same name as a class"},
		{"unknown variable", "y\n", "unknown variable y"},
		{"assign unknown", "y = 1\n", "unknown variable y"},
		{"assign global in function", "x : int = 1\ndef f():\n    x = 2\n", "cannot assign to x"},
		{"assign wrong type", "x : int = 1\nx = False\n", "expected type int, got bool in assignment to x"},
		{"arith on bool", "1 + True\n", "cannot apply operator + to int and bool"},
		{"compare bools", "True < False\n", "cannot apply operator < to bool and bool"},
		{"is on ints", "1 is 1\n", "cannot apply operator is to int and int"},
		{"eq mixed", "1 == True\n", "cannot apply operator == to int and bool"},
		{"eq none vs class", "class A(object):\n    pass\na : A = None\na == None\n", "cannot apply operator == to A and None"},
		{"not on int", "not 1\n", "operator not expects bool, got int"},
		{"neg on bool", "-True\n", "operator - expects int, got bool"},
		{"print arity", "print(1, 2)\n", "print expects 1 argument, got 2"},
		{"abs type", "abs(True)\n", "argument 1 of abs: expected type int, got bool"},
		{"min arity", "min(1)\n", "min expects 2 arguments, got 1"},
		{"unknown function", "g(1)\n", "unknown function g"},
		{"call arity", "def f(a : int):\n    pass\nf()\n", "f expects 1 arguments, got 0"},
		{"call type", "def f(a : int):\n    pass\nf(None)\n", "argument 1 of f: expected type int, got None"},
		{"missing else", "if True:\n    pass\n", "if statement must have an else branch"},
		{"elif without else", "if True:\n    pass\nelif False:\n    pass\n", "if statement must have an else branch"},
		{"condition type", "if 1:\n    pass\nelse:\n    pass\n", "condition must be bool, got int"},
		{"while condition", "while None:\n    pass\n", "condition must be bool, got None"},
		{"branch ends in pass", "def f() -> int:\n    if True:\n        return 1\n    else:\n        pass\n", "every branch must end with a return of type int"},
		{"elif ends in pass", "def f() -> int:\n    if True:\n        return 1\n    elif False:\n        pass\n    else:\n        return 2\n", "every branch must end with a return of type int"},
		{"return wrong type", "def f() -> int:\n    return True\n", "expected return type int, got bool"},
		{"bare return with type", "def f() -> int:\n    return\n", "expected a return value of type int"},
		{"value from void", "def f():\n    return 1\n", "cannot return a value from a function without a return type"},
		{"top level return", "return\n", "return outside of a function"},
		{"field on int", "x : int = 1\nx.n\n", "cannot read field n on a value of type int"},
		{"field on none", "None.n\n", "cannot read field n on a value of type None"},
		{"missing field", "class A(object):\n    pass\nA().n\n", "class A has no field n"},
		{"set missing field", "class A(object):\n    pass\nA().n = 1\n", "class A has no field n"},
		{"set field wrong type", "class A(object):\n    n : int = 0\nA().n = True\n", "expected type int, got bool in assignment to field n"},
		{"missing method", "class A(object):\n    pass\nA().go()\n", "class A has no method go"},
		{"method arity", "class A(object):\n    def go(self : A, x : int):\n        pass\nA().go()\n", "go expects 1 arguments, got 0"},
		{"method without receiver", "class A(object):\n    def go():\n        pass\n", "must take a first parameter of type A"},
		{"receiver of other class", "class B(object):\n    pass\nclass A(object):\n    def go(self : B):\n        pass\n", "must take a first parameter of type A"},
		{"constructor arity", "class A(object):\n    pass\nA(1)\n", "A expects 0 arguments, got 1"},
		{"constructor arg type", "class A(object):\n    n : int = 0\n    def __init__(self : A, n : int):\n        self.n = n\nA(True)\n", "argument 1 of A: expected type int, got bool"},
		{"constructor return type", "class A(object):\n    def __init__(self : A) -> int:\n        return 1\n", "cannot declare a return type"},
		{"field default type", "class A(object):\n    b : bool = 1\n", "expected type bool, got int in definition of b"},
		{"unknown param class", "def f(x : Q):\n    pass\n", "unknown class Q"},
		{"unknown return class", "def f() -> Q:\n    return None\n", "unknown class Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checkSource(t, tt.input)
			be.Err(t, err, tt.fragment)
			var typeErr *TypeError
			be.True(t, errors.As(err, &typeErr))
		})
	}
}

func TestNoneAssignableToClassVariable(t *testing.T) {
	mustCheck(t, `class A(object):
    pass
a : A = None
a = None
a = A()
`)
}

func TestShallowReturnCheck(t *testing.T) {
	// The return nested inside the last if is not looked at, so the outer
	// branch that ends with an if (not a return) is rejected.
	_, err := checkSource(t, `def f(x : int) -> int:
    if x > 0:
        if x > 1:
            return 1
        else:
            return 2
    else:
        return 3
`)
	be.Err(t, err, "every branch must end with a return")

	mustCheck(t, `def f(x : int) -> int:
    if x > 0:
        return 1
    elif x < 0:
        return -1
    else:
        return 0
`)

	// only branch ends are inspected, not the body itself
	mustCheck(t, "def f() -> int:\n    pass\nf()\n")
}

func TestFunctionScopesAreSnapshots(t *testing.T) {
	// a local of f is invisible to g
	_, err := checkSource(t, `def f():
    y : int = 1
    pass
def g() -> int:
    return y
`)
	be.Err(t, err, "unknown variable y")

	// globals are readable, and a local may shadow a global with another type
	mustCheck(t, `x : int = 1
def f() -> int:
    return x + 1
def g() -> bool:
    x : bool = True
    x = False
    return x
`)
}

func TestMethodsSeeEachOtherAndOtherClasses(t *testing.T) {
	typed := mustCheck(t, `class Node(object):
    value : int = 0
    next : Node = None
    def push(self : Node, v : int) -> Node:
        n : Node = None
        n = Node()
        n.value = v
        n.next = self
        return n
    def sum(self : Node) -> int:
        total : int = 0
        cur : Node = None
        cur = self
        while not (cur is None):
            total = total + cur.value
            cur = cur.next
        return total
Node().push(1).push(2).sum()
`)
	be.Equal(t, typed.Type, typesys.Number)
}

func TestConstructorIsSynthesized(t *testing.T) {
	input := parseSource(t, "class A(object):\n    n : int = 1\nA()\n")
	typed, err := Check(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	be.Equal(t, len(input.ClassDefs[0].Methods), 0)
	ctor, ok := typed.ClassDefs[0].Method(ast.ConstructorName)
	be.True(t, ok)
	be.Equal(t, len(ctor.Params), 1)
	be.Equal(t, ctor.ReturnType.IsValid(), false)
	construct, ok := typed.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.ConstructExpression)
	be.True(t, ok)
	be.Equal(t, construct.Class, "A")
}

func TestAnnotationsAreOnTheNewTreeOnly(t *testing.T) {
	input := parseSource(t, "x : int = 1\nprint(x + 2)\n")
	typed, err := Check(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orig := input.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	be.Equal(t, orig.Type.IsValid(), false)
	be.Equal(t, orig.Arguments[0].StaticType().IsValid(), false)

	call := typed.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	be.Equal(t, call.Type, typesys.None)
	be.Equal(t, call.Arguments[0].StaticType(), typesys.Number)
	be.Equal(t, typed.VarDefs[0].Value.Type, typesys.Number)
}

func TestTypeErrorCarriesPosition(t *testing.T) {
	_, err := checkSource(t, "x : int = 1\nprint(y)\n")
	var typeErr *TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T", err)
	}
	be.Equal(t, typeErr.Line, 2)
	be.Equal(t, typeErr.Column, 7)
	be.Equal(t, typeErr.Error(), "TYPE ERROR: unknown variable y")
	be.Equal(t, typeErr.CodeError().Message, "unknown variable y")
}

func TestCheckingIsRepeatable(t *testing.T) {
	program := parseSource(t, "class A(object):\n    pass\nA()\n")
	first, err := Check(program)
	be.Err(t, err, nil)
	second, err := Check(program)
	be.Err(t, err, nil)
	be.Equal(t, first.String(), second.String())
}
