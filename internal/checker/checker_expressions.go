package checker

import (
	"pywat/internal/ast"
	"pywat/internal/imports"
	"pywat/internal/typesys"
)

func checkExpression(expr ast.Expression, e *env) (ast.Expression, error) {
	switch x := expr.(type) {
	case *ast.Literal:
		out := *x
		out.Type = x.LiteralType()
		return &out, nil

	case *ast.Identifier:
		t, ok := e.vars[x.Value]
		if !ok {
			return nil, errorAt(x, "unknown variable %s", x.Value)
		}
		out := *x
		out.Type = t
		return &out, nil

	case *ast.GroupedExpression:
		inner, err := checkExpression(x.Inner, e)
		if err != nil {
			return nil, err
		}
		return &ast.GroupedExpression{Token: x.Token, Inner: inner, Type: inner.StaticType()}, nil

	case *ast.PrefixExpression:
		return checkPrefix(x, e)

	case *ast.InfixExpression:
		return checkInfix(x, e)

	case *ast.CallExpression:
		return checkCall(x, e)

	case *ast.ConstructExpression:
		return checkConstruct(x, x.Class, x.Arguments, e)

	case *ast.MemberExpression:
		object, info, err := checkReceiver(x.Object, "read field "+x.Field.Value, e)
		if err != nil {
			return nil, err
		}
		fieldType, ok := info.fields[x.Field.Value]
		if !ok {
			return nil, errorAt(x, "class %s has no field %s", info.name, x.Field.Value)
		}
		field := *x.Field
		field.Type = fieldType
		return &ast.MemberExpression{Token: x.Token, Object: object, Field: &field, Type: fieldType}, nil

	case *ast.MethodCallExpression:
		object, info, err := checkReceiver(x.Object, "call method "+x.Method.Value, e)
		if err != nil {
			return nil, err
		}
		sig, ok := info.methods[x.Method.Value]
		if !ok {
			return nil, errorAt(x, "class %s has no method %s", info.name, x.Method.Value)
		}
		args, err := checkArguments(x, x.Method.Value, sig.params[1:], x.Arguments, e)
		if err != nil {
			return nil, err
		}
		method := *x.Method
		return &ast.MethodCallExpression{Token: x.Token, Object: object, Method: &method, Arguments: args, Type: sig.result()}, nil
	}
	return nil, errorAt(expr, "unsupported expression %T", expr)
}

// checkReceiver types the object of a field access or method call, which
// must have a known class type.
func checkReceiver(object ast.Expression, action string, e *env) (ast.Expression, *classInfo, error) {
	typed, err := checkExpression(object, e)
	if err != nil {
		return nil, nil, err
	}
	t := typed.StaticType()
	if !t.IsClass() {
		return nil, nil, errorAt(object, "cannot %s on a value of type %s", action, t)
	}
	info, ok := e.classes[t.Class]
	if !ok {
		return nil, nil, errorAt(object, "unknown class %s", t.Class)
	}
	return typed, info, nil
}

func checkPrefix(x *ast.PrefixExpression, e *env) (ast.Expression, error) {
	right, err := checkExpression(x.Right, e)
	if err != nil {
		return nil, err
	}
	want := typesys.Number
	if x.Operator == ast.Not {
		want = typesys.Bool
	}
	if !right.StaticType().Equal(want) {
		return nil, errorAt(x, "operator %s expects %s, got %s", x.Operator, want, right.StaticType())
	}
	return &ast.PrefixExpression{Token: x.Token, Operator: x.Operator, Right: right, Type: want}, nil
}

// checkInfix applies the three operator families: arithmetic and ordering
// on numbers, identity on references, equality on identical types.
func checkInfix(x *ast.InfixExpression, e *env) (ast.Expression, error) {
	left, err := checkExpression(x.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := checkExpression(x.Right, e)
	if err != nil {
		return nil, err
	}
	lt, rt := left.StaticType(), right.StaticType()

	var result typesys.Type
	switch x.Operator {
	case ast.Add, ast.Sub, ast.Mul, ast.FloorDiv, ast.Mod:
		if lt.Equal(typesys.Number) && rt.Equal(typesys.Number) {
			result = typesys.Number
		}
	case ast.Lt, ast.LtEq, ast.Gt, ast.GtEq:
		if lt.Equal(typesys.Number) && rt.Equal(typesys.Number) {
			result = typesys.Bool
		}
	case ast.Eq, ast.NotEq:
		if lt.Equal(rt) {
			result = typesys.Bool
		}
	case ast.Is:
		if lt.IsReference() && rt.IsReference() {
			result = typesys.Bool
		}
	}
	if !result.IsValid() {
		return nil, errorAt(x, "cannot apply operator %s to %s and %s", x.Operator, lt, rt)
	}
	return &ast.InfixExpression{Token: x.Token, Left: left, Operator: x.Operator, Right: right, Type: result}, nil
}

// checkCall resolves name(args): a class name constructs an instance,
// then built-ins, then user functions.
func checkCall(x *ast.CallExpression, e *env) (ast.Expression, error) {
	name := x.Function.Value
	if _, ok := e.classes[name]; ok {
		return checkConstruct(x, name, x.Arguments, e)
	}

	var sig signature
	switch {
	case name == "print":
		if len(x.Arguments) != 1 {
			return nil, errorAt(x, "print expects 1 argument, got %d", len(x.Arguments))
		}
		arg, err := checkExpression(x.Arguments[0], e)
		if err != nil {
			return nil, err
		}
		fn := *x.Function
		return &ast.CallExpression{Token: x.Token, Function: &fn, Arguments: []ast.Expression{arg}, Type: typesys.None}, nil
	case imports.IsBuiltinFunction(name):
		prim, _ := imports.Lookup(name)
		sig.ret = typesys.Number
		for i := 0; i < prim.Arity; i++ {
			sig.params = append(sig.params, typesys.Number)
		}
	default:
		found, ok := e.funs[name]
		if !ok {
			return nil, errorAt(x, "unknown function %s", name)
		}
		sig = found
	}

	args, err := checkArguments(x, name, sig.params, x.Arguments, e)
	if err != nil {
		return nil, err
	}
	fn := *x.Function
	return &ast.CallExpression{Token: x.Token, Function: &fn, Arguments: args, Type: sig.result()}, nil
}

// checkConstruct checks Class(args) against the constructor's parameters
// after the receiver.
func checkConstruct(node ast.Node, class string, arguments []ast.Expression, e *env) (ast.Expression, error) {
	info, ok := e.classes[class]
	if !ok {
		return nil, errorAt(node, "unknown class %s", class)
	}
	ctor := info.methods[ast.ConstructorName]
	args, err := checkArguments(node, class, ctor.params[1:], arguments, e)
	if err != nil {
		return nil, err
	}
	tok, _ := ast.TokenOf(node)
	return &ast.ConstructExpression{Token: tok, Class: class, Arguments: args, Type: typesys.ClassOf(class)}, nil
}

func checkArguments(node ast.Node, callee string, params []typesys.Type, arguments []ast.Expression, e *env) ([]ast.Expression, error) {
	if len(arguments) != len(params) {
		return nil, errorAt(node, "%s expects %d arguments, got %d", callee, len(params), len(arguments))
	}
	out := make([]ast.Expression, 0, len(arguments))
	for i, arg := range arguments {
		typed, err := checkExpression(arg, e)
		if err != nil {
			return nil, err
		}
		if !typed.StaticType().AssignableTo(params[i]) {
			return nil, errorAt(arg, "argument %d of %s: expected type %s, got %s", i+1, callee, params[i], typed.StaticType())
		}
		out = append(out, typed)
	}
	return out, nil
}
