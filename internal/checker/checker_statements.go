package checker

import (
	"pywat/internal/ast"
	"pywat/internal/typesys"
)

func checkStatements(stmts []ast.Statement, e *env) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		typed, err := checkStatement(stmt, e)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

func checkBlock(block *ast.BlockStatement, e *env) (*ast.BlockStatement, error) {
	stmts, err := checkStatements(block.Statements, e)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Token: block.Token, Statements: stmts}, nil
}

func checkStatement(stmt ast.Statement, e *env) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *ast.PassStatement:
		return &ast.PassStatement{Token: s.Token}, nil

	case *ast.ExpressionStatement:
		expr, err := checkExpression(s.Expression, e)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Token: s.Token, Expression: expr}, nil

	case *ast.AssignStatement:
		return checkAssign(s, e)

	case *ast.FieldAssignStatement:
		return checkFieldAssign(s, e)

	case *ast.ReturnStatement:
		return checkReturn(s, e)

	case *ast.IfStatement:
		return checkIf(s, e)

	case *ast.WhileStatement:
		cond, err := checkCondition(s.Condition, e)
		if err != nil {
			return nil, err
		}
		body, err := checkBlock(s.Body, e)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{Token: s.Token, Condition: cond, Body: body}, nil

	case *ast.BlockStatement:
		return checkBlock(s, e)
	}
	return nil, errorAt(stmt, "unsupported statement %T", stmt)
}

// checkAssign enforces that, inside a function, only the function's own
// parameters and locals can be assigned.
func checkAssign(s *ast.AssignStatement, e *env) (ast.Statement, error) {
	name := s.Name.Value
	target, ok := e.vars[name]
	if !ok {
		return nil, errorAt(s, "unknown variable %s", name)
	}
	if e.inFunction && !e.declared[name] {
		return nil, errorAt(s, "cannot assign to %s: it is not declared in this scope", name)
	}
	value, err := checkExpression(s.Value, e)
	if err != nil {
		return nil, err
	}
	if !value.StaticType().AssignableTo(target) {
		return nil, errorAt(s, "expected type %s, got %s in assignment to %s", target, value.StaticType(), name)
	}
	id := *s.Name
	id.Type = target
	return &ast.AssignStatement{Token: s.Token, Name: &id, Value: value}, nil
}

func checkFieldAssign(s *ast.FieldAssignStatement, e *env) (ast.Statement, error) {
	object, info, err := checkReceiver(s.Object, "set field "+s.Field.Value, e)
	if err != nil {
		return nil, err
	}
	fieldType, ok := info.fields[s.Field.Value]
	if !ok {
		return nil, errorAt(s, "class %s has no field %s", info.name, s.Field.Value)
	}
	value, err := checkExpression(s.Value, e)
	if err != nil {
		return nil, err
	}
	if !value.StaticType().AssignableTo(fieldType) {
		return nil, errorAt(s, "expected type %s, got %s in assignment to field %s", fieldType, value.StaticType(), s.Field.Value)
	}
	field := *s.Field
	field.Type = fieldType
	return &ast.FieldAssignStatement{Token: s.Token, Object: object, Field: &field, Value: value}, nil
}

func checkReturn(s *ast.ReturnStatement, e *env) (ast.Statement, error) {
	if !e.inFunction {
		return nil, errorAt(s, "return outside of a function")
	}
	if s.ReturnValue == nil {
		if e.ret.IsValid() {
			return nil, errorAt(s, "expected a return value of type %s", e.ret)
		}
		return &ast.ReturnStatement{Token: s.Token}, nil
	}
	if !e.ret.IsValid() {
		return nil, errorAt(s, "cannot return a value from a function without a return type")
	}
	value, err := checkExpression(s.ReturnValue, e)
	if err != nil {
		return nil, err
	}
	if !value.StaticType().AssignableTo(e.ret) {
		return nil, errorAt(s, "expected return type %s, got %s", e.ret, value.StaticType())
	}
	return &ast.ReturnStatement{Token: s.Token, ReturnValue: value}, nil
}

// checkIf requires an else on every if. Inside a function with a return
// type, the last statement of every branch must be a return; nested
// statements are not inspected.
func checkIf(s *ast.IfStatement, e *env) (ast.Statement, error) {
	cond, err := checkCondition(s.Condition, e)
	if err != nil {
		return nil, err
	}
	consequence, err := checkBranch(s.Consequence, s, e)
	if err != nil {
		return nil, err
	}
	out := &ast.IfStatement{Token: s.Token, Condition: cond, Consequence: consequence}

	for _, clause := range s.Elifs {
		cond, err := checkCondition(clause.Condition, e)
		if err != nil {
			return nil, err
		}
		body, err := checkBranch(clause.Consequence, clause, e)
		if err != nil {
			return nil, err
		}
		out.Elifs = append(out.Elifs, &ast.ElifClause{Token: clause.Token, Condition: cond, Consequence: body})
	}

	if s.Alternative == nil {
		return nil, errorAt(s, "if statement must have an else branch")
	}
	out.Alternative, err = checkBranch(s.Alternative, s, e)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkBranch(block *ast.BlockStatement, owner ast.Node, e *env) (*ast.BlockStatement, error) {
	typed, err := checkBlock(block, e)
	if err != nil {
		return nil, err
	}
	if e.ret.IsValid() && !endsWithReturn(typed) {
		return nil, errorAt(owner, "every branch must end with a return of type %s", e.ret)
	}
	return typed, nil
}

func endsWithReturn(block *ast.BlockStatement) bool {
	if len(block.Statements) == 0 {
		return false
	}
	_, ok := block.Statements[len(block.Statements)-1].(*ast.ReturnStatement)
	return ok
}

func checkCondition(cond ast.Expression, e *env) (ast.Expression, error) {
	typed, err := checkExpression(cond, e)
	if err != nil {
		return nil, err
	}
	if !typed.StaticType().Equal(typesys.Bool) {
		return nil, errorAt(cond, "condition must be bool, got %s", typed.StaticType())
	}
	return typed, nil
}
