package checker

import (
	"pywat/internal/ast"
	"pywat/internal/imports"
	"pywat/internal/typesys"
)

// heapGlobal is the generated module's allocation pointer; a user global of
// the same name would collide with it.
const heapGlobal = "heap"

// defaultConstructor is what a class without __init__ gets: receiver only,
// no return type, empty body.
func defaultConstructor(cd *ast.ClassDef) *ast.FunDef {
	self := &ast.TypedVar{Token: cd.Token, Name: "self", Type: typesys.ClassOf(cd.Name)}
	return &ast.FunDef{
		Token:  cd.Token,
		Name:   ast.ConstructorName,
		Params: []*ast.TypedVar{self},
		Body: &ast.BlockStatement{Token: cd.Token, Statements: []ast.Statement{
			&ast.PassStatement{Token: cd.Token},
		}},
	}
}

// declareClasses registers every class with its field types and method
// signatures. Names go in first so members may refer to any class. The
// returned definitions carry a synthesized constructor where needed.
func declareClasses(defs []*ast.ClassDef, top *env) ([]*ast.ClassDef, error) {
	for _, cd := range defs {
		if typesys.IsBuiltinTypeName(cd.Name) || cd.Name == "object" || imports.IsReservedName(cd.Name) {
			return nil, errorAt(cd, "cannot use reserved name %s as a class name", cd.Name)
		}
		if _, dup := top.classes[cd.Name]; dup {
			return nil, errorAt(cd, "duplicate declaration of class %s", cd.Name)
		}
		top.classes[cd.Name] = &classInfo{
			name:    cd.Name,
			fields:  map[string]typesys.Type{},
			methods: map[string]signature{},
		}
	}

	out := make([]*ast.ClassDef, 0, len(defs))
	for _, cd := range defs {
		info := top.classes[cd.Name]
		members := map[string]bool{}

		for _, field := range cd.Fields {
			name := field.Var.Name
			if members[name] {
				return nil, errorAt(field, "duplicate declaration of %s in class %s", name, cd.Name)
			}
			members[name] = true
			if err := checkVarDef(field, top); err != nil {
				return nil, err
			}
			info.fields[name] = field.Var.Type
		}

		methods := cd.Methods
		if _, ok := cd.Method(ast.ConstructorName); !ok {
			methods = append(append([]*ast.FunDef{}, methods...), defaultConstructor(cd))
		}
		for _, m := range methods {
			if members[m.Name] {
				return nil, errorAt(m, "duplicate declaration of %s in class %s", m.Name, cd.Name)
			}
			members[m.Name] = true
			sig, err := methodSignature(cd, m, top)
			if err != nil {
				return nil, err
			}
			info.methods[m.Name] = sig
		}

		out = append(out, &ast.ClassDef{Token: cd.Token, Name: cd.Name, Fields: cd.Fields, Methods: methods})
	}
	return out, nil
}

func methodSignature(cd *ast.ClassDef, m *ast.FunDef, top *env) (signature, error) {
	self := typesys.ClassOf(cd.Name)
	if len(m.Params) == 0 || !m.Params[0].Type.Equal(self) {
		return signature{}, errorAt(m, "method %s of class %s must take a first parameter of type %s", m.Name, cd.Name, cd.Name)
	}
	if m.IsConstructor() && m.ReturnType.IsValid() {
		return signature{}, errorAt(m, "constructor of class %s cannot declare a return type", cd.Name)
	}
	return functionSignature(m, top)
}

func functionSignature(fd *ast.FunDef, top *env) (signature, error) {
	sig := signature{ret: fd.ReturnType}
	for _, p := range fd.Params {
		if err := checkDeclaredType(p, p.Type, top); err != nil {
			return signature{}, err
		}
		sig.params = append(sig.params, p.Type)
	}
	if fd.ReturnType.IsValid() {
		if err := checkDeclaredType(fd, fd.ReturnType, top); err != nil {
			return signature{}, err
		}
	}
	return sig, nil
}

// checkDeclaredType rejects annotations naming a class that does not exist.
func checkDeclaredType(node ast.Node, t typesys.Type, e *env) error {
	if !t.IsValid() {
		return errorAt(node, "missing type annotation")
	}
	if t.IsClass() {
		if _, ok := e.classes[t.Class]; !ok {
			return errorAt(node, "unknown class %s", t.Class)
		}
	}
	return nil
}

// checkVarDef validates a definition's declared type and initializer.
func checkVarDef(vd *ast.VarDef, e *env) error {
	if err := checkDeclaredType(vd, vd.Var.Type, e); err != nil {
		return err
	}
	valueType := vd.Value.LiteralType()
	if !valueType.AssignableTo(vd.Var.Type) {
		return errorAt(vd, "expected type %s, got %s in definition of %s", vd.Var.Type, valueType, vd.Var.Name)
	}
	return nil
}

func typedVarDef(vd *ast.VarDef) *ast.VarDef {
	lit := *vd.Value
	lit.Type = lit.LiteralType()
	tv := *vd.Var
	return &ast.VarDef{Token: vd.Token, Var: &tv, Value: &lit}
}

func declareGlobals(defs []*ast.VarDef, top *env) ([]*ast.VarDef, error) {
	out := make([]*ast.VarDef, 0, len(defs))
	for _, vd := range defs {
		name := vd.Var.Name
		if name == heapGlobal {
			return nil, errorAt(vd, "cannot use reserved name %s as a global variable", name)
		}
		if _, dup := top.vars[name]; dup {
			return nil, errorAt(vd, "duplicate declaration of variable %s", name)
		}
		if err := checkVarDef(vd, top); err != nil {
			return nil, err
		}
		top.vars[name] = vd.Var.Type
		out = append(out, typedVarDef(vd))
	}
	return out, nil
}

// declareFunctions registers signatures before any body is checked, so
// functions may call each other regardless of order.
func declareFunctions(defs []*ast.FunDef, top *env) error {
	for _, fd := range defs {
		if imports.IsReservedName(fd.Name) {
			return errorAt(fd, "cannot redefine built-in function %s", fd.Name)
		}
		if _, dup := top.funs[fd.Name]; dup {
			return errorAt(fd, "duplicate declaration of function %s", fd.Name)
		}
		if _, clash := top.classes[fd.Name]; clash {
			return errorAt(fd, "function %s has the same name as a class", fd.Name)
		}
		sig, err := functionSignature(fd, top)
		if err != nil {
			return err
		}
		top.funs[fd.Name] = sig
	}
	return nil
}

// checkFunDef checks a function or method body in a snapshot of outer.
// Only its own parameters and locals are assignable inside.
func checkFunDef(fd *ast.FunDef, outer *env) (*ast.FunDef, error) {
	local := outer.clone()
	local.ret = fd.ReturnType
	local.inFunction = true
	local.declared = map[string]bool{}

	out := &ast.FunDef{Token: fd.Token, Name: fd.Name, ReturnType: fd.ReturnType}
	for _, p := range fd.Params {
		if local.declared[p.Name] {
			return nil, errorAt(p, "duplicate parameter %s in function %s", p.Name, fd.Name)
		}
		if err := checkDeclaredType(p, p.Type, local); err != nil {
			return nil, err
		}
		local.declared[p.Name] = true
		local.vars[p.Name] = p.Type
		tv := *p
		out.Params = append(out.Params, &tv)
	}
	for _, vd := range fd.Locals {
		name := vd.Var.Name
		if local.declared[name] {
			return nil, errorAt(vd, "duplicate declaration of %s in function %s", name, fd.Name)
		}
		if err := checkVarDef(vd, local); err != nil {
			return nil, err
		}
		local.declared[name] = true
		local.vars[name] = vd.Var.Type
		out.Locals = append(out.Locals, typedVarDef(vd))
	}

	out.Body = &ast.BlockStatement{}
	if fd.Body != nil {
		stmts, err := checkStatements(fd.Body.Statements, local)
		if err != nil {
			return nil, err
		}
		out.Body = &ast.BlockStatement{Token: fd.Body.Token, Statements: stmts}
	}
	return out, nil
}

func checkClassDef(cd *ast.ClassDef, top *env) (*ast.ClassDef, error) {
	out := &ast.ClassDef{Token: cd.Token, Name: cd.Name}
	for _, f := range cd.Fields {
		out.Fields = append(out.Fields, typedVarDef(f))
	}
	for _, m := range cd.Methods {
		typed, err := checkFunDef(m, top)
		if err != nil {
			return nil, err
		}
		out.Methods = append(out.Methods, typed)
	}
	return out, nil
}
