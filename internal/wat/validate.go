package wat

import "fmt"

// ValidationError pins a stack or reference problem to a function.
type ValidationError struct {
	Func    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wat: func %s: %s", e.Func, e.Message)
}

// Validate checks that every function respects the stack discipline: each
// instruction finds its operands, structured arms leave the stack as they
// found it, and a function that falls off its end leaves exactly its
// result. Exported functions take no parameters. References to locals,
// globals, functions and labels must resolve.
func (m *Module) Validate() error {
	globals := map[string]bool{}
	for _, g := range m.Globals {
		globals[g.Name] = true
	}
	for i := range m.Funcs {
		f := &m.Funcs[i]
		v := &validator{module: m, fn: f, globals: globals, locals: map[string]bool{}}
		if f.Export != "" && len(f.Params) > 0 {
			return v.fail("exported function takes %d parameters, want none", len(f.Params))
		}
		for _, p := range f.Params {
			v.locals[p] = true
		}
		for _, l := range f.Locals {
			v.locals[l] = true
		}
		height, unreachable, err := v.seq(f.Body, nil)
		if err != nil {
			return err
		}
		want := 0
		if f.Result {
			want = 1
		}
		if !unreachable && height != want {
			return v.fail("falls through with %d values on the stack, want %d", height, want)
		}
	}
	return nil
}

type validator struct {
	module  *Module
	fn      *Func
	globals map[string]bool
	locals  map[string]bool
}

func (v *validator) fail(format string, args ...interface{}) error {
	name := v.fn.Name
	if name == "" {
		name = v.fn.Export
	}
	return &ValidationError{Func: name, Message: fmt.Sprintf(format, args...)}
}

// seq validates a block body starting from an empty block stack. It
// returns the resulting height and whether the end is unreachable. Code
// after return or br is still checked, against a polymorphic stack.
func (v *validator) seq(body []Instr, labels []string) (int, bool, error) {
	height := 0
	unreachable := false
	pop := func(n int, op Op) error {
		if height < n {
			if unreachable {
				height = 0
				return nil
			}
			return v.fail("%s needs %d operands, stack has %d", op, n, height)
		}
		height -= n
		return nil
	}

	for _, in := range body {
		switch in.Op {
		case OpI32Const:
			height++
		case OpLocalGet:
			if !v.locals[in.Name] {
				return 0, false, v.fail("unknown local $%s", in.Name)
			}
			height++
		case OpLocalSet:
			if !v.locals[in.Name] {
				return 0, false, v.fail("unknown local $%s", in.Name)
			}
			if err := pop(1, in.Op); err != nil {
				return 0, false, err
			}
		case OpGlobalGet:
			if !v.globals[in.Name] {
				return 0, false, v.fail("unknown global $%s", in.Name)
			}
			height++
		case OpGlobalSet:
			if !v.globals[in.Name] {
				return 0, false, v.fail("unknown global $%s", in.Name)
			}
			if err := pop(1, in.Op); err != nil {
				return 0, false, err
			}
		case OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32RemS,
			OpI32Eq, OpI32Ne, OpI32LtS, OpI32LeS, OpI32GtS, OpI32GeS:
			if err := pop(2, in.Op); err != nil {
				return 0, false, err
			}
			height++
		case OpI32Load:
			if err := pop(1, in.Op); err != nil {
				return 0, false, err
			}
			height++
		case OpI32Store:
			if err := pop(2, in.Op); err != nil {
				return 0, false, err
			}
		case OpDrop:
			if err := pop(1, in.Op); err != nil {
				return 0, false, err
			}
		case OpCall:
			arity, ok := v.arity(in.Name)
			if !ok {
				return 0, false, v.fail("call to unknown function $%s", in.Name)
			}
			if err := pop(arity, in.Op); err != nil {
				return 0, false, err
			}
			height++
		case OpReturn:
			if v.fn.Result {
				if err := pop(1, in.Op); err != nil {
					return 0, false, err
				}
			}
			height, unreachable = 0, true
		case OpBr:
			if !hasLabel(labels, in.Name) {
				return 0, false, v.fail("branch to unknown label $%s", in.Name)
			}
			height, unreachable = 0, true
		case OpIf:
			if err := pop(1, in.Op); err != nil {
				return 0, false, err
			}
			if err := v.arm(in.Body, labels, "if"); err != nil {
				return 0, false, err
			}
			if err := v.arm(in.Else, labels, "else"); err != nil {
				return 0, false, err
			}
		case OpLoop:
			if err := v.arm(in.Body, append(labels, in.Name), "loop $"+in.Name); err != nil {
				return 0, false, err
			}
		default:
			return 0, false, v.fail("unknown instruction %q", in.Op)
		}
	}
	return height, unreachable, nil
}

// arm validates a structured arm with no block parameters or results.
func (v *validator) arm(body []Instr, labels []string, what string) error {
	height, unreachable, err := v.seq(body, labels)
	if err != nil {
		return err
	}
	if !unreachable && height != 0 {
		return v.fail("%s arm leaves %d values on the stack", what, height)
	}
	return nil
}

func (v *validator) arity(name string) (int, bool) {
	if imp, ok := v.module.Import(name); ok {
		return imp.Params, true
	}
	if f, ok := v.module.Func(name); ok {
		return len(f.Params), f.Result
	}
	return 0, false
}

func hasLabel(labels []string, name string) bool {
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i] == name {
			return true
		}
	}
	return false
}
