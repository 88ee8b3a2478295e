package evaluator

import (
	"context"
	"fmt"
	"math"

	"pywat/internal/object"
	"pywat/internal/wat"
)

type controlKind int

const (
	ctrlNext controlKind = iota
	ctrlReturn
	ctrlBranch
)

type control struct {
	kind  controlKind
	label string
}

// frame is one activation: its locals and its operand stack.
type frame struct {
	fn     *wat.Func
	locals *object.Environment
	stack  []int32
}

func (fr *frame) push(v int32) { fr.stack = append(fr.stack, v) }

func (fr *frame) pop() (int32, error) {
	if len(fr.stack) == 0 {
		return 0, fr.trap("operand stack underflow")
	}
	v := fr.stack[len(fr.stack)-1]
	fr.stack = fr.stack[:len(fr.stack)-1]
	return v, nil
}

func (fr *frame) popN(n int) ([]int32, error) {
	if len(fr.stack) < n {
		return nil, fr.trap("operand stack underflow")
	}
	args := make([]int32, n)
	copy(args, fr.stack[len(fr.stack)-n:])
	fr.stack = fr.stack[:len(fr.stack)-n]
	return args, nil
}

func (fr *frame) name() string {
	if fr.fn.Name == "" {
		return fr.fn.Export
	}
	return fr.fn.Name
}

func (fr *frame) trap(msg string) *Trap {
	return &Trap{Func: fr.name(), Message: msg}
}

func (m *Machine) invoke(ctx context.Context, f *wat.Func, args []int32) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(args) != len(f.Params) {
		return 0, &Trap{Func: f.Name, Message: fmt.Sprintf("expected %d arguments, got %d", len(f.Params), len(args))}
	}
	if m.depth >= m.host.MaxDepth {
		return 0, &Trap{Func: f.Name, Message: "call stack exhausted"}
	}
	m.depth++
	defer func() { m.depth-- }()

	fr := &frame{fn: f, locals: object.NewEnvironment()}
	for i, p := range f.Params {
		fr.locals.Declare(p, args[i])
	}
	for _, l := range f.Locals {
		fr.locals.Declare(l, 0)
	}

	if _, err := m.exec(ctx, fr, f.Body); err != nil {
		return 0, err
	}
	if !f.Result {
		return 0, nil
	}
	return fr.pop()
}

func (m *Machine) exec(ctx context.Context, fr *frame, body []wat.Instr) (control, error) {
	for _, in := range body {
		switch in.Op {
		case wat.OpI32Const:
			fr.push(in.Value)

		case wat.OpLocalGet:
			v, ok := fr.locals.Get(in.Name)
			if !ok {
				return control{}, fr.trap("unknown local $" + in.Name)
			}
			fr.push(v)

		case wat.OpLocalSet:
			v, err := fr.pop()
			if err != nil {
				return control{}, err
			}
			if !fr.locals.Set(in.Name, v) {
				return control{}, fr.trap("unknown local $" + in.Name)
			}

		case wat.OpGlobalGet:
			v, ok := m.globals.Get(in.Name)
			if !ok {
				return control{}, fr.trap("unknown global $" + in.Name)
			}
			fr.push(v)

		case wat.OpGlobalSet:
			v, err := fr.pop()
			if err != nil {
				return control{}, err
			}
			if !m.globals.Set(in.Name, v) {
				return control{}, fr.trap("unknown global $" + in.Name)
			}

		case wat.OpI32Load:
			addr, err := fr.pop()
			if err != nil {
				return control{}, err
			}
			v, err := m.Load(addr)
			if err != nil {
				return control{}, err
			}
			fr.push(v)

		case wat.OpI32Store:
			vals, err := fr.popN(2)
			if err != nil {
				return control{}, err
			}
			if err := m.store(vals[0], vals[1]); err != nil {
				return control{}, err
			}

		case wat.OpDrop:
			if _, err := fr.pop(); err != nil {
				return control{}, err
			}

		case wat.OpCall:
			v, err := m.call(ctx, fr, in.Name)
			if err != nil {
				return control{}, err
			}
			fr.push(v)

		case wat.OpReturn:
			return control{kind: ctrlReturn}, nil

		case wat.OpBr:
			return control{kind: ctrlBranch, label: in.Name}, nil

		case wat.OpIf:
			cond, err := fr.pop()
			if err != nil {
				return control{}, err
			}
			arm := in.Body
			if cond == 0 {
				arm = in.Else
			}
			c, err := m.exec(ctx, fr, arm)
			if err != nil || c.kind != ctrlNext {
				return c, err
			}

		case wat.OpLoop:
			for {
				if err := ctx.Err(); err != nil {
					return control{}, err
				}
				c, err := m.exec(ctx, fr, in.Body)
				if err != nil {
					return control{}, err
				}
				if c.kind == ctrlBranch && c.label == in.Name {
					continue
				}
				if c.kind != ctrlNext {
					return c, nil
				}
				break
			}

		default:
			vals, err := fr.popN(2)
			if err != nil {
				return control{}, err
			}
			v, err := arith(fr, in.Op, vals[0], vals[1])
			if err != nil {
				return control{}, err
			}
			fr.push(v)
		}
	}
	return control{}, nil
}

func (m *Machine) call(ctx context.Context, fr *frame, name string) (int32, error) {
	if prim, ok := m.prims[name]; ok {
		imp, _ := m.module.Import(name)
		args, err := fr.popN(imp.Params)
		if err != nil {
			return 0, err
		}
		v, err := prim(args)
		if t, ok := err.(*Trap); ok && t.Func == "" {
			t.Func = fr.name()
		}
		return v, err
	}
	f, ok := m.module.Func(name)
	if !ok {
		return 0, fr.trap("call to unknown function $" + name)
	}
	args, err := fr.popN(len(f.Params))
	if err != nil {
		return 0, err
	}
	return m.invoke(ctx, f, args)
}

func arith(fr *frame, op wat.Op, a, b int32) (int32, error) {
	switch op {
	case wat.OpI32Add:
		return a + b, nil
	case wat.OpI32Sub:
		return a - b, nil
	case wat.OpI32Mul:
		return a * b, nil
	case wat.OpI32DivS:
		if b == 0 {
			return 0, fr.trap("integer divide by zero")
		}
		if a == math.MinInt32 && b == -1 {
			return 0, fr.trap("integer overflow")
		}
		return a / b, nil
	case wat.OpI32RemS:
		if b == 0 {
			return 0, fr.trap("integer divide by zero")
		}
		return a % b, nil
	case wat.OpI32Eq:
		return boolean(a == b), nil
	case wat.OpI32Ne:
		return boolean(a != b), nil
	case wat.OpI32LtS:
		return boolean(a < b), nil
	case wat.OpI32LeS:
		return boolean(a <= b), nil
	case wat.OpI32GtS:
		return boolean(a > b), nil
	case wat.OpI32GeS:
		return boolean(a >= b), nil
	}
	return 0, fr.trap(fmt.Sprintf("unknown instruction %q", op))
}

func boolean(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
