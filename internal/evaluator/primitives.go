package evaluator

import (
	"fmt"

	"pywat/internal/imports"
)

type primitive func(args []int32) (int32, error)

// NullReference is the trap message for a field access through None.
const NullReference = "RUNTIME ERROR: the obj is null"

// bindImports resolves every module import against the host primitives.
func (m *Machine) bindImports() (map[string]primitive, error) {
	available := map[string]primitive{
		imports.PrintNum: func(args []int32) (int32, error) {
			fmt.Fprintf(m.host.Stdout, "%d\n", args[0])
			return args[0], nil
		},
		imports.PrintBool: func(args []int32) (int32, error) {
			if args[0] == 0 {
				fmt.Fprintln(m.host.Stdout, "False")
			} else {
				fmt.Fprintln(m.host.Stdout, "True")
			}
			return args[0], nil
		},
		imports.PrintNone: func(args []int32) (int32, error) {
			fmt.Fprintln(m.host.Stdout, "None")
			return args[0], nil
		},
		imports.RuntimeCheck: func(args []int32) (int32, error) {
			if args[0] == 0 {
				return 0, &Trap{Message: NullReference}
			}
			return args[0], nil
		},
		imports.Abs: func(args []int32) (int32, error) {
			if args[0] < 0 {
				return -args[0], nil
			}
			return args[0], nil
		},
		imports.Min: func(args []int32) (int32, error) {
			if args[1] < args[0] {
				return args[1], nil
			}
			return args[0], nil
		},
		imports.Max: func(args []int32) (int32, error) {
			if args[1] > args[0] {
				return args[1], nil
			}
			return args[0], nil
		},
		imports.Pow: func(args []int32) (int32, error) {
			return Pow(args[0], args[1]), nil
		},
	}

	bound := make(map[string]primitive, len(m.module.Imports))
	for _, imp := range m.module.Imports {
		if imp.Module != imports.Module {
			return nil, fmt.Errorf("unknown import module %q", imp.Module)
		}
		prim, ok := imports.Lookup(imp.Field)
		if !ok || prim.Arity != imp.Params {
			return nil, fmt.Errorf("unknown import %s.%s/%d", imp.Module, imp.Field, imp.Params)
		}
		bound[imp.Name] = available[imp.Field]
	}
	return bound, nil
}

// Pow raises base to exp and truncates toward zero. Negative exponents
// only leave a whole part for bases 1 and -1.
func Pow(base, exp int32) int32 {
	if exp < 0 {
		switch base {
		case 1:
			return 1
		case -1:
			if exp%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	result := int64(1)
	b := int64(base)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = wrap(result * b)
		}
		b = wrap(b * b)
	}
	return int32(result)
}

// wrap keeps the low 32 bits, as i32 arithmetic does.
func wrap(v int64) int64 {
	return int64(int32(v))
}
