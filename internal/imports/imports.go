package imports

// Module is the import module name every host primitive lives under.
const Module = "imports"

// Memory import coordinates and the page count the module declares.
const (
	MemoryModule = "mem"
	MemoryField  = "memory"
	MemoryPages  = 1
)

// Host primitives the generated module imports.
const (
	PrintNum     = "print_num"
	PrintBool    = "print_bool"
	PrintNone    = "print_none"
	RuntimeCheck = "runtime_check"
	Abs          = "abs"
	Min          = "min"
	Max          = "max"
	Pow          = "pow"
)

// Primitive describes one imported host function. Every primitive takes
// Arity i32 parameters and returns one i32.
type Primitive struct {
	Name  string
	Arity int
}

// Primitives lists the host functions in declaration order.
var Primitives = []Primitive{
	{PrintNum, 1},
	{PrintBool, 1},
	{PrintNone, 1},
	{RuntimeCheck, 1},
	{Abs, 1},
	{Min, 2},
	{Max, 2},
	{Pow, 2},
}

// Lookup finds a primitive by name.
func Lookup(name string) (Primitive, bool) {
	for _, p := range Primitives {
		if p.Name == name {
			return p, true
		}
	}
	return Primitive{}, false
}

// IsBuiltinFunction reports whether name is a source-level built-in that
// maps directly onto a primitive of the same name.
func IsBuiltinFunction(name string) bool {
	switch name {
	case Abs, Min, Max, Pow:
		return true
	}
	return false
}

// IsReservedName reports whether a user function or class may not use
// name: source built-ins and the runtime primitives share the function
// namespace of the generated module.
func IsReservedName(name string) bool {
	if name == "print" {
		return true
	}
	_, ok := Lookup(name)
	return ok
}
