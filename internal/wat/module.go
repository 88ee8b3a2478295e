// Package wat models the small WebAssembly subset the compiler emits as a
// structured instruction tree, and renders it as module text.
package wat

// Op is an instruction mnemonic as written in the text format.
type Op string

const (
	OpI32Const  Op = "i32.const"
	OpLocalGet  Op = "local.get"
	OpLocalSet  Op = "local.set"
	OpGlobalGet Op = "global.get"
	OpGlobalSet Op = "global.set"
	OpI32Add    Op = "i32.add"
	OpI32Sub    Op = "i32.sub"
	OpI32Mul    Op = "i32.mul"
	OpI32DivS   Op = "i32.div_s"
	OpI32RemS   Op = "i32.rem_s"
	OpI32Eq     Op = "i32.eq"
	OpI32Ne     Op = "i32.ne"
	OpI32LtS    Op = "i32.lt_s"
	OpI32LeS    Op = "i32.le_s"
	OpI32GtS    Op = "i32.gt_s"
	OpI32GeS    Op = "i32.ge_s"
	OpI32Load   Op = "i32.load"
	OpI32Store  Op = "i32.store"
	OpCall      Op = "call"
	OpReturn    Op = "return"
	OpDrop      Op = "drop"
	OpIf        Op = "if"
	OpLoop      Op = "loop"
	OpBr        Op = "br"
)

// Instr is one instruction. Name holds the local, global, function or
// label it refers to, without the leading '$'. Structured instructions
// keep their arms in Body (then arm, loop body) and Else.
type Instr struct {
	Op    Op
	Value int32   `cbor:",omitempty"`
	Name  string  `cbor:",omitempty"`
	Body  []Instr `cbor:",omitempty"`
	Else  []Instr `cbor:",omitempty"`
}

// Import is a host function taking Params i32 values and returning one.
type Import struct {
	Name   string
	Module string
	Field  string
	Params int
}

type MemoryImport struct {
	Module string
	Field  string
	Pages  int
}

// Global is a mutable i32 global.
type Global struct {
	Name string
	Init int32
}

// Func is a function over i32 values. Export, when set, names the export;
// exported entry points have no Name.
type Func struct {
	Name   string `cbor:",omitempty"`
	Export string `cbor:",omitempty"`
	Params []string
	Result bool
	Locals []string
	Body   []Instr
}

type Module struct {
	Imports []Import
	Memory  *MemoryImport
	Globals []Global
	Funcs   []Func
}

// Func finds a function by name.
func (m *Module) Func(name string) (*Func, bool) {
	for i := range m.Funcs {
		if m.Funcs[i].Name != "" && m.Funcs[i].Name == name {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}

// Export finds an exported function.
func (m *Module) Export(name string) (*Func, bool) {
	for i := range m.Funcs {
		if m.Funcs[i].Export == name {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}

// Import finds an imported function by name.
func (m *Module) Import(name string) (*Import, bool) {
	for i := range m.Imports {
		if m.Imports[i].Name == name {
			return &m.Imports[i], true
		}
	}
	return nil, false
}

func Const(v int32) Instr         { return Instr{Op: OpI32Const, Value: v} }
func LocalGet(name string) Instr  { return Instr{Op: OpLocalGet, Name: name} }
func LocalSet(name string) Instr  { return Instr{Op: OpLocalSet, Name: name} }
func GlobalGet(name string) Instr { return Instr{Op: OpGlobalGet, Name: name} }
func GlobalSet(name string) Instr { return Instr{Op: OpGlobalSet, Name: name} }
func Call(name string) Instr      { return Instr{Op: OpCall, Name: name} }
func Br(label string) Instr       { return Instr{Op: OpBr, Name: label} }
func Plain(op Op) Instr           { return Instr{Op: op} }
func Return() Instr               { return Instr{Op: OpReturn} }
func If(then, els []Instr) Instr  { return Instr{Op: OpIf, Body: then, Else: els} }
func Loop(label string, body []Instr) Instr {
	return Instr{Op: OpLoop, Name: label, Body: body}
}
