package wat

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// String renders the module in WebAssembly text format.
func (m *Module) String() string {
	var b strings.Builder
	_, _ = m.WriteTo(&b)
	return b.String()
}

// WriteTo renders the module to w. Imports come first, then the memory
// import, globals and functions in declaration order.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	p := &printer{}
	p.line(0, "(module")
	for _, imp := range m.Imports {
		params := strings.TrimSpace(strings.Repeat(" i32", imp.Params))
		sig := ""
		if params != "" {
			sig = " (param " + params + ")"
		}
		p.line(1, fmt.Sprintf("(func $%s (import %q %q)%s (result i32))", imp.Name, imp.Module, imp.Field, sig))
	}
	if m.Memory != nil {
		p.line(1, fmt.Sprintf("(import %q %q (memory %d))", m.Memory.Module, m.Memory.Field, m.Memory.Pages))
	}
	for _, g := range m.Globals {
		p.line(1, fmt.Sprintf("(global $%s (mut i32) (i32.const %d))", g.Name, g.Init))
	}
	for i := range m.Funcs {
		p.function(&m.Funcs[i])
	}
	p.line(0, ")")
	n, err := io.WriteString(w, p.b.String())
	return int64(n), err
}

type printer struct {
	b strings.Builder
}

func (p *printer) line(depth int, text string) {
	p.b.WriteString(strings.Repeat(indentUnit, depth))
	p.b.WriteString(text)
	p.b.WriteByte('\n')
}

func (p *printer) function(f *Func) {
	var head strings.Builder
	head.WriteString("(func")
	if f.Name != "" {
		head.WriteString(" $" + f.Name)
	}
	if f.Export != "" {
		fmt.Fprintf(&head, " (export %q)", f.Export)
	}
	for _, param := range f.Params {
		fmt.Fprintf(&head, " (param $%s i32)", param)
	}
	if f.Result {
		head.WriteString(" (result i32)")
	}
	p.line(1, head.String())
	for _, local := range f.Locals {
		p.line(2, fmt.Sprintf("(local $%s i32)", local))
	}
	p.instrs(2, f.Body)
	p.line(1, ")")
}

func (p *printer) instrs(depth int, body []Instr) {
	for _, in := range body {
		p.instr(depth, in)
	}
}

func (p *printer) instr(depth int, in Instr) {
	switch in.Op {
	case OpI32Const:
		p.line(depth, fmt.Sprintf("%s %d", in.Op, in.Value))
	case OpLocalGet, OpLocalSet, OpGlobalGet, OpGlobalSet, OpCall, OpBr:
		p.line(depth, fmt.Sprintf("%s $%s", in.Op, in.Name))
	case OpIf:
		p.line(depth, "if")
		p.instrs(depth+1, in.Body)
		if len(in.Else) > 0 {
			p.line(depth, "else")
			p.instrs(depth+1, in.Else)
		}
		p.line(depth, "end")
	case OpLoop:
		p.line(depth, "loop $"+in.Name)
		p.instrs(depth+1, in.Body)
		p.line(depth, "end")
	default:
		p.line(depth, string(in.Op))
	}
}
