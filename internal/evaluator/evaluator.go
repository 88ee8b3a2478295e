// Package evaluator executes a generated module directly from its
// instruction tree. It is the reference host: it supplies linear memory
// and the imported primitives.
package evaluator

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"pywat/internal/imports"
	"pywat/internal/object"
	"pywat/internal/wat"
)

var log = commonlog.GetLogger("pywat.evaluator")

const (
	pageSize        = 65536
	defaultMaxDepth = 10000
	entryName       = "_start"
)

// Host configures the runtime around a module.
type Host struct {
	Stdout      io.Writer
	MemoryPages int // pages of linear memory; the module's declared count when zero
	MaxDepth    int // call depth before trapping; 10000 when zero
}

// Result is what the entry function produced.
type Result struct {
	Value    int32
	HasValue bool
}

// Machine is one instantiated module.
type Machine struct {
	module  *wat.Module
	host    Host
	memory  []byte
	globals *object.Environment
	prims   map[string]primitive
	depth   int
}

// New instantiates module: globals get their initial values and memory is
// zeroed.
func New(module *wat.Module, host Host) (*Machine, error) {
	if module == nil {
		return nil, fmt.Errorf("no module")
	}
	if host.Stdout == nil {
		host.Stdout = io.Discard
	}
	if host.MaxDepth <= 0 {
		host.MaxDepth = defaultMaxDepth
	}
	pages := host.MemoryPages
	if pages <= 0 {
		pages = imports.MemoryPages
		if module.Memory != nil && module.Memory.Pages > 0 {
			pages = module.Memory.Pages
		}
	}

	m := &Machine{
		module:  module,
		host:    host,
		memory:  make([]byte, pages*pageSize),
		globals: object.NewEnvironment(),
	}
	for _, g := range module.Globals {
		m.globals.Declare(g.Name, g.Init)
	}
	prims, err := m.bindImports()
	if err != nil {
		return nil, err
	}
	m.prims = prims
	return m, nil
}

// Run instantiates module and runs its entry function.
func Run(ctx context.Context, module *wat.Module, host Host) (Result, error) {
	m, err := New(module, host)
	if err != nil {
		return Result{}, err
	}
	return m.Run(ctx)
}

// Run executes the exported entry function.
func (m *Machine) Run(ctx context.Context) (Result, error) {
	entry, ok := m.module.Export(entryName)
	if !ok {
		return Result{}, &Trap{Message: "module has no " + entryName + " export"}
	}
	log.Debugf("running %s with %d bytes of memory", entryName, len(m.memory))
	val, err := m.invoke(ctx, entry, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: val, HasValue: entry.Result}, nil
}

// Call runs a named module function with args.
func (m *Machine) Call(ctx context.Context, name string, args ...int32) (int32, error) {
	f, ok := m.module.Func(name)
	if !ok {
		return 0, &Trap{Message: "unknown function $" + name}
	}
	return m.invoke(ctx, f, args)
}

// Global reads a global's current value.
func (m *Machine) Global(name string) (int32, bool) {
	return m.globals.Get(name)
}

// Load reads the i32 at addr.
func (m *Machine) Load(addr int32) (int32, error) {
	if err := m.bounds(addr); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.memory[addr:])), nil
}

func (m *Machine) store(addr int32, val int32) error {
	if err := m.bounds(addr); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.memory[addr:], uint32(val))
	return nil
}

func (m *Machine) bounds(addr int32) error {
	if addr < 0 || int(addr)+4 > len(m.memory) {
		return &Trap{Message: fmt.Sprintf("out of bounds memory access at %d", addr)}
	}
	return nil
}
