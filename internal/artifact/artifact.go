// Package artifact stores a compiled module in a CBOR bundle that the
// runtime can execute without the source.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"pywat/internal/ast"
	"pywat/internal/typesys"
	"pywat/internal/wat"
)

// Version is bumped whenever the bundle layout changes.
const Version = 1

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("artifact: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Artifact is one compiled program.
type Artifact struct {
	Version    int
	SourceHash string
	ResultType typesys.Type
	Classes    []Class
	Module     *wat.Module
}

// Class records the memory layout of a class: field i lives at 4*i.
type Class struct {
	Name   string
	Fields []string
}

// New bundles a typed program with the module generated for it.
func New(source string, program *ast.Program, module *wat.Module) *Artifact {
	sum := sha256.Sum256([]byte(source))
	a := &Artifact{
		Version:    Version,
		SourceHash: hex.EncodeToString(sum[:]),
		ResultType: program.Type,
		Module:     module,
	}
	for _, cd := range program.ClassDefs {
		c := Class{Name: cd.Name}
		for _, f := range cd.Fields {
			c.Fields = append(c.Fields, f.Var.Name)
		}
		a.Classes = append(a.Classes, c)
	}
	return a
}

// Matches reports whether a was compiled from source.
func (a *Artifact) Matches(source string) bool {
	sum := sha256.Sum256([]byte(source))
	return a.SourceHash == hex.EncodeToString(sum[:])
}

// Summary is a one-line description for build output.
func (a *Artifact) Summary() string {
	return fmt.Sprintf("%d classes, %d functions, result %s", len(a.Classes), len(a.Module.Funcs), a.ResultType)
}

// Marshal serializes a to canonical CBOR.
func Marshal(a *Artifact) ([]byte, error) {
	return encMode.Marshal(a)
}

// Unmarshal decodes a bundle and checks that its module is well formed.
func Unmarshal(data []byte) (*Artifact, error) {
	var a Artifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal: %w", err)
	}
	if a.Version != Version {
		return nil, fmt.Errorf("artifact: version %d, want %d", a.Version, Version)
	}
	if a.Module == nil {
		return nil, fmt.Errorf("artifact: no module")
	}
	if err := a.Module.Validate(); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return &a, nil
}

func WriteFile(path string, a *Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
