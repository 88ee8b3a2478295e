// Package object turns raw i32 values from the runtime back into values of
// the source language for display.
package object

import (
	"fmt"

	"pywat/internal/typesys"
)

// ObjectType identifies what kind of value we have
type ObjectType string

const (
	INTEGER_OBJ  ObjectType = "INTEGER"
	BOOLEAN_OBJ  ObjectType = "BOOLEAN"
	NONE_OBJ     ObjectType = "NONE"
	INSTANCE_OBJ ObjectType = "INSTANCE"
)

// Object is a displayable value.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents int values like 5, -42
type Integer struct {
	Value int32
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return fmt.Sprintf("%d", i.Value) }

// Boolean prints the way the source language spells it.
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "True"
	}
	return "False"
}

// None is the null reference.
type None struct{}

func (n *None) Type() ObjectType { return NONE_OBJ }
func (n *None) Inspect() string  { return "None" }

// Instance is a reference to an object in linear memory.
type Instance struct {
	Class   string
	Address int32
}

func (in *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (in *Instance) Inspect() string  { return fmt.Sprintf("<%s object at %d>", in.Class, in.Address) }

// FromRaw interprets raw under the static type t. A zero reference is
// None; an unknown type reads as an integer.
func FromRaw(raw int32, t typesys.Type) Object {
	switch t.Kind {
	case typesys.BoolKind:
		return &Boolean{Value: raw != 0}
	case typesys.NoneKind:
		return &None{}
	case typesys.ClassKind:
		if raw == 0 {
			return &None{}
		}
		return &Instance{Class: t.Class, Address: raw}
	}
	return &Integer{Value: raw}
}
