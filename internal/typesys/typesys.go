package typesys

// Kind enumerates the value types of the language. The zero Kind is
// Invalid and doubles as "no type" for unset annotations and for functions
// that return nothing meaningful.
type Kind int

const (
	Invalid Kind = iota
	NumberKind
	BoolKind
	NoneKind
	ClassKind
)

// Type is a resolved value type. Class types are nominal: two class types
// are equal iff their names match.
type Type struct {
	Kind  Kind
	Class string
}

var (
	Number = Type{Kind: NumberKind}
	Bool   = Type{Kind: BoolKind}
	None   = Type{Kind: NoneKind}
)

// ClassOf returns the class type named name.
func ClassOf(name string) Type {
	return Type{Kind: ClassKind, Class: name}
}

// IsValid reports whether t is a real type, as opposed to an absent one.
func (t Type) IsValid() bool {
	return t.Kind != Invalid
}

func (t Type) IsClass() bool {
	return t.Kind == ClassKind
}

// Equal is structural for the primitive kinds and nominal for classes.
func (t Type) Equal(u Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	if t.Kind == ClassKind {
		return t.Class == u.Class
	}
	return true
}

// AssignableTo reports whether a value of type t may be stored where u is
// expected. None flows into any class type; otherwise the types must be
// equal. The relation is not symmetric.
func (t Type) AssignableTo(u Type) bool {
	if !t.IsValid() || !u.IsValid() {
		return false
	}
	if t.Kind == NoneKind && u.Kind == ClassKind {
		return true
	}
	return t.Equal(u)
}

// IsReference reports whether t can take part in an identity (is) test.
func (t Type) IsReference() bool {
	return t.Kind == NoneKind || t.Kind == ClassKind
}

func (t Type) String() string {
	switch t.Kind {
	case NumberKind:
		return "int"
	case BoolKind:
		return "bool"
	case NoneKind:
		return "None"
	case ClassKind:
		return t.Class
	default:
		return "<none>"
	}
}

// IsBuiltinTypeName reports whether name is spelled as a primitive type
// in source annotations.
func IsBuiltinTypeName(name string) bool {
	switch name {
	case "int", "bool":
		return true
	default:
		return false
	}
}

// FromName maps a source annotation to a type. Anything that is not a
// primitive name is taken to be a class; whether that class exists is the
// checker's business.
func FromName(name string) Type {
	switch name {
	case "int":
		return Number
	case "bool":
		return Bool
	case "":
		return Type{}
	default:
		return ClassOf(name)
	}
}
