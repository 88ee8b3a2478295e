package object

import (
	"testing"

	"pywat/internal/typesys"
)

func TestObjectInspectAndType(t *testing.T) {
	tests := []struct {
		obj      Object
		wantType ObjectType
		want     string
	}{
		{&Integer{Value: -7}, INTEGER_OBJ, "-7"},
		{&Boolean{Value: true}, BOOLEAN_OBJ, "True"},
		{&Boolean{Value: false}, BOOLEAN_OBJ, "False"},
		{&None{}, NONE_OBJ, "None"},
		{&Instance{Class: "Rat", Address: 12}, INSTANCE_OBJ, "<Rat object at 12>"},
	}
	for _, tt := range tests {
		if got := tt.obj.Type(); got != tt.wantType {
			t.Fatalf("%T Type=%s want=%s", tt.obj, got, tt.wantType)
		}
		if got := tt.obj.Inspect(); got != tt.want {
			t.Fatalf("%T Inspect=%q want=%q", tt.obj, got, tt.want)
		}
	}
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		raw  int32
		typ  typesys.Type
		want string
	}{
		{3, typesys.Number, "3"},
		{1, typesys.Bool, "True"},
		{0, typesys.Bool, "False"},
		{0, typesys.None, "None"},
		{0, typesys.ClassOf("C"), "None"},
		{8, typesys.ClassOf("C"), "<C object at 8>"},
		{5, typesys.Type{}, "5"},
	}
	for _, tt := range tests {
		if got := FromRaw(tt.raw, tt.typ).Inspect(); got != tt.want {
			t.Fatalf("FromRaw(%d, %s)=%q want=%q", tt.raw, tt.typ, got, tt.want)
		}
	}
}

func TestEnvironmentOperations(t *testing.T) {
	env := NewEnvironment()
	if env.Has("x") {
		t.Fatalf("expected missing x")
	}
	if env.Set("x", 1) {
		t.Fatalf("set should fail for undeclared x")
	}

	env.Declare("x", 4)
	if v, ok := env.Get("x"); !ok || v != 4 {
		t.Fatalf("Get(x)=%d,%v", v, ok)
	}
	if !env.Set("x", 9) {
		t.Fatalf("set should update x")
	}
	if v, _ := env.Get("x"); v != 9 {
		t.Fatalf("x not updated")
	}

	other := NewEnvironment()
	if other.Has("x") {
		t.Fatalf("environments must not share slots")
	}
}
