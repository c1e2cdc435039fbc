package meta

import (
	"testing"

	"deflow/internal/ir"
)

func indexedModule() *Module {
	m := &Module{
		Name: "m",
		Types: []*TypeDef{
			{
				Name: "Worker",
				Fields: []*FieldDef{
					{Token: 10, Name: "state", Type: "int32"},
					{Name: "label", Type: "string"}, // no token, name-only
				},
				Methods: []*MethodDef{
					{Token: 20, Name: "Run", Return: "void", Params: []string{"int32"}},
					{Token: 21, Name: "Make", Static: true, Return: "Worker"},
				},
			},
		},
	}
	m.Index()
	return m
}

// TestResolve_TokenThenName tests the two-step resolution strategy: token
// match first, full-name fallback for token-stripped references.
func TestResolve_TokenThenName(t *testing.T) {
	m := indexedModule()

	if f, ok := m.ResolveField(ir.Ref{Token: 10}); !ok || f.Name != "state" {
		t.Error("field resolution by token failed")
	}
	if f, ok := m.ResolveField(ir.Ref{Name: "Worker::label"}); !ok || f.Name != "label" {
		t.Error("field resolution by full name failed")
	}
	if _, ok := m.ResolveField(ir.Ref{Token: 99, Name: "Worker::nothing"}); ok {
		t.Error("unknown reference must not resolve")
	}
	if fn, ok := m.ResolveMethod(ir.Ref{Name: "Worker::Run"}); !ok || fn.Token != 20 {
		t.Error("method resolution by full name failed")
	}
}

// TestIndex_SetsDeclaring tests that back-references come from the index,
// not from the serialized payload.
func TestIndex_SetsDeclaring(t *testing.T) {
	m := indexedModule()
	f, _ := m.ResolveField(ir.Ref{Token: 10})
	if f.Declaring() == nil || f.Declaring().Name != "Worker" {
		t.Error("field declaring type not set by Index")
	}
	if f.FullName() != "Worker::state" {
		t.Errorf("FullName = %q, want Worker::state", f.FullName())
	}
}

// TestArgCount tests that instance methods count their receiver.
func TestArgCount(t *testing.T) {
	m := indexedModule()
	run, _ := m.ResolveMethod(ir.Ref{Token: 20})
	if run.ArgCount() != 2 {
		t.Errorf("instance method ArgCount = %d, want 2", run.ArgCount())
	}
	mk, _ := m.ResolveMethod(ir.Ref{Token: 21})
	if mk.ArgCount() != 0 {
		t.Errorf("static method ArgCount = %d, want 0", mk.ArgCount())
	}
}

func TestIsSyntheticName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"<>c__DisplayClass3_0", true},
		{"<PrivateImplementationDetails>", true},
		{"\u0001\u0002\u0003", true},
		{"0123", true},
		{"Worker", false},
		{"c__gen", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsSyntheticName(tc.name); got != tc.want {
			t.Errorf("IsSyntheticName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsIntegerType(t *testing.T) {
	for _, name := range []string{"int32", "uint16", "bool", "char"} {
		if !IsIntegerType(name) {
			t.Errorf("IsIntegerType(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"int64", "string", "float32", "Worker"} {
		if IsIntegerType(name) {
			t.Errorf("IsIntegerType(%q) = true, want false", name)
		}
	}
}
