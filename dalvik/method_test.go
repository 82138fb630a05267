package dalvik

import (
	"errors"
	"math"
	"testing"
)

func sampleMethod() *Method {
	return &Method{
		Ref: MethodRef{
			DefiningClass: "Lcom/example/Player;",
			Name:          "seek",
			Parameters:    []string{"J", "Ljava/lang/String;"},
			ReturnType:    "V",
		},
		AccessFlags: AccPublic,
		Implementation: NewImplementation(6,
			Instruction{Opcode: OpConst4, Registers: []uint16{0}, Literal: 1},
			Instruction{Opcode: OpReturnVoid},
		),
	}
}

func TestMethodRefDescriptor(t *testing.T) {
	m := sampleMethod()
	want := "Lcom/example/Player;->seek(JLjava/lang/String;)V"
	if got := m.Ref.Descriptor(); got != want {
		t.Errorf("Descriptor() = %q, want %q", got, want)
	}
	if got := m.Ref.Signature(); got != "seek(JLjava/lang/String;)V" {
		t.Errorf("Signature() = %q", got)
	}
}

func TestMethodRefEquality(t *testing.T) {
	a := MethodRef{DefiningClass: "LA;", Name: "run", Parameters: []string{"I"}, ReturnType: "V"}
	b := MethodRef{DefiningClass: "LB;", Name: "run", Parameters: []string{"I"}, ReturnType: "V"}
	c := MethodRef{DefiningClass: "LA;", Name: "run", Parameters: []string{"J"}, ReturnType: "V"}

	if !a.Equal(b) {
		t.Error("Equal should ignore the defining class")
	}
	if a.SameMethod(b) {
		t.Error("SameMethod should compare the defining class")
	}
	if a.Equal(c) {
		t.Error("Equal should compare parameters")
	}
}

func TestParameterRegisters(t *testing.T) {
	m := sampleMethod()
	// this + J (2) + String (1)
	if got := m.ParameterRegisters(); got != 4 {
		t.Errorf("ParameterRegisters() = %d, want 4", got)
	}

	tests := []struct {
		p    int
		want int
	}{
		{0, 2}, // this
		{1, 3}, // J low half
		{3, 5}, // String
	}
	for _, tt := range tests {
		got, err := m.ParameterRegister(tt.p)
		if err != nil {
			t.Fatalf("ParameterRegister(%d): %v", tt.p, err)
		}
		if got != tt.want {
			t.Errorf("ParameterRegister(%d) = v%d, want v%d", tt.p, got, tt.want)
		}
	}
	if _, err := m.ParameterRegister(4); err == nil {
		t.Error("ParameterRegister(4) should fail")
	}

	m.AccessFlags |= AccStatic
	if got := m.ParameterRegisters(); got != 3 {
		t.Errorf("static ParameterRegisters() = %d, want 3", got)
	}
}

func TestParameterRegisterSmallFrame(t *testing.T) {
	m := sampleMethod()
	m.Implementation.Registers = 3 // needs 4
	for p := range 4 {
		if r, err := m.ParameterRegister(p); err == nil {
			t.Errorf("ParameterRegister(%d) = v%d, want error for a 3-register frame", p, r)
		}
	}
}

func TestMissingBody(t *testing.T) {
	m := sampleMethod()
	m.Implementation = nil

	_, err := m.Body()
	var mbe *MissingBodyError
	if !errors.As(err, &mbe) {
		t.Fatalf("Body() error = %v, want MissingBodyError", err)
	}
	if !mbe.Method.SameMethod(m.Ref) {
		t.Errorf("error names %s, want %s", mbe.Method, m.Ref)
	}
	if _, err := m.ParameterRegister(0); !errors.As(err, &mbe) {
		t.Errorf("ParameterRegister without body = %v, want MissingBodyError", err)
	}
}

func TestSplice(t *testing.T) {
	impl := NewImplementation(2,
		Instruction{Opcode: OpNop},
		Instruction{Opcode: OpReturnVoid},
	)
	block := []Instruction{{Opcode: OpConst4, Registers: []uint16{0}}}
	impl.Splice(1, 0, block)
	block[0].Opcode = OpNop // caller's slice must not alias the arena

	if impl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", impl.Len())
	}
	if impl.At(1).Opcode != OpConst4 {
		t.Errorf("At(1) = %s, want const/4", impl.At(1).Opcode)
	}

	impl.Splice(0, 2, nil)
	if impl.Len() != 1 || impl.At(0).Opcode != OpReturnVoid {
		t.Errorf("after removal: %v", impl.Instructions)
	}
}

func TestSplicePanicsOutOfRange(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Splice past the end should panic")
		}
	}()
	NewImplementation(0).Splice(1, 0, nil)
}

func TestSplicePanicsOnOverflow(t *testing.T) {
	impl := NewImplementation(0, Instruction{Opcode: OpNop}, Instruction{Opcode: OpReturnVoid})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Splice with a huge count should panic")
		}
		if _, ok := r.(string); !ok {
			t.Errorf("panic = %v, want the Splice range message", r)
		}
	}()
	impl.Splice(1, math.MaxInt, nil)
}

func TestLabels(t *testing.T) {
	target := NewLabel("cond_0")
	impl := NewImplementation(1,
		Instruction{Opcode: OpIfEqz, Registers: []uint16{0}, Target: target},
		Instruction{Opcode: OpNop},
		Instruction{Opcode: OpReturnVoid, Labels: []*Label{target}},
	)
	if got := impl.LabelIndex(target); got != 2 {
		t.Errorf("LabelIndex() = %d, want 2", got)
	}
	impl.Splice(1, 0, []Instruction{{Opcode: OpNop}, {Opcode: OpNop}})
	if got := impl.LabelIndex(target); got != 4 {
		t.Errorf("LabelIndex() after insert = %d, want 4", got)
	}
	if l, ok := impl.LabelByName("cond_0"); !ok || l != target {
		t.Error("LabelByName should find cond_0")
	}
	if impl.LabelIndex(NewLabel("cond_0")) != -1 {
		t.Error("labels compare by identity, not name")
	}
}

func TestClassSetCloneRestore(t *testing.T) {
	cls := &Class{Type: "Lcom/example/Player;", AccessFlags: AccPublic}
	cls.AddMethod(sampleMethod())
	cs := NewClassSet(cls)

	snapshot := cs.Clone()
	m, ok := cs.LookupMethod(MethodRef{DefiningClass: "Lcom/example/Player;", Name: "seek", Parameters: []string{"J", "Ljava/lang/String;"}, ReturnType: "V"})
	if !ok {
		t.Fatal("LookupMethod failed")
	}
	m.AccessFlags = AccPrivate
	m.Implementation.Splice(0, 1, nil)

	cs.Restore(snapshot)
	c, _ := cs.Class("Lcom/example/Player;")
	restored, _ := c.Method("seek")
	if restored.AccessFlags != AccPublic {
		t.Errorf("restored flags = %s, want public", restored.AccessFlags)
	}
	if restored.Implementation.Len() != 2 {
		t.Errorf("restored body has %d instructions, want 2", restored.Implementation.Len())
	}
}

func TestClassSetDuplicate(t *testing.T) {
	cs := NewClassSet(&Class{Type: "LA;"})
	if err := cs.Add(&Class{Type: "LA;"}); err == nil {
		t.Error("Add should reject duplicate classes")
	}
	if cs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cs.Len())
	}
}

func TestClassSetMethodsOrder(t *testing.T) {
	a := &Class{Type: "LA;"}
	a.AddMethod(&Method{Ref: MethodRef{Name: "one", ReturnType: "V"}})
	a.AddMethod(&Method{Ref: MethodRef{Name: "two", ReturnType: "V"}})
	b := &Class{Type: "LB;"}
	b.AddMethod(&Method{Ref: MethodRef{Name: "three", ReturnType: "V"}})
	cs := NewClassSet(a, b)

	var names []string
	for c, m := range cs.Methods() {
		names = append(names, c.Type+m.Ref.Name)
	}
	want := []string{"LA;one", "LA;two", "LB;three"}
	if len(names) != len(want) {
		t.Fatalf("Methods() yielded %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Methods()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
