package patch

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/dexpatch/dalvik"
)

// enterMethod is a five-instruction body with a branch:
//
//	0 iget-object v0, p0, player
//	1 if-eqz v0, :cond_0
//	2 invoke-virtual {v0}, stop()V
//	3 nop
//	4 return-void        (:cond_0)
func enterMethod() *dalvik.Method {
	cond := dalvik.NewLabel("cond_0")
	m := &dalvik.Method{
		Ref:         dalvik.MethodRef{DefiningClass: "Lcom/example/State;", Name: "enter", Parameters: []string{"Lcom/example/Trigger;"}, ReturnType: "V"},
		AccessFlags: dalvik.AccPublic,
		Implementation: dalvik.NewImplementation(4,
			dalvik.Instruction{Opcode: dalvik.OpIgetObject, Registers: []uint16{0, 2}, Ref: dalvik.FieldRef{DefiningClass: "Lcom/example/State;", Name: "player", Type: "Lcom/example/Player;"}},
			dalvik.Instruction{Opcode: dalvik.OpIfEqz, Registers: []uint16{0}, Target: cond},
			dalvik.Instruction{Opcode: dalvik.OpInvokeVirtual, Registers: []uint16{0}, Ref: dalvik.MethodRef{DefiningClass: "Lcom/example/Player;", Name: "stop", ReturnType: "V"}},
			dalvik.Instruction{Opcode: dalvik.OpNop},
			dalvik.Instruction{Opcode: dalvik.OpReturnVoid, Labels: []*dalvik.Label{cond}},
		),
	}
	return m
}

func opcodes(m *dalvik.Method) []dalvik.Opcode {
	var ops []dalvik.Opcode
	for _, ins := range m.Implementation.Instructions {
		ops = append(ops, ins.Opcode)
	}
	return ops
}

func TestInsertAt(t *testing.T) {
	m := enterMethod()
	before := opcodes(m)
	block := []dalvik.Instruction{
		{Opcode: dalvik.OpConst4, Registers: []uint16{1}, Literal: 1},
		{Opcode: dalvik.OpReturnVoid},
	}

	if err := InsertAt(m, 4, block); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	got := opcodes(m)
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if diff := cmp.Diff(before[:4], got[:4]); diff != "" {
		t.Errorf("prefix changed (-want +got):\n%s", diff)
	}
	if got[4] != dalvik.OpConst4 || got[5] != dalvik.OpReturnVoid {
		t.Errorf("inserted block = %v", got[4:6])
	}
	if got[6] != before[4] {
		t.Errorf("old index 4 is now %v, want %v", got[6], before[4])
	}

	// The branch still reaches the labelled instruction, now at 6.
	impl := m.Implementation
	if idx := impl.LabelIndex(impl.At(1).Target); idx != 6 {
		t.Errorf("if-eqz target at %d, want 6", idx)
	}
}

func TestInsertAtBoundaries(t *testing.T) {
	nop := []dalvik.Instruction{{Opcode: dalvik.OpNop}}

	m := enterMethod()
	if err := InsertAt(m, 0, nop); err != nil {
		t.Fatalf("InsertAt(0): %v", err)
	}
	if m.Implementation.At(0).Opcode != dalvik.OpNop || m.Implementation.Len() != 6 {
		t.Error("insert at 0 should prepend")
	}

	m = enterMethod()
	if err := InsertAt(m, 5, nop); err != nil {
		t.Fatalf("InsertAt(len): %v", err)
	}
	if m.Implementation.At(5).Opcode != dalvik.OpNop {
		t.Error("insert at len should append")
	}

	m = enterMethod()
	if err := InsertAt(m, 2, nil); err != nil {
		t.Fatalf("InsertAt(empty): %v", err)
	}
	if m.Implementation.Len() != 5 {
		t.Error("inserting an empty block should not change the body")
	}
}

func TestInsertAtErrors(t *testing.T) {
	m := enterMethod()
	before := opcodes(m)
	for _, idx := range []int{-1, 6} {
		err := InsertAt(m, idx, []dalvik.Instruction{{Opcode: dalvik.OpNop}})
		var oob *dalvik.OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("InsertAt(%d) = %v, want OutOfBoundsError", idx, err)
		}
		if oob.Index != idx || oob.Len != 5 {
			t.Errorf("OutOfBoundsError = %+v", oob)
		}
	}
	if diff := cmp.Diff(before, opcodes(m)); diff != "" {
		t.Errorf("failed insert changed the body (-want +got):\n%s", diff)
	}

	abstract := &dalvik.Method{Ref: dalvik.MethodRef{DefiningClass: "Lcom/example/Trigger;", Name: "fire", ReturnType: "V"}, AccessFlags: dalvik.AccAbstract}
	var mb *dalvik.MissingBodyError
	if err := InsertAt(abstract, 0, nil); !errors.As(err, &mb) {
		t.Errorf("InsertAt(abstract) = %v, want MissingBodyError", err)
	}
}

func TestInsertText(t *testing.T) {
	m := enterMethod()
	if err := InsertText(m, 0, "const/4 v1, 0x0\ninvoke-static {p0, p1}, Lcom/example/Hook;->enter(Lcom/example/State;Lcom/example/Trigger;)V"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	ins := m.Implementation.At(1)
	if ins.Opcode != dalvik.OpInvokeStatic {
		t.Fatalf("At(1) = %v", ins.Opcode)
	}
	if diff := cmp.Diff([]uint16{2, 3}, ins.Registers); diff != "" {
		t.Errorf("registers (-want +got):\n%s", diff)
	}

	m = enterMethod()
	if err := InsertText(m, 0, "bogus v0"); err == nil {
		t.Error("InsertText should report assembly errors")
	}
	if m.Implementation.Len() != 5 {
		t.Error("failed InsertText changed the body")
	}

	// A block may branch to :cond_0 but not define it again.
	m = enterMethod()
	if err := InsertText(m, 0, ":cond_0\nnop"); err == nil {
		t.Error("InsertText should reject a label the method already has")
	}
	if err := InsertText(m, 0, "if-eqz v0, :cond_0"); err != nil {
		t.Errorf("InsertText branching to :cond_0: %v", err)
	}
	cond, _ := m.Implementation.LabelByName("cond_0")
	if m.Implementation.At(0).Target != cond {
		t.Error("inserted branch should target the existing :cond_0")
	}
}

func TestContextAssemble(t *testing.T) {
	m := enterMethod()
	ctx := NewContext(dalvik.NewClassSet(), nil)

	block, err := ctx.Assemble("return-object p1", m)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if diff := cmp.Diff([]uint16{3}, block[0].Registers); diff != "" {
		t.Errorf("registers (-want +got):\n%s", diff)
	}
	if m.Implementation.Len() != 5 {
		t.Error("Assemble changed the target body")
	}

	if _, err := ctx.Assemble("bogus v0", m); err == nil || !strings.Contains(err.Error(), "enter") {
		t.Errorf("Assemble error = %v, want one naming the target method", err)
	}
}

func TestSetAccessFlags(t *testing.T) {
	m := enterMethod()
	flags := m.AccessFlags.WithVisibility(dalvik.AccPublic) | dalvik.AccFinal
	SetAccessFlags(m, flags)
	SetAccessFlags(m, flags)
	if m.AccessFlags != dalvik.AccPublic|dalvik.AccFinal {
		t.Errorf("AccessFlags = %v", m.AccessFlags)
	}
}

func TestRemoveAt(t *testing.T) {
	m := enterMethod()
	if err := RemoveAt(m, 2, 2); err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	want := []dalvik.Opcode{dalvik.OpIgetObject, dalvik.OpIfEqz, dalvik.OpReturnVoid}
	if diff := cmp.Diff(want, opcodes(m)); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}

	m = enterMethod()
	if err := RemoveAt(m, 4, 1); err == nil {
		t.Error("removing a targeted instruction should fail")
	}
	if m.Implementation.Len() != 5 {
		t.Error("refused removal changed the body")
	}

	// Removing the branch together with its target is fine.
	m = enterMethod()
	if err := RemoveAt(m, 1, 4); err != nil {
		t.Errorf("RemoveAt(branch and target): %v", err)
	}

	for _, tt := range []struct{ index, count int }{
		{3, 3},
		{1, math.MaxInt},
		{math.MaxInt, 1},
		{-1, 1},
		{0, -1},
	} {
		m := enterMethod()
		var oob *dalvik.OutOfBoundsError
		if err := RemoveAt(m, tt.index, tt.count); !errors.As(err, &oob) {
			t.Errorf("RemoveAt(%d, %d) = %v, want OutOfBoundsError", tt.index, tt.count, err)
		}
		if m.Implementation.Len() != 5 {
			t.Errorf("RemoveAt(%d, %d) changed the body", tt.index, tt.count)
		}
	}
}

func TestReplaceAtMovesLabels(t *testing.T) {
	m := enterMethod()
	block := []dalvik.Instruction{
		{Opcode: dalvik.OpConst4, Registers: []uint16{0}, Literal: 0},
		{Opcode: dalvik.OpReturnVoid},
	}
	if err := ReplaceAt(m, 4, block); err != nil {
		t.Fatalf("ReplaceAt: %v", err)
	}
	impl := m.Implementation
	if impl.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", impl.Len())
	}
	if idx := impl.LabelIndex(impl.At(1).Target); idx != 4 {
		t.Errorf("if-eqz target at %d, want 4", idx)
	}
	if len(block[0].Labels) != 0 {
		t.Error("ReplaceAt modified the caller's block")
	}

	if err := ReplaceAt(m, 3, nil); err != nil {
		t.Fatalf("ReplaceAt(empty): %v", err)
	}
	if impl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", impl.Len())
	}
}
