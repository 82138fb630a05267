package smali

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/dexpatch/dalvik"
)

func TestFormat(t *testing.T) {
	target := dalvik.NewLabel("cond_0")
	tests := []struct {
		ins  dalvik.Instruction
		want string
	}{
		{dalvik.Instruction{Opcode: dalvik.OpReturnVoid}, "return-void"},
		{dalvik.Instruction{Opcode: dalvik.OpConst4, Registers: []uint16{0}, Literal: -1}, "const/4 v0, -0x1"},
		{dalvik.Instruction{Opcode: dalvik.OpMoveResultObject, Registers: []uint16{3}}, "move-result-object v3"},
		{dalvik.Instruction{Opcode: dalvik.OpIfEqz, Registers: []uint16{1}, Target: target}, "if-eqz v1, :cond_0"},
		{dalvik.Instruction{Opcode: dalvik.OpConstString, Registers: []uint16{0}, Ref: dalvik.StringRef{Value: "a\"b\n"}}, `const-string v0, "a\"b\n"`},
		{
			dalvik.Instruction{
				Opcode:    dalvik.OpInvokeVirtual,
				Registers: []uint16{4},
				Ref:       dalvik.MethodRef{DefiningClass: "LFoo;", Name: "getPrimaryPlayer", ReturnType: "LBar;"},
			},
			"invoke-virtual {v4}, LFoo;->getPrimaryPlayer()LBar;",
		},
		{
			dalvik.Instruction{
				Opcode:    dalvik.OpInvokeStaticRange,
				Registers: []uint16{2, 3, 4},
				Ref:       dalvik.MethodRef{DefiningClass: "LFoo;", Name: "f", Parameters: []string{"I", "I", "I"}, ReturnType: "V"},
			},
			"invoke-static/range {v2 .. v4}, LFoo;->f(III)V",
		},
	}
	for _, tt := range tests {
		if got := Format(tt.ins); got != tt.want {
			t.Errorf("Format(%s) = %q, want %q", tt.ins.Opcode, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("é😀"); got != `"\u00e9\ud83d\ude00"` {
		t.Errorf("Quote = %s", got)
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	m := enterMethod()
	text := Disassemble(m)

	if !strings.HasPrefix(text, ".method public enter(") {
		t.Errorf("header = %q", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, "    :cond_0\n    return-void\n") {
		t.Errorf("label should precede the instruction it marks:\n%s", text)
	}

	// Strip the method frame and reassemble the body.
	var body []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ".") {
			continue
		}
		body = append(body, line)
	}
	got, err := Assemble(strings.Join(body, "\n"), nil)
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}

	opts := cmp.Comparer(func(a, b *dalvik.Label) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Name == b.Name
	})
	if diff := cmp.Diff(m.Implementation.Instructions, got, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleAbstract(t *testing.T) {
	m := &dalvik.Method{
		Ref:         dalvik.MethodRef{Name: "run", ReturnType: "V"},
		AccessFlags: dalvik.AccPublic | dalvik.AccAbstract,
	}
	want := ".method public abstract run()V\n.end method\n"
	if got := Disassemble(m); got != want {
		t.Errorf("Disassemble = %q, want %q", got, want)
	}
}
