package fingerprint

import (
	"errors"
	"testing"

	"github.com/chazu/dexpatch/dalvik"
)

const (
	stateType   = "Lcom/amazon/avod/media/ads/internal/state/ServerInsertedAdBreakState;"
	triggerType = "Lcom/amazon/avod/media/ads/internal/state/AdBreakTrigger;"
)

func testClassSet() *dalvik.ClassSet {
	state := &dalvik.Class{Type: stateType, AccessFlags: dalvik.AccPublic}
	state.AddMethod(&dalvik.Method{
		Ref:         dalvik.MethodRef{Name: "<init>", ReturnType: "V"},
		AccessFlags: dalvik.AccPublic | dalvik.AccConstructor,
		Implementation: dalvik.NewImplementation(1,
			dalvik.Instruction{Opcode: dalvik.OpInvokeDirect, Registers: []uint16{0}, Ref: dalvik.MethodRef{DefiningClass: "Ljava/lang/Object;", Name: "<init>", ReturnType: "V"}},
			dalvik.Instruction{Opcode: dalvik.OpReturnVoid},
		),
	})
	state.AddMethod(&dalvik.Method{
		Ref:            dalvik.MethodRef{Name: "enter", Parameters: []string{triggerType}, ReturnType: "V"},
		AccessFlags:    dalvik.AccPublic,
		Implementation: dalvik.NewImplementation(5, enterBody()...),
	})

	trigger := &dalvik.Class{Type: triggerType, AccessFlags: dalvik.AccPublic | dalvik.AccInterface | dalvik.AccAbstract}
	trigger.AddMethod(&dalvik.Method{
		Ref:         dalvik.MethodRef{Name: "getSeekStartPosition", ReturnType: "J"},
		AccessFlags: dalvik.AccPublic | dalvik.AccAbstract,
	})

	logger := &dalvik.Class{Type: "Lcom/amazon/avod/util/Log;"}
	logger.AddMethod(&dalvik.Method{
		Ref:         dalvik.MethodRef{Name: "doTrigger", ReturnType: "V"},
		AccessFlags: dalvik.AccStatic,
		Implementation: dalvik.NewImplementation(1,
			dalvik.Instruction{Opcode: dalvik.OpConstString, Registers: []uint16{0}, Ref: dalvik.StringRef{Value: "triggered"}},
			dalvik.Instruction{Opcode: dalvik.OpReturnVoid},
		),
	})

	return dalvik.NewClassSet(state, trigger, logger)
}

func TestMethodFingerprintResolve(t *testing.T) {
	tests := []struct {
		name      string
		fp        MethodFingerprint
		wantClass string
		wantName  string
	}{
		{
			"by class suffix and name",
			MethodFingerprint{DefiningClass: "/ServerInsertedAdBreakState;", MethodName: "enter"},
			stateType, "enter",
		},
		{
			"by parameter prefix",
			MethodFingerprint{Parameters: []string{"Lcom/amazon/avod/media/ads/internal/state/AdBreak"}},
			stateType, "enter",
		},
		{
			"by opcodes with wildcard",
			MethodFingerprint{Opcodes: []dalvik.Opcode{dalvik.OpInvokeVirtual, OpAny, dalvik.OpReturnVoid}},
			stateType, "enter",
		},
		{
			"by string",
			MethodFingerprint{Strings: []string{"triggered"}},
			"Lcom/amazon/avod/util/Log;", "doTrigger",
		},
		{
			"by access flags and return type",
			MethodFingerprint{AccessFlags: dalvik.AccAbstract, ReturnType: "J"},
			triggerType, "getSeekStartPosition",
		},
		{
			"first match wins",
			MethodFingerprint{ReturnType: "V"},
			stateType, "<init>",
		},
		{
			"custom",
			MethodFingerprint{Custom: func(c *dalvik.Class, m *dalvik.Method) bool {
				return c.AccessFlags.Has(dalvik.AccInterface)
			}},
			triggerType, "getSeekStartPosition",
		},
	}
	cs := testClassSet()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m, err := tt.fp.Resolve(cs)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if c.Type != tt.wantClass || m.Ref.Name != tt.wantName {
				t.Errorf("Resolve = %s, want %s->%s", m, tt.wantClass, tt.wantName)
			}
		})
	}
}

func TestMethodFingerprintMatchIndex(t *testing.T) {
	cs := testClassSet()
	c, _ := cs.Class(stateType)
	enter, _ := c.Method("enter")

	fp := MethodFingerprint{Opcodes: []dalvik.Opcode{dalvik.OpInvokeVirtual, dalvik.OpMoveResultObject}}
	if idx, ok := fp.Match(c, enter); !ok || idx != 2 {
		t.Errorf("Match = %d, %v; want 2, true", idx, ok)
	}
	if idx, ok := (&MethodFingerprint{MethodName: "enter"}).Match(c, enter); !ok || idx != -1 {
		t.Errorf("Match without opcodes = %d, %v; want -1, true", idx, ok)
	}
}

func TestMethodFingerprintNeedsBodyForOpcodes(t *testing.T) {
	cs := testClassSet()
	fp := MethodFingerprint{MethodName: "getSeekStartPosition", Opcodes: []dalvik.Opcode{OpAny}}
	if _, _, err := fp.Resolve(cs); err == nil {
		t.Error("an abstract method cannot match an opcode outline")
	}
}

func TestMethodFingerprintNotFound(t *testing.T) {
	fp := MethodFingerprint{Name: "doTrigger", MethodName: "doTrigger", Parameters: []string{}}
	_, _, err := fp.Resolve(testClassSet())
	if err != nil {
		t.Fatalf("empty parameter list should match doTrigger(): %v", err)
	}

	fp = MethodFingerprint{Name: "missing", MethodName: "doTrigger", Strings: []string{"absent"}}
	_, _, err = fp.Resolve(testClassSet())
	var mnf *MethodNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("Resolve error = %v, want MethodNotFoundError", err)
	}
	if mnf.Fingerprint != "missing" {
		t.Errorf("Fingerprint = %q, want missing", mnf.Fingerprint)
	}
}

func TestMethodFingerprintString(t *testing.T) {
	fp := MethodFingerprint{MethodName: "enter", Opcodes: []dalvik.Opcode{dalvik.OpNop, OpAny}}
	if got := fp.String(); got != "name enter, opcodes nop *" {
		t.Errorf("String() = %q", got)
	}
	if got := (&MethodFingerprint{}).String(); got != "any method" {
		t.Errorf("String() = %q", got)
	}
}
