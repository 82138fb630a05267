package ads

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/dexpatch/container"
	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/fingerprint"
	"github.com/chazu/dexpatch/patch"
)

const contextType = "Lcom/amazon/avod/media/ads/internal/state/AdBreakStateContext;"

func getPrimaryPlayer() dalvik.MethodRef {
	return dalvik.MethodRef{DefiningClass: contextType, Name: "getPrimaryPlayer", ReturnType: videoPlayerType}
}

// appClassSet models the two classes the patch touches. enter has six
// registers, so p0 is v4 and p1 is v5; the player lands in v1.
func appClassSet(body ...dalvik.Instruction) *dalvik.ClassSet {
	base := &dalvik.Class{Type: stateBaseType, AccessFlags: dalvik.AccPublic | dalvik.AccAbstract}
	base.AddMethod(&dalvik.Method{
		Ref:         dalvik.MethodRef{Name: "doTrigger", Parameters: []string{fsmTrigger}, ReturnType: "V"},
		AccessFlags: dalvik.AccProtected | dalvik.AccFinal,
		Implementation: dalvik.NewImplementation(2,
			dalvik.Instruction{Opcode: dalvik.OpReturnVoid},
		),
	})

	state := &dalvik.Class{Type: adBreakStateType, AccessFlags: dalvik.AccPublic, SuperClass: stateBaseType}
	state.AddMethod(&dalvik.Method{
		Ref:            dalvik.MethodRef{Name: "enter", Parameters: []string{adBreakTrigger}, ReturnType: "V"},
		AccessFlags:    dalvik.AccPublic,
		Implementation: dalvik.NewImplementation(6, body...),
	})
	return dalvik.NewClassSet(base, state)
}

func enterBody() []dalvik.Instruction {
	return []dalvik.Instruction{
		{Opcode: dalvik.OpIgetObject, Registers: []uint16{0, 4}, Ref: dalvik.FieldRef{DefiningClass: adBreakStateType, Name: "context", Type: contextType}},
		{Opcode: dalvik.OpInvokeVirtual, Registers: []uint16{0}, Ref: getPrimaryPlayer()},
		{Opcode: dalvik.OpMoveResultObject, Registers: []uint16{1}},
		{Opcode: dalvik.OpInvokeInterface, Registers: []uint16{1}, Ref: dalvik.MethodRef{DefiningClass: videoPlayerType, Name: "pause", ReturnType: "V"}},
		{Opcode: dalvik.OpReturnVoid},
	}
}

func methods(t *testing.T, cs *dalvik.ClassSet) (doTrigger, enter *dalvik.Method) {
	t.Helper()
	base, _ := cs.Class(stateBaseType)
	state, _ := cs.Class(adBreakStateType)
	doTrigger, ok1 := base.Method("doTrigger")
	enter, ok2 := state.Method("enter")
	if !ok1 || !ok2 {
		t.Fatal("fixture methods missing")
	}
	return doTrigger, enter
}

func TestSkipAds(t *testing.T) {
	cs := appClassSet(enterBody()...)
	if err := SkipAds().Execute(patch.NewContext(cs, nil)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	doTrigger, enter := methods(t, cs)

	if doTrigger.AccessFlags != dalvik.AccPublic {
		t.Errorf("doTrigger flags = %v, want public", doTrigger.AccessFlags)
	}

	impl := enter.Implementation
	if impl.Len() != 7 {
		t.Fatalf("enter has %d instructions, want 7", impl.Len())
	}
	call := impl.At(3)
	if call.Opcode != dalvik.OpInvokeStatic {
		t.Fatalf("At(3) = %v, want invoke-static", call.Opcode)
	}
	if diff := cmp.Diff([]uint16{4, 5, 1}, call.Registers); diff != "" {
		t.Errorf("call registers (-want +got):\n%s", diff)
	}
	want := dalvik.MethodRef{
		DefiningClass: extensionClass,
		Name:          "enterServerInsertedAdBreakState",
		Parameters:    []string{adBreakStateType, adBreakTrigger, videoPlayerType},
		ReturnType:    "V",
	}
	if ref, _ := call.MethodRef(); !ref.Equal(want) {
		t.Errorf("call ref = %s, want %s", ref.Descriptor(), want.Descriptor())
	}
	if impl.At(4).Opcode != dalvik.OpReturnVoid {
		t.Errorf("At(4) = %v, want return-void", impl.At(4).Opcode)
	}
	if impl.At(5).Opcode != dalvik.OpInvokeInterface {
		t.Errorf("original code should follow the injected block, At(5) = %v", impl.At(5).Opcode)
	}
}

func TestSkipAdsWithSetupPrefix(t *testing.T) {
	prefix := []dalvik.Instruction{
		{Opcode: dalvik.OpCheckCast, Registers: []uint16{5}, Ref: dalvik.TypeRef{Descriptor: adBreakTrigger}},
		{Opcode: dalvik.OpConst4, Registers: []uint16{2}, Literal: 1},
	}
	cs := appClassSet(append(prefix, enterBody()...)...)
	if err := SkipAds().Execute(patch.NewContext(cs, nil)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	_, enter := methods(t, cs)
	if op := enter.Implementation.At(5).Opcode; op != dalvik.OpInvokeStatic {
		t.Errorf("At(5) = %v, want invoke-static", op)
	}
}

func TestSkipAdsPatternMissing(t *testing.T) {
	body := enterBody()
	body[2] = dalvik.Instruction{Opcode: dalvik.OpNop}
	cs := appClassSet(body...)

	err := SkipAds().Execute(patch.NewContext(cs, nil))
	var pnf *fingerprint.PatternNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("Execute error = %v, want PatternNotFoundError", err)
	}

	doTrigger, enter := methods(t, cs)
	if doTrigger.AccessFlags != dalvik.AccProtected|dalvik.AccFinal {
		t.Errorf("doTrigger flags changed to %v", doTrigger.AccessFlags)
	}
	if enter.Implementation.Len() != 5 {
		t.Errorf("enter changed to %d instructions", enter.Implementation.Len())
	}
}

func TestSkipAdsMissingBody(t *testing.T) {
	cs := appClassSet()
	_, enter := methods(t, cs)
	enter.Implementation = nil

	// Without a body enter still resolves by signature, then fails.
	var mb *dalvik.MissingBodyError
	if err := SkipAds().Execute(patch.NewContext(cs, nil)); !errors.As(err, &mb) {
		t.Errorf("Execute error = %v, want MissingBodyError", err)
	}
}

func TestSkipAdsThroughRunner(t *testing.T) {
	cs := appClassSet(enterBody()...)
	runner := patch.NewRunner(patch.Options{Package: "com.amazon.avod.thirdpartyclient", Version: "3.0.438.2347"})
	report := runner.Run(cs, []*patch.Patch{SkipAds()})
	if !report.OK() {
		t.Fatalf("run failed: %v", report.Failed())
	}

	var got []string
	for _, ch := range report.Changes {
		got = append(got, ch.String())
	}
	want := []string{
		"modified " + stateBaseType + "->doTrigger(" + fsmTrigger + ")V",
		"modified " + adBreakStateType + "->enter(" + adBreakTrigger + ")V",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}

	// The patched set survives a snapshot round trip.
	data, err := container.Marshal(cs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := container.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	report = patch.NewRunner(patch.Options{Package: "com.amazon.avod.thirdpartyclient", Version: "1.0"}).Run(appClassSet(enterBody()...), []*patch.Patch{SkipAds()})
	if res, _ := report.Result("Skip ads"); res.Status != patch.StatusSkipped {
		t.Errorf("unsupported version: status = %v, want skipped", res.Status)
	}
}
