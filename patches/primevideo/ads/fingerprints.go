package ads

import (
	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/fingerprint"
)

const (
	stateBaseType    = "Lcom/amazon/avod/fsm/StateBase;"
	adBreakStateType = "Lcom/amazon/avod/media/ads/internal/state/ServerInsertedAdBreakState;"
	adBreakTrigger   = "Lcom/amazon/avod/media/ads/internal/state/AdBreakTrigger;"
	videoPlayerType  = "Lcom/amazon/avod/media/playback/VideoPlayer;"
	fsmTrigger       = "Lcom/amazon/avod/fsm/Trigger;"

	extensionClass = "Lapp/revanced/extension/primevideo/ads/SkipAdsPatch;"
)

// doTriggerFingerprint finds the state machine's protected transition hook.
var doTriggerFingerprint = &fingerprint.MethodFingerprint{
	Name:          "doTrigger",
	DefiningClass: stateBaseType,
	MethodName:    "doTrigger",
	ReturnType:    "V",
	Parameters:    []string{fsmTrigger},
}

// enterFingerprint finds ServerInsertedAdBreakState.enter(AdBreakTrigger).
var enterFingerprint = &fingerprint.MethodFingerprint{
	Name:          "ServerInsertedAdBreakState.enter",
	DefiningClass: adBreakStateType,
	MethodName:    "enter",
	ReturnType:    "V",
	Parameters:    []string{adBreakTrigger},
	AccessFlags:   dalvik.AccPublic,
}

// primaryPlayer matches the accessor call that yields the video player and
// captures the register the result lands in. Newer builds prepend setup
// code to enter, so the call is located by shape rather than by index.
var primaryPlayer = fingerprint.Sequence("primary player",
	fingerprint.Invokes(dalvik.OpInvokeVirtual, fingerprint.Named("getPrimaryPlayer").Returning(videoPlayerType)),
	fingerprint.Op(dalvik.OpMoveResultObject).CaptureA("player"),
)
