// Package ads skips the server-inserted ad breaks of the Prime Video client.
//
// ServerInsertedAdBreakState.enter normally plays every clip of an ad break.
// The patch hands control to the extension as soon as the primary video
// player is known, and the extension seeks over the break and resets the
// state machine through doTrigger.
package ads

import (
	"fmt"

	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/patch"
)

// SkipAds returns the "Skip ads" patch.
func SkipAds() *patch.Patch {
	return &patch.Patch{
		Name:        "Skip ads",
		Description: "Automatically skips video stream ads.",
		Compatibility: []patch.Compatibility{
			{Package: "com.amazon.avod.thirdpartyclient", Versions: []string{"3.0.412.2947", "3.0.438.2347"}},
		},
		Execute: execute,
	}
}

func execute(ctx *patch.Context) error {
	doTrigger, err := ctx.Resolve(doTriggerFingerprint)
	if err != nil {
		return err
	}
	enter, err := ctx.Resolve(enterFingerprint)
	if err != nil {
		return err
	}

	// Locate everything before editing so a miss leaves both methods alone.
	match, err := primaryPlayer.FindIn(enter)
	if err != nil {
		return err
	}
	player, ok := match.Register("player")
	if !ok {
		return fmt.Errorf("%s: no player register captured", primaryPlayer)
	}

	// p0 is the state, p1 the trigger.
	src := fmt.Sprintf(`invoke-static {p0, p1, v%d}, %s->enterServerInsertedAdBreakState(%s%s%s)V
return-void`, player, extensionClass, adBreakStateType, adBreakTrigger, videoPlayerType)
	block, err := ctx.Assemble(src, enter)
	if err != nil {
		return err
	}

	// The extension calls doTrigger from outside the class hierarchy. The
	// whole bitset is replaced, so final and other modifiers are dropped.
	patch.SetAccessFlags(doTrigger, dalvik.AccPublic)

	index := match.Index + 2
	if err := patch.InsertAt(enter, index, block); err != nil {
		return err
	}
	ctx.Log.Infof("inserted ad skip at %s index %d, player in v%d", enter.Ref.Descriptor(), index, player)
	return nil
}
