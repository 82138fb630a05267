// Package patches lists the patches bundled with dexpatch.
package patches

import (
	"github.com/chazu/dexpatch/patch"
	"github.com/chazu/dexpatch/patches/primevideo/ads"
)

// All returns a fresh slice of every bundled patch, in the order a run
// applies them.
func All() []*patch.Patch {
	return []*patch.Patch{
		ads.SkipAds(),
	}
}

// Lookup returns the bundled patch with the given name.
func Lookup(name string) (*patch.Patch, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
