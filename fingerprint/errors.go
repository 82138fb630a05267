package fingerprint

import (
	"fmt"

	"github.com/chazu/dexpatch/dalvik"
)

// PatternNotFoundError reports that an instruction pattern did not match
// anywhere in a method body.
type PatternNotFoundError struct {
	Pattern string
	Method  dalvik.MethodRef
}

func (e *PatternNotFoundError) Error() string {
	return fmt.Sprintf("pattern %q not found in %s", e.Pattern, e.Method.Descriptor())
}

// MethodNotFoundError reports that no method satisfied a fingerprint.
type MethodNotFoundError struct {
	Fingerprint string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("no method matches fingerprint %q", e.Fingerprint)
}
