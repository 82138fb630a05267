// Package patch edits method bodies and runs named patches against a class
// set.
//
// The edit primitives ([InsertAt], [SetAccessFlags], [RemoveAt],
// [ReplaceAt], [InsertText]) change one method in place. A [Patch] combines
// fingerprint lookups with those edits; a [Runner] applies a list of
// patches, rolling back any patch that fails.
package patch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/fingerprint"
	"github.com/chazu/dexpatch/smali"
)

// Compatibility names an app package and the versions a patch was built
// against. No versions means every version.
type Compatibility struct {
	Package  string
	Versions []string
}

func (c Compatibility) String() string {
	if len(c.Versions) == 0 {
		return c.Package
	}
	return c.Package + " (" + strings.Join(c.Versions, ", ") + ")"
}

// Patch is a named modification of a class set.
type Patch struct {
	Name        string
	Description string

	// Compatibility lists supported targets. An empty list means the patch
	// applies to any app.
	Compatibility []Compatibility

	// Execute performs the patch. Returning an error makes the runner roll
	// back every change Execute made.
	Execute func(ctx *Context) error
}

// CompatibleWith reports whether the patch supports pkg at version.
func (p *Patch) CompatibleWith(pkg, version string) bool {
	if len(p.Compatibility) == 0 {
		return true
	}
	for _, c := range p.Compatibility {
		if c.Package != pkg {
			continue
		}
		if len(c.Versions) == 0 || slices.Contains(c.Versions, version) {
			return true
		}
	}
	return false
}

// IncompatibleError reports a patch that does not support the target app.
type IncompatibleError struct {
	Patch   string
	Package string
	Version string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("patch %q is not compatible with %s %s", e.Patch, e.Package, e.Version)
}

// ---------------------------------------------------------------------------
// Context
// ---------------------------------------------------------------------------

// Context is what a patch sees while it executes.
type Context struct {
	Classes *dalvik.ClassSet
	Log     commonlog.Logger
}

// NewContext creates a context over cs. A nil logger discards messages.
func NewContext(cs *dalvik.ClassSet, log commonlog.Logger) *Context {
	if log == nil {
		log = commonlog.MOCK_LOGGER
	}
	return &Context{Classes: cs, Log: log}
}

// Resolve finds the method a fingerprint describes.
func (ctx *Context) Resolve(fp *fingerprint.MethodFingerprint) (*dalvik.Method, error) {
	c, m, err := fp.Resolve(ctx.Classes)
	if err != nil {
		return nil, err
	}
	ctx.Log.Debugf("fingerprint %s resolved to %s in %s", fp, m.Ref.Signature(), c.Type)
	return m, nil
}

// Assemble compiles smali text for insertion into m without touching m.
func (ctx *Context) Assemble(src string, m *dalvik.Method) ([]dalvik.Instruction, error) {
	block, err := smali.Assemble(src, m)
	if err != nil {
		return nil, fmt.Errorf("assemble for %s: %w", m.Ref.Descriptor(), err)
	}
	return block, nil
}
