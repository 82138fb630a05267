package fingerprint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/dexpatch/dalvik"
)

// ---------------------------------------------------------------------------
// Steps
// ---------------------------------------------------------------------------

// Step matches a single instruction of a Sequence.
type Step struct {
	desc    string
	test    func(dalvik.Instruction) bool
	capture string
}

// Op matches any of the given opcodes.
func Op(ops ...dalvik.Opcode) Step {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return Step{
		desc: strings.Join(names, "|"),
		test: func(ins dalvik.Instruction) bool {
			return slices.Contains(ops, ins.Opcode)
		},
	}
}

// Invokes matches an invoke with the given opcode whose method reference
// satisfies mm.
func Invokes(op dalvik.Opcode, mm MethodMatcher) Step {
	return Step{
		desc: op.Name() + " " + mm.String(),
		test: func(ins dalvik.Instruction) bool {
			if ins.Opcode != op {
				return false
			}
			ref, ok := ins.MethodRef()
			return ok && mm.Matches(ref)
		},
	}
}

// ReferencesString matches an instruction that loads the given string.
func ReferencesString(s string) Step {
	return Step{
		desc: fmt.Sprintf("string %q", s),
		test: func(ins dalvik.Instruction) bool {
			v, ok := ins.StringValue()
			return ok && v == s
		},
	}
}

// ReferencesField matches an instruction that accesses a field with the
// given name and, if typ is non-empty, the given type.
func ReferencesField(name, typ string) Step {
	desc := "field " + name
	if typ != "" {
		desc += ":" + typ
	}
	return Step{
		desc: desc,
		test: func(ins dalvik.Instruction) bool {
			ref, ok := ins.FieldRef()
			return ok && ref.Name == name && (typ == "" || ref.Type == typ)
		},
	}
}

// Any matches every instruction.
func Any() Step {
	return Step{
		desc: "*",
		test: func(dalvik.Instruction) bool { return true },
	}
}

// Where matches instructions accepted by f.
func Where(desc string, f func(dalvik.Instruction) bool) Step {
	return Step{desc: desc, test: f}
}

// CaptureA returns a copy of the step that also captures register A of
// the matched instruction under name. Instructions without a register A
// do not match.
func (s Step) CaptureA(name string) Step {
	s.capture = name
	return s
}

// String describes the step.
func (s Step) String() string {
	if s.capture != "" {
		return s.desc + " -> " + s.capture
	}
	return s.desc
}

func (s Step) match(ins dalvik.Instruction, w *Window) bool {
	if s.test != nil && !s.test(ins) {
		return false
	}
	if s.capture != "" {
		r, ok := ins.RegisterA()
		if !ok {
			return false
		}
		w.Capture(s.capture, int(r))
	}
	return true
}

// ---------------------------------------------------------------------------
// Pattern
// ---------------------------------------------------------------------------

// Pattern is a named run of steps matched at consecutive positions.
type Pattern struct {
	Name  string
	Steps []Step
}

// Sequence builds a pattern from steps.
func Sequence(name string, steps ...Step) Pattern {
	return Pattern{Name: name, Steps: steps}
}

// Lookahead returns the offset of the last step from the first.
func (p Pattern) Lookahead() int {
	return len(p.Steps) - 1
}

// Predicate returns the pattern as a window predicate.
func (p Pattern) Predicate() Predicate {
	return func(w *Window) bool {
		for k, step := range p.Steps {
			ins, ok := w.At(k)
			if !ok || !step.match(ins, w) {
				return false
			}
		}
		return true
	}
}

// Find returns the first match of the pattern in seq.
func (p Pattern) Find(seq []dalvik.Instruction) (Match, bool) {
	return Find(seq, p.Predicate(), p.Lookahead())
}

// FindAll returns every non-overlapping match of the pattern in seq.
func (p Pattern) FindAll(seq []dalvik.Instruction) []Match {
	return FindAll(seq, p.Predicate(), p.Lookahead())
}

// FindIn searches the body of m. It fails with a MissingBodyError when m has
// no implementation and a PatternNotFoundError when nothing matches.
func (p Pattern) FindIn(m *dalvik.Method) (Match, error) {
	impl, err := m.Body()
	if err != nil {
		return Match{}, err
	}
	match, ok := p.Find(impl.Instructions)
	if !ok {
		return Match{}, &PatternNotFoundError{Pattern: p.String(), Method: m.Ref}
	}
	return match, nil
}

// String returns the pattern name, or its steps if unnamed.
func (p Pattern) String() string {
	if p.Name != "" {
		return p.Name
	}
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// ---------------------------------------------------------------------------
// Method matcher
// ---------------------------------------------------------------------------

// MethodMatcher matches method references by name, return type, parameters
// and defining class. Unset criteria match anything.
type MethodMatcher struct {
	name       string
	returnType string
	params     []string
	hasParams  bool
	definedIn  string
}

// Named starts a matcher for methods called name.
func Named(name string) MethodMatcher {
	return MethodMatcher{name: name}
}

// AnyMethod starts a matcher without a name constraint.
func AnyMethod() MethodMatcher {
	return MethodMatcher{}
}

// Returning requires the given return type descriptor.
func (mm MethodMatcher) Returning(typ string) MethodMatcher {
	mm.returnType = typ
	return mm
}

// WithParams requires exactly the given parameter types. WithParams() with
// no arguments requires a method without parameters.
func (mm MethodMatcher) WithParams(params ...string) MethodMatcher {
	mm.params = slices.Clone(params)
	mm.hasParams = true
	return mm
}

// DefinedIn requires the given defining class.
func (mm MethodMatcher) DefinedIn(class string) MethodMatcher {
	mm.definedIn = class
	return mm
}

// Matches reports whether ref satisfies every set criterion.
func (mm MethodMatcher) Matches(ref dalvik.MethodRef) bool {
	switch {
	case mm.name != "" && ref.Name != mm.name:
		return false
	case mm.returnType != "" && ref.ReturnType != mm.returnType:
		return false
	case mm.definedIn != "" && ref.DefiningClass != mm.definedIn:
		return false
	case mm.hasParams && !slices.Equal(ref.Parameters, mm.params):
		return false
	}
	return true
}

// String renders the matcher in reference syntax with * for unset parts.
func (mm MethodMatcher) String() string {
	cls, name, params, ret := "*", "*", "*", "*"
	if mm.definedIn != "" {
		cls = mm.definedIn
	}
	if mm.name != "" {
		name = mm.name
	}
	if mm.hasParams {
		params = strings.Join(mm.params, "")
	}
	if mm.returnType != "" {
		ret = mm.returnType
	}
	return cls + "->" + name + "(" + params + ")" + ret
}
