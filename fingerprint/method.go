package fingerprint

import (
	"strings"

	"github.com/chazu/dexpatch/dalvik"
)

// OpAny is a wildcard in MethodFingerprint.Opcodes. It is not a valid
// Dalvik opcode.
const OpAny dalvik.Opcode = 0xff

// MethodFingerprint picks a method out of a ClassSet. Every non-zero
// criterion must hold.
type MethodFingerprint struct {
	// Name identifies the fingerprint in errors and logs.
	Name string

	// DefiningClass matches a suffix of the class descriptor, so
	// "/ServerInsertedAdBreakState;" matches regardless of package.
	DefiningClass string
	MethodName    string
	ReturnType    string // prefix of the return type descriptor

	// Parameters, if non-nil, must have the same length as the method's
	// parameters; each entry is a prefix of the corresponding descriptor.
	Parameters []string

	// AccessFlags lists bits that must be set.
	AccessFlags dalvik.AccessFlags

	// Opcodes must appear as a contiguous run in the body. OpAny matches
	// any single instruction.
	Opcodes []dalvik.Opcode

	// Strings must all be loaded somewhere in the body.
	Strings []string

	// Custom is a final check with access to the class.
	Custom func(c *dalvik.Class, m *dalvik.Method) bool
}

// Match checks one method. The returned index is the start of the opcode
// run, or -1 when the fingerprint has no Opcodes.
func (fp *MethodFingerprint) Match(c *dalvik.Class, m *dalvik.Method) (int, bool) {
	ref := m.Ref
	if fp.DefiningClass != "" && !strings.HasSuffix(c.Type, fp.DefiningClass) {
		return -1, false
	}
	if fp.MethodName != "" && ref.Name != fp.MethodName {
		return -1, false
	}
	if fp.ReturnType != "" && !strings.HasPrefix(ref.ReturnType, fp.ReturnType) {
		return -1, false
	}
	if fp.Parameters != nil && !parametersMatch(ref.Parameters, fp.Parameters) {
		return -1, false
	}
	if !m.AccessFlags.Has(fp.AccessFlags) {
		return -1, false
	}

	index := -1
	if len(fp.Opcodes) > 0 || len(fp.Strings) > 0 {
		if m.Implementation == nil {
			return -1, false
		}
		seq := m.Implementation.Instructions
		if len(fp.Opcodes) > 0 {
			match, ok := Find(seq, fp.opcodePredicate(), len(fp.Opcodes)-1)
			if !ok {
				return -1, false
			}
			index = match.Index
		}
		if !referencesStrings(seq, fp.Strings) {
			return -1, false
		}
	}

	if fp.Custom != nil && !fp.Custom(c, m) {
		return -1, false
	}
	return index, true
}

// Resolve returns the first matching method in class then method order.
func (fp *MethodFingerprint) Resolve(cs *dalvik.ClassSet) (*dalvik.Class, *dalvik.Method, error) {
	for c, m := range cs.Methods() {
		if _, ok := fp.Match(c, m); ok {
			return c, m, nil
		}
	}
	return nil, nil, &MethodNotFoundError{Fingerprint: fp.String()}
}

// String returns the fingerprint name, or a summary of its criteria.
func (fp *MethodFingerprint) String() string {
	if fp.Name != "" {
		return fp.Name
	}
	var parts []string
	if fp.DefiningClass != "" {
		parts = append(parts, "class *"+fp.DefiningClass)
	}
	if fp.MethodName != "" {
		parts = append(parts, "name "+fp.MethodName)
	}
	if fp.ReturnType != "" {
		parts = append(parts, "returns "+fp.ReturnType)
	}
	if len(fp.Opcodes) > 0 {
		parts = append(parts, "opcodes "+opcodeOutline(fp.Opcodes))
	}
	if len(parts) == 0 {
		return "any method"
	}
	return strings.Join(parts, ", ")
}

func (fp *MethodFingerprint) opcodePredicate() Predicate {
	return func(w *Window) bool {
		for k, want := range fp.Opcodes {
			ins, ok := w.At(k)
			if !ok || (want != OpAny && ins.Opcode != want) {
				return false
			}
		}
		return true
	}
}

func parametersMatch(have, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range want {
		if !strings.HasPrefix(have[i], want[i]) {
			return false
		}
	}
	return true
}

func referencesStrings(seq []dalvik.Instruction, want []string) bool {
	for _, s := range want {
		if _, ok := Find(seq, func(w *Window) bool {
			v, ok := w.First().StringValue()
			return ok && v == s
		}, 0); !ok {
			return false
		}
	}
	return true
}

func opcodeOutline(ops []dalvik.Opcode) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		if op == OpAny {
			names[i] = "*"
		} else {
			names[i] = op.Name()
		}
	}
	return strings.Join(names, " ")
}
