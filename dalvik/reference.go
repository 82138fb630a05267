package dalvik

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

// Reference is the symbol operand of an instruction. The set of
// implementations is closed: MethodRef, FieldRef, TypeRef and StringRef.
// Callers switch on the concrete type or on Kind.
type Reference interface {
	Kind() RefKind
	String() string
	isReference()
}

// MethodRef identifies a method by its declaring type and signature.
type MethodRef struct {
	DefiningClass string   // type descriptor, e.g. "Lcom/example/Foo;"
	Name          string   // method name
	Parameters    []string // parameter type descriptors
	ReturnType    string   // return type descriptor
}

func (MethodRef) Kind() RefKind { return RefMethod }
func (MethodRef) isReference()  {}

// Signature returns "name(params)ret" without the defining class.
func (r MethodRef) Signature() string {
	return r.Name + "(" + strings.Join(r.Parameters, "") + ")" + r.ReturnType
}

// Descriptor returns the smali form "Lcls;->name(params)ret".
func (r MethodRef) Descriptor() string {
	return r.DefiningClass + "->" + r.Signature()
}

// String implements the Stringer interface.
func (r MethodRef) String() string {
	return r.Descriptor()
}

// Equal reports whether two references have the same name and signature.
// The defining class is deliberately not part of equality; use SameMethod
// to also compare it.
func (r MethodRef) Equal(other MethodRef) bool {
	return r.Name == other.Name &&
		r.ReturnType == other.ReturnType &&
		slices.Equal(r.Parameters, other.Parameters)
}

// SameMethod reports whether two references denote the same method of the
// same class.
func (r MethodRef) SameMethod(other MethodRef) bool {
	return r.DefiningClass == other.DefiningClass && r.Equal(other)
}

// ParameterRegisters returns the number of registers the declared
// parameters occupy. Wide types (J, D) take two registers. The implicit
// receiver of instance methods is not counted.
func (r MethodRef) ParameterRegisters() int {
	n := 0
	for _, p := range r.Parameters {
		n += RegisterWidth(p)
	}
	return n
}

// FieldRef identifies a field.
type FieldRef struct {
	DefiningClass string
	Name          string
	Type          string
}

func (FieldRef) Kind() RefKind { return RefField }
func (FieldRef) isReference()  {}

// Descriptor returns the smali form "Lcls;->name:type".
func (r FieldRef) Descriptor() string {
	return r.DefiningClass + "->" + r.Name + ":" + r.Type
}

// String implements the Stringer interface.
func (r FieldRef) String() string {
	return r.Descriptor()
}

// TypeRef is a type descriptor operand, as used by new-instance or check-cast.
type TypeRef struct {
	Descriptor string
}

func (TypeRef) Kind() RefKind { return RefType }
func (TypeRef) isReference()  {}

// String implements the Stringer interface.
func (r TypeRef) String() string {
	return r.Descriptor
}

// StringRef is a string constant operand.
type StringRef struct {
	Value string
}

func (StringRef) Kind() RefKind { return RefString }
func (StringRef) isReference()  {}

// String returns the value quoted the way smali prints it.
func (r StringRef) String() string {
	return strconv.Quote(r.Value)
}

// ---------------------------------------------------------------------------
// Descriptor helpers
// ---------------------------------------------------------------------------

// RegisterWidth returns how many registers a value of the given type
// descriptor occupies.
func RegisterWidth(desc string) int {
	if desc == "J" || desc == "D" {
		return 2
	}
	return 1
}

// SplitTypes splits a concatenated descriptor list such as
// "ILjava/lang/String;[J" into its elements.
func SplitTypes(list string) ([]string, error) {
	var types []string
	for pos := 0; pos < len(list); {
		n, err := typeLen(list[pos:])
		if err != nil {
			return nil, fmt.Errorf("type list %q at %d: %w", list, pos, err)
		}
		types = append(types, list[pos:pos+n])
		pos += n
	}
	return types, nil
}

// typeLen returns the length of the single type descriptor at the start of s.
func typeLen(s string) (int, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims == len(s) {
		return 0, fmt.Errorf("truncated descriptor")
	}
	switch s[dims] {
	case 'Z', 'B', 'S', 'C', 'I', 'J', 'F', 'D':
		return dims + 1, nil
	case 'V':
		if dims > 0 {
			return 0, fmt.Errorf("array of void")
		}
		return 1, nil
	case 'L':
		end := strings.IndexByte(s[dims:], ';')
		if end < 0 {
			return 0, fmt.Errorf("unterminated class descriptor")
		}
		if end == 1 {
			return 0, fmt.Errorf("empty class name")
		}
		return dims + end + 1, nil
	default:
		return 0, fmt.Errorf("invalid descriptor character %q", s[dims])
	}
}

// ValidType reports whether desc is exactly one well-formed type descriptor.
func ValidType(desc string) bool {
	n, err := typeLen(desc)
	return err == nil && n == len(desc)
}

// ParseMethodRef parses "Lcls;->name(params)ret".
func ParseMethodRef(s string) (MethodRef, error) {
	arrow := strings.Index(s, "->")
	if arrow < 0 {
		return MethodRef{}, fmt.Errorf("method reference %q: missing ->", s)
	}
	cls, rest := s[:arrow], s[arrow+2:]
	if !ValidType(cls) {
		return MethodRef{}, fmt.Errorf("method reference %q: invalid class %q", s, cls)
	}
	open := strings.IndexByte(rest, '(')
	closeIdx := strings.IndexByte(rest, ')')
	if open <= 0 || closeIdx < open {
		return MethodRef{}, fmt.Errorf("method reference %q: malformed signature", s)
	}
	params, err := SplitTypes(rest[open+1 : closeIdx])
	if err != nil {
		return MethodRef{}, fmt.Errorf("method reference %q: %w", s, err)
	}
	ret := rest[closeIdx+1:]
	if !ValidType(ret) {
		return MethodRef{}, fmt.Errorf("method reference %q: invalid return type %q", s, ret)
	}
	return MethodRef{DefiningClass: cls, Name: rest[:open], Parameters: params, ReturnType: ret}, nil
}

// ParseFieldRef parses "Lcls;->name:type".
func ParseFieldRef(s string) (FieldRef, error) {
	arrow := strings.Index(s, "->")
	if arrow < 0 {
		return FieldRef{}, fmt.Errorf("field reference %q: missing ->", s)
	}
	cls, rest := s[:arrow], s[arrow+2:]
	colon := strings.IndexByte(rest, ':')
	if !ValidType(cls) || colon <= 0 {
		return FieldRef{}, fmt.Errorf("field reference %q: malformed", s)
	}
	typ := rest[colon+1:]
	if !ValidType(typ) || typ == "V" {
		return FieldRef{}, fmt.Errorf("field reference %q: invalid type %q", s, typ)
	}
	return FieldRef{DefiningClass: cls, Name: rest[:colon], Type: typ}, nil
}

// PrettyType renders a type descriptor the way Java source spells it,
// e.g. "[Ljava/lang/String;" becomes "java.lang.String[]".
func PrettyType(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	base := desc[dims:]
	switch base {
	case "Z":
		base = "boolean"
	case "B":
		base = "byte"
	case "S":
		base = "short"
	case "C":
		base = "char"
	case "I":
		base = "int"
	case "J":
		base = "long"
	case "F":
		base = "float"
	case "D":
		base = "double"
	case "V":
		base = "void"
	default:
		if strings.HasPrefix(base, "L") && strings.HasSuffix(base, ";") {
			base = strings.ReplaceAll(base[1:len(base)-1], "/", ".")
		}
	}
	return base + strings.Repeat("[]", dims)
}
