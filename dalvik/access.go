package dalvik

import "strings"

// AccessFlags is the access_flags bitset of a class, field or method.
type AccessFlags uint32

const (
	AccPublic               AccessFlags = 0x1
	AccPrivate              AccessFlags = 0x2
	AccProtected            AccessFlags = 0x4
	AccStatic               AccessFlags = 0x8
	AccFinal                AccessFlags = 0x10
	AccSynchronized         AccessFlags = 0x20
	AccBridge               AccessFlags = 0x40 // AccVolatile on fields
	AccVarargs              AccessFlags = 0x80 // AccTransient on fields
	AccNative               AccessFlags = 0x100
	AccInterface            AccessFlags = 0x200
	AccAbstract             AccessFlags = 0x400
	AccStrict               AccessFlags = 0x800
	AccSynthetic            AccessFlags = 0x1000
	AccAnnotation           AccessFlags = 0x2000
	AccEnum                 AccessFlags = 0x4000
	AccConstructor          AccessFlags = 0x10000
	AccDeclaredSynchronized AccessFlags = 0x20000

	AccVolatile  = AccBridge
	AccTransient = AccVarargs

	visibilityMask = AccPublic | AccPrivate | AccProtected
)

// methodFlagNames lists method modifiers in the order smali prints them.
var methodFlagNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strictfp"},
	{AccSynthetic, "synthetic"},
	{AccConstructor, "constructor"},
	{AccDeclaredSynchronized, "declared-synchronized"},
}

// Has reports whether all bits of f are set.
func (a AccessFlags) Has(f AccessFlags) bool {
	return a&f == f
}

// Visibility returns only the visibility bits. Zero means package-private.
func (a AccessFlags) Visibility() AccessFlags {
	return a & visibilityMask
}

// WithVisibility returns a with its visibility replaced by v.
func (a AccessFlags) WithVisibility(v AccessFlags) AccessFlags {
	return a&^visibilityMask | v&visibilityMask
}

// String renders the flags as method modifiers, e.g. "public static final".
func (a AccessFlags) String() string {
	var parts []string
	for _, fn := range methodFlagNames {
		if a&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseAccessFlags parses space separated method modifiers as printed by
// String. Unknown words are returned as the second result.
func ParseAccessFlags(s string) (AccessFlags, []string) {
	var flags AccessFlags
	var unknown []string
	for _, word := range strings.Fields(s) {
		found := false
		for _, fn := range methodFlagNames {
			if fn.name == word {
				flags |= fn.flag
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, word)
		}
	}
	return flags, unknown
}
