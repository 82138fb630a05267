package dalvik

import "fmt"

// ---------------------------------------------------------------------------
// Instruction formats
// ---------------------------------------------------------------------------

// Format is a Dalvik instruction encoding format. The name encodes the
// number of 16-bit code units, the number of registers and the kind of
// extra operand, e.g. 35c is 3 units, up to 5 registers, constant-pool ref.
type Format uint8

const (
	FormatInvalid Format = iota
	Format10x            // op
	Format12x            // op vA, vB
	Format11n            // op vA, #+B
	Format11x            // op vAA
	Format10t            // op +AA
	Format20t            // op +AAAA
	Format22x            // op vAA, vBBBB
	Format21t            // op vAA, +BBBB
	Format21s            // op vAA, #+BBBB
	Format21h            // op vAA, #+BBBB0000[00000000]
	Format21c            // op vAA, kind@BBBB
	Format23x            // op vAA, vBB, vCC
	Format22b            // op vAA, vBB, #+CC
	Format22t            // op vA, vB, +CCCC
	Format22s            // op vA, vB, #+CCCC
	Format22c            // op vA, vB, kind@CCCC
	Format30t            // op +AAAAAAAA
	Format32x            // op vAAAA, vBBBB
	Format31i            // op vAA, #+BBBBBBBB
	Format31t            // op vAA, +BBBBBBBB
	Format31c            // op vAA, string@BBBBBBBB
	Format35c            // op {vC, vD, vE, vF, vG}, kind@BBBB
	Format3rc            // op {vCCCC .. vNNNN}, kind@BBBB
	Format51l            // op vAA, #+BBBBBBBBBBBBBBBB
)

// formatInfo describes the operand layout of a format.
type formatInfo struct {
	name string
	// regBits holds the width of each fixed register operand, in order.
	// Variable-length formats (35c, 3rc) leave it empty.
	regBits []uint8
	// litBits is the signed literal width; 0 means no literal.
	litBits uint8
	units   int
	target  bool
	ref     bool
}

var formatTable = map[Format]formatInfo{
	Format10x: {name: "10x", units: 1},
	Format12x: {name: "12x", regBits: []uint8{4, 4}, units: 1},
	Format11n: {name: "11n", regBits: []uint8{4}, litBits: 4, units: 1},
	Format11x: {name: "11x", regBits: []uint8{8}, units: 1},
	Format10t: {name: "10t", units: 1, target: true},
	Format20t: {name: "20t", units: 2, target: true},
	Format22x: {name: "22x", regBits: []uint8{8, 16}, units: 2},
	Format21t: {name: "21t", regBits: []uint8{8}, units: 2, target: true},
	Format21s: {name: "21s", regBits: []uint8{8}, litBits: 16, units: 2},
	Format21h: {name: "21h", regBits: []uint8{8}, litBits: 64, units: 2},
	Format21c: {name: "21c", regBits: []uint8{8}, units: 2, ref: true},
	Format23x: {name: "23x", regBits: []uint8{8, 8, 8}, units: 2},
	Format22b: {name: "22b", regBits: []uint8{8, 8}, litBits: 8, units: 2},
	Format22t: {name: "22t", regBits: []uint8{4, 4}, units: 2, target: true},
	Format22s: {name: "22s", regBits: []uint8{4, 4}, litBits: 16, units: 2},
	Format22c: {name: "22c", regBits: []uint8{4, 4}, units: 2, ref: true},
	Format30t: {name: "30t", units: 3, target: true},
	Format32x: {name: "32x", regBits: []uint8{16, 16}, units: 3},
	Format31i: {name: "31i", regBits: []uint8{8}, litBits: 32, units: 3},
	Format31t: {name: "31t", regBits: []uint8{8}, units: 3, target: true},
	Format31c: {name: "31c", regBits: []uint8{8}, units: 3, ref: true},
	Format35c: {name: "35c", units: 3, ref: true},
	Format3rc: {name: "3rc", units: 3, ref: true},
	Format51l: {name: "51l", regBits: []uint8{8}, litBits: 64, units: 5},
}

// String returns the conventional format id, e.g. "35c".
func (f Format) String() string {
	if info, ok := formatTable[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Units returns the encoded size of the format in 16-bit code units.
func (f Format) Units() int {
	return formatTable[f].units
}

// RegisterBits returns the width of each fixed register operand.
// It returns nil for formats without fixed registers, including the
// variable-length 35c and 3rc.
func (f Format) RegisterBits() []uint8 {
	return formatTable[f].regBits
}

// LiteralBits returns the width of the signed literal operand, or 0.
func (f Format) LiteralBits() uint8 {
	return formatTable[f].litBits
}

// HasLiteral reports whether the format carries a literal operand.
func (f Format) HasLiteral() bool { return formatTable[f].litBits > 0 }

// HasTarget reports whether the format carries a branch or payload target.
func (f Format) HasTarget() bool { return formatTable[f].target }

// HasReference reports whether the format carries a constant-pool reference.
func (f Format) HasReference() bool { return formatTable[f].ref }

// IsVariadic reports whether the register list has variable length.
func (f Format) IsVariadic() bool {
	return f == Format35c || f == Format3rc
}

// IsRange reports whether the registers form a contiguous range.
func (f Format) IsRange() bool {
	return f == Format3rc
}

// MaxRegisters returns the largest number of register operands the format
// can encode.
func (f Format) MaxRegisters() int {
	switch f {
	case Format35c:
		return 5
	case Format3rc:
		return 255
	default:
		return len(formatTable[f].regBits)
	}
}

// HasRegisterA reports whether the first operand of the format is a single
// fixed register. This is the "one register instruction" capability: the
// variadic invoke formats and the register-less formats lack it.
func (f Format) HasRegisterA() bool {
	switch f {
	case Format11n, Format11x, Format12x, Format21c, Format21h, Format21s,
		Format21t, Format22b, Format22c, Format22s, Format22t, Format22x,
		Format23x, Format31c, Format31i, Format31t, Format32x, Format51l:
		return true
	case Format10x, Format10t, Format20t, Format30t, Format35c, Format3rc:
		return false
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Reference kinds
// ---------------------------------------------------------------------------

// RefKind identifies what an instruction's constant-pool operand refers to.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefString
	RefType
	RefField
	RefMethod
)

// String returns a human-readable name for RefKind.
func (k RefKind) String() string {
	switch k {
	case RefNone:
		return "none"
	case RefString:
		return "string"
	case RefType:
		return "type"
	case RefField:
		return "field"
	case RefMethod:
		return "method"
	default:
		return fmt.Sprintf("RefKind(%d)", uint8(k))
	}
}
