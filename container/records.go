// Package container persists class sets as program snapshots. A snapshot
// is the magic "DXPS", a format version byte, and a canonical CBOR document
// holding every class, method and instruction.
package container

// Wire records. Integer keys keep the encoding compact and stable across
// field renames.

type fileRecord struct {
	Classes []classRecord `cbor:"1,keyasint"`
}

type classRecord struct {
	Type        string         `cbor:"1,keyasint"`
	AccessFlags uint32         `cbor:"2,keyasint,omitempty"`
	SuperClass  string         `cbor:"3,keyasint,omitempty"`
	Interfaces  []string       `cbor:"4,keyasint,omitempty"`
	SourceFile  string         `cbor:"5,keyasint,omitempty"`
	Methods     []methodRecord `cbor:"6,keyasint,omitempty"`
}

type methodRecord struct {
	Name        string      `cbor:"1,keyasint"`
	Parameters  []string    `cbor:"2,keyasint,omitempty"`
	ReturnType  string      `cbor:"3,keyasint"`
	AccessFlags uint32      `cbor:"4,keyasint,omitempty"`
	Code        *codeRecord `cbor:"5,keyasint,omitempty"`
}

type codeRecord struct {
	Registers    int                 `cbor:"1,keyasint"`
	Instructions []instructionRecord `cbor:"2,keyasint,omitempty"`
	// LabelNames holds display names indexed by label id - 1. It is left
	// out when hashing so that renaming a label does not change a body.
	LabelNames []string `cbor:"3,keyasint,omitempty"`
	LabelCount int      `cbor:"4,keyasint,omitempty"`
}

type instructionRecord struct {
	Opcode    uint8      `cbor:"1,keyasint"`
	Registers []uint16   `cbor:"2,keyasint,omitempty"`
	Literal   int64      `cbor:"3,keyasint,omitempty"`
	Ref       *refRecord `cbor:"4,keyasint,omitempty"`
	Target    int        `cbor:"5,keyasint,omitempty"` // label id, 0 for none
	Labels    []int      `cbor:"6,keyasint,omitempty"` // label ids
}

type refRecord struct {
	Kind       uint8    `cbor:"1,keyasint"`
	Class      string   `cbor:"2,keyasint,omitempty"`
	Name       string   `cbor:"3,keyasint,omitempty"`
	Parameters []string `cbor:"4,keyasint,omitempty"`
	Type       string   `cbor:"5,keyasint,omitempty"` // return, field or referenced type
	Value      string   `cbor:"6,keyasint,omitempty"`
}
