package dalvik

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

// Label is a branch target. A label is attached to the instruction it marks
// (Instruction.Labels) and named by the branches that jump to it
// (Instruction.Target). Identity is the pointer; Name only matters for
// printing.
type Label struct {
	Name string
}

// NewLabel creates a label with the given display name.
func NewLabel(name string) *Label {
	return &Label{Name: name}
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is one decoded Dalvik instruction.
//
// Instructions are values. Once placed in an Implementation an instruction
// is never modified; edits replace whole elements of the sequence. Because
// labels travel with the instruction they are attached to, inserting or
// removing other instructions never invalidates a branch.
type Instruction struct {
	Opcode    Opcode
	Registers []uint16  // register operands in encoding order; ranges are expanded
	Literal   int64     // literal operand for formats that carry one
	Ref       Reference // symbol operand, nil if the format has none
	Target    *Label    // branch or payload target
	Labels    []*Label  // labels marking this instruction
}

// Format returns the instruction's encoding format.
func (ins Instruction) Format() Format {
	return ins.Opcode.Format()
}

// RegisterA returns the first register operand of single-register-capable
// formats. Invoke formats and register-less formats report false.
func (ins Instruction) RegisterA() (uint16, bool) {
	if !ins.Format().HasRegisterA() || len(ins.Registers) == 0 {
		return 0, false
	}
	return ins.Registers[0], true
}

// MethodRef returns the referenced method, if any.
func (ins Instruction) MethodRef() (MethodRef, bool) {
	ref, ok := ins.Ref.(MethodRef)
	return ref, ok
}

// FieldRef returns the referenced field, if any.
func (ins Instruction) FieldRef() (FieldRef, bool) {
	ref, ok := ins.Ref.(FieldRef)
	return ref, ok
}

// TypeRef returns the referenced type, if any.
func (ins Instruction) TypeRef() (TypeRef, bool) {
	ref, ok := ins.Ref.(TypeRef)
	return ref, ok
}

// StringValue returns the referenced string constant, if any.
func (ins Instruction) StringValue() (string, bool) {
	ref, ok := ins.Ref.(StringRef)
	return ref.Value, ok
}

// HasLabel reports whether l is attached to the instruction.
func (ins Instruction) HasLabel(l *Label) bool {
	for _, own := range ins.Labels {
		if own == l {
			return true
		}
	}
	return false
}

// Units returns the encoded size of the instruction in 16-bit code units.
func (ins Instruction) Units() int {
	return ins.Format().Units()
}
