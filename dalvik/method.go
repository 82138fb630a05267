package dalvik

import (
	"fmt"
	"slices"
)

// ---------------------------------------------------------------------------
// Implementation: the instruction arena of a method
// ---------------------------------------------------------------------------

// Implementation is a method body: its register frame size and the ordered
// instruction sequence. The sequence is owned by exactly one Method.
//
// Indexes into Instructions are positions, not identities. Any splice
// invalidates previously computed indexes at or after the splice point.
type Implementation struct {
	Registers    int // total registers in the frame, parameters included
	Instructions []Instruction
}

// NewImplementation creates a body with the given register count.
func NewImplementation(registers int, instructions ...Instruction) *Implementation {
	return &Implementation{Registers: registers, Instructions: instructions}
}

// Len returns the number of instructions.
func (impl *Implementation) Len() int {
	return len(impl.Instructions)
}

// At returns the instruction at index i.
// Panics if i is out of range.
func (impl *Implementation) At(i int) Instruction {
	if i < 0 || i >= len(impl.Instructions) {
		panic("Implementation.At: index out of range")
	}
	return impl.Instructions[i]
}

// Splice removes count instructions at index and inserts block in their
// place. The block is copied; the caller's slice is not retained.
// Bounds must already be validated; Splice panics otherwise.
func (impl *Implementation) Splice(index, count int, block []Instruction) {
	if index < 0 || count < 0 || index > len(impl.Instructions) || count > len(impl.Instructions)-index {
		panic("Implementation.Splice: range out of bounds")
	}
	impl.Instructions = slices.Replace(impl.Instructions, index, index+count, slices.Clone(block)...)
}

// LabelIndex returns the position of the instruction carrying l, or -1.
func (impl *Implementation) LabelIndex(l *Label) int {
	for i, ins := range impl.Instructions {
		if ins.HasLabel(l) {
			return i
		}
	}
	return -1
}

// LabelByName finds an attached label by its display name.
func (impl *Implementation) LabelByName(name string) (*Label, bool) {
	for _, ins := range impl.Instructions {
		for _, l := range ins.Labels {
			if l.Name == name {
				return l, true
			}
		}
	}
	return nil, false
}

// Clone returns a body with its own instruction slice. Instruction values
// are shared, which is safe because they are never modified in place.
func (impl *Implementation) Clone() *Implementation {
	return &Implementation{
		Registers:    impl.Registers,
		Instructions: slices.Clone(impl.Instructions),
	}
}

// ---------------------------------------------------------------------------
// Method
// ---------------------------------------------------------------------------

// Method is a method definition inside a class.
type Method struct {
	Ref            MethodRef
	AccessFlags    AccessFlags
	Implementation *Implementation // nil for abstract and native methods
}

// Body returns the implementation or a MissingBodyError.
func (m *Method) Body() (*Implementation, error) {
	if m.Implementation == nil {
		return nil, &MissingBodyError{Method: m.Ref}
	}
	return m.Implementation, nil
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.AccessFlags.Has(AccStatic)
}

// ParameterRegisters returns the number of registers occupied by incoming
// arguments, including the receiver of instance methods.
func (m *Method) ParameterRegisters() int {
	n := m.Ref.ParameterRegisters()
	if !m.IsStatic() {
		n++
	}
	return n
}

// ParameterRegister maps parameter register pN to its frame register vM.
// It fails when the method has no body, pN lies outside the parameters, or
// the frame is too small to hold them.
func (m *Method) ParameterRegister(p int) (int, error) {
	impl, err := m.Body()
	if err != nil {
		return 0, err
	}
	params := m.ParameterRegisters()
	if p < 0 || p >= params {
		return 0, fmt.Errorf("p%d out of range for %s (%d parameter registers)", p, m.Ref.Descriptor(), params)
	}
	if impl.Registers < params {
		return 0, fmt.Errorf("frame of %s has %d registers, fewer than its %d parameter registers", m.Ref.Descriptor(), impl.Registers, params)
	}
	return impl.Registers - params + p, nil
}

// String returns the method descriptor.
func (m *Method) String() string {
	return m.Ref.Descriptor()
}

// Clone returns a copy of the method with its own body.
func (m *Method) Clone() *Method {
	c := *m
	c.Ref.Parameters = slices.Clone(m.Ref.Parameters)
	if m.Implementation != nil {
		c.Implementation = m.Implementation.Clone()
	}
	return &c
}
