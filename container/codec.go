package container

import (
	"fmt"

	"github.com/chazu/dexpatch/dalvik"
)

// ---------------------------------------------------------------------------
// ClassSet -> records
// ---------------------------------------------------------------------------

func encodeClassSet(cs *dalvik.ClassSet) fileRecord {
	var f fileRecord
	for _, c := range cs.Classes() {
		rec := classRecord{
			Type:        c.Type,
			AccessFlags: uint32(c.AccessFlags),
			SuperClass:  c.SuperClass,
			Interfaces:  c.Interfaces,
			SourceFile:  c.SourceFile,
		}
		for _, m := range c.Methods {
			rec.Methods = append(rec.Methods, encodeMethod(m, true))
		}
		f.Classes = append(f.Classes, rec)
	}
	return f
}

// encodeMethod converts a method to its record. Labels are numbered in order
// of first appearance, attached labels before targets, so two bodies with
// the same shape number their labels identically.
func encodeMethod(m *dalvik.Method, withNames bool) methodRecord {
	rec := methodRecord{
		Name:        m.Ref.Name,
		Parameters:  m.Ref.Parameters,
		ReturnType:  m.Ref.ReturnType,
		AccessFlags: uint32(m.AccessFlags),
	}
	impl := m.Implementation
	if impl == nil {
		return rec
	}

	ids := make(map[*dalvik.Label]int)
	var names []string
	id := func(l *dalvik.Label) int {
		if n, ok := ids[l]; ok {
			return n
		}
		names = append(names, l.Name)
		ids[l] = len(names)
		return len(names)
	}
	for _, ins := range impl.Instructions {
		for _, l := range ins.Labels {
			id(l)
		}
	}

	code := &codeRecord{Registers: impl.Registers}
	for _, ins := range impl.Instructions {
		ir := instructionRecord{
			Opcode:    uint8(ins.Opcode),
			Registers: ins.Registers,
			Literal:   ins.Literal,
			Ref:       encodeRef(ins.Ref),
		}
		if ins.Target != nil {
			ir.Target = id(ins.Target)
		}
		for _, l := range ins.Labels {
			ir.Labels = append(ir.Labels, ids[l])
		}
		code.Instructions = append(code.Instructions, ir)
	}
	code.LabelCount = len(names)
	if withNames {
		code.LabelNames = names
	}
	rec.Code = code
	return rec
}

func encodeRef(ref dalvik.Reference) *refRecord {
	switch r := ref.(type) {
	case dalvik.MethodRef:
		return &refRecord{Kind: uint8(dalvik.RefMethod), Class: r.DefiningClass, Name: r.Name, Parameters: r.Parameters, Type: r.ReturnType}
	case dalvik.FieldRef:
		return &refRecord{Kind: uint8(dalvik.RefField), Class: r.DefiningClass, Name: r.Name, Type: r.Type}
	case dalvik.TypeRef:
		return &refRecord{Kind: uint8(dalvik.RefType), Type: r.Descriptor}
	case dalvik.StringRef:
		return &refRecord{Kind: uint8(dalvik.RefString), Value: r.Value}
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// records -> ClassSet
// ---------------------------------------------------------------------------

func decodeClassSet(f *fileRecord) (*dalvik.ClassSet, error) {
	cs := dalvik.NewClassSet()
	for _, rec := range f.Classes {
		c := &dalvik.Class{
			Type:        rec.Type,
			AccessFlags: dalvik.AccessFlags(rec.AccessFlags),
			SuperClass:  rec.SuperClass,
			Interfaces:  rec.Interfaces,
			SourceFile:  rec.SourceFile,
		}
		if !dalvik.ValidType(c.Type) {
			return nil, fmt.Errorf("%w: invalid class type %q", ErrCorrupt, c.Type)
		}
		for _, mr := range rec.Methods {
			m, err := decodeMethod(c.Type, &mr)
			if err != nil {
				return nil, err
			}
			c.AddMethod(m)
		}
		if err := cs.Add(c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	return cs, nil
}

func decodeMethod(class string, rec *methodRecord) (*dalvik.Method, error) {
	m := &dalvik.Method{
		Ref: dalvik.MethodRef{
			DefiningClass: class,
			Name:          rec.Name,
			Parameters:    rec.Parameters,
			ReturnType:    rec.ReturnType,
		},
		AccessFlags: dalvik.AccessFlags(rec.AccessFlags),
	}
	if rec.Code == nil {
		return m, nil
	}

	code := rec.Code
	labels := make([]*dalvik.Label, code.LabelCount)
	for i := range labels {
		name := fmt.Sprintf("L%d", i)
		if i < len(code.LabelNames) {
			name = code.LabelNames[i]
		}
		labels[i] = dalvik.NewLabel(name)
	}
	label := func(id int) (*dalvik.Label, error) {
		if id < 1 || id > len(labels) {
			return nil, fmt.Errorf("%w: %s: label id %d out of range", ErrCorrupt, m.Ref.Descriptor(), id)
		}
		return labels[id-1], nil
	}

	impl := dalvik.NewImplementation(code.Registers)
	for i, ir := range code.Instructions {
		op := dalvik.Opcode(ir.Opcode)
		if !op.Valid() {
			return nil, fmt.Errorf("%w: %s: instruction %d has invalid opcode 0x%02x", ErrCorrupt, m.Ref.Descriptor(), i, ir.Opcode)
		}
		ins := dalvik.Instruction{Opcode: op, Registers: ir.Registers, Literal: ir.Literal}
		ref, err := decodeRef(ir.Ref)
		if err != nil {
			return nil, fmt.Errorf("%s: instruction %d: %w", m.Ref.Descriptor(), i, err)
		}
		if want := op.Info().Ref; (ref == nil && want != dalvik.RefNone) || (ref != nil && ref.Kind() != want) {
			return nil, fmt.Errorf("%w: %s: instruction %d: %s needs a %s reference", ErrCorrupt, m.Ref.Descriptor(), i, op, want)
		}
		ins.Ref = ref
		if ir.Target != 0 {
			if ins.Target, err = label(ir.Target); err != nil {
				return nil, err
			}
		}
		for _, id := range ir.Labels {
			l, err := label(id)
			if err != nil {
				return nil, err
			}
			ins.Labels = append(ins.Labels, l)
		}
		impl.Instructions = append(impl.Instructions, ins)
	}
	m.Implementation = impl
	return m, nil
}

func decodeRef(r *refRecord) (dalvik.Reference, error) {
	if r == nil {
		return nil, nil
	}
	switch dalvik.RefKind(r.Kind) {
	case dalvik.RefMethod:
		return dalvik.MethodRef{DefiningClass: r.Class, Name: r.Name, Parameters: r.Parameters, ReturnType: r.Type}, nil
	case dalvik.RefField:
		return dalvik.FieldRef{DefiningClass: r.Class, Name: r.Name, Type: r.Type}, nil
	case dalvik.RefType:
		return dalvik.TypeRef{Descriptor: r.Type}, nil
	case dalvik.RefString:
		return dalvik.StringRef{Value: r.Value}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reference kind %d", ErrCorrupt, r.Kind)
	}
}
