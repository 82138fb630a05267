package smali

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/dexpatch/dalvik"
)

// ---------------------------------------------------------------------------
// Assembler: smali text to instructions
// ---------------------------------------------------------------------------

// Assembler turns smali instruction text into instructions for one target
// method. The target supplies the frame size for register checks, the
// parameter layout for pN registers, and existing labels that injected code
// may branch to. A nil target assembles free-standing code: pN registers
// and references to outside labels are then errors.
type Assembler struct {
	target *dalvik.Method
	impl   *dalvik.Implementation

	tokens []Token
	cur    int
	errs   Errors

	labels  map[string]*labelState
	pending []*dalvik.Label
	out     []dalvik.Instruction
}

type labelState struct {
	label   *dalvik.Label
	defined bool
	ref     Position // first reference, for error reporting
}

// NewAssembler creates an assembler for code that will be placed in target.
func NewAssembler(target *dalvik.Method) *Assembler {
	return &Assembler{target: target}
}

// Assemble assembles src for insertion into m.
func Assemble(src string, m *dalvik.Method) ([]dalvik.Instruction, error) {
	return NewAssembler(m).Assemble(src)
}

// Assemble assembles one block of instructions. All syntax errors of the
// block are reported together as Errors.
func (a *Assembler) Assemble(src string) ([]dalvik.Instruction, error) {
	if a.target != nil {
		impl, err := a.target.Body()
		if err != nil {
			return nil, err
		}
		a.impl = impl
	}

	a.tokens = NewLexer(src).Tokenize()
	a.cur = 0
	a.errs = nil
	a.labels = make(map[string]*labelState)
	a.pending = nil
	a.out = nil

	for !a.at(TokenEOF) {
		switch a.peek().Type {
		case TokenNewline:
			a.next()
		case TokenLabel:
			a.defineLabel(a.next())
		case TokenWord:
			a.parseInstruction()
		default:
			tok := a.next()
			a.errorAt(tok.Pos, "expected instruction or label, got %s", describe(tok))
			a.skipLine()
		}
	}

	if len(a.pending) > 0 {
		a.errorAt(a.peek().Pos, "label :%s does not mark an instruction", a.pending[0].Name)
	}
	a.resolveOuterLabels()

	if len(a.errs) > 0 {
		return nil, a.errs
	}
	return a.out, nil
}

// ---------------------------------------------------------------------------
// Token cursor
// ---------------------------------------------------------------------------

func (a *Assembler) peek() Token {
	return a.tokens[a.cur]
}

func (a *Assembler) at(t TokenType) bool {
	return a.tokens[a.cur].Type == t
}

func (a *Assembler) next() Token {
	tok := a.tokens[a.cur]
	if tok.Type != TokenEOF {
		a.cur++
	}
	return tok
}

func (a *Assembler) atLineEnd() bool {
	return a.at(TokenNewline) || a.at(TokenEOF)
}

func (a *Assembler) skipLine() {
	for !a.atLineEnd() {
		a.next()
	}
}

func (a *Assembler) errorAt(pos Position, format string, args ...any) {
	a.errs = append(a.errs, &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func describe(tok Token) string {
	if tok.Type == TokenError {
		return tok.Literal
	}
	return tok.String()
}

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

func (a *Assembler) labelRef(tok Token) *dalvik.Label {
	st, ok := a.labels[tok.Literal]
	if !ok {
		st = &labelState{label: dalvik.NewLabel(tok.Literal), ref: tok.Pos}
		a.labels[tok.Literal] = st
	}
	return st.label
}

func (a *Assembler) defineLabel(tok Token) {
	st, ok := a.labels[tok.Literal]
	switch {
	case !ok:
		st = &labelState{label: dalvik.NewLabel(tok.Literal)}
		a.labels[tok.Literal] = st
	case st.defined:
		a.errorAt(tok.Pos, "label :%s defined twice", tok.Literal)
		return
	}
	if a.impl != nil {
		if _, taken := a.impl.LabelByName(tok.Literal); taken {
			a.errorAt(tok.Pos, "label :%s is already used by %s", tok.Literal, a.target.Ref.Descriptor())
			return
		}
	}
	st.defined = true
	a.pending = append(a.pending, st.label)
}

// resolveOuterLabels binds labels referenced but not defined in the block to
// labels of the target method.
func (a *Assembler) resolveOuterLabels() {
	for _, name := range slices.Sorted(maps.Keys(a.labels)) {
		st := a.labels[name]
		if st.defined {
			continue
		}
		var outer *dalvik.Label
		if a.impl != nil {
			outer, _ = a.impl.LabelByName(name)
		}
		if outer == nil {
			a.errorAt(st.ref, "undefined label :%s", name)
			continue
		}
		for i := range a.out {
			if a.out[i].Target == st.label {
				a.out[i].Target = outer
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Operands
// ---------------------------------------------------------------------------

type operandKind int

const (
	operandRegister operandKind = iota
	operandList
	operandRange
	operandInteger
	operandString
	operandLabel
	operandWord
)

func (k operandKind) String() string {
	switch k {
	case operandRegister:
		return "register"
	case operandList:
		return "register list"
	case operandRange:
		return "register range"
	case operandInteger:
		return "integer"
	case operandString:
		return "string"
	case operandLabel:
		return "label"
	default:
		return "reference"
	}
}

type operand struct {
	kind  operandKind
	pos   Position
	regs  []uint16
	value int64
	tok   Token
}

// parseOperands reads comma separated operands up to the end of the line.
func (a *Assembler) parseOperands() ([]operand, bool) {
	var ops []operand
	for !a.atLineEnd() {
		if len(ops) > 0 {
			tok := a.next()
			if tok.Type != TokenComma {
				a.errorAt(tok.Pos, "expected , got %s", describe(tok))
				return nil, false
			}
		}
		op, ok := a.parseOperand()
		if !ok {
			return nil, false
		}
		ops = append(ops, op)
	}
	return ops, true
}

func (a *Assembler) parseOperand() (operand, bool) {
	tok := a.next()
	op := operand{pos: tok.Pos, tok: tok}
	switch tok.Type {
	case TokenRegister:
		r, ok := a.register(tok)
		if !ok {
			return op, false
		}
		op.kind = operandRegister
		op.regs = []uint16{r}
	case TokenLBrace:
		return a.parseRegisterList(tok.Pos)
	case TokenInteger:
		v, err := ParseInteger(tok.Literal)
		if err != nil {
			a.errorAt(tok.Pos, "%v", err)
			return op, false
		}
		op.kind = operandInteger
		op.value = v
	case TokenString:
		op.kind = operandString
	case TokenLabel:
		op.kind = operandLabel
	case TokenWord:
		op.kind = operandWord
	default:
		a.errorAt(tok.Pos, "expected operand, got %s", describe(tok))
		return op, false
	}
	return op, true
}

func (a *Assembler) parseRegisterList(pos Position) (operand, bool) {
	op := operand{kind: operandList, pos: pos}
	if a.at(TokenRBrace) {
		a.next()
		return op, true
	}
	for {
		tok := a.next()
		if tok.Type != TokenRegister {
			a.errorAt(tok.Pos, "expected register, got %s", describe(tok))
			return op, false
		}
		r, ok := a.register(tok)
		if !ok {
			return op, false
		}
		op.regs = append(op.regs, r)

		switch sep := a.next(); sep.Type {
		case TokenRBrace:
			return op, true
		case TokenComma:
			if op.kind == operandRange {
				a.errorAt(sep.Pos, "unexpected , in register range")
				return op, false
			}
		case TokenRange:
			if len(op.regs) != 1 {
				a.errorAt(sep.Pos, "unexpected .. in register list")
				return op, false
			}
			op.kind = operandRange
		default:
			a.errorAt(sep.Pos, "expected , .. or }, got %s", describe(sep))
			return op, false
		}
	}
}

// register resolves a vN or pN token to a frame register.
func (a *Assembler) register(tok Token) (uint16, bool) {
	n, err := ParseInteger(tok.Literal[1:])
	if err != nil || n > 0xffff {
		a.errorAt(tok.Pos, "invalid register %s", tok.Literal)
		return 0, false
	}
	r := int(n)
	if tok.Literal[0] == 'p' {
		if a.target == nil {
			a.errorAt(tok.Pos, "parameter register %s needs a target method", tok.Literal)
			return 0, false
		}
		r, err = a.target.ParameterRegister(int(n))
		if err != nil {
			a.errorAt(tok.Pos, "%v", err)
			return 0, false
		}
	}
	if r < 0 {
		a.errorAt(tok.Pos, "register %s maps below v0", tok.Literal)
		return 0, false
	}
	if a.impl != nil && r >= a.impl.Registers {
		a.errorAt(tok.Pos, "register %s is outside the frame of %d registers", tok.Literal, a.impl.Registers)
		return 0, false
	}
	return uint16(r), true
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

func (a *Assembler) parseInstruction() {
	mnemonic := a.next()
	op, ok := dalvik.LookupOpcode(mnemonic.Literal)
	if !ok {
		a.errorAt(mnemonic.Pos, "unknown instruction %q", mnemonic.Literal)
		a.skipLine()
		return
	}
	operands, ok := a.parseOperands()
	if !ok {
		a.skipLine()
		return
	}
	ins, err := a.build(op, operands)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			a.errs = append(a.errs, se)
		} else {
			a.errorAt(mnemonic.Pos, "%s: %v", op, err)
		}
		return
	}
	ins.Labels = a.pending
	a.pending = nil
	a.out = append(a.out, ins)
}

// build checks operands against the opcode's format and constructs the
// instruction. Operand order is registers, literal, target, reference.
func (a *Assembler) build(op dalvik.Opcode, operands []operand) (dalvik.Instruction, error) {
	f := op.Format()
	ins := dalvik.Instruction{Opcode: op}

	want := len(f.RegisterBits())
	if f.IsVariadic() {
		want = 1
	}
	if f.HasLiteral() {
		want++
	}
	if f.HasTarget() {
		want++
	}
	if f.HasReference() {
		want++
	}
	if len(operands) != want {
		return ins, fmt.Errorf("expects %d operands, got %d", want, len(operands))
	}

	k := 0
	if f.IsVariadic() {
		regs, err := a.variadicRegisters(op, operands[0])
		if err != nil {
			return ins, err
		}
		ins.Registers = regs
		k++
	} else {
		for _, bits := range f.RegisterBits() {
			o := operands[k]
			if o.kind != operandRegister {
				return ins, operandError(o, "register")
			}
			if int(o.regs[0]) >= 1<<bits {
				return ins, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s: register %s does not fit in %d bits", op, o.tok.Literal, bits)}
			}
			ins.Registers = append(ins.Registers, o.regs[0])
			k++
		}
	}

	if f.HasLiteral() {
		o := operands[k]
		if o.kind != operandInteger {
			return ins, operandError(o, "integer")
		}
		if err := checkLiteral(op, o.value); err != nil {
			return ins, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s: %v", op, err)}
		}
		ins.Literal = o.value
		k++
	}

	if f.HasTarget() {
		o := operands[k]
		if o.kind != operandLabel {
			return ins, operandError(o, "label")
		}
		ins.Target = a.labelRef(o.tok)
		k++
	}

	if f.HasReference() {
		ref, err := parseReference(op, operands[k])
		if err != nil {
			return ins, err
		}
		ins.Ref = ref
		if mref, ok := ref.(dalvik.MethodRef); ok {
			if err := checkArguments(op, mref, len(ins.Registers)); err != nil {
				return ins, &SyntaxError{Pos: operands[k].pos, Msg: err.Error()}
			}
		}
	}

	return ins, nil
}

func operandError(o operand, want string) error {
	return &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("expected %s operand, got %s", want, o.kind)}
}

func (a *Assembler) variadicRegisters(op dalvik.Opcode, o operand) ([]uint16, error) {
	f := op.Format()
	if !f.IsRange() {
		if o.kind != operandList {
			return nil, operandError(o, "register list")
		}
		if len(o.regs) > f.MaxRegisters() {
			return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s takes at most %d registers, got %d", op, f.MaxRegisters(), len(o.regs))}
		}
		for _, r := range o.regs {
			if r > 0xf {
				return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s: register v%d does not fit in 4 bits", op, r)}
			}
		}
		return o.regs, nil
	}

	var regs []uint16
	switch o.kind {
	case operandRange:
		first, last := o.regs[0], o.regs[1]
		if last < first {
			return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("register range v%d .. v%d is reversed", first, last)}
		}
		for r := int(first); r <= int(last); r++ {
			regs = append(regs, uint16(r))
		}
	case operandList:
		for i, r := range o.regs {
			if i > 0 && r != o.regs[i-1]+1 {
				return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s registers must be consecutive", op)}
			}
		}
		regs = o.regs
	default:
		return nil, operandError(o, "register range")
	}
	if len(regs) > f.MaxRegisters() {
		return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s takes at most %d registers, got %d", op, f.MaxRegisters(), len(regs))}
	}
	return regs, nil
}

// checkLiteral verifies that v is encodable by op.
func checkLiteral(op dalvik.Opcode, v int64) error {
	switch op {
	case dalvik.OpConstHigh16:
		if v&0xffff != 0 || v != int64(int32(v)) {
			return fmt.Errorf("literal %#x must be a 32-bit value with the low 16 bits clear", v)
		}
		return nil
	case dalvik.OpConstWideHigh16:
		if v&0xffffffffffff != 0 {
			return fmt.Errorf("literal %#x must have the low 48 bits clear", v)
		}
		return nil
	}
	bits := op.Format().LiteralBits()
	if bits >= 64 {
		return nil
	}
	lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
	if v < lo || v > hi {
		return fmt.Errorf("literal %d does not fit in %d bits", v, bits)
	}
	return nil
}

func parseReference(op dalvik.Opcode, o operand) (dalvik.Reference, error) {
	kind := op.Info().Ref
	switch kind {
	case dalvik.RefString:
		if o.kind != operandString {
			return nil, operandError(o, "string")
		}
		return dalvik.StringRef{Value: o.tok.Literal}, nil
	case dalvik.RefType:
		if o.kind != operandWord || !dalvik.ValidType(o.tok.Literal) {
			return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s: expected type descriptor, got %s", op, describe(o.tok))}
		}
		return dalvik.TypeRef{Descriptor: o.tok.Literal}, nil
	case dalvik.RefField:
		if o.kind != operandWord {
			return nil, operandError(o, "field reference")
		}
		ref, err := dalvik.ParseFieldRef(o.tok.Literal)
		if err != nil {
			return nil, &SyntaxError{Pos: o.pos, Msg: err.Error()}
		}
		return ref, nil
	case dalvik.RefMethod:
		if o.kind != operandWord {
			return nil, operandError(o, "method reference")
		}
		ref, err := dalvik.ParseMethodRef(o.tok.Literal)
		if err != nil {
			return nil, &SyntaxError{Pos: o.pos, Msg: err.Error()}
		}
		return ref, nil
	default:
		return nil, &SyntaxError{Pos: o.pos, Msg: fmt.Sprintf("%s takes no reference", op)}
	}
}

// checkArguments verifies that an invoke passes exactly the registers its
// method reference needs, counting the receiver of non-static calls.
func checkArguments(op dalvik.Opcode, ref dalvik.MethodRef, got int) error {
	want := ref.ParameterRegisters()
	if op != dalvik.OpInvokeStatic && op != dalvik.OpInvokeStaticRange {
		want++
	}
	if got != want {
		return fmt.Errorf("%s %s takes %d argument registers, got %d", op, ref.Signature(), want, got)
	}
	return nil
}
