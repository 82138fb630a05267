package smali

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/chazu/dexpatch/dalvik"
)

// ---------------------------------------------------------------------------
// Printer: instructions to smali text
// ---------------------------------------------------------------------------

// Format renders one instruction in the syntax Assemble accepts. Labels
// attached to the instruction are not included.
func Format(ins dalvik.Instruction) string {
	f := ins.Format()
	var operands []string

	switch {
	case f.IsRange():
		if len(ins.Registers) == 0 {
			operands = append(operands, "{}")
		} else {
			operands = append(operands, fmt.Sprintf("{v%d .. v%d}", ins.Registers[0], ins.Registers[len(ins.Registers)-1]))
		}
	case f.IsVariadic():
		regs := make([]string, len(ins.Registers))
		for i, r := range ins.Registers {
			regs[i] = "v" + strconv.Itoa(int(r))
		}
		operands = append(operands, "{"+strings.Join(regs, ", ")+"}")
	default:
		for _, r := range ins.Registers {
			operands = append(operands, "v"+strconv.Itoa(int(r)))
		}
	}

	if f.HasLiteral() {
		operands = append(operands, formatLiteral(ins.Literal))
	}
	if f.HasTarget() {
		if ins.Target != nil {
			operands = append(operands, ":"+ins.Target.Name)
		} else {
			operands = append(operands, ":?")
		}
	}
	if f.HasReference() && ins.Ref != nil {
		if s, ok := ins.Ref.(dalvik.StringRef); ok {
			operands = append(operands, Quote(s.Value))
		} else {
			operands = append(operands, ins.Ref.String())
		}
	}

	if len(operands) == 0 {
		return ins.Opcode.Name()
	}
	return ins.Opcode.Name() + " " + strings.Join(operands, ", ")
}

func formatLiteral(v int64) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-v), 16)
	}
	return "0x" + strconv.FormatInt(v, 16)
}

// Quote renders s as a smali string literal. Characters outside printable
// ASCII use \u escapes.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if r >= 0x20 && r < 0x7f {
				sb.WriteRune(r)
				continue
			}
			for _, u := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(&sb, `\u%04x`, u)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Disassemble renders a whole method, header and labels included.
func Disassemble(m *dalvik.Method) string {
	var sb strings.Builder
	sb.WriteString(".method ")
	if flags := m.AccessFlags.String(); flags != "" {
		sb.WriteString(flags)
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Ref.Signature())
	sb.WriteByte('\n')

	if impl := m.Implementation; impl != nil {
		fmt.Fprintf(&sb, "    .registers %d\n", impl.Registers)
		for _, ins := range impl.Instructions {
			for _, l := range ins.Labels {
				fmt.Fprintf(&sb, "    :%s\n", l.Name)
			}
			sb.WriteString("    ")
			sb.WriteString(Format(ins))
			sb.WriteByte('\n')
		}
	}

	sb.WriteString(".end method\n")
	return sb.String()
}
