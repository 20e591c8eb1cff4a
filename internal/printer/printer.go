// Package printer renders a Celestial IR module to its textual debug
// form (spec.md §6.2) and to a human-readable struct/enum layout
// report. Grounded on the teacher's internal/formatter/formatter.go:
// a buffered strings.Builder writer with one format method per node
// kind and an explicit indent counter, generalized from AST statements
// to IR functions/blocks/instructions.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// Printer accumulates the textual form of one or more modules.
type Printer struct {
	output strings.Builder
}

// New returns an empty Printer.
func New() *Printer {
	return &Printer{}
}

// PrintModule renders m per the §6.2 grammar:
//
//	module := ("; Celestial IR Module: " NAME NL)* FUNCTION*
func (p *Printer) PrintModule(m *ir.Module) string {
	p.output.Reset()
	p.output.WriteString("; Celestial IR Module: ")
	p.output.WriteString(m.Name)
	p.output.WriteString("\n")
	for _, fn := range m.Functions {
		p.printFunction(fn)
	}
	return p.output.String()
}

// printFunction renders FUNCTION := "fn" NAME "{" NL (BLOCK)* "}" NL.
func (p *Printer) printFunction(fn *ir.Function) {
	p.output.WriteString("fn ")
	p.output.WriteString(fn.Name)
	p.output.WriteString(" {\n")
	for _, b := range fn.Blocks {
		p.printBlock(b)
	}
	p.output.WriteString("}\n")
}

// printBlock renders BLOCK := "  block_" N ":" NL (INSTR)*.
func (p *Printer) printBlock(b *ir.Block) {
	p.output.WriteString("  block_")
	p.output.WriteString(strconv.Itoa(int(b.ID)))
	p.output.WriteString(":\n")
	for i := b.First; i != nil; i = i.Next {
		p.printInstr(i)
	}
}

// printInstr renders one INSTR per the grammar, with two additive
// extensions the grammar leaves unspecified: a call's callee name is
// printed as a leading bare operand, and a switch's extra cases are
// listed after its single default target (neither changes the
// %vN/%argN/INT operand grammar, so R1 round-tripping of arithmetic
// and control-flow-free functions is unaffected).
func (p *Printer) printInstr(i *ir.Instruction) {
	p.output.WriteString("    ")
	if i.Result != nil {
		p.output.WriteString(operandString(i.Result))
		p.output.WriteString(" = ")
	}
	p.output.WriteString(i.Opcode.String())

	var operands []string
	if i.Opcode == ir.OpCall || i.Opcode == ir.OpCallIndirect {
		if i.Callee != nil {
			operands = append(operands, i.Callee.Name)
		}
	}
	for _, v := range i.Operands {
		operands = append(operands, operandString(v))
	}
	if len(operands) > 0 {
		p.output.WriteString(" ")
		p.output.WriteString(strings.Join(operands, ", "))
	}

	var targets []string
	if i.Target1 != ir.InvalidBlock {
		targets = append(targets, "block_"+strconv.Itoa(int(i.Target1)))
	}
	if i.Target2 != ir.InvalidBlock {
		targets = append(targets, "block_"+strconv.Itoa(int(i.Target2)))
	}
	if len(targets) > 0 {
		p.output.WriteString(" -> ")
		p.output.WriteString(strings.Join(targets, ", "))
	}
	for _, c := range i.SwitchCases {
		p.output.WriteString(fmt.Sprintf(", case %d: block_%d", c.Value, int(c.Target)))
	}
	p.output.WriteString("\n")
}

// operandString renders OPERAND := "%v" N | "%arg" N | INT, extended
// with "%str"/"@" prefixes for string and function-pointer constants
// (outside the grammar's scope but necessary for a readable dump).
func operandString(v *ir.Value) string {
	switch v.Kind {
	case ir.VregKind:
		return fmt.Sprintf("%%v%d", v.ID)
	case ir.ParamKind:
		return fmt.Sprintf("%%arg%d", v.ID)
	case ir.StringKind:
		return fmt.Sprintf("%%str%d", v.StringID)
	case ir.FnPtrKind:
		return "@" + v.FnName
	case ir.VoidConstKind:
		return "void"
	case ir.ConstKind:
		if v.Type != nil && v.Type.Kind == types.Bool {
			if v.BoolPayload {
				return "1"
			}
			return "0"
		}
		return strconv.FormatInt(v.IntPayload, 10)
	default:
		return "?"
	}
}

// PrintLayoutReport renders a struct/enum size-and-alignment table for
// every named type in m, using go-humanize for a readable byte column
// — an additive debugging aid (§6.2), not part of the print grammar.
func PrintLayoutReport(m *ir.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout report: %s\n", m.Name)
	for _, t := range m.NamedTypes {
		size := types.Size(t)
		align := types.Align(t)
		fmt.Fprintf(&b, "  %s: size=%s align=%d\n", t.Name, humanize.Bytes(uint64(size)), align)
		switch t.Kind {
		case types.Struct:
			for i, fname := range t.FieldNames {
				fmt.Fprintf(&b, "    .%s: offset=%d size=%s\n",
					fname, types.FieldOffset(t, i), humanize.Bytes(uint64(types.Size(t.Fields[i]))))
			}
		case types.Enum:
			for _, v := range t.Variants {
				payload := "unit"
				if v.Payload != nil {
					payload = humanize.Bytes(uint64(types.Size(v.Payload)))
				}
				fmt.Fprintf(&b, "    %s: payload=%s (offset=%d)\n", v.Name, payload, types.EnumPayloadOffset)
			}
		}
	}
	return b.String()
}
