package refbackend

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stela-lang/stela/pkg/stela/backend"
)

// Dump writes a textual disassembly of every defined function in m to w, one
// instruction per line, wrapping long operand lists to the output's
// terminal width via termio.Terminal.GetSize's underlying golang.org/x/term
// call. Intended for -debug builds and tests that want a human-readable
// view of what codegen produced, rendered for a human rather than for
// another pipeline stage.
func Dump(w io.Writer, m backend.Module) {
	mod, ok := m.(*module)
	if !ok {
		fmt.Fprintln(w, "<not a refbackend module>")
		return
	}
	//
	width := terminalWidth(w)
	//
	for _, name := range mod.funcOrder {
		dumpFunction(w, mod.functions[name], width)
	}
}

// terminalWidth reports the output's column width, defaulting to 80 when w
// is not a terminal (piped output, a bytes.Buffer in tests, a log file).
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	//
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	//
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 80
	}
	//
	return width
}

func dumpFunction(w io.Writer, fn *function, width int) {
	kind := "define"
	if len(fn.blocks) == 0 {
		kind = "declare"
	}
	//
	fmt.Fprintf(w, "%s %s %s\n", kind, linkageString(fn.linkage), fn.signatureString())
	//
	for _, b := range fn.blocks {
		fmt.Fprintf(w, "%s:\n", b.name)
		//
		for _, in := range b.insns {
			wrapLine(w, "  "+instructionString(in), width)
		}
	}
	//
	fmt.Fprintln(w)
}

func linkageString(l backend.Linkage) string {
	if l == backend.External {
		return "external"
	}
	return "internal"
}

func (fn *function) signatureString() string {
	parts := make([]string, len(fn.params))
	for i, p := range fn.params {
		parts[i] = p.String()
	}
	//
	return fmt.Sprintf("%s(%s) -> %s", fn.name, strings.Join(parts, ", "), fn.ret.String())
}

// wrapLine prints line, splitting at commas so no printed segment exceeds
// width columns — the same flex-budget idea termio.Terminal.Render applies
// to widget heights, applied here to a single disassembly line instead.
func wrapLine(w io.Writer, line string, width int) {
	if width <= 0 || len(line) <= width {
		fmt.Fprintln(w, line)
		return
	}
	//
	parts := strings.Split(line, ", ")
	cur := parts[0]
	//
	for _, p := range parts[1:] {
		if len(cur)+2+len(p) > width {
			fmt.Fprintln(w, cur+",")
			cur = "    " + p
			continue
		}
		//
		cur += ", " + p
	}
	//
	fmt.Fprintln(w, cur)
}

func instructionString(in *instruction) string {
	ops := make([]string, len(in.operands))
	for i, o := range in.operands {
		ops[i] = valueString(o)
	}
	operands := strings.Join(ops, ", ")
	//
	var dst string
	if in.result >= 0 {
		dst = fmt.Sprintf("%%%d = ", in.result)
	}
	//
	switch in.op {
	case opAlloca:
		return fmt.Sprintf("%salloca %s", dst, in.allocType)
	case opLoad:
		return fmt.Sprintf("%sload %s", dst, operands)
	case opStore:
		return fmt.Sprintf("store %s", operands)
	case opBinOp:
		return fmt.Sprintf("%sbinop.%d %s", dst, in.binOp, operands)
	case opUnOp:
		return fmt.Sprintf("%sunop.%d %s", dst, in.unOp, operands)
	case opCmp:
		return fmt.Sprintf("%scmp.%d %s", dst, in.cmpOp, operands)
	case opConvert:
		return fmt.Sprintf("%sconvert %s to %s", dst, operands, in.resultType)
	case opFieldPtr:
		return fmt.Sprintf("%sfieldptr %s, %d", dst, operands, in.fieldIndex)
	case opElemPtr:
		return fmt.Sprintf("%selemptr %s", dst, operands)
	case opHeapAlloc:
		return fmt.Sprintf("%sheapalloc %s", dst, operands)
	case opHeapFree:
		return fmt.Sprintf("heapfree %s", operands)
	case opCall:
		return fmt.Sprintf("%scall %s(%s)", dst, in.callee.name, operands)
	case opCallIndirect:
		return fmt.Sprintf("%scallindirect %s", dst, operands)
	case opBr:
		return fmt.Sprintf("br %s", in.then.name)
	case opCondBr:
		return fmt.Sprintf("condbr %s, %s, %s", operands, in.then.name, in.els.name)
	case opLikely:
		return fmt.Sprintf("likely %s", in.then.name)
	case opRet:
		return fmt.Sprintf("ret %s", operands)
	case opRetVoid:
		return "ret void"
	case opUnreachable:
		return "unreachable"
	case opPanic:
		return fmt.Sprintf("panic %q", in.panicMsg)
	}
	//
	return "?"
}

func valueString(v backend.Value) string {
	switch t := v.(type) {
	case constValue:
		return fmt.Sprintf("%v", t.lit)
	case paramValue:
		return fmt.Sprintf("%%arg%d", t.index)
	case regValue:
		return fmt.Sprintf("%%%d", t.id)
	case addrValue:
		return "<addr>"
	case *funcValue:
		if t.fn != nil {
			return "@" + t.fn.name
		}
		return "<null-closure>"
	case *function:
		return "@" + t.name
	}
	//
	return "?"
}
