package vm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lookbusy1344/arm-emulator/riscv"
)

// TraceWriter wraps an io.Writer with buffering and an explicit flush
// at shutdown, matching the existing codebase's pattern of
// conditionally-wired io.Writer sinks threaded through the engine
// rather than a global logger. Debug tracing is strictly additive: it
// never alters guest-visible behaviour.
type TraceWriter struct {
	w *bufio.Writer
	c io.Closer
}

// NewTraceWriter wraps dst for per-instruction tracing. If dst also
// implements io.Closer, Close flushes and closes it; otherwise Close
// only flushes.
func NewTraceWriter(dst io.Writer) *TraceWriter {
	tw := &TraceWriter{w: bufio.NewWriter(dst)}
	if c, ok := dst.(io.Closer); ok {
		tw.c = c
	}
	return tw
}

func (t *TraceWriter) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

// Close flushes buffered trace output and closes the underlying sink
// when possible.
func (t *TraceWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		return err
	}
	if t.c != nil {
		return t.c.Close()
	}
	return nil
}

// disasm renders a decoded instruction for the --debug trace line
// (`pc: <hex>: <decoded>`). It is a best-effort mnemonic rendering,
// not a round-trippable assembly syntax.
func disasm(inst riscv.Instruction) string {
	name, ok := mnemonics[inst.Op]
	if !ok {
		return fmt.Sprintf("unknown(0x%08x)", inst.Raw)
	}
	switch inst.Op {
	case riscv.Lui, riscv.Auipc:
		return fmt.Sprintf("%s x%d, 0x%x", name, inst.Rd, uint32(inst.Imm)>>12)
	case riscv.Jal:
		return fmt.Sprintf("%s x%d, %d", name, inst.Rd, inst.Imm)
	case riscv.Jalr:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, inst.Rd, inst.Imm, inst.Rs1)
	case riscv.Beq, riscv.Bne, riscv.Blt, riscv.Bge, riscv.Bltu, riscv.Bgeu:
		return fmt.Sprintf("%s x%d, x%d, %d", name, inst.Rs1, inst.Rs2, inst.Imm)
	case riscv.Lb, riscv.Lh, riscv.Lw, riscv.Lbu, riscv.Lhu, riscv.Flw, riscv.Fld:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, inst.Rd, inst.Imm, inst.Rs1)
	case riscv.Sb, riscv.Sh, riscv.Sw, riscv.Fsw, riscv.Fsd:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, inst.Rs2, inst.Imm, inst.Rs1)
	case riscv.Ecall, riscv.Ebreak, riscv.Fence, riscv.FenceI:
		return name
	default:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, inst.Rd, inst.Rs1, inst.Rs2)
	}
}

var mnemonics = map[riscv.Op]string{
	riscv.Lui: "lui", riscv.Auipc: "auipc", riscv.Jal: "jal", riscv.Jalr: "jalr",
	riscv.Beq: "beq", riscv.Bne: "bne", riscv.Blt: "blt", riscv.Bge: "bge",
	riscv.Bltu: "bltu", riscv.Bgeu: "bgeu",
	riscv.Lb: "lb", riscv.Lh: "lh", riscv.Lw: "lw", riscv.Lbu: "lbu", riscv.Lhu: "lhu",
	riscv.Sb: "sb", riscv.Sh: "sh", riscv.Sw: "sw",
	riscv.Addi: "addi", riscv.Slti: "slti", riscv.Sltiu: "sltiu",
	riscv.Xori: "xori", riscv.Ori: "ori", riscv.Andi: "andi",
	riscv.Slli: "slli", riscv.Srli: "srli", riscv.Srai: "srai",
	riscv.Add: "add", riscv.Sub: "sub", riscv.Sll: "sll", riscv.Slt: "slt",
	riscv.Sltu: "sltu", riscv.Xor: "xor", riscv.Srl: "srl", riscv.Sra: "sra",
	riscv.Or: "or", riscv.And: "and",
	riscv.Fence: "fence", riscv.FenceI: "fence.i", riscv.Ecall: "ecall", riscv.Ebreak: "ebreak",
	riscv.Mul: "mul", riscv.Mulh: "mulh", riscv.Mulhsu: "mulhsu", riscv.Mulhu: "mulhu",
	riscv.Div: "div", riscv.Divu: "divu", riscv.Rem: "rem", riscv.Remu: "remu",
	riscv.Flw: "flw", riscv.Fld: "fld", riscv.Fsw: "fsw", riscv.Fsd: "fsd",
	riscv.FaddS: "fadd.s", riscv.FsubS: "fsub.s", riscv.FmulS: "fmul.s", riscv.FdivS: "fdiv.s",
	riscv.FsqrtS: "fsqrt.s", riscv.FsgnjS: "fsgnj.s", riscv.FsgnjnS: "fsgnjn.s", riscv.FsgnjxS: "fsgnjx.s",
	riscv.FminS: "fmin.s", riscv.FmaxS: "fmax.s",
	riscv.FmaddS: "fmadd.s", riscv.FmsubS: "fmsub.s", riscv.FnmaddS: "fnmadd.s", riscv.FnmsubS: "fnmsub.s",
	riscv.FaddD: "fadd.d", riscv.FsubD: "fsub.d", riscv.FmulD: "fmul.d", riscv.FdivD: "fdiv.d",
	riscv.FsqrtD: "fsqrt.d", riscv.FsgnjD: "fsgnj.d", riscv.FsgnjnD: "fsgnjn.d", riscv.FsgnjxD: "fsgnjx.d",
	riscv.FminD: "fmin.d", riscv.FmaxD: "fmax.d",
	riscv.FmaddD: "fmadd.d", riscv.FmsubD: "fmsub.d", riscv.FnmaddD: "fnmadd.d", riscv.FnmsubD: "fnmsub.d",
	riscv.FcvtWS: "fcvt.w.s", riscv.FcvtWuS: "fcvt.wu.s", riscv.FcvtSW: "fcvt.s.w", riscv.FcvtSWu: "fcvt.s.wu",
	riscv.FcvtWD: "fcvt.w.d", riscv.FcvtWuD: "fcvt.wu.d", riscv.FcvtDW: "fcvt.d.w", riscv.FcvtDWu: "fcvt.d.wu",
	riscv.FcvtSD: "fcvt.s.d", riscv.FcvtDS: "fcvt.d.s",
	riscv.FeqS: "feq.s", riscv.FltS: "flt.s", riscv.FleS: "fle.s",
	riscv.FeqD: "feq.d", riscv.FltD: "flt.d", riscv.FleD: "fle.d",
	riscv.FclassS: "fclass.s", riscv.FclassD: "fclass.d",
	riscv.FmvWX: "fmv.w.x", riscv.FmvXW: "fmv.x.w", riscv.FmvXD: "fmv.x.d", riscv.FmvDX: "fmv.d.x",
	riscv.Frrm: "frrm", riscv.Fsrm: "fsrm",
	riscv.Unknown: "unknown",
}
