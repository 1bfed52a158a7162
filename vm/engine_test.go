package vm

import (
	"bytes"
	"math"
	"testing"

	"github.com/lookbusy1344/arm-emulator/riscv"
)

func assemble(insts []riscv.Instruction) []byte {
	buf := make([]byte, 0, len(insts)*4)
	for _, in := range insts {
		w := riscv.Encode(in)
		buf = append(buf, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return buf
}

func newTestEngine(t *testing.T, insts []riscv.Instruction) *Engine {
	t.Helper()
	text := assemble(insts)
	mem := NewMemory(DefaultArenaSize)
	copy(mem.Bytes(), text)
	return NewEngine(mem, text, 0, 0, Intercepts{})
}

func li(rd uint8, v int32) riscv.Instruction {
	return riscv.Instruction{Op: riscv.Addi, Rd: rd, Rs1: 0, Imm: v}
}

func TestRegisterZeroHardwired(t *testing.T) {
	var r IntRegs
	r.WriteU(0, 0xDEADBEEF)
	if got := r.Read(0); got != 0 {
		t.Fatalf("x0 = %d, want 0", got)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(64)
	if err := m.WriteWord(4, 0x11223344); err != nil {
		t.Fatal(err)
	}
	v, err := m.ReadWord(4)
	if err != nil || v != 0x11223344 {
		t.Fatalf("ReadWord = %x, %v", v, err)
	}
	if err := m.WriteDouble(8, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	dv, err := m.ReadDouble(8)
	if err != nil || dv != 0x0102030405060708 {
		t.Fatalf("ReadDouble = %x, %v", dv, err)
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewMemory(16)
	if _, err := m.ReadWord(14); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
	if _, err := m.ReadWord(12); err != nil {
		t.Fatalf("unexpected error for in-bounds access: %v", err)
	}
}

func TestAlignedAndUnalignedAgree(t *testing.T) {
	u := NewMemory(64)
	a := NewAlignedMemory(64)
	if err := u.WriteWord(0, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	if err := a.WriteWord(0, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	uv, _ := u.ReadWord(0)
	av, _ := a.ReadWord(0)
	if uv != av {
		t.Fatalf("aligned/unaligned disagree: %x != %x", av, uv)
	}
}

func TestShiftMaskedToFiveBitsAtRuntime(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(5, 1),
		li(6, 33), // shift amount 33 & 0x1F == 1
		{Op: riscv.Sll, Rd: 7, Rs1: 5, Rs2: 6},
	})
	for i := 0; i < 3; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Int.Read(7); got != 2 {
		t.Fatalf("1 << (33&0x1F) = %d, want 2", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(5, 10),
		li(6, 0),
		{Op: riscv.Div, Rd: 7, Rs1: 5, Rs2: 6},
		{Op: riscv.Divu, Rd: 8, Rs1: 5, Rs2: 6},
		{Op: riscv.Rem, Rd: 9, Rs1: 5, Rs2: 6},
		{Op: riscv.Remu, Rd: 10, Rs1: 5, Rs2: 6},
	})
	for i := 0; i < 6; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Int.Read(7); got != -1 {
		t.Errorf("div by zero = %d, want -1", got)
	}
	if got := e.Int.ReadU(8); got != 0xFFFFFFFF {
		t.Errorf("divu by zero = %x, want 0xFFFFFFFF", got)
	}
	if got := e.Int.Read(9); got != 10 {
		t.Errorf("rem by zero = %d, want dividend 10", got)
	}
	if got := e.Int.ReadU(10); got != 10 {
		t.Errorf("remu by zero = %d, want dividend 10", got)
	}
}

func TestSignedOverflowDivision(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		{Op: riscv.Lui, Rd: 5, Imm: -0x80000000}, // INT_MIN
		li(6, -1),
		{Op: riscv.Div, Rd: 7, Rs1: 5, Rs2: 6},
		{Op: riscv.Rem, Rd: 8, Rs1: 5, Rs2: 6},
	})
	for i := 0; i < 4; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Int.Read(7); got != -2147483648 {
		t.Errorf("INT_MIN/-1 = %d, want INT_MIN", got)
	}
	if got := e.Int.Read(8); got != 0 {
		t.Errorf("INT_MIN rem -1 = %d, want 0", got)
	}
}

func TestDivRemInvariant(t *testing.T) {
	pairs := [][2]int32{{17, 5}, {-17, 5}, {17, -5}, {-17, -5}, {100, 7}}
	for _, p := range pairs {
		e := newTestEngine(t, []riscv.Instruction{
			li(5, p[0]),
			li(6, p[1]),
			{Op: riscv.Div, Rd: 7, Rs1: 5, Rs2: 6},
			{Op: riscv.Rem, Rd: 8, Rs1: 5, Rs2: 6},
		})
		for i := 0; i < 4; i++ {
			if err := e.Step(); err != nil {
				t.Fatal(err)
			}
		}
		q, r := e.Int.Read(7), e.Int.Read(8)
		if p[1]*q+r != p[0] {
			t.Errorf("%d/%d: q=%d r=%d, divisor*q+r = %d != dividend", p[0], p[1], q, r, p[1]*q+r)
		}
	}
}

func TestArithmeticIdentity(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(5, 7),
		li(6, 0),
		{Op: riscv.Add, Rd: 7, Rs1: 5, Rs2: 6},
	})
	for i := 0; i < 3; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Int.Read(7); got != 7 {
		t.Fatalf("x + 0 = %d, want 7", got)
	}
}

func TestExitWithConstant(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(regA0, 42),
		li(regA7, 93), // sys_exit
		{Op: riscv.Ecall},
	})
	code, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if code != 42 {
		t.Fatalf("exit code = %d, want 42", code)
	}
}

func TestSyscallWriteGoesThroughInjectedStdout(t *testing.T) {
	const addr = 0x200
	e := newTestEngine(t, []riscv.Instruction{
		li(regA7, sysWrite),
		li(regA0, 1),
		li(regA1, addr),
		li(regA2, 3),
		{Op: riscv.Ecall},
	})
	copy(e.Mem.Bytes()[addr:], "hi\n")

	var out bytes.Buffer
	e.Stdout = &out

	for i := 0; i < 5; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if got := e.Int.ReadU(regA0); got != 3 {
		t.Fatalf("write return count in a0 = %d, want 3", got)
	}
	if out.String() != "hi\n" {
		t.Fatalf("captured stdout = %q, want %q", out.String(), "hi\n")
	}
}

func TestIdleSentinelTerminatesCleanly(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		{Op: riscv.Jal, Rd: 1, Imm: 0}, // jal ra, . -- self call
	})
	code, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if code != 0 {
		t.Fatalf("idle sentinel exit code = %d, want 0", code)
	}
}

func TestEbreakIsFatalWithoutDebugger(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		{Op: riscv.Ebreak},
	})
	_, err := e.Run()
	if err == nil {
		t.Fatal("expected ebreak to be fatal")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != KindBreak {
		t.Fatalf("err = %v, want KindBreak", err)
	}
}

func TestBadOpcodeIsFatal(t *testing.T) {
	mem := NewMemory(64)
	// 0x00000000 decodes to Unknown (opcode field 0x00 matches no recognised opcode).
	mem.WriteWord(0, 0x00000000)
	e := NewEngine(mem, mem.Bytes()[:64], 0, 0, Intercepts{})
	_, err := e.Run()
	if err == nil {
		t.Fatal("expected bad opcode error")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != KindBadOpcode {
		t.Fatalf("err = %v, want KindBadOpcode", err)
	}
}

func TestMaxCyclesCeiling(t *testing.T) {
	// An infinite loop: jal x0, . (branch to self, never via x1 so not
	// the idle sentinel).
	e := newTestEngine(t, []riscv.Instruction{
		{Op: riscv.Jal, Rd: 0, Imm: 0},
	})
	e.MaxCycles = 10
	_, err := e.Run()
	if err == nil {
		t.Fatal("expected cycle ceiling error")
	}
}

func TestFPSignInjection(t *testing.T) {
	e := newTestEngine(t, nil)
	e.FP.WriteSingle(1, 3.5)
	e.FP.WriteSingle(2, -1.0)
	if err := e.execFP(riscv.Instruction{Op: riscv.FsgnjS, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatal(err)
	}
	if got := e.FP.ReadSingle(3); got != -3.5 {
		t.Errorf("fsgnj.s = %v, want -3.5", got)
	}
	if err := e.execFP(riscv.Instruction{Op: riscv.FsgnjnS, Rd: 4, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatal(err)
	}
	if got := e.FP.ReadSingle(4); got != 3.5 {
		t.Errorf("fsgnjn.s = %v, want 3.5", got)
	}
	if err := e.execFP(riscv.Instruction{Op: riscv.FsgnjxS, Rd: 5, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatal(err)
	}
	if got := e.FP.ReadSingle(5); got != -3.5 {
		t.Errorf("fsgnjx.s = %v, want -3.5", got)
	}
}

func TestFPMinMaxNaNAware(t *testing.T) {
	e := newTestEngine(t, nil)
	nan := float32(math.NaN())
	e.FP.WriteSingle(1, nan)
	e.FP.WriteSingle(2, 2.0)
	if err := e.execFP(riscv.Instruction{Op: riscv.FminS, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatal(err)
	}
	if got := e.FP.ReadSingle(3); got != 2.0 {
		t.Errorf("fmin.s(nan, 2.0) = %v, want 2.0", got)
	}
}

func TestFclassDistinguishesSignalingAndQuietNaN(t *testing.T) {
	quiet := uint32(0x7FC00000)
	signaling := uint32(0x7F800001)
	if classify32(quiet) != classQuietNaN {
		t.Errorf("quiet NaN misclassified")
	}
	if classify32(signaling) != classSignalingNaN {
		t.Errorf("signaling NaN misclassified")
	}
}

func TestLoadStoreRoundTripThroughEngine(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(5, 0x100),
		li(6, -123),
		{Op: riscv.Sw, Rs1: 5, Rs2: 6, Imm: 0},
		{Op: riscv.Lw, Rd: 7, Rs1: 5, Imm: 0},
	})
	for i := 0; i < 4; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Int.Read(7); got != -123 {
		t.Fatalf("load-after-store = %d, want -123", got)
	}
}

func TestBranchTakenSkipsInstruction(t *testing.T) {
	e := newTestEngine(t, []riscv.Instruction{
		li(5, 1),
		li(6, 1),
		{Op: riscv.Beq, Rs1: 5, Rs2: 6, Imm: 8}, // taken: skip next instruction
		li(7, 99),                               // skipped
		li(7, 1),
	})
	for !e.exited {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
		if e.PC >= 20 {
			break
		}
	}
	if got := e.Int.Read(7); got != 1 {
		t.Fatalf("branch-taken skipped wrong instruction: x7 = %d, want 1", got)
	}
}

func TestMemmoveInterceptHandlesOverlap(t *testing.T) {
	m := NewMemory(64)
	copy(m.Bytes()[0:5], []byte{1, 2, 3, 4, 5})
	if err := m.Memmove(2, 0, 5); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5}
	got := m.Bytes()[2:7]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("memmove overlap: got %v, want %v", got, want)
		}
	}
}

func TestFCSRRejectsReservedRoundingMode(t *testing.T) {
	var f FCSR
	if _, err := f.WriteRM(0b101); err == nil {
		t.Fatal("expected reserved rounding mode to be rejected")
	}
	if _, err := f.WriteRM(0b010); err != nil {
		t.Fatalf("unexpected error for valid rounding mode: %v", err)
	}
	if f.ReadRM() != 0b010 {
		t.Fatalf("rounding mode not installed")
	}
}
