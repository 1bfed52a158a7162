package riscv

import "testing"

func TestDecodeRoundTrip(t *testing.T) {
	cases := []Instruction{
		{Op: Lui, Rd: 5, Imm: int32(0x12345000)},
		{Op: Auipc, Rd: 6, Imm: -0x1000},
		{Op: Jal, Rd: 1, Imm: 2044},
		{Op: Jal, Rd: 0, Imm: -2048},
		{Op: Jalr, Rd: 1, Rs1: 5, Imm: -4},
		{Op: Beq, Rs1: 1, Rs2: 2, Imm: 1000},
		{Op: Bne, Rs1: 3, Rs2: 4, Imm: -1000},
		{Op: Blt, Rs1: 1, Rs2: 2, Imm: 16},
		{Op: Bge, Rs1: 1, Rs2: 2, Imm: 16},
		{Op: Bltu, Rs1: 1, Rs2: 2, Imm: 16},
		{Op: Bgeu, Rs1: 1, Rs2: 2, Imm: 16},
		{Op: Lb, Rd: 1, Rs1: 2, Imm: -1},
		{Op: Lh, Rd: 1, Rs1: 2, Imm: 100},
		{Op: Lw, Rd: 1, Rs1: 2, Imm: -100},
		{Op: Lbu, Rd: 1, Rs1: 2, Imm: 4},
		{Op: Lhu, Rd: 1, Rs1: 2, Imm: 4},
		{Op: Sb, Rs1: 2, Rs2: 3, Imm: -2},
		{Op: Sh, Rs1: 2, Rs2: 3, Imm: 2},
		{Op: Sw, Rs1: 2, Rs2: 3, Imm: 2040},
		{Op: Addi, Rd: 1, Rs1: 2, Imm: -2048},
		{Op: Slti, Rd: 1, Rs1: 2, Imm: 5},
		{Op: Sltiu, Rd: 1, Rs1: 2, Imm: 5},
		{Op: Xori, Rd: 1, Rs1: 2, Imm: -1},
		{Op: Ori, Rd: 1, Rs1: 2, Imm: 0xFF},
		{Op: Andi, Rd: 1, Rs1: 2, Imm: 0xF},
		{Op: Slli, Rd: 1, Rs1: 2, Imm: 31},
		{Op: Srli, Rd: 1, Rs1: 2, Imm: 1},
		{Op: Srai, Rd: 1, Rs1: 2, Imm: 1},
		{Op: Add, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Sub, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Sll, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Slt, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Sltu, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Xor, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Srl, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Sra, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Or, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: And, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Mul, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Mulh, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Mulhsu, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Mulhu, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Div, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Divu, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Rem, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Remu, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: Ecall},
		{Op: Ebreak},
		{Op: FenceI},
		{Op: Flw, Rd: 1, Rs1: 2, Imm: 8},
		{Op: Fld, Rd: 1, Rs1: 2, Imm: 8},
		{Op: Fsw, Rs1: 2, Rs2: 3, Imm: 8},
		{Op: Fsd, Rs1: 2, Rs2: 3, Imm: 8},
		{Op: FaddS, Rd: 1, Rs1: 2, Rs2: 3, Rm: 0},
		{Op: FsubD, Rd: 1, Rs1: 2, Rs2: 3, Rm: 0},
		{Op: FmulS, Rd: 1, Rs1: 2, Rs2: 3, Rm: 0},
		{Op: FdivD, Rd: 1, Rs1: 2, Rs2: 3, Rm: 0},
		{Op: FsqrtS, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FsgnjS, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FsgnjnD, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FsgnjxS, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FminS, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FmaxD, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FmaddS, Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4, Rm: 0},
		{Op: FmsubD, Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4, Rm: 0},
		{Op: FnmaddS, Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4, Rm: 0},
		{Op: FnmsubD, Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4, Rm: 0},
		{Op: FcvtWS, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FcvtSW, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FcvtWD, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FcvtDW, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FcvtSD, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FcvtDS, Rd: 1, Rs1: 2, Rm: 0},
		{Op: FeqS, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FltD, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FleS, Rd: 1, Rs1: 2, Rs2: 3},
		{Op: FclassS, Rd: 1, Rs1: 2},
		{Op: FclassD, Rd: 1, Rs1: 2},
		{Op: FmvWX, Rd: 1, Rs1: 2},
		{Op: FmvXW, Rd: 1, Rs1: 2},
		{Op: Frrm, Rd: 1},
		{Op: Fsrm, Rd: 1, Rs1: 2},
	}

	for _, want := range cases {
		w := Encode(want)
		got := Decode(w)
		if got.Op != want.Op {
			t.Fatalf("op %v: decode(encode(x)).Op = %v, word=0x%08x", want.Op, got.Op, w)
		}
		w2 := Encode(got)
		if w2 != w {
			t.Errorf("op %v: round trip mismatch: 0x%08x != 0x%08x", want.Op, w2, w)
		}
	}
}

func TestDecodeUnknownIsTotal(t *testing.T) {
	// A handful of opcodes with no valid mapping must decode to Unknown
	// rather than panicking.
	words := []uint32{0x00000000, 0xFFFFFFFF, 0x0000007F, 0x12345678}
	for _, w := range words {
		inst := Decode(w)
		if inst.Op != Unknown {
			t.Errorf("Decode(0x%08x).Op = %v, want Unknown", w, inst.Op)
		}
	}
}

func TestImmediatesAreAlwaysEven(t *testing.T) {
	for imm := int32(-4096); imm <= 4094; imm += 2 {
		w := encodeB(0x0, 1, 2, imm)
		got := Decode(w)
		if got.Imm%2 != 0 {
			t.Fatalf("branch imm %d decoded as odd %d", imm, got.Imm)
		}
	}
	for imm := int32(-1048576); imm <= 1048574; imm += 131072 {
		w := encodeJ(1, imm)
		got := Decode(w)
		if got.Imm%2 != 0 {
			t.Fatalf("jal imm %d decoded as odd %d", imm, got.Imm)
		}
	}
}

func TestShiftAmountMasksToFiveBits(t *testing.T) {
	w := encodeShift(0x00, 1, 0x1, 2, 37) // 37 & 0x1f == 5
	got := Decode(w)
	if got.Imm != 5 {
		t.Fatalf("shamt = %d, want 5", got.Imm)
	}
}
