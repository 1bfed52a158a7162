package riscv

// Decode converts one 32-bit little-endian instruction word into its
// structured operation record. It is a pure, total function: every
// value of w produces a record, with unrecognised encodings mapped to
// Unknown.
func Decode(w uint32) Instruction {
	opcode := w & 0x7F
	rd := uint8((w >> 7) & 0x1F)
	funct3 := uint8((w >> 12) & 0x7)
	rs1 := uint8((w >> 15) & 0x1F)
	rs2 := uint8((w >> 20) & 0x1F)
	funct7 := uint8((w >> 25) & 0x7F)

	switch opcode {
	case opLui:
		return Instruction{Op: Lui, Raw: w, Rd: rd, Imm: int32(w & 0xFFFFF000)}
	case opAuipc:
		return Instruction{Op: Auipc, Raw: w, Rd: rd, Imm: int32(w & 0xFFFFF000)}
	case opJal:
		return Instruction{Op: Jal, Raw: w, Rd: rd, Imm: decodeJImm(w)}
	case opJalr:
		if funct3 != 0 {
			return Instruction{Op: Unknown, Raw: w}
		}
		return Instruction{Op: Jalr, Raw: w, Rd: rd, Rs1: rs1, Imm: decodeIImm(w)}
	case opBranch:
		op, ok := branchOp(funct3)
		if !ok {
			return Instruction{Op: Unknown, Raw: w}
		}
		return Instruction{Op: op, Raw: w, Rs1: rs1, Rs2: rs2, Imm: decodeBImm(w)}
	case opLoad:
		op, ok := loadOp(funct3)
		if !ok {
			return Instruction{Op: Unknown, Raw: w}
		}
		return Instruction{Op: op, Raw: w, Rd: rd, Rs1: rs1, Imm: decodeIImm(w)}
	case opStore:
		op, ok := storeOp(funct3)
		if !ok {
			return Instruction{Op: Unknown, Raw: w}
		}
		return Instruction{Op: op, Raw: w, Rs1: rs1, Rs2: rs2, Imm: decodeSImm(w)}
	case opLoadFP:
		switch funct3 {
		case 0x2:
			return Instruction{Op: Flw, Raw: w, Rd: rd, Rs1: rs1, Imm: decodeIImm(w)}
		case 0x3:
			return Instruction{Op: Fld, Raw: w, Rd: rd, Rs1: rs1, Imm: decodeIImm(w)}
		}
		return Instruction{Op: Unknown, Raw: w}
	case opStoreFP:
		switch funct3 {
		case 0x2:
			return Instruction{Op: Fsw, Raw: w, Rs1: rs1, Rs2: rs2, Imm: decodeSImm(w)}
		case 0x3:
			return Instruction{Op: Fsd, Raw: w, Rs1: rs1, Rs2: rs2, Imm: decodeSImm(w)}
		}
		return Instruction{Op: Unknown, Raw: w}
	case opOpImm:
		return decodeOpImm(w, rd, funct3, rs1)
	case opOp:
		return decodeOp(w, rd, funct3, rs1, rs2, funct7)
	case opFence:
		switch funct3 {
		case 0x0:
			return Instruction{Op: Fence, Raw: w, Pred: uint8((w >> 24) & 0xF), Succ: uint8((w >> 20) & 0xF)}
		case 0x1:
			return Instruction{Op: FenceI, Raw: w}
		}
		return Instruction{Op: Unknown, Raw: w}
	case opSystem:
		return decodeSystem(w, rd, funct3, rs1)
	case opMadd, opMsub, opNmadd, opNmsub:
		return decodeFused(w, uint8(opcode), rd, funct3, rs1, rs2)
	case opOpFP:
		return decodeOpFP(w, rd, funct3, rs1, rs2, funct7)
	}
	return Instruction{Op: Unknown, Raw: w}
}

func decodeIImm(w uint32) int32 {
	return signExtend(w>>20, 12)
}

func decodeSImm(w uint32) int32 {
	v := ((w >> 25) << 5) | ((w >> 7) & 0x1F)
	return signExtend(v, 12)
}

func decodeBImm(w uint32) int32 {
	v := (((w >> 31) & 0x1) << 12) |
		(((w >> 7) & 0x1) << 11) |
		(((w >> 25) & 0x3F) << 5) |
		(((w >> 8) & 0xF) << 1)
	return signExtend(v, 13)
}

func decodeJImm(w uint32) int32 {
	v := (((w >> 31) & 0x1) << 20) |
		(((w >> 12) & 0xFF) << 12) |
		(((w >> 20) & 0x1) << 11) |
		(((w >> 21) & 0x3FF) << 1)
	return signExtend(v, 21)
}

func branchOp(funct3 uint8) (Op, bool) {
	switch funct3 {
	case 0x0:
		return Beq, true
	case 0x1:
		return Bne, true
	case 0x4:
		return Blt, true
	case 0x5:
		return Bge, true
	case 0x6:
		return Bltu, true
	case 0x7:
		return Bgeu, true
	}
	return Unknown, false
}

func loadOp(funct3 uint8) (Op, bool) {
	switch funct3 {
	case 0x0:
		return Lb, true
	case 0x1:
		return Lh, true
	case 0x2:
		return Lw, true
	case 0x4:
		return Lbu, true
	case 0x5:
		return Lhu, true
	}
	return Unknown, false
}

func storeOp(funct3 uint8) (Op, bool) {
	switch funct3 {
	case 0x0:
		return Sb, true
	case 0x1:
		return Sh, true
	case 0x2:
		return Sw, true
	}
	return Unknown, false
}

func decodeOpImm(w uint32, rd, funct3, rs1 uint8) Instruction {
	imm := decodeIImm(w)
	switch funct3 {
	case 0x0:
		return Instruction{Op: Addi, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x2:
		return Instruction{Op: Slti, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x3:
		return Instruction{Op: Sltiu, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x4:
		return Instruction{Op: Xori, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x6:
		return Instruction{Op: Ori, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x7:
		return Instruction{Op: Andi, Raw: w, Rd: rd, Rs1: rs1, Imm: imm}
	case 0x1:
		shamt := int32((w >> 20) & 0x1F)
		return Instruction{Op: Slli, Raw: w, Rd: rd, Rs1: rs1, Imm: shamt}
	case 0x5:
		shamt := int32((w >> 20) & 0x1F)
		top := (w >> 25) & 0x7F
		if top == 0x20 {
			return Instruction{Op: Srai, Raw: w, Rd: rd, Rs1: rs1, Imm: shamt}
		}
		return Instruction{Op: Srli, Raw: w, Rd: rd, Rs1: rs1, Imm: shamt}
	}
	return Instruction{Op: Unknown, Raw: w}
}

func decodeOp(w uint32, rd, funct3, rs1, rs2, funct7 uint8) Instruction {
	base := Instruction{Raw: w, Rd: rd, Rs1: rs1, Rs2: rs2}
	if funct7 == 0x01 {
		switch funct3 {
		case 0x0:
			base.Op = Mul
		case 0x1:
			base.Op = Mulh
		case 0x2:
			base.Op = Mulhsu
		case 0x3:
			base.Op = Mulhu
		case 0x4:
			base.Op = Div
		case 0x5:
			base.Op = Divu
		case 0x6:
			base.Op = Rem
		case 0x7:
			base.Op = Remu
		default:
			base.Op = Unknown
		}
		return base
	}
	switch funct3 {
	case 0x0:
		if funct7 == 0x20 {
			base.Op = Sub
		} else {
			base.Op = Add
		}
	case 0x1:
		base.Op = Sll
	case 0x2:
		base.Op = Slt
	case 0x3:
		base.Op = Sltu
	case 0x4:
		base.Op = Xor
	case 0x5:
		if funct7 == 0x20 {
			base.Op = Sra
		} else {
			base.Op = Srl
		}
	case 0x6:
		base.Op = Or
	case 0x7:
		base.Op = And
	default:
		base.Op = Unknown
	}
	return base
}

// frmCSR is the CSR address of the FP rounding-mode field, per the
// standard RISC-V Zicsr encoding (subset of fcsr, bits [2:0]).
const frmCSR = 0x002

func decodeSystem(w uint32, rd, funct3, rs1 uint8) Instruction {
	csr := uint16(w >> 20)
	switch funct3 {
	case 0x0:
		if rd != 0 || rs1 != 0 {
			return Instruction{Op: Unknown, Raw: w}
		}
		switch csr {
		case 0x000:
			return Instruction{Op: Ecall, Raw: w}
		case 0x001:
			return Instruction{Op: Ebreak, Raw: w}
		}
		return Instruction{Op: Unknown, Raw: w}
	case 0x1: // CSRRW
		if csr == frmCSR {
			return Instruction{Op: Fsrm, Raw: w, Rd: rd, Rs1: rs1}
		}
	case 0x2: // CSRRS
		if csr == frmCSR && rs1 == 0 {
			return Instruction{Op: Frrm, Raw: w, Rd: rd}
		}
	}
	return Instruction{Op: Unknown, Raw: w}
}

func decodeFused(w uint32, opcode uint8, rd, funct3, rs1, rs2 uint8) Instruction {
	rs3 := uint8((w >> 27) & 0x1F)
	fmt := (w >> 25) & 0x3
	base := Instruction{Raw: w, Rd: rd, Rs1: rs1, Rs2: rs2, Rs3: rs3, Rm: funct3}
	double := fmt == 1
	switch opcode {
	case opMadd:
		if double {
			base.Op = FmaddD
		} else {
			base.Op = FmaddS
		}
	case opMsub:
		if double {
			base.Op = FmsubD
		} else {
			base.Op = FmsubS
		}
	case opNmsub:
		if double {
			base.Op = FnmsubD
		} else {
			base.Op = FnmsubS
		}
	case opNmadd:
		if double {
			base.Op = FnmaddD
		} else {
			base.Op = FnmaddS
		}
	}
	if fmt > 1 {
		base.Op = Unknown
	}
	return base
}

func decodeOpFP(w uint32, rd, funct3, rs1, rs2, funct7 uint8) Instruction {
	base := Instruction{Raw: w, Rd: rd, Rs1: rs1, Rs2: rs2, Rm: funct3}
	switch funct7 {
	case 0x00:
		base.Op = FaddS
	case 0x01:
		base.Op = FaddD
	case 0x04:
		base.Op = FsubS
	case 0x05:
		base.Op = FsubD
	case 0x08:
		base.Op = FmulS
	case 0x09:
		base.Op = FmulD
	case 0x0C:
		base.Op = FdivS
	case 0x0D:
		base.Op = FdivD
	case 0x10:
		base.Op = sgnjOp(funct3, false)
	case 0x11:
		base.Op = sgnjOp(funct3, true)
	case 0x14:
		base.Op = minmaxOp(funct3, false)
	case 0x15:
		base.Op = minmaxOp(funct3, true)
	case 0x20:
		base.Op = FcvtSD
	case 0x21:
		base.Op = FcvtDS
	case 0x2C:
		base.Op = FsqrtS
	case 0x2D:
		base.Op = FsqrtD
	case 0x50:
		base.Op = cmpOp(funct3, false)
	case 0x51:
		base.Op = cmpOp(funct3, true)
	case 0x60:
		if rs2 == 1 {
			base.Op = FcvtWuS
		} else {
			base.Op = FcvtWS
		}
	case 0x61:
		if rs2 == 1 {
			base.Op = FcvtWuD
		} else {
			base.Op = FcvtWD
		}
	case 0x68:
		if rs2 == 1 {
			base.Op = FcvtSWu
		} else {
			base.Op = FcvtSW
		}
	case 0x69:
		if rs2 == 1 {
			base.Op = FcvtDWu
		} else {
			base.Op = FcvtDW
		}
	case 0x70:
		if funct3 == 0x1 {
			base.Op = FclassS
		} else {
			base.Op = FmvXW
		}
	case 0x71:
		if funct3 == 0x1 {
			base.Op = FclassD
		} else {
			base.Op = FmvXD
		}
	case 0x78:
		base.Op = FmvWX
	case 0x79:
		base.Op = FmvDX
	default:
		base.Op = Unknown
	}
	return base
}

func sgnjOp(funct3 uint8, double bool) Op {
	switch funct3 {
	case 0:
		if double {
			return FsgnjD
		}
		return FsgnjS
	case 1:
		if double {
			return FsgnjnD
		}
		return FsgnjnS
	case 2:
		if double {
			return FsgnjxD
		}
		return FsgnjxS
	}
	return Unknown
}

func minmaxOp(funct3 uint8, double bool) Op {
	switch funct3 {
	case 0:
		if double {
			return FminD
		}
		return FminS
	case 1:
		if double {
			return FmaxD
		}
		return FmaxS
	}
	return Unknown
}

func cmpOp(funct3 uint8, double bool) Op {
	switch funct3 {
	case 0:
		if double {
			return FleD
		}
		return FleS
	case 1:
		if double {
			return FltD
		}
		return FltS
	case 2:
		if double {
			return FeqD
		}
		return FeqS
	}
	return Unknown
}
