package riscv

// Encode is the reference encoder used for the decode/encode
// round-trip testable property. It writes the standard layout for the
// record's Op, so a word in that layout decodes and re-encodes to
// itself. Decode also accepts some words outside that layout (for
// example integer register-register ops with extra funct7 bits, or
// fence with nonzero fm/rs1/rd fields); Encode writes the standard
// value (zero, in most fields) for bits the record does not keep, so
// such words re-encode to a different word. It takes a decoded record, not assembly text; there
// is no symbol table or assembler front end here.
func Encode(inst Instruction) uint32 {
	switch inst.Op {
	case Lui:
		return encodeU(opLui, inst.Rd, uint32(inst.Imm))
	case Auipc:
		return encodeU(opAuipc, inst.Rd, uint32(inst.Imm))
	case Jal:
		return encodeJ(inst.Rd, inst.Imm)
	case Jalr:
		return encodeI(opJalr, inst.Rd, 0, inst.Rs1, inst.Imm)

	case Beq:
		return encodeB(0x0, inst.Rs1, inst.Rs2, inst.Imm)
	case Bne:
		return encodeB(0x1, inst.Rs1, inst.Rs2, inst.Imm)
	case Blt:
		return encodeB(0x4, inst.Rs1, inst.Rs2, inst.Imm)
	case Bge:
		return encodeB(0x5, inst.Rs1, inst.Rs2, inst.Imm)
	case Bltu:
		return encodeB(0x6, inst.Rs1, inst.Rs2, inst.Imm)
	case Bgeu:
		return encodeB(0x7, inst.Rs1, inst.Rs2, inst.Imm)

	case Lb:
		return encodeI(opLoad, inst.Rd, 0x0, inst.Rs1, inst.Imm)
	case Lh:
		return encodeI(opLoad, inst.Rd, 0x1, inst.Rs1, inst.Imm)
	case Lw:
		return encodeI(opLoad, inst.Rd, 0x2, inst.Rs1, inst.Imm)
	case Lbu:
		return encodeI(opLoad, inst.Rd, 0x4, inst.Rs1, inst.Imm)
	case Lhu:
		return encodeI(opLoad, inst.Rd, 0x5, inst.Rs1, inst.Imm)
	case Sb:
		return encodeS(0x0, inst.Rs1, inst.Rs2, inst.Imm)
	case Sh:
		return encodeS(0x1, inst.Rs1, inst.Rs2, inst.Imm)
	case Sw:
		return encodeS(0x2, inst.Rs1, inst.Rs2, inst.Imm)

	case Flw:
		return encodeI(opLoadFP, inst.Rd, 0x2, inst.Rs1, inst.Imm)
	case Fld:
		return encodeI(opLoadFP, inst.Rd, 0x3, inst.Rs1, inst.Imm)
	case Fsw:
		return encodeS2(opStoreFP, 0x2, inst.Rs1, inst.Rs2, inst.Imm)
	case Fsd:
		return encodeS2(opStoreFP, 0x3, inst.Rs1, inst.Rs2, inst.Imm)

	case Addi:
		return encodeI(opOpImm, inst.Rd, 0x0, inst.Rs1, inst.Imm)
	case Slti:
		return encodeI(opOpImm, inst.Rd, 0x2, inst.Rs1, inst.Imm)
	case Sltiu:
		return encodeI(opOpImm, inst.Rd, 0x3, inst.Rs1, inst.Imm)
	case Xori:
		return encodeI(opOpImm, inst.Rd, 0x4, inst.Rs1, inst.Imm)
	case Ori:
		return encodeI(opOpImm, inst.Rd, 0x6, inst.Rs1, inst.Imm)
	case Andi:
		return encodeI(opOpImm, inst.Rd, 0x7, inst.Rs1, inst.Imm)
	case Slli:
		return encodeShift(0x00, inst.Rd, 0x1, inst.Rs1, inst.Imm)
	case Srli:
		return encodeShift(0x00, inst.Rd, 0x5, inst.Rs1, inst.Imm)
	case Srai:
		return encodeShift(0x20, inst.Rd, 0x5, inst.Rs1, inst.Imm)

	case Add:
		return encodeR(opOp, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x00)
	case Sub:
		return encodeR(opOp, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x20)
	case Sll:
		return encodeR(opOp, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x00)
	case Slt:
		return encodeR(opOp, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x00)
	case Sltu:
		return encodeR(opOp, inst.Rd, 0x3, inst.Rs1, inst.Rs2, 0x00)
	case Xor:
		return encodeR(opOp, inst.Rd, 0x4, inst.Rs1, inst.Rs2, 0x00)
	case Srl:
		return encodeR(opOp, inst.Rd, 0x5, inst.Rs1, inst.Rs2, 0x00)
	case Sra:
		return encodeR(opOp, inst.Rd, 0x5, inst.Rs1, inst.Rs2, 0x20)
	case Or:
		return encodeR(opOp, inst.Rd, 0x6, inst.Rs1, inst.Rs2, 0x00)
	case And:
		return encodeR(opOp, inst.Rd, 0x7, inst.Rs1, inst.Rs2, 0x00)

	case Mul:
		return encodeR(opOp, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x01)
	case Mulh:
		return encodeR(opOp, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x01)
	case Mulhsu:
		return encodeR(opOp, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x01)
	case Mulhu:
		return encodeR(opOp, inst.Rd, 0x3, inst.Rs1, inst.Rs2, 0x01)
	case Div:
		return encodeR(opOp, inst.Rd, 0x4, inst.Rs1, inst.Rs2, 0x01)
	case Divu:
		return encodeR(opOp, inst.Rd, 0x5, inst.Rs1, inst.Rs2, 0x01)
	case Rem:
		return encodeR(opOp, inst.Rd, 0x6, inst.Rs1, inst.Rs2, 0x01)
	case Remu:
		return encodeR(opOp, inst.Rd, 0x7, inst.Rs1, inst.Rs2, 0x01)

	case Fence:
		return opFence | (uint32(inst.Succ)&0xF)<<20 | (uint32(inst.Pred)&0xF)<<24
	case FenceI:
		return opFence | 0x1<<12
	case Ecall:
		return opSystem
	case Ebreak:
		return opSystem | 0x1<<20

	case Frrm:
		return encodeI(opSystem, inst.Rd, 0x2, 0, frmCSR)
	case Fsrm:
		return encodeI(opSystem, inst.Rd, 0x1, inst.Rs1, frmCSR)

	case FaddS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x00)
	case FaddD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x01)
	case FsubS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x04)
	case FsubD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x05)
	case FmulS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x08)
	case FmulD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x09)
	case FdivS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x0C)
	case FdivD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, 0x0D)
	case FsqrtS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x2C)
	case FsqrtD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x2D)
	case FsgnjS:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x10)
	case FsgnjnS:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x10)
	case FsgnjxS:
		return encodeR(opOpFP, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x10)
	case FsgnjD:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x11)
	case FsgnjnD:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x11)
	case FsgnjxD:
		return encodeR(opOpFP, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x11)
	case FminS:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x14)
	case FmaxS:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x14)
	case FminD:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x15)
	case FmaxD:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x15)
	case FcvtSD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 1, 0x20)
	case FcvtDS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x21)
	case FeqS:
		return encodeR(opOpFP, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x50)
	case FltS:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x50)
	case FleS:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x50)
	case FeqD:
		return encodeR(opOpFP, inst.Rd, 0x2, inst.Rs1, inst.Rs2, 0x51)
	case FltD:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, inst.Rs2, 0x51)
	case FleD:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, inst.Rs2, 0x51)
	case FclassS:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, 0, 0x70)
	case FclassD:
		return encodeR(opOpFP, inst.Rd, 0x1, inst.Rs1, 0, 0x71)
	case FcvtWS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x60)
	case FcvtWuS:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 1, 0x60)
	case FcvtWD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x61)
	case FcvtWuD:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 1, 0x61)
	case FcvtSW:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x68)
	case FcvtSWu:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 1, 0x68)
	case FcvtDW:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 0, 0x69)
	case FcvtDWu:
		return encodeR(opOpFP, inst.Rd, inst.Rm, inst.Rs1, 1, 0x69)
	case FmvXW:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, 0, 0x70)
	case FmvXD:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, 0, 0x71)
	case FmvWX:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, 0, 0x78)
	case FmvDX:
		return encodeR(opOpFP, inst.Rd, 0x0, inst.Rs1, 0, 0x79)

	case FmaddS:
		return encodeR4(opMadd, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 0)
	case FmaddD:
		return encodeR4(opMadd, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 1)
	case FmsubS:
		return encodeR4(opMsub, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 0)
	case FmsubD:
		return encodeR4(opMsub, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 1)
	case FnmsubS:
		return encodeR4(opNmsub, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 0)
	case FnmsubD:
		return encodeR4(opNmsub, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 1)
	case FnmaddS:
		return encodeR4(opNmadd, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 0)
	case FnmaddD:
		return encodeR4(opNmadd, inst.Rd, inst.Rm, inst.Rs1, inst.Rs2, inst.Rs3, 1)
	}
	return inst.Raw
}

func encodeR(opcode uint8, rd, funct3, rs1, rs2 uint8, funct7 uint8) uint32 {
	return uint32(opcode) |
		uint32(rd)&0x1F<<7 |
		uint32(funct3)&0x7<<12 |
		uint32(rs1)&0x1F<<15 |
		uint32(rs2)&0x1F<<20 |
		uint32(funct7)&0x7F<<25
}

func encodeR4(opcode uint8, rd, funct3, rs1, rs2, rs3 uint8, fmt uint8) uint32 {
	return uint32(opcode) |
		uint32(rd)&0x1F<<7 |
		uint32(funct3)&0x7<<12 |
		uint32(rs1)&0x1F<<15 |
		uint32(rs2)&0x1F<<20 |
		uint32(fmt)&0x3<<25 |
		uint32(rs3)&0x1F<<27
}

func encodeI(opcode uint8, rd, funct3, rs1 uint8, imm int32) uint32 {
	return uint32(opcode) |
		uint32(rd)&0x1F<<7 |
		uint32(funct3)&0x7<<12 |
		uint32(rs1)&0x1F<<15 |
		(uint32(imm)&0xFFF)<<20
}

func encodeShift(funct7 uint8, rd, funct3, rs1 uint8, shamt int32) uint32 {
	return encodeR(opOpImm, rd, funct3, rs1, uint8(shamt)&0x1F, funct7)
}

func encodeU(opcode uint8, rd uint8, imm uint32) uint32 {
	return uint32(opcode) | uint32(rd)&0x1F<<7 | (imm & 0xFFFFF000)
}

func encodeS(funct3 uint8, rs1, rs2 uint8, imm int32) uint32 {
	return encodeS2(opStore, funct3, rs1, rs2, imm)
}

func encodeS2(opcode uint8, funct3 uint8, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return uint32(opcode) |
		(u&0x1F)<<7 |
		uint32(funct3)&0x7<<12 |
		uint32(rs1)&0x1F<<15 |
		uint32(rs2)&0x1F<<20 |
		((u>>5)&0x7F)<<25
}

func encodeB(funct3 uint8, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	bit11 := (u >> 11) & 0x1
	bit12 := (u >> 12) & 0x1
	bits4_1 := (u >> 1) & 0xF
	bits10_5 := (u >> 5) & 0x3F
	return opBranch |
		bit11<<7 |
		bits4_1<<8 |
		uint32(funct3)&0x7<<12 |
		uint32(rs1)&0x1F<<15 |
		uint32(rs2)&0x1F<<20 |
		bits10_5<<25 |
		bit12<<31
}

func encodeJ(rd uint8, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 0x1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 0x1
	bits19_12 := (u >> 12) & 0xFF
	return opJal |
		uint32(rd)&0x1F<<7 |
		bits19_12<<12 |
		bit11<<20 |
		bits10_1<<21 |
		bit20<<31
}
