package vm

import "github.com/lookbusy1344/arm-emulator/riscv"

// dispatch executes one decoded instruction and reports how pc should
// move. pc is the address the instruction was fetched from.
func (e *Engine) dispatch(pc uint32, inst riscv.Instruction) (outcome, uint32, error) {
	switch inst.Op {
	case riscv.Lui:
		e.Int.WriteU(inst.Rd, uint32(inst.Imm))
		return outContinue, 0, nil
	case riscv.Auipc:
		e.Int.WriteU(inst.Rd, pc+uint32(inst.Imm))
		return outContinue, 0, nil

	case riscv.Jal:
		e.Int.WriteU(inst.Rd, pc+4)
		target := pc + uint32(inst.Imm)
		if inst.Rd == 1 {
			return outCall, target, nil
		}
		return outJump, target, nil
	case riscv.Jalr:
		target := (e.Int.ReadU(inst.Rs1) + uint32(inst.Imm)) &^ 1
		e.Int.WriteU(inst.Rd, pc+4)
		if inst.Rd == 1 {
			return outCall, target, nil
		}
		return outJump, target, nil

	case riscv.Beq:
		return e.branch(pc, inst, e.Int.Read(inst.Rs1) == e.Int.Read(inst.Rs2))
	case riscv.Bne:
		return e.branch(pc, inst, e.Int.Read(inst.Rs1) != e.Int.Read(inst.Rs2))
	case riscv.Blt:
		return e.branch(pc, inst, e.Int.Read(inst.Rs1) < e.Int.Read(inst.Rs2))
	case riscv.Bge:
		return e.branch(pc, inst, e.Int.Read(inst.Rs1) >= e.Int.Read(inst.Rs2))
	case riscv.Bltu:
		return e.branch(pc, inst, e.Int.ReadU(inst.Rs1) < e.Int.ReadU(inst.Rs2))
	case riscv.Bgeu:
		return e.branch(pc, inst, e.Int.ReadU(inst.Rs1) >= e.Int.ReadU(inst.Rs2))

	case riscv.Lb, riscv.Lh, riscv.Lw, riscv.Lbu, riscv.Lhu:
		return outContinue, 0, e.execLoad(inst)
	case riscv.Sb, riscv.Sh, riscv.Sw:
		return outContinue, 0, e.execStore(inst)
	case riscv.Flw, riscv.Fld:
		return outContinue, 0, e.execLoadFP(inst)
	case riscv.Fsw, riscv.Fsd:
		return outContinue, 0, e.execStoreFP(inst)

	case riscv.Addi:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)+uint32(inst.Imm))
		return outContinue, 0, nil
	case riscv.Slti:
		e.Int.Write(inst.Rd, boolToI32(e.Int.Read(inst.Rs1) < inst.Imm))
		return outContinue, 0, nil
	case riscv.Sltiu:
		e.Int.Write(inst.Rd, boolToI32(e.Int.ReadU(inst.Rs1) < uint32(inst.Imm)))
		return outContinue, 0, nil
	case riscv.Xori:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)^uint32(inst.Imm))
		return outContinue, 0, nil
	case riscv.Ori:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)|uint32(inst.Imm))
		return outContinue, 0, nil
	case riscv.Andi:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)&uint32(inst.Imm))
		return outContinue, 0, nil
	case riscv.Slli:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)<<(uint32(inst.Imm)&0x1F))
		return outContinue, 0, nil
	case riscv.Srli:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)>>(uint32(inst.Imm)&0x1F))
		return outContinue, 0, nil
	case riscv.Srai:
		e.Int.Write(inst.Rd, e.Int.Read(inst.Rs1)>>(uint32(inst.Imm)&0x1F))
		return outContinue, 0, nil

	case riscv.Add:
		e.Int.Write(inst.Rd, e.Int.Read(inst.Rs1)+e.Int.Read(inst.Rs2))
		return outContinue, 0, nil
	case riscv.Sub:
		e.Int.Write(inst.Rd, e.Int.Read(inst.Rs1)-e.Int.Read(inst.Rs2))
		return outContinue, 0, nil
	case riscv.Sll:
		shamt := e.Int.ReadU(inst.Rs2) & 0x1F
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)<<shamt)
		return outContinue, 0, nil
	case riscv.Slt:
		e.Int.Write(inst.Rd, boolToI32(e.Int.Read(inst.Rs1) < e.Int.Read(inst.Rs2)))
		return outContinue, 0, nil
	case riscv.Sltu:
		e.Int.Write(inst.Rd, boolToI32(e.Int.ReadU(inst.Rs1) < e.Int.ReadU(inst.Rs2)))
		return outContinue, 0, nil
	case riscv.Xor:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)^e.Int.ReadU(inst.Rs2))
		return outContinue, 0, nil
	case riscv.Srl:
		shamt := e.Int.ReadU(inst.Rs2) & 0x1F
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)>>shamt)
		return outContinue, 0, nil
	case riscv.Sra:
		shamt := e.Int.ReadU(inst.Rs2) & 0x1F
		e.Int.Write(inst.Rd, e.Int.Read(inst.Rs1)>>shamt)
		return outContinue, 0, nil
	case riscv.Or:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)|e.Int.ReadU(inst.Rs2))
		return outContinue, 0, nil
	case riscv.And:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)&e.Int.ReadU(inst.Rs2))
		return outContinue, 0, nil

	case riscv.Mul:
		e.Int.WriteU(inst.Rd, e.Int.ReadU(inst.Rs1)*e.Int.ReadU(inst.Rs2))
		return outContinue, 0, nil
	case riscv.Mulh:
		a := int64(e.Int.Read(inst.Rs1))
		b := int64(e.Int.Read(inst.Rs2))
		e.Int.WriteU(inst.Rd, uint32((a*b)>>32))
		return outContinue, 0, nil
	case riscv.Mulhu:
		a := uint64(e.Int.ReadU(inst.Rs1))
		b := uint64(e.Int.ReadU(inst.Rs2))
		e.Int.WriteU(inst.Rd, uint32((a*b)>>32))
		return outContinue, 0, nil
	case riscv.Mulhsu:
		a := int64(e.Int.Read(inst.Rs1))
		b := int64(e.Int.ReadU(inst.Rs2))
		e.Int.WriteU(inst.Rd, uint32((a*b)>>32))
		return outContinue, 0, nil
	case riscv.Div:
		a, b := e.Int.Read(inst.Rs1), e.Int.Read(inst.Rs2)
		switch {
		case b == 0:
			e.Int.Write(inst.Rd, -1)
		case a == -2147483648 && b == -1:
			e.Int.Write(inst.Rd, -2147483648)
		default:
			e.Int.Write(inst.Rd, a/b)
		}
		return outContinue, 0, nil
	case riscv.Divu:
		a, b := e.Int.ReadU(inst.Rs1), e.Int.ReadU(inst.Rs2)
		if b == 0 {
			e.Int.WriteU(inst.Rd, 0xFFFFFFFF)
		} else {
			e.Int.WriteU(inst.Rd, a/b)
		}
		return outContinue, 0, nil
	case riscv.Rem:
		a, b := e.Int.Read(inst.Rs1), e.Int.Read(inst.Rs2)
		switch {
		case b == 0:
			e.Int.Write(inst.Rd, a)
		case a == -2147483648 && b == -1:
			e.Int.Write(inst.Rd, 0)
		default:
			e.Int.Write(inst.Rd, a%b)
		}
		return outContinue, 0, nil
	case riscv.Remu:
		a, b := e.Int.ReadU(inst.Rs1), e.Int.ReadU(inst.Rs2)
		if b == 0 {
			e.Int.WriteU(inst.Rd, a)
		} else {
			e.Int.WriteU(inst.Rd, a%b)
		}
		return outContinue, 0, nil

	case riscv.Fence, riscv.FenceI:
		return outContinue, 0, nil

	case riscv.Ecall:
		return e.execSyscall()
	case riscv.Ebreak:
		return outContinue, 0, errBreak(pc)

	case riscv.Frrm:
		e.Int.WriteU(inst.Rd, uint32(e.FCSR.ReadRM()))
		return outContinue, 0, nil
	case riscv.Fsrm:
		prev, err := e.FCSR.WriteRM(uint8(e.Int.ReadU(inst.Rs1)))
		if err != nil {
			return outContinue, 0, err
		}
		e.Int.WriteU(inst.Rd, uint32(prev))
		return outContinue, 0, nil

	case riscv.FmvXD, riscv.FmvDX:
		return outContinue, 0, errUnsupported("fmv.x.d/fmv.d.x")
	}

	// Everything FP-arithmetic-shaped is handled in fpu.go.
	if isFPArith(inst.Op) {
		return outContinue, 0, e.execFP(inst)
	}

	return outContinue, 0, errBadOpcode(pc, inst.Raw)
}

func (e *Engine) branch(pc uint32, inst riscv.Instruction, taken bool) (outcome, uint32, error) {
	if !taken {
		return outContinue, 0, nil
	}
	return outJump, pc + uint32(inst.Imm), nil
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (e *Engine) effectiveAddr(inst riscv.Instruction) uint32 {
	return e.Int.ReadU(inst.Rs1) + uint32(inst.Imm)
}

func (e *Engine) execLoad(inst riscv.Instruction) error {
	addr := e.effectiveAddr(inst)
	switch inst.Op {
	case riscv.Lb:
		v, err := e.Mem.ReadByte(addr)
		if err != nil {
			return err
		}
		e.Int.Write(inst.Rd, int32(int8(v)))
	case riscv.Lbu:
		v, err := e.Mem.ReadByte(addr)
		if err != nil {
			return err
		}
		e.Int.WriteU(inst.Rd, uint32(v))
	case riscv.Lh:
		v, err := e.Mem.ReadHalf(addr)
		if err != nil {
			return err
		}
		e.Int.Write(inst.Rd, int32(int16(v)))
	case riscv.Lhu:
		v, err := e.Mem.ReadHalf(addr)
		if err != nil {
			return err
		}
		e.Int.WriteU(inst.Rd, uint32(v))
	case riscv.Lw:
		v, err := e.Mem.ReadWord(addr)
		if err != nil {
			return err
		}
		e.Int.WriteU(inst.Rd, v)
	}
	return nil
}

func (e *Engine) execStore(inst riscv.Instruction) error {
	addr := e.effectiveAddr(inst)
	v := e.Int.ReadU(inst.Rs2)
	switch inst.Op {
	case riscv.Sb:
		return e.Mem.WriteByte(addr, byte(v))
	case riscv.Sh:
		return e.Mem.WriteHalf(addr, uint16(v))
	case riscv.Sw:
		return e.Mem.WriteWord(addr, v)
	}
	return nil
}

func (e *Engine) execLoadFP(inst riscv.Instruction) error {
	addr := e.effectiveAddr(inst)
	switch inst.Op {
	case riscv.Flw:
		v, err := e.Mem.ReadWord(addr)
		if err != nil {
			return err
		}
		e.FP.WriteBits(inst.Rd, v)
	case riscv.Fld:
		v, err := e.Mem.ReadDouble(addr)
		if err != nil {
			return err
		}
		e.FP.SetRaw64(inst.Rd, v)
	}
	return nil
}

func (e *Engine) execStoreFP(inst riscv.Instruction) error {
	addr := e.effectiveAddr(inst)
	switch inst.Op {
	case riscv.Fsw:
		return e.Mem.WriteWord(addr, e.FP.ReadBits(inst.Rs2))
	case riscv.Fsd:
		return e.Mem.WriteDouble(addr, e.FP.Raw64(inst.Rs2))
	}
	return nil
}
