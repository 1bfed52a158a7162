package vm

import (
	"math"

	"github.com/lookbusy1344/arm-emulator/riscv"
)

func isFPArith(op riscv.Op) bool {
	switch op {
	case riscv.FaddS, riscv.FsubS, riscv.FmulS, riscv.FdivS, riscv.FsqrtS,
		riscv.FsgnjS, riscv.FsgnjnS, riscv.FsgnjxS, riscv.FminS, riscv.FmaxS,
		riscv.FmaddS, riscv.FmsubS, riscv.FnmaddS, riscv.FnmsubS,
		riscv.FaddD, riscv.FsubD, riscv.FmulD, riscv.FdivD, riscv.FsqrtD,
		riscv.FsgnjD, riscv.FsgnjnD, riscv.FsgnjxD, riscv.FminD, riscv.FmaxD,
		riscv.FmaddD, riscv.FmsubD, riscv.FnmaddD, riscv.FnmsubD,
		riscv.FcvtWS, riscv.FcvtWuS, riscv.FcvtSW, riscv.FcvtSWu,
		riscv.FcvtWD, riscv.FcvtWuD, riscv.FcvtDW, riscv.FcvtDWu,
		riscv.FcvtSD, riscv.FcvtDS,
		riscv.FeqS, riscv.FltS, riscv.FleS, riscv.FeqD, riscv.FltD, riscv.FleD,
		riscv.FclassS, riscv.FclassD, riscv.FmvWX, riscv.FmvXW:
		return true
	}
	return false
}

// execFP dispatches the FP arithmetic family. Rounding mode is accepted
// in the encoding (inst.Rm) but the core always applies the host
// default rounding; FCSR's accrued flags are never updated (§9).
func (e *Engine) execFP(inst riscv.Instruction) error {
	switch inst.Op {
	case riscv.FaddS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)+e.FP.ReadSingle(inst.Rs2))
	case riscv.FsubS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)-e.FP.ReadSingle(inst.Rs2))
	case riscv.FmulS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)*e.FP.ReadSingle(inst.Rs2))
	case riscv.FdivS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)/e.FP.ReadSingle(inst.Rs2))
	case riscv.FsqrtS:
		e.FP.WriteSingle(inst.Rd, float32(math.Sqrt(float64(e.FP.ReadSingle(inst.Rs1)))))
	case riscv.FmaddS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)*e.FP.ReadSingle(inst.Rs2)+e.FP.ReadSingle(inst.Rs3))
	case riscv.FmsubS:
		e.FP.WriteSingle(inst.Rd, e.FP.ReadSingle(inst.Rs1)*e.FP.ReadSingle(inst.Rs2)-e.FP.ReadSingle(inst.Rs3))
	case riscv.FnmaddS:
		e.FP.WriteSingle(inst.Rd, -(e.FP.ReadSingle(inst.Rs1)*e.FP.ReadSingle(inst.Rs2)+e.FP.ReadSingle(inst.Rs3)))
	case riscv.FnmsubS:
		e.FP.WriteSingle(inst.Rd, -(e.FP.ReadSingle(inst.Rs1)*e.FP.ReadSingle(inst.Rs2)-e.FP.ReadSingle(inst.Rs3)))
	case riscv.FminS:
		e.FP.WriteSingle(inst.Rd, fminF32(e.FP.ReadSingle(inst.Rs1), e.FP.ReadSingle(inst.Rs2)))
	case riscv.FmaxS:
		e.FP.WriteSingle(inst.Rd, fmaxF32(e.FP.ReadSingle(inst.Rs1), e.FP.ReadSingle(inst.Rs2)))
	case riscv.FsgnjS:
		e.FP.WriteBits(inst.Rd, sgnj32(e.FP.ReadBits(inst.Rs1), e.FP.ReadBits(inst.Rs2), false, false))
	case riscv.FsgnjnS:
		e.FP.WriteBits(inst.Rd, sgnj32(e.FP.ReadBits(inst.Rs1), e.FP.ReadBits(inst.Rs2), true, false))
	case riscv.FsgnjxS:
		e.FP.WriteBits(inst.Rd, sgnj32(e.FP.ReadBits(inst.Rs1), e.FP.ReadBits(inst.Rs2), false, true))

	case riscv.FaddD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)+e.FP.ReadDouble(inst.Rs2))
	case riscv.FsubD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)-e.FP.ReadDouble(inst.Rs2))
	case riscv.FmulD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)*e.FP.ReadDouble(inst.Rs2))
	case riscv.FdivD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)/e.FP.ReadDouble(inst.Rs2))
	case riscv.FsqrtD:
		e.FP.WriteDouble(inst.Rd, math.Sqrt(e.FP.ReadDouble(inst.Rs1)))
	case riscv.FmaddD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)*e.FP.ReadDouble(inst.Rs2)+e.FP.ReadDouble(inst.Rs3))
	case riscv.FmsubD:
		e.FP.WriteDouble(inst.Rd, e.FP.ReadDouble(inst.Rs1)*e.FP.ReadDouble(inst.Rs2)-e.FP.ReadDouble(inst.Rs3))
	case riscv.FnmaddD:
		e.FP.WriteDouble(inst.Rd, -(e.FP.ReadDouble(inst.Rs1)*e.FP.ReadDouble(inst.Rs2)+e.FP.ReadDouble(inst.Rs3)))
	case riscv.FnmsubD:
		e.FP.WriteDouble(inst.Rd, -(e.FP.ReadDouble(inst.Rs1)*e.FP.ReadDouble(inst.Rs2)-e.FP.ReadDouble(inst.Rs3)))
	case riscv.FminD:
		e.FP.WriteDouble(inst.Rd, fminF64(e.FP.ReadDouble(inst.Rs1), e.FP.ReadDouble(inst.Rs2)))
	case riscv.FmaxD:
		e.FP.WriteDouble(inst.Rd, fmaxF64(e.FP.ReadDouble(inst.Rs1), e.FP.ReadDouble(inst.Rs2)))
	case riscv.FsgnjD:
		e.FP.SetRaw64(inst.Rd, sgnj64(e.FP.Raw64(inst.Rs1), e.FP.Raw64(inst.Rs2), false, false))
	case riscv.FsgnjnD:
		e.FP.SetRaw64(inst.Rd, sgnj64(e.FP.Raw64(inst.Rs1), e.FP.Raw64(inst.Rs2), true, false))
	case riscv.FsgnjxD:
		e.FP.SetRaw64(inst.Rd, sgnj64(e.FP.Raw64(inst.Rs1), e.FP.Raw64(inst.Rs2), false, true))

	case riscv.FcvtWS:
		e.Int.Write(inst.Rd, f32ToI32(e.FP.ReadSingle(inst.Rs1)))
	case riscv.FcvtWuS:
		e.Int.WriteU(inst.Rd, f32ToU32(e.FP.ReadSingle(inst.Rs1)))
	case riscv.FcvtSW:
		e.FP.WriteSingle(inst.Rd, float32(e.Int.Read(inst.Rs1)))
	case riscv.FcvtSWu:
		e.FP.WriteSingle(inst.Rd, float32(e.Int.ReadU(inst.Rs1)))
	case riscv.FcvtWD:
		e.Int.Write(inst.Rd, f64ToI32(e.FP.ReadDouble(inst.Rs1)))
	case riscv.FcvtWuD:
		e.Int.WriteU(inst.Rd, f64ToU32(e.FP.ReadDouble(inst.Rs1)))
	case riscv.FcvtDW:
		e.FP.WriteDouble(inst.Rd, float64(e.Int.Read(inst.Rs1)))
	case riscv.FcvtDWu:
		e.FP.WriteDouble(inst.Rd, float64(e.Int.ReadU(inst.Rs1)))
	case riscv.FcvtSD:
		e.FP.WriteSingle(inst.Rd, float32(e.FP.ReadDouble(inst.Rs1)))
	case riscv.FcvtDS:
		e.FP.WriteDouble(inst.Rd, float64(e.FP.ReadSingle(inst.Rs1)))

	case riscv.FeqS:
		e.Int.Write(inst.Rd, boolToI32(!fnan32(e.FP.ReadSingle(inst.Rs1)) && !fnan32(e.FP.ReadSingle(inst.Rs2)) && e.FP.ReadSingle(inst.Rs1) == e.FP.ReadSingle(inst.Rs2)))
	case riscv.FltS:
		e.Int.Write(inst.Rd, boolToI32(!fnan32(e.FP.ReadSingle(inst.Rs1)) && !fnan32(e.FP.ReadSingle(inst.Rs2)) && e.FP.ReadSingle(inst.Rs1) < e.FP.ReadSingle(inst.Rs2)))
	case riscv.FleS:
		e.Int.Write(inst.Rd, boolToI32(!fnan32(e.FP.ReadSingle(inst.Rs1)) && !fnan32(e.FP.ReadSingle(inst.Rs2)) && e.FP.ReadSingle(inst.Rs1) <= e.FP.ReadSingle(inst.Rs2)))
	case riscv.FeqD:
		e.Int.Write(inst.Rd, boolToI32(!math.IsNaN(e.FP.ReadDouble(inst.Rs1)) && !math.IsNaN(e.FP.ReadDouble(inst.Rs2)) && e.FP.ReadDouble(inst.Rs1) == e.FP.ReadDouble(inst.Rs2)))
	case riscv.FltD:
		e.Int.Write(inst.Rd, boolToI32(!math.IsNaN(e.FP.ReadDouble(inst.Rs1)) && !math.IsNaN(e.FP.ReadDouble(inst.Rs2)) && e.FP.ReadDouble(inst.Rs1) < e.FP.ReadDouble(inst.Rs2)))
	case riscv.FleD:
		e.Int.Write(inst.Rd, boolToI32(!math.IsNaN(e.FP.ReadDouble(inst.Rs1)) && !math.IsNaN(e.FP.ReadDouble(inst.Rs2)) && e.FP.ReadDouble(inst.Rs1) <= e.FP.ReadDouble(inst.Rs2)))

	case riscv.FclassS:
		e.Int.WriteU(inst.Rd, classify32(e.FP.ReadBits(inst.Rs1)))
	case riscv.FclassD:
		e.Int.WriteU(inst.Rd, classify64(e.FP.Raw64(inst.Rs1)))

	case riscv.FmvWX:
		e.FP.WriteBits(inst.Rd, e.Int.ReadU(inst.Rs1))
	case riscv.FmvXW:
		e.Int.WriteU(inst.Rd, e.FP.ReadBits(inst.Rs1))
	}
	return nil
}

func fnan32(v float32) bool { return v != v }

func fminF32(a, b float32) float32 {
	if fnan32(a) {
		if fnan32(b) {
			return a
		}
		return b
	}
	if fnan32(b) {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func fmaxF32(a, b float32) float32 {
	if fnan32(a) {
		if fnan32(b) {
			return a
		}
		return b
	}
	if fnan32(b) {
		return a
	}
	if a > b {
		return a
	}
	return b
}

func fminF64(a, b float64) float64 {
	if math.IsNaN(a) {
		if math.IsNaN(b) {
			return a
		}
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return math.Min(a, b)
}

func fmaxF64(a, b float64) float64 {
	if math.IsNaN(a) {
		if math.IsNaN(b) {
			return a
		}
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return math.Max(a, b)
}

// sgnj32/sgnj64 implement the three sign-injection variants: neg
// negates rs2's sign before use, xor combines rs1 and rs2's signs.
func sgnj32(rs1bits, rs2bits uint32, neg, xor bool) uint32 {
	mag := rs1bits & 0x7FFFFFFF
	var sign uint32
	switch {
	case xor:
		sign = (rs1bits ^ rs2bits) & 0x80000000
	case neg:
		sign = (^rs2bits) & 0x80000000
	default:
		sign = rs2bits & 0x80000000
	}
	return mag | sign
}

func sgnj64(rs1bits, rs2bits uint64, neg, xor bool) uint64 {
	mag := rs1bits & 0x7FFFFFFFFFFFFFFF
	var sign uint64
	switch {
	case xor:
		sign = (rs1bits ^ rs2bits) & 0x8000000000000000
	case neg:
		sign = (^rs2bits) & 0x8000000000000000
	default:
		sign = rs2bits & 0x8000000000000000
	}
	return mag | sign
}

// fclass bit positions, per the RISC-V F/D extension.
const (
	classNegInf      = 1 << 0
	classNegNormal   = 1 << 1
	classNegSubnorm  = 1 << 2
	classNegZero     = 1 << 3
	classPosZero     = 1 << 4
	classPosSubnorm  = 1 << 5
	classPosNormal   = 1 << 6
	classPosInf      = 1 << 7
	classSignalingNaN = 1 << 8
	classQuietNaN    = 1 << 9
)

func classify32(bits uint32) uint32 {
	sign := bits&0x80000000 != 0
	exp := (bits >> 23) & 0xFF
	frac := bits & 0x7FFFFF

	switch {
	case exp == 0xFF && frac != 0:
		if frac&0x400000 != 0 {
			return classQuietNaN
		}
		return classSignalingNaN
	case exp == 0xFF:
		if sign {
			return classNegInf
		}
		return classPosInf
	case exp == 0 && frac == 0:
		if sign {
			return classNegZero
		}
		return classPosZero
	case exp == 0:
		if sign {
			return classNegSubnorm
		}
		return classPosSubnorm
	default:
		if sign {
			return classNegNormal
		}
		return classPosNormal
	}
}

func classify64(bits uint64) uint32 {
	sign := bits&0x8000000000000000 != 0
	exp := (bits >> 52) & 0x7FF
	frac := bits & 0xFFFFFFFFFFFFF

	switch {
	case exp == 0x7FF && frac != 0:
		if frac&0x8000000000000 != 0 {
			return classQuietNaN
		}
		return classSignalingNaN
	case exp == 0x7FF:
		if sign {
			return classNegInf
		}
		return classPosInf
	case exp == 0 && frac == 0:
		if sign {
			return classNegZero
		}
		return classPosZero
	case exp == 0:
		if sign {
			return classNegSubnorm
		}
		return classPosSubnorm
	default:
		if sign {
			return classNegNormal
		}
		return classPosNormal
	}
}
