package vm

import "math"

// RISC-V integer calling-convention register indices used by the
// syscall and intercept ABI.
const (
	regA0 = 10
	regA1 = 11
	regA2 = 12
	regA3 = 13
	regA4 = 14
	regA5 = 15
	regA6 = 16
	regA7 = 17
)

// runIntercept executes the host-native implementation of one of the
// five recognised C library routines against guest memory, using the
// C ABI argument registers (a0/a1/a2) or, for cos/sin, FP register f10.
func (e *Engine) runIntercept(name string) error {
	switch name {
	case "memset":
		dst := e.Int.ReadU(regA0)
		val := byte(e.Int.ReadU(regA1))
		n := e.Int.ReadU(regA2)
		if err := e.Mem.Memset(dst, val, n); err != nil {
			return err
		}
		e.Int.WriteU(regA0, dst)
	case "memcpy":
		dst := e.Int.ReadU(regA0)
		src := e.Int.ReadU(regA1)
		n := e.Int.ReadU(regA2)
		if err := e.Mem.Memcpy(dst, src, n); err != nil {
			return err
		}
		e.Int.WriteU(regA0, dst)
	case "memmove":
		dst := e.Int.ReadU(regA0)
		src := e.Int.ReadU(regA1)
		n := e.Int.ReadU(regA2)
		if err := e.Mem.Memmove(dst, src, n); err != nil {
			return err
		}
		e.Int.WriteU(regA0, dst)
	case "cos":
		e.FP.WriteDouble(10, math.Cos(e.FP.ReadDouble(10)))
	case "sin":
		e.FP.WriteDouble(10, math.Sin(e.FP.ReadDouble(10)))
	}
	return nil
}
