package vm

import "math"

// IntRegs is the integer register bank: 32 signed 32-bit words. Index 0
// is hardwired to zero, per the I-extension ABI.
type IntRegs struct {
	r [32]int32
}

// Read returns the value held at index i, or zero for i == 0.
func (b *IntRegs) Read(i uint8) int32 {
	if i == 0 {
		return 0
	}
	return b.r[i]
}

// ReadU is Read reinterpreted as unsigned, the shape most engine
// dispatch sites want for address and shift-amount arithmetic.
func (b *IntRegs) ReadU(i uint8) uint32 {
	return uint32(b.Read(i))
}

// Write stores v at index i. Writes to index 0 are silently discarded.
func (b *IntRegs) Write(i uint8, v int32) {
	if i == 0 {
		return
	}
	b.r[i] = v
}

// WriteU is Write taking the unsigned shape most dispatch sites produce.
func (b *IntRegs) WriteU(i uint8, v uint32) {
	b.Write(i, int32(v))
}

// FPRegs is the floating-point register bank: 32 entries, each wide
// enough to hold a double. Single-precision values are NaN-boxed per
// the RISC-V D-extension convention (value in the low 32 bits, upper
// 32 bits all ones), so a single underlying uint64 backs all three
// views.
type FPRegs struct {
	r [32]uint64
}

const nanBoxUpper = 0xFFFFFFFF00000000

// ReadDouble returns the double-precision interpretation of entry i.
func (b *FPRegs) ReadDouble(i uint8) float64 {
	return math.Float64frombits(b.r[i])
}

// WriteDouble stores a double-precision value at entry i.
func (b *FPRegs) WriteDouble(i uint8, v float64) {
	b.r[i] = math.Float64bits(v)
}

// ReadSingle returns the single-precision interpretation of entry i.
// A value that is not properly NaN-boxed is architecturally a quiet
// NaN; this bank enforces that reading rule.
func (b *FPRegs) ReadSingle(i uint8) float32 {
	raw := b.r[i]
	if raw&nanBoxUpper != nanBoxUpper {
		return float32(math.NaN())
	}
	return math.Float32frombits(uint32(raw))
}

// WriteSingle stores a single-precision value in the low 32 bits of
// entry i, NaN-boxed by setting the upper 32 bits to all ones.
func (b *FPRegs) WriteSingle(i uint8, v float32) {
	b.r[i] = nanBoxUpper | uint64(math.Float32bits(v))
}

// Raw64 returns the raw 64-bit storage of entry i, for fld/fsd.
func (b *FPRegs) Raw64(i uint8) uint64 {
	return b.r[i]
}

// SetRaw64 overwrites the raw 64-bit storage of entry i, for fld/fsd.
func (b *FPRegs) SetRaw64(i uint8, v uint64) {
	b.r[i] = v
}

// ReadBits returns the raw low 32 bits of entry i, for fmv.x.w.
func (b *FPRegs) ReadBits(i uint8) uint32 {
	return uint32(b.r[i])
}

// WriteBits stores a raw 32-bit pattern at entry i, NaN-boxed, for fmv.w.x.
func (b *FPRegs) WriteBits(i uint8, v uint32) {
	b.r[i] = nanBoxUpper | uint64(v)
}

// RoundingMode is the three-bit dynamic rounding-mode encoding carried
// in FCSR. The core accepts but does not act on any value other than
// the default: arithmetic always uses the host's round-to-nearest-even
// behaviour (§9 of the design).
type RoundingMode uint8

const (
	RneMode RoundingMode = 0b000
	RtzMode RoundingMode = 0b001
	RdnMode RoundingMode = 0b010
	RupMode RoundingMode = 0b011
	RmmMode RoundingMode = 0b100
	DynMode RoundingMode = 0b111
)

// FCSR is the floating-point control and status register: a dynamic
// rounding mode plus five accrued exception flags. The flags are
// architecturally present but never set by this core (§9).
type FCSR struct {
	RM    RoundingMode
	NV    bool // invalid operation
	DZ    bool // divide by zero
	OF    bool // overflow
	UF    bool // underflow
	NX    bool // inexact
}

func isReservedRM(v uint8) bool {
	return v == 0b101 || v == 0b110
}

// ReadRM returns the current rounding mode as its three-bit encoding.
func (f *FCSR) ReadRM() uint8 {
	return uint8(f.RM)
}

// WriteRM installs a new rounding mode, returning the previous value.
// Reserved encodings (0b101, 0b110) are rejected with BadRM.
func (f *FCSR) WriteRM(v uint8) (uint8, error) {
	if isReservedRM(v) {
		return 0, errBadRM(v)
	}
	prev := f.ReadRM()
	f.RM = RoundingMode(v)
	return prev, nil
}
