package vm

import (
	"fmt"
	"math"
)

// SafeUint64ToUint32 narrows a 64-bit field taken from untrusted ELF
// input (an entry point or a symbol address) to the 32-bit address
// space this core operates in. Returns an error instead of silently
// truncating when the value does not fit.
func SafeUint64ToUint32(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("value 0x%X exceeds the 32-bit address space", v)
	}
	return uint32(v), nil
}
