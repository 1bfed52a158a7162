package vm

import (
	"math"
	"testing"
)

func TestSafeUint64ToUint32(t *testing.T) {
	tests := []struct {
		input     uint64
		expected  uint32
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint32, math.MaxUint32, false},
		{math.MaxUint32 + 1, 0, true},
		{math.MaxUint64, 0, true},
	}

	for _, tt := range tests {
		result, err := SafeUint64ToUint32(tt.input)
		if tt.shouldErr {
			if err == nil {
				t.Errorf("SafeUint64ToUint32(%d) expected error but got none", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("SafeUint64ToUint32(%d) unexpected error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("SafeUint64ToUint32(%d) = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}
