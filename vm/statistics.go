package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Statistics is the optional run accumulator reported at exit when
// --stats is supplied: instructions retired, syscalls serviced,
// intercepts taken, and wall time.
type Statistics struct {
	Instructions uint64        `json:"instructions"`
	Syscalls     uint64        `json:"syscalls"`
	Intercepts   uint64        `json:"intercepts"`
	WallTime     time.Duration `json:"wall_time_ns"`
}

// String renders a short human-readable summary.
func (s Statistics) String() string {
	return fmt.Sprintf("instructions=%d syscalls=%d intercepts=%d wall=%s",
		s.Instructions, s.Syscalls, s.Intercepts, s.WallTime)
}

// ExportJSON writes the statistics as a JSON document.
func (s Statistics) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding run statistics: %w", err)
	}
	return nil
}
