package loader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildMinimalELF32 hand-assembles the smallest possible 32-bit
// little-endian ELF executable with a single PT_LOAD segment
// containing code, so the loader can be exercised without a real
// toolchain in the test environment.
func buildMinimalELF32(t *testing.T, code []byte, vaddr, entry uint32) []byte {
	t.Helper()
	const (
		ehsize = 52
		phsize = 32
	)
	buf := make([]byte, ehsize+phsize+len(code))

	copy(buf[0:4], []byte{0x7F, 'E', 'L', 'F'})
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)   // e_type = ET_EXEC
	le.PutUint16(buf[18:], 243) // e_machine = EM_RISCV
	le.PutUint32(buf[20:], 1)   // e_version
	le.PutUint32(buf[24:], entry)
	le.PutUint32(buf[28:], ehsize) // e_phoff
	le.PutUint32(buf[32:], 0)      // e_shoff
	le.PutUint32(buf[36:], 0)      // e_flags
	le.PutUint16(buf[40:], ehsize)
	le.PutUint16(buf[42:], phsize)
	le.PutUint16(buf[44:], 1) // e_phnum
	le.PutUint16(buf[46:], 0)
	le.PutUint16(buf[48:], 0)
	le.PutUint16(buf[50:], 0)

	ph := buf[ehsize:]
	le.PutUint32(ph[0:], 1)             // p_type = PT_LOAD
	le.PutUint32(ph[4:], ehsize+phsize) // p_offset
	le.PutUint32(ph[8:], vaddr)         // p_vaddr
	le.PutUint32(ph[12:], vaddr)        // p_paddr
	le.PutUint32(ph[16:], uint32(len(code)))
	le.PutUint32(ph[20:], uint32(len(code)))
	le.PutUint32(ph[24:], 5) // PF_X | PF_R
	le.PutUint32(ph[28:], 4)

	copy(buf[ehsize+phsize:], code)
	return buf
}

func writeTempELF(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "guest.elf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPlacesSegmentAndEntry(t *testing.T) {
	code := []byte{0x93, 0x00, 0x50, 0x02} // addi x1, x0, 37 (arbitrary bytes)
	data := buildMinimalELF32(t, code, 0x1000, 0x1000)
	path := writeTempELF(t, data)

	img, err := Load(path, 65536, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Entry != 0x1000 {
		t.Errorf("entry = %x, want 0x1000", img.Entry)
	}
	got, err := img.Memory.ReadWord(0x1000)
	if err != nil {
		t.Fatal(err)
	}
	want := binary.LittleEndian.Uint32(code)
	if got != want {
		t.Errorf("loaded word = %x, want %x", got, want)
	}
}

func TestLoadEntryOverride(t *testing.T) {
	code := []byte{0, 0, 0, 0}
	data := buildMinimalELF32(t, code, 0x2000, 0x2000)
	path := writeTempELF(t, data)

	img, err := Load(path, 65536, false, 0x2004)
	if err != nil {
		t.Fatal(err)
	}
	if img.Entry != 0x2004 {
		t.Errorf("entry override ignored: got %x", img.Entry)
	}
}

func TestLoadRejectsNonELF(t *testing.T) {
	path := writeTempELF(t, []byte("not an elf file"))
	if _, err := Load(path, 65536, false, 0); err == nil {
		t.Fatal("expected error loading non-ELF data")
	}
}

func TestLoadRejectsSegmentExceedingArena(t *testing.T) {
	code := make([]byte, 128)
	data := buildMinimalELF32(t, code, 0x1000, 0x1000)
	path := writeTempELF(t, data)

	if _, err := Load(path, 256, false, 0); err == nil {
		t.Fatal("expected error for segment exceeding arena size")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/binary", 65536, false, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
