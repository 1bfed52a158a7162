// Package loader places a 32-bit little-endian RISC-V ELF executable
// into a guest memory arena and resolves the handful of host
// intercepts the engine services natively.
package loader

import (
	"debug/elf"
	"fmt"

	"github.com/lookbusy1344/arm-emulator/vm"
)

// interceptSymbols are the C library routine names the engine
// short-circuits to host-native implementations instead of executing
// guest code for them.
var interceptSymbols = [...]string{"memmove", "memcpy", "memset", "cos", "sin"}

// Image is the result of loading an ELF file: the populated memory
// arena, the program's text bytes (for the instruction cache), the
// load address of its executable segment, the resolved entry point,
// and the discovered intercepts.
type Image struct {
	Memory     *vm.Memory
	Text       []byte
	TextBase   uint32
	Entry      uint32
	Intercepts vm.Intercepts
}

// Load parses path as an ELF32 little-endian executable and places its
// PT_LOAD segments into a freshly allocated arena of arenaSize bytes.
// aligned selects the aligned-access memory strategy. entryOverride,
// if non-zero, replaces the ELF's recorded entry point.
func Load(path string, arenaSize uint32, aligned bool, entryOverride uint32) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, loadErrorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB {
		return nil, loadErrorf("%s is not a 32-bit little-endian ELF", path)
	}

	var segments []*elf.Prog
	for _, p := range f.Progs {
		if p.Type == elf.PT_LOAD {
			segments = append(segments, p)
		}
	}
	if len(segments) == 0 {
		return nil, loadErrorf("%s has no PT_LOAD segments", path)
	}

	var mem *vm.Memory
	if aligned {
		mem = vm.NewAlignedMemory(arenaSize)
	} else {
		mem = vm.NewMemory(arenaSize)
	}

	loadBase := segments[0].Vaddr
	for _, p := range segments {
		if p.Vaddr < loadBase {
			loadBase = p.Vaddr
		}
	}

	var textBase uint32
	var textLen uint32
	for _, p := range segments {
		end := p.Vaddr + p.Memsz
		if end > uint64(arenaSize) {
			return nil, loadErrorf("%s: segment at 0x%08X size %d exceeds arena of %d bytes", path, p.Vaddr, p.Memsz, arenaSize)
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil {
			return nil, loadErrorf("reading segment at 0x%08X (%s): %w", p.Vaddr, path, err)
		}
		// Vaddr and Memsz are already bounded by the end > arenaSize
		// check above, so the uint64->uint32 narrowing here cannot
		// lose bits.
		buf, err := mem.GetBuf(uint32(p.Vaddr), uint32(p.Memsz)) // #nosec G115 -- bounded above
		if err != nil {
			return nil, loadErrorf("placing segment at 0x%08X (%s): %w", p.Vaddr, path, err)
		}
		copy(buf, data)
		for i := len(data); i < len(buf); i++ {
			buf[i] = 0
		}
		if p.Flags&elf.PF_X != 0 {
			textBase = uint32(p.Vaddr)
			textLen = uint32(p.Memsz)
		}
	}

	entry, err := vm.SafeUint64ToUint32(f.Entry)
	if err != nil {
		return nil, loadErrorf("%s: entry point %w", path, err)
	}
	if entryOverride != 0 {
		entry = entryOverride
	}

	intercepts, err := resolveIntercepts(f)
	if err != nil {
		return nil, loadErrorf("%s: %w", path, err)
	}

	text, err := mem.GetBuf(textBase, textLen)
	if err != nil {
		return nil, loadErrorf("reading back text segment (%s): %w", path, err)
	}

	return &Image{
		Memory:     mem,
		Text:       text,
		TextBase:   textBase,
		Entry:      entry,
		Intercepts: intercepts,
	}, nil
}

// resolveIntercepts scans the symbol table for the recognised C
// library routine names. A missing symbol table, or a missing symbol,
// leaves the corresponding intercept address at zero. A symbol value
// that does not fit in 32 bits is a malformed input, not a narrowing
// we can silently apply.
func resolveIntercepts(f *elf.File) (vm.Intercepts, error) {
	var ic vm.Intercepts
	syms, err := f.Symbols()
	if err != nil {
		return ic, nil
	}
	for _, s := range syms {
		var target *uint32
		switch s.Name {
		case "memmove":
			target = &ic.Memmove
		case "memcpy":
			target = &ic.Memcpy
		case "memset":
			target = &ic.Memset
		case "cos":
			target = &ic.Cos
		case "sin":
			target = &ic.Sin
		default:
			continue
		}
		v, err := vm.SafeUint64ToUint32(s.Value)
		if err != nil {
			return vm.Intercepts{}, fmt.Errorf("symbol %q: %w", s.Name, err)
		}
		*target = v
	}
	return ic, nil
}

func loadErrorf(format string, args ...interface{}) error {
	return &vm.Error{Kind: vm.KindLoadError, Msg: fmt.Errorf(format, args...).Error()}
}
