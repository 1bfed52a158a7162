package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lookbusy1344/arm-emulator/riscv"
)

// Intercepts records the guest entry addresses of the handful of C
// library routines this core services natively instead of executing
// guest code for them. A zero address means the symbol was not found
// by the loader and can never legitimately match a call target.
type Intercepts struct {
	Memmove uint32
	Memcpy  uint32
	Memset  uint32
	Cos     uint32
	Sin     uint32
}

func (it Intercepts) lookup(target uint32) (string, bool) {
	switch target {
	case it.Memmove:
		if target != 0 {
			return "memmove", true
		}
	case it.Memcpy:
		if target != 0 {
			return "memcpy", true
		}
	case it.Memset:
		if target != 0 {
			return "memset", true
		}
	case it.Cos:
		if target != 0 {
			return "cos", true
		}
	case it.Sin:
		if target != 0 {
			return "sin", true
		}
	}
	return "", false
}

// outcome is the result of dispatching one instruction: how the
// program counter should move next.
type outcome int

const (
	outContinue outcome = iota
	outJump
	outCall
	outExit
)

// Engine owns the program counter, both register files, memory, the
// intercept table, and the pre-decoded instruction cache. Run executes
// guest instructions until termination and returns the guest's exit
// status.
type Engine struct {
	Int  IntRegs
	FP   FPRegs
	FCSR FCSR
	PC   uint32

	Mem *Memory

	textBase uint32
	icache   []riscv.Instruction

	intercepts Intercepts

	// DisableIdleSentinel turns off the self-call idle heuristic
	// (§9): a jal/jalr x1 whose target equals its own address
	// normally terminates the run successfully.
	DisableIdleSentinel bool

	// MaxCycles bounds the number of retired instructions; zero
	// disables the bound.
	MaxCycles uint64

	Stdout io.Writer
	Stdin  io.Reader

	Stats Statistics
	trace io.Writer

	retired  uint64
	exited   bool
	exitCode int32
	started  time.Time
}

// NewEngine constructs an engine over an already-loaded arena. text is
// the raw bytes of the executable segment (used to build the
// instruction cache); textBase is its load address; entry is the
// resolved entry point (ELF e_entry or a caller override).
func NewEngine(mem *Memory, text []byte, textBase, entry uint32, intercepts Intercepts) *Engine {
	e := &Engine{
		Mem:        mem,
		textBase:   textBase,
		intercepts: intercepts,
		Stdout:     os.Stdout,
		Stdin:      os.Stdin,
	}
	e.icache = buildCache(text)
	e.PC = entry
	sp := (mem.Size() - 128) &^ 0xF
	e.Int.WriteU(2, sp) // x2 == sp
	return e
}

// SetTrace wires a per-instruction debug trace sink. A nil writer
// disables tracing; this is purely additive and never changes
// guest-visible behaviour.
func (e *Engine) SetTrace(w io.Writer) {
	e.trace = w
}

// Exited reports whether the guest has terminated, for callers (the
// debugger, the monitor) that drive Step directly instead of Run.
func (e *Engine) Exited() bool {
	return e.exited
}

// ExitCode returns the guest's exit status once Exited reports true.
func (e *Engine) ExitCode() int32 {
	return e.exitCode
}

func buildCache(text []byte) []riscv.Instruction {
	n := len(text) / 4
	cache := make([]riscv.Instruction, n)
	for i := 0; i < n; i++ {
		off := i * 4
		w := uint32(text[off]) | uint32(text[off+1])<<8 | uint32(text[off+2])<<16 | uint32(text[off+3])<<24
		cache[i] = riscv.Decode(w)
	}
	return cache
}

// fetch returns the decoded instruction at pc, consulting the
// pre-decoded cache when pc falls inside the cached text segment and
// falling back to decoding the arena directly otherwise.
func (e *Engine) fetch(pc uint32) (riscv.Instruction, uint32, error) {
	if pc >= e.textBase {
		idx := (pc - e.textBase) / 4
		if int(idx) < len(e.icache) {
			inst := e.icache[idx]
			return inst, inst.Raw, nil
		}
	}
	w, err := e.Mem.ReadWord(pc)
	if err != nil {
		return riscv.Instruction{}, 0, err
	}
	return riscv.Decode(w), w, nil
}

// Step executes exactly one guest instruction, advancing pc (or
// terminating the run) according to its outcome.
func (e *Engine) Step() error {
	pc := e.PC
	inst, raw, err := e.fetch(pc)
	if err != nil {
		return err
	}
	if e.trace != nil {
		fmt.Fprintf(e.trace, "pc: %08x: %s\n", pc, disasm(inst))
	}

	if inst.Op == riscv.Unknown {
		return errBadOpcode(pc, raw)
	}

	out, target, err := e.dispatch(pc, inst)
	if err != nil {
		return err
	}

	switch out {
	case outContinue:
		e.PC = pc + 4
	case outJump:
		e.PC = target
	case outCall:
		if err := e.handleCall(pc, target); err != nil {
			return err
		}
	case outExit:
		e.exited = true
	}
	e.retired++
	e.Stats.Instructions++
	return nil
}

func (e *Engine) handleCall(callSite, target uint32) error {
	if target == callSite && !e.DisableIdleSentinel {
		e.exited = true
		e.exitCode = 0
		return nil
	}
	if name, ok := e.intercepts.lookup(target); ok {
		if err := e.runIntercept(name); err != nil {
			return err
		}
		e.Stats.Intercepts++
		e.PC = e.Int.ReadU(1) // x1 == ra
		return nil
	}
	e.PC = target
	return nil
}

// Run executes until the guest terminates or a fatal condition
// occurs, returning the guest's exit status (the value of a0 at the
// exit syscall, or 0 for the idle sentinel).
func (e *Engine) Run() (int32, error) {
	e.started = time.Now()
	for !e.exited {
		if e.MaxCycles != 0 && e.retired >= e.MaxCycles {
			return 0, fmt.Errorf("exceeded cycle ceiling of %d instructions", e.MaxCycles)
		}
		if err := e.Step(); err != nil {
			return 0, err
		}
	}
	e.Stats.WallTime = time.Since(e.started)
	return e.exitCode, nil
}
