// Package debugger provides a line-oriented REPL and a full-screen
// tcell/tview console for stepping a guest program one instruction at
// a time, inspecting registers and memory, and pausing at breakpoints.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/arm-emulator/riscv"
	"github.com/lookbusy1344/arm-emulator/vm"
)

// Debugger wraps an engine with breakpoints, command history, and a
// small text output buffer consumed after each command.
type Debugger struct {
	Engine      *vm.Engine
	Breakpoints *BreakpointSet
	History     *History

	Running     bool
	Exited      bool
	ExitCode    int32
	LastCommand string

	out strings.Builder
}

// NewDebugger wraps engine for interactive stepping. historySize
// bounds the command history ring.
func NewDebugger(engine *vm.Engine, historySize int) *Debugger {
	return &Debugger{
		Engine:      engine,
		Breakpoints: NewBreakpointSet(),
		History:     NewHistory(historySize),
	}
}

// GetOutput drains and returns text accumulated by the last command.
func (d *Debugger) GetOutput() string {
	s := d.out.String()
	d.out.Reset()
	return s
}

func (d *Debugger) printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.out, format, args...)
}

// ShouldBreak reports whether the engine's current pc has an enabled
// breakpoint, consuming it (and removing it if temporary).
func (d *Debugger) ShouldBreak() (bool, string) {
	bp := d.Breakpoints.Hit(d.Engine.PC)
	if bp == nil {
		return false, ""
	}
	return true, fmt.Sprintf("breakpoint %d", bp.ID)
}

// StepOne executes exactly one guest instruction. If the run
// terminates it records that in Exited and ExitCode; the returned
// error is only a fatal one. ebreak pauses the session instead of
// being fatal, since a debugger is attached.
func (d *Debugger) StepOne() error {
	if err := d.Engine.Step(); err != nil {
		if verr, ok := err.(*vm.Error); ok && verr.Kind == vm.KindBreak {
			d.Running = false
			d.printf("ebreak at pc=0x%08X\n", d.Engine.PC)
			return nil
		}
		return err
	}
	if d.Engine.Exited() {
		d.Running = false
		d.Exited = true
		d.ExitCode = d.Engine.ExitCode()
		d.printf("program exited with code %d\n", d.ExitCode)
	}
	return nil
}

// ExecuteCommand parses and runs one debugger command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}
	if cmdLine == "" {
		return nil
	}

	fields := strings.Fields(cmdLine)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "break", "b":
		return d.cmdBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "continue", "c":
		d.Running = true
	case "step", "s":
		return d.StepOne()
	case "regs", "r":
		d.cmdRegs()
	case "fregs", "fr":
		d.cmdFRegs()
	case "mem", "x":
		return d.cmdMem(args)
	case "list", "l":
		d.cmdList()
	case "disas", "u":
		return d.cmdDisas(args)
	case "pc":
		d.printf("pc = 0x%08X\n", d.Engine.PC)
	case "help", "h":
		d.cmdHelp()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, false)
	d.printf("breakpoint %d at 0x%08X\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	return d.Breakpoints.Remove(addr)
}

func (d *Debugger) cmdRegs() {
	for i := 0; i < 32; i += 4 {
		d.printf("x%-2d=%08x  x%-2d=%08x  x%-2d=%08x  x%-2d=%08x\n",
			i, d.Engine.Int.ReadU(uint8(i)),
			i+1, d.Engine.Int.ReadU(uint8(i+1)),
			i+2, d.Engine.Int.ReadU(uint8(i+2)),
			i+3, d.Engine.Int.ReadU(uint8(i+3)))
	}
	d.printf("pc =%08x\n", d.Engine.PC)
}

func (d *Debugger) cmdFRegs() {
	for i := 0; i < 32; i += 2 {
		d.printf("f%-2d=%v  f%-2d=%v\n",
			i, d.Engine.FP.ReadDouble(uint8(i)),
			i+1, d.Engine.FP.ReadDouble(uint8(i+1)))
	}
}

func (d *Debugger) cmdMem(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mem <addr> [length]")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	length := uint32(64)
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid length: %w", err)
		}
		length = uint32(n)
	}
	buf, err := d.Engine.Mem.GetBuf(addr, length)
	if err != nil {
		return err
	}
	for off := uint32(0); off < length; off += 16 {
		end := off + 16
		if end > length {
			end = length
		}
		d.printf("%08x: % x\n", addr+off, buf[off:end])
	}
	return nil
}

func (d *Debugger) cmdList() {
	bps := d.Breakpoints.All()
	if len(bps) == 0 {
		d.printf("no breakpoints\n")
		return
	}
	for _, bp := range bps {
		d.printf("%d: 0x%08X (hits=%d)\n", bp.ID, bp.Address, bp.HitCount)
	}
}

func (d *Debugger) cmdHelp() {
	d.printf("commands: break|b, delete|d, continue|c, step|s, regs|r, fregs|fr, mem|x, list|l, disas|u, pc, help|h, quit\n")
}

func (d *Debugger) cmdDisas(args []string) error {
	pc := d.Engine.PC
	if len(args) > 0 {
		addr, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		pc = addr
	}
	n := 8
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid instruction count: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		addr := pc + uint32(i*4)
		marker := "  "
		if addr == d.Engine.PC {
			marker = "=>"
		}
		d.printf("%s %08x: %s\n", marker, addr, disasmAt(d.Engine, addr))
	}
	return nil
}

func parseAddr(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(n), nil
}

// disasmAt renders the instruction at pc for the "disas" command and
// the TUI's disassembly panel. It is a compact operand dump, not a
// full assembly syntax.
func disasmAt(e *vm.Engine, pc uint32) string {
	w, err := e.Mem.ReadWord(pc)
	if err != nil {
		return "<out of range>"
	}
	inst := riscv.Decode(w)
	if inst.Op == riscv.Unknown {
		return fmt.Sprintf("%08x  ??? (unrecognised)", w)
	}
	return fmt.Sprintf("%08x  op=%-3d rd=x%-2d rs1=x%-2d rs2=x%-2d imm=%d", w, inst.Op, inst.Rd, inst.Rs1, inst.Rs2, inst.Imm)
}
