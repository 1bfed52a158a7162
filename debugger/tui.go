package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the full-screen interactive debugger: a register panel, a
// disassembly-around-pc panel, a breakpoint list, and a command
// input line, all refreshed after every command or step.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI wires a full-screen console onto dbg.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{Debugger: dbg, App: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("(riscv-dbg) ")
	t.CommandInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := t.CommandInput.GetText()
		t.CommandInput.SetText("")
		t.runCommand(cmd)
	})
}

func (t *TUI) buildLayout() {
	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 0, 1, false).
		AddItem(t.BreakpointsView, 0, 1, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(t.OutputView, 0, 1, false)
	main := tview.NewFlex().
		AddItem(left, 0, 1, false).
		AddItem(right, 0, 2, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, false).
		AddItem(t.CommandInput, 1, 0, true)
	t.App.SetRoot(root, true).SetFocus(t.CommandInput)
}

func (t *TUI) runCommand(cmd string) {
	if cmd == "quit" || cmd == "q" {
		t.App.Stop()
		return
	}
	if err := t.Debugger.ExecuteCommand(cmd); err != nil {
		fmt.Fprintf(t.OutputView, "[red]error: %v[white]\n", err)
	}
	if text := t.Debugger.GetOutput(); text != "" {
		fmt.Fprint(t.OutputView, text)
	}
	if t.Debugger.Running {
		t.runUntilStop()
	}
	t.refresh()
}

func (t *TUI) runUntilStop() {
	for t.Debugger.Running && !t.Debugger.Exited {
		if shouldBreak, reason := t.Debugger.ShouldBreak(); shouldBreak {
			t.Debugger.Running = false
			fmt.Fprintf(t.OutputView, "stopped: %s at pc=0x%08X\n", reason, t.Debugger.Engine.PC)
			return
		}
		if err := t.Debugger.StepOne(); err != nil {
			t.Debugger.Running = false
			fmt.Fprintf(t.OutputView, "[red]runtime error: %v[white]\n", err)
			return
		}
		if !t.Debugger.Running {
			return
		}
	}
}

func (t *TUI) refresh() {
	t.RegisterView.Clear()
	e := t.Debugger.Engine
	for i := 0; i < 32; i += 2 {
		fmt.Fprintf(t.RegisterView, "x%-2d=%08x  x%-2d=%08x\n", i, e.Int.ReadU(uint8(i)), i+1, e.Int.ReadU(uint8(i+1)))
	}
	fmt.Fprintf(t.RegisterView, "pc =%08x\n", e.PC)

	t.DisassemblyView.Clear()
	for i := -2; i < 6; i++ {
		addr := uint32(int64(e.PC) + int64(i*4))
		marker := "  "
		if i == 0 {
			marker = "=>"
		}
		fmt.Fprintf(t.DisassemblyView, "%s %08x: %s\n", marker, addr, disasmAt(e, addr))
	}

	t.BreakpointsView.Clear()
	for _, bp := range t.Debugger.Breakpoints.All() {
		fmt.Fprintf(t.BreakpointsView, "%d: 0x%08X (hits=%d)\n", bp.ID, bp.Address, bp.HitCount)
	}
}

// Run launches the full-screen console, blocking until the user quits.
func (t *TUI) Run() error {
	t.refresh()
	return t.App.Run()
}

// RunTUI is the convenience entry point matching RunCLI's shape.
func RunTUI(dbg *Debugger) error {
	return NewTUI(dbg).Run()
}
