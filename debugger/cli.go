package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RunCLI drives the line-oriented debugger REPL against in/out until
// the user quits (quit, q or exit) or input ends. A guest exit or a
// runtime error is reported and the prompt continues; the returned
// error is only a failure to read input.
func RunCLI(dbg *Debugger, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "(riscv-dbg) ")
		if !scanner.Scan() {
			break
		}
		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Fprintln(out, "exiting debugger")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if text := dbg.GetOutput(); text != "" {
			fmt.Fprint(out, text)
		}

		if dbg.Running {
			for dbg.Running && !dbg.Exited {
				if shouldBreak, reason := dbg.ShouldBreak(); shouldBreak {
					dbg.Running = false
					fmt.Fprintf(out, "stopped: %s at pc=0x%08X\n", reason, dbg.Engine.PC)
					break
				}
				if err := dbg.StepOne(); err != nil {
					dbg.Running = false
					fmt.Fprintf(out, "runtime error: %v\n", err)
					break
				}
				if !dbg.Running {
					break // ebreak paused us inside StepOne
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading debugger input: %w", err)
	}
	return nil
}
