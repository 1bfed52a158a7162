package vm

import (
	"fmt"
	"syscall"
)

// Linux-style RV32 syscall numbers, passed in a7 with arguments in
// a0..a6 and a result in a0.
const (
	sysRead  = 63
	sysWrite = 64
	sysExit  = 93
	sysBrk   = 214
)

// execSyscall services one of the four recognised syscalls. Any other
// number is a silent no-op, optionally logged at debug verbosity; a0
// is left unchanged.
func (e *Engine) execSyscall() (outcome, uint32, error) {
	num := e.Int.ReadU(regA7)
	e.Stats.Syscalls++

	switch num {
	case sysExit:
		e.exitCode = e.Int.Read(regA0)
		return outExit, 0, nil
	case sysWrite:
		return outContinue, 0, e.sysWrite()
	case sysRead:
		return outContinue, 0, e.sysRead()
	case sysBrk:
		// Acknowledged; no heap management is performed (reserved
		// for extension).
		return outContinue, 0, nil
	default:
		if e.trace != nil {
			fmt.Fprintf(e.trace, "unrecognised syscall number %d ignored\n", num)
		}
		return outContinue, 0, nil
	}
}

// sysWrite implements write(fd=a0, buf=a1, count=a2), writing the
// result byte count into a0. fd 1 is routed through e.Stdout so a
// test (or an embedder) can capture guest output without touching the
// real host descriptor; every other fd goes straight to the syscall
// package, so the interpreter never acquires close ownership of it
// (§5).
func (e *Engine) sysWrite() error {
	fd := e.Int.ReadU(regA0)
	addr := e.Int.ReadU(regA1)
	count := e.Int.ReadU(regA2)

	buf, err := e.Mem.GetBuf(addr, count)
	if err != nil {
		return err
	}

	var n int
	if fd == 1 && e.Stdout != nil {
		n, err = e.Stdout.Write(buf)
	} else {
		n, err = syscall.Write(int(fd), buf)
	}
	if err != nil {
		return errHostIO("write", err)
	}
	e.Int.WriteU(regA0, uint32(n))
	return nil
}

// sysRead implements read(fd=a0, buf=a1, count=a2), writing the
// result byte count into a0. fd 0 is routed through e.Stdin, mirroring
// sysWrite's fd 1 treatment.
func (e *Engine) sysRead() error {
	fd := e.Int.ReadU(regA0)
	addr := e.Int.ReadU(regA1)
	count := e.Int.ReadU(regA2)

	buf, err := e.Mem.GetBuf(addr, count)
	if err != nil {
		return err
	}

	var n int
	if fd == 0 && e.Stdin != nil {
		n, err = e.Stdin.Read(buf)
	} else {
		n, err = syscall.Read(int(fd), buf)
	}
	if err != nil {
		return errHostIO("read", err)
	}
	e.Int.WriteU(regA0, uint32(n))
	return nil
}
