// Command riscv-emu is a userspace interpreter for statically-linked
// 32-bit little-endian RISC-V executables (RV32IMFD).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lookbusy1344/arm-emulator/config"
	"github.com/lookbusy1344/arm-emulator/debugger"
	"github.com/lookbusy1344/arm-emulator/loader"
	"github.com/lookbusy1344/arm-emulator/monitor"
	"github.com/lookbusy1344/arm-emulator/vm"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("riscv-emu", flag.ContinueOnError)

	var (
		showVersion   = fs.Bool("version", false, "show version information")
		entrypoint    = fs.String("entrypoint", "", "override the ELF entry point (hex or decimal)")
		arenaSize     = fs.Uint64("size", 0, "guest arena size in bytes (default from config, normally 16777215)")
		assumeAligned = fs.Bool("assume-aligned", false, "use the aligned (unsafe) memory access strategy")
		debugTrace    = fs.Bool("debug", false, "print `pc: <hex>: <decoded>` before each dispatch")
		configPath    = fs.String("config", "", "path to a TOML configuration document")
		statsFlag     = fs.Bool("stats", false, "print an end-of-run instruction/syscall/intercept summary")
		maxCycles     = fs.Uint64("max-cycles", 0, "bound execution to this many retired instructions (0 disables)")
		tuiMode       = fs.Bool("tui", false, "launch the full-screen interactive debugger")
		cliDebug      = fs.Bool("debug-cli", false, "launch the line-oriented interactive debugger")
		apiServer     = fs.Bool("api-server", false, "serve the read-only monitor HTTP/WebSocket surface")
		apiAddr       = fs.String("api-addr", "", "monitor listen address (default from config, normally 127.0.0.1:7391)")
	)

	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("riscv-emu %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	}

	if fs.NArg() < 1 {
		printUsage(fs)
		return 2
	}
	elfPath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
		return 1
	}
	if _, err := vm.SafeUint64ToUint32(*arenaSize); err != nil {
		fmt.Fprintf(os.Stderr, "riscv-emu: invalid --size: %v\n", err)
		return 2
	}
	applyFlagOverrides(cfg, fs, arenaSize, assumeAligned, debugTrace, statsFlag, maxCycles, apiAddr)

	entry, err := parseEntry(*entrypoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
		return 2
	}

	img, err := loader.Load(elfPath, cfg.Execution.ArenaSize, cfg.Execution.AssumeAligned, entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
		return 1
	}

	engine := vm.NewEngine(img.Memory, img.Text, img.TextBase, img.Entry, img.Intercepts)
	engine.DisableIdleSentinel = cfg.Execution.DisableIdleSentinel
	engine.MaxCycles = cfg.Execution.MaxCycles

	if cfg.Execution.EnableTrace {
		tw := vm.NewTraceWriter(os.Stderr)
		defer tw.Close()
		engine.SetTrace(tw)
	}

	switch {
	case *tuiMode:
		return runDebugger(engine, cfg, true)
	case *cliDebug:
		return runDebugger(engine, cfg, false)
	default:
		var mon *monitor.Monitor
		if *apiServer {
			mon = monitor.New(cfg.Monitor.Addr)
			errCh := make(chan error, 1)
			mon.Start(errCh)
			fmt.Fprintf(os.Stderr, "riscv-emu: monitor listening on %s\n", cfg.Monitor.Addr)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = mon.Shutdown(ctx)
			}()
			go drainMonitorErrors(errCh)
		}
		return runDirect(engine, cfg, mon, cfg.Execution.EnableStats)
	}
}

func drainMonitorErrors(errCh <-chan error) {
	for err := range errCh {
		fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
	}
}

// runDirect executes the guest to completion outside a debugger,
// optionally publishing a snapshot of engine state to the monitor
// after each sampled instruction boundary. It never blocks on the
// monitor: Publish only copies state behind a mutex.
func runDirect(engine *vm.Engine, cfg *config.Config, mon *monitor.Monitor, printStats bool) int {
	period := cfg.Monitor.SnapshotPeriod
	if period < 1 {
		period = 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var n uint64
	started := time.Now()
	for !engine.Exited() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "riscv-emu: interrupted")
			return 130
		default:
		}

		if engine.MaxCycles != 0 && n >= engine.MaxCycles {
			fmt.Fprintf(os.Stderr, "riscv-emu: exceeded cycle ceiling of %d instructions\n", engine.MaxCycles)
			return 1
		}
		if err := engine.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
			return 1
		}
		n++

		if mon != nil && n%uint64(period) == 0 {
			mon.Publish(monitor.SnapshotFrom(engine))
		}
	}
	if mon != nil {
		mon.Publish(monitor.SnapshotFrom(engine))
	}
	engine.Stats.WallTime = time.Since(started)

	if printStats {
		fmt.Fprintln(os.Stderr, engine.Stats.String())
		if cfg.Statistics.OutputFile != "" {
			if err := writeStatsFile(engine.Stats, cfg.Statistics.OutputFile); err != nil {
				fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
			}
		}
	}

	return int(engine.ExitCode()) & 0xFF
}

func writeStatsFile(stats vm.Statistics, path string) error {
	f, err := os.Create(path) // #nosec G304 -- user-specified stats output path
	if err != nil {
		return fmt.Errorf("creating statistics file %s: %w", path, err)
	}
	defer f.Close()
	if err := stats.ExportJSON(f); err != nil {
		return fmt.Errorf("writing statistics file %s: %w", path, err)
	}
	return nil
}

func runDebugger(engine *vm.Engine, cfg *config.Config, tui bool) int {
	dbg := debugger.NewDebugger(engine, cfg.Debugger.HistorySize)
	var err error
	if tui {
		err = debugger.RunTUI(dbg)
	} else {
		err = debugger.RunCLI(dbg, os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "riscv-emu: %v\n", err)
		return 1
	}
	if dbg.Exited {
		return int(dbg.ExitCode) & 0xFF
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func applyFlagOverrides(
	cfg *config.Config,
	fs *flag.FlagSet,
	arenaSize *uint64,
	assumeAligned, debugTrace, statsFlag *bool,
	maxCycles *uint64,
	apiAddr *string,
) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			cfg.Execution.ArenaSize = uint32(*arenaSize) // #nosec G115 -- run rejects --size values above 2^32-1
		case "assume-aligned":
			cfg.Execution.AssumeAligned = *assumeAligned
		case "debug":
			cfg.Execution.EnableTrace = *debugTrace
		case "stats":
			cfg.Execution.EnableStats = *statsFlag
		case "max-cycles":
			cfg.Execution.MaxCycles = *maxCycles
		case "api-addr":
			cfg.Monitor.Addr = *apiAddr
		}
	})
}

func parseEntry(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid --entrypoint %q: %w", s, err)
	}
	return uint32(n), nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprint(os.Stderr, `riscv-emu: a userspace RV32IMFD interpreter

Usage:
  riscv-emu [options] <elf-file>

Options:
`)
	fs.PrintDefaults()
	fmt.Fprint(os.Stderr, `
Examples:
  riscv-emu program.elf
  riscv-emu --debug --max-cycles 1000000 program.elf
  riscv-emu --tui program.elf
  riscv-emu --api-server --api-addr 127.0.0.1:7391 program.elf
`)
}
