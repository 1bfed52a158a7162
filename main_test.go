package main

import (
	"flag"
	"testing"

	"github.com/lookbusy1344/arm-emulator/config"
)

func TestParseEntryAcceptsHexAndDecimal(t *testing.T) {
	cases := map[string]uint32{
		"":          0,
		"0x8000":    0x8000,
		"32768":     32768,
		"0xFFFFFFFF": 0xFFFFFFFF,
	}
	for in, want := range cases {
		got, err := parseEntry(in)
		if err != nil {
			t.Fatalf("parseEntry(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseEntry(%q) = 0x%x, want 0x%x", in, got, want)
		}
	}
}

func TestParseEntryRejectsGarbage(t *testing.T) {
	if _, err := parseEntry("not-a-number"); err == nil {
		t.Fatalf("expected an error for a malformed --entrypoint value")
	}
}

func TestApplyFlagOverridesOnlyTouchesExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	arenaSize := fs.Uint64("size", 0, "")
	assumeAligned := fs.Bool("assume-aligned", false, "")
	debugTrace := fs.Bool("debug", false, "")
	statsFlag := fs.Bool("stats", false, "")
	maxCycles := fs.Uint64("max-cycles", 0, "")
	apiAddr := fs.String("api-addr", "", "")

	if err := fs.Parse([]string{"--size", "4096", "--stats"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	originalAligned := cfg.Execution.AssumeAligned
	originalAddr := cfg.Monitor.Addr

	applyFlagOverrides(cfg, fs, arenaSize, assumeAligned, debugTrace, statsFlag, maxCycles, apiAddr)

	if cfg.Execution.ArenaSize != 4096 {
		t.Errorf("ArenaSize = %d, want 4096", cfg.Execution.ArenaSize)
	}
	if !cfg.Execution.EnableStats {
		t.Errorf("EnableStats not set despite --stats")
	}
	if cfg.Execution.AssumeAligned != originalAligned {
		t.Errorf("AssumeAligned was touched despite --assume-aligned not being passed")
	}
	if cfg.Monitor.Addr != originalAddr {
		t.Errorf("Monitor.Addr was touched despite --api-addr not being passed")
	}
}
