package main

import (
	"runtime/debug"
	"testing"
)

func TestVersionLine(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.24.8",
		Main:      debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-08-30T12:00:00Z"},
		},
	}

	got := versionLine(info)
	want := "psmod v0.3.0 (go1.24.8, rev 0123456789ab, built 2026-08-30T12:00:00Z)"
	if got != want {
		t.Fatalf("version line = %q, want %q", got, want)
	}
}

func TestVersionLineWithoutVCSData(t *testing.T) {
	info := &debug.BuildInfo{GoVersion: "go1.24.8", Main: debug.Module{Version: "(devel)"}}
	want := "psmod (devel) (go1.24.8, rev unknown, built unknown)"
	if got := versionLine(info); got != want {
		t.Fatalf("version line = %q, want %q", got, want)
	}
}
