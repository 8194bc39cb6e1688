package target

import (
	"fmt"
	"runtime"
	"strings"
)

// Target is an OS/architecture pair in VS Code platform naming, e.g. linux-x64 or win32-arm64.
type Target struct {
	OS   string
	Arch string
}

var osNames = map[string]string{
	"windows": "win32",
	"win32":   "win32",
	"linux":   "linux",
	"darwin":  "darwin",
	"alpine":  "alpine",
}

var archNames = map[string]string{
	"amd64":   "x64",
	"x86_64":  "x64",
	"x64":     "x64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"arm":     "armhf",
	"armhf":   "armhf",
	"386":     "ia32",
	"ia32":    "ia32",
}

func Host() Target {
	t, err := New(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
	}
	return t
}

// New normalizes Go-style or VS Code-style names into a Target.
func New(goos, goarch string) (Target, error) {
	os, ok := osNames[strings.ToLower(strings.TrimSpace(goos))]
	if !ok {
		return Target{}, fmt.Errorf("unsupported platform: %s", goos)
	}
	arch, ok := archNames[strings.ToLower(strings.TrimSpace(goarch))]
	if !ok {
		return Target{}, fmt.Errorf("unsupported architecture: %s", goarch)
	}
	return Target{OS: os, Arch: arch}, nil
}

// Parse accepts "os-arch", e.g. "linux-x64" or "windows-amd64".
func Parse(s string) (Target, error) {
	goos, goarch, ok := strings.Cut(s, "-")
	if !ok || goos == "" || goarch == "" {
		return Target{}, fmt.Errorf("invalid target %q: expected <os>-<arch>", s)
	}
	return New(goos, goarch)
}

func (t Target) String() string {
	return t.OS + "-" + t.Arch
}

// Candidates lists lookup keys from most to least specific.
func (t Target) Candidates() []string {
	return []string{t.String(), t.OS, "*"}
}
