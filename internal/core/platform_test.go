package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectPlatformMatrix(t *testing.T) {
	tests := []struct {
		goos, goarch string
		os           OS
		arch         Arch
		supported    bool
	}{
		{"darwin", "arm64", OSMacOS, ArchARM64, true},
		{"darwin", "amd64", OSMacOS, ArchX86_64, true},
		{"linux", "amd64", OSLinux, ArchX86_64, true},
		{"linux", "arm64", OSLinux, ArchARM64, false},
		{"windows", "amd64", OSUnsupported, ArchX86_64, false},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			p := detectPlatform(tt.goos, tt.goarch, "/bin/bash", t.TempDir())
			if p.OS != tt.os || p.Arch != tt.arch {
				t.Errorf("got %s/%s, want %s/%s", p.OS, p.Arch, tt.os, tt.arch)
			}
			if p.Supported() != tt.supported {
				t.Errorf("Supported() = %v, want %v", p.Supported(), tt.supported)
			}
		})
	}
}

func TestShellDetection(t *testing.T) {
	tests := []struct {
		shellEnv string
		want     Shell
	}{
		{"/bin/bash", ShellBash},
		{"/usr/bin/zsh", ShellZsh},
		{"/usr/local/bin/fish", ShellFish},
		{"/bin/tcsh", ShellUnknown},
		{"", ShellUnknown},
	}
	for _, tt := range tests {
		p := detectPlatform("linux", "amd64", tt.shellEnv, t.TempDir())
		if p.Shell != tt.want {
			t.Errorf("shell %q detected as %s, want %s", tt.shellEnv, p.Shell, tt.want)
		}
	}
}

func TestShellConfigFile(t *testing.T) {
	home := t.TempDir()

	// Without an existing .bashrc, bash falls back to .bash_profile.
	p := detectPlatform("linux", "amd64", "/bin/bash", home)
	if want := filepath.Join(home, ".bash_profile"); p.ShellConfigFile != want {
		t.Errorf("ShellConfigFile = %s, want %s", p.ShellConfigFile, want)
	}

	if err := os.WriteFile(filepath.Join(home, ".bashrc"), []byte("# rc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p = detectPlatform("linux", "amd64", "/bin/bash", home)
	if want := filepath.Join(home, ".bashrc"); p.ShellConfigFile != want {
		t.Errorf("ShellConfigFile = %s, want %s", p.ShellConfigFile, want)
	}

	p = detectPlatform("darwin", "arm64", "/bin/zsh", home)
	if want := filepath.Join(home, ".zshrc"); p.ShellConfigFile != want {
		t.Errorf("zsh ShellConfigFile = %s, want %s", p.ShellConfigFile, want)
	}

	p = detectPlatform("linux", "amd64", "/usr/bin/fish", home)
	if want := filepath.Join(home, ".config", "fish", "config.fish"); p.ShellConfigFile != want {
		t.Errorf("fish ShellConfigFile = %s, want %s", p.ShellConfigFile, want)
	}
}

func TestMinicondaScript(t *testing.T) {
	tests := []struct {
		platform Platform
		want     string
	}{
		{Platform{OS: OSLinux, Arch: ArchX86_64}, "Miniconda3-latest-Linux-x86_64.sh"},
		{Platform{OS: OSMacOS, Arch: ArchARM64}, "Miniconda3-latest-MacOSX-arm64.sh"},
		{Platform{OS: OSMacOS, Arch: ArchX86_64}, "Miniconda3-latest-MacOSX-x86_64.sh"},
		{Platform{OS: OSLinux, Arch: ArchARM64}, ""},
		{Platform{OS: OSUnsupported, Arch: ArchX86_64}, ""},
	}
	for _, tt := range tests {
		if got := tt.platform.MinicondaScript(); got != tt.want {
			t.Errorf("%s: MinicondaScript() = %q, want %q", tt.platform, got, tt.want)
		}
	}
}

func TestPlatformString(t *testing.T) {
	p := Platform{OS: OSMacOS, Arch: ArchARM64}
	if got := p.String(); got != "macos/arm64" {
		t.Errorf("String() = %q", got)
	}
}
