package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// OS is the detected operating system family.
type OS string

const (
	OSMacOS       OS = "macos"
	OSLinux       OS = "linux"
	OSUnsupported OS = "unsupported"
)

// Arch is the detected CPU architecture.
type Arch string

const (
	ArchARM64       Arch = "arm64"
	ArchX86_64      Arch = "x86_64"
	ArchUnsupported Arch = "unsupported"
)

// Shell is the user's login shell family, derived from $SHELL.
type Shell string

const (
	ShellBash    Shell = "bash"
	ShellZsh     Shell = "zsh"
	ShellFish    Shell = "fish"
	ShellUnknown Shell = "unknown"
)

// Platform is an immutable snapshot of the host environment, computed once
// per CLI invocation.
type Platform struct {
	OS              OS
	Arch            Arch
	Shell           Shell
	ShellConfigFile string
}

// DetectPlatform inspects the running process environment.
func DetectPlatform() Platform {
	home, _ := os.UserHomeDir()
	return detectPlatform(runtime.GOOS, runtime.GOARCH, os.Getenv("SHELL"), home)
}

func detectPlatform(goos, goarch, shellEnv, home string) Platform {
	var p Platform

	switch goos {
	case "darwin":
		p.OS = OSMacOS
	case "linux":
		p.OS = OSLinux
	default:
		p.OS = OSUnsupported
	}

	switch goarch {
	case "arm64":
		p.Arch = ArchARM64
	case "amd64":
		p.Arch = ArchX86_64
	default:
		p.Arch = ArchUnsupported
	}

	switch filepath.Base(shellEnv) {
	case "bash":
		p.Shell = ShellBash
	case "zsh":
		p.Shell = ShellZsh
	case "fish":
		p.Shell = ShellFish
	default:
		p.Shell = ShellUnknown
	}

	p.ShellConfigFile = shellConfigFile(p.Shell, home)
	return p
}

// shellConfigFile picks the rc file new environment exports are appended to.
// Bash prefers .bashrc when it already exists, .bash_profile otherwise.
func shellConfigFile(shell Shell, home string) string {
	switch shell {
	case ShellBash:
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc
		}
		return filepath.Join(home, ".bash_profile")
	case ShellZsh:
		return filepath.Join(home, ".zshrc")
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish")
	default:
		return filepath.Join(home, ".profile")
	}
}

// Supported reports whether installers can run on this platform.
// Linux is x86_64 only; macOS covers both architectures.
func (p Platform) Supported() bool {
	switch {
	case p.OS == OSMacOS && p.Arch == ArchARM64:
		return true
	case p.OS == OSMacOS && p.Arch == ArchX86_64:
		return true
	case p.OS == OSLinux && p.Arch == ArchX86_64:
		return true
	}
	return false
}

// String returns the os/arch pair, e.g. "macos/arm64".
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// MinicondaScript returns the Miniconda installer filename for this platform,
// or an empty string when no build exists for it.
func (p Platform) MinicondaScript() string {
	switch {
	case p.OS == OSLinux && p.Arch == ArchX86_64:
		return "Miniconda3-latest-Linux-x86_64.sh"
	case p.OS == OSMacOS && p.Arch == ArchARM64:
		return "Miniconda3-latest-MacOSX-arm64.sh"
	case p.OS == OSMacOS && p.Arch == ArchX86_64:
		return "Miniconda3-latest-MacOSX-x86_64.sh"
	}
	return ""
}

