package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ExitCode is the process exit code a failure maps to.
type ExitCode int

const (
	ExitOK         ExitCode = 0
	ExitGeneral    ExitCode = 1
	ExitConfig     ExitCode = 2
	ExitAllFailed  ExitCode = 3
	ExitPermission ExitCode = 4
	ExitDependency ExitCode = 5
	ExitInterrupt  ExitCode = 130
)

// Error is a failure carrying an exit code and optional recovery suggestions.
// All kickstart error constructors produce *Error so the CLI layer can map
// any failure to its exit code with errors.As.
type Error struct {
	Message     string
	Code        ExitCode
	Suggestions []string
}

func (e *Error) Error() string { return e.Message }

// Format renders the error with its recovery suggestions, one per line.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, s := range e.Suggestions {
		b.WriteString("\n  hint: ")
		b.WriteString(s)
	}
	return b.String()
}

// PlatformError reports an unsupported OS/arch combination.
func PlatformError(p Platform) *Error {
	return &Error{
		Message: fmt.Sprintf("unsupported platform: %s/%s", p.OS, p.Arch),
		Code:    ExitGeneral,
		Suggestions: []string{
			"supported platforms: macos/arm64, macos/x86_64, linux/x86_64",
		},
	}
}

// ConfigError reports an invalid or unreadable configuration. An empty file
// argument omits the location from the message.
func ConfigError(msg, file string) *Error {
	if file != "" {
		msg = fmt.Sprintf("%s (file: %s)", msg, file)
	}
	return &Error{
		Message: msg,
		Code:    ExitConfig,
		Suggestions: []string{
			"check the YAML syntax of your .kickstartrc",
			"run 'mk init --interactive' to generate a fresh config",
		},
	}
}

// NetworkError reports a failed download or remote command.
func NetworkError(msg string) *Error {
	return &Error{
		Message: msg,
		Code:    ExitGeneral,
		Suggestions: []string{
			"check your network connection",
			"configure a registry mirror with 'mk config mirror set china'",
		},
	}
}

// PermissionError reports a filesystem or privilege failure.
func PermissionError(msg string) *Error {
	return &Error{
		Message:     msg,
		Code:        ExitPermission,
		Suggestions: []string{"check file ownership, or rerun with sufficient privileges"},
	}
}

// DependencyError reports a missing tool that another tool requires.
func DependencyError(dep, neededBy string) *Error {
	return &Error{
		Message:     fmt.Sprintf("missing dependency: %s (required by %s)", dep, neededBy),
		Code:        ExitDependency,
		Suggestions: []string{fmt.Sprintf("run 'mk install %s' first", dep)},
	}
}

// CodeFor maps an error to its process exit code. Context cancellation maps
// to the interrupt code; unclassified errors map to the general code.
func CodeFor(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ExitGeneral
}
