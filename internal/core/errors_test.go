package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code ExitCode
	}{
		{"platform", PlatformError(Platform{OS: "windows", Arch: ArchX86_64}), ExitGeneral},
		{"config", ConfigError("bad yaml", ""), ExitConfig},
		{"network", NetworkError("download failed"), ExitGeneral},
		{"permission", PermissionError("cannot write ~/.bashrc"), ExitPermission},
		{"dependency", DependencyError("nvm", "node"), ExitDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Error("every constructor should attach recovery suggestions")
			}
		})
	}
}

func TestConfigErrorIncludesFile(t *testing.T) {
	err := ConfigError("parsing config", "/tmp/.kickstartrc")
	if !strings.Contains(err.Message, "/tmp/.kickstartrc") {
		t.Errorf("message lacks file path: %s", err.Message)
	}
	if !strings.Contains(ConfigError("parsing config", "").Message, "parsing config") {
		t.Error("empty file should keep the base message")
	}
}

func TestDependencyErrorNamesBothTools(t *testing.T) {
	err := DependencyError("nvm", "node")
	if !strings.Contains(err.Message, "nvm") || !strings.Contains(err.Message, "node") {
		t.Errorf("message = %s", err.Message)
	}
	found := false
	for _, s := range err.Suggestions {
		if strings.Contains(s, "mk install nvm") {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions should point at the fix: %v", err.Suggestions)
	}
}

func TestFormatListsSuggestions(t *testing.T) {
	err := &Error{
		Message:     "something broke",
		Code:        ExitGeneral,
		Suggestions: []string{"try this", "or that"},
	}
	out := err.Format()
	if !strings.Contains(out, "something broke") ||
		!strings.Contains(out, "try this") ||
		!strings.Contains(out, "or that") {
		t.Errorf("Format() = %q", out)
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitGeneral},
		{"coded error", ConfigError("bad", ""), ExitConfig},
		{"wrapped coded error", fmt.Errorf("loading: %w", DependencyError("uv", "spec-kit")), ExitDependency},
		{"canceled", context.Canceled, ExitInterrupt},
		{"wrapped canceled", fmt.Errorf("install: %w", context.Canceled), ExitInterrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFor(tt.err); got != tt.want {
				t.Errorf("CodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
