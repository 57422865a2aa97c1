package tui

import (
	"fmt"
	"strings"

	"github.com/monokickstart/mk/internal/core"
)

// RenderToolStatus formats the detection results for `mk show`: one line
// per tool with an installed marker, the version, and where it resolved.
func RenderToolStatus(statuses []core.ToolStatus) string {
	nameW := 0
	for _, s := range statuses {
		if len(s.Name) > nameW {
			nameW = len(s.Name)
		}
	}

	installed := 0
	var b strings.Builder
	b.WriteString("\n" + renderSectionHeader("TOOLS") + "\n\n")
	for _, s := range statuses {
		padded := fmt.Sprintf("%-*s", nameW, s.Name)
		if !s.Installed {
			fmt.Fprintf(&b, "  %s %s  %s\n",
				errorStyle.Render("✗"),
				mutedStyle.Render(padded),
				mutedStyle.Render("not installed"))
			continue
		}

		installed++
		detail := "installed"
		if s.Version != "" {
			detail = "v" + s.Version
		}
		line := fmt.Sprintf("  %s %s  %s",
			installedStyle.Render("✓"),
			normalItemStyle.Render(padded),
			detail)
		if s.Path != "" {
			line += "  " + mutedStyle.Render(s.Path)
		}
		b.WriteString(line + "\n")
	}

	fmt.Fprintf(&b, "\n  %s\n",
		mutedStyle.Render(fmt.Sprintf("%d of %d installed", installed, len(statuses))))
	return b.String()
}

// RenderMirrorStatus formats the registry overview for `mk config mirror
// show`, in MirrorTargets order. tools carries the detector's view of the
// owning package managers so missing ones can be called out.
func RenderMirrorStatus(statuses map[string]core.MirrorStatus, tools map[string]core.ToolStatus) string {
	nameW := 0
	for _, name := range core.MirrorTargets {
		if len(name) > nameW {
			nameW = len(name)
		}
	}

	var b strings.Builder
	b.WriteString("\n" + renderSectionHeader("REGISTRIES") + "\n\n")
	for _, name := range core.MirrorTargets {
		st, ok := statuses[name]
		if !ok {
			continue
		}
		padded := fmt.Sprintf("%-*s", nameW, name)

		absent := ""
		if tool, known := tools[name]; known && !tool.Installed {
			absent = "  " + warningStyle.Render("(manager not installed)")
		}

		switch {
		case st.Configured == "":
			fmt.Fprintf(&b, "  %s %s  %s%s\n",
				mutedStyle.Render("·"),
				mutedStyle.Render(padded),
				mutedStyle.Render("not configured"),
				absent)
		case sameEndpoint(st.Configured, st.Default):
			fmt.Fprintf(&b, "  %s %s  %s%s\n",
				mutedStyle.Render("·"),
				normalItemStyle.Render(padded),
				mutedStyle.Render(st.Configured+" (upstream default)"),
				absent)
		default:
			fmt.Fprintf(&b, "  %s %s  %s  %s%s\n",
				installedStyle.Render("✓"),
				normalItemStyle.Render(padded),
				st.Configured,
				mutedStyle.Render("(default: "+st.Default+")"),
				absent)
		}
	}
	return b.String()
}

// sameEndpoint compares URLs ignoring a trailing slash, the way npm
// normalizes registry values.
func sameEndpoint(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
