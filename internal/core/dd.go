package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ddCheckTimeout bounds the `specify check` preflight.
const ddCheckTimeout = 60 * time.Second

// DDOptions selects which spec-driven development tools to initialize in
// the current project.
type DDOptions struct {
	SpecKit bool
	BMad    bool
	Agent   string // "claude" or "codex"; empty means claude
	Force   bool
}

// DDReport is the outcome of one bootstrap flow.
type DDReport struct {
	Tool string
	Err  error
}

// DDBootstrap initializes spec-driven development tooling (Spec Kit,
// BMad Method) in the working directory.
type DDBootstrap struct {
	runner Runner
	log    *log.Logger
	dryRun bool

	// lookPath overrides PATH resolution in tests. Nil means the real PATH.
	lookPath func(name string) (string, bool)
}

// NewDDBootstrap returns a bootstrap helper running commands through
// runner.
func NewDDBootstrap(runner Runner, logger *log.Logger, dryRun bool) *DDBootstrap {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &DDBootstrap{runner: runner, log: logger, dryRun: dryRun}
}

func (d *DDBootstrap) which(name string) (string, bool) {
	if d.lookPath != nil {
		return d.lookPath(name)
	}
	return LookPath(name)
}

// Run executes the selected flows in order, continuing past failures so
// one broken tool does not block the other. Cancellation stops the
// sequence.
func (d *DDBootstrap) Run(ctx context.Context, opts DDOptions) []DDReport {
	var reports []DDReport

	if opts.SpecKit {
		err := d.specKit(ctx, opts)
		reports = append(reports, DDReport{Tool: "spec-kit", Err: err})
		if err != nil {
			d.log.Error("spec-kit initialization failed", "err", err)
		} else {
			d.log.Info("spec-kit initialized")
		}
	}
	if ctx.Err() != nil {
		return reports
	}
	if opts.BMad {
		err := d.bmad(ctx)
		reports = append(reports, DDReport{Tool: "bmad-method", Err: err})
		if err != nil {
			d.log.Error("bmad-method initialization failed", "err", err)
		} else {
			d.log.Info("bmad-method initialized")
		}
	}

	return reports
}

// AllDDFailed reports whether every flow in reports failed. An empty
// slice is not a failure.
func AllDDFailed(reports []DDReport) bool {
	if len(reports) == 0 {
		return false
	}
	for _, r := range reports {
		if r.Err == nil {
			return false
		}
	}
	return true
}

// specKit verifies the specify CLI and its agent prerequisites, then
// initializes the current directory. Dry-run performs the preflight but
// not the init.
func (d *DDBootstrap) specKit(ctx context.Context, opts DDOptions) error {
	if _, found := d.which("specify"); !found {
		return fmt.Errorf("specify CLI is not installed, run `mk install spec-kit` first")
	}

	result, err := d.runner.Run(ctx, "specify check", RunOptions{
		Timeout: ddCheckTimeout,
		Retries: 1,
	})
	if err != nil {
		return fmt.Errorf("running specify check: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("specify check failed: %s", commandFailureDetail(result))
	}

	agent := opts.Agent
	if agent == "" {
		agent = "claude"
	}
	command := "specify init . --ai " + agent
	if opts.Force {
		command += " --force"
	}

	if d.dryRun {
		d.log.Info("[dry-run] would run", "command", command)
		return nil
	}

	result, err = d.runner.Run(ctx, command, RunOptions{
		Timeout: DefaultTimeout,
		Retries: 1,
	})
	if err != nil {
		return fmt.Errorf("running %q: %w", command, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%q failed: %s", command, commandFailureDetail(result))
	}
	return nil
}

// bmad installs the BMad Method into the current project through bunx or
// npx, preferring bun when both are present.
func (d *DDBootstrap) bmad(ctx context.Context) error {
	command := ""
	if _, found := d.which("bun"); found {
		command = "bunx bmad-method install"
	} else if _, found := d.which("npx"); found {
		command = "npx bmad-method install"
	} else {
		return fmt.Errorf("neither bun nor npx is available, run `mk install bun` or `mk install node` first")
	}

	if d.dryRun {
		d.log.Info("[dry-run] would run", "command", command)
		return nil
	}

	result, err := d.runner.Run(ctx, command, RunOptions{
		Timeout: DefaultTimeout,
		Retries: 1,
	})
	if err != nil {
		return fmt.Errorf("running %q: %w", command, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%q failed: %s", command, commandFailureDetail(result))
	}
	return nil
}

func commandFailureDetail(result RunResult) string {
	if detail := strings.TrimSpace(result.Stderr); detail != "" {
		return detail
	}
	return fmt.Sprintf("exit code %d", result.ExitCode)
}
