package tool

import (
	"context"
	"regexp"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("spec-kit", newSpecKit) }

const specKitRepo = "git+https://github.com/github/spec-kit.git"

// specKit installs GitHub's Spec Kit as a uv tool straight from the git
// repository. The CLI binary is `specify`, and its version lives in a
// "CLI Version" table row rather than a plain --version line.
type specKit struct {
	base
}

func newSpecKit(deps Deps) Tool {
	return &specKit{base{
		deps:       deps,
		name:       "spec-kit",
		display:    "Spec Kit",
		command:    "specify",
		versionArg: "version",
	}}
}

var specKitVersionRe = regexp.MustCompile(`CLI Version\s+(\S+)`)

// InstalledVersion reads the "CLI Version" row out of the specify version
// table. The table also lists the Python and template versions, so the
// generic first-match extraction would grab the wrong one.
func (s *specKit) InstalledVersion(ctx context.Context) string {
	if _, ok := s.lookPath("specify"); !ok {
		return ""
	}
	result, err := s.run(ctx, "specify version", core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	if m := specKitVersionRe.FindStringSubmatch(result.Stdout); m != nil {
		return m[1]
	}
	return core.VersionFromOutput(result.Stdout)
}

func (s *specKit) Install(ctx context.Context) core.InstallReport {
	if s.Verify(ctx) {
		return s.skipInstalled(s.InstalledVersion(ctx))
	}
	if _, ok := s.lookPath("uv"); !ok {
		return s.missingDependency("uv", "install")
	}

	result, err := s.run(ctx, "uv tool install specify-cli --from "+specKitRepo, 300*time.Second, 2)
	if err != nil {
		return core.Failed(s.name, "installing Spec Kit via uv failed", err.Error())
	}
	if result.ExitCode != 0 {
		return s.installFailed("installing Spec Kit via uv failed", result)
	}

	if !s.Verify(ctx) {
		return s.verifyFailed("install")
	}
	return s.installed(s.InstalledVersion(ctx))
}

func (s *specKit) Upgrade(ctx context.Context) core.InstallReport {
	if !s.Verify(ctx) {
		return s.notInstalled()
	}
	if _, ok := s.lookPath("uv"); !ok {
		return s.missingDependency("uv", "upgrade")
	}
	oldVersion := s.InstalledVersion(ctx)

	result, err := s.run(ctx, "uv tool install specify-cli --force --from "+specKitRepo, 300*time.Second, 2)
	if err != nil {
		return core.Failed(s.name, "upgrading Spec Kit via uv failed", err.Error())
	}
	if result.ExitCode != 0 {
		return s.installFailed("upgrading Spec Kit via uv failed", result)
	}

	if !s.Verify(ctx) {
		return s.verifyFailed("upgrade")
	}
	return s.upgraded(oldVersion, s.InstalledVersion(ctx))
}
