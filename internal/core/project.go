package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// projectGitignore covers the Node and Python toolchains a kickstarted
// monorepo ends up with.
const projectGitignore = `# Dependencies
node_modules/
.pnp
.pnp.js

# Testing
coverage/
*.log

# Production
dist/
build/
out/

# Misc
.DS_Store
*.pem

# Debug
npm-debug.log*
yarn-debug.log*
yarn-error.log*
pnpm-debug.log*

# Local env files
.env
.env.local
.env.development.local
.env.test.local
.env.production.local

# IDE
.vscode/
.idea/
*.swp
*.swo
*~

# Python
__pycache__/
*.py[cod]
*$py.class
.Python
venv/
env/
ENV/

# Conda
.conda/
`

const pnpmWorkspaceYAML = `packages:
  - 'apps/*'
  - 'packages/*'
`

// packageJSON is the workspace manifest written into a new project. Field
// order here is the order in the generated file.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Workspaces      []string          `json:"workspaces"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ProjectCreator scaffolds the monorepo skeleton: apps/, packages/, and
// shared/ directories, the pnpm workspace manifests, and a fresh git
// repository with an initial commit.
type ProjectCreator struct {
	workDir string
	runner  Runner
}

// NewProjectCreator creates a ProjectCreator that scaffolds under workDir.
func NewProjectCreator(workDir string, runner Runner) *ProjectCreator {
	return &ProjectCreator{workDir: workDir, runner: runner}
}

// Create lays out <workDir>/<name>. An existing non-empty target is
// refused unless force is set; scaffolding into it never deletes what is
// already there. Git initialization is best effort: a machine without git
// still gets a usable project tree.
func (p *ProjectCreator) Create(name string, force bool) error {
	target := filepath.Join(p.workDir, name)

	if err := p.checkTarget(target, force); err != nil {
		return err
	}
	if err := p.createDirectories(target); err != nil {
		return err
	}
	if err := p.writeManifests(target, name); err != nil {
		return err
	}
	p.initGit(target)
	return nil
}

// checkTarget rejects a non-empty existing directory unless force is set.
// Hidden entries don't count: a stray .DS_Store should not block a scaffold.
func (p *ProjectCreator) checkTarget(target string, force bool) error {
	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking project directory: %w", err)
	}
	var visible []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			visible = append(visible, entry.Name())
		}
	}
	if len(visible) > 0 && !force {
		return fmt.Errorf("directory %s already exists and is not empty (contains %s), use --force to scaffold anyway",
			target, strings.Join(visible, ", "))
	}
	return nil
}

func (p *ProjectCreator) createDirectories(target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	for _, dir := range []string{"apps", "packages", "shared"} {
		path := filepath.Join(target, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		// .gitkeep so git tracks the empty directory
		keep := filepath.Join(path, ".gitkeep")
		if err := os.WriteFile(keep, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s/.gitkeep: %w", dir, err)
		}
	}
	return nil
}

func (p *ProjectCreator) writeManifests(target, name string) error {
	pkg := packageJSON{
		Name:       name,
		Version:    "0.1.0",
		Private:    true,
		Workspaces: []string{"apps/*", "packages/*"},
		Scripts: map[string]string{
			"dev":   "echo 'Add your dev script here'",
			"build": "echo 'Add your build script here'",
			"test":  "echo 'Add your test script here'",
		},
		DevDependencies: map[string]string{},
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding package.json: %w", err)
	}
	data = append(data, '\n')

	files := map[string]string{
		"package.json":        string(data),
		"pnpm-workspace.yaml": pnpmWorkspaceYAML,
		".gitignore":          projectGitignore,
		"README.md":           projectReadme(name),
	}
	for file, content := range files {
		if err := os.WriteFile(filepath.Join(target, file), []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}

// initGit initializes a repository with an initial commit. Every step is
// best effort; a failure leaves the scaffold intact and unversioned.
func (p *ProjectCreator) initGit(target string) {
	if dirExists(filepath.Join(target, ".git")) {
		return
	}
	if p.runner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := RunOptions{Timeout: 10 * time.Second, Retries: 1, Dir: target}
	result, err := p.runner.Run(ctx, "git init", opts)
	if err != nil || result.ExitCode != 0 {
		return
	}
	if result, err = p.runner.Run(ctx, "git add .", opts); err != nil || result.ExitCode != 0 {
		return
	}
	p.runner.Run(ctx, `git commit -m "Initial commit from mono-kickstart"`, opts)
}

func projectReadme(name string) string {
	return fmt.Sprintf(`# %[1]s

A monorepo scaffolded by mono-kickstart.

## Layout

    %[1]s/
    |-- apps/                  application workspaces
    |-- packages/              shared package workspaces
    |-- shared/                assets shared across workspaces
    |-- package.json           Node.js workspace manifest
    '-- pnpm-workspace.yaml    pnpm workspace manifest

## Getting started

Install dependencies:

    pnpm install

Then develop, build, and test from the root:

    pnpm dev
    pnpm build
    pnpm test

## Adding a workspace

Create a directory under apps/ (applications) or packages/ (shared
libraries) and initialize it:

    cd apps
    mkdir my-app
    cd my-app
    pnpm init

Reference a workspace package from another workspace with:

    "dependencies": {
      "my-package": "workspace:*"
    }

## Further reading

- pnpm workspaces: https://pnpm.io/workspaces
- Monorepo practices: https://monorepo.tools/
`, name)
}
