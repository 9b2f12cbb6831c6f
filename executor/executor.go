// Package executor compiles and runs user submitted programs under time bounds.
// Every execution owns a private workspace which is removed before Execute
// returns, whichever step failed.
package executor

import (
	"code-lab/contract"
	"code-lab/domain"
	"code-lab/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Ensure *Executor implements the contract.Executor interface at compile time.
var _ contract.Executor = (*Executor)(nil)

const (
	defaultRunTimeout     = 10 * time.Second
	defaultCompileTimeout = 15 * time.Second
	defaultMaxOutput      = 1 << 20
	// waitDelay bounds how long Wait keeps reading pipes once the program is killed.
	waitDelay = 2 * time.Second
)

type Executor struct {
	log            *slog.Logger
	root           string
	toolchains     map[domain.Language]Toolchain
	runTimeout     time.Duration
	compileTimeout time.Duration
	maxOutput      int
	tracker        contract.ProcessTracker
}

type Option func(*Executor)

func WithToolchains(t map[domain.Language]Toolchain) Option {
	return func(e *Executor) { e.toolchains = t }
}

func WithTimeouts(compile, run time.Duration) Option {
	return func(e *Executor) {
		e.compileTimeout = compile
		e.runTimeout = run
	}
}

func WithMaxOutput(bytes int) Option {
	return func(e *Executor) { e.maxOutput = bytes }
}

func WithTracker(t contract.ProcessTracker) Option {
	return func(e *Executor) { e.tracker = t }
}

// New builds an executor writing workspaces under root, the OS temp dir when empty.
func New(log *slog.Logger, root string, opts ...Option) *Executor {
	if root == "" {
		root = os.TempDir()
	}
	e := &Executor{
		log:            log,
		root:           root,
		toolchains:     DefaultToolchains(),
		runTimeout:     defaultRunTimeout,
		compileTimeout: defaultCompileTimeout,
		maxOutput:      defaultMaxOutput,
		tracker:        noopTracker{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckEnvironment fails when a toolchain binary is missing or the workspace
// root is not writable. It is meant to run once, before serving.
func (e *Executor) CheckEnvironment() error {
	var missing []error
	for lang, t := range e.toolchains {
		for _, bin := range t.Requires {
			if _, err := exec.LookPath(bin); err != nil {
				missing = append(missing, fmt.Errorf("%w: %s (%s)", errors.ErrToolchainMissing, bin, lang))
			}
		}
	}
	if err := ProbeRoot(e.root); err != nil {
		missing = append(missing, err)
	}
	return stderrors.Join(missing...)
}

func (e *Executor) Supports(lang domain.Language) bool {
	_, ok := e.toolchains[lang]
	return ok
}

// Execute compiles when the language needs it, then runs the program.
// User-code faults and process-layer errors come back as Stderr text; the
// error is reserved for an unsupported language or an unusable workspace.
func (e *Executor) Execute(ctx context.Context, code string, language domain.Language) (domain.Output, error) {
	toolchain, ok := e.toolchains[language]
	if !ok {
		return domain.Output{}, fmt.Errorf("%w: %q", errors.ErrUnsupportedLanguage, language)
	}

	// 1. Scoped workspace, released whatever happens next
	ws, err := NewWorkspace(e.root)
	if err != nil {
		return domain.Output{}, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			e.log.Error("Workspace cleanup failed", "dir", ws.Dir, "error", err)
		}
	}()

	// 2. Persist the source under its derived name
	p := toolchain.resolve(ws.Dir, code)
	if err := ws.Write(p.source, code); err != nil {
		return domain.Output{}, err
	}

	// 3. Compile step, its diagnostics are the failure output
	if len(p.compile) > 0 {
		out := e.command(ctx, ws, language, p.compile, e.compileTimeout)
		if out.failed {
			return domain.Output{Stdout: out.stdout, Stderr: out.stderr}, nil
		}
		if missing, ok := ws.Missing(p.outputs); ok {
			return domain.Output{Stdout: out.stdout, Stderr: fmt.Sprintf("Compilation produced no %s", filepath.Base(missing))}, nil
		}
	}

	// 4. Run step under the wall-clock bound
	out := e.command(ctx, ws, language, p.run, e.runTimeout)
	return domain.Output{Stdout: out.stdout, Stderr: out.stderr}, nil
}

type commandOutput struct {
	stdout string
	stderr string
	failed bool
}

func (e *Executor) command(ctx context.Context, ws *Workspace, language domain.Language,
	argv []string, timeout time.Duration) commandOutput {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = ws.Dir
	cmd.Env = sandboxEnv(ws.Dir)
	setPlatformSpecificAttrs(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	stdout := newCappedBuffer(e.maxOutput)
	stderr := newCappedBuffer(e.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		e.log.Error("Toolchain failed to start", "command", argv[0], "error", err)
		return commandOutput{stderr: fmt.Sprintf("failed to start %s: %v", argv[0], err), failed: true}
	}
	pid := domain.PID(cmd.Process.Pid)
	e.tracker.Track(domain.Process{PID: pid, Language: language, StartedAt: time.Now().UTC()})
	err := cmd.Wait()
	e.tracker.Untrack(pid)

	out := commandOutput{stdout: stdout.String(), stderr: stderr.String()}
	switch {
	case err == nil:
		return out
	case stderrors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		out.stderr = appendLine(out.stderr, fmt.Sprintf("Execution timed out after %s", timeout))
	case ctx.Err() != nil:
		out.stderr = appendLine(out.stderr, "Execution cancelled")
	case out.stderr == "":
		out.stderr = fmt.Sprintf("Command failed: %s\n%v", argv[0], err)
	}
	out.failed = true
	return out
}

func appendLine(text, line string) string {
	if text == "" || text[len(text)-1] == '\n' {
		return text + line
	}
	return text + "\n" + line
}

// sandboxEnv keeps the server's secrets out of user programs.
func sandboxEnv(dir string) []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"TMPDIR=" + dir,
		"LANG=C.UTF-8",
	}
}

type noopTracker struct{}

func (noopTracker) Track(domain.Process) {}
func (noopTracker) Untrack(domain.PID)   {}
