package compose

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ExitError is returned when the compose command finished with a non-zero code.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// Runner executes compose commands with the given standard streams.
type Runner struct {
	*Compose

	logger zerolog.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewRunner(c *Compose, logger zerolog.Logger) *Runner {
	return &Runner{
		Compose: c,
		logger:  logger.With().Str("component", "compose").Logger(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Up starts the services in the background.
func (r *Runner) Up(ctx context.Context) error {
	return r.run(ctx, false, r.cmdUp)
}

// Down stops and removes the services.
func (r *Runner) Down(ctx context.Context) error {
	return r.run(ctx, false, r.cmdDown)
}

func (r *Runner) Logs(ctx context.Context, follow bool) error {
	return r.run(ctx, false, func() (string, []string) {
		return r.cmdLogs(follow)
	})
}

// Exec runs the command inside the running service container.
// An interactive exec is attached to Stdin.
func (r *Runner) Exec(ctx context.Context, service string, interactive bool, command ...string) error {
	return r.run(ctx, interactive, func() (string, []string) {
		return r.cmdExec(service, interactive, command...)
	})
}

func (r *Runner) run(ctx context.Context, attachStdin bool, build func() (string, []string)) error {
	name, args := build()
	line := strings.Join(append([]string{name}, args...), " ")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.ProjectDir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if attachStdin {
		cmd.Stdin = r.Stdin
	}

	r.logger.Debug().Str("command", line).Str("dir", r.ProjectDir).Msg("running compose command")

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: line, Code: exitErr.ExitCode()}
	}
	if err != nil {
		return errors.Wrapf(err, "%s failed", line)
	}

	return nil
}
