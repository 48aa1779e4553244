package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrGitNotInstalled is returned when no git executable is on PATH.
var ErrGitNotInstalled = errors.New("git executable not found")

// runner executes git in a repository directory.
type runner struct {
	dir string
	log logrus.FieldLogger
}

func (r runner) run(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"-C", r.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	r.log.WithFields(logrus.Fields{
		"args":     strings.Join(args, " "),
		"duration": time.Since(start),
	}).Debug("git")

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrGitNotInstalled
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &commandError{args: args, err: err, stderr: strings.TrimSpace(stderr.String())}
	}
	return out, nil
}

type commandError struct {
	args   []string
	err    error
	stderr string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("git %s failed: %v: %s", e.args[0], e.err, e.stderr)
}

func (e *commandError) Unwrap() error { return e.err }

// exitCode returns the exit status of a failed git command, or -1 when err
// did not come from a git process that exited.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
