package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
)

// Command is an external tool invocation such as "npx tsc".
type Command struct {
	Name string   // used in errors and logs
	Argv []string // program followed by fixed arguments
	Dir  string
	Env  []string // extra KEY=VALUE entries appended to the process environment
}

// ParseCommand splits a shell-style command line.
func ParseCommand(name, line string) (Command, error) {
	argv, err := shellwords.Parse(line)
	if err != nil {
		return Command{}, ferrors.ConfigError("invalid command line for "+name).
			WithCause(err).
			WithContext("command", line).
			Build()
	}
	if len(argv) == 0 {
		return Command{}, ferrors.ConfigError("empty command line for " + name).Build()
	}
	return Command{Name: name, Argv: argv}, nil
}

// Run executes the command with extra arguments and optional stdin. It
// returns stdout; a non-zero exit becomes a CollaboratorError carrying the
// combined output.
func (c Command) Run(ctx context.Context, stdin io.Reader, env []string, args ...string) ([]byte, error) {
	argv := append(append([]string{}, c.Argv...), args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 || len(env) > 0 {
		cmd.Env = append(append(os.Environ(), c.Env...), env...)
	}
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running tool", logfields.Tool(c.Name), slog.String("argv", strings.Join(argv, " ")))
	if err := cmd.Run(); err != nil {
		report := strings.TrimSpace(stdout.String() + "\n" + stderr.String())
		if report == "" {
			report = err.Error()
		}
		return stdout.Bytes(), ferrors.CollaboratorError(c.Name, errors.New(report)).
			WithContext("exit", exitCode(err)).
			Build()
	}
	return stdout.Bytes(), nil
}

func exitCode(err error) int {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}
