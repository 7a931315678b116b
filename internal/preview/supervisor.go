package preview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/labsite/internal/logging"
)

const waitDelay = 2 * time.Second

// Supervisor runs an external preview server command and relays its output
// to the logger: stdout at info, stderr at error.
type Supervisor struct {
	command string
	dir     string
	logger  logging.Logger
}

// NewSupervisor creates a supervisor that runs command through the system
// shell with dir as working directory.
func NewSupervisor(command, dir string, logger logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Supervisor{
		command: command,
		dir:     dir,
		logger:  logger.WithComponent("preview"),
	}
}

// Run starts the command and blocks until it exits or ctx is cancelled,
// which kills it. The exit code is reported as a warning; a command that
// exits is not an error for the caller.
func (s *Supervisor) Run(ctx context.Context) error {
	cmd := shellCommand(ctx, s.command)
	cmd.Dir = s.dir

	// Children of the shell may hold the pipes open after it is killed.
	cmd.WaitDelay = waitDelay

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.relay(stdoutR, func(line string) { s.logger.Info(ctx, line) })
	}()
	go func() {
		defer wg.Done()
		s.relay(stderrR, func(line string) { s.logger.Error(ctx, nil, line) })
	}()
	closePipes := func() {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		wg.Wait()
	}

	if err := cmd.Start(); err != nil {
		closePipes()
		return fmt.Errorf("starting preview command %q: %w", s.command, err)
	}
	s.logger.Info(ctx, "Started preview server", "command", s.command, "pid", cmd.Process.Pid)

	err := cmd.Wait()
	closePipes()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		s.logger.Warn(ctx, err, "Preview server stopped")
		return nil
	}
	s.logger.Warn(ctx, nil, fmt.Sprintf("Server exited with code %d", cmd.ProcessState.ExitCode()))
	return nil
}

func (s *Supervisor) relay(r io.ReadCloser, emit func(string)) {
	defer r.Close()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		emit(line)
	}
	// Keep draining so the writer never blocks after a scan error.
	_, _ = io.Copy(io.Discard, r)
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
