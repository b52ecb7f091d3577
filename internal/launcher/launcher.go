package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ServerBinary is the name of the server executable looked up on PATH.
const ServerBinary = "datachat-server"

// interruptGrace is how long the child gets to exit after an interrupt.
const interruptGrace = 15 * time.Second

// ExitError carries the process exit code for a failed launch.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Launcher starts the server on the entry template and waits for it.
type Launcher struct {
	// Executable is a name or path of the server binary; empty means ServerBinary.
	Executable string
	EntryFile  string
	Stdout     io.Writer
	Stderr     io.Writer
	// LookPath resolves Executable; nil means exec.LookPath.
	LookPath func(string) (string, error)
}

// Run blocks until the server exits. Cancelling ctx interrupts the server.
func (l *Launcher) Run(ctx context.Context) error {
	stdout, stderr := l.Stdout, l.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	if _, err := os.Stat(l.EntryFile); err != nil {
		return &ExitError{Code: 1, Message: fmt.Sprintf("Error: Could not find the app entry at %s", l.EntryFile)}
	}

	fmt.Fprintln(stdout, "Starting Data Analysis Chatbot...")
	fmt.Fprintln(stdout, "Loading web interface...")

	path, err := l.resolve()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, path, "run", l.EntryFile)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// 用户中断，子进程已按信号退出
			return nil
		}
		return &ExitError{Code: 1, Message: fmt.Sprintf("Error running the server: %v", err)}
	}
	return nil
}

func (l *Launcher) resolve() (string, error) {
	name := l.Executable
	if name == "" {
		name = ServerBinary
	}
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(name)
	if err != nil || path == "" {
		return "", &ExitError{Code: 1, Message: fmt.Sprintf(
			"Error: %s not found. Please make sure it is installed.\nYou can install it with: go install github.com/zhouzirui/datachat/cmd/%s@latest",
			name, ServerBinary)}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return "", &ExitError{Code: 1, Message: fmt.Sprintf("Error: Invalid %s executable path: %s", ServerBinary, path)}
	}
	return path, nil
}

// IsExitError reports whether err carries an exit code.
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	ok := errors.As(err, &exitErr)
	return exitErr, ok
}
