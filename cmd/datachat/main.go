package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zhouzirui/datachat/internal/launcher"
)

const entryPath = "web/index.html"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := &launcher.Launcher{
		Executable: os.Getenv("DATACHAT_SERVER_BIN"),
		EntryFile:  resolveEntry(),
	}
	if err := l.Run(ctx); err != nil {
		if exitErr, ok := launcher.IsExitError(err); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveEntry prefers the entry next to the executable, then the working directory.
func resolveEntry() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), entryPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if abs, err := filepath.Abs(entryPath); err == nil {
		return abs
	}
	return entryPath
}
