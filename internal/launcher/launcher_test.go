package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "datachat-server")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func writeEntry(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(`{{define "app"}}{{end}}`), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
}

func fixedPath(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	exitErr, ok := IsExitError(err)
	if !ok {
		t.Fatalf("expected ExitError, got %v", err)
	}
	return exitErr.Code
}

func TestRunPassesEntryToServer(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	entry := writeEntry(t, dir)
	server := writeScript(t, dir, `echo "$1 $2"`, 0o755)

	var out bytes.Buffer
	l := &Launcher{EntryFile: entry, Stdout: &out, Stderr: &out, LookPath: fixedPath(server)}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if !strings.Contains(out.String(), "run "+entry) {
		t.Fatalf("expected server to receive run %s, got:\n%s", entry, out.String())
	}
	if !strings.HasPrefix(out.String(), "Starting Data Analysis Chatbot...") {
		t.Fatalf("expected startup banner, got:\n%s", out.String())
	}
}

func TestRunMissingEntry(t *testing.T) {
	l := &Launcher{EntryFile: filepath.Join(t.TempDir(), "missing.html"), Stdout: &bytes.Buffer{}}

	err := l.Run(context.Background())
	if exitCode(t, err) != 1 || !strings.Contains(err.Error(), "Could not find the app entry") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunServerNotFound(t *testing.T) {
	dir := t.TempDir()
	l := &Launcher{
		EntryFile: writeEntry(t, dir),
		Stdout:    &bytes.Buffer{},
		LookPath:  func(string) (string, error) { return "", errors.New("not found") },
	}

	err := l.Run(context.Background())
	if exitCode(t, err) != 1 || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRejectsDirectoryAndNonExecutable(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	entry := writeEntry(t, dir)
	plain := writeScript(t, dir, "exit 0", 0o644)

	for _, path := range []string{dir, plain} {
		l := &Launcher{EntryFile: entry, Stdout: &bytes.Buffer{}, LookPath: fixedPath(path)}
		err := l.Run(context.Background())
		if exitCode(t, err) != 1 || !strings.Contains(err.Error(), "Invalid") {
			t.Fatalf("expected invalid executable error for %s, got %v", path, err)
		}
	}
}

func TestRunServerFailure(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	server := writeScript(t, dir, "exit 3", 0o755)

	l := &Launcher{EntryFile: writeEntry(t, dir), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, LookPath: fixedPath(server)}
	err := l.Run(context.Background())
	if exitCode(t, err) != 1 || !strings.Contains(err.Error(), "Error running the server") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInterruptStopsServer(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	server := writeScript(t, dir, `trap 'exit 0' INT; while true; do sleep 0.1; done`, 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	l := &Launcher{EntryFile: writeEntry(t, dir), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, LookPath: fixedPath(server)}
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit on interrupt, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after interrupt")
	}
}
