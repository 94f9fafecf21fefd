// Package testutils holds helpers shared by tests across cpmigrate packages.
package testutils

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/indaco/cpmigrate/internal/core"
	"github.com/urfave/cli/v3"
)

// CaptureStdout runs f and returns everything it wrote to os.Stdout.
func CaptureStdout(f func()) (string, error) {
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	var copyErr error
	go func() {
		_, copyErr = io.Copy(&buf, r)
		close(done)
	}()

	defer func() { os.Stdout = old }()
	f()

	_ = w.Close()
	<-done
	_ = r.Close()
	return buf.String(), copyErr
}

// WriteTempProject writes content to rel under dir, creating parents, and
// returns the absolute path.
func WriteTempProject(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), core.PermDir); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), core.PermOwnerRW); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ReadTempFile returns the content of path or fails the test.
func ReadTempFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// RunCLITest runs cmd with args from inside workdir and fails on error.
func RunCLITest(t *testing.T, cmd *cli.Command, args []string, workdir string) {
	t.Helper()
	if err := RunCLITestAllowError(t, cmd, args, workdir); err != nil {
		t.Fatalf("CLI run failed: %v", err)
	}
}

// RunCLITestAllowError runs cmd with args from inside workdir and returns
// its error.
func RunCLITestAllowError(t *testing.T, cmd *cli.Command, args []string, workdir string) error {
	t.Helper()
	t.Chdir(workdir)
	return cmd.Run(context.Background(), args)
}
