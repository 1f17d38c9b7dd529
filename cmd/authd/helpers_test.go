package main

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeTTY returns a real *os.File so promptPassword takes its terminal branch
// once isTerminal is stubbed.
func fakeTTY(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}
