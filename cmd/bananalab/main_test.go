package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	width, height, outDir, logLevel, verbose = 300, 300, "", "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTarget(t *testing.T) {
	tests := []struct {
		w, h    int
		wantErr bool
	}{
		{300, 300, false},
		{120, 80, false},
		{0, 300, true},
		{300, -1, true},
	}
	for _, tt := range tests {
		width, height = tt.w, tt.h
		got, err := target()
		if (err != nil) != tt.wantErr {
			t.Errorf("target(%d, %d) err = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			continue
		}
		if err == nil && (got.X != tt.w || got.Y != tt.h) {
			t.Errorf("target(%d, %d) = %v", tt.w, tt.h, got)
		}
	}
}

func TestCommandArgs(t *testing.T) {
	empty := t.TempDir()
	file := filepath.Join(empty, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"render needs a document", []string{"render"}, "accepts 1 arg"},
		{"batch with no documents", []string{"batch", empty}, "no page documents"},
		{"batch missing path", []string{"batch", filepath.Join(empty, "missing")}, "no such file"},
		{"watch needs a directory", []string{"watch", file}, "not a directory"},
		{"bad log level", []string{"--log-level", "loud", "batch", empty}, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestProgressPrinterOnlyWhenVerbose(t *testing.T) {
	verbose = false
	if progressPrinter() != nil {
		t.Error("progress printer installed without --verbose")
	}
	verbose = true
	defer func() { verbose = false }()
	if progressPrinter() == nil {
		t.Error("no progress printer with --verbose")
	}
}
