package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/testutil/testlog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitThenValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "treexfer.toml")

	out, err := execute(t, "config", "init", "--output", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := execute(t, "config", "init", "--output", path); err == nil {
		t.Fatalf("expected init to refuse overwrite")
	}
	if _, err := execute(t, "config", "init", "--output", path, "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}

	out, err = execute(t, "config", "validate", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "validated") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestConfigValidateRejectsUnknownKey(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server]\nbogus = 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := execute(t, "config", "validate", path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestRecvRejectsMissingDest(t *testing.T) {
	testlog.Start(t)
	dest := filepath.Join(t.TempDir(), "missing")
	_, err := execute(t, "recv", dest, "--port", "40000")
	if !errors.Is(err, protocol.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestPortFlagOutOfRange(t *testing.T) {
	testlog.Start(t)
	for _, args := range [][]string{
		{"recv", t.TempDir(), "--port", "80"},
		{"send", t.TempDir(), "--port", "70000"},
	} {
		_, err := execute(t, args...)
		if err == nil || !strings.Contains(err.Error(), "--port") {
			t.Fatalf("%v: expected port error, got %v", args, err)
		}
	}
}

func TestSendRequiresPath(t *testing.T) {
	testlog.Start(t)
	if _, err := execute(t, "send"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestAliasesResolve(t *testing.T) {
	testlog.Start(t)
	root := newRootCmd()
	want := map[string]string{
		"client": "send", "c": "send", "cli": "send", "1": "send",
		"server": "recv", "s": "recv", "srv": "recv", "0": "recv",
	}
	for alias, name := range want {
		cmd, _, err := root.Find([]string{alias})
		if err != nil || cmd.Name() != name {
			t.Fatalf("alias %q: got %v err=%v, want %s", alias, cmd, err, name)
		}
	}
}
