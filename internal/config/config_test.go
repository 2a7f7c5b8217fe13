package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treexfer.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 6000
dest = "/srv/inbox"
once = false
metrics_addr = "127.0.0.1:9464"

[client]
host = "10.0.0.5"

[session]
read_timeout = "30s"
connect_attempts = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 6000 || cfg.Server.Dest != "/srv/inbox" || cfg.Server.Once {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr: %q", cfg.Server.MetricsAddr)
	}
	if !cfg.Server.Progress {
		t.Fatalf("expected progress default kept")
	}
	if cfg.Client.Host != "10.0.0.5" || cfg.Client.Port != DefaultPort {
		t.Fatalf("unexpected client config: %+v", cfg.Client)
	}
	if cfg.Client.Addr() != "10.0.0.5:59013" {
		t.Fatalf("unexpected client addr: %q", cfg.Client.Addr())
	}
	if cfg.Session.ReadTimeout != 30*time.Second || cfg.Session.ConnectAttempts != 3 {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Session.ConnectTimeout != 5*time.Second {
		t.Fatalf("expected default connect timeout, got %v", cfg.Session.ConnectTimeout)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
[session]
write_timeout = "abc"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "write_timeout") {
		t.Fatalf("expected write_timeout parse error, got %v", err)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, `
[server]
prot = 6000
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "server.prot") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 80
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected privileged port rejected")
	}
}

func TestValidateHost(t *testing.T) {
	for _, ok := range []string{"localhost", "127.0.0.1", "::1", "files.example.org", "nas-01"} {
		if err := ValidateHost(ok, false); err != nil {
			t.Fatalf("host %q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"bad host", "-lead.example", "a..b", "x_y"} {
		if err := ValidateHost(bad, false); err == nil {
			t.Fatalf("host %q: expected rejection", bad)
		}
	}
	if err := ValidateHost("", false); err == nil {
		t.Fatalf("expected empty host rejected when required")
	}
	if err := ValidateHost("", true); err != nil {
		t.Fatalf("expected empty host allowed: %v", err)
	}
}

func TestListenAddrBindsAllByDefault(t *testing.T) {
	if got := DefaultConfig().Server.ListenAddr(); got != ":59013" {
		t.Fatalf("unexpected listen addr: %q", got)
	}
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treexfer.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := DefaultConfig()
	if cfg.Server != def.Server {
		t.Fatalf("server section drifted: got=%+v want=%+v", cfg.Server, def.Server)
	}
	if cfg.Session.ConnectTimeout != def.Session.ConnectTimeout || cfg.Session.ReadTimeout != 0 {
		t.Fatalf("session section drifted: %+v", cfg.Session)
	}
	if cfg.Client.Host != "127.0.0.1" {
		t.Fatalf("unexpected template client host: %q", cfg.Client.Host)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "loud"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "loud") {
		t.Fatalf("expected log level error, got %v", err)
	}
}
