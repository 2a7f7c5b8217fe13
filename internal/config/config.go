package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/treexfer/internal/logging"
	"github.com/danmuck/treexfer/internal/protocol/session"
)

const (
	DefaultPort  = 59013
	MinValidPort = 1024
	MaxValidPort = 65535
)

type Config struct {
	Server  ServerConfig
	Client  ClientConfig
	Session session.Config
	Log     LogConfig
}

type ServerConfig struct {
	// Host is the bind address; empty binds all interfaces.
	Host string
	Port int
	Dest string
	// Once stops the server after the first transfer.
	Once        bool
	MetricsAddr string
	Progress    bool
}

type ClientConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level string
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:     DefaultPort,
			Dest:     ".",
			Once:     true,
			Progress: true,
		},
		Client: ClientConfig{
			Port: DefaultPort,
		},
		Session: session.DefaultConfig(),
		Log:     LogConfig{Level: "info"},
	}
}

func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(strings.TrimSpace(s.Host), strconv.Itoa(s.Port))
}

func (c ClientConfig) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port))
}

type fileConfig struct {
	Server  serverSection  `toml:"server"`
	Client  clientSection  `toml:"client"`
	Session sessionSection `toml:"session"`
	Log     logSection     `toml:"log"`
}

type serverSection struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Dest        string `toml:"dest"`
	Once        bool   `toml:"once"`
	MetricsAddr string `toml:"metrics_addr"`
	Progress    bool   `toml:"progress"`
}

type clientSection struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type sessionSection struct {
	ConnectTimeout  string `toml:"connect_timeout"`
	ConnectAttempts int    `toml:"connect_attempts"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
}

type logSection struct {
	Level string `toml:"level"`
}

// Load overlays the keys present in the TOML file at path onto
// DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("server", "host") {
		cfg.Server.Host = strings.TrimSpace(raw.Server.Host)
	}
	if meta.IsDefined("server", "port") {
		cfg.Server.Port = raw.Server.Port
	}
	if meta.IsDefined("server", "dest") {
		cfg.Server.Dest = strings.TrimSpace(raw.Server.Dest)
	}
	if meta.IsDefined("server", "once") {
		cfg.Server.Once = raw.Server.Once
	}
	if meta.IsDefined("server", "metrics_addr") {
		cfg.Server.MetricsAddr = strings.TrimSpace(raw.Server.MetricsAddr)
	}
	if meta.IsDefined("server", "progress") {
		cfg.Server.Progress = raw.Server.Progress
	}
	if meta.IsDefined("client", "host") {
		cfg.Client.Host = strings.TrimSpace(raw.Client.Host)
	}
	if meta.IsDefined("client", "port") {
		cfg.Client.Port = raw.Client.Port
	}
	if meta.IsDefined("session", "connect_attempts") {
		cfg.Session.ConnectAttempts = raw.Session.ConnectAttempts
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.Session.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"read_timeout", raw.Session.ReadTimeout, &cfg.Session.ReadTimeout},
		{"write_timeout", raw.Session.WriteTimeout, &cfg.Session.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined("session", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse session.%s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := ValidatePort(cfg.Server.Port); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := ValidateHost(cfg.Server.Host, true); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if strings.TrimSpace(cfg.Server.Dest) == "" {
		return fmt.Errorf("server: dest is required")
	}
	if err := ValidatePort(cfg.Client.Port); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := ValidateHost(cfg.Client.Host, true); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if cfg.Session.ConnectAttempts < 0 {
		return fmt.Errorf("session: connect_attempts must not be negative")
	}
	if cfg.Session.ReadTimeout < 0 || cfg.Session.WriteTimeout < 0 || cfg.Session.ConnectTimeout < 0 {
		return fmt.Errorf("session: timeouts must not be negative")
	}
	if lvl := strings.TrimSpace(cfg.Log.Level); lvl != "" {
		if _, ok := logging.ParseLevel(lvl); !ok {
			return fmt.Errorf("log: unknown level %q", lvl)
		}
	}
	return nil
}

func ValidatePort(port int) error {
	if port < MinValidPort || port > MaxValidPort {
		return fmt.Errorf("port %d outside %d..%d", port, MinValidPort, MaxValidPort)
	}
	return nil
}

// ValidateHost accepts IP literals, "localhost" and plain DNS names.
func ValidateHost(host string, allowEmpty bool) error {
	host = strings.TrimSpace(host)
	if host == "" {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("host is required")
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("invalid host %q", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("invalid host %q", host)
		}
		for _, r := range label {
			if !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return fmt.Errorf("invalid host %q", host)
			}
		}
	}
	return nil
}
