package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders the defaults as a TOML document that Load accepts
// unchanged.
func Template() (string, error) {
	def := DefaultConfig()
	doc := fileConfig{
		Server: serverSection{
			Host:        def.Server.Host,
			Port:        def.Server.Port,
			Dest:        def.Server.Dest,
			Once:        def.Server.Once,
			MetricsAddr: def.Server.MetricsAddr,
			Progress:    def.Server.Progress,
		},
		Client: clientSection{
			Host: "127.0.0.1",
			Port: def.Client.Port,
		},
		Session: sessionSection{
			ConnectTimeout:  def.Session.ConnectTimeout.String(),
			ConnectAttempts: def.Session.ConnectAttempts,
			ReadTimeout:     def.Session.ReadTimeout.String(),
			WriteTimeout:    def.Session.WriteTimeout.String(),
		},
		Log: logSection{Level: def.Log.Level},
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(out), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
