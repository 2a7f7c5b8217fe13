package session

import "time"

// BackoffConfig defines connect retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport timeouts for one session. A zero read or write
// timeout disables that deadline.
type Config struct {
	ConnectTimeout  time.Duration
	ConnectAttempts int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Backoff         BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  5 * time.Second,
		ConnectAttempts: 1,
		ReadTimeout:     0,
		WriteTimeout:    0,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills unset connect fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = def.ConnectAttempts
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
	if c.Backoff.InitialDelay <= 0 && c.Backoff.MaxDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
