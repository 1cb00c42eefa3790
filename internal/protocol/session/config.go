package session

import "time"

// BackoffConfig defines reconnect backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// Config defines transport reliability settings for one sensor endpoint.
type Config struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	GreetingQuiet    time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	SocketBufferSize int
	Backoff          BackoffConfig
}

// DefaultConfig returns the sensor endpoint transport defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 3 * time.Second,
		GreetingQuiet:    30 * time.Millisecond,
		ReadTimeout:      4500 * time.Millisecond,
		WriteTimeout:     2 * time.Second,
		SocketBufferSize: 64 * 1024,
		Backoff: BackoffConfig{
			InitialDelay: 20 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     time.Second,
		},
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.GreetingQuiet <= 0 {
		c.GreetingQuiet = def.GreetingQuiet
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.SocketBufferSize <= 0 {
		c.SocketBufferSize = def.SocketBufferSize
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier < 1.0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
	return c
}
