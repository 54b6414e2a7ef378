// Package config holds the realtime service configuration: defaults,
// environment overrides, and a YAML file loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for a realtime service instance.
type Config struct {
	// HTTPAddr is the listen address for the WebSocket and
	// diagnostics endpoints.
	HTTPAddr string `yaml:"http_addr"`

	// HeartbeatInterval is how often clients are expected to send a
	// heartbeat frame.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// ConnectionTimeout is how long a connection may stay silent
	// before the liveness monitor evicts it.
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`

	// SweepInterval is how often the liveness monitor runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SendBuffer sizes each connection's outbound event queue.
	SendBuffer int `yaml:"send_buffer"`

	// WriteTimeout bounds a single transport write so a wedged
	// channel cannot pin its write pump indefinitely.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds settings for the cross-instance relay and the
// diagnostic event trail.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`

	// RecentSize caps the diagnostic event trail; RecentTTL expires
	// it. The trail is for inspection only, never replay.
	RecentSize int           `yaml:"recent_size"`
	RecentTTL  time.Duration `yaml:"recent_ttl"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		HTTPAddr:          ":8090",
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 90 * time.Second,
		SweepInterval:     30 * time.Second,
		SendBuffer:        256,
		WriteTimeout:      10 * time.Second,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			Prefix:     "shopfabric:rt:",
			RecentSize: 100,
			RecentTTL:  5 * time.Minute,
		},
	}
}

// FromEnv returns the default configuration with environment variable
// overrides applied.
func FromEnv() *Config {
	cfg := Default()

	if addr := os.Getenv("REALTIME_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if v := os.Getenv("REALTIME_CONNECTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ConnectionTimeout = d
		}
	}
	if v := os.Getenv("REALTIME_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = d
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_RT_PREFIX"); prefix != "" {
		cfg.Redis.Prefix = prefix
	}
	return cfg
}

// applyDefaults fills zero-valued fields after a file load.
func (c *Config) applyDefaults() {
	def := Default()
	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = def.ConnectionTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = def.WriteBufferSize
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = def.Redis.Prefix
	}
	if c.Redis.RecentSize <= 0 {
		c.Redis.RecentSize = def.Redis.RecentSize
	}
	if c.Redis.RecentTTL <= 0 {
		c.Redis.RecentTTL = def.Redis.RecentTTL
	}
}

// Validate checks for configurations that cannot work.
func (c *Config) Validate() error {
	if c.ConnectionTimeout <= c.HeartbeatInterval {
		return fmt.Errorf("connection_timeout (%s) must exceed heartbeat_interval (%s)",
			c.ConnectionTimeout, c.HeartbeatInterval)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	return nil
}
