package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/livechat-docker/livechat/go/internal/session"
)

const (
	transportWebSocket = "websocket"
	transportNATS      = "nats"
)

type Config struct {
	Server struct {
		URL       string `yaml:"url"`
		Transport string `yaml:"transport"`
	} `yaml:"server"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Session struct {
		DefaultRoom        string        `yaml:"default_room"`
		AutoJoinRoom       string        `yaml:"auto_join_room"`
		AutoJoinDelay      time.Duration `yaml:"auto_join_delay"`
		TypingIdleTimeout  time.Duration `yaml:"typing_idle_timeout"`
		StatusPollInterval time.Duration `yaml:"status_poll_interval"`
		ExpiryGrace        time.Duration `yaml:"expiry_grace"`
		RejoinOnReconnect  bool          `yaml:"rejoin_on_reconnect"`
	} `yaml:"session"`

	Debug struct {
		Addr string `yaml:"addr"`
	} `yaml:"debug"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	var config Config
	config.Server.URL = "http://localhost:5000"
	config.Server.Transport = transportWebSocket
	config.NATS.URL = "nats://localhost:4222"
	config.NATS.SubjectPrefix = "livechat"
	config.Session.DefaultRoom = session.DefaultRoomID
	config.Session.AutoJoinRoom = session.DefaultRoomID
	config.Session.AutoJoinDelay = session.DefaultAutoJoinDelay
	config.Session.TypingIdleTimeout = session.DefaultTypingIdleTimeout
	config.Session.StatusPollInterval = session.DefaultStatusPollInterval
	config.Session.ExpiryGrace = session.DefaultExpiryGrace
	config.Session.RejoinOnReconnect = true
	config.Debug.Addr = "127.0.0.1:8090"
	config.Log.Level = "info"
	config.Log.File = "livechat.log"
	return &config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// applyEnv overrides config values from the environment
func (c *Config) applyEnv() {
	c.Server.URL = getEnv("LIVECHAT_SERVER_URL", c.Server.URL)
	c.Server.Transport = getEnv("LIVECHAT_TRANSPORT", c.Server.Transport)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("LIVECHAT_NATS_PREFIX", c.NATS.SubjectPrefix)
	c.Session.AutoJoinRoom = getEnv("LIVECHAT_ROOM", c.Session.AutoJoinRoom)
	c.Session.RejoinOnReconnect = getEnvAsBool("LIVECHAT_REJOIN_ON_RECONNECT", c.Session.RejoinOnReconnect)
	c.Session.TypingIdleTimeout = time.Duration(getEnvAsInt("LIVECHAT_TYPING_IDLE_MS", int(c.Session.TypingIdleTimeout/time.Millisecond))) * time.Millisecond
	c.Debug.Addr = getEnv("LIVECHAT_DEBUG_ADDR", c.Debug.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LIVECHAT_LOG_FILE", c.Log.File)
}

func (c *Config) validate() error {
	switch c.Server.Transport {
	case transportWebSocket, transportNATS:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Server.Transport, transportWebSocket, transportNATS)
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server url is required")
	}
	return nil
}

func (c *Config) sessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.DefaultRoomID = c.Session.DefaultRoom
	cfg.AutoJoinRoom = c.Session.AutoJoinRoom
	cfg.AutoJoinDelay = c.Session.AutoJoinDelay
	cfg.TypingIdleTimeout = c.Session.TypingIdleTimeout
	cfg.StatusPollInterval = c.Session.StatusPollInterval
	cfg.ExpiryGrace = c.Session.ExpiryGrace
	cfg.RejoinOnReconnect = c.Session.RejoinOnReconnect
	return cfg
}
