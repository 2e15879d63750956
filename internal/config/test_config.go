package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API = APIConfig{
		Endpoint:   "http://127.0.0.1:0/posts",
		Kind:       KindJSON,
		PageSize:   10,
		Timeout:    5 * time.Second,
		UserAgent:  "sift-test/1.0",
		AllowLocal: true,
	}
	cfg.Search.Debounce = 400 * time.Millisecond
	cfg.Log = LogConfig{
		Level:      "off",
		MaxSizeMB:  1,
		MaxBackups: 0,
	}
	return cfg
}
