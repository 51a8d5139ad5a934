package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Feed struct {
		ServiceURL  string `koanf:"service_url"`
		Handle      string `koanf:"handle"`
		AppPassword string `koanf:"app_password"`
	} `koanf:"feed"`

	Bot struct {
		Tag                  string `koanf:"tag"`
		PrivacyDomain        string `koanf:"privacy_domain"`
		ScanIntervalSeconds  int    `koanf:"scan_interval_seconds"`
		CandidateLimit       int    `koanf:"candidate_limit"`
		MaxAgeMinutes        int    `koanf:"max_age_minutes"`
		CacheCapacity        int    `koanf:"cache_capacity"`
		DispatchDelaySeconds int    `koanf:"dispatch_delay_seconds"`
		AllowTextFallback    bool   `koanf:"allow_text_fallback"`
	} `koanf:"bot"`

	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// ScanInterval returns the scan interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Bot.ScanIntervalSeconds) * time.Second
}

// MaxAge returns the candidate staleness cutoff as a duration.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Bot.MaxAgeMinutes) * time.Minute
}

// DispatchDelay returns the minimum delay between reply dispatches.
func (c *Config) DispatchDelay() time.Duration {
	return time.Duration(c.Bot.DispatchDelaySeconds) * time.Second
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"feed.service_url":           "https://bsky.social",
		"bot.scan_interval_seconds":  120,
		"bot.candidate_limit":        25,
		"bot.max_age_minutes":        60,
		"bot.cache_capacity":         512,
		"bot.dispatch_delay_seconds": 2,
		"bot.allow_text_fallback":    true,
		"server.port":                8787,
		"log.level":                  "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./privlink.toml", "$HOME/.privlink.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix PRIVLINK_
	k.Load(env.Provider("PRIVLINK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PRIVLINK_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# privlink configuration

[feed]
service_url = "https://bsky.social"
handle = "yourbot.bsky.social"
app_password = "your-app-password"

[bot]
tag = "#privlink"
privacy_domain = "priv.example"
scan_interval_seconds = 120
candidate_limit = 25
max_age_minutes = 60
cache_capacity = 512
dispatch_delay_seconds = 2
allow_text_fallback = true

[server]
port = 8787

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Render returns the effective configuration as TOML, after all layers have
// been merged. The app password is redacted.
func Render(config *Config) string {
	password := config.Feed.AppPassword
	if password != "" {
		password = "[redacted]"
	}
	return fmt.Sprintf(`[feed]
service_url = %q
handle = %q
app_password = %q

[bot]
tag = %q
privacy_domain = %q
scan_interval_seconds = %d
candidate_limit = %d
max_age_minutes = %d
cache_capacity = %d
dispatch_delay_seconds = %d
allow_text_fallback = %t

[server]
port = %d

[log]
level = %q
`,
		config.Feed.ServiceURL,
		config.Feed.Handle,
		password,
		config.Bot.Tag,
		config.Bot.PrivacyDomain,
		config.Bot.ScanIntervalSeconds,
		config.Bot.CandidateLimit,
		config.Bot.MaxAgeMinutes,
		config.Bot.CacheCapacity,
		config.Bot.DispatchDelaySeconds,
		config.Bot.AllowTextFallback,
		config.Server.Port,
		config.Log.Level,
	)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Feed.ServiceURL == "" {
		return fmt.Errorf("feed service_url is required")
	}
	if config.Feed.Handle == "" {
		return fmt.Errorf("feed handle is required")
	}
	if config.Feed.AppPassword == "" {
		return fmt.Errorf("feed app_password is required")
	}
	if config.Bot.Tag == "" {
		return fmt.Errorf("bot tag is required")
	}
	if config.Bot.PrivacyDomain == "" {
		return fmt.Errorf("bot privacy_domain is required")
	}
	if config.Bot.CacheCapacity < 2 {
		return fmt.Errorf("bot cache_capacity must be at least 2")
	}
	if config.Bot.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("bot scan_interval_seconds must be positive")
	}
	return nil
}
