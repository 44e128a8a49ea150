// Package config loads server settings from the environment and bot
// behavior settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the bot behavior settings.
const (
	DefaultPort              = "9119"
	DefaultCommandPrefix     = "."
	DefaultTicketCategory    = "Tickets"
	DefaultLogChannel        = "ticket-logs"
	DefaultCloseDelaySeconds = 5
)

// ServerConfig holds process-level settings read from the environment.
type ServerConfig struct {
	DiscordBotToken string
	MongoURL        string
	Port            string
	ConfigFile      string
}

// LoadServer reads server settings from environment variables.
// DISCORD_BOT_TOKEN is required; everything else has a default or is
// optional.
func LoadServer() (*ServerConfig, error) {
	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN environment variable is required")
	}

	return &ServerConfig{
		DiscordBotToken: token,
		MongoURL:        os.Getenv("MONGO_URL"),
		Port:            getEnv("PORT", DefaultPort),
		ConfigFile:      os.Getenv("BOT_CONFIG_FILE"),
	}, nil
}

// BotConfig holds tunable bot behavior, overridable via a YAML file.
type BotConfig struct {
	CommandPrefix     string `yaml:"command_prefix"`
	TicketCategory    string `yaml:"ticket_category"`
	LogChannel        string `yaml:"log_channel"`
	CloseDelaySeconds int    `yaml:"close_delay_seconds"`
}

// DefaultBot returns the built-in bot behavior settings.
func DefaultBot() BotConfig {
	return BotConfig{
		CommandPrefix:     DefaultCommandPrefix,
		TicketCategory:    DefaultTicketCategory,
		LogChannel:        DefaultLogChannel,
		CloseDelaySeconds: DefaultCloseDelaySeconds,
	}
}

// LoadBot reads bot settings from a YAML file layered over the
// defaults. An empty path returns the defaults unchanged.
func LoadBot(path string) (BotConfig, error) {
	cfg := DefaultBot()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read bot config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse bot config: %w", err)
	}

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = DefaultCommandPrefix
	}
	if cfg.TicketCategory == "" {
		cfg.TicketCategory = DefaultTicketCategory
	}
	if cfg.LogChannel == "" {
		cfg.LogChannel = DefaultLogChannel
	}
	if cfg.CloseDelaySeconds <= 0 {
		cfg.CloseDelaySeconds = DefaultCloseDelaySeconds
	}
	return cfg, nil
}

// CloseDelay returns the close delay as a duration.
func (c BotConfig) CloseDelay() time.Duration {
	return time.Duration(c.CloseDelaySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
