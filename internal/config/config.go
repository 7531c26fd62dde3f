package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kapu/unichat-go/internal/util"
	"github.com/kapu/unichat-go/pkg/errors"
)

type Config struct {
	Channels Channels
	Twitch   TwitchConfig
	Kick     KickConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type Channels struct {
	Twitch string
	Kick   string
}

type TwitchConfig struct {
	IRCURL   string
	ClientID string
}

type KickConfig struct {
	PusherKey     string
	PusherCluster string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Channels: Channels{
			Twitch: util.Normalize(getEnv("TWITCH_CHANNEL", "")),
			Kick:   util.Normalize(getEnv("KICK_CHANNEL", "")),
		},
		Twitch: TwitchConfig{
			IRCURL: getEnv("TWITCH_IRC_URL", "wss://irc-ws.chat.twitch.tv:443"),
			// Twitch's public web client id; rotate via env if upstream revokes it.
			ClientID: getEnv("TWITCH_CLIENT_ID", "kimne78kx3ncx6brgo4mv6wki5h1ko"),
		},
		Kick: KickConfig{
			PusherKey:     getEnv("KICK_PUSHER_KEY", "32cbd69e4b950bf97679"),
			PusherCluster: getEnv("KICK_PUSHER_CLUSTER", "us2"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Channels.Twitch == "" && c.Channels.Kick == "" {
		return errors.NewValidationError("at least one of TWITCH_CHANNEL or KICK_CHANNEL is required", "channels", "")
	}
	if c.Kick.PusherKey == "" {
		return errors.NewValidationError("KICK_PUSHER_KEY is required", "KICK_PUSHER_KEY", "")
	}
	if c.Twitch.ClientID == "" {
		return errors.NewValidationError("TWITCH_CLIENT_ID is required", "TWITCH_CLIENT_ID", "")
	}
	if c.Server.Addr == "" {
		return errors.NewValidationError("SERVER_ADDR is required", "SERVER_ADDR", "")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
