// Package config holds runtime configuration and the tunable constants
// shared by the bot, the download workers and the liveness server.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	// Download budgets
	MetadataTimeout = 30 * time.Second
	ExtractTimeout  = 90 * time.Second
	PollInterval    = 300 * time.Millisecond

	// Progress message edits are rate limited to one per interval.
	ProgressInterval = 500 * time.Millisecond

	// Telegram bot API upload limit for audio files.
	MaxFileSize = 30 * 1024 * 1024

	// Pending queries allowed per chat before /play is rejected.
	MaxQueueDepth = 20

	// Broadcast pacing and thumbnail bounds
	BroadcastDelay   = 100 * time.Millisecond
	ThumbnailTimeout = 10 * time.Second
	ThumbnailMaxDim  = 320

	DefaultPort     = "8080"
	DefaultDataFile = "music4u_subscribers.json"
)

// Config carries the environment-provided settings.
type Config struct {
	Token    string
	AdminID  int64
	Port     string
	DataFile string
}

// Load reads configuration from the environment. The bot token is
// required; a missing admin ID leaves AdminID at 0, which matches no
// real chat and simply makes admin commands unreachable.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     os.Getenv("PORT"),
		DataFile: os.Getenv("DATA_FILE"),
	}

	cfg.Token = os.Getenv("BOT_TOKEN")
	if cfg.Token == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	if raw := os.Getenv("ADMIN_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("ADMIN_ID must be a numeric chat identifier")
		}
		cfg.AdminID = id
	}

	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.DataFile == "" {
		cfg.DataFile = DefaultDataFile
	}

	return cfg, nil
}
