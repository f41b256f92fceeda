package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"music4u/backend/internal/downloader"
	"music4u/backend/internal/models"
)

// API is the slice of the Telegram client the bot uses. It is satisfied
// by *tgbotapi.BotAPI and by test doubles.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Downloader resolves queries and extracts audio. Satisfied by
// *downloader.Client.
type Downloader interface {
	Resolve(query string) ([]models.Candidate, error)
	Extract(url, destDir string, opts downloader.ExtractOptions) error
}

// Thumbnailer fetches and downsizes cover art. Satisfied by
// *thumbnail.Fetcher.
type Thumbnailer interface {
	Fetch(url, destDir string) (string, error)
}
