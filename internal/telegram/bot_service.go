// Package telegram handles the integration with the Telegram Bot API.
// It receives commands from users, feeds the per-chat download queue
// and delivers the resulting audio files back to the requesting chat.
package telegram

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"music4u/backend/internal/config"
	"music4u/backend/internal/queue"
	"music4u/backend/internal/storage"
)

const helpText = "🎶 *Welcome to Music 4U*\n\n" +
	"Search for a song: `/play <name>` or a YouTube link\n" +
	"/stop - stop your downloads\n" +
	"/subscribe - join broadcasts\n" +
	"/unsubscribe - leave broadcasts\n" +
	"/status - server uptime\n" +
	"/about - bot info\n" +
	"\n⚡ Fast • Reliable • Online 24/7"

const aboutText = "🎧 *Music 4U*\n" +
	"Searches YouTube and delivers tracks as MP3 audio.\n" +
	"Powered by yt-dlp."

// BotService receives Telegram updates and routes them to the queue,
// the subscriber store and the broadcaster.
type BotService struct {
	API       API
	Store     *storage.SubscriberStore
	Queue     *queue.Manager
	DL        Downloader
	Thumbs    Thumbnailer
	AdminID   int64
	StartTime time.Time
}

// NewBotService authorizes the bot and wires the per-chat download
// queue to the download-and-deliver cycle.
func NewBotService(cfg *config.Config, store *storage.SubscriberStore, dl Downloader, thumbs Thumbnailer) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	s := &BotService{
		API:       bot,
		Store:     store,
		DL:        dl,
		Thumbs:    thumbs,
		AdminID:   cfg.AdminID,
		StartTime: time.Now(),
	}
	s.Queue = queue.NewManager(s.processQuery, config.MaxQueueDepth)
	return s, nil
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.API.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		s.handleCommand(update.Message)
	}
}

func (s *BotService) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		s.send(chatID, helpText)
	case "play":
		s.handlePlay(chatID, msg.CommandArguments())
	case "stop":
		s.handleStop(chatID)
	case "status":
		s.handleStatus(chatID)
	case "about":
		s.send(chatID, aboutText)
	case "subscribe":
		s.handleSubscribe(chatID)
	case "unsubscribe":
		s.handleUnsubscribe(chatID)
	case "broadcast":
		s.handleBroadcast(chatID, msg.CommandArguments())
	}
}

func (s *BotService) handlePlay(chatID int64, args string) {
	query := strings.TrimSpace(args)
	if query == "" {
		s.send(chatID, "Usage: `/play <name>`")
		return
	}

	started, err := s.Queue.Enqueue(chatID, query)
	if errors.Is(err, queue.ErrQueueFull) {
		s.send(chatID, "⏳ Your download queue is full. Try again after some finish.")
		return
	}
	if err != nil {
		log.Printf("Enqueue failed for chat %d: %v", chatID, err)
		return
	}
	if started {
		s.send(chatID, fmt.Sprintf("📥 Searching and downloading `%s`…", query))
	} else {
		s.send(chatID, "⏳ Added to your download queue.")
	}
}

func (s *BotService) handleStop(chatID int64) {
	if s.Queue.Cancel(chatID) {
		s.send(chatID, "🛑 Download stopped.")
	} else {
		s.send(chatID, "No download to stop.")
	}
}

func (s *BotService) handleStatus(chatID int64) {
	uptime := time.Since(s.StartTime)
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	s.send(chatID, fmt.Sprintf(
		"⚙️ *Bot Status*\nUptime: %dd, %02dh:%02dm:%02ds\nActive Downloads: %d\nSubscribers: %d",
		days, hours, minutes, seconds, s.Queue.ActiveCount(), s.Store.Count()))
}

func (s *BotService) handleSubscribe(chatID int64) {
	changed, err := s.Store.Add(chatID)
	if err != nil {
		log.Printf("Error saving subscriber %d: %v", chatID, err)
		s.send(chatID, "❌ Could not save your subscription. Try again later.")
		return
	}
	if changed {
		s.send(chatID, "🔔 You joined the broadcast list.")
	} else {
		s.send(chatID, "You are already on the broadcast list.")
	}
}

func (s *BotService) handleUnsubscribe(chatID int64) {
	changed, err := s.Store.Remove(chatID)
	if err != nil {
		log.Printf("Error removing subscriber %d: %v", chatID, err)
		s.send(chatID, "❌ Could not update your subscription. Try again later.")
		return
	}
	if changed {
		s.send(chatID, "🔕 You left the broadcast list.")
	} else {
		s.send(chatID, "You are not on the broadcast list.")
	}
}

func (s *BotService) handleBroadcast(chatID int64, args string) {
	if chatID != s.AdminID || s.AdminID == 0 {
		s.send(chatID, "Access denied.")
		return
	}

	text := strings.TrimSpace(args)
	if text == "" {
		s.send(chatID, "Usage: `/broadcast <message>`")
		return
	}

	// Fan-out runs off the update loop so long broadcasts do not stall
	// command handling.
	go s.Broadcast(chatID, text)
}

// send delivers a Markdown-formatted message, logging delivery errors.
func (s *BotService) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := s.API.Send(msg); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}
