package telegram

import (
	"errors"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"music4u/backend/internal/config"
)

// Broadcast fans an admin message out to every subscriber. Recipients
// who blocked the bot are dropped from the store; other failures are
// counted and reported in aggregate. Individual failures never abort
// the fan-out.
func (s *BotService) Broadcast(adminChatID int64, text string) {
	recipients := s.Store.All()
	s.send(adminChatID, fmt.Sprintf("Starting broadcast to %d users...", len(recipients)))

	sent, failed := 0, 0
	for _, chatID := range recipients {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown

		if _, err := s.API.Send(msg); err != nil {
			if isBlockedByUser(err) {
				log.Printf("User %d blocked the bot. Removing from subscribers.", chatID)
				if _, rmErr := s.Store.Remove(chatID); rmErr != nil {
					log.Printf("Failed to remove subscriber %d: %v", chatID, rmErr)
				}
			} else {
				failed++
				log.Printf("Failed to broadcast to %d: %v", chatID, err)
			}
		} else {
			sent++
		}

		// Small delay between sends to respect outbound rate limits.
		time.Sleep(config.BroadcastDelay)
	}

	s.send(adminChatID, fmt.Sprintf("✅ Broadcast finished. Sent: %d, Failed: %d", sent, failed))
}

// isBlockedByUser reports whether a send failed because the recipient
// blocked the bot (Telegram returns 403 for those).
func isBlockedByUser(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403
	}
	return false
}
