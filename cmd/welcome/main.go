// The welcome bot posts static onboarding messages with inline channel
// buttons. It is unrelated to the download bot and runs as its own
// process with its own token.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	token := os.Getenv("WELCOME_BOT_TOKEN")
	if token == "" {
		log.Fatal("FATAL: WELCOME_BOT_TOKEN is not set.")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatalf("Failed to authorize bot: %v", err)
	}
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	go runServer()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	for update := range bot.GetUpdatesChan(u) {
		msg := update.Message
		if msg == nil || !msg.IsCommand() || msg.Command() != "start" {
			continue
		}
		sendWelcome(bot, msg.Chat.ID)
	}
}

func sendWelcome(bot *tgbotapi.BotAPI, chatID int64) {
	first := tgbotapi.NewMessage(chatID,
		"🌞 Have a wonderful day!\n💖 Thank you to every single person who joined the channel.")
	first.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎬 Main Channel", "https://t.me/Max_area"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Chat Group 1", "https://t.me/DarkWorldArea_1"),
			tgbotapi.NewInlineKeyboardButtonURL("💬 Chat Group 2", "https://t.me/DarkWorldArea2"),
		),
	)
	if _, err := bot.Send(first); err != nil {
		log.Printf("Failed to send welcome to chat %d: %v", chatID, err)
	}

	// The contact card goes out from its own goroutine, matching the
	// fire-and-forget second message of the original bot.
	go func() {
		second := tgbotapi.NewMessage(chatID, "📢 Contact for announcements")
		second.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Admin Account", "https://t.me/Jordan_9_9"),
			),
		)
		if _, err := bot.Send(second); err != nil {
			log.Printf("Failed to send contact card to chat %d: %v", chatID, err)
		}
	}()
}

func runServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "✅ Welcome Bot is Running!")
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Liveness server failed: %v", err)
	}
}
