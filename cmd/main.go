package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"music4u/backend/internal/api/handler"
	"music4u/backend/internal/config"
	"music4u/backend/internal/downloader"
	"music4u/backend/internal/storage"
	"music4u/backend/internal/telegram"
	"music4u/backend/internal/thumbnail"
)

func main() {
	log.Println("Starting Music 4U Bot...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v. Check your .env file or deployment variables.", err)
	}

	store := storage.NewSubscriberStore(cfg.DataFile)
	store.Load()
	log.Printf("Loaded %d subscribers.", store.Count())

	botService, err := telegram.NewBotService(cfg, store, downloader.NewClient(), thumbnail.NewFetcher())
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	// Keep-alive server for the hosting platform's health checks.
	r := gin.Default()
	h := handler.NewHandler(botService.Queue, store, botService.StartTime)
	r.GET("/", h.Alive)
	r.GET("/status", h.Status)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("Liveness server failed: %v", err)
		}
	}()

	botService.Run()
}
