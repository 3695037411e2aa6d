package main

import (
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tamsirfall/annonces-market-bot/bot"
	"github.com/tamsirfall/annonces-market-bot/config"
)

func main() {
	// Load configuration
	cfg := config.NewConfig()

	// Initialize and start the bot
	marketBot, err := bot.NewBot(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	log.Println("Bot started...")
	marketBot.Start()
}
