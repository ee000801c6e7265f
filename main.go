package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pmo-bot/commands"
	"pmo-bot/config"
	"pmo-bot/handlers"
	"pmo-bot/middleware"
	"pmo-bot/models"
	"pmo-bot/store"
	"pmo-bot/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.UsesDevSecret() {
		log.Println("Warning: auth.jwt_secret not set. Using the development secret.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		UseStdout:   cfg.Telemetry.Stdout,
	})
	if err != nil {
		log.Fatal("Failed to initialize telemetry:", err)
	}

	// Initialize store
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer s.Close()

	auth, err := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal("Failed to initialize auth:", err)
	}

	// Reminders and trainings live in memory for the life of the process.
	entities := store.NewEntities()
	engine := commands.NewEngine(entities, engineOptions(cfg.Bot)...)

	// Initialize WebSocket hub
	hub := handlers.NewHub(auth, s, cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	bot := handlers.NewBotHandler(engine, s, hub, models.ChannelAccount{ID: cfg.Bot.ID, Name: cfg.Bot.Name})
	hub.SetTurnProcessor(bot)

	// Start reminder checker
	handlers.NewAnnouncer(entities, hub, cfg.Bot.ReminderCheckInterval).Start(ctx)

	router := handlers.NewRouter(handlers.Routes{
		Auth:           auth,
		AuthHandler:    handlers.NewAuthHandler(s, auth),
		Bot:            bot,
		Reminders:      handlers.NewReminderHandler(entities),
		Users:          handlers.NewUserHandler(s),
		Hub:            hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🤖 PMO Bot is running on port %d", cfg.Server.Port)
		log.Printf("📱 Bot endpoint: http://localhost:%d/api/messages", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown: %v", err)
	}
}

func engineOptions(bot config.BotConfig) []commands.Option {
	opts := []commands.Option{commands.WithGenericReplies(bot.GenericReplies)}
	if bot.Seed != 0 {
		opts = append(opts, commands.WithSeed(bot.Seed))
	}
	return opts
}
