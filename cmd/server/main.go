package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"territory-arena/internal/api"
	"territory-arena/internal/config"
	"territory-arena/internal/game"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  TERRITORY ARENA - GO ENGINE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server
	engineCfg := appConfig.Engine

	log.Printf("🎮 Config: %dx%d grid, %d max players, %d max enemies",
		game.DefaultGrid.Cols, game.DefaultGrid.Rows, engineCfg.MaxPlayers, game.MaxEnemies)
	if len(serverCfg.AllowedOrigins) > 0 {
		log.Printf("🌐 Allowed origins: %v", serverCfg.AllowedOrigins)
	}

	eventLog := game.NewEventLog()
	if err := eventLog.Start(engineCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if engineCfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", engineCfg.EventLogPath)
	}

	engine := game.NewEngine(game.EngineConfig{
		Seed:       engineCfg.Seed,
		MaxPlayers: engineCfg.MaxPlayers,
		InboxSize:  engineCfg.InboxSize,
		EventLog:   eventLog,
	})

	debugServer := api.StartDebugServer(appConfig.Debug)
	server := api.NewServer(engine, serverCfg, appConfig.Limits)

	engine.Start()

	go func() {
		log.Printf("🎮 Game client: http://localhost:%d", serverCfg.Port)
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Sockets first so every player leaves through the engine
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	engine.Stop()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}
