package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/handlers"
	"github.com/fire8327/GPT-Bot/internal/i18n"
	"github.com/fire8327/GPT-Bot/internal/middleware"
	"github.com/fire8327/GPT-Bot/internal/services/ai"
	"github.com/fire8327/GPT-Bot/internal/services/cache"
	"github.com/fire8327/GPT-Bot/internal/services/credentials"
	"github.com/fire8327/GPT-Bot/internal/services/dialog"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	"github.com/fire8327/GPT-Bot/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting GPT bot...")

	// Initialize bot
	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}

	bot.Debug = cfg.Logging.Level == "debug"
	log.WithField("username", bot.Self.UserName).Info("Bot authorized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	storageManager, err := storage.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize AI gateway
	aiService := ai.NewOpenRouterClient(&cfg.AI, log)

	// Initialize cache
	cacheService := cache.NewCache(cfg, log)

	// Initialize dialog services
	dialogManager := dialog.NewManager(storageManager, log)
	assembler := dialog.NewAssembler(storageManager, cfg.Dialogs.HistoryPairs)
	chatService := dialog.NewChatService(storageManager, dialogManager, assembler, aiService, cacheService, log)

	// Initialize website credentials
	credentialStore := credentials.NewSupabaseStore(&cfg.Credentials, log)
	credentialService := credentials.NewService(credentialStore, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Initialize handlers
	commandHandler := handlers.NewCommandHandler(
		bot,
		cfg,
		storageManager,
		dialogManager,
		credentialService,
		localizer,
		metrics,
		log,
	)

	messageHandler := handlers.NewMessageHandler(
		cfg,
		bot,
		storageManager,
		dialogManager,
		chatService,
		rateLimiter,
		localizer,
		metrics,
		log,
	)

	// Use long polling
	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Bot.UpdateTimeout

	updates := bot.GetUpdatesChan(u)
	log.Info("Using long polling")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Main bot loop
	go func() {
		for update := range updates {
			// Handle callback queries
			if update.CallbackQuery != nil {
				metrics.RecordMessageReceived("callback")
				if err := commandHandler.HandleCallbackQuery(ctx, update.CallbackQuery); err != nil {
					log.WithError(err).Error("Failed to handle callback query")
				}
				continue
			}

			// Skip if no message
			if update.Message == nil {
				continue
			}

			// Handle commands
			if update.Message.IsCommand() {
				metrics.RecordMessageReceived("command")
				metrics.RecordCommandExecuted(update.Message.Command())

				if err := commandHandler.HandleCommand(ctx, update.Message); err != nil {
					log.WithError(err).Error("Failed to handle command")
					metrics.RecordMessageProcessed("error")
				} else {
					metrics.RecordMessageProcessed("success")
				}
				continue
			}

			// Handle regular messages
			metrics.RecordMessageReceived("text")
			if err := messageHandler.HandleMessage(ctx, &update); err != nil {
				log.WithError(err).Error("Failed to handle message")
				metrics.RecordMessageProcessed("error")
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	bot.StopReceivingUpdates()

	// Cancel context to stop all goroutines
	cancel()

	// Give in-flight chat turns time to finish
	time.Sleep(2 * time.Second)

	if err := storageManager.Close(); err != nil {
		log.WithError(err).Error("Failed to close storage")
	}

	log.Info("Bot stopped")
}
