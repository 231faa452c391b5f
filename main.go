package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"mindguard/internal/config"
	"mindguard/internal/detector"
	"mindguard/internal/escalation"
	"mindguard/internal/handler"
	"mindguard/internal/llm"
	"mindguard/internal/repository"
	"mindguard/internal/reviewstore"
	"mindguard/internal/server"
	"mindguard/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	if env := os.Getenv("MINDGUARD_CONFIG"); env != "" {
		cfgPath = env
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	// Load the signal lexicon. The service refuses to run without it:
	// starting with an empty lexicon would silently screen nothing.
	lexicon, err := detector.LoadLexicon(cfg.Detector.LexiconPath)
	if err != nil {
		logger.Fatal("Failed to load signal lexicon", zap.String("path", cfg.Detector.LexiconPath), zap.Error(err))
	}
	logger.Info("Signal lexicon loaded",
		zap.String("version", lexicon.Version()),
		zap.Int("signals", lexicon.SignalCount()))

	reportingTier, err := detector.ParseTier(cfg.Detector.ReportingTier)
	if err != nil {
		logger.Fatal("Invalid reporting tier", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize repositories
	incidentRepo := repository.NewIncidentRepository(db, logger)
	assessmentRepo := repository.NewAssessmentRepository(db, logger)
	authRepo := repository.NewAuthRepository(db, logger)

	// Review store (optional, local SQLite)
	var reviewStore *reviewstore.Store
	if cfg.Review.Enabled {
		reviewStore, err = reviewstore.New(cfg.Review.Path, logger)
		if err != nil {
			logger.Fatal("Failed to open review store", zap.Error(err))
		}
		defer reviewStore.Close()
	}

	// Escalation sinks
	sinks, err := buildSinks(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize escalation sinks", zap.Error(err))
	}

	escLog := logrus.New()
	dispatcher := escalation.NewDispatcher(escalation.DispatcherConfig{
		QueueSize: cfg.Escalation.QueueSize,
		Workers:   cfg.Escalation.Workers,
	}, sinks, escLog)

	engine := detector.NewEngine(lexicon, logger)
	policy := escalation.NewPolicy(cfg.Escalation.Messages, logger)

	// Gemini reply provider (optional)
	var replies handler.ReplyProvider
	if cfg.Gemini.Enabled {
		apiKey := os.Getenv(cfg.Gemini.APIKeyEnv)
		if apiKey == "" {
			logger.Fatal("Gemini enabled but API key env is empty", zap.String("env", cfg.Gemini.APIKeyEnv))
		}
		client, err := llm.NewClient(llm.Config{
			APIKey:    apiKey,
			ModelName: cfg.Gemini.Model,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
		}
		defer client.Close()
		replies = client
		logger.Info("Gemini reply provider enabled", zap.String("model", cfg.Gemini.Model))
	}

	// Auth
	jwtSecret := []byte(os.Getenv(cfg.Auth.JWTSecretEnv))
	if len(jwtSecret) == 0 {
		logger.Fatal("JWT secret env is empty", zap.String("env", cfg.Auth.JWTSecretEnv))
	}
	authService := service.NewAuthService(authRepo, jwtSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, logger)

	// Handlers
	assessHandler := handler.NewAssessHandler(engine, policy, dispatcher,
		incidentRepo, assessmentRepo, reviewStore, replies, reportingTier, logger)
	incidentHandler := handler.NewIncidentHandler(incidentRepo, assessmentRepo, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	lexiconHandler := handler.NewLexiconHandler(engine)

	deps := server.Deps{
		Assess:    assessHandler,
		Incidents: incidentHandler,
		Auth:      authHandler,
		Lexicon:   lexiconHandler,
		JWTSecret: authService.JWTSecret(),
		CORS:      cfg.Server.CORSOrigins,
	}
	if reviewStore != nil {
		deps.Review = handler.NewReviewHandler(reviewStore, logger)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.NewServer(deps, logger)
	go func() {
		if err := srv.Run(cfg.Server.Port); err != nil {
			logger.Error("Server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Drain queued escalations before exit.
	dispatcher.Close(shutdownCtx)
	logger.Info("Application stopped.")
}

func buildSinks(cfg *config.Config, logger *zap.Logger) ([]escalation.Sink, error) {
	var sinks []escalation.Sink

	for _, sc := range cfg.Escalation.Sinks {
		switch sc.Type {
		case "file_jsonl":
			sink, err := escalation.NewFileSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		case "webhook":
			timeout := time.Duration(sc.TimeoutSeconds) * time.Second
			sink, err := escalation.NewWebhookSink(sc.URL, sc.Headers, timeout)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		}
	}

	if cfg.Escalation.Telegram.Enabled {
		token := os.Getenv(cfg.Escalation.Telegram.BotTokenEnv)
		if token == "" {
			logger.Warn("Telegram sink enabled but bot token env is empty, continuing without it",
				zap.String("env", cfg.Escalation.Telegram.BotTokenEnv))
		} else {
			sink, err := escalation.NewTelegramSink(token, cfg.Escalation.Telegram.ChatID)
			if err != nil {
				logger.Warn("Failed to initialize Telegram sink, continuing without it", zap.Error(err))
			} else {
				sinks = append(sinks, sink)
			}
		}
	}

	return sinks, nil
}
