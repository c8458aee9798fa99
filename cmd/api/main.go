// Copyright (c) 2026 Bloomify. All rights reserved.

// Command api is the entry point for the Bloomify HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Run database migrations (idempotent).
//  4. Connect to PostgreSQL, Redis and MongoDB.
//  5. Build security primitives and the mailer.
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/api"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/chat"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/feedback"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/inference"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/config"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/mail"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/migration"
	mongostore "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/mongo"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/objectstore"
	pgstore "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/postgres"
	redisstore "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/redis"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/account"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/oauth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/otp"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/signup"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("[Bloomify] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("smtp", cfg.SMTPEnabled()),
		slog.Bool("google_oauth", cfg.OAuthEnabled()),
		slog.Bool("feedback", cfg.FeedbackEnabled()),
		slog.Bool("archive", cfg.ArchiveEnabled()),
	)

	// The root context lives until a shutdown signal.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Stores ─────────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	mdb, err := mongostore.Connect(startupCtx, cfg.MongoURI, cfg.MongoDatabase, log)
	must(log, err, "connect to mongodb")
	defer func() {
		log.Info("closing mongodb client")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := mongostore.Disconnect(ctx, mdb); cerr != nil {
			log.Error("mongodb close error", slog.Any("error", cerr))
		}
	}()

	chatRepository := chat.NewMongoRepository(mdb)
	must(log, chatRepository.EnsureIndexes(startupCtx), "create chat indexes")

	// ── 5. Security & Mail ────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	cipher, err := sec.NewPasswordCipher(cfg.AESSecretKey)
	must(log, err, "initialize password cipher")

	var mailer mail.Sender = mail.NewLogSender(log)
	if cfg.SMTPEnabled() {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		// Validate only lets this through in development.
		log.Warn("smtp_not_configured_codes_will_be_logged")
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	flows := flow.NewManager(cfg.FlowSecret, constants.AuthIssuer, flow.NewRedisBurnList(rdb))
	challenges := otp.NewIssuer(cfg.OTPSecret, mailer, otp.NewRedisLedger(rdb), log)

	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	authService := auth.NewService(userRepository, sessionRepository, jwtSvc, log)
	accountService := account.NewService(userRepository, sessionRepository, chatRepository, log)

	var (
		signupOptions   []signup.Option
		feedbackHandler *feedback.Handler
	)
	if cfg.FeedbackEnabled() {
		table, err := feedback.NewSheetsTable(startupCtx, feedback.SheetsConfig{
			SpreadsheetID: cfg.FeedbackSheetID,
			ClientEmail:   cfg.SheetsClientEmail,
			PrivateKey:    cfg.SheetsPrivateKey,
		})
		must(log, err, "initialize feedback sheet")

		recorder := feedback.NewRecorder(table, cfg.FeedbackFeaturesSheet, cfg.FeedbackGeneralSheet, log)
		signupOptions = append(signupOptions, signup.WithEnroller(recorder))
		feedbackHandler = feedback.NewHandler(recorder, userRepository)
	}

	pendingStore := signup.NewRedisPendingStore(rdb, cipher)
	signupService := signup.NewService(authService, challenges, pendingStore, flows, accountService, log, signupOptions...)

	var oauthHandler *oauth.Handler
	if cfg.OAuthEnabled() {
		provider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		oauthHandler = oauth.NewHandler(provider, authService, signupService, flows, cfg.AppBaseURL)
	}

	inferenceClient := inference.NewClient(cfg.InferenceBaseURL, cfg.InferenceTimeout, log)

	var chatOptions []chat.Option
	if cfg.ArchiveEnabled() {
		store, err := objectstore.New(startupCtx, objectstore.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, log)
		must(log, err, "connect to export storage")
		chatOptions = append(chatOptions, chat.WithArchive(store, chat.DefaultExportLinkTTL))
	}
	chatService := chat.NewService(chatRepository, inferenceClient, log, chatOptions...)

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers([]api.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
		{Name: "mongodb", Check: func(ctx context.Context) error { return mongostore.Ping(ctx, mdb) }},
		{Name: "inference", Check: inferenceClient.Ping, Optional: true},
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, flows),
		Signup:    signup.NewHandler(signupService, flows, cfg.AppBaseURL),
		OAuth:     oauthHandler,
		Account:   account.NewHandler(accountService),
		Chat:      chat.NewHandler(chatService),
		Feedback:  feedbackHandler,
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	go purgeSessions(rootCtx, authService, log)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "bloomify"))
	slog.SetDefault(log)
	return log
}

// purgeSessions deletes expired sessions until ctx is cancelled.
func purgeSessions(ctx context.Context, service *auth.Service, log *slog.Logger) {
	ticker := time.NewTicker(constants.SessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := service.PurgeExpiredSessions(ctx); err != nil {
				log.Error("session_purge_failed", slog.Any("error", err))
			}
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
