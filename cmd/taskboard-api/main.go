// @title           Taskboard API
// @version         1.0
// @description     Authentication and session service of the taskboard app.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api"
	"github.com/taskboard/taskboard-api/internal/api/handler"
	"github.com/taskboard/taskboard-api/internal/core/ports"
	"github.com/taskboard/taskboard-api/internal/core/service"
	mongodb "github.com/taskboard/taskboard-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskboard/taskboard-api/internal/infrastructure/db/redis"
	"github.com/taskboard/taskboard-api/internal/infrastructure/mail"
	"github.com/taskboard/taskboard-api/internal/infrastructure/queue"
	"github.com/taskboard/taskboard-api/internal/infrastructure/realtime"
	"github.com/taskboard/taskboard-api/internal/pkg/config"
	"github.com/taskboard/taskboard-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("taskboard-api stopped")
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "taskboard-api"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "taskboard-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongodb.NewUserRepository(db, cfg.Token.MaxSessions)
	admins := mongodb.NewAdminRepository(db, cfg.Token.MaxSessions)
	otps := mongodb.NewOTPRepository(db, cfg.OTP.Retention)
	if err := mongodb.EnsureIndexes(ctx, users, admins, otps); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	verified := redisdb.NewVerifiedEmails(rdb, cfg.OTP.VerifiedEmailTTL)
	realtime.Init(redisdb.NewEventPublisher(rdb, cfg.Redis.EventsChannel))

	// --- Mail ---
	mailer, err := newMailer(cfg.Mail, log)
	if err != nil {
		return err
	}
	dispatcher := queue.NewMailDispatcher(cfg.Mail.Workers, mailer, cfg.Mail.Timeout, logger.Component("mail"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens, err := service.NewJWTTokenService(service.TokenConfig{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return err
	}

	otpService := service.NewOTPService(otps, verified, dispatcher, service.OTPConfig{
		Digits:      cfg.OTP.Digits,
		TTL:         cfg.OTP.TTL,
		MaxResends:  cfg.OTP.MaxResends,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}, logger.Component("otp"))

	authService := service.NewAuthService(
		users,
		admins,
		tokens,
		service.NewBcryptHasher(0),
		dispatcher,
		service.NewResetTokens(cfg.Reset.TTL),
		cfg.FrontendURL,
		logger.Component("auth"),
	)

	// --- HTTP ---
	sameSite, _ := cfg.Cookie.SameSiteMode()
	e := api.NewRouter(api.Deps{
		Auth:   authService,
		OTP:    otpService,
		Tokens: tokens,
		Health: map[string]handler.Pinger{
			"mongodb": mongodb.Pinger{Client: mongoClient},
			"redis":   redisdb.Pinger{Client: rdb},
		},
		Cookies: handler.CookieConfig{
			Secure:   cfg.Cookie.Secure,
			SameSite: sameSite,
			MaxAge:   tokens.RefreshTTL(),
		},
		RequireVerifiedEmail: cfg.OTP.RequireVerifiedEmail,
		CORSOrigins:          cfg.CORSOrigins,
		RateLimitPerSecond:   cfg.RateLimit.PerSecond,
		RateLimitBurst:       cfg.RateLimit.Burst,
		TrustProxy:           cfg.RateLimit.TrustProxy,
		Log:                  logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	return nil
}

// newMailer picks SMTP when a host is configured and logs mail otherwise.
func newMailer(cfg config.MailConfig, log zerolog.Logger) (ports.Mailer, error) {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, mail is written to the log")
		return mail.NewLogMailer(logger.Component("mail")), nil
	}
	smtp, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.From,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return smtp, nil
}
