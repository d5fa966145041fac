package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/handlers"
	"github.com/yukikurage/team-task-api/internal/logging"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/notify"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err := logging.InitSentry(log, cfg.SentryDSN, cfg.GinMode); err != nil {
		log.WithError(err).Warn("Sentry disabled")
	}
	defer logging.Flush()

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	broker := realtime.NewRedisBroker(redisClient, log)

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up email delivery")
	}
	defer closeNotifier()
	renderer := notify.NewRenderer("")

	acceptMode, err := services.ParseAcceptMode(cfg.TaskAcceptMode)
	if err != nil {
		log.WithError(err).Fatal("Invalid TASK_ACCEPT_MODE")
	}

	// Initialize AI service
	var ai services.DraftGenerator
	if cfg.OpenAIAPIKey != "" {
		ai = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	chatRepo := repository.NewChatRepository(db)

	approval := services.NewApprovalService(userRepo, notifier, renderer, broker, services.ApprovalConfig{
		Secret:        cfg.ApprovalSecret,
		TTL:           cfg.ApprovalTTL,
		PublicBaseURL: cfg.PublicBaseURL,
		ApproverEmail: cfg.AdminApproverEmail,
	}, log)
	authService := services.NewAuthService(userRepo, approval, log)
	taskService := services.NewTaskService(taskRepo, userRepo, notifier, renderer, broker, services.TaskServiceConfig{
		AcceptMode: acceptMode,
		AI:         ai,
	}, log)
	teamService := services.NewTeamService(teamRepo, userRepo, taskRepo, broker, log)
	chatService := services.NewChatService(chatRepo, userRepo, broker, log)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,                // Redis pool size
		"tcp",             // network type
		cfg.RedisAddr(),   // Redis address from config
		"",                // username (empty for default user)
		cfg.RedisPassword, // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Redis session store")
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.Routes{
		Auth:     handlers.NewAuthHandler(authService, log),
		Approval: handlers.NewApprovalHandler(approval, log),
		Users:    handlers.NewUserHandler(authService, log),
		Tasks:    handlers.NewTaskHandler(taskService, log),
		Teams:    handlers.NewTeamHandler(teamService, log),
		Chats:    handlers.NewChatHandler(chatService, log),
		Stream:   handlers.NewStreamHandler(broker, authService, taskService, teamService, chatService, log),
		Health:   handlers.NewHealthHandler(db, redisClient),
		UserRepo: userRepo,
		TaskRepo: taskRepo,
		TeamRepo: teamRepo,
	}.Register(r)

	// Request contexts derive from baseCtx so open event streams end on shutdown
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown did not complete")
	}
}

// newNotifier queues email for the mail worker when a queue is configured and
// relays through SMTP directly otherwise
func newNotifier(cfg *config.Config, log logrus.FieldLogger) (notify.Notifier, func(), error) {
	if cfg.MailQueueURL == "" {
		return notify.NewSMTPNotifier(smtpConfig(cfg), log), func() {}, nil
	}

	client, err := notify.DialAMQP(cfg.MailQueueURL)
	if err != nil {
		return nil, nil, err
	}
	if err := client.DeclareQueue(cfg.MailQueue); err != nil {
		client.Close()
		return nil, nil, err
	}

	log.WithField("queue", cfg.MailQueue).Info("Email delivery goes through the mail queue")
	return notify.NewQueueNotifier(client, cfg.MailQueue), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close mail queue connection")
		}
	}, nil
}

func smtpConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
