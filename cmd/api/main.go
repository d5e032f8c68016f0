package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/config"
	"github.com/noah-isme/forum-api/internal/database"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/realtime"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/router"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/validation"
	cloud "github.com/noah-isme/forum-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database pool: %v", err)
	}
	checks := []handler.DependencyCheck{{Name: "database", Check: sqlDB.PingContext}}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := realtime.NewHub()
	var redisRelay, natsRelay realtime.Relay
	var views service.ViewCounter
	nodeName := strings.ReplaceAll(strings.ToLower(cfg.AppName), " ", "-") + "-" + uuid.NewString()

	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL, nodeName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		checks = append(checks, handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})

		redisRelay = realtime.NewRedisRelay(redisClient, cfg.RealtimeChannel, hub, logger)
		views = service.NewRedisViewCounter(redisClient, cfg.RealtimeChannel, cfg.ViewWindow, logger)
	}

	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, nodeName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		checks = append(checks, handler.DependencyCheck{Name: "nats", Check: func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}})

		natsRelay = realtime.NewNATSRelay(natsConn, cfg.RealtimeChannel, hub, logger)
	}

	relay := realtime.Preferred(natsRelay, redisRelay)
	switch relay {
	case nil:
		logger.Info().Msg("realtime relay disabled, running as a single instance")
	case natsRelay:
		logger.Info().Msg("realtime relay via nats")
	default:
		logger.Info().Msg("realtime relay via redis")
	}

	var storage service.FileStorage
	if cfg.CloudinaryEnabled() {
		avatars, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = avatars
	} else {
		logger.Warn().Msg("cloudinary is not configured, avatar uploads are disabled")
	}

	validate := validation.New()

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, hub, relay, validate, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	voteService := service.NewVoteService(voteRepo, notificationService, validate, cfg.AllowSelfVoting, logger)
	questionService := service.NewQuestionService(service.QuestionDeps{
		Questions: questionRepo,
		Answers:   answerRepo,
		Comments:  commentRepo,
		Votes:     voteService,
		Notifier:  notificationService,
		Activity:  activityService,
		Views:     views,
	}, validate, logger)
	answerService := service.NewAnswerService(service.AnswerDeps{
		Answers:   answerRepo,
		Questions: questionRepo,
		Votes:     voteService,
		Notifier:  notificationService,
		Activity:  activityService,
	}, validate, logger)
	commentService := service.NewCommentService(service.CommentDeps{
		Comments:  commentRepo,
		Questions: questionRepo,
		Answers:   answerRepo,
		Votes:     voteService,
		Notifier:  notificationService,
		Activity:  activityService,
	}, validate, logger)
	userService := service.NewUserService(userRepo, notificationService, activityService, validate, logger)
	avatarService := service.NewAvatarService(storage, uploadRepo, userRepo, cfg.UploadMaxSizeMB, logger)
	authService := service.NewAuthService(userRepo, service.NewTokenIssuer(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}), validate, logger)

	notificationService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{AppName: cfg.AppName, AllowOrigins: cfg.CORSAllowOrigins, Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(authService, logger),
		UserHandler:          handler.NewUserHandler(userService, avatarService, questionService, answerService, logger),
		QuestionHandler:      handler.NewQuestionHandler(questionService, answerService, commentService, voteService, logger),
		AnswerHandler:        handler.NewAnswerHandler(answerService, commentService, voteService, logger),
		CommentHandler:       handler.NewCommentHandler(commentService, voteService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger, cfg.RealtimeKeepAlive),
		RealtimeHandler:      handler.NewRealtimeHandler(notificationService, logger, cfg.RealtimeKeepAlive),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		AccountLookup:        userService.Account,
		DependencyChecks:     checks,
		Logger:               logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stop)
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
