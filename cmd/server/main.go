package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/api/handlers"
	"github.com/unitasa/social-scheduler/internal/api/middleware"
	"github.com/unitasa/social-scheduler/internal/dispatch"
	job "github.com/unitasa/social-scheduler/internal/jobs"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/queue"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set migration dialect: %v", err)
	}
	if err := goose.Up(db, "./sql/schema"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer redisClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	scheduleRuleRepo := repository.NewScheduleRuleRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	pendingAuthRepo := repository.NewPendingAuthRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	r2Service, err := service.NewR2Service(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	generationService, err := service.NewGenerationService(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize content generation: %v", err)
	}

	twitterService := service.NewTwitterService(*cfg, socialAccountRepo)
	linkedinService := service.NewLinkedinService(*cfg, socialAccountRepo)
	facebookService := service.NewFacebookService(*cfg, socialAccountRepo)
	mastodonService := service.NewMastodonService(*cfg, socialAccountRepo)
	telegramService := service.NewTelegramService(*cfg, socialAccountRepo)

	registry := service.NewPublisherRegistry()
	registry.Register(models.PlatformTwitter, twitterService)
	registry.Register(models.PlatformLinkedin, linkedinService)
	registry.Register(models.PlatformFacebook, facebookService)
	registry.Register(models.PlatformMastodon, mastodonService)
	registry.Register(models.PlatformTelegram, telegramService)

	platformService := service.NewPlatformService(*cfg, socialAccountRepo, pendingAuthRepo,
		twitterService, linkedinService, facebookService, mastodonService)
	ruleService := service.NewRuleService(scheduleRuleRepo)
	postService := service.NewPostService(db, scheduledPostRepo, socialAccountRepo, mediaAssetRepo, postMediaRepo, r2Service)

	locker := dispatch.NewRedisLocker(redisClient)
	dispatcher := dispatch.NewDispatcher(scheduledPostRepo, socialAccountRepo, registry, locker)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Get("/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(platformService, telegramService, *cfg)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/:platform", platform.AddSocialAccount)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.DeleteUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	rules := handlers.NewRuleHandler(ruleService)
	api.Post("/schedule/rules", rules.CreateRule)
	api.Get("/schedule/rules", rules.ListRules)
	api.Put("/schedule/rules/:id", rules.UpdateRule)
	api.Delete("/schedule/rules/:id", rules.DeleteRule)

	scheduled := handlers.NewScheduledHandler(postService, client)
	api.Post("/social/scheduled", scheduled.CreatePost)
	api.Get("/social/scheduled", scheduled.ListScheduled)
	api.Get("/social/scheduled/drafts", scheduled.ListDrafts)
	api.Get("/social/history", scheduled.ListHistory)
	api.Post("/social/scheduled/:id/approve", scheduled.ApprovePost)
	api.Patch("/social/scheduled/:id", scheduled.UpdatePost)
	api.Delete("/social/scheduled/:id", scheduled.RemovePost)

	generate := handlers.NewGenerateHandler(generationService)
	api.Post("/social/content/generate", generate.GenerateContent)

	// social accounts api routes
	api.Get("/social/accounts", platform.ListSocialAccounts)
	api.Patch("/social/accounts/:id/settings", platform.UpdateAccountSettings)
	api.Post("/social/accounts/telegram", platform.ConnectTelegram)
	api.Post("/social/accounts/remove", platform.DeleteSocialAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, twitterService, linkedinService)
	ruleFiringJob := job.NewRuleFiringJob(scheduleRuleRepo, client)
	cleanupJob := job.NewCleanupJob(pendingAuthRepo)

	// queue
	queueW := queue.NewQueue(scheduleRuleRepo, scheduledPostRepo, socialAccountRepo, generationService, dispatcher)

	c := cron.New()
	c.AddFunc("@every 00h00m30s", func() { ruleFiringJob.FireDueRules() })
	c.AddFunc("@every 00h00m30s", func() { dispatcher.Tick(context.Background()) })
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 01h00m00s", cleanupJob.CleanPendingAuthorizations)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeRuleFire, queueW.HandleRuleFireTask)
		mux.HandleFunc(queue.TaskTypeDispatchPost, queueW.HandleDispatchPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
