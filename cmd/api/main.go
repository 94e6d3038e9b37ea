// @title NoteSnap API
// @version 1.0
// @description Photograph your notes; get a summary, keywords and review questions back.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "notesnap/cmd/api/docs"
	"notesnap/internal/adapter"
	"notesnap/internal/adapter/imagestore"
	"notesnap/internal/adapter/llm"
	"notesnap/internal/adapter/ocr"
	"notesnap/internal/adapter/ocr/tesseract"
	"notesnap/internal/cache"
	"notesnap/internal/config"
	"notesnap/internal/database"
	"notesnap/internal/domain"
	"notesnap/internal/handler"
	"notesnap/internal/logger"
	"notesnap/internal/middleware"
	"notesnap/internal/repository"
	"notesnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Process request
		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func newRecognizer(ctx context.Context, cfg config.OCRConfig) (domain.TextRecognizer, func() error, error) {
	switch cfg.Provider {
	case config.OCRProviderTesseract:
		return tesseract.NewRecognizer(cfg.Languages), func() error { return nil }, nil
	case config.OCRProviderVision:
		r, err := ocr.NewVisionRecognizer(ctx, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ocr provider %q", cfg.Provider)
	}
}

func newImageStore(ctx context.Context, cfg config.StorageConfig) (domain.ImageStore, func() error, error) {
	switch cfg.Backend {
	case config.StorageBackendGCS:
		s, err := imagestore.NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StorageBackendLocal:
		return imagestore.NewLocalStore(cfg.LocalDir), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Collaborators
	generator, err := llm.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	policy := service.NewCandidatePolicy(generator, cfg.LLM.Candidates)
	appLogger.Info("LLM client initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.Strings("candidates", policy.Candidates()))

	recognizer, closeRecognizer, err := newRecognizer(ctx, cfg.OCR)
	if err != nil {
		appLogger.Fatal("Failed to create OCR client", zap.Error(err))
	}
	defer closeRecognizer()

	store, closeStore, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to create image store", zap.Error(err))
	}
	defer closeStore()

	// Connect to database
	db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Successfully connected to Redis")

	// Initialize repositories
	noteRepository := repository.NewSQLXNoteRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)

	// Initialize services
	pipeline := service.NewNotePipeline(store, recognizer, policy, noteRepository, cacheAdapter)
	noteService := service.NewNoteService(noteRepository, policy, cacheAdapter, cfg.Cache.TagListTTL)
	answerChecker := service.NewAnswerChecker(policy, cacheAdapter, cfg.Cache.AnswerCheckTTL)
	authService, err := service.NewAuthService(userRepository, cacheAdapter, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	// Initialize handlers
	noteHandler := handler.NewNoteHandler(pipeline, noteService)
	quizHandler := handler.NewQuizHandler(answerChecker)
	authHandler := handler.NewAuthHandler(authService)
	validator := middleware.NewValidationMiddleware()

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group
	apiGroup := app.Group("/api")
	protected := middleware.Protected(authService)

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/signup", authHandler.SignUp)
	authGroup.Post("/signin", authHandler.SignIn)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", protected, authHandler.Logout)
	authGroup.Get("/google/login", authHandler.GoogleLogin)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)

	// Note routes (all protected)
	apiGroup.Post("/notes", protected, noteHandler.UploadNote)
	apiGroup.Get("/notes/:id", protected, validator.ValidateNoteID(), noteHandler.GetNote)
	apiGroup.Put("/notes/:id", protected, validator.ValidateNoteID(), noteHandler.UpdateNote)
	apiGroup.Delete("/notes/:id", protected, validator.ValidateNoteID(), noteHandler.DeleteNote)
	apiGroup.Post("/notes/:id/regenerate", protected, validator.ValidateNoteID(), noteHandler.RegenerateNote)
	apiGroup.Get("/archive", protected, noteHandler.ListTags)
	apiGroup.Get("/archive/:tag", protected, validator.ValidateTagParam(), noteHandler.ListNotesByTag)

	apiGroup.Post("/quiz/check", protected, quizHandler.CheckAnswer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server exited gracefully")
}
