// @title SOP Quiz API
// @version 1.0
// @description Turns standard operating procedure PDFs into multiple-choice quizzes.
// @host localhost:8090
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "sop-quiz/cmd/api/docs"
	"sop-quiz/internal/app"
	"sop-quiz/internal/config"
	"sop-quiz/internal/handler"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/middleware"
	"sop-quiz/internal/quiztoken"
	"sop-quiz/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

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

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	pipeline, err := app.NewPipeline(cfg)
	if err != nil {
		appLogger.Fatal("Failed to build quiz pipeline", zap.Error(err))
	}
	defer pipeline.Close()
	appLogger.Info("Quiz pipeline initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("cache", cfg.Cache.Backend),
	)

	signer, err := quiztoken.NewSigner(cfg.Token.Secret, cfg.Token.TTL)
	if err != nil {
		appLogger.Fatal("Failed to create quiz token signer", zap.Error(err))
	}

	quizHandler := handler.NewQuizHandler(
		pipeline.Extractor,
		pipeline.Generator,
		pipeline.Presenter,
		pipeline.Exporter,
		signer,
		cfg.Quiz,
	)
	healthHandler := handler.NewHealthHandler(pipeline.Cache)

	server := fiber.New(fiber.Config{
		Views:        web.NewViews(),
		ErrorHandler: middleware.ErrorHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	server.Use(requestLogger())
	server.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	server.Use(recover.New())

	server.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(server, handler.Routes{
		Quiz:           quizHandler,
		Health:         healthHandler,
		Tokens:         signer,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := server.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
