package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/handler"
	"github.com/mansoorceksport/workout-assistant/internal/middleware"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/mansoorceksport/workout-assistant/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config *config.Config
	Store  domain.KeyValueStore
	// RedisClient backs idempotent replay; nil disables it.
	RedisClient *redis.Client
	// Assistant may be nil; chat replies then fall back to the error text.
	Assistant domain.AssistantClient
	Now       func() time.Time
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config

	// Initialize services
	ledger := service.NewLedger(deps.Store, deps.Now)
	chatLogs := service.NewChatLogStore(deps.Store, deps.Now)
	chatService := service.NewChatService(deps.Assistant, ledger.RecentSummary, chatLogs)
	overviewService := service.NewOverviewService(ledger, chatLogs, deps.Now)

	// Initialize handlers
	workoutHandler := handler.NewWorkoutHandler(ledger)
	calendarHandler := handler.NewCalendarHandler(ledger, overviewService, deps.Now)
	chatHandler := handler.NewChatHandler(chatService, chatLogs, deps.Assistant)

	bodyLimit := int(cfg.Server.BodyLimitKB * 1024)
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "Workout Assistant API",
		BodyLimit:    bodyLimit,
		ReadTimeout:  cfg.Server.RequestTimeout,
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, " + middleware.CorrelationHeader,
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: handler.PersistenceWarningHeader + ", " + middleware.ReplayHeader,
	}))
	if cfg.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "workout-assistant",
			"store":   cfg.Store.Backend,
		})
	})

	v1 := app.Group("/v1")
	if deps.RedisClient != nil && cfg.Idempotency.Enabled {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Store.KeyPrefix, cfg.Idempotency.TTL))
	}

	// ===========================================
	// WORKOUT LEDGER
	// ===========================================
	workouts := v1.Group("/workouts")
	workouts.Get("/", workoutHandler.ListSessions)
	workouts.Post("/", workoutHandler.CreateSession)
	workouts.Delete("/", workoutHandler.ClearSessions)
	workouts.Get("/:id", workoutHandler.GetSession)
	workouts.Put("/:id", workoutHandler.UpdateSession)
	workouts.Delete("/:id", workoutHandler.DeleteSession)

	workouts.Post("/:id/exercises", workoutHandler.AddExercise)
	workouts.Patch("/:id/exercises/:exerciseId", workoutHandler.RenameExercise)
	workouts.Delete("/:id/exercises/:exerciseId", workoutHandler.RemoveExercise)

	workouts.Post("/:id/exercises/:exerciseId/sets", workoutHandler.AddSet)
	workouts.Patch("/:id/exercises/:exerciseId/sets/:setId", workoutHandler.UpdateSet)
	workouts.Delete("/:id/exercises/:exerciseId/sets/:setId", workoutHandler.RemoveSet)

	// ===========================================
	// CALENDAR & SUMMARY (read-only views)
	// ===========================================
	calendar := v1.Group("/calendar")
	calendar.Get("/", calendarHandler.GetCalendar)
	calendar.Get("/day", calendarHandler.GetDay)
	calendar.Get("/:date", calendarHandler.GetDay)

	v1.Get("/summary", calendarHandler.GetSummary)
	v1.Get("/overview", calendarHandler.GetOverview)

	// ===========================================
	// CHAT
	// ===========================================
	conversation := v1.Group("/conversation")
	conversation.Get("/", chatHandler.GetConversation)
	conversation.Post("/messages", chatHandler.SendMessage)
	conversation.Post("/reset", chatHandler.ResetConversation)
	conversation.Post("/save", chatHandler.SaveConversation)

	logs := v1.Group("/chat-logs")
	logs.Get("/", chatHandler.ListLogs)
	logs.Delete("/index/:index", chatHandler.DeleteLogAt)
	logs.Get("/:id", chatHandler.GetLog)
	logs.Delete("/:id", chatHandler.DeleteLog)

	v1.Post("/chat", chatHandler.Chat)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	logrus.WithFields(logrus.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"status": code,
	}).WithError(err).Error("unhandled request error")
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
