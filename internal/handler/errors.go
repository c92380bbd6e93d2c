package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PersistenceWarningHeader marks a response whose change is applied in memory
// but could not be written to the store.
const PersistenceWarningHeader = "X-Persistence-Warning"

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err), errors.Is(err, domain.ErrIndexOutOfRange):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrPersistence):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTransport):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// respond writes value with status. A persistence failure that still
// produced a value is downgraded to a warning header.
func respond(c *fiber.Ctx, status int, value interface{}, err error) error {
	if err != nil {
		if !writeFailed(err) || isNil(value) {
			return errorResponse(c, err)
		}
		c.Set(PersistenceWarningHeader, err.Error())
		recordPersistenceWarning(c, err)
	}
	return c.Status(status).JSON(value)
}

func recordPersistenceWarning(c *fiber.Ctx, err error) {
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) {
		return
	}
	telemetry.AddSpanEvent(c, "persistence.warning",
		attribute.String("store.key", pe.Key),
		attribute.String("store.op", pe.Op),
		attribute.String("error", err.Error()),
	)
}

// writeFailed reports a failure after the change was applied in memory.
// Read failures mean nothing was applied.
func writeFailed(err error) bool {
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Op != "get" && pe.Op != "decode"
}

func isNil(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *domain.WorkoutSession:
		return v == nil
	case *domain.ChatTranscript:
		return v == nil
	case []domain.ChatTranscript:
		return v == nil
	}
	return false
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
