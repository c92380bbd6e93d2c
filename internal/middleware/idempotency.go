package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	ReplayHeader      = "X-Idempotent-Replay"
)

// replayRecord is what gets cached per correlation id.
type replayRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response for a repeated
// X-Correlation-ID on mutating requests. Only 2xx responses are stored, for
// ttl. Requests without the header pass straight through, and a Redis outage
// never fails the request.
func IdempotencyMiddleware(redisClient *redis.Client, keyPrefix string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		correlationID := c.Get(CorrelationHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := keyPrefix + "idempotency:" + c.Method() + ":" + c.Path() + ":" + correlationID
		log := logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"path":           c.Path(),
		})

		cached, err := redisClient.Get(c.UserContext(), key).Bytes()
		switch {
		case err == nil:
			var rec replayRecord
			if err := json.Unmarshal(cached, &rec); err == nil {
				log.Debug("replaying idempotent response")
				c.Set(ReplayHeader, "true")
				if rec.ContentType != "" {
					c.Set(fiber.HeaderContentType, rec.ContentType)
				}
				return c.Status(rec.Status).Send(rec.Body)
			}
			log.Warn("discarding unreadable idempotency record")
		case !errors.Is(err, redis.Nil):
			log.WithError(err).Warn("idempotency lookup failed")
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}

		rec, err := json.Marshal(replayRecord{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Set(ctx, key, rec, ttl).Err(); err != nil {
			log.WithError(err).Warn("failed to store idempotent response")
		}
		return nil
	}
}
