package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/service"
)

type CalendarHandler struct {
	ledger   *service.Ledger
	overview *service.OverviewService
	now      func() time.Time
}

func NewCalendarHandler(ledger *service.Ledger, overview *service.OverviewService, now func() time.Time) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{ledger: ledger, overview: overview, now: now}
}

// GetCalendar GET /v1/calendar?month=3&year=2025
// Month and year default to the current month.
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	now := h.now()
	month := c.QueryInt("month", int(now.Month()))
	year := c.QueryInt("year", now.Year())
	if month < 1 || month > 12 {
		return badRequest(c, "month must be between 1 and 12")
	}

	idx, err := h.ledger.Calendar(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"month":   month,
		"year":    year,
		"days":    idx.Days(time.Month(month), year),
		"markers": idx.Markers(time.Month(month), year),
	})
}

// GetDay GET /v1/calendar/:date or GET /v1/calendar/day?date=3/7/2025
// Slashed US dates only work through the query form.
func (h *CalendarHandler) GetDay(c *fiber.Ctx) error {
	date := c.Query("date", c.Params("date"))
	if date == "" {
		return badRequest(c, "date is required")
	}

	idx, err := h.ledger.Calendar(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"date":     service.NormalizeDate(date),
		"sessions": idx.SessionsOn(date),
	})
}

// GetSummary GET /v1/summary
func (h *CalendarHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.ledger.RecentSummary(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	if summary.Workouts == nil {
		summary.Workouts = []domain.WorkoutSession{}
	}
	return c.JSON(summary)
}

// GetOverview GET /v1/overview
func (h *CalendarHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.overview.Get(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(overview)
}
