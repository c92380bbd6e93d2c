package handler

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/service"
)

type WorkoutHandler struct {
	ledger *service.Ledger
}

func NewWorkoutHandler(ledger *service.Ledger) *WorkoutHandler {
	return &WorkoutHandler{ledger: ledger}
}

// --- Sessions ---

// ListSessions GET /v1/workouts
func (h *WorkoutHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.ledger.List(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sessions)
}

// CreateSession POST /v1/workouts
func (h *WorkoutHandler) CreateSession(c *fiber.Ctx) error {
	var req domain.SessionPatch
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid body")
		}
	}
	session, err := h.ledger.Create(c.UserContext(), req)
	return respond(c, fiber.StatusCreated, session, err)
}

// GetSession GET /v1/workouts/:id
func (h *WorkoutHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.ledger.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(session)
}

// UpdateSession PUT /v1/workouts/:id
func (h *WorkoutHandler) UpdateSession(c *fiber.Ctx) error {
	var req domain.SessionPatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	session, err := h.ledger.Patch(c.UserContext(), c.Params("id"), req)
	return respond(c, fiber.StatusOK, session, err)
}

// DeleteSession DELETE /v1/workouts/:id
func (h *WorkoutHandler) DeleteSession(c *fiber.Ctx) error {
	err := h.ledger.Remove(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"message": "deleted"}, err)
}

// ClearSessions DELETE /v1/workouts
func (h *WorkoutHandler) ClearSessions(c *fiber.Ctx) error {
	err := h.ledger.Clear(c.UserContext())
	return respond(c, fiber.StatusOK, fiber.Map{"message": "cleared"}, err)
}

// --- Exercises ---

type exerciseRequest struct {
	Name string `json:"name"`
}

// AddExercise POST /v1/workouts/:id/exercises
func (h *WorkoutHandler) AddExercise(c *fiber.Ctx) error {
	var req exerciseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid body")
		}
	}
	session, err := h.ledger.AddExercise(c.UserContext(), c.Params("id"), req.Name)
	return respond(c, fiber.StatusCreated, session, err)
}

// RenameExercise PATCH /v1/workouts/:id/exercises/:exerciseId
func (h *WorkoutHandler) RenameExercise(c *fiber.Ctx) error {
	var req exerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	session, err := h.ledger.RenameExercise(c.UserContext(), c.Params("id"), c.Params("exerciseId"), req.Name)
	return respond(c, fiber.StatusOK, session, err)
}

// RemoveExercise DELETE /v1/workouts/:id/exercises/:exerciseId
func (h *WorkoutHandler) RemoveExercise(c *fiber.Ctx) error {
	session, err := h.ledger.RemoveExercise(c.UserContext(), c.Params("id"), c.Params("exerciseId"))
	return respond(c, fiber.StatusOK, session, err)
}

// --- Sets ---

// setRequest accepts reps/weight as JSON numbers or as the raw text typed
// into the field.
type setRequest struct {
	Reps   json.RawMessage `json:"reps"`
	Weight json.RawMessage `json:"weight"`
}

func (r setRequest) edit() domain.SetEdit {
	return domain.SetEdit{
		Reps:   rawText(r.Reps),
		Weight: rawText(r.Weight),
	}
}

// rawText returns nil for an absent field, the unquoted string for a JSON
// string, the integer part of a JSON number in plain decimal ("1e3" -> "1000")
// and the literal text for anything else.
func rawText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		text := strconv.FormatFloat(math.Trunc(n), 'f', -1, 64)
		return &text
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		text = ""
	}
	return &text
}

// AddSet POST /v1/workouts/:id/exercises/:exerciseId/sets
func (h *WorkoutHandler) AddSet(c *fiber.Ctx) error {
	session, err := h.ledger.AddSet(c.UserContext(), c.Params("id"), c.Params("exerciseId"))
	return respond(c, fiber.StatusCreated, session, err)
}

// UpdateSet PATCH /v1/workouts/:id/exercises/:exerciseId/sets/:setId
func (h *WorkoutHandler) UpdateSet(c *fiber.Ctx) error {
	var req setRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid body")
	}
	session, err := h.ledger.UpdateSet(c.UserContext(), c.Params("id"), c.Params("exerciseId"), c.Params("setId"), req.edit())
	return respond(c, fiber.StatusOK, session, err)
}

// RemoveSet DELETE /v1/workouts/:id/exercises/:exerciseId/sets/:setId
func (h *WorkoutHandler) RemoveSet(c *fiber.Ctx) error {
	session, err := h.ledger.RemoveSet(c.UserContext(), c.Params("id"), c.Params("exerciseId"), c.Params("setId"))
	return respond(c, fiber.StatusOK, session, err)
}
