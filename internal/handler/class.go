package handler // handler package contains dance class handlers

import (
	"context"      // context bounds database work per request
	"database/sql" // sql provides the no-rows sentinel
	"net/http"     // http defines status code constants
	"strconv"      // strconv parses query filters
	"strings"      // strings manipulates and trims text
	"time"         // time provides timeouts and time-of-day parsing

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/model"      // model holds class records
	"github.com/iliyamo/dance-studio-admin/internal/repository" // repository exposes class storage
)

// ClassHandler bundles dependencies for dance class and schedule
// endpoints.
type ClassHandler struct {
	Classes *repository.ClassRepo
	Users   *repository.UserRepo
}

func NewClassHandler(cl *repository.ClassRepo, u *repository.UserRepo) *ClassHandler {
	return &ClassHandler{Classes: cl, Users: u}
}

type classBody struct {
	Name          *string `json:"name"`
	InstructorID  *uint64 `json:"instructor_id"`
	Description   *string `json:"description"`
	Difficulty    *string `json:"difficulty"`
	Capacity      *uint32 `json:"capacity"`
	PricePerMonth *uint32 `json:"price_per_month"`
	Status        *string `json:"status"`
}

func validDifficulty(s string) bool {
	switch s {
	case "beginner", "intermediate", "advanced":
		return true
	}
	return false
}

func validClassStatus(s string) bool {
	switch s {
	case model.ClassPending, model.ClassActive, model.ClassClosed:
		return true
	}
	return false
}

// Create handles POST /v1/classes.  New classes start out pending
// unless an explicit status is given.
func (h *ClassHandler) Create(c echo.Context) error {
	var body classBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.InstructorID == nil || *body.InstructorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor_id is required"})
	}
	if body.Capacity == nil || *body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be greater than zero"})
	}
	cl := &model.DanceClass{
		Name:         strings.TrimSpace(*body.Name),
		InstructorID: *body.InstructorID,
		Capacity:     *body.Capacity,
		Difficulty:   "beginner",
		Status:       model.ClassPending,
	}
	if body.Description != nil {
		cl.Description = strings.TrimSpace(*body.Description)
	}
	if body.Difficulty != nil {
		d := strings.ToLower(strings.TrimSpace(*body.Difficulty))
		if !validDifficulty(d) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be beginner, intermediate or advanced"})
		}
		cl.Difficulty = d
	}
	if body.PricePerMonth != nil {
		cl.PricePerMonth = *body.PricePerMonth
	}
	if body.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*body.Status))
		if !validClassStatus(s) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, active or closed"})
		}
		cl.Status = s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The instructor must be a real account with the INSTRUCTOR role.
	instr, err := h.Users.GetByID(ctx, cl.InstructorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if instr.Role != model.RoleInstructor && instr.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor_id must reference an instructor account"})
	}

	created, err := h.Classes.Create(ctx, cl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create class"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List handles GET /v1/classes with optional ?status= and
// ?instructor_id= filters.
func (h *ClassHandler) List(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !validClassStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	var instructorID uint64
	if raw := c.QueryParam("instructor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instructor_id"})
		}
		instructorID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Classes.List(ctx, status, instructorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/classes/:id and includes the weekly schedule.
func (h *ClassHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	schedules, err := h.Classes.Schedules(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	active, err := h.Classes.CountActiveSubscriptions(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"class":                cl,
		"schedules":            schedules,
		"active_subscriptions": active,
	})
}

// Update handles PUT /v1/classes/:id.  Absent fields keep their
// current value.
func (h *ClassHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body classBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
		}
		cur.Name = name
	}
	if body.InstructorID != nil && *body.InstructorID != cur.InstructorID {
		instr, err := h.Users.GetByID(ctx, *body.InstructorID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if instr.Role != model.RoleInstructor && instr.Role != model.RoleAdmin {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor_id must reference an instructor account"})
		}
		cur.InstructorID = *body.InstructorID
	}
	if body.Description != nil {
		cur.Description = strings.TrimSpace(*body.Description)
	}
	if body.Difficulty != nil {
		d := strings.ToLower(strings.TrimSpace(*body.Difficulty))
		if !validDifficulty(d) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be beginner, intermediate or advanced"})
		}
		cur.Difficulty = d
	}
	if body.Capacity != nil {
		if *body.Capacity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be greater than zero"})
		}
		cur.Capacity = *body.Capacity
	}
	if body.PricePerMonth != nil {
		cur.PricePerMonth = *body.PricePerMonth
	}
	if body.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*body.Status))
		if !validClassStatus(s) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, active or closed"})
		}
		cur.Status = s
	}

	fresh, err := h.Classes.Update(ctx, &cur)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// Delete handles DELETE /v1/classes/:id.  Classes with subscriptions
// on record cannot be removed; close them instead.
func (h *ClassHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Classes.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has subscriptions; close it instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- weekly schedule -----

type scheduleBody struct {
	Weekday   *uint8 `json:"weekday"` // 0 = Sunday .. 6 = Saturday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ListSchedules handles GET /v1/classes/:id/schedules.
func (h *ClassHandler) ListSchedules(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Classes.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.Classes.Schedules(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddSchedule handles POST /v1/classes/:id/schedules.
func (h *ClassHandler) AddSchedule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body scheduleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Weekday == nil || *body.Weekday > 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekday must be 0 (Sunday) through 6 (Saturday)"})
	}
	if !validClock(body.StartTime) || !validClock(body.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time must be HH:MM"})
	}
	if body.EndTime <= body.StartTime {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Classes.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	s := &model.ClassSchedule{
		ClassID:   id,
		Weekday:   *body.Weekday,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Room:      strings.TrimSpace(body.Room),
	}
	created, err := h.Classes.AddSchedule(ctx, s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create schedule"})
	}
	return c.JSON(http.StatusCreated, created)
}

// DeleteSchedule handles DELETE /v1/classes/:id/schedules/:schedule_id.
func (h *ClassHandler) DeleteSchedule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sid, ok := pathID(c, "schedule_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Classes.DeleteSchedule(ctx, id, sid); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
