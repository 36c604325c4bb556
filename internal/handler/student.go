package handler // handler package contains studio roster handlers

import (
	"context"      // context bounds database work per request
	"database/sql" // sql provides the no-rows sentinel
	"net/http"     // http defines status code constants
	"strings"      // strings manipulates and trims text
	"time"         // time provides request timeouts

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/model"      // model holds roster records
	"github.com/iliyamo/dance-studio-admin/internal/repository" // repository exposes roster storage
)

// StudentHandler bundles dependencies for roster endpoints.  Roster
// rows describe people enrolled at the studio and are referenced by
// subscriptions and attendance; they are distinct from login accounts.
type StudentHandler struct {
	Students *repository.StudentRepo
}

func NewStudentHandler(s *repository.StudentRepo) *StudentHandler {
	return &StudentHandler{Students: s}
}

type studentBody struct {
	Name             *string `json:"name"`
	Gender           *string `json:"gender"`
	BirthDate        *string `json:"birth_date"` // YYYY-MM-DD
	Phone            *string `json:"phone"`
	EmergencyContact *string `json:"emergency_contact"`
	Address          *string `json:"address"`
	Note             *string `json:"note"`
}

// Create handles POST /v1/students.
func (h *StudentHandler) Create(c echo.Context) error {
	var body studentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	st := &model.Student{Name: strings.TrimSpace(*body.Name), IsActive: true}
	if body.Gender != nil {
		st.Gender = strings.TrimSpace(*body.Gender)
	}
	if body.BirthDate != nil && *body.BirthDate != "" {
		d, ok := parseDate(*body.BirthDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "birth_date must be YYYY-MM-DD"})
		}
		st.BirthDate = &d
	}
	if body.Phone != nil {
		st.Phone = strings.TrimSpace(*body.Phone)
	}
	if body.EmergencyContact != nil {
		st.EmergencyContact = strings.TrimSpace(*body.EmergencyContact)
	}
	if body.Address != nil {
		st.Address = strings.TrimSpace(*body.Address)
	}
	if body.Note != nil {
		st.Note = *body.Note
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Students.Create(ctx, st)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create student"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List handles GET /v1/students with optional ?search= and
// ?include_inactive=true filters.
func (h *StudentHandler) List(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	includeInactive := c.QueryParam("include_inactive") == "true"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Students.List(ctx, search, includeInactive)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/students/:id.
func (h *StudentHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, st)
}

// Update handles PUT /v1/students/:id.  Absent fields keep their
// current value; birth_date may be cleared with an empty string.
func (h *StudentHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body studentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
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
	if body.Gender != nil {
		cur.Gender = strings.TrimSpace(*body.Gender)
	}
	if body.BirthDate != nil {
		if *body.BirthDate == "" {
			cur.BirthDate = nil
		} else {
			d, ok := parseDate(*body.BirthDate)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "birth_date must be YYYY-MM-DD"})
			}
			cur.BirthDate = &d
		}
	}
	if body.Phone != nil {
		cur.Phone = strings.TrimSpace(*body.Phone)
	}
	if body.EmergencyContact != nil {
		cur.EmergencyContact = strings.TrimSpace(*body.EmergencyContact)
	}
	if body.Address != nil {
		cur.Address = strings.TrimSpace(*body.Address)
	}
	if body.Note != nil {
		cur.Note = *body.Note
	}

	fresh, err := h.Students.Update(ctx, &cur)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// Delete handles DELETE /v1/students/:id by flipping the is_active
// flag.  Deleting an already inactive student succeeds quietly.
func (h *StudentHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Students.SoftDelete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
