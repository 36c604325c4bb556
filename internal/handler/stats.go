package handler // handler package contains reporting handlers

import (
	"context"  // context bounds database work per request
	"net/http" // http defines status code constants
	"strconv"  // strconv parses query filters
	"time"     // time provides timeouts and date handling

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/repository" // repository exposes the aggregates
)

// StatsHandler bundles dependencies for the reporting endpoints.  The
// numbers are SQL aggregates; nothing here mutates state, which makes
// these endpoints good candidates for the response cache middleware.
type StatsHandler struct {
	Stats *repository.StatsRepo
}

func NewStatsHandler(s *repository.StatsRepo) *StatsHandler {
	return &StatsHandler{Stats: s}
}

// dateRange reads optional ?from= and ?to= query parameters.
func dateRange(c echo.Context) (from, to time.Time, ok bool) {
	if raw := c.QueryParam("from"); raw != "" {
		d, good := parseDate(raw)
		if !good {
			return from, to, false
		}
		from = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, good := parseDate(raw)
		if !good {
			return from, to, false
		}
		to = d
	}
	return from, to, true
}

// Revenue handles GET /v1/stats/revenue?from=&to=.
func (h *StatsHandler) Revenue(c echo.Context) error {
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	summary, err := h.Stats.Revenue(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, summary)
}

// MonthlyRevenue handles GET /v1/stats/revenue/monthly?year=.
func (h *StatsHandler) MonthlyRevenue(c echo.Context) error {
	year := time.Now().UTC().Year()
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 2000 || y > 2100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		year = y
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	months, err := h.Stats.MonthlyRevenue(ctx, year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"year": year, "months": months})
}

// ClassAttendance handles GET /v1/stats/classes/:id/attendance?from=&to=.
func (h *StatsHandler) ClassAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Stats.ClassAttendance(ctx, id, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, b)
}

// StudentAttendance handles GET /v1/stats/students/:id/attendance?from=&to=.
func (h *StatsHandler) StudentAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Stats.StudentAttendance(ctx, id, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, b)
}

// InstructorAttendance handles GET /v1/stats/instructors/:id/attendance?from=&to=.
func (h *StatsHandler) InstructorAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Stats.InstructorAttendance(ctx, id, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, b)
}
