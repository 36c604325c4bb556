package handler // handler package contains attendance marking handlers

import (
	"context"      // context bounds database work per request
	"database/sql" // sql provides transactions and the no-rows sentinel
	"errors"       // errors compares sentinel values
	"net/http"     // http defines status code constants
	"strings"      // strings manipulates and trims text
	"time"         // time provides timeouts and date handling

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/entitlement" // entitlement holds the ledger rules
	"github.com/iliyamo/dance-studio-admin/internal/lock"        // lock serializes writers per subscription
	"github.com/iliyamo/dance-studio-admin/internal/model"       // model holds attendance records
	"github.com/iliyamo/dance-studio-admin/internal/queue"       // queue defines notification payloads
	"github.com/iliyamo/dance-studio-admin/internal/repository"  // repository exposes attendance storage
	queue_publisher "github.com/iliyamo/dance-studio-admin/internal/service"
)

// AttendanceHandler bundles dependencies for attendance endpoints.
// Marking attendance is an upsert on the (student, class, date) cell;
// entitlement consumption follows from the old to new status
// transition, so rewriting a cell with the same status never
// double-charges and correcting a mistake refunds automatically.
type AttendanceHandler struct {
	Att   *repository.AttendanceRepo
	Subs  *repository.SubscriptionRepo
	Locks *lock.KeyMutex
}

func NewAttendanceHandler(a *repository.AttendanceRepo, s *repository.SubscriptionRepo, locks *lock.KeyMutex) *AttendanceHandler {
	return &AttendanceHandler{Att: a, Subs: s, Locks: locks}
}

type attendanceEntry struct {
	StudentID uint64 `json:"student_id"`
	ClassID   uint64 `json:"class_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Memo      string `json:"memo"`
	Override  bool   `json:"override"` // admin override skips the window check
}

// recordResult carries the outcome of one attendance write so that the
// single and bulk endpoints can share the same core.
type recordResult struct {
	Record  model.AttendanceRecord
	Warning string
	Code    int // 0 on success, otherwise the HTTP status to report
	Err     string
}

func (h *AttendanceHandler) recordOne(ctx context.Context, e attendanceEntry) recordResult {
	status := strings.ToLower(strings.TrimSpace(e.Status))
	if !model.ValidAttendanceStatus(status) {
		return recordResult{Code: http.StatusBadRequest, Err: "status must be present, late, absent, excused or makeup"}
	}
	if e.StudentID == 0 || e.ClassID == 0 {
		return recordResult{Code: http.StatusBadRequest, Err: "student_id and class_id are required"}
	}
	date, ok := parseDate(e.Date)
	if !ok {
		return recordResult{Code: http.StatusBadRequest, Err: "date must be YYYY-MM-DD"}
	}

	sub, err := h.Subs.FindForStudentClass(ctx, e.StudentID, e.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return recordResult{Code: http.StatusNotFound, Err: "no subscription for this student and class"}
		}
		return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
	}

	unlock := h.Locks.Lock(sub.ID)
	defer unlock()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read under the lock so the version we check against is current.
	sub, err = h.Subs.GetByIDTx(ctx, tx, sub.ID)
	if err != nil {
		return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
	}

	now := today()
	if entitlement.ResolveStatus(&sub, now) == entitlement.StatusCancelled {
		return recordResult{Code: http.StatusConflict, Err: "subscription is cancelled"}
	}
	if !e.Override && !entitlement.InWindow(&sub, date, now) {
		return recordResult{Code: http.StatusUnprocessableEntity, Err: entitlement.ErrOutOfWindow.Error()}
	}

	oldStatus := ""
	prev, err := h.Att.GetForKeyTx(ctx, tx, e.StudentID, e.ClassID, date)
	if err != nil && err != sql.ErrNoRows {
		return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
	}
	if err == nil {
		oldStatus = prev.Status
	}

	res, err := entitlement.ApplyAttendance(&sub, oldStatus, status)
	if err != nil {
		if errors.Is(err, entitlement.ErrInvalidState) {
			return recordResult{Code: http.StatusConflict, Err: "counts subscription has no total_classes"}
		}
		return recordResult{Code: http.StatusInternalServerError, Err: "ledger error"}
	}

	rec, err := h.Att.UpsertTx(ctx, tx, &model.AttendanceRecord{
		StudentID: e.StudentID,
		ClassID:   e.ClassID,
		Date:      date,
		Status:    status,
		Memo:      e.Memo,
	})
	if err != nil {
		return recordResult{Code: http.StatusInternalServerError, Err: "could not record attendance"}
	}
	if res.Changed {
		if err := h.Subs.UpdateRemainingTx(ctx, tx, sub.ID, res.Remaining, sub.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return recordResult{Code: http.StatusConflict, Err: "subscription changed concurrently, retry"}
			}
			return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
		}
	}
	if err := tx.Commit(); err != nil {
		return recordResult{Code: http.StatusInternalServerError, Err: "db error"}
	}
	committed = true

	if res.Depleted {
		_ = queue_publisher.PublishNotification(ctx, queue.NotificationEvent{
			Kind:           queue.KindSubscriptionDepleted,
			SubscriptionID: sub.ID,
			StudentID:      sub.StudentID,
			ClassID:        sub.ClassID,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		})
	}

	out := recordResult{Record: rec}
	if res.Warning != nil {
		out.Warning = "subscription had no remaining classes; recorded anyway"
	}
	return out
}

// Record handles PUT /v1/attendance, upserting one attendance cell.
// Over-attendance on a depleted counts subscription still succeeds and
// reports a warning so the front desk can follow up.
func (h *AttendanceHandler) Record(c echo.Context) error {
	var body attendanceEntry
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res := h.recordOne(ctx, body)
	if res.Code != 0 {
		return c.JSON(res.Code, echo.Map{"error": res.Err})
	}
	resp := echo.Map{"record": res.Record}
	if res.Warning != "" {
		resp["warning"] = res.Warning
	}
	return c.JSON(http.StatusOK, resp)
}

// BulkRecord handles PUT /v1/attendance/bulk: one class occurrence,
// many students.  Entries are processed independently; a failure in
// one never aborts the others, and the response reports per-entry
// outcomes.
func (h *AttendanceHandler) BulkRecord(c echo.Context) error {
	var body struct {
		ClassID uint64 `json:"class_id"`
		Date    string `json:"date"`
		Entries []struct {
			StudentID uint64 `json:"student_id"`
			Status    string `json:"status"`
			Memo      string `json:"memo"`
			Override  bool   `json:"override"`
		} `json:"entries"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.ClassID == 0 || len(body.Entries) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id and entries are required"})
	}
	if _, ok := parseDate(body.Date); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	type bulkResult struct {
		StudentID uint64                  `json:"student_id"`
		OK        bool                    `json:"ok"`
		Record    *model.AttendanceRecord `json:"record,omitempty"`
		Warning   string                  `json:"warning,omitempty"`
		Error     string                  `json:"error,omitempty"`
	}
	results := make([]bulkResult, 0, len(body.Entries))
	for _, e := range body.Entries {
		res := h.recordOne(ctx, attendanceEntry{
			StudentID: e.StudentID,
			ClassID:   body.ClassID,
			Date:      body.Date,
			Status:    e.Status,
			Memo:      e.Memo,
			Override:  e.Override,
		})
		br := bulkResult{StudentID: e.StudentID}
		if res.Code != 0 {
			br.Error = res.Err
		} else {
			br.OK = true
			rec := res.Record
			br.Record = &rec
			br.Warning = res.Warning
		}
		results = append(results, br)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

// ListByClassDate handles GET /v1/classes/:id/attendance?date=.
func (h *AttendanceHandler) ListByClassDate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	date, ok := parseDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Att.ListByClassDate(ctx, id, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByStudent handles GET /v1/students/:id/attendance?from=&to=.
func (h *AttendanceHandler) ListByStudent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var from, to time.Time
	if raw := c.QueryParam("from"); raw != "" {
		d, ok := parseDate(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		from = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, ok := parseDate(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		to = d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Att.ListByStudent(ctx, id, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
