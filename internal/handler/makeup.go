package handler // handler package contains makeup workflow handlers

import (
	"context"      // context bounds database work per request
	"database/sql" // sql provides transactions and the no-rows sentinel
	"errors"       // errors compares sentinel values
	"fmt"          // fmt builds the attendance memo
	"net/http"     // http defines status code constants
	"strconv"      // strconv parses query filters
	"strings"      // strings manipulates and trims text
	"time"         // time provides timeouts and date handling

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/entitlement" // entitlement holds the state machine
	"github.com/iliyamo/dance-studio-admin/internal/lock"        // lock serializes writers per subscription
	"github.com/iliyamo/dance-studio-admin/internal/model"       // model holds makeup records
	"github.com/iliyamo/dance-studio-admin/internal/queue"       // queue defines notification payloads
	"github.com/iliyamo/dance-studio-admin/internal/repository"  // repository exposes makeup storage
	queue_publisher "github.com/iliyamo/dance-studio-admin/internal/service"
)

// MakeupHandler bundles dependencies for makeup request endpoints.
// Completing a request flips it to completed and posts the makeup
// attendance record in one transaction; the entitlement charged is the
// subscription on the ORIGINAL class, so the student pays for the
// missed occurrence exactly once no matter where they make it up.
type MakeupHandler struct {
	Makeups  *repository.MakeupRepo
	Att      *repository.AttendanceRepo
	Subs     *repository.SubscriptionRepo
	Students *repository.StudentRepo
	Classes  *repository.ClassRepo
	Locks    *lock.KeyMutex
}

func NewMakeupHandler(m *repository.MakeupRepo, a *repository.AttendanceRepo, s *repository.SubscriptionRepo, st *repository.StudentRepo, cl *repository.ClassRepo, locks *lock.KeyMutex) *MakeupHandler {
	return &MakeupHandler{Makeups: m, Att: a, Subs: s, Students: st, Classes: cl, Locks: locks}
}

// Create handles POST /v1/makeups.
func (h *MakeupHandler) Create(c echo.Context) error {
	var body struct {
		StudentID       uint64 `json:"student_id"`
		OriginalClassID uint64 `json:"original_class_id"`
		OriginalDate    string `json:"original_date"`
		MakeupClassID   uint64 `json:"makeup_class_id"`
		MakeupDate      string `json:"makeup_date"`
		Reason          string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.StudentID == 0 || body.OriginalClassID == 0 || body.MakeupClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id, original_class_id and makeup_class_id are required"})
	}
	origDate, ok := parseDate(body.OriginalDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "original_date must be YYYY-MM-DD"})
	}
	mkDate, ok := parseDate(body.MakeupDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "makeup_date must be YYYY-MM-DD"})
	}
	if mkDate.Before(origDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "makeup_date must not be before original_date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Students.GetByID(ctx, body.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	for _, classID := range []uint64{body.OriginalClassID, body.MakeupClassID} {
		if _, err := h.Classes.GetByID(ctx, classID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	// The student must hold a subscription on the missed class.
	if _, err := h.Subs.FindForStudentClass(ctx, body.StudentID, body.OriginalClassID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no subscription for the original class"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	created, err := h.Makeups.Create(ctx, &model.MakeupRequest{
		StudentID:       body.StudentID,
		OriginalClassID: body.OriginalClassID,
		OriginalDate:    origDate,
		MakeupClassID:   body.MakeupClassID,
		MakeupDate:      mkDate,
		Reason:          strings.TrimSpace(body.Reason),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create makeup request"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List handles GET /v1/makeups with optional ?status= and ?student_id=
// filters.
func (h *MakeupHandler) List(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", model.MakeupPending, model.MakeupApproved, model.MakeupRejected, model.MakeupCompleted, model.MakeupCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	var studentID uint64
	if raw := c.QueryParam("student_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
		}
		studentID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Makeups.List(ctx, status, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// transition moves a makeup request to a new state without any
// attendance side effect.  Used by approve, reject and cancel.
func (h *MakeupHandler) transition(c echo.Context, to string) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Makeups.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := h.Makeups.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "makeup request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !entitlement.CanTransition(m.Status, to) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot move " + m.Status + " request to " + to})
	}
	if err := h.Makeups.UpdateStatusTx(ctx, tx, id, m.Status, to); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "makeup request changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	m.Status = to
	return c.JSON(http.StatusOK, m)
}

// Approve handles POST /v1/makeups/:id/approve.
func (h *MakeupHandler) Approve(c echo.Context) error {
	return h.transition(c, model.MakeupApproved)
}

// Reject handles POST /v1/makeups/:id/reject.
func (h *MakeupHandler) Reject(c echo.Context) error {
	return h.transition(c, model.MakeupRejected)
}

// Cancel handles POST /v1/makeups/:id/cancel.
func (h *MakeupHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.MakeupCancelled)
}

// Complete handles POST /v1/makeups/:id/complete.  The status flip and
// the makeup attendance record commit together or not at all.
func (h *MakeupHandler) Complete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	m, err := h.Makeups.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "makeup request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	sub, err := h.Subs.FindForStudentClass(ctx, m.StudentID, m.OriginalClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no subscription to charge for the original class"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	unlock := h.Locks.Lock(sub.ID)
	defer unlock()

	tx, err := h.Makeups.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err = h.Makeups.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !entitlement.CanTransition(m.Status, model.MakeupCompleted) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot move " + m.Status + " request to completed"})
	}
	sub, err = h.Subs.GetByIDTx(ctx, tx, sub.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if sub.CancelledAt != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "subscription is cancelled"})
	}

	oldStatus := ""
	prev, err := h.Att.GetForKeyTx(ctx, tx, m.StudentID, m.MakeupClassID, m.MakeupDate)
	if err != nil && err != sql.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err == nil {
		oldStatus = prev.Status
	}

	res, err := entitlement.ApplyAttendance(&sub, oldStatus, model.AttendanceMakeup)
	if err != nil {
		if errors.Is(err, entitlement.ErrInvalidState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "counts subscription has no total_classes"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ledger error"})
	}

	memo := fmt.Sprintf("makeup for class %d on %s", m.OriginalClassID, m.OriginalDate.Format(dateLayout))
	rec, err := h.Att.UpsertTx(ctx, tx, &model.AttendanceRecord{
		StudentID: m.StudentID,
		ClassID:   m.MakeupClassID,
		Date:      m.MakeupDate,
		Status:    model.AttendanceMakeup,
		Memo:      memo,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record attendance"})
	}
	if res.Changed {
		if err := h.Subs.UpdateRemainingTx(ctx, tx, sub.ID, res.Remaining, sub.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "subscription changed concurrently, retry"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	if err := h.Makeups.UpdateStatusTx(ctx, tx, id, m.Status, model.MakeupCompleted); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "makeup request changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	_ = queue_publisher.PublishNotification(ctx, queue.NotificationEvent{
		Kind:           queue.KindMakeupCompleted,
		SubscriptionID: sub.ID,
		StudentID:      m.StudentID,
		ClassID:        m.MakeupClassID,
		MakeupID:       m.ID,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	m.Status = model.MakeupCompleted
	resp := echo.Map{"makeup": m, "record": rec}
	if res.Warning != nil {
		resp["warning"] = "subscription had no remaining classes; recorded anyway"
	}
	return c.JSON(http.StatusOK, resp)
}
