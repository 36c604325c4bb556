package handler // handler package contains subscription lifecycle handlers

import (
	"context"      // context bounds database work per request
	"database/sql" // sql provides transactions and the no-rows sentinel
	"errors"       // errors compares sentinel values
	"net/http"     // http defines status code constants
	"strconv"      // strconv parses query filters
	"strings"      // strings manipulates and trims text
	"time"         // time provides timeouts and date arithmetic

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/dance-studio-admin/internal/entitlement" // entitlement holds the domain rules
	"github.com/iliyamo/dance-studio-admin/internal/lock"        // lock serializes writers per subscription
	"github.com/iliyamo/dance-studio-admin/internal/model"       // model holds subscription records
	"github.com/iliyamo/dance-studio-admin/internal/queue"       // queue defines notification payloads
	"github.com/iliyamo/dance-studio-admin/internal/repository"  // repository exposes subscription storage
	queue_publisher "github.com/iliyamo/dance-studio-admin/internal/service"
)

// SubscriptionHandler bundles dependencies for subscription endpoints.
// Every mutation of a subscription takes the per-subscription mutex
// first and then re-reads the row inside the transaction, so the
// version check only ever fails against writers from other processes.
type SubscriptionHandler struct {
	Subs     *repository.SubscriptionRepo
	Students *repository.StudentRepo
	Classes  *repository.ClassRepo
	Locks    *lock.KeyMutex
}

func NewSubscriptionHandler(s *repository.SubscriptionRepo, st *repository.StudentRepo, cl *repository.ClassRepo, locks *lock.KeyMutex) *SubscriptionHandler {
	return &SubscriptionHandler{Subs: s, Students: st, Classes: cl, Locks: locks}
}

// subView decorates a stored subscription with the values that are
// derived at read time and never persisted.
type subView struct {
	model.Subscription
	Status           string    `json:"status"`
	EffectiveEndDate time.Time `json:"effective_end_date"`
	DaysRemaining    int       `json:"days_remaining"`
}

func viewOf(sub model.Subscription, now time.Time) subView {
	return subView{
		Subscription:     sub,
		Status:           entitlement.ResolveStatus(&sub, now),
		EffectiveEndDate: entitlement.EffectiveEndDate(&sub, now),
		DaysRemaining:    entitlement.DaysRemaining(&sub, now),
	}
}

// Create handles POST /v1/subscriptions.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	var body struct {
		StudentID    uint64  `json:"student_id"`
		ClassID      uint64  `json:"class_id"`
		Type         string  `json:"type"` // days | counts
		StartDate    string  `json:"start_date"`
		EndDate      string  `json:"end_date"`
		TotalClasses *uint32 `json:"total_classes"`
		PricePaid    uint32  `json:"price_paid"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.StudentID == 0 || body.ClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id and class_id are required"})
	}
	subType := strings.ToLower(strings.TrimSpace(body.Type))
	if subType != model.SubTypeDays && subType != model.SubTypeCounts {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be days or counts"})
	}
	start, ok := parseDate(body.StartDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, ok := parseDate(body.EndDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must not be before start_date"})
	}
	if subType == model.SubTypeCounts && (body.TotalClasses == nil || *body.TotalClasses == 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_classes is required for counts subscriptions"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Students.GetByID(ctx, body.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !st.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "student is inactive"})
	}
	cl, err := h.Classes.GetByID(ctx, body.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if cl.Status != model.ClassActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "class is not accepting subscriptions"})
	}
	active, err := h.Classes.CountActiveSubscriptions(ctx, cl.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if active >= cl.Capacity {
		return c.JSON(http.StatusConflict, echo.Map{"error": "class is full"})
	}

	sub := &model.Subscription{
		StudentID:    body.StudentID,
		ClassID:      body.ClassID,
		Type:         subType,
		StartDate:    start,
		EndDate:      end,
		TotalClasses: body.TotalClasses,
		PricePaid:    body.PricePaid,
	}
	created, err := h.Subs.Create(ctx, sub)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create subscription"})
	}
	return c.JSON(http.StatusCreated, viewOf(created, today()))
}

// List handles GET /v1/subscriptions with optional ?status=, ?class_id=,
// ?student_id=, ?expiring_days= and ?search= filters.  status filtering
// happens after the query because status is derived, never stored.
func (h *SubscriptionHandler) List(c echo.Context) error {
	var f repository.SubscriptionFilter
	if raw := c.QueryParam("class_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class_id"})
		}
		f.ClassID = id
	}
	if raw := c.QueryParam("student_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
		}
		f.StudentID = id
	}
	if raw := c.QueryParam("expiring_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expiring_days"})
		}
		f.ExpiringDays = n
	}
	f.Search = strings.TrimSpace(c.QueryParam("search"))
	statusFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch statusFilter {
	case "", entitlement.StatusActive, entitlement.StatusPaused, entitlement.StatusExpired, entitlement.StatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subs, err := h.Subs.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	now := today()
	items := make([]subView, 0, len(subs))
	for _, s := range subs {
		v := viewOf(s, now)
		if statusFilter != "" && v.Status != statusFilter {
			continue
		}
		items = append(items, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/subscriptions/:id.
func (h *SubscriptionHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Subs.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, viewOf(sub, today()))
}

// Pause handles POST /v1/subscriptions/:id/pause.  A pause without an
// end_date stays open until resumed; at most one open pause may exist.
func (h *SubscriptionHandler) Pause(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartDate string `json:"start_date"` // defaults to today
		EndDate   string `json:"end_date"`   // empty = open-ended
		Reason    string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	now := today()
	start := now
	if body.StartDate != "" {
		d, ok := parseDate(body.StartDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
		}
		start = d
	}
	var end time.Time // zero = open-ended
	if body.EndDate != "" {
		d, ok := parseDate(body.EndDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
		}
		end = d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unlock := h.Locks.Lock(id)
	defer unlock()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if status := entitlement.ResolveStatus(&sub, now); status == entitlement.StatusCancelled || status == entitlement.StatusExpired {
		return c.JSON(http.StatusConflict, echo.Map{"error": "subscription is " + status})
	}
	if err := entitlement.ValidatePause(&sub, start, end, now); err != nil {
		switch {
		case errors.Is(err, entitlement.ErrAlreadyPaused):
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription already has an open pause"})
		case errors.Is(err, entitlement.ErrPauseOverlap):
			return c.JSON(http.StatusConflict, echo.Map{"error": "pause interval overlaps an existing pause or leaves the validity window"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pause validation failed"})
	}

	p := &model.SubscriptionPause{
		SubscriptionID: id,
		StartDate:      start,
		Reason:         strings.TrimSpace(body.Reason),
	}
	if !end.IsZero() {
		p.EndDate = &end
	}
	if err := h.Subs.InsertPauseTx(ctx, tx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record pause"})
	}
	if err := h.Subs.TouchTx(ctx, tx, id, sub.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	// Best effort; request already succeeded.
	_ = queue_publisher.PublishNotification(ctx, queue.NotificationEvent{
		Kind:           queue.KindSubscriptionPaused,
		SubscriptionID: id,
		StudentID:      sub.StudentID,
		ClassID:        sub.ClassID,
		Detail:         p.Reason,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	fresh, err := h.Subs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, viewOf(fresh, now))
}

// Resume handles POST /v1/subscriptions/:id/resume and closes the open
// pause at today's date.
func (h *SubscriptionHandler) Resume(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unlock := h.Locks.Lock(id)
	defer unlock()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	now := today()
	closed, err := entitlement.Resume(&sub, now)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotPaused) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription has no open pause"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resume failed"})
	}
	if err := h.Subs.ClosePauseTx(ctx, tx, closed.ID, *closed.EndDate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not close pause"})
	}
	if err := h.Subs.TouchTx(ctx, tx, id, sub.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	_ = queue_publisher.PublishNotification(ctx, queue.NotificationEvent{
		Kind:           queue.KindSubscriptionResumed,
		SubscriptionID: id,
		StudentID:      sub.StudentID,
		ClassID:        sub.ClassID,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	fresh, err := h.Subs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, viewOf(fresh, now))
}

// Extend handles POST /v1/subscriptions/:id/extend and pushes the
// nominal end date out by a number of days.
func (h *SubscriptionHandler) Extend(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Days int `json:"days"`
	}
	if err := c.Bind(&body); err != nil || body.Days <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive number"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unlock := h.Locks.Lock(id)
	defer unlock()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if sub.CancelledAt != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "subscription is cancelled"})
	}
	if err := h.Subs.ExtendTx(ctx, tx, id, body.Days, sub.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "extend failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	fresh, err := h.Subs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, viewOf(fresh, today()))
}

// Cancel handles POST /v1/subscriptions/:id/cancel.  Cancellation is
// terminal; the row is kept for history and revenue stats.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unlock := h.Locks.Lock(id)
	defer unlock()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if sub.CancelledAt != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "subscription is already cancelled"})
	}
	if err := h.Subs.CancelTx(ctx, tx, id, sub.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subscription changed concurrently, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	_ = queue_publisher.PublishNotification(ctx, queue.NotificationEvent{
		Kind:           queue.KindSubscriptionCancelled,
		SubscriptionID: id,
		StudentID:      sub.StudentID,
		ClassID:        sub.ClassID,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	fresh, err := h.Subs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, viewOf(fresh, today()))
}
