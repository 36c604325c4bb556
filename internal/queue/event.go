// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification event kinds.
const (
	KindSubscriptionPaused    = "subscription.paused"
	KindSubscriptionResumed   = "subscription.resumed"
	KindSubscriptionCancelled = "subscription.cancelled"
	KindSubscriptionDepleted  = "subscription.depleted"
	KindMakeupCompleted       = "makeup.completed"
)

// NotificationEvent is published whenever something happens that the
// front desk may want to tell a student about: a pause or cancel on
// their subscription, a counts subscription running out, or a makeup
// class being confirmed.  It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type NotificationEvent struct {
	Kind           string `json:"kind"`
	SubscriptionID uint64 `json:"subscription_id,omitempty"`
	StudentID      uint64 `json:"student_id"`
	ClassID        uint64 `json:"class_id,omitempty"`
	MakeupID       uint64 `json:"makeup_id,omitempty"`
	Detail         string `json:"detail,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}
