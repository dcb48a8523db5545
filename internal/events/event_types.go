package events

import (
	"time"

	"github.com/postroute/postal-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMailRegistered    EventType = "mail_registered"
	EventMailStocked       EventType = "mail_stocked"
	EventMailLoaded        EventType = "mail_loaded"
	EventMailDelivered     EventType = "mail_delivered"
	EventActivitiesExpired EventType = "activities_expired"
)

// MailEventTypes lists the events emitted by workflow transitions.
var MailEventTypes = []EventType{EventMailRegistered, EventMailStocked, EventMailLoaded, EventMailDelivered}

// Actor identifies who triggered an event.
type Actor struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	BranchID *int64 `json:"branch_id,omitempty"`
	CarID    *int64 `json:"car_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MailID    int64       `json:"mail_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MailTransitionPayload describes a committed workflow transition.
type MailTransitionPayload struct {
	Activity            domain.ActivityType `json:"activity"`
	OldState            domain.MailState    `json:"old_state,omitempty"`
	NewState            domain.MailState    `json:"new_state"`
	DestinationBranchID int64               `json:"destination_branch_id"`
	Message             string              `json:"message"`
}

// ActivitiesExpiredPayload describes a retention run.
type ActivitiesExpiredPayload struct {
	Cutoff time.Time `json:"cutoff"`
}
