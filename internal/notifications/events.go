// Package notifications publishes status-change events to RabbitMQ and turns
// them into customer emails.
package notifications

import (
	"time"

	"fixpoint/internal/models"
)

// StatusQueueName is the durable queue carrying status-change events.
const StatusQueueName = "request.status-changed"

// StatusChangedEvent is the message published whenever a service request
// changes status. It carries everything the mailer needs so the consumer does
// not read the database.
type StatusChangedEvent struct {
	RequestID    uint                 `json:"request_id"`
	Kind         models.RequestKind   `json:"kind"`
	TrackingCode string               `json:"tracking_code"`
	Status       models.RequestStatus `json:"status"`
	Note         string               `json:"note,omitempty"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// NewStatusChangedEvent builds the event for a request that just moved to its
// current status.
func NewStatusChangedEvent(req *models.ServiceRequest, note string) StatusChangedEvent {
	name, email := req.ContactAddressee()
	return StatusChangedEvent{
		RequestID:    req.ID,
		Kind:         req.Kind,
		TrackingCode: req.TrackingCode,
		Status:       req.Status,
		Note:         note,
		Email:        email,
		Name:         name,
		OccurredAt:   time.Now().UTC(),
	}
}
