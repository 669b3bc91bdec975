package models

import "time"

// RequestKind discriminates registered (account-owned) requests from
// anonymous walk-in requests. Both share one table and one lifecycle.
type RequestKind string

const (
	RequestKindRegistered RequestKind = "registered"
	RequestKindAnonymous  RequestKind = "anonymous"
)

// RequestStatus defines lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusApproved   RequestStatus = "APPROVED"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusRejected   RequestStatus = "REJECTED"
	RequestStatusCancelled  RequestStatus = "CANCELLED"
)

// Valid reports whether s is one of the six defined statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// statusEdges is the enforced transition graph. COMPLETED, REJECTED and
// CANCELLED are terminal.
var statusEdges = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved:   {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusCancelled},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range statusEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceRequest is a repair request submitted either by a registered user or
// anonymously. Anonymous requests carry their own contact fields instead of an
// owner reference.
type ServiceRequest struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	Kind   RequestKind `gorm:"type:varchar(12);not null;index" json:"kind"`
	UserID *uint       `gorm:"index" json:"user_id,omitempty"`
	User   *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ContactName    string `json:"contact_name,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactAddress string `json:"contact_address,omitempty"`

	DeviceType string `gorm:"not null" json:"device_type"`
	Brand      string `gorm:"not null" json:"brand"`
	Model      string `gorm:"not null" json:"model"`
	Problem    string `gorm:"type:text;not null" json:"problem"`

	TrackingCode string        `gorm:"uniqueIndex;not null" json:"tracking_code"`
	Status       RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	StatusUpdates []StatusUpdate `gorm:"foreignKey:ServiceRequestID" json:"status_updates,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactAddressee returns the name and email status notifications go to.
func (r *ServiceRequest) ContactAddressee() (name, email string) {
	if r.Kind == RequestKindAnonymous {
		return r.ContactName, r.ContactEmail
	}
	if r.User != nil {
		return r.User.Username, r.User.Email
	}
	return "", ""
}

// StatusUpdate is an immutable audit entry recording one status change.
type StatusUpdate struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	ServiceRequestID uint          `gorm:"not null;index" json:"service_request_id"`
	Status           RequestStatus `gorm:"type:varchar(20);not null" json:"status"`
	Note             string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}
