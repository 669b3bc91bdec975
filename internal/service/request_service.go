package service

import (
	"context"
	"time"

	"fixpoint/internal/cache"
	"fixpoint/internal/middleware"
	"fixpoint/internal/models"
	"fixpoint/internal/notifications"
	"fixpoint/internal/observability"
	"fixpoint/internal/repository"
	"fixpoint/internal/tracking"
	"fixpoint/internal/validation"
)

// trackingCodeRetries bounds retries on a tracking code collision.
const trackingCodeRetries = 3

type RequestService struct {
	requestRepo    repository.RequestRepository
	userRepo       repository.UserRepository
	publisher      notifications.Publisher
	serviceAddress string
}

type CreateRegisteredInput struct {
	UserID     uint
	DeviceType string `validate:"required,max=50"`
	Brand      string `validate:"required,max=50"`
	Model      string `validate:"required,max=50"`
	Problem    string `validate:"required,max=2000"`
	Address    string `validate:"max=200"`
}

type CreateAnonymousInput struct {
	ContactName    string `validate:"required,max=100"`
	ContactEmail   string `validate:"required,email"`
	ContactPhone   string `validate:"required,max=30"`
	ContactAddress string `validate:"required,max=200"`
	DeviceType     string `validate:"required,max=50"`
	Brand          string `validate:"required,max=50"`
	Model          string `validate:"required,max=50"`
	Problem        string `validate:"required,max=2000"`
}

type ListRequestsInput struct {
	CallerID   uint
	CallerRole models.Role
	Status     *models.RequestStatus
	Limit      int
	Offset     int
}

// TrackingView is the public projection returned for a tracking code lookup.
// It never exposes the owning account.
type TrackingView struct {
	TrackingCode   string                `json:"tracking_code"`
	Status         models.RequestStatus  `json:"status"`
	DeviceType     string                `json:"device_type"`
	Brand          string                `json:"brand"`
	Model          string                `json:"model"`
	CreatedAt      time.Time             `json:"created_at"`
	ServiceAddress *string               `json:"service_address"`
	StatusUpdates  []models.StatusUpdate `json:"status_updates"`
}

func NewRequestService(requestRepo repository.RequestRepository, userRepo repository.UserRepository, publisher notifications.Publisher, serviceAddress string) *RequestService {
	return &RequestService{
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		serviceAddress: serviceAddress,
	}
}

// CreateRegistered files a repair request for an authenticated user. A
// non-empty address also updates the user's profile so the next request is
// prefilled.
func (s *RequestService) CreateRegistered(ctx context.Context, in CreateRegisteredInput) (*models.ServiceRequest, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Address != "" && in.Address != user.Address {
		user.Address = in.Address
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	req := &models.ServiceRequest{
		Kind:       models.RequestKindRegistered,
		UserID:     &user.ID,
		DeviceType: in.DeviceType,
		Brand:      in.Brand,
		Model:      in.Model,
		Problem:    in.Problem,
		Status:     models.RequestStatusPending,
	}
	if err := s.createWithFreshCode(ctx, req); err != nil {
		return nil, err
	}
	req.User = user

	observability.RequestsCreated.WithLabelValues(string(models.RequestKindRegistered)).Inc()
	middleware.Logger.InfoContext(ctx, "service request created",
		"tracking_code", req.TrackingCode,
		"kind", string(req.Kind))
	return req, nil
}

// CreateAnonymous files a walk-in repair request with inline contact details.
// Authenticated callers must use the registered flow instead.
func (s *RequestService) CreateAnonymous(ctx context.Context, callerID uint, in CreateAnonymousInput) (*models.ServiceRequest, error) {
	if callerID != 0 {
		return nil, models.NewForbiddenError("Authenticated users must submit requests from their account")
	}
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	req := &models.ServiceRequest{
		Kind:           models.RequestKindAnonymous,
		ContactName:    in.ContactName,
		ContactEmail:   in.ContactEmail,
		ContactPhone:   in.ContactPhone,
		ContactAddress: in.ContactAddress,
		DeviceType:     in.DeviceType,
		Brand:          in.Brand,
		Model:          in.Model,
		Problem:        in.Problem,
		Status:         models.RequestStatusPending,
	}
	if err := s.createWithFreshCode(ctx, req); err != nil {
		return nil, err
	}

	observability.RequestsCreated.WithLabelValues(string(models.RequestKindAnonymous)).Inc()
	middleware.Logger.InfoContext(ctx, "service request created",
		"tracking_code", req.TrackingCode,
		"kind", string(req.Kind))
	return req, nil
}

// createWithFreshCode generates a tracking code and retries on the unlikely
// unique-index collision.
func (s *RequestService) createWithFreshCode(ctx context.Context, req *models.ServiceRequest) error {
	var err error
	for i := 0; i < trackingCodeRetries; i++ {
		req.TrackingCode = tracking.NewCode()
		err = s.requestRepo.Create(ctx, req)
		if err == nil {
			return nil
		}
		if appErr, ok := err.(*models.AppError); !ok || appErr.Code != "CONFLICT" {
			return err
		}
	}
	return err
}

// UpdateStatus moves a request along its lifecycle, appends the audit entry
// and notifies the customer. The status write and audit append happen in one
// transaction regardless of request kind.
func (s *RequestService) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus, note string) (*models.ServiceRequest, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Unknown status: " + string(status))
	}

	current, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, models.NewValidationError(
			"Cannot move request from " + string(current.Status) + " to " + string(status))
	}

	updated, _, err := s.requestRepo.UpdateStatus(ctx, id, status, note)
	if err != nil {
		return nil, err
	}

	observability.StatusTransitions.WithLabelValues(string(status)).Inc()
	middleware.Logger.InfoContext(ctx, "service request status changed",
		"tracking_code", updated.TrackingCode,
		"from", string(current.Status),
		"to", string(status))

	// Notification failures never roll back the status change.
	if s.publisher != nil {
		_ = s.publisher.PublishStatusChanged(ctx, notifications.NewStatusChangedEvent(updated, note))
	}
	return updated, nil
}

// TrackByCode returns the public view for a tracking code. The service-center
// address is only disclosed once the request is approved, and the audit trail
// is only shown for account-owned requests.
func (s *RequestService) TrackByCode(ctx context.Context, code string) (*TrackingView, error) {
	if code == "" {
		return nil, models.NewValidationError("Tracking code is required")
	}

	var view TrackingView
	err := cache.Aside(ctx, cache.TrackingKey(code), &view, cache.TrackingTTL, func() error {
		req, err := s.requestRepo.GetByTrackingCode(ctx, code)
		if err != nil {
			return err
		}
		view = s.publicView(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *RequestService) publicView(req *models.ServiceRequest) TrackingView {
	view := TrackingView{
		TrackingCode:  req.TrackingCode,
		Status:        req.Status,
		DeviceType:    req.DeviceType,
		Brand:         req.Brand,
		Model:         req.Model,
		CreatedAt:     req.CreatedAt,
		StatusUpdates: []models.StatusUpdate{},
	}
	// The drop-off address is only disclosed while the request is approved
	// and waiting for the device.
	if req.Status == models.RequestStatusApproved {
		addr := s.serviceAddress
		view.ServiceAddress = &addr
	}
	if req.Kind == models.RequestKindRegistered {
		view.StatusUpdates = req.StatusUpdates
	}
	return view
}

// List returns requests visible to the caller. Regular users only see their
// own; admins see everything, optionally narrowed by status.
func (s *RequestService) List(ctx context.Context, in ListRequestsInput) ([]models.ServiceRequest, int64, error) {
	filter := repository.RequestFilter{
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if in.CallerRole != models.RoleAdmin {
		filter.UserID = &in.CallerID
	}
	return s.requestRepo.List(ctx, filter)
}

// GetByID returns a single request if the caller may see it.
func (s *RequestService) GetByID(ctx context.Context, callerID uint, callerRole models.Role, id uint) (*models.ServiceRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin {
		if req.UserID == nil || *req.UserID != callerID {
			return nil, models.NewForbiddenError("You do not have access to this request")
		}
	}
	return req, nil
}

// ExpireStalePending cancels PENDING requests older than maxAge. Run by the
// maintenance scheduler.
func (s *RequestService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := s.requestRepo.ListStalePendingIDs(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if _, err := s.UpdateStatus(ctx, id, models.RequestStatusCancelled,
			"Automatically cancelled after a long period without approval"); err != nil {
			middleware.Logger.WarnContext(ctx, "stale request expiry failed",
				"request_id", id,
				"error", err.Error())
			continue
		}
		expired++
	}
	return expired, nil
}
