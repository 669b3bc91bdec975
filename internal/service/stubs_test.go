package service

import (
	"context"
	"testing"
	"time"

	"fixpoint/internal/models"
	"fixpoint/internal/notifications"
	"fixpoint/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub implements repository.UserRepository with overridable
// functions so each test only wires what it needs.
type userRepoStub struct {
	getByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	createFn        func(ctx context.Context, user *models.User) error
	updateFn        func(ctx context.Context, user *models.User) error
	deleteFn        func(ctx context.Context, id uint) error
	listFn          func(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) {
			return nil, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, _, _ int) ([]models.User, int64, error) {
			return nil, 0, nil
		},
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.listFn(ctx, limit, offset)
}

// requestRepoStub implements repository.RequestRepository the same way.
type requestRepoStub struct {
	createFn              func(ctx context.Context, req *models.ServiceRequest) error
	getByIDFn             func(ctx context.Context, id uint) (*models.ServiceRequest, error)
	getByTrackingCodeFn   func(ctx context.Context, code string) (*models.ServiceRequest, error)
	listFn                func(ctx context.Context, f repository.RequestFilter) ([]models.ServiceRequest, int64, error)
	updateStatusFn        func(ctx context.Context, id uint, status models.RequestStatus, note string) (*models.ServiceRequest, *models.StatusUpdate, error)
	countByStatusFn       func(ctx context.Context) (map[models.RequestStatus]int64, error)
	listStalePendingIDsFn func(ctx context.Context, before time.Time) ([]uint, error)
}

func noopRequestRepo() *requestRepoStub {
	return &requestRepoStub{
		createFn: func(_ context.Context, _ *models.ServiceRequest) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.ServiceRequest, error) {
			return &models.ServiceRequest{ID: id, Status: models.RequestStatusPending}, nil
		},
		getByTrackingCodeFn: func(_ context.Context, code string) (*models.ServiceRequest, error) {
			return nil, models.NewNotFoundError("Service request", code)
		},
		listFn: func(_ context.Context, _ repository.RequestFilter) ([]models.ServiceRequest, int64, error) {
			return nil, 0, nil
		},
		updateStatusFn: func(_ context.Context, id uint, status models.RequestStatus, _ string) (*models.ServiceRequest, *models.StatusUpdate, error) {
			return &models.ServiceRequest{ID: id, Status: status},
				&models.StatusUpdate{ServiceRequestID: id, Status: status}, nil
		},
		countByStatusFn: func(_ context.Context) (map[models.RequestStatus]int64, error) {
			return map[models.RequestStatus]int64{}, nil
		},
		listStalePendingIDsFn: func(_ context.Context, _ time.Time) ([]uint, error) {
			return nil, nil
		},
	}
}

func (s *requestRepoStub) Create(ctx context.Context, req *models.ServiceRequest) error {
	return s.createFn(ctx, req)
}
func (s *requestRepoStub) GetByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *requestRepoStub) GetByTrackingCode(ctx context.Context, code string) (*models.ServiceRequest, error) {
	return s.getByTrackingCodeFn(ctx, code)
}
func (s *requestRepoStub) List(ctx context.Context, f repository.RequestFilter) ([]models.ServiceRequest, int64, error) {
	return s.listFn(ctx, f)
}
func (s *requestRepoStub) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus, note string) (*models.ServiceRequest, *models.StatusUpdate, error) {
	return s.updateStatusFn(ctx, id, status, note)
}
func (s *requestRepoStub) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	return s.countByStatusFn(ctx)
}
func (s *requestRepoStub) ListStalePendingIDs(ctx context.Context, before time.Time) ([]uint, error) {
	return s.listStalePendingIDsFn(ctx, before)
}

// publisherStub records published events.
type publisherStub struct {
	events []notifications.StatusChangedEvent
}

func (p *publisherStub) PublishStatusChanged(_ context.Context, event notifications.StatusChangedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}
