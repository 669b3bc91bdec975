package repository

import (
	"context"
	"errors"
	"time"

	"fixpoint/internal/cache"
	"fixpoint/internal/models"

	"gorm.io/gorm"
)

// RequestFilter narrows service-request listings. Nil fields are ignored.
type RequestFilter struct {
	Status *models.RequestStatus
	Kind   *models.RequestKind
	UserID *uint
	Limit  int
	Offset int
}

// RequestRepository defines persistence operations for service requests and
// their audit trail.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uint) (*models.ServiceRequest, error)
	GetByTrackingCode(ctx context.Context, code string) (*models.ServiceRequest, error)
	List(ctx context.Context, f RequestFilter) ([]models.ServiceRequest, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.RequestStatus, note string) (*models.ServiceRequest, *models.StatusUpdate, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
	ListStalePendingIDs(ctx context.Context, before time.Time) ([]uint, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Tracking code collision, please retry")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Service request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) GetByTrackingCode(ctx context.Context, code string) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := r.db.WithContext(ctx).
		Preload("StatusUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("tracking_code = ?", code).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Service request", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, f RequestFilter) ([]models.ServiceRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ServiceRequest{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var reqs []models.ServiceRequest
	if err := q.
		Preload("User").
		Order("created_at DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&reqs).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reqs, total, nil
}

// UpdateStatus writes the status change and appends the audit entry in one
// transaction, for both registered and anonymous requests.
func (r *requestRepository) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus, note string) (*models.ServiceRequest, *models.StatusUpdate, error) {
	var req models.ServiceRequest
	var update models.StatusUpdate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Service request", id)
			}
			return models.NewInternalError(err)
		}

		if err := tx.Model(&models.ServiceRequest{}).
			Where("id = ?", id).
			Update("status", status).Error; err != nil {
			return models.NewInternalError(err)
		}

		update = models.StatusUpdate{
			ServiceRequestID: id,
			Status:           status,
			Note:             note,
		}
		if err := tx.Create(&update).Error; err != nil {
			return models.NewInternalError(err)
		}

		req.Status = status
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	cache.InvalidateTracking(ctx, req.TrackingCode)
	return &req, &update, nil
}

func (r *requestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	type row struct {
		Status models.RequestStatus
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *requestRepository) ListStalePendingIDs(ctx context.Context, before time.Time) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("status = ? AND created_at < ?", models.RequestStatusPending, before).
		Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
