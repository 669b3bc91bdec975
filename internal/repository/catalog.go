package repository

import (
	"context"
	"errors"

	"fixpoint/internal/models"

	"gorm.io/gorm"
)

// ServiceRepository defines persistence operations for the services catalog.
type ServiceRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	Update(ctx context.Context, svc *models.Service) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Service, error)
	List(ctx context.Context, activeOnly bool) ([]models.Service, error)
}

type serviceRepository struct {
	db *gorm.DB
}

// NewServiceRepository returns a new ServiceRepository implementation.
func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, svc *models.Service) error {
	if err := r.db.WithContext(ctx).Create(svc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *serviceRepository) Update(ctx context.Context, svc *models.Service) error {
	if err := r.db.WithContext(ctx).Save(svc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Service{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Service", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var svcs []models.Service
	if err := q.Order("name ASC").Find(&svcs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return svcs, nil
}
