package service

import (
	"context"

	"fixpoint/internal/models"
	"fixpoint/internal/repository"
	"fixpoint/internal/validation"
)

type CatalogService struct {
	serviceRepo repository.ServiceRepository
}

type ServiceInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=2000"`
	Price       float64
	Active      bool
}

func NewCatalogService(serviceRepo repository.ServiceRepository) *CatalogService {
	return &CatalogService{serviceRepo: serviceRepo}
}

func (s *CatalogService) Create(ctx context.Context, in ServiceInput) (*models.Service, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("price must not be negative")
	}

	svc := &models.Service{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Active:      in.Active,
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in ServiceInput) (*models.Service, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("price must not be negative")
	}

	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Name = in.Name
	svc.Description = in.Description
	svc.Price = in.Price
	svc.Active = in.Active

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	if _, err := s.serviceRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.serviceRepo.Delete(ctx, id)
}

// List hides inactive services from non-admin callers.
func (s *CatalogService) List(ctx context.Context, callerRole models.Role) ([]models.Service, error) {
	activeOnly := callerRole != models.RoleAdmin
	return s.serviceRepo.List(ctx, activeOnly)
}
