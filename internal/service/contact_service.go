package service

import (
	"context"

	"fixpoint/internal/models"
	"fixpoint/internal/repository"
	"fixpoint/internal/validation"
)

type ContactService struct {
	contactRepo repository.ContactRepository
}

type ContactInput struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email"`
	Subject string `validate:"max=200"`
	Message string `validate:"required,max=5000"`
}

func NewContactService(contactRepo repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// Submit stores a message from the public contact form.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	msg := &models.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	}
	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ContactService) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, int64, error) {
	return s.contactRepo.List(ctx, unreadOnly, limit, offset)
}

func (s *ContactService) MarkRead(ctx context.Context, id uint) error {
	return s.contactRepo.MarkRead(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id uint) error {
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.contactRepo.Delete(ctx, id)
}
