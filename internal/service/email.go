package service

import (
	"context"
	"fmt"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

const emailLogLimit = 50

// EmailLogService exposes the notification delivery log to admins.
type EmailLogService struct {
	emails repo.EmailRepo
}

// NewEmailLogService constructs an EmailLogService.
func NewEmailLogService(emails repo.EmailRepo) *EmailLogService {
	return &EmailLogService{emails: emails}
}

// Recent returns the latest delivery records, newest first.
func (s *EmailLogService) Recent(ctx context.Context) ([]domain.Email, error) {
	out, err := s.emails.ListRecent(ctx, emailLogLimit)
	if err != nil {
		return nil, fmt.Errorf("service.EmailLogService.Recent: %w", err)
	}
	if out == nil {
		out = []domain.Email{}
	}
	return out, nil
}
