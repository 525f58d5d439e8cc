package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailStatus is the delivery state of a queued email.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// Email is one outbound notification and its delivery record.
type Email struct {
	ID            uuid.UUID
	ToEmail       string
	ToName        string
	Subject       string
	Body          string
	Type          string
	Status        EmailStatus
	Attempts      int
	MaxAttempts   int
	ScheduledAt   time.Time
	SentAt        *time.Time
	ErrorMessage  string
	ReservationID *uuid.UUID
	CreatedAt     time.Time
}
