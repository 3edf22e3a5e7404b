package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus 付款狀態類型
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid 驗證狀態是否有效
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// Registration binds a user to an event and carries the ticket.
type Registration struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	EventID       uuid.UUID     `json:"event_id" db:"event_id"`
	PaymentAmount float64       `json:"payment_amount" db:"payment_amount"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	TicketCode    string        `json:"ticket_code" db:"ticket_code"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// CreateRegistrationRequest 報名請求
type CreateRegistrationRequest struct {
	EventID       uuid.UUID `json:"event_id" binding:"required"`
	PaymentAmount *float64  `json:"payment_amount" binding:"required"`
}

// TicketView is a registration joined with its event, as listed under my-tickets.
type TicketView struct {
	Registration
	Event *Event `json:"event"`
}

// EventRegistrationView is a registration joined with the registering user's public profile.
type EventRegistrationView struct {
	Registration
	User *UserSummary `json:"user"`
}

// TicketIssued is published after a registration commits.
type TicketIssued struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	TicketCode     string    `json:"ticket_code"`
	UserID         uuid.UUID `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	UserName       string    `json:"user_name"`
	EventID        uuid.UUID `json:"event_id"`
	EventName      string    `json:"event_name"`
	EventDate      time.Time `json:"event_date"`
	EventLocation  string    `json:"event_location"`
	Amount         float64   `json:"amount"`
	IssuedAt       time.Time `json:"issued_at"`
}
