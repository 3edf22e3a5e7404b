package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Description     string     `json:"description" db:"description"`
	Date            time.Time  `json:"date" db:"date"`
	Location        string     `json:"location" db:"location"`
	Price           float64    `json:"price" db:"price"`
	MaxParticipants int        `json:"max_participants" db:"max_participants"`
	ImageURL        *string    `json:"image_url,omitempty" db:"image_url"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// PriceCents 以分為單位的價格，用於金額比對
func (e *Event) PriceCents() int64 {
	return ToCents(e.Price)
}

type UpdateEventParams struct {
	Name            *string
	Description     *string
	Date            *time.Time
	Location        *string
	Price           *float64
	MaxParticipants *int
	ImageURL        *string
}

// IsEmpty reports whether no field is set.
func (p UpdateEventParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Date == nil && p.Location == nil &&
		p.Price == nil && p.MaxParticipants == nil && p.ImageURL == nil
}

// ToCents converts a currency amount to integer cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Name            string    `json:"name" binding:"required"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date" binding:"required"`
	Location        string    `json:"location" binding:"required"`
	Price           *float64  `json:"price" binding:"required,gte=0"`
	MaxParticipants int       `json:"max_participants" binding:"required,gt=0"`
	ImageURL        *string   `json:"image_url"`
}

// UpdateEventRequest 更新活動請求，未帶的欄位保持不變
type UpdateEventRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
	Location        *string    `json:"location"`
	Price           *float64   `json:"price" binding:"omitempty,gte=0"`
	MaxParticipants *int       `json:"max_participants" binding:"omitempty,gt=0"`
	ImageURL        *string    `json:"image_url"`
}

func (r UpdateEventRequest) Params() UpdateEventParams {
	return UpdateEventParams{
		Name:            r.Name,
		Description:     r.Description,
		Date:            r.Date,
		Location:        r.Location,
		Price:           r.Price,
		MaxParticipants: r.MaxParticipants,
		ImageURL:        r.ImageURL,
	}
}
