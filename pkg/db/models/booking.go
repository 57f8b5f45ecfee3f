package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

// Booking is owned by the booking lifecycle; the escrow coordinator reads its
// status and back-links the hold transaction so the release path can audit
// what was reserved.
type Booking struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID          uuid.UUID           `gorm:"column:client_id;type:uuid;not null;index"`
	ProviderID        uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Status            enums.BookingStatus `gorm:"column:status;type:booking_status_enum;not null;default:'pending'"`
	HoldTransactionID *uuid.UUID          `gorm:"column:hold_transaction_id;type:uuid"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
