package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

// Payout batches a seller's delivered, unclaimed order-item earnings into one
// settlement. It transitions pending -> paid exactly once and is never
// reopened; marking it paid produces at most one wallet transaction.
type Payout struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(14,2);not null"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null;default:'pending'"`
	ProcessedAt *time.Time         `gorm:"column:processed_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
