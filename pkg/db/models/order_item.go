package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

// OrderItem is owned by the order/delivery lifecycle; the ledger reads it as
// a payable-earnings source and writes only payout_id when a payout claims it.
type OrderItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	SellerID  uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	Name      string                `gorm:"column:name;not null"`
	Earning   decimal.Decimal       `gorm:"column:earning;type:numeric(14,2);not null"`
	Status    enums.OrderItemStatus `gorm:"column:status;type:order_item_status_enum;not null;default:'pending'"`
	PayoutID  *uuid.UUID            `gorm:"column:payout_id;type:uuid;index"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
