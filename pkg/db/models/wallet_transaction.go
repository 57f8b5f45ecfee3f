package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

// WalletTransaction is an immutable ledger row recording one balance change.
// Amount is signed (positive credit, negative debit) and BalanceAfter
// snapshots the wallet balance after the change, so replaying a wallet's
// transactions in creation order reconstructs every historical balance.
type WalletTransaction struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Amount              decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	BalanceAfter        decimal.Decimal       `gorm:"column:balance_after;type:numeric(14,2);not null"`
	Type                enums.TransactionType `gorm:"column:type;type:transaction_type_enum;not null"`
	Description         string                `gorm:"column:description;not null"`
	PayoutID            *uuid.UUID            `gorm:"column:payout_id;type:uuid"`
	BookingID           *uuid.UUID            `gorm:"column:booking_id;type:uuid"`
	WithdrawalRequestID *uuid.UUID            `gorm:"column:withdrawal_request_id;type:uuid"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
}
