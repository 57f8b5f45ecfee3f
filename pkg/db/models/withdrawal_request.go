package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

// WithdrawalRequest is a seller cash-out. Funds are reserved by a debit
// transaction at request time (WalletTransactionID links it); approval takes
// no further ledger action and rejection triggers a compensating refund.
type WithdrawalRequest struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID            uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	Amount              decimal.Decimal        `gorm:"column:amount;type:numeric(14,2);not null"`
	Status              enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status_enum;not null;default:'pending'"`
	Destination         string                 `gorm:"column:destination;not null"`
	WalletTransactionID *uuid.UUID             `gorm:"column:wallet_transaction_id;type:uuid"`
	AdminRemarks        *string                `gorm:"column:admin_remarks"`
	ProcessedAt         *time.Time             `gorm:"column:processed_at"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
}
