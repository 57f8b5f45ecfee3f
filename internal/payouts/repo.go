package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	"github.com/stayhubapp/stayhub-backend/pkg/pagination"
)

// Repository manages persistence for payouts and the order items they claim.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	CreatePayout(ctx context.Context, payout *models.Payout) error
	MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, now time.Time) (int64, error)
	ListUnclaimedDeliveredItems(ctx context.Context, sellerID uuid.UUID) ([]models.OrderItem, error)
	ClaimItems(ctx context.Context, payoutID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	ListPayouts(ctx context.Context, params listPayoutsParams) ([]models.Payout, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payouts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listPayoutsParams struct {
	SellerID *uuid.UUID
	Status   *enums.PayoutStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).
		Where("id = ?", payoutID).
		First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// MarkPayoutPaid flips a pending payout to paid. The status guard in the
// WHERE clause makes the transition single-shot under concurrency; callers
// check the affected row count.
func (r *repository) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutID, enums.PayoutStatusPending).
		Updates(map[string]any{
			"status":       enums.PayoutStatusPaid,
			"processed_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) ListUnclaimedDeliveredItems(ctx context.Context, sellerID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ? AND payout_id IS NULL", sellerID, enums.OrderItemStatusDelivered).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ClaimItems stamps the payout id onto the given items. The payout_id IS NULL
// guard loses gracefully against a concurrent claim of the same items.
func (r *repository) ClaimItems(ctx context.Context, payoutID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id IN ? AND payout_id IS NULL", itemIDs).
		Update("payout_id", payoutID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) ListPayouts(ctx context.Context, params listPayoutsParams) ([]models.Payout, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var payouts []models.Payout
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&payouts).Error; err != nil {
		return nil, nil, err
	}

	if len(payouts) > normalized {
		next := payouts[normalized]
		payouts = payouts[:normalized]
		return payouts, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return payouts, nil, nil
}
