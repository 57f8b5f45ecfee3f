package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	"github.com/stayhubapp/stayhub-backend/pkg/pagination"
)

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	CreateRequest(ctx context.Context, request *models.WithdrawalRequest) error
	LinkDebit(ctx context.Context, requestID, transactionID uuid.UUID) error
	MarkDecided(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, remarks *string, now time.Time) (int64, error)
	ListRequests(ctx context.Context, params listRequestsParams) ([]models.WithdrawalRequest, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listRequestsParams struct {
	SellerID *uuid.UUID
	Status   *enums.WithdrawalStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) CreateRequest(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) LinkDebit(ctx context.Context, requestID, transactionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ?", requestID).
		Update("wallet_transaction_id", transactionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkDecided moves a pending request to a terminal status. The status guard
// in the WHERE clause keeps the decision single-shot under concurrency.
func (r *repository) MarkDecided(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, remarks *string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", requestID, enums.WithdrawalStatusPending).
		Updates(map[string]any{
			"status":        status,
			"admin_remarks": remarks,
			"processed_at":  now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) ListRequests(ctx context.Context, params listRequestsParams) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var requests []models.WithdrawalRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	if len(requests) > normalized {
		next := requests[normalized]
		requests = requests[:normalized]
		return requests, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return requests, nil, nil
}
