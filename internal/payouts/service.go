package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/internal/wallet"
	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
	"github.com/stayhubapp/stayhub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletApplier interface {
	ApplyTx(ctx context.Context, tx *gorm.DB, input wallet.ApplyInput) (*models.WalletTransaction, error)
}

// Service batches delivered earnings into payouts and settles them into
// seller wallets.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID) (*models.Payout, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	Get(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, input ListInput) (*PayoutList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	wallets walletApplier
	now     func() time.Time
}

// ListInput filters the payout listing for the admin console.
type ListInput struct {
	SellerID   *uuid.UUID
	Status     *enums.PayoutStatus
	Pagination pagination.Params
}

// PayoutList is one page of payouts plus the cursor for the next page.
type PayoutList struct {
	Payouts    []models.Payout `json:"payouts"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// NewService wires the payout batcher.
func NewService(repo Repository, tx txRunner, wallets walletApplier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet applier required")
	}
	return &service{repo: repo, tx: tx, wallets: wallets, now: time.Now}, nil
}

// Create claims every delivered, still-unclaimed order item of the seller
// into a single pending payout. Claiming and payout creation commit together
// so an item can never belong to two payouts.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID) (*models.Payout, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, err := repo.ListUnclaimedDeliveredItems(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unclaimed earnings")
		}

		total := decimal.Zero
		itemIDs := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			total = total.Add(item.Earning)
			itemIDs = append(itemIDs, item.ID)
		}
		if len(items) == 0 || !total.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeNothingToPayOut, "no payable earnings")
		}

		created := &models.Payout{
			ID:       uuid.New(),
			SellerID: sellerID,
			Amount:   total,
			Status:   enums.PayoutStatusPending,
		}
		if err := repo.CreatePayout(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}

		claimed, err := repo.ClaimItems(ctx, created.ID, itemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order items")
		}
		if claimed != int64(len(itemIDs)) {
			// Another payout claimed some of these items first.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "earnings were claimed concurrently")
		}

		payout = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// MarkPaid settles a pending payout: the status flips to paid and the seller
// wallet is credited in the same transaction.
func (s *service) MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindPayout(ctx, payoutID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if found.Status == enums.PayoutStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already paid")
		}

		now := s.now()
		updated, err := repo.MarkPayoutPaid(ctx, found.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
		}
		if updated == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already paid")
		}

		payoutRef := found.ID
		if _, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
			UserID:      found.SellerID,
			Amount:      found.Amount,
			Type:        enums.TransactionTypeDeposit,
			Description: fmt.Sprintf("payout %s settled", found.ID),
			Link:        wallet.Link{PayoutID: &payoutRef},
		}); err != nil {
			return err
		}

		found.Status = enums.PayoutStatusPaid
		found.ProcessedAt = &now
		payout = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) Get(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := s.repo.FindPayout(ctx, payoutID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*PayoutList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", *input.Status))
	}

	var cursor *pagination.Cursor
	if input.Pagination.Cursor != "" {
		parsed, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		cursor = parsed
	}

	payouts, next, err := s.repo.ListPayouts(ctx, listPayoutsParams{
		SellerID: input.SellerID,
		Status:   input.Status,
		Limit:    input.Pagination.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	list := &PayoutList{Payouts: payouts}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}
