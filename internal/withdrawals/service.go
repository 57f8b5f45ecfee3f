package withdrawals

import (
	"context"
	"fmt"
	"strings"
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

// Service runs the seller cash-out workflow. Funds are reserved by a wallet
// debit the moment the request is made, so an admin decision later never
// finds the money already spent.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Decide(ctx context.Context, input DecideInput) (*models.WithdrawalRequest, error)
	List(ctx context.Context, input ListInput) (*RequestList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	wallets walletApplier
	now     func() time.Time
}

// RequestInput captures a seller's cash-out ask.
type RequestInput struct {
	SellerID    uuid.UUID
	Amount      decimal.Decimal
	Destination string
}

// DecideInput carries an admin's terminal decision on a pending request.
type DecideInput struct {
	RequestID uuid.UUID
	Status    enums.WithdrawalStatus
	Remarks   *string
}

// ListInput filters the withdrawal listing.
type ListInput struct {
	SellerID   *uuid.UUID
	Status     *enums.WithdrawalStatus
	Pagination pagination.Params
}

// RequestList is one page of withdrawal requests plus the next-page cursor.
type RequestList struct {
	Requests   []models.WithdrawalRequest `json:"requests"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}

// NewService wires the withdrawal workflow.
func NewService(repo Repository, tx txRunner, wallets walletApplier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet applier required")
	}
	return &service{repo: repo, tx: tx, wallets: wallets, now: time.Now}, nil
}

// Request debits the seller wallet and opens a pending request in one
// transaction. An overdraft rejects the whole request.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.Destination) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination required")
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created := &models.WithdrawalRequest{
			ID:          uuid.New(),
			SellerID:    input.SellerID,
			Amount:      input.Amount,
			Status:      enums.WithdrawalStatusPending,
			Destination: strings.TrimSpace(input.Destination),
		}
		if err := repo.CreateRequest(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}

		requestID := created.ID
		applied, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
			UserID:      input.SellerID,
			Amount:      input.Amount.Neg(),
			Type:        enums.TransactionTypeWithdrawal,
			Description: fmt.Sprintf("withdrawal request %s", created.ID),
			Link:        wallet.Link{WithdrawalRequestID: &requestID},
		})
		if err != nil {
			return err
		}

		if err := repo.LinkDebit(ctx, created.ID, applied.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link withdrawal debit")
		}

		created.WalletTransactionID = &applied.ID
		request = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Decide resolves a pending request. Approval only records the decision; the
// money already left the wallet at request time. Rejection refunds it.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.WithdrawalRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if !input.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approved or rejected")
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}
		if found.Status != enums.WithdrawalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already processed")
		}

		now := s.now()
		updated, err := repo.MarkDecided(ctx, found.ID, input.Status, input.Remarks, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record withdrawal decision")
		}
		if updated == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already processed")
		}

		if input.Status == enums.WithdrawalStatusRejected {
			requestID := found.ID
			if _, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
				UserID:      found.SellerID,
				Amount:      found.Amount,
				Type:        enums.TransactionTypeRefund,
				Description: fmt.Sprintf("withdrawal request %s rejected", found.ID),
				Link:        wallet.Link{WithdrawalRequestID: &requestID},
			}); err != nil {
				return err
			}
		}

		found.Status = input.Status
		found.AdminRemarks = input.Remarks
		found.ProcessedAt = &now
		request = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*RequestList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid withdrawal status %q", *input.Status))
	}

	var cursor *pagination.Cursor
	if input.Pagination.Cursor != "" {
		parsed, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		cursor = parsed
	}

	requests, next, err := s.repo.ListRequests(ctx, listRequestsParams{
		SellerID: input.SellerID,
		Status:   input.Status,
		Limit:    input.Pagination.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawal requests")
	}

	list := &RequestList{Requests: requests}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}
