package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/internal/wallet"
	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletApplier interface {
	ApplyTx(ctx context.Context, tx *gorm.DB, input wallet.ApplyInput) (*models.WalletTransaction, error)
}

// Service moves booking money between client and provider wallets. Funds
// leave the client at confirmation and reach the provider at completion;
// in between they exist only as a debit recorded against the booking.
type Service interface {
	Hold(ctx context.Context, input HoldInput) (*models.WalletTransaction, error)
	Release(ctx context.Context, input ReleaseInput) (*models.WalletTransaction, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	wallets walletApplier
}

// HoldInput identifies the booking whose price should be debited from the
// client wallet.
type HoldInput struct {
	BookingID uuid.UUID
	ClientID  uuid.UUID
}

// ReleaseInput identifies the completed booking whose held amount should be
// credited to the provider wallet.
type ReleaseInput struct {
	BookingID  uuid.UUID
	ProviderID uuid.UUID
}

// NewService wires the escrow coordinator.
func NewService(repo Repository, tx txRunner, wallets walletApplier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet applier required")
	}
	return &service{repo: repo, tx: tx, wallets: wallets}, nil
}

func (s *service) Hold(ctx context.Context, input HoldInput) (*models.WalletTransaction, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var transaction *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindBooking(ctx, input.BookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.ClientID != input.ClientID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}
		if booking.HoldTransactionID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "funds already held for booking")
		}
		if booking.Status != enums.BookingStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking cannot be confirmed in current state")
		}
		if !booking.Amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "booking amount must be positive")
		}

		bookingID := booking.ID
		applied, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
			UserID:      booking.ClientID,
			Amount:      booking.Amount.Neg(),
			Type:        enums.TransactionTypePayment,
			Description: fmt.Sprintf("hold for booking %s", booking.ID),
			Link:        wallet.Link{BookingID: &bookingID},
		})
		if err != nil {
			return err
		}

		if err := repo.UpdateBooking(ctx, booking.ID, map[string]any{
			"hold_transaction_id": applied.ID,
			"status":              enums.BookingStatusConfirmed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link hold transaction")
		}

		transaction = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*models.WalletTransaction, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var transaction *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindBooking(ctx, input.BookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.ProviderID != input.ProviderID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to provider")
		}
		if booking.HoldTransactionID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no funds held for booking")
		}
		if booking.Status == enums.BookingStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking already released")
		}
		if booking.Status != enums.BookingStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking cannot be released in current state")
		}

		bookingID := booking.ID
		applied, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
			UserID:      booking.ProviderID,
			Amount:      booking.Amount,
			Type:        enums.TransactionTypeEarning,
			Description: fmt.Sprintf("release for booking %s", booking.ID),
			Link:        wallet.Link{BookingID: &bookingID},
		})
		if err != nil {
			return err
		}

		if err := repo.UpdateBooking(ctx, booking.ID, map[string]any{
			"status": enums.BookingStatusCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete booking")
		}

		transaction = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}
