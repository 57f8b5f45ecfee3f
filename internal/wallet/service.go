package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
	"github.com/stayhubapp/stayhub-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the single writer of wallet balances. Every balance change goes
// through Apply so the balance row and its transaction history never diverge.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.WalletTransaction, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*models.WalletTransaction, error)
	GetDetails(ctx context.Context, userID uuid.UUID, limit int) (*Details, error)
	Audit(ctx context.Context) (*AuditReport, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	metrics   *metrics.LedgerMetrics
	batchSize int
}

// Link carries the optional ids tying a transaction back to the entity that
// caused it. At most one side is expected to be set.
type Link struct {
	PayoutID            *uuid.UUID
	BookingID           *uuid.UUID
	WithdrawalRequestID *uuid.UUID
}

// ApplyInput describes one balance change. Amount is signed: positive
// credits the wallet, negative debits it.
type ApplyInput struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        enums.TransactionType
	Description string
	Link        Link
}

// Details is the advisory read of a wallet: current balance plus the most
// recent transactions, newest first.
type Details struct {
	Balance      decimal.Decimal            `json:"balance"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

// NewService wires the wallet ledger service. Metrics may be nil.
func NewService(repo Repository, tx txRunner, ledgerMetrics *metrics.LedgerMetrics, auditBatchSize int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditBatchSize <= 0 {
		auditBatchSize = 200
	}
	return &service{
		repo:      repo,
		tx:        tx,
		metrics:   ledgerMetrics,
		batchSize: auditBatchSize,
	}, nil
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.WalletTransaction, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveDuration("apply", time.Since(start))
	}()

	var transaction *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.ApplyTx(ctx, tx, input)
		if err != nil {
			return err
		}
		transaction = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// ApplyTx runs the balance change inside a caller-owned transaction so the
// caller can commit its own rows atomically with the ledger entry.
func (s *service) ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*models.WalletTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	repo := s.repo.WithTx(tx)

	wallet, err := s.getOrCreateWallet(ctx, repo, input.UserID)
	if err != nil {
		return nil, err
	}

	newBalance, ok := admit(wallet.Balance, input.Amount)
	if !ok {
		s.metrics.IncRejection("insufficient_funds")
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds")
	}

	if err := repo.UpdateWalletBalance(ctx, wallet.ID, newBalance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
	}

	transaction := &models.WalletTransaction{
		ID:                  uuid.New(),
		UserID:              input.UserID,
		Amount:              input.Amount,
		BalanceAfter:        newBalance,
		Type:                input.Type,
		Description:         input.Description,
		PayoutID:            input.Link.PayoutID,
		BookingID:           input.Link.BookingID,
		WithdrawalRequestID: input.Link.WithdrawalRequestID,
	}
	if err := repo.CreateTransaction(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet transaction")
	}

	s.metrics.IncTransaction(string(input.Type))
	return transaction, nil
}

func (s *service) GetDetails(ctx context.Context, userID uuid.UUID, limit int) (*Details, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// No wallet yet means no money has ever moved.
			return &Details{Balance: decimal.Zero, Transactions: []models.WalletTransaction{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	transactions, err := s.repo.ListRecentTransactions(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}

	return &Details{Balance: wallet.Balance, Transactions: transactions}, nil
}

// getOrCreateWallet is the only place wallets are created. It returns the
// locked wallet row for the user, inserting a zero-balance row on first use.
func (s *service) getOrCreateWallet(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := repo.FindWalletByUserIDForUpdate(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	created := &models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: decimal.Zero,
	}
	if err := repo.CreateWallet(ctx, created); err != nil {
		// Lost a create race against a concurrent first transaction.
		wallet, findErr := repo.FindWalletByUserIDForUpdate(ctx, userID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
		}
		return wallet, nil
	}
	return created, nil
}
