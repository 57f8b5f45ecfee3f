package withdrawals

import (
	"context"
	"testing"
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

type stubWithdrawalsRepo struct {
	request       *models.WithdrawalRequest
	created       *models.WithdrawalRequest
	linkedTx      *uuid.UUID
	decideAffects *int64
}

func (s *stubWithdrawalsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubWithdrawalsRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if s.request == nil || s.request.ID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.request, nil
}

func (s *stubWithdrawalsRepo) CreateRequest(ctx context.Context, request *models.WithdrawalRequest) error {
	copied := *request
	s.created = &copied
	return nil
}

func (s *stubWithdrawalsRepo) LinkDebit(ctx context.Context, requestID, transactionID uuid.UUID) error {
	if s.created == nil || s.created.ID != requestID {
		return gorm.ErrRecordNotFound
	}
	s.linkedTx = &transactionID
	return nil
}

func (s *stubWithdrawalsRepo) MarkDecided(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, remarks *string, now time.Time) (int64, error) {
	if s.decideAffects != nil {
		return *s.decideAffects, nil
	}
	if s.request == nil || s.request.ID != requestID {
		return 0, nil
	}
	s.request.Status = status
	s.request.AdminRemarks = remarks
	s.request.ProcessedAt = &now
	return 1, nil
}

func (s *stubWithdrawalsRepo) ListRequests(ctx context.Context, params listRequestsParams) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	if s.request == nil {
		return nil, nil, nil
	}
	return []models.WithdrawalRequest{*s.request}, nil, nil
}

type walletApplyCall struct {
	input wallet.ApplyInput
}

type stubWalletApplier struct {
	calls []walletApplyCall
	err   error
}

func (s *stubWalletApplier) ApplyTx(ctx context.Context, tx *gorm.DB, input wallet.ApplyInput) (*models.WalletTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, walletApplyCall{input: input})
	return &models.WalletTransaction{
		ID:                  uuid.New(),
		UserID:              input.UserID,
		Amount:              input.Amount,
		Type:                input.Type,
		WithdrawalRequestID: input.Link.WithdrawalRequestID,
	}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestRequestDebitsWalletAndOpensRequest(t *testing.T) {
	repo := &stubWithdrawalsRepo{}
	wallets := &stubWalletApplier{}
	svc, err := NewService(repo, stubTxRunner{}, wallets)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	sellerID := uuid.New()

	request, err := svc.Request(context.Background(), RequestInput{
		SellerID:    sellerID,
		Amount:      decimal.NewFromInt(90),
		Destination: "bank ****1234",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if request.Status != enums.WithdrawalStatusPending {
		t.Fatalf("unexpected status %s", request.Status)
	}
	if request.WalletTransactionID == nil {
		t.Fatal("debit transaction not linked")
	}

	if len(wallets.calls) != 1 {
		t.Fatalf("expected 1 wallet debit got %d", len(wallets.calls))
	}
	call := wallets.calls[0].input
	if call.UserID != sellerID {
		t.Fatalf("debited wrong user %s", call.UserID)
	}
	if !call.Amount.Equal(decimal.NewFromInt(-90)) {
		t.Fatalf("unexpected amount %s", call.Amount)
	}
	if call.Type != enums.TransactionTypeWithdrawal {
		t.Fatalf("unexpected type %s", call.Type)
	}
	if call.Link.WithdrawalRequestID == nil || *call.Link.WithdrawalRequestID != request.ID {
		t.Fatal("request link missing on debit")
	}
	if repo.linkedTx == nil {
		t.Fatal("repo link not written")
	}
}

func TestRequestInsufficientFundsFailsWholeRequest(t *testing.T) {
	repo := &stubWithdrawalsRepo{}
	wallets := &stubWalletApplier{err: pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds")}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	_, err := svc.Request(context.Background(), RequestInput{
		SellerID:    uuid.New(),
		Amount:      decimal.NewFromInt(90),
		Destination: "bank ****1234",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds got %v", err)
	}
	if repo.linkedTx != nil {
		t.Fatal("debit linked despite failure")
	}
}

func TestRequestValidation(t *testing.T) {
	svc, _ := NewService(&stubWithdrawalsRepo{}, stubTxRunner{}, &stubWalletApplier{})
	ctx := context.Background()

	cases := []struct {
		name  string
		input RequestInput
		code  pkgerrors.Code
	}{
		{"missing seller", RequestInput{Amount: decimal.NewFromInt(10), Destination: "bank"}, pkgerrors.CodeUnauthorized},
		{"zero amount", RequestInput{SellerID: uuid.New(), Destination: "bank"}, pkgerrors.CodeValidation},
		{"negative amount", RequestInput{SellerID: uuid.New(), Amount: decimal.NewFromInt(-5), Destination: "bank"}, pkgerrors.CodeValidation},
		{"blank destination", RequestInput{SellerID: uuid.New(), Amount: decimal.NewFromInt(10), Destination: "  "}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		_, err := svc.Request(ctx, tc.input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != tc.code {
			t.Fatalf("%s: expected %s got %v", tc.name, tc.code, err)
		}
	}
}

func TestDecideApproveRecordsDecisionOnly(t *testing.T) {
	debitID := uuid.New()
	request := &models.WithdrawalRequest{
		ID:                  uuid.New(),
		SellerID:            uuid.New(),
		Amount:              decimal.NewFromInt(60),
		Status:              enums.WithdrawalStatusPending,
		Destination:         "bank ****1234",
		WalletTransactionID: &debitID,
	}
	repo := &stubWithdrawalsRepo{request: request}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	remarks := "verified payout account"
	decided, err := svc.Decide(context.Background(), DecideInput{
		RequestID: request.ID,
		Status:    enums.WithdrawalStatusApproved,
		Remarks:   &remarks,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if decided.Status != enums.WithdrawalStatusApproved {
		t.Fatalf("unexpected status %s", decided.Status)
	}
	if decided.ProcessedAt == nil {
		t.Fatal("processed_at not set")
	}
	if decided.AdminRemarks == nil || *decided.AdminRemarks != remarks {
		t.Fatalf("remarks not recorded: %v", decided.AdminRemarks)
	}
	if len(wallets.calls) != 0 {
		t.Fatal("approval must not move money")
	}
}

func TestDecideRejectRefundsSeller(t *testing.T) {
	request := &models.WithdrawalRequest{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		Amount:      decimal.NewFromInt(60),
		Status:      enums.WithdrawalStatusPending,
		Destination: "bank ****1234",
	}
	repo := &stubWithdrawalsRepo{request: request}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	decided, err := svc.Decide(context.Background(), DecideInput{
		RequestID: request.ID,
		Status:    enums.WithdrawalStatusRejected,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if decided.Status != enums.WithdrawalStatusRejected {
		t.Fatalf("unexpected status %s", decided.Status)
	}

	if len(wallets.calls) != 1 {
		t.Fatalf("expected refund got %d calls", len(wallets.calls))
	}
	call := wallets.calls[0].input
	if call.UserID != request.SellerID {
		t.Fatalf("refunded wrong user %s", call.UserID)
	}
	if !call.Amount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected refund amount %s", call.Amount)
	}
	if call.Type != enums.TransactionTypeRefund {
		t.Fatalf("unexpected type %s", call.Type)
	}
	if call.Link.WithdrawalRequestID == nil || *call.Link.WithdrawalRequestID != request.ID {
		t.Fatal("request link missing on refund")
	}
}

func TestDecideNotFound(t *testing.T) {
	svc, _ := NewService(&stubWithdrawalsRepo{}, stubTxRunner{}, &stubWalletApplier{})

	_, err := svc.Decide(context.Background(), DecideInput{
		RequestID: uuid.New(),
		Status:    enums.WithdrawalStatusApproved,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDecideTwiceConflicts(t *testing.T) {
	now := time.Now()
	request := &models.WithdrawalRequest{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		Amount:      decimal.NewFromInt(60),
		Status:      enums.WithdrawalStatusApproved,
		Destination: "bank ****1234",
		ProcessedAt: &now,
	}
	repo := &stubWithdrawalsRepo{request: request}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	_, err := svc.Decide(context.Background(), DecideInput{
		RequestID: request.ID,
		Status:    enums.WithdrawalStatusRejected,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if len(wallets.calls) != 0 {
		t.Fatal("no refund expected on processed request")
	}
}

func TestDecideRejectsPendingStatus(t *testing.T) {
	request := &models.WithdrawalRequest{
		ID:     uuid.New(),
		Status: enums.WithdrawalStatusPending,
	}
	svc, _ := NewService(&stubWithdrawalsRepo{request: request}, stubTxRunner{}, &stubWalletApplier{})

	_, err := svc.Decide(context.Background(), DecideInput{
		RequestID: request.ID,
		Status:    enums.WithdrawalStatusPending,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestDecideLosesStatusRace(t *testing.T) {
	affects := int64(0)
	request := &models.WithdrawalRequest{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		Amount:      decimal.NewFromInt(60),
		Status:      enums.WithdrawalStatusPending,
		Destination: "bank ****1234",
	}
	repo := &stubWithdrawalsRepo{request: request, decideAffects: &affects}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	_, err := svc.Decide(context.Background(), DecideInput{
		RequestID: request.ID,
		Status:    enums.WithdrawalStatusRejected,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if len(wallets.calls) != 0 {
		t.Fatal("refund issued after losing decision race")
	}
}
