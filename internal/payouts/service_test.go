package payouts

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

type stubPayoutsRepo struct {
	payout       *models.Payout
	created      *models.Payout
	items        []models.OrderItem
	claimAffects *int64
	markAffects  *int64
	markedAt     *time.Time
}

func (s *stubPayoutsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPayoutsRepo) FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if s.payout == nil || s.payout.ID != payoutID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.payout, nil
}

func (s *stubPayoutsRepo) CreatePayout(ctx context.Context, payout *models.Payout) error {
	copied := *payout
	s.created = &copied
	return nil
}

func (s *stubPayoutsRepo) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, now time.Time) (int64, error) {
	if s.markAffects != nil {
		return *s.markAffects, nil
	}
	s.markedAt = &now
	return 1, nil
}

func (s *stubPayoutsRepo) ListUnclaimedDeliveredItems(ctx context.Context, sellerID uuid.UUID) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, item := range s.items {
		if item.SellerID == sellerID && item.Status == enums.OrderItemStatusDelivered && item.PayoutID == nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubPayoutsRepo) ClaimItems(ctx context.Context, payoutID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if s.claimAffects != nil {
		return *s.claimAffects, nil
	}
	claimed := int64(0)
	for i := range s.items {
		for _, id := range itemIDs {
			if s.items[i].ID == id && s.items[i].PayoutID == nil {
				ref := payoutID
				s.items[i].PayoutID = &ref
				claimed++
			}
		}
	}
	return claimed, nil
}

func (s *stubPayoutsRepo) ListPayouts(ctx context.Context, params listPayoutsParams) ([]models.Payout, *pagination.Cursor, error) {
	if s.payout == nil {
		return nil, nil, nil
	}
	return []models.Payout{*s.payout}, nil, nil
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
		ID:       uuid.New(),
		UserID:   input.UserID,
		Amount:   input.Amount,
		Type:     input.Type,
		PayoutID: input.Link.PayoutID,
	}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func deliveredItem(sellerID uuid.UUID, earning int64) models.OrderItem {
	return models.OrderItem{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		SellerID: sellerID,
		Name:     "stay",
		Earning:  decimal.NewFromInt(earning),
		Status:   enums.OrderItemStatusDelivered,
	}
}

func TestCreateBatchesDeliveredEarnings(t *testing.T) {
	sellerID := uuid.New()
	repo := &stubPayoutsRepo{
		items: []models.OrderItem{
			deliveredItem(sellerID, 40),
			deliveredItem(sellerID, 60),
			{
				ID:       uuid.New(),
				SellerID: sellerID,
				Name:     "undelivered",
				Earning:  decimal.NewFromInt(500),
				Status:   enums.OrderItemStatusPending,
			},
		},
	}
	svc, err := NewService(repo, stubTxRunner{}, &stubWalletApplier{})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	payout, err := svc.Create(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !payout.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected payout amount %s", payout.Amount)
	}
	if payout.Status != enums.PayoutStatusPending {
		t.Fatalf("unexpected status %s", payout.Status)
	}

	claimed := 0
	for _, item := range repo.items {
		if item.PayoutID != nil {
			if *item.PayoutID != payout.ID {
				t.Fatalf("item claimed by wrong payout")
			}
			claimed++
		}
	}
	if claimed != 2 {
		t.Fatalf("expected 2 claimed items got %d", claimed)
	}
}

func TestCreateNothingToPayOut(t *testing.T) {
	sellerID := uuid.New()
	alreadyClaimed := deliveredItem(sellerID, 70)
	existing := uuid.New()
	alreadyClaimed.PayoutID = &existing
	repo := &stubPayoutsRepo{items: []models.OrderItem{alreadyClaimed}}
	svc, _ := NewService(repo, stubTxRunner{}, &stubWalletApplier{})

	_, err := svc.Create(context.Background(), sellerID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNothingToPayOut {
		t.Fatalf("expected nothing to pay out got %v", err)
	}
	if repo.created != nil {
		t.Fatal("payout created despite empty batch")
	}
}

func TestCreateLosesClaimRace(t *testing.T) {
	sellerID := uuid.New()
	affects := int64(1)
	repo := &stubPayoutsRepo{
		items:        []models.OrderItem{deliveredItem(sellerID, 40), deliveredItem(sellerID, 60)},
		claimAffects: &affects,
	}
	svc, _ := NewService(repo, stubTxRunner{}, &stubWalletApplier{})

	_, err := svc.Create(context.Background(), sellerID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestMarkPaidCreditsSellerWallet(t *testing.T) {
	sellerID := uuid.New()
	payout := &models.Payout{
		ID:       uuid.New(),
		SellerID: sellerID,
		Amount:   decimal.NewFromInt(150),
		Status:   enums.PayoutStatusPending,
	}
	repo := &stubPayoutsRepo{payout: payout}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	paid, err := svc.MarkPaid(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if paid.Status != enums.PayoutStatusPaid {
		t.Fatalf("unexpected status %s", paid.Status)
	}
	if paid.ProcessedAt == nil {
		t.Fatal("processed_at not set")
	}

	if len(wallets.calls) != 1 {
		t.Fatalf("expected 1 wallet credit got %d", len(wallets.calls))
	}
	call := wallets.calls[0].input
	if call.UserID != sellerID {
		t.Fatalf("credited wrong user %s", call.UserID)
	}
	if !call.Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected amount %s", call.Amount)
	}
	if call.Type != enums.TransactionTypeDeposit {
		t.Fatalf("unexpected type %s", call.Type)
	}
	if call.Link.PayoutID == nil || *call.Link.PayoutID != payout.ID {
		t.Fatal("payout link missing")
	}
}

func TestMarkPaidNotFound(t *testing.T) {
	repo := &stubPayoutsRepo{}
	svc, _ := NewService(repo, stubTxRunner{}, &stubWalletApplier{})

	_, err := svc.MarkPaid(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestMarkPaidTwiceConflicts(t *testing.T) {
	now := time.Now()
	payout := &models.Payout{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		Amount:      decimal.NewFromInt(150),
		Status:      enums.PayoutStatusPaid,
		ProcessedAt: &now,
	}
	repo := &stubPayoutsRepo{payout: payout}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	_, err := svc.MarkPaid(context.Background(), payout.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if len(wallets.calls) != 0 {
		t.Fatal("wallet credited for already paid payout")
	}
}

func TestMarkPaidLosesStatusRace(t *testing.T) {
	affects := int64(0)
	payout := &models.Payout{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Amount:   decimal.NewFromInt(80),
		Status:   enums.PayoutStatusPending,
	}
	repo := &stubPayoutsRepo{payout: payout, markAffects: &affects}
	wallets := &stubWalletApplier{}
	svc, _ := NewService(repo, stubTxRunner{}, wallets)

	_, err := svc.MarkPaid(context.Background(), payout.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if len(wallets.calls) != 0 {
		t.Fatal("wallet credited after losing status race")
	}
}
