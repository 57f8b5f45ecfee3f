package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
)

// AuditReport summarizes one reconciliation sweep over every wallet.
type AuditReport struct {
	WalletsChecked      int      `json:"wallets_checked"`
	TransactionsChecked int      `json:"transactions_checked"`
	Healthy             bool     `json:"healthy"`
	Issues              []string `json:"issues,omitempty"`
}

// Audit replays every wallet's transaction history in order and verifies two
// invariants: each BalanceAfter equals the running sum of amounts, and the
// final running sum equals the stored balance. It reports mismatches rather
// than failing on the first one, so one corrupt wallet does not hide others.
func (s *service) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{Healthy: true}
	var mismatches error

	offset := 0
	for {
		wallets, err := s.repo.ListWallets(ctx, offset, s.batchSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallets")
		}
		if len(wallets) == 0 {
			break
		}

		for _, w := range wallets {
			report.WalletsChecked++

			transactions, err := s.repo.ListTransactionsAsc(ctx, w.UserID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
			}

			running := decimal.Zero
			for _, transaction := range transactions {
				report.TransactionsChecked++
				running = running.Add(transaction.Amount)
				if !running.Equal(transaction.BalanceAfter) {
					mismatches = multierr.Append(mismatches, fmt.Errorf(
						"wallet %s: transaction %s recorded balance %s, replay gives %s",
						w.UserID, transaction.ID, transaction.BalanceAfter, running))
					running = transaction.BalanceAfter
				}
			}
			if !running.Equal(w.Balance) {
				mismatches = multierr.Append(mismatches, fmt.Errorf(
					"wallet %s: stored balance %s, replayed history gives %s",
					w.UserID, w.Balance, running))
			}
		}

		offset += len(wallets)
		if len(wallets) < s.batchSize {
			break
		}
	}

	for _, err := range multierr.Errors(mismatches) {
		report.Issues = append(report.Issues, err.Error())
	}
	report.Healthy = len(report.Issues) == 0
	return report, nil
}
