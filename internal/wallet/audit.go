package wallet

// Drift describes one ledger row whose recorded balance snapshot disagrees
// with the running replay.
type Drift struct {
	TransactionID int64  `json:"transaction_id"`
	AppliedSeq    *int64 `json:"applied_seq,omitempty"`
	Expected      int64  `json:"expected"`
	Recorded      int64  `json:"recorded"`
	Reason        string `json:"reason"`
}

type Audit struct {
	WalletID         int64   `json:"wallet_id"`
	ConsultantID     int64   `json:"consultant_id"`
	Currency         string  `json:"currency"`
	Balance          int64   `json:"balance"`
	ReplayedBalance  int64   `json:"replayed_balance"`
	PendingBalance   int64   `json:"pending_balance"`
	ReplayedPending  int64   `json:"replayed_pending"`
	TotalEarnings    int64   `json:"total_earnings"`
	ReplayedEarnings int64   `json:"replayed_earnings"`
	Transactions     int     `json:"transactions"`
	Drifts           []Drift `json:"drifts"`
	Consistent       bool    `json:"consistent"`
}

// Replay recomputes the wallet totals from its ledger rows. txs must be in
// applied order (as returned by Repository.Ledger); rows without an
// applied_seq only count towards the pending total.
func Replay(w *Wallet, txs []Transaction) *Audit {
	a := &Audit{
		WalletID:       w.ID,
		ConsultantID:   w.ConsultantID,
		Currency:       w.Currency,
		Balance:        w.Balance,
		PendingBalance: w.PendingBalance,
		TotalEarnings:  w.TotalEarnings,
		Transactions:   len(txs),
		Drifts:         []Drift{},
	}

	for _, t := range txs {
		switch t.Type {
		case TypePending:
			a.ReplayedPending += t.Amount
			continue
		case TypeCredit:
			if t.Source == SourceBooking || t.Source == SourceAdjustment {
				a.ReplayedEarnings += t.Amount
			}
		case TypeCancelled:
			if t.Source == SourceRefund {
				a.ReplayedEarnings += t.Amount
			}
		}

		a.ReplayedBalance += t.Amount
		if t.BalanceAfter != a.ReplayedBalance {
			a.Drifts = append(a.Drifts, Drift{
				TransactionID: t.ID,
				AppliedSeq:    t.AppliedSeq,
				Expected:      a.ReplayedBalance,
				Recorded:      t.BalanceAfter,
				Reason:        "balance_after does not match running balance",
			})
			// continue from the recorded snapshot so one bad row is reported once
			a.ReplayedBalance = t.BalanceAfter
		}
		if a.ReplayedBalance < 0 {
			a.Drifts = append(a.Drifts, Drift{
				TransactionID: t.ID,
				AppliedSeq:    t.AppliedSeq,
				Expected:      0,
				Recorded:      a.ReplayedBalance,
				Reason:        "running balance went negative",
			})
		}
	}

	a.ReplayedBalance = sumBalance(txs)

	if a.ReplayedBalance != a.Balance {
		a.Drifts = append(a.Drifts, Drift{Expected: a.ReplayedBalance, Recorded: a.Balance, Reason: "wallet balance does not match ledger sum"})
	}
	if a.ReplayedPending != a.PendingBalance {
		a.Drifts = append(a.Drifts, Drift{Expected: a.ReplayedPending, Recorded: a.PendingBalance, Reason: "wallet pending balance does not match ledger sum"})
	}
	if a.ReplayedEarnings != a.TotalEarnings {
		a.Drifts = append(a.Drifts, Drift{Expected: a.ReplayedEarnings, Recorded: a.TotalEarnings, Reason: "wallet total earnings do not match ledger sum"})
	}

	a.Consistent = len(a.Drifts) == 0
	return a
}

func sumBalance(txs []Transaction) int64 {
	var sum int64
	for _, t := range txs {
		if t.Type.TouchesBalance() {
			sum += t.Amount
		}
	}
	return sum
}
