package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"consultpay/internal/config"
	"consultpay/internal/wallet"
)

func reconcileCmd() *cobra.Command {
	var (
		consultantID int64
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Replay wallet ledgers and report drift",
		Long: `Replay every wallet ledger (or one with --consultant) and compare the
recomputed totals with the stored wallet balances.

Exits non-zero when any wallet is inconsistent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var audits []*wallet.Audit
			if consultantID > 0 {
				audit, err := a.engine.ReconcileWallet(ctx, consultantID)
				if err != nil {
					return err
				}
				audits = append(audits, audit)
			} else {
				audits, err = a.engine.ReconcileAll(ctx)
				if err != nil {
					return err
				}
			}

			bad := 0
			for _, audit := range audits {
				if !audit.Consistent {
					bad++
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(audits); err != nil {
					return err
				}
			} else {
				for _, audit := range audits {
					status := "ok"
					if !audit.Consistent {
						status = fmt.Sprintf("DRIFT (%d rows)", len(audit.Drifts))
					}
					fmt.Printf("consultant %-6d wallet %-6d balance %-10d pending %-10d %s\n",
						audit.ConsultantID, audit.WalletID, audit.Balance, audit.PendingBalance, status)
				}
			}

			if bad > 0 {
				return fmt.Errorf("%d of %d wallets inconsistent", bad, len(audits))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&consultantID, "consultant", 0, "reconcile only this consultant's wallet")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print audits as JSON")
	return cmd
}
