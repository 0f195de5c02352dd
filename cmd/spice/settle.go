package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/config"
	"github.com/Veraticus/the-spice-must-sort/internal/settlement"
)

func settleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle FILE",
		Short: "Work out who owes whom for shared expenses",
		Long: `Read a JSON ledger of shared expenses and print each member's balance and
the transfers that settle everyone up.

  {"members": ["alice", "bob"],
   "expenses": [{"payer": "alice", "amount": "60.00", "description": "groceries"}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(config.ExpandPath(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()

			ledger, err := settlement.Decode(f)
			if err != nil {
				return err
			}
			balances, err := settlement.Balances(ledger)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSettlement(balances, settlement.Settle(balances)))
			return nil
		},
	}
}
