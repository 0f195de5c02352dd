package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/config"
	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
)

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants FILE",
		Short: "Group payees in an export by merchant",
		Long: `Group the payees of a JSON feed or OFX/QFX export by merchant. Payees that
normalize to the same merchant always share a group; others join a group when
their similarity reaches the threshold. Useful for writing payee rules.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			threshold, _ := cmd.Flags().GetFloat64("threshold")
			if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be in (0, 1], got %v", threshold)
			}

			txns, err := loadTransactions(ctx, config.ExpandPath(args[0]))
			if err != nil {
				return err
			}

			payees := make([]string, len(txns))
			for i, t := range txns {
				payees[i] = t.Payee
			}
			groups := merchant.GroupPayees(payees, threshold)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderGroups(groups))
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d payees, %d merchants", len(payees), len(groups))))
			return nil
		},
	}

	cmd.Flags().Float64("threshold", merchant.DefaultGroupThreshold, "similarity needed to join a group")

	return cmd
}
