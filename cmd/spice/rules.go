package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and debug categorization rules",
	}

	cmd.AddCommand(rulesValidateCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a rule file for problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rulesPath(args)
			if err != nil {
				return err
			}

			set, _, err := loadRules(path)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"%s: %d category rule(s), %d label rule(s), %d categories",
				path, len(set.CategoryRules), len(set.LabelRules), len(set.Categories()))))
			return nil
		},
	}
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test PAYEE",
		Short: "Explain how every rule responds to a transaction",
		Example: `  spice rules test "STARBUCKS #1234" --amount -5.75
  spice rules test "Amazon" --amount -120 --category Shopping`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rulesPath(nil)
			if err != nil {
				return err
			}
			_, engine, err := loadRules(path)
			if err != nil {
				return err
			}

			amount, _ := cmd.Flags().GetString("amount")
			account, _ := cmd.Flags().GetString("account")
			category, _ := cmd.Flags().GetString("category")

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: invalid amount %q", common.ErrInvalidConfig, amount)
			}

			txn := model.Transaction{
				ID:      "test",
				Date:    time.Now(),
				Payee:   args[0],
				Amount:  value,
				Account: account,
			}
			if strings.TrimSpace(category) != "" {
				txn.Category = &model.Category{Title: category}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderTraces(engine.Explain(txn)))

			m := engine.Evaluate(txn)
			fmt.Fprintln(out)
			if m.HasCategory() {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Category: %s (%d%%, rule %q)", m.Category, m.Confidence, m.CategoryRule)))
			} else {
				fmt.Fprintln(out, cli.FormatWarning("No category rule matched"))
			}
			if len(m.Labels) > 0 {
				fmt.Fprintln(out, cli.FormatInfo("Labels: "+strings.Join(m.Labels, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().String("amount", "0", "signed amount (negative for expenses)")
	cmd.Flags().String("account", "", "account name")
	cmd.Flags().String("category", "", "existing category, for label rules that depend on it")

	return cmd
}

func rulesPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	settings, err := loadSettings()
	if err != nil {
		return "", err
	}
	return settings.RulesPath, nil
}
