package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/finsort/finsort/internal/engine"
)

func autocategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "autocategorize",
		Aliases: []string{"auto"},
		Short:   "Categorize all unlinked transactions using the rule library",
		Long: `Scan every transaction without a category link and apply the best
matching similarity pattern. Only rules with a concrete category target are
used; per-transaction failures are logged and skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pending, err := store.GetUncategorizedTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to count pending transactions: %w", err)
			}
			if len(pending) == 0 {
				fmt.Println("Nothing to categorize.")
				return nil
			}

			bar := progressbar.NewOptions(len(pending),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Categorizing transactions..."),
			)

			result, err := engine.NewAutoCategorizer(store).RunOnceWithProgress(ctx, func() {
				_ = bar.Add(1)
			})
			if err != nil {
				return err
			}
			fmt.Printf("\nCategorized %d of %d transactions\n", result.Categorized, result.Total)
			return nil
		},
	}
}
