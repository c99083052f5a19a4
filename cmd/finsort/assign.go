package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <transaction-id> <category-id>",
		Short: "Assign a category to a transaction",
		Long: `Assign a category to a transaction as a manual decision. With
--apply-to-similar the same category is propagated to similar transactions
that are still uncategorized and dated on or after this one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			categoryID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q: %w", args[1], err)
			}
			applyToSimilar, _ := cmd.Flags().GetBool("apply-to-similar")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := newAssigner(store).Assign(ctx, args[0], categoryID, applyToSimilar)
			if err != nil {
				return err
			}

			fmt.Printf("Assigned category %d to transaction %s (assignment %d)\n",
				result.CategoryID, result.TransactionID, result.AssignmentID)
			if applyToSimilar {
				fmt.Printf("Similar transactions updated: %d\n", result.SimilarUpdated)
			}
			return nil
		},
	}

	cmd.Flags().Bool("apply-to-similar", false, "propagate the category to similar transactions")

	return cmd
}
