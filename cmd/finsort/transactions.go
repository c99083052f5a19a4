package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "Inspect and manage imported transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsDeleteCmd())
	cmd.AddCommand(transactionsUncategorizeCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{}
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				s := model.CategorizationStatus(status)
				filter.Status = &s
			}
			filter.Limit, _ = cmd.Flags().GetInt("limit")

			txns, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println("No transactions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			_, _ = fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tSTATUS")
			for i := range txns {
				txn := &txns[i]
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					txn.ID, txn.Date, txn.Description, txn.Amount().StringFixed(2), txn.Status)
			}
			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by categorization status (none, manual, auto)")
	cmd.Flags().Int("limit", 50, "maximum number of transactions to list")

	return cmd
}

func transactionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and its category link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted transaction %s\n", args[0])
			return nil
		},
	}
}

func transactionsUncategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uncategorize <id>",
		Short: "Retract a transaction's category link",
		Long:  `Retract the category link and reset the transaction's status to none. The transaction itself is kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := newAssigner(store).Remove(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("Reset transaction %s to uncategorized\n", args[0])
			return nil
		},
	}
}
