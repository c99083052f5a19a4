package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finsort/finsort/internal/engine"
	"github.com/finsort/finsort/internal/importer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a bank statement CSV export",
		Long: `Import transactions from a bank statement CSV export. Lines already
imported are detected by content hash and skipped, so re-importing a
statement is safe. Unless --no-auto-categorize is given, each new
transaction gets a single best-match rule lookup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer func() { _ = file.Close() }()

			txns, err := importer.ParseStatement(file)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Println("Statement contains no transactions.")
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			insertedIDs, err := store.SaveTransactions(ctx, txns)
			if err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}
			inserted := make(map[string]struct{}, len(insertedIDs))
			for _, id := range insertedIDs {
				inserted[id] = struct{}{}
			}

			noAuto, _ := cmd.Flags().GetBool("no-auto-categorize")
			autoApply := viper.GetBool("import.auto_categorize") && !noAuto

			categorized := 0
			if autoApply {
				auto := engine.NewAutoCategorizer(store)
				for i := range txns {
					if _, ok := inserted[txns[i].ID]; !ok {
						continue
					}
					applied, catErr := auto.CategorizeTransaction(ctx, &txns[i])
					if catErr != nil {
						slog.Warn("auto-categorization failed for imported transaction",
							"transaction_id", txns[i].ID,
							"error", catErr)
						continue
					}
					if applied {
						categorized++
					}
				}
			}

			fmt.Printf("Imported %d transactions", len(insertedIDs))
			if skipped := len(txns) - len(insertedIDs); skipped > 0 {
				fmt.Printf(" (%d already imported)", skipped)
			}
			if autoApply {
				fmt.Printf(", auto-categorized %d", categorized)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Bool("no-auto-categorize", false, "skip the best-match lookup for new transactions")

	return cmd
}
