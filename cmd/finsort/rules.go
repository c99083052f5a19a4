package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/pattern"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage similarity pattern rules",
		Long: `Manage the user-authored similarity patterns that map transaction
descriptions to categories. Each rule has a pattern type (exact, contains,
starts_with, regex), a pattern value, a target category or parent category,
and a confidence score used to break ties between matching rules.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println("No rules found. Use 'finsort rules add' to create one.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			_, _ = fmt.Fprintln(w, "ID\tTYPE\tPATTERN\tCATEGORY\tPARENT\tCONFIDENCE\tUSE COUNT")
			for _, rule := range rules {
				category, parent := "-", "-"
				if rule.CategoryID != nil {
					category = strconv.FormatInt(*rule.CategoryID, 10)
				}
				if rule.ParentCategoryID != nil {
					parent = strconv.FormatInt(*rule.ParentCategoryID, 10)
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\t%d\n",
					rule.ID, rule.PatternType, rule.PatternValue,
					category, parent, rule.Confidence, rule.UseCount)
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Add a new rule",
		Long: `Add a similarity pattern rule. The pattern type defaults to contains;
one of --category or --parent is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			patternType, _ := cmd.Flags().GetString("type")
			confidence, _ := cmd.Flags().GetFloat64("confidence")

			rule := &model.Rule{
				PatternType:  model.PatternType(patternType),
				PatternValue: args[0],
				Confidence:   confidence,
			}
			if categoryID, _ := cmd.Flags().GetInt64("category"); categoryID > 0 {
				rule.CategoryID = &categoryID
			}
			if parentID, _ := cmd.Flags().GetInt64("parent"); parentID > 0 {
				rule.ParentCategoryID = &parentID
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Printf("Created rule %d (%s %q)\n", rule.ID, rule.PatternType, rule.PatternValue)
			return nil
		},
	}

	cmd.Flags().String("type", string(model.PatternContains), "pattern type (exact, contains, starts_with, regex)")
	cmd.Flags().Float64("confidence", 1.0, "confidence score for tie-breaking")
	cmd.Flags().Int64("category", 0, "target category id")
	cmd.Flags().Int64("parent", 0, "target parent category id")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return err
			}

			fmt.Printf("Deleted rule %d\n", id)
			return nil
		},
	}
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Test the rule library against a sample description",
		Long:  `Run the matcher against a sample description without changing anything.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			match, err := pattern.NewMatcher(store).FindBestMatch(ctx, args[0], rules)
			if err != nil {
				return err
			}
			if match == nil {
				fmt.Println("No rule matches.")
				return nil
			}

			category, err := store.GetCategoryByID(ctx, match.CategoryID)
			if err != nil {
				return err
			}
			fmt.Printf("Rule %d (%s %q, confidence %.2f) -> category %q\n",
				match.Rule.ID, match.Rule.PatternType, match.Rule.PatternValue,
				match.Rule.Confidence, category.Name)
			return nil
		},
	}
}
