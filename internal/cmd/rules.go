package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quotaguard/quotaguard/internal/core"
	"github.com/quotaguard/quotaguard/internal/output"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Administer rate limiter rules",
}

var rulesListFormat string

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(rulesListFormat)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		rules, err := db.ListRules(cmd.Context())
		if err != nil {
			return err
		}

		if len(rules) == 0 && format == output.FormatTable {
			fmt.Println("(no rules configured)")
			return nil
		}

		rendered, err := output.FormatRules(rules, format)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

var (
	rulesSetHourly  int
	rulesSetDaily   int
	rulesSetMonthly int
)

var rulesSetCmd = &cobra.Command{
	Use:   "set <path> <product>",
	Short: "Create or replace a rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		rule := core.Rule{
			Path:         args[0],
			ProductName:  args[1],
			HourlyLimit:  rulesSetHourly,
			DailyLimit:   rulesSetDaily,
			MonthlyLimit: rulesSetMonthly,
		}
		if err := db.UpsertRule(cmd.Context(), rule); err != nil {
			return err
		}

		fmt.Printf("rule stored: %s %s hourly=%d daily=%d monthly=%d\n",
			rule.Path, rule.ProductName, rule.HourlyLimit, rule.DailyLimit, rule.MonthlyLimit)
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <path> <product>",
	Short: "Remove a rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.DeleteRule(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("rule removed: %s %s\n", args[0], args[1])
		return nil
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a YAML file",
	Long: `Import rules from a YAML file holding a list of rule documents:

  - path: /v1/search
    product_name: acme
    hourly_limit: 100
    daily_limit: 1000
    monthly_limit: 10000

Existing rules for the same (path, product) pairs are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read rules file: %w", err)
		}

		var rules []core.Rule
		if err := yaml.Unmarshal(raw, &rules); err != nil {
			return fmt.Errorf("parse rules file: %w", err)
		}
		if len(rules) == 0 {
			return fmt.Errorf("no rules found in %s", args[0])
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		for _, rule := range rules {
			if err := db.UpsertRule(cmd.Context(), rule); err != nil {
				return fmt.Errorf("import rule %s %s: %w", rule.Path, rule.ProductName, err)
			}
		}

		fmt.Printf("imported %d rules\n", len(rules))
		return nil
	},
}

func init() {
	rulesListCmd.Flags().StringVar(&rulesListFormat, "output-format", string(output.FormatTable), "Output format: table|json")
	rulesSetCmd.Flags().IntVar(&rulesSetHourly, "hourly", 0, "Hourly request ceiling")
	rulesSetCmd.Flags().IntVar(&rulesSetDaily, "daily", 0, "Daily request ceiling")
	rulesSetCmd.Flags().IntVar(&rulesSetMonthly, "monthly", 0, "Monthly request ceiling")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rootCmd.AddCommand(rulesCmd)
}
