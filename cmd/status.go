package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  "Display every migration with its status (applied or pending) against the version log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadBackendConfig(); err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")

		ctx, err := migration.NewExecutionContext(cfg, log)
		if err != nil {
			return err
		}
		defer ctx.Close()

		scanned, err := scanPlan(newScanner())
		if err != nil {
			return err
		}

		applied, err := ctx.Store.AppliedVersions()
		if err != nil {
			return fmt.Errorf("failed to get applied versions: %w", err)
		}

		appliedMap := make(map[string]schema.AppliedVersion, len(applied))
		for _, a := range applied {
			appliedMap[a.Version] = a
		}

		type statusEntry struct {
			planEntry
			Status    string `json:"status"`
			AppliedAt string `json:"applied_at"`
			AppliedBy string `json:"applied_by"`
		}

		resolver := migration.NewResolver(scanned)

		var entries []statusEntry
		appliedCount := 0
		pendingCount := 0

		for _, mig := range resolver.Ordered() {
			entry := statusEntry{planEntry: newPlanEntry(mig), AppliedAt: "-", AppliedBy: "-"}
			if a, exists := appliedMap[mig.Version()]; exists {
				entry.Status = "Applied"
				entry.AppliedAt = a.AppliedAt.Format("2006-01-02 15:04:05")
				entry.AppliedBy = a.AppliedBy
				appliedCount++
			} else {
				entry.Status = "Pending"
				pendingCount++
			}
			entries = append(entries, entry)
		}

		missing := resolver.MissingFiles(applied)
		latest, ok := schema.LatestApplied(applied)
		if !ok {
			latest = "none"
		}

		if format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Migrations    []statusEntry `json:"migrations"`
				Applied       int           `json:"applied"`
				Pending       int           `json:"pending"`
				LatestApplied string        `json:"latest_applied"`
				MissingFiles  []string      `json:"missing_files,omitempty"`
			}{entries, appliedCount, pendingCount, latest, missing})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tCLASS\tSTATUS\tAPPLIED AT\tAPPLIED BY")
		fmt.Fprintln(w, "-------\t-----\t------\t----------\t----------")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Version, e.ClassName, e.Status, e.AppliedAt, e.AppliedBy)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d | Applied: %d | Pending: %d | Latest applied: %s\n",
			len(entries), appliedCount, pendingCount, latest)

		for _, m := range missing {
			log.Warn().Msg(m)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("format", "table", "output format (table, json)")
}
