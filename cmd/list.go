package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/migration"
)

type planEntry struct {
	Version   string `json:"version"`
	Deltaset  string `json:"deltaset"`
	Phase     string `json:"phase"`
	ClassName string `json:"class_name"`
	File      string `json:"file"`
}

func newPlanEntry(mig *migration.Migration) planEntry {
	return planEntry{
		Version:   mig.Version(),
		Deltaset:  mig.Key.Deltaset,
		Phase:     string(mig.Key.Phase),
		ClassName: mig.ClassName,
		File:      mig.FilePath,
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List migrations in execution order",
	Long:  "Print every migration file ordered by deltaset, then phase, then file version. No database is needed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		reverse, _ := cmd.Flags().GetBool("reverse")
		format, _ := cmd.Flags().GetString("format")

		scanned, err := scanPlan(newScanner())
		if err != nil {
			return err
		}

		resolver := migration.NewResolver(scanned)
		ordered := resolver.Ordered()
		if reverse {
			ordered = resolver.Reversed()
		}

		entries := make([]planEntry, 0, len(ordered))
		for _, mig := range ordered {
			entries = append(entries, newPlanEntry(mig))
		}

		if format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tCLASS\tFILE")
		fmt.Fprintln(w, "-------\t-----\t----")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Version, e.ClassName, e.File)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("reverse", false, "list in descending order")
	listCmd.Flags().String("format", "table", "output format (table, json)")
}
