package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/intake/internal/pipeline"
	"github.com/ppiankov/intake/internal/store"
)

var (
	recordsLimit int
	recordsMD    bool
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the record store",
	Long: `Inspect finalized records appended with --store. The store is
append-only; records cannot be changed or removed from the CLI.

The store path is taken from store.path (default ~/.intake/records.db).`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent records",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ctx := context.Background()
		records, err := st.List(ctx, recordsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No records stored")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRECEIVED\tCATEGORY\tURGENCY\tCONFIDENCE\tADDRESS")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
				rec.ID,
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				rec.Incident.Category,
				rec.Incident.Urgency,
				rec.Incident.ConfidenceScore,
				rec.Incident.Address,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		counts, err := st.CountByCategory(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, c := range counts {
			fmt.Fprintf(out, "  %-16s %d\n", c.Category, c.Count)
		}
		return nil
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		rec, err := st.Get(context.Background(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no record with id %s", args[0])
		}
		if err != nil {
			return err
		}

		renderer := pipeline.NewRenderer(false)
		if recordsMD {
			fmt.Fprint(cmd.OutOrStdout(), renderer.Markdown(rec))
			return nil
		}
		data, err := renderer.RecordJSON(rec)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)

	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 20, "maximum number of records (0 = all)")
	recordsShowCmd.Flags().BoolVar(&recordsMD, "md", false, "render as Markdown instead of JSON")
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return nil, fmt.Errorf("no record store at %s (classify with --store first)", cfg.Store.Path)
	}
	return store.Open(cfg.Store.Path)
}
