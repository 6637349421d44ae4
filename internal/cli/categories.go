package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/model"
)

var (
	showKeywords  bool
	exportLexicon bool
)

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories [category]",
	Short: "List incident categories with their urgency floor and department",
	Long: `Categories prints the active lexicon: every category with its default
urgency (the floor reconciliation never goes below), recommended department
and keywords.

Example:
  intake categories
  intake categories fire --keywords
  intake categories --export > lexicon.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesCmd.Flags().BoolVar(&showKeywords, "keywords", false, "show all keywords")
	categoriesCmd.Flags().BoolVar(&exportLexicon, "export", false, "print the lexicon as YAML (a starting point for engine.lexicon_path)")
}

func runCategories(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lex, err := lexicon.FromConfig(cfg.Engine)
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	out := cmd.OutOrStdout()

	if exportLexicon {
		data, err := yaml.Marshal(lexicon.Export(lex))
		if err != nil {
			return fmt.Errorf("marshal lexicon: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	entries := lex.Entries()
	if len(args) == 1 {
		c, ok := model.ParseCategory(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", lexicon.ErrUnknownCategory, args[0])
		}
		entries = []lexicon.Entry{lex.MustLookup(c)}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tFLOOR\tDEPARTMENT\tKEYWORDS")
	for _, e := range entries {
		keywords := e.Keywords
		more := ""
		if !showKeywords && len(keywords) > 5 {
			more = fmt.Sprintf(" (+%d)", len(keywords)-5)
			keywords = keywords[:5]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\n", e.Category, e.DefaultUrgency, e.Department, strings.Join(keywords, ", "), more)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nCategory set %s, lexicon language %s\n", model.CategorySetVersion, lex.Locale().Language)
	return nil
}
