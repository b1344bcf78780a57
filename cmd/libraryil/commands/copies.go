package commands

import (
	"fmt"
	"sort"
	"strings"

	"libraryil/lib/export"
	"libraryil/services/aggregator"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(copiesCmd)
}

func parseTitleRef(arg string) (aggregator.TitleRef, error) {
	for _, sep := range []string{":", "/"} {
		if i := strings.Index(arg, sep); i > 0 && i < len(arg)-1 {
			return aggregator.TitleRef{Slug: arg[:i], TitleID: arg[i+1:]}, nil
		}
	}
	return aggregator.TitleRef{}, fmt.Errorf("expected <portal>:<titleID>, got %q", arg)
}

var copiesCmd = &cobra.Command{
	Use:   "copies <portal>:<titleID> [<portal>:<titleID>...]",
	Short: "Shows a title's details and physical copies across portals.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs := make([]aggregator.TitleRef, 0, len(args))
		for _, arg := range args {
			ref, err := parseTitleRef(arg)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}

		agg, err := newAggregator()
		if err != nil {
			return err
		}
		defer agg.Close()

		combined := agg.CombinedDetails(cmd.Context(), refs)
		reportErrors(combined.Errors)
		if len(combined.ByPortal) == 0 {
			return fmt.Errorf("no portal answered")
		}

		fmt.Printf("%s", combined.Title)
		if combined.Author != "" {
			fmt.Printf(" / %s", combined.Author)
		}
		fmt.Println()
		if combined.Series != "" {
			fmt.Printf("series: %s %s\n", combined.Series, combined.SeriesNumber)
		}
		fmt.Printf("%d copies across %d libraries\n", combined.TotalCopies(), len(combined.ByPortal))

		slugs := make([]string, 0, len(combined.ByPortal))
		for slug := range combined.ByPortal {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)

		t := export.Table{
			Headers: []string{"Library", "Barcode", "Location", "Status", "Loan Days", "Return Date"},
		}
		for _, slug := range slugs {
			details := combined.ByPortal[slug]
			for _, bc := range details.Copies {
				loanDays := ""
				if bc.LoanDays != nil {
					loanDays = fmt.Sprintf("%d", *bc.LoanDays)
				}
				t.Rows = append(t.Rows, []string{
					slug,
					bc.Barcode,
					bc.Location,
					bc.Status,
					loanDays,
					formatDate(bc.ReturnDate),
				})
			}
			if details.HoldCount != nil {
				fmt.Printf("%s: %d holds\n", slug, *details.HoldCount)
			}
		}
		return emit(t)
	},
}
