package commands

import (
	"libraryil/lib/export"
	"libraryil/services/aggregator"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loansCmd)
}

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "Lists the currently checked out books across every account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := loginAggregator(cmd.Context())
		if err != nil {
			return err
		}
		defer agg.Close()

		result := agg.CheckedOutBooks(cmd.Context())
		reportErrors(result.Errors)

		t := export.Table{
			Headers: []string{"Library", "Title", "Media", "Checked Out", "Due", "Renewable"},
		}
		for _, book := range aggregator.SortedByDueDate(result) {
			t.Rows = append(t.Rows, []string{
				book.Library,
				book.Title,
				book.MediaType,
				formatDate(book.CheckoutDate),
				formatDate(book.DueDate),
				yesNo(book.CanRenew),
			})
		}
		return emit(t)
	},
}
