package commands

import (
	"libraryil/lib/export"
	"libraryil/services/aggregator"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists previously borrowed books across every account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := loginAggregator(cmd.Context())
		if err != nil {
			return err
		}
		defer agg.Close()

		result := agg.CheckoutHistory(cmd.Context())
		reportErrors(result.Errors)

		t := export.Table{
			Headers: []string{"Library", "Title", "Author", "Media", "Checked Out", "Returned"},
		}
		for _, item := range aggregator.SortedByReturnDate(result) {
			t.Rows = append(t.Rows, []string{
				item.Library,
				item.Title,
				item.Author,
				item.MediaType,
				formatDate(item.CheckoutDate),
				formatDate(item.ReturnDate),
			})
		}
		return emit(t)
	},
}
