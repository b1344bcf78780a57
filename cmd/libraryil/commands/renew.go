package commands

import (
	"libraryil/lib/export"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(renewCmd)
}

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Renews every renewable loan across every account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := loginAggregator(cmd.Context())
		if err != nil {
			return err
		}
		defer agg.Close()

		result := agg.RenewAll(cmd.Context())
		reportErrors(result.Errors)

		t := export.Table{
			Headers: []string{"Library", "Title", "Renewed", "New Due Date", "Message"},
		}
		for _, renewal := range result.Flatten() {
			t.Rows = append(t.Rows, []string{
				renewal.Book.Library,
				renewal.Book.Title,
				yesNo(renewal.Success),
				formatDate(renewal.NewDueDate),
				renewal.Message,
			})
		}
		return emit(t)
	},
}
