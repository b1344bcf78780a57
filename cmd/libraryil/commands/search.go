package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"libraryil/lib/export"
	"libraryil/lib/scrapers/agron"

	"github.com/spf13/cobra"
)

var (
	searchTitle  *string
	searchAuthor *string
	searchSeries *string
	searchMax    *int
)

func init() {
	searchTitle = searchCmd.Flags().String("title", "", "search by title")
	searchAuthor = searchCmd.Flags().String("author", "", "search by author")
	searchSeries = searchCmd.Flags().String("series", "", "search by series")
	searchMax = searchCmd.Flags().Int("max", 20, "maximum results to fetch per portal")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search (--title | --author | --series) <query>",
	Short: "Searches the catalogs of every portal and merges duplicate titles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if *searchTitle == "" && *searchAuthor == "" && *searchSeries == "" {
			return fmt.Errorf("one of --title, --author or --series is required")
		}

		agg, err := newAggregator()
		if err != nil {
			return err
		}
		defer agg.Close()

		outcome := agg.Search(cmd.Context(), agron.Query{
			Title:      *searchTitle,
			Author:     *searchAuthor,
			Series:     *searchSeries,
			MaxResults: *searchMax,
		})
		reportErrors(outcome.Errors)

		t := export.Table{
			Headers: []string{"Score", "Title", "Author", "Series", "#", "Libraries"},
		}
		for _, entry := range outcome.Entries {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(entry.Score),
				entry.Title,
				entry.Author,
				entry.Series,
				entry.SeriesNumber,
				strings.Join(entry.Portals(), ", "),
			})
		}
		if err := emit(t); err != nil {
			return err
		}

		for _, warning := range outcome.Warnings() {
			fmt.Fprintln(os.Stderr, warning)
		}
		return nil
	},
}
