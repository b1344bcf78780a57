package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"libraryil/lib/configutil"
	"libraryil/lib/export"
	"libraryil/lib/telemetry"
	"libraryil/services/aggregator"

	"github.com/spf13/cobra"
)

type accountConfig struct {
	Slug     string `json:"slug"`
	Username string `json:"username"`
	Password string `json:"password"`
	Label    string `json:"label"`
}

type Config struct {
	Accounts []accountConfig `json:"accounts"`
}

var (
	configPath string
	libraries  []string
	formatName string
	outputPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "libraryil",
	Short: "libraryil aggregates loans, history and catalog search across library.org.il portals.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "accounts.json5", "path to the account config")
	rootCmd.PersistentFlags().StringSliceVar(&libraries, "libraries", nil, "portal slugs to query instead of the configured accounts (public operations only)")
	rootCmd.PersistentFlags().StringVar(&formatName, "format", "table", "output format: table, csv or markdown")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", "", "write output to this file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newAggregator builds the portal set from --libraries when given,
// otherwise from the account config file.
func newAggregator() (*aggregator.Aggregator, error) {
	if len(libraries) > 0 {
		return aggregator.FromSlugs(libraries), nil
	}

	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured in %s", configPath)
	}

	accounts := make([]aggregator.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, aggregator.Account{
			Slug:     a.Slug,
			Username: a.Username,
			Password: a.Password,
			Label:    a.Label,
		})
	}
	return aggregator.New(accounts), nil
}

// loginAggregator builds the aggregator and logs every credentialed
// account in. Failing accounts are reported but do not abort unless
// none succeed.
func loginAggregator(ctx context.Context) (*aggregator.Aggregator, error) {
	agg, err := newAggregator()
	if err != nil {
		return nil, err
	}

	errs := agg.LoginAll(ctx)
	for id, msg := range errs {
		slog.Warn("login failed", "account", id, "err", msg)
	}

	credentialed := 0
	for _, account := range agg.Accounts() {
		if account.Username != "" {
			credentialed++
		}
	}
	if credentialed == 0 {
		agg.Close()
		return nil, fmt.Errorf("no credentialed accounts, this command needs logins")
	}
	if len(errs) == credentialed {
		agg.Close()
		return nil, fmt.Errorf("every account failed to login")
	}
	return agg, nil
}

func reportErrors(errs map[string]string) {
	for id, msg := range errs {
		slog.Warn("portal failed", "portal", id, "err", msg)
	}
}

func emit(t export.Table) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	content, err := export.Render(t, format)
	if err != nil {
		return err
	}
	return export.Write(outputPath, content)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2/1/2006")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
