// Package commands implements the tradeslip CLI.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/app"
	"github.com/joseph-ayodele/tradeslip/internal/common"
)

var (
	cfg    *common.Config
	logger *slog.Logger

	auditFlag    bool
	logLevelFlag string
	remoteFlag   string
	jsonFlag     bool
)

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tradeslip",
		Short: "Read trade confirmation slips into structured transactions",
		Long: `tradeslip reads photographed or scanned trade confirmations (JPG, PNG, HEIC or PDF)
and proposes the transaction they describe: direction, instrument, quantity,
price per share and trade date, with a confidence rating.

Examples:
  tradeslip scan slip.pdf                  # Extract and parse one slip
  tradeslip parse "AAPL Kjøp 10 150,50"    # Parse text you already have
  tradeslip batch ./slips --out slips.xlsx # Process a folder into a spreadsheet
  tradeslip watch ./inbox                  # Process new files as they arrive
  tradeslip db migrate                     # Create the audit tables`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if logLevelFlag != "" {
				c.Log.Level = logLevelFlag
			}
			cfg = c
			// Logs go to stderr so results on stdout stay pipeable.
			logger = common.NewLogger(os.Stderr, cfg.Log)
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&auditFlag, "audit", false, "record every run in the extract_jobs table")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (default from TRADESLIP_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&remoteFlag, "remote", "", "use a running tradeslipd at this gRPC address instead of local tools")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print results as JSON")

	root.AddCommand(newScanCmd(), newParseCmd(), newBatchCmd(), newWatchCmd(), newDBCmd())
	return root
}

// Execute runs the CLI until completion or an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
	}
	return err
}

func newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{Audit: auditFlag})
}
