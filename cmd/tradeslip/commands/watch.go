package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/async"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

var watchInitialFlag bool

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Process slips as they appear in one or more directories",
		Long: `Watch directories (recursively) and process every new or rewritten supported
file. Directories default to TRADESLIP_WATCH_DIRS. Stop with Ctrl-C.`,
		RunE: runWatch,
	}
	cmd.Flags().BoolVar(&watchInitialFlag, "initial", false, "also process files already present")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dirs := args
	if len(dirs) == 0 {
		dirs = cfg.Watch.Dirs
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       dirs,
		InitialScan: watchInitialFlag,
		Debounce:    cfg.Watch.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		row, err := processPath(ctx, a.Processor, job.Path, a.MaxUploadBytes())
		if err != nil {
			pterm.Warning.Printfln("%s: %s", row.Source, row.Error)
			return err
		}
		if jsonFlag {
			return writeJSON(w, row)
		}
		pterm.Success.Printfln("%s: %s %s %s x %s (%s)", row.Source, row.Direction, firstNonEmpty(row.Ticker, row.CompanyName), row.Quantity, row.Price, row.Confidence)
		return nil
	}, logger,
		async.WithWorkers(cfg.Worker.Count),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.Timeout),
		async.WithMetrics(a.Metrics),
	)
	defer queue.Shutdown(context.Background())

	pterm.Info.Printfln("Watching %v (Ctrl-C to stop)", dirs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.Job{Path: path}); err != nil {
				logger.Warn("dropping watched file", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported error", "error", err)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "?"
}
