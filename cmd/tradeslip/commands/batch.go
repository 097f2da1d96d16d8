package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/async"
	"github.com/joseph-ayodele/tradeslip/internal/export"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

var (
	batchOutFlag        string
	batchSkipHiddenFlag bool
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every slip in a directory and export the results",
		Long: `Walk a directory, process every supported file (pdf, jpg, jpeg, png, heic)
and write one row per file to an XLSX or CSV spreadsheet. Failed files are
exported too, with the error and needs_review set.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}
	cmd.Flags().StringVarP(&batchOutFlag, "out", "o", "", "output file, .xlsx or .csv (default <dir>/../slips.xlsx)")
	cmd.Flags().BoolVar(&batchSkipHiddenFlag, "skip-hidden", true, "skip dot files and directories")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]
	out := batchOutFlag
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(dir)), "slips.xlsx")
	}

	paths, stats, err := ingest.ScanDirectory(ctx, dir, batchSkipHiddenFlag)
	if err != nil {
		return err
	}
	logger.Info("directory scanned", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	if len(paths) == 0 {
		return errors.WithHintf(errors.Newf("no supported files in %s", dir), "supported extensions: pdf, jpg, jpeg, png, heic, heif")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar, _ := pterm.DefaultProgressbar.WithTotal(len(paths)).WithTitle("processing slips").Start()
	// Workers finish in any order; rows keep the directory order.
	index := make(map[string]int, len(paths))
	for i, p := range paths {
		index[p] = i
	}
	var (
		mu       sync.Mutex
		rows     = make([]export.Row, len(paths))
		failures int
	)
	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		row, err := processPath(ctx, a.Processor, job.Path, a.MaxUploadBytes())
		mu.Lock()
		rows[index[job.Path]] = row
		if err != nil {
			failures++
		}
		mu.Unlock()
		if bar != nil {
			bar.Increment()
		}
		return err
	}, logger,
		async.WithWorkers(cfg.Worker.Count),
		async.WithQueueSize(len(paths)),
		async.WithProcessTimeout(cfg.Worker.Timeout),
		async.WithMetrics(a.Metrics),
	)
	for _, p := range paths {
		if err := queue.Enqueue(ctx, async.Job{Path: p}); err != nil {
			queue.Shutdown(context.Background())
			return err
		}
	}
	queue.Shutdown(context.Background())
	if bar != nil {
		_, _ = bar.Stop()
	}

	if err := export.NewService(logger).WriteFile(ctx, out, rows); err != nil {
		return err
	}

	pterm.Success.Printfln("Batch processing complete: %d files, %d failed", len(rows), failures)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
