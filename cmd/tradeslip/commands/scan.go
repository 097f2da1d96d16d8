package commands

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/ingest"
	"github.com/joseph-ayodele/tradeslip/internal/server"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "Extract and parse one trade slip",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := ingest.LoadDocument(args[0], cfg.Server.MaxUploadMB<<20)
	if err != nil {
		return err
	}

	bar := newProgressBar("reading " + doc.Filename)
	var res *server.ScanResult
	if remoteFlag != "" {
		client, err := server.NewClient(remoteFlag)
		if err != nil {
			bar.stop()
			return err
		}
		defer client.Close()
		res, err = client.ScanDocument(ctx, &server.ScanDocumentRequest{
			Filename:  doc.Filename,
			MediaType: doc.MediaType,
			Data:      doc.Data,
		}, bar.update)
		bar.stop()
		if err != nil {
			return err
		}
	} else {
		a, err := newApp(ctx)
		if err != nil {
			bar.stop()
			return err
		}
		defer a.Close()
		out, err := a.Processor.Process(ctx, doc, bar.update)
		bar.stop()
		if err != nil {
			return withUserHint(err)
		}
		res = server.NewScanResult(out)
	}
	return printScanResult(cmd.OutOrStdout(), res)
}
