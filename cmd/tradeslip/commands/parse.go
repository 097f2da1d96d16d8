package commands

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/server"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text]",
		Short: "Parse slip text you already have (reads stdin when no text is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 && args[0] != "-" {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, "read stdin")
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.WithHint(errors.New("no text to parse"), "pass the text as an argument or pipe it on stdin")
	}

	if remoteFlag != "" {
		client, err := server.NewClient(remoteFlag)
		if err != nil {
			return err
		}
		defer client.Close()
		resp, err := client.ParseText(cmd.Context(), text)
		if err != nil {
			return err
		}
		return printCandidate(cmd.OutOrStdout(), resp.Candidate)
	}

	// Parsing is pure; no external tools or database needed.
	cand, _, err := core.NewProcessor(logger, nil).ParseText(text)
	if err != nil {
		return err
	}
	return printCandidate(cmd.OutOrStdout(), cand)
}
