package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
	"github.com/joseph-ayodele/tradeslip/internal/export"
	"github.com/joseph-ayodele/tradeslip/internal/server"
)

// progressBar renders extraction progress on stderr. The zero value is silent.
type progressBar struct {
	bar  *pterm.ProgressbarPrinter
	last int
}

func newProgressBar(title string) *progressBar {
	if jsonFlag {
		return &progressBar{}
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle(title).
		WithRemoveWhenDone(true).
		WithWriter(os.Stderr).
		Start()
	if err != nil {
		return &progressBar{}
	}
	return &progressBar{bar: bar}
}

func (p *progressBar) update(ev extract.Progress) {
	if p.bar == nil || ev.Percent <= p.last {
		return
	}
	p.bar.UpdateTitle(ev.Stage)
	p.bar.Add(ev.Percent - p.last)
	p.last = ev.Percent
}

func (p *progressBar) stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
	}
}

// withUserHint attaches the end-user message of an extraction failure.
func withUserHint(err error) error {
	var e *extract.Error
	if errors.As(err, &e) && e.Message != "" {
		return errors.WithHint(err, e.Message)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printScanResult(w io.Writer, res *server.ScanResult) error {
	if jsonFlag {
		return writeJSON(w, res)
	}
	if err := printCandidate(w, res.Candidate); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nmethod=%s pages=%d duration=%dms\n", res.Method, res.Pages, res.DurationMS)
	return err
}

func printCandidate(w io.Writer, c parse.Candidate) error {
	if jsonFlag {
		return writeJSON(w, c)
	}
	row := export.RowFromCandidate("", c, nil)
	data := pterm.TableData{
		{"Field", "Value"},
		{"Direction", row.Direction},
		{"Ticker", row.Ticker},
		{"Company", row.CompanyName},
		{"Quantity", row.Quantity},
		{"Price/Share", row.Price},
		{"Gross", row.Gross},
		{"Date", row.Date},
		{"Confidence", row.Confidence},
		{"Detector", row.Detector},
		{"Needs review", strconv.FormatBool(row.NeedsReview)},
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}
