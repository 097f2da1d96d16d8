package export

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const sheet = "Slips"

var headers = []string{
	"Source",
	"Direction",
	"Ticker",
	"Company",
	"Quantity",
	"Price/Share",
	"Gross (NOK)",
	"Date",
	"Confidence",
	"Detector",
	"Needs Review",
	"Error",
}

// Service writes parsed slips as spreadsheets.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// XLSX returns a workbook with one row per slip.
func (s *Service) XLSX(ctx context.Context, rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{r.Source, r.Direction, r.Ticker, r.CompanyName, r.Quantity, r.Price, r.Gross, r.Date, r.Confidence, r.Detector, r.NeedsReview, r.Error}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+2)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // source
	_ = f.SetColWidth(sheet, "D", "D", 28) // company
	_ = f.SetColWidth(sheet, "E", "G", 14) // amounts
	_ = f.SetColWidth(sheet, "H", "H", 12) // date
	_ = f.SetColWidth(sheet, "L", "L", 60) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "xlsx write")
	}

	s.logger.Info("export.xlsx.ok", "rows", len(rows), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// CSV returns the rows as comma-separated values with a header line.
func (s *Service) CSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(&rows, &buf); err != nil {
		return nil, errors.Wrap(err, "csv write")
	}
	s.logger.Info("export.csv.ok", "rows", len(rows))
	return buf.Bytes(), nil
}

// WriteFile picks the format from path's extension (.xlsx or .csv).
func (s *Service) WriteFile(ctx context.Context, path string, rows []Row) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		data, err = s.XLSX(ctx, rows)
	case ".csv":
		data, err = s.CSV(rows)
	default:
		return errors.Newf("unsupported export format %q", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write export")
}
