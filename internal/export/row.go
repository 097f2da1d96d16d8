package export

import (
	"path/filepath"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
)

// Row is one exported slip. Empty cells mean the field was not recovered.
type Row struct {
	Source      string `csv:"source"`
	Direction   string `csv:"direction"`
	Ticker      string `csv:"ticker"`
	CompanyName string `csv:"company_name"`
	Quantity    string `csv:"quantity"`
	Price       string `csv:"price_per_share"`
	Gross       string `csv:"gross_amount"`
	Date        string `csv:"date"`
	Confidence  string `csv:"confidence"`
	Detector    string `csv:"detector"`
	NeedsReview bool   `csv:"needs_review"`
	Error       string `csv:"error"`
}

// RowFromCandidate flattens a parsed candidate. A non-nil err yields an error row.
func RowFromCandidate(source string, c parse.Candidate, err error) Row {
	row := Row{Source: filepath.Base(source)}
	if err != nil {
		row.Error = err.Error()
		row.NeedsReview = true
		return row
	}
	row.Direction = string(c.Direction)
	row.Ticker = c.Ticker
	row.CompanyName = c.CompanyName
	if c.Quantity > 0 {
		row.Quantity = strconv.FormatInt(c.Quantity, 10)
	}
	if c.PricePerShare != nil {
		row.Price = c.PricePerShare.String()
	}
	if gross, ok := GrossAmount(c); ok {
		row.Gross = gross.Display()
	}
	row.Date = c.Date
	row.Confidence = string(c.Confidence)
	row.Detector = c.Detector
	row.NeedsReview = c.NeedsReview()
	return row
}

// GrossAmount is quantity times price in NOK, rounded to øre.
func GrossAmount(c parse.Candidate) (*money.Money, bool) {
	if c.Quantity <= 0 || c.PricePerShare == nil {
		return nil, false
	}
	total := c.PricePerShare.Mul(decimal.NewFromInt(c.Quantity)).Round(2)
	return money.New(total.Shift(2).IntPart(), money.NOK), true
}
