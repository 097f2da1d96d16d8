package parse

import "github.com/shopspring/decimal"

// Direction of a trade.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Confidence is a coarse rating of how much of a candidate was recovered.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Candidate is a best-effort transaction recovered from slip text.
// Zero values mean the field was not found.
type Candidate struct {
	Direction     Direction        `json:"direction,omitempty"`
	Ticker        string           `json:"ticker,omitempty"`
	CompanyName   string           `json:"company_name,omitempty"`
	Quantity      int64            `json:"quantity,omitempty"`
	PricePerShare *decimal.Decimal `json:"price_per_share,omitempty"`
	Date          string           `json:"date,omitempty"` // YYYY-MM-DD
	Confidence    Confidence       `json:"confidence"`
	Detector      string           `json:"detector"`
	RawText       string           `json:"raw_text"`
}

// NeedsReview reports whether the candidate should not be trusted without a look.
func (c Candidate) NeedsReview() bool {
	return c.Confidence == Low
}

// Price returns the price per share, or zero when absent.
func (c Candidate) Price() decimal.Decimal {
	if c.PricePerShare == nil {
		return decimal.Zero
	}
	return *c.PricePerShare
}
