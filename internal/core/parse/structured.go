package parse

import (
	"regexp"
	"strings"
)

// Columnar order-history rows read left to right as
// "<Company Name> [...] [oO0] [nn%] <Kjøp|Selg> <qty> <price> ... <DD.MM.YYYY>".
var (
	reOrderKeyword = regexp.MustCompile(`(?i)\b(Kjop|Kjøp|Selg|Salg)\b`)
	reOrderName    = regexp.MustCompile(`([A-ZÆØÅ][a-zæøå]+(?:\s+[A-ZÆØÅ][a-zæøå]+)*)\s*\.{0,3}\s*[oO0]*\s*\d{0,3}%?\s*$`)
	reOrderNumbers = regexp.MustCompile(`\b(\d+)\s+(\d+)[,.](\d+)`)
	reOrderDate    = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
)

type orderRow struct {
	keyword string
	before  string
	after   string
	name    string
}

// locateOrderRow finds the action keyword and the company name run in front of it.
func locateOrderRow(text string) (orderRow, bool) {
	loc := reOrderKeyword.FindStringSubmatchIndex(text)
	if loc == nil {
		return orderRow{}, false
	}
	row := orderRow{
		keyword: text[loc[2]:loc[3]],
		before:  text[:loc[0]],
		after:   text[loc[1]:],
	}
	m := reOrderName.FindStringSubmatch(row.before)
	if m == nil {
		return orderRow{}, false
	}
	row.name = strings.TrimSpace(m[1])
	return row, row.name != ""
}

func matchColumnar(text string) bool {
	_, ok := locateOrderRow(text)
	return ok
}

func extractColumnar(text string) Candidate {
	row, ok := locateOrderRow(text)
	if !ok {
		return Candidate{Confidence: Low}
	}

	c := Candidate{CompanyName: row.name, Direction: Sell}
	switch strings.ToLower(row.keyword) {
	case "kjop", "kjøp":
		c.Direction = Buy
	}

	if m := reOrderNumbers.FindStringSubmatch(row.after); m != nil {
		if q, ok := parseQuantity(m[1]); ok {
			c.Quantity = q
		}
		if p, ok := parsePrice(m[2] + "." + m[3]); ok {
			c.PricePerShare = p
		}
	}

	if m := reOrderDate.FindStringSubmatch(text); m != nil {
		if d, ok := isoDate(m[3], m[2], m[1]); ok {
			c.Date = d
		}
	}

	c.Confidence = Score(countPresent(
		c.Direction != "",
		c.CompanyName != "",
		c.Quantity > 0,
		c.PricePerShare != nil,
		c.Date != "",
	), StructuredThresholds)
	return c
}

