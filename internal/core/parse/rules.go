package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxQuantity = 1_000_000
)

var maxPrice = decimal.NewFromInt(1_000_000)

// rule is one pattern for a field. Only the first match of match is tried; if
// parse rejects it the next rule runs.
type rule[T any] struct {
	match func(text string) []string
	parse func(groups []string) (T, bool)
}

func firstMatch[T any](text string, rules []rule[T]) (T, bool) {
	for _, r := range rules {
		groups := r.match(text)
		if groups == nil {
			continue
		}
		if v, ok := r.parse(groups); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func re(expr string) func(string) []string {
	return regexp.MustCompile(expr).FindStringSubmatch
}

// parseQuantity strips grouping spaces and commas and enforces 0 < n < 1,000,000.
func parseQuantity(s string) (int64, bool) {
	s = strings.NewReplacer(" ", "", ",", "").Replace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 || n >= maxQuantity {
		return 0, false
	}
	return n, true
}

// parsePrice accepts a comma or dot decimal separator and enforces 0 < p < 1,000,000.
func parsePrice(s string) (*decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil || !d.IsPositive() || d.GreaterThanOrEqual(maxPrice) {
		return nil, false
	}
	return &d, true
}

// isoDate pads and validates a calendar date, returning YYYY-MM-DD.
func isoDate(year, month, day string) (string, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return "", false
	}
	s := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", false
	}
	return s, true
}
