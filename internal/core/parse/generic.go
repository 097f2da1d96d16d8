package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

var (
	buyWords  = []string{"kjøp", "kjopt", "bought"}
	sellWords = []string{"salg", "solgt", "sold"}

	buyMatcher  = newMatcher(buyWords)
	sellMatcher = newMatcher(sellWords)
)

func newMatcher(words []string) *ahocorasick.Matcher {
	dict := make([][]byte, len(words))
	for i, w := range words {
		dict[i] = []byte(w)
	}
	return ahocorasick.NewMatcher(dict)
}

// detectDirection checks buy words before sell words.
func detectDirection(text string) (Direction, bool) {
	lower := []byte(strings.ToLower(text))
	switch {
	case len(buyMatcher.MatchThreadSafe(lower)) > 0:
		return Buy, true
	case len(sellMatcher.MatchThreadSafe(lower)) > 0:
		return Sell, true
	default:
		return "", false
	}
}

var reBareTicker = regexp.MustCompile(`^[A-Z]{3,5}$`)

var tickerRules = []rule[string]{
	{match: re(`(?i:Verdipapir|Instrument|Aksje|Symbol|Ticker)[:\s]+([A-Z]{2,5})`), parse: firstGroup},
	{match: re(`\b([A-Z]{3,5})\s+(?i:aksje|stock|share)`), parse: firstGroup},
	{match: re(`\b([A-Z]{3,5})[ .]OSE`), parse: firstGroup},
	{match: bareTicker, parse: firstGroup},
}

// bareTicker returns the first whitespace-separated token of 3 to 5 capitals.
func bareTicker(text string) []string {
	for _, w := range strings.Fields(text) {
		if reBareTicker.MatchString(w) {
			return []string{w, w}
		}
	}
	return nil
}

func firstGroup(g []string) (string, bool) { return g[1], g[1] != "" }

const nameWindow = 50

var nameRules = []*regexp.Regexp{
	regexp.MustCompile(`([A-ZÆØÅ][a-zæøå]+(?:\s+[A-ZÆØÅ][a-zæøå]+)*)\s*$`),
	regexp.MustCompile(`^\s*([A-ZÆØÅ][a-zæøå]+(?:\s+[A-ZÆØÅ][a-zæøå]+)*)`),
}

// companyNear looks for a capitalized word run in the 50 characters on either
// side of the first occurrence of ticker.
func companyNear(text, ticker string) (string, bool) {
	idx := strings.Index(text, ticker)
	if idx < 0 {
		return "", false
	}
	before := []rune(text[:idx])
	if len(before) > nameWindow {
		before = before[len(before)-nameWindow:]
	}
	after := []rune(text[idx+len(ticker):])
	if len(after) > nameWindow {
		after = after[:nameWindow]
	}
	windows := []string{strings.TrimSpace(string(before)), strings.TrimSpace(string(after))}

	for _, r := range nameRules {
		for _, w := range windows {
			m := r.FindStringSubmatch(w)
			if m == nil {
				continue
			}
			if name := strings.TrimSpace(m[1]); utf8.RuneCountInString(name) > 3 {
				return name, true
			}
		}
	}
	return "", false
}

var quantityRules = []rule[int64]{
	{match: re(`(?i)(?:Antall|Quantity|Stykk|Aksjer|Shares)[:\s]+([0-9]+(?:[,\s][0-9]+)*)`), parse: quantityGroup},
	{match: re(`(?i)(?:Antall|Quantity)[:\s]+([0-9\s,]+)`), parse: quantityGroup},
	{match: re(`(?i)([0-9]+)\s+(?:stk|aksjer|shares)`), parse: quantityGroup},
	// "<Kjøp|Selg> <qty> <price>" as printed on compact slips.
	{match: re(`(?i)(?:kjøp|kjop|selg|salg)\s+([0-9]+)\s+[0-9]+[.,][0-9]+`), parse: quantityGroup},
}

func quantityGroup(g []string) (int64, bool) { return parseQuantity(strings.TrimSpace(g[1])) }

var priceRules = []rule[*decimal.Decimal]{
	{match: re(`(?i)(?:Kurs|Pris|Price|Rate)[:\s]+([0-9]+[.,][0-9]+)`), parse: priceGroup},
	{match: re(`(?i)(?:kr|NOK)[.\s]+([0-9]+[.,][0-9]+)`), parse: priceGroup},
	{match: re(`(?i)([0-9]+[.,][0-9]{2})\s*(?:kr|NOK)`), parse: priceGroup},
}

func priceGroup(g []string) (*decimal.Decimal, bool) { return parsePrice(g[1]) }

var dateRules = []rule[string]{
	{match: re(`(?i)(?:Dato|Date|Handelsdag)[:\s]+(\d{1,2})[./](\d{1,2})[./](\d{4})`), parse: dayFirstDate},
	{match: re(`(\d{1,2})[./](\d{1,2})[./](\d{4})`), parse: dayFirstDate},
	{match: re(`(\d{4})-(\d{1,2})-(\d{1,2})`), parse: func(g []string) (string, bool) { return isoDate(g[1], g[2], g[3]) }},
}

func dayFirstDate(g []string) (string, bool) { return isoDate(g[3], g[2], g[1]) }

func matchAny(string) bool { return true }

// extractGeneric runs every field rule list over the whole text.
func extractGeneric(text string) Candidate {
	var c Candidate
	if d, ok := detectDirection(text); ok {
		c.Direction = d
	}
	if t, ok := firstMatch(text, tickerRules); ok {
		c.Ticker = t
		if name, ok := companyNear(text, t); ok {
			c.CompanyName = name
		}
	}
	if q, ok := firstMatch(text, quantityRules); ok {
		c.Quantity = q
	}
	if p, ok := firstMatch(text, priceRules); ok {
		c.PricePerShare = p
	}
	if d, ok := firstMatch(text, dateRules); ok {
		c.Date = d
	}

	c.Confidence = Score(countPresent(
		c.Direction != "",
		c.Ticker != "",
		c.Quantity > 0,
		c.PricePerShare != nil,
		c.Date != "",
	), GenericThresholds)
	return c
}
