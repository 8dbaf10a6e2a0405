package common

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token grammars shared by every strategy.
//
//	amount: ['-' ['$' [' ']] | '$' [' '] ['-']] D{1,3} (',' DDD)* '.' DD [' '] ['DR'|'CR']
//	date:   D{1,2} ('/'|'-') D{1,2} ('/'|'-') (DDDD|DD)
const (
	AmountPattern = `(?:(-)(?:\$ ?)?|(\$ ?)(-)?)?(\d{1,3}(?:,\d{3})*\.\d{2})`
	DatePattern   = `(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})`

	monthPattern = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?`
)

var (
	amountRegex      = regexp.MustCompile(AmountPattern + `(?: ?(DR|CR|Dr|Cr|dr|cr)\b)?`)
	amountFullRegex  = regexp.MustCompile(`^` + AmountPattern + `$`)
	dateRegex        = regexp.MustCompile(DatePattern)
	dateFullRegex    = regexp.MustCompile(`^` + DatePattern + `$`)
	textDateRegex    = regexp.MustCompile(`(?i)(\d{1,2})[\s/\-]+` + monthPattern + `,?[\s/\-]+(\d{4}|\d{2})`)
	textDateLead     = regexp.MustCompile(`(?i)^(\d{1,2})[\s/\-]+` + monthPattern + `,?[\s/\-]+(\d{4}|\d{2})`)
	numericDateLead  = regexp.MustCompile(`^` + DatePattern)
	nonNumericRegex  = regexp.MustCompile(`[^0-9.]`)
	months           = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// AmountToken is an amount-shaped substring of a single line.
type AmountToken struct {
	Raw   string
	Start int
	End   int
	Value decimal.Decimal // unsigned magnitude
	Sign  int             // +1, -1, or 0 when the token itself does not say
}

// Signed applies the token's own sign, treating an undetermined sign as positive.
func (a AmountToken) Signed() decimal.Decimal {
	if a.Sign < 0 {
		return a.Value.Neg()
	}
	return a.Value
}

// DateToken is a numeric date-shaped substring together with its ISO form.
type DateToken struct {
	Raw   string
	Start int
	End   int
	ISO   string
	Valid bool
}

// LeadingDateMatch is a date found at the very start of a line.
type LeadingDateMatch struct {
	Raw string
	ISO string
}

// CleanDecimal parses a string into a decimal.Decimal, removing non-numeric characters
func CleanDecimal(text string) (decimal.Decimal, error) {
	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	if cleanText == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ParseAmount converts a full amount token ("$ -12.00", "1,234.56") into a signed decimal.
func ParseAmount(s string) (decimal.Decimal, bool) {
	m := amountFullRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero, false
	}
	value, err := CleanDecimal(m[4])
	if err != nil {
		return decimal.Zero, false
	}
	if m[1] != "" || m[3] != "" {
		value = value.Neg()
	}
	return value, true
}

// IsAmount reports whether s is exactly one amount token.
func IsAmount(s string) bool {
	return amountFullRegex.MatchString(s)
}

// IsNumericDate reports whether s is exactly one numeric date token.
func IsNumericDate(s string) bool {
	return dateFullRegex.MatchString(s)
}

// FindAmounts returns every amount token in line, left to right. Matches glued
// to surrounding digits ("1234.56", "12.345") or to a second sign ("--1.00")
// are not amounts.
func FindAmounts(line string) []AmountToken {
	var tokens []AmountToken
	pos := 0
	for pos < len(line) {
		loc := amountRegex.FindStringSubmatchIndex(line[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if !amountBoundary(line, start, end) {
			pos = start + 1
			continue
		}
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return line[pos+loc[2*i] : pos+loc[2*i+1]]
		}
		value, err := CleanDecimal(group(4))
		if err == nil {
			tok := AmountToken{Raw: line[start:end], Start: start, End: end, Value: value}
			switch {
			case group(1) != "" || group(3) != "":
				tok.Sign = -1
			case strings.EqualFold(group(5), "DR"):
				tok.Sign = -1
			case strings.EqualFold(group(5), "CR"):
				tok.Sign = 1
			}
			tokens = append(tokens, tok)
		}
		pos = end
	}
	return tokens
}

func amountBoundary(line string, start, end int) bool {
	if start > 0 {
		switch c := line[start-1]; {
		case c >= '0' && c <= '9', c == ',', c == '.', c == '-', c == '$':
			return false
		}
	}
	if end < len(line) {
		if c := line[end]; c >= '0' && c <= '9' {
			return false
		}
		if line[end] == ',' && end+1 < len(line) && line[end+1] >= '0' && line[end+1] <= '9' {
			return false
		}
	}
	return true
}

// FindDates returns every numeric date-shaped token in line. Tokens that do not
// denote a real calendar date are returned with Valid == false so callers can
// reject the candidate instead of coercing it.
func FindDates(line string) []DateToken {
	var tokens []DateToken
	for _, loc := range dateRegex.FindAllStringSubmatchIndex(line, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isDigit(line[start-1]) || end < len(line) && isDigit(line[end]) {
			continue
		}
		iso, ok := NumericDate(line[loc[2]:loc[3]], line[loc[4]:loc[5]], line[loc[6]:loc[7]], false)
		tokens = append(tokens, DateToken{Raw: line[start:end], Start: start, End: end, ISO: iso, Valid: ok})
	}
	return tokens
}

// HasDate reports whether line contains at least one numeric date-shaped token.
func HasDate(line string) bool {
	return len(FindDates(line)) > 0
}

// NumericDate turns the three numeric components of a date token into ISO
// form. Month-first unless dayFirst is set or the first component cannot be a
// month while the second can. Two-digit years are prefixed with "20".
func NumericDate(first, second, year string, dayFirst bool) (string, bool) {
	a, err1 := strconv.Atoi(first)
	b, err2 := strconv.Atoi(second)
	if err1 != nil || err2 != nil {
		return "", false
	}
	month, day := a, b
	if dayFirst || (a > 12 && b <= 12) {
		month, day = b, a
	}
	return isoDate(expandYear(year), month, day)
}

// NormalizeDate converts a numeric ("02/04/09") or textual ("15 Feb 2009") date
// into YYYY-MM-DD. Dates that do not exist on the calendar are rejected.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := dateFullRegex.FindStringSubmatch(s); m != nil {
		return NumericDate(m[1], m[2], m[3], false)
	}
	if m := textDateLead.FindStringSubmatch(s); m != nil && len(m[0]) == len(s) {
		return textDate(m[1], m[2], m[3])
	}
	return "", false
}

// MatchLeadingDate recognises a numeric or textual date at the start of line.
// Numeric dates are read day-first when dayFirst is set.
func MatchLeadingDate(line string, dayFirst bool) (LeadingDateMatch, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if m := textDateLead.FindStringSubmatch(trimmed); m != nil {
		if iso, ok := textDate(m[1], m[2], m[3]); ok {
			return LeadingDateMatch{Raw: m[0], ISO: iso}, true
		}
		return LeadingDateMatch{}, false
	}
	if m := numericDateLead.FindStringSubmatch(trimmed); m != nil {
		if len(m[0]) < len(trimmed) && isDigit(trimmed[len(m[0])]) {
			return LeadingDateMatch{}, false
		}
		if iso, ok := NumericDate(m[1], m[2], m[3], dayFirst); ok {
			return LeadingDateMatch{Raw: m[0], ISO: iso}, true
		}
	}
	return LeadingDateMatch{}, false
}

// FindTextDate returns the first textual date ("4 Dec 2023") anywhere in line.
func FindTextDate(line string) (LeadingDateMatch, bool) {
	m := textDateRegex.FindStringSubmatch(line)
	if m == nil {
		return LeadingDateMatch{}, false
	}
	iso, ok := textDate(m[1], m[2], m[3])
	if !ok {
		return LeadingDateMatch{}, false
	}
	return LeadingDateMatch{Raw: m[0], ISO: iso}, true
}

func textDate(day, month, year string) (string, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	m, ok := months[strings.ToLower(month)[:3]]
	if !ok {
		return "", false
	}
	return isoDate(expandYear(year), int(m), d)
}

func expandYear(year string) int {
	if len(year) == 2 {
		year = "20" + year
	}
	y, _ := strconv.Atoi(year)
	return y
}

func isoDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
