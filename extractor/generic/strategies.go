package generic

import (
	"regexp"
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/shopspring/decimal"
)

const (
	// pairing window for NearestAmount, in lines
	nearestWindow = 3
	// NearestCap bounds the output of the last-resort tier.
	NearestCap = 100
	// lines shorter than this never start or finish a multi-line pair
	minPairLineLength = 4
)

var strictLine = regexp.MustCompile(`^` + common.DatePattern + `\s+(.+?)\s+` + common.AmountPattern + `(?: ?(DR|CR|Dr|Cr))?$`)

// signed resolves an amount's polarity: the token's own sign or DR/CR suffix
// first, then debit keywords in context, otherwise positive.
func signed(tok common.AmountToken, context string) decimal.Decimal {
	switch {
	case tok.Sign < 0:
		return tok.Value.Neg()
	case tok.Sign > 0:
		return tok.Value
	case common.HasDebitHint(context):
		return tok.Value.Neg()
	}
	return tok.Value
}

// StrictSingleLine accepts only lines shaped exactly "DATE DESCRIPTION AMOUNT".
func StrictSingleLine(lines []string, env *Env) []common.Transaction {
	var txns []common.Transaction
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		m := strictLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, ok := common.NumericDate(m[1], m[2], m[3], false)
		if !ok {
			env.reject("strict", i, "invalid_date")
			continue
		}
		value, err := common.CleanDecimal(m[8])
		if err != nil {
			env.reject("strict", i, "bad_amount")
			continue
		}
		tok := common.AmountToken{Raw: m[0], Value: value}
		switch {
		case m[5] != "" || m[7] != "" || strings.EqualFold(m[9], "DR"):
			tok.Sign = -1
		case strings.EqualFold(m[9], "CR"):
			tok.Sign = 1
		}
		if tx, ok := env.build("strict", i, date, m[4], signed(tok, line)); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// FlexibleSingleLine accepts any line holding a date token and an amount token
// anywhere. The description is what is left once both are cut out.
func FlexibleSingleLine(lines []string, env *Env) []common.Transaction {
	var txns []common.Transaction
	for i, line := range lines {
		dates := common.FindDates(line)
		amounts := common.FindAmounts(line)
		if len(dates) == 0 || len(amounts) == 0 {
			continue
		}
		date := dates[0]
		if !date.Valid {
			env.reject("flexible", i, "invalid_date")
			continue
		}
		amount := amounts[len(amounts)-1]
		desc := common.Excise(line, ordered(date.Start, date.End, amount.Start, amount.End)...)
		if tx, ok := env.build("flexible", i, date.ISO, desc, signed(amount, line)); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// MultiLinePairs treats a dated line immediately followed by an amount line as
// one transaction. A consumed pair is skipped as a unit.
func MultiLinePairs(lines []string, env *Env) []common.Transaction {
	var txns []common.Transaction
	for i := 0; i+1 < len(lines); i++ {
		first, second := strings.TrimSpace(lines[i]), strings.TrimSpace(lines[i+1])
		if len(first) < minPairLineLength || len(second) < minPairLineLength {
			continue
		}
		dates := common.FindDates(first)
		if len(dates) == 0 || len(common.FindAmounts(first)) > 0 {
			continue
		}
		amounts := common.FindAmounts(second)
		if len(amounts) == 0 || common.HasDate(second) {
			continue
		}
		date, amount := dates[0], amounts[len(amounts)-1]
		if !date.Valid {
			env.reject("multi_line", i, "invalid_date")
			continue
		}

		desc := common.CleanDescription(common.Excise(first, [2]int{date.Start, date.End}))
		if !common.ValidDescription(desc) {
			desc = common.Excise(second, [2]int{amount.Start, amount.End})
		}
		if tx, ok := env.build("multi_line", i, date.ISO, desc, signed(amount, first+" "+second)); ok {
			txns = append(txns, tx)
			i++
		}
	}
	return txns
}

// NearestAmount pairs every dated line with the closest amount line at most
// three lines away. Ties go to the earlier amount line. Output is capped at
// NearestCap transactions.
func NearestAmount(lines []string, env *Env) []common.Transaction {
	// amountAt[i] is the last amount token on line i, nil when there is none
	amountAt := make([]*common.AmountToken, len(lines))
	found := false
	for i, line := range lines {
		if amounts := common.FindAmounts(line); len(amounts) > 0 {
			amountAt[i] = &amounts[len(amounts)-1]
			found = true
		}
	}
	if !found {
		return nil
	}

	var txns []common.Transaction
	for i, line := range lines {
		if len(txns) >= NearestCap {
			env.Log.WithField("cap", NearestCap).Debug("nearest-amount cap reached")
			break
		}
		dates := common.FindDates(line)
		if len(dates) == 0 {
			continue
		}
		best, bestDist := -1, nearestWindow+1
		for j := max(0, i-nearestWindow); j <= min(len(lines)-1, i+nearestWindow); j++ {
			if amountAt[j] != nil && abs(j-i) < bestDist {
				best, bestDist = j, abs(j-i)
			}
		}
		if best < 0 {
			continue
		}
		date := dates[0]
		if !date.Valid {
			env.reject("nearest", i, "invalid_date")
			continue
		}
		tok := *amountAt[best]
		ranges := [][2]int{{date.Start, date.End}}
		if best == i {
			ranges = ordered(date.Start, date.End, tok.Start, tok.End)
		}
		desc := common.Excise(line, ranges...)
		if tx, ok := env.build("nearest", i, date.ISO, desc, signed(tok, line+" "+lines[best])); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

func ordered(aStart, aEnd, bStart, bEnd int) [][2]int {
	if bStart < aStart {
		return [][2]int{{bStart, bEnd}, {aStart, aEnd}}
	}
	return [][2]int{{aStart, aEnd}, {bStart, bEnd}}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
