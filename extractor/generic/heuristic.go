package generic

import (
	"regexp"
	"slices"
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/shopspring/decimal"
)

var upperRun = regexp.MustCompile(`[A-Z]{2,}`)

// LineSignals are the three cues the line heuristic looks for.
type LineSignals struct {
	HasDate     bool
	HasAmount   bool
	HasUpperRun bool
}

// Signals inspects a single line.
func Signals(line string) LineSignals {
	_, textual := common.FindTextDate(line)
	return LineSignals{
		HasDate:     common.HasDate(line) || textual,
		HasAmount:   len(common.FindAmounts(line)) > 0,
		HasUpperRun: upperRun.MatchString(line),
	}
}

// LooksLikeTransaction requires a date, an amount and a run of capitals.
func LooksLikeTransaction(hasDate, hasAmount, hasUpperRun bool) bool {
	return hasDate && hasAmount && hasUpperRun
}

// LineHeuristic is the last tier of the legacy path. Every line carrying all
// three signals becomes a transaction, with the amount column and polarity
// chosen by the document type hint:
//
//	bank, none: last amount; token sign, then debit keywords
//	creditcard: last amount; purchases are outflows unless marked CR or '-' or a payment/refund
//	ledger:     debit and credit columns; net = credit - debit
func LineHeuristic(lines []string, env *Env, hint common.DocumentType) []common.Transaction {
	var txns []common.Transaction
	for i, line := range lines {
		s := Signals(line)
		if !LooksLikeTransaction(s.HasDate, s.HasAmount, s.HasUpperRun) {
			continue
		}
		date, dateStart, dateEnd, ok := firstDate(line)
		if !ok {
			env.reject("heuristic", i, "invalid_date")
			continue
		}
		amounts := common.FindAmounts(line)
		var kept []common.AmountToken
		for _, a := range amounts {
			if a.End <= dateStart || a.Start >= dateEnd {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			continue
		}

		value, used := resolveByHint(kept, line, hint)
		ranges := [][2]int{{dateStart, dateEnd}}
		for _, a := range used {
			ranges = append(ranges, [2]int{a.Start, a.End})
		}
		slices.SortFunc(ranges, func(a, b [2]int) int { return a[0] - b[0] })
		if tx, ok := env.build("heuristic", i, date, common.Excise(line, ranges...), value); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

func resolveByHint(amounts []common.AmountToken, line string, hint common.DocumentType) (decimal.Decimal, []common.AmountToken) {
	last := amounts[len(amounts)-1]
	switch hint {
	case common.DocumentCreditCard:
		lower := strings.ToLower(line)
		inflow := last.Sign > 0 || strings.Contains(last.Raw, "-")
		if inflow || strings.Contains(lower, "payment") || common.HasCreditHint(line) {
			return last.Value, amounts[len(amounts)-1:]
		}
		return last.Value.Neg(), amounts[len(amounts)-1:]
	case common.DocumentLedger:
		if len(amounts) >= 2 {
			debit, credit := amounts[len(amounts)-2], amounts[len(amounts)-1]
			return credit.Value.Sub(debit.Value), amounts[len(amounts)-2:]
		}
	}
	return signed(last, line), amounts[len(amounts)-1:]
}

// firstDate prefers a numeric date token and falls back to a textual one.
func firstDate(line string) (iso string, start, end int, ok bool) {
	if dates := common.FindDates(line); len(dates) > 0 {
		d := dates[0]
		return d.ISO, d.Start, d.End, d.Valid
	}
	if m, found := common.FindTextDate(line); found {
		start = strings.Index(line, m.Raw)
		return m.ISO, start, start + len(m.Raw), true
	}
	return "", 0, 0, false
}
