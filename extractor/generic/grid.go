package generic

import (
	"regexp"
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
)

const (
	headerSearchLines = 20
	layoutSampleLines = 50
)

var (
	headerDate        = regexp.MustCompile(`(?i)\bdate\b`)
	headerDescription = regexp.MustCompile(`(?i)\b(?:description|transaction|memo|details|particulars)\b`)
	headerAmount      = regexp.MustCompile(`(?i)\b(?:amount|debit|credit|balance)\b`)
	summaryLine       = regexp.MustCompile(`(?i)\b(?:total|balance|summary|ending|beginning|deposits|withdrawals)\b`)
)

// ColumnLayout holds the character offsets at which the date, description and
// amount columns start.
type ColumnLayout struct {
	Date        int
	Description int
	Amount      int
	FromHeader  bool
}

// DetectHeader looks for a column header in the first lines of the text and
// returns its layout together with the header's line index.
func DetectHeader(lines []string) (ColumnLayout, int, bool) {
	for i, line := range lines {
		if i >= headerSearchLines {
			break
		}
		d := headerDate.FindStringIndex(line)
		if d == nil {
			continue
		}
		desc := headerDescription.FindStringIndex(line[d[1]:])
		if desc == nil {
			continue
		}
		descStart := d[1] + desc[0]
		amt := headerAmount.FindStringIndex(line[descStart:])
		if amt == nil {
			continue
		}
		return ColumnLayout{
			Date:        d[0],
			Description: descStart,
			Amount:      descStart + amt[0],
			FromHeader:  true,
		}, i, true
	}
	return ColumnLayout{}, -1, false
}

// InferLayout averages where date and amount tokens sit across lines that hold
// both. The description column starts where the average date token ends.
func InferLayout(lines []string) (ColumnLayout, bool) {
	var n, dateStart, dateEnd, amountStart int
	for _, line := range lines {
		if n >= layoutSampleLines {
			break
		}
		dates, amounts := common.FindDates(line), common.FindAmounts(line)
		if len(dates) == 0 || len(amounts) == 0 {
			continue
		}
		last := amounts[len(amounts)-1]
		if last.Start <= dates[0].End {
			continue
		}
		dateStart += dates[0].Start
		dateEnd += dates[0].End
		amountStart += last.Start
		n++
	}
	if n == 0 {
		return ColumnLayout{}, false
	}
	layout := ColumnLayout{Date: dateStart / n, Description: dateEnd / n, Amount: amountStart / n}
	return layout, layout.Date < layout.Description && layout.Description < layout.Amount
}

// ParseGrid slices every body line at the column boundaries and matches each
// slice on its own. Lines whose date or amount slice does not match are skipped.
// The body ends at the first undated summary line after the first dated row.
func ParseGrid(lines []string, env *Env) []common.Transaction {
	layout, header, ok := DetectHeader(lines)
	if !ok {
		if layout, ok = InferLayout(lines); !ok {
			return nil
		}
	}
	env.Log.WithField("layout", layout).Debug("grid layout")

	var txns []common.Transaction
	started := false
	for i := header + 1; i < len(lines); i++ {
		line := lines[i]
		dateCol := boundary(line, layout.Date, 0)
		dateSlice := line[dateCol:]
		lead, dated := common.MatchLeadingDate(dateSlice, false)
		if !dated {
			if started && summaryLine.MatchString(line) {
				break
			}
			continue
		}
		started = true
		dateEnd := dateCol + len(dateSlice) - len(strings.TrimLeft(dateSlice, " \t")) + len(lead.Raw)

		descCol := max(boundary(line, layout.Description, dateEnd), dateEnd)
		amountCol := max(boundary(line, layout.Amount, descCol), descCol)
		if amountCol >= len(line) {
			env.reject("grid", i, "short_line")
			continue
		}
		amounts := common.FindAmounts(line[amountCol:])
		if len(amounts) == 0 {
			env.reject("grid", i, "no_amount")
			continue
		}
		amount := amounts[0]
		desc := line[descCol : amountCol+amount.Start]
		if tx, ok := env.build("grid", i, lead.ISO, desc, signed(amount, line)); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// boundary moves col left to the start of the token it falls inside, never
// past floor.
func boundary(line string, col, floor int) int {
	if col >= len(line) {
		return len(line)
	}
	for col > floor && line[col-1] != ' ' && line[col] != ' ' {
		col--
	}
	return col
}
