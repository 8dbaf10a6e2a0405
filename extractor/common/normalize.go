package common

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	lineEndings    = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u2028", "\n", "\u2029", "\n", "\f", "\n")
	horizontalRun  = regexp.MustCompile(`[ \t]{2,}|\t`)
	trailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	blankLineRun   = regexp.MustCompile(`\n{3,}`)
	nonSpaceRun    = regexp.MustCompile(`\S+`)
	digitLookalike = strings.NewReplacer("O", "0", "o", "0", "D", "0", "I", "1", "l", "1", "|", "1", "S", "5", "B", "8")
)

// Normalize fixes line endings, OCR character confusions and whitespace runs.
// Line breaks are preserved; runs of blank lines collapse to one.
func Normalize(text string) string {
	text = lineEndings.Replace(text)
	text = repairOCR(text)
	text = horizontalRun.ReplaceAllString(text, " ")
	text = trailingSpace.ReplaceAllString(text, "")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.Trim(text, "\n")
}

// NormalizeLayout is Normalize without the whitespace collapsing, for callers
// that slice lines on character offsets. Tabs are expanded to 8-column stops.
func NormalizeLayout(text string) string {
	text = lineEndings.Replace(text)
	text = repairOCR(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(expandTabs(line), " ")
	}
	return strings.Join(lines, "\n")
}

// SplitLines splits text on any line ending.
func SplitLines(text string) []string {
	return strings.Split(lineEndings.Replace(text), "\n")
}

// repairOCR fixes the two directions of digit/letter confusion: letters inside
// what is otherwise a date or amount token become digits, digits wedged between
// two letters become letters.
func repairOCR(text string) string {
	text = nonSpaceRun.ReplaceAllStringFunc(text, repairNumericToken)
	return restoreLetters(text)
}

func repairNumericToken(tok string) string {
	if !strings.ContainsAny(tok, "0123456789") || !strings.ContainsAny(tok, "OoDIl|SB") {
		return tok
	}
	fixed := digitLookalike.Replace(tok)
	if IsAmount(fixed) || IsNumericDate(fixed) {
		return fixed
	}
	// keep trailing punctuation out of the shape check: "25.5O," -> "25.50,"
	trimmed := strings.TrimRight(fixed, ",;:)")
	if trimmed != fixed && (IsAmount(trimmed) || IsNumericDate(trimmed)) {
		return fixed
	}
	return tok
}

func restoreLetters(text string) string {
	runes := []rune(text)
	out := make([]rune, len(runes))
	copy(out, runes)
	for i := 1; i < len(runes)-1; i++ {
		prev, next := runes[i-1], runes[i+1]
		if !unicode.IsLetter(prev) || !unicode.IsLetter(next) {
			continue
		}
		lower := unicode.IsLower(prev) && unicode.IsLower(next)
		switch runes[i] {
		case '0':
			out[i] = pick(lower, 'o', 'O')
		case '1':
			out[i] = pick(lower, 'l', 'I')
		case '5':
			out[i] = pick(lower, 's', 'S')
		case '8':
			out[i] = pick(lower, 'b', 'B')
		}
	}
	return string(out)
}

func pick(lower bool, l, u rune) rune {
	if lower {
		return l
	}
	return u
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
