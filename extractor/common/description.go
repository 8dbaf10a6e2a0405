package common

import (
	"fmt"
	"regexp"
	"strings"
)

// MinDescriptionLength is the floor below which a candidate is discarded.
const MinDescriptionLength = 3

var (
	debitHints  = []string{"debit", "withdrawal", "charge", "payment out"}
	creditHints = []string{"deposit", "credit", "salary", "refund"}

	trailingMarker = regexp.MustCompile(`(?i)(?:\s+(?:CR|DR))+$`)
	longDigits     = regexp.MustCompile(`\d{9,}`)
	meridiem       = regexp.MustCompile(`(?i)^\s?[AP]\.?M\b`)
	meridiemBefore = regexp.MustCompile(`(?i)\b[AP]\.?M\s?$`)
)

// HasDebitHint reports whether line mentions an outflow keyword.
func HasDebitHint(line string) bool {
	return containsAnyFold(line, debitHints)
}

// HasCreditHint reports whether line mentions an inflow keyword.
func HasCreditHint(line string) bool {
	return containsAnyFold(line, creditHints)
}

func containsAnyFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// CleanDescription collapses whitespace and strips stray punctuation from both ends.
func CleanDescription(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.Trim(s, " -–:;,.|*#=_~\"'()[]")
}

// StripMarkers removes trailing CR/DR column markers from a description.
func StripMarkers(s string) string {
	return strings.TrimSpace(trailingMarker.ReplaceAllString(s, ""))
}

// ValidDescription applies the minimum length floor.
func ValidDescription(s string) bool {
	return len([]rune(s)) >= MinDescriptionLength
}

// Excise removes the byte ranges [start,end) from s, replacing each with a space.
// Ranges must be sorted and non-overlapping.
func Excise(s string, ranges ...[2]int) string {
	var b strings.Builder
	pos := 0
	for _, r := range ranges {
		if r[0] < pos || r[1] > len(s) {
			continue
		}
		b.WriteString(s[pos:r[0]])
		b.WriteByte(' ')
		pos = r[1]
	}
	b.WriteString(s[pos:])
	return b.String()
}

// ReferenceFromText returns the first run of nine or more digits that is not
// part of a time stamp (followed or preceded by AM/PM).
func ReferenceFromText(s string) (string, bool) {
	for _, loc := range longDigits.FindAllStringIndex(s, -1) {
		if meridiem.MatchString(s[loc[1]:]) || meridiemBefore.MatchString(s[:loc[0]]) {
			continue
		}
		return s[loc[0]:loc[1]], true
	}
	return "", false
}

// Sequencer hands out synthesized reference numbers for transactions that
// carry none of their own.
type Sequencer interface {
	Next() string
}

// CountingSequencer yields PREFIX-1, PREFIX-2, ... and is deterministic per instance.
type CountingSequencer struct {
	Prefix string
	n      int
}

func NewSequencer(prefix string) *CountingSequencer {
	return &CountingSequencer{Prefix: prefix}
}

func (s *CountingSequencer) Next() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}
