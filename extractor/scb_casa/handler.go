package scb_casa

import (
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/shopspring/decimal"
)

// Name identifies this parser in Document.Parser and in logs.
const Name = "scb_casa"

// Match reports whether text carries one of the configured signatures as a
// whole phrase.
func (p *Parser) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, sig := range p.cfg.Signatures {
		if common.ContainsSignature(lower, sig) {
			return true
		}
	}
	return false
}

func (p *Parser) isStop(line string) bool {
	return hasPrefixFold(line, p.cfg.StopKeywords)
}

func (p *Parser) isSkip(line string) bool {
	return hasPrefixFold(line, p.cfg.SkipKeywords)
}

func hasPrefixFold(line string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, k := range keywords {
		if strings.HasPrefix(lower, k) {
			return true
		}
	}
	return false
}

// resolveAmount nets the trailing amount tokens of a composite line. It
// returns the amount and the tokens it consumed.
//
//	3 tokens: credit, debit, balance -> credit - debit
//	2 tokens: the one marked '-' or DR is the debit, the other the credit;
//	          unmarked pairs are amount then balance, polarity by keyword
//	1 token:  its own sign, then keywords, then positive
func resolveAmount(amounts []common.AmountToken, context string) (decimal.Decimal, []common.AmountToken) {
	tail := amounts
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}

	switch len(tail) {
	case 3:
		return tail[0].Value.Sub(tail[1].Value), tail
	case 2:
		switch {
		case tail[0].Sign < 0:
			return tail[1].Value.Sub(tail[0].Value), tail
		case tail[1].Sign < 0:
			return tail[0].Value.Sub(tail[1].Value), tail
		}
		return byKeyword(tail[0], context), tail
	}
	return byKeyword(tail[0], context), tail
}

func byKeyword(tok common.AmountToken, context string) decimal.Decimal {
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
