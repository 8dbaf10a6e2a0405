// Package scb_casa parses Standard Chartered current and savings account
// statements: textual dates, wrapped descriptions and a withdrawal, deposit,
// balance column block at the end of each record.
package scb_casa

import (
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/sirupsen/logrus"
)

type state int

const (
	scanning state = iota
	accumulating
)

type Parser struct {
	cfg Config
	log logrus.FieldLogger
}

func New(cfg Config, log logrus.FieldLogger) *Parser {
	if log == nil {
		log = common.DiscardLogger()
	}
	return &Parser{cfg: cfg, log: log.WithField("parser", Name)}
}

func (p *Parser) Name() string { return Name }

// ReferencePrefix is the prefix for synthesized reference numbers.
func (p *Parser) ReferencePrefix() string { return p.cfg.ReferencePrefix }

type candidate struct {
	line  int
	date  string
	parts []string
}

// Parse walks the text as a state machine. A line opening with a date starts a
// record; undated lines are continuations until the next dated line. A stop
// keyword closes the table until the next table header.
func (p *Parser) Parse(raw string, meta common.StatementMetadata, refs common.Sequencer) []common.Transaction {
	if refs == nil {
		refs = common.NewSequencer(p.cfg.ReferencePrefix)
	}
	lines := common.SplitLines(common.Normalize(raw))

	var (
		txns    []common.Transaction
		current *candidate
		st      = scanning
		stopped bool
	)
	emit := func() {
		if current != nil {
			if tx, ok := p.build(current, meta, refs); ok {
				txns = append(txns, tx)
			}
		}
		current = nil
		st = scanning
	}

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if stopped {
			if p.cfg.TableHeader.MatchString(line) {
				stopped = false
			}
			continue
		}

		if lead, ok := common.MatchLeadingDate(line, p.cfg.DayFirst); ok {
			emit()
			rest := strings.TrimSpace(strings.TrimPrefix(line, lead.Raw))
			if p.isSkip(rest) {
				p.log.WithField("line", i).Debug("skipping carried balance")
				continue
			}
			current = &candidate{line: i, date: lead.ISO, parts: []string{rest}}
			st = accumulating
			continue
		}

		switch {
		case p.isStop(line):
			emit()
			stopped = true
			p.log.WithField("line", i).Debug("stop section")
		case p.cfg.TableHeader.MatchString(line):
			emit()
		case st == accumulating:
			current.parts = append(current.parts, line)
		}
	}
	emit()

	p.log.WithField("count", len(txns)).Debug("parse finished")
	return txns
}

func (p *Parser) build(c *candidate, meta common.StatementMetadata, refs common.Sequencer) (common.Transaction, bool) {
	composite := strings.Join(c.parts, " ")
	amounts := common.FindAmounts(composite)
	if len(amounts) == 0 {
		p.reject(c.line, "no_amount")
		return common.Transaction{}, false
	}

	amount, used := resolveAmount(amounts, composite)
	ranges := make([][2]int, 0, len(used))
	for _, a := range used {
		ranges = append(ranges, [2]int{a.Start, a.End})
	}
	desc := common.CleanDescription(common.StripMarkers(strings.TrimSpace(common.Excise(composite, ranges...))))
	if !common.ValidDescription(desc) {
		p.reject(c.line, "short_description")
		return common.Transaction{}, false
	}

	ref, ok := common.ReferenceFromText(desc)
	if !ok {
		ref = refs.Next()
	}
	return common.NewTransaction(meta, c.date, desc, ref, amount), true
}

func (p *Parser) reject(line int, reason string) {
	p.log.WithFields(logrus.Fields{"line": line, "reason": reason}).Debug("candidate rejected")
}
