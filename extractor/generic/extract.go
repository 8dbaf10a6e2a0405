// Package generic holds the statement-agnostic extraction tiers: four ordered
// line strategies, the grid/column parser and the hint-driven line heuristic.
package generic

import (
	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Env is the per-document state every tier reads. It is built once per parse
// and never shared between documents.
type Env struct {
	Meta common.StatementMetadata
	Refs common.Sequencer
	Log  logrus.FieldLogger
}

// NewEnv fills in a counting sequencer and a discard logger where nil.
func NewEnv(meta common.StatementMetadata, refs common.Sequencer, log logrus.FieldLogger) *Env {
	if refs == nil {
		refs = common.NewSequencer("TXN")
	}
	if log == nil {
		log = common.DiscardLogger()
	}
	return &Env{Meta: meta, Refs: refs, Log: log}
}

// build validates a candidate and turns it into a Transaction. The reference
// sequence only advances for accepted candidates.
func (e *Env) build(strategy string, line int, date, description string, amount decimal.Decimal) (common.Transaction, bool) {
	description = common.CleanDescription(description)
	if !common.ValidDescription(description) {
		e.reject(strategy, line, "short_description")
		return common.Transaction{}, false
	}
	ref, ok := common.ReferenceFromText(description)
	if !ok {
		ref = e.Refs.Next()
	}
	return common.NewTransaction(e.Meta, date, description, ref, amount), true
}

func (e *Env) reject(strategy string, line int, reason string) {
	e.Log.WithFields(logrus.Fields{"strategy": strategy, "line": line, "reason": reason}).Debug("candidate rejected")
}

// Strategy is one self-contained tier of the fallback chain.
type Strategy struct {
	Name string
	Run  func(lines []string, env *Env) []common.Transaction
}

// Strategies returns the four line strategies in priority order.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "strict", Run: StrictSingleLine},
		{Name: "flexible", Run: FlexibleSingleLine},
		{Name: "multi_line", Run: MultiLinePairs},
		{Name: "nearest", Run: NearestAmount},
	}
}

// FirstNonEmpty runs strategies in order and returns the output of the first one
// that produced anything. Later strategies are never run once one succeeds.
func FirstNonEmpty(strategies []Strategy, lines []string, env *Env) (string, []common.Transaction) {
	for _, s := range strategies {
		txns := s.Run(lines, env)
		env.Log.WithFields(logrus.Fields{"strategy": s.Name, "count": len(txns)}).Debug("strategy finished")
		if len(txns) > 0 {
			return s.Name, txns
		}
	}
	return "", nil
}

// Extract runs the four line strategies over lines.
func Extract(lines []string, env *Env) (string, []common.Transaction) {
	return FirstNonEmpty(Strategies(), lines, env)
}
