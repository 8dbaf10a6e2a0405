package extractor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/aqlanhadi/stmtext/extractor/generic"
	"github.com/aqlanhadi/stmtext/extractor/scb_casa"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Parser names reported in Document.Parser.
const (
	ParserGeneric = "generic"
	ParserLegacy  = "legacy"
)

// Specialized is a layout-specific parser tried before the generic tiers.
type Specialized interface {
	Name() string
	Match(text string) bool
	ReferencePrefix() string
	Parse(raw string, meta common.StatementMetadata, refs common.Sequencer) []common.Transaction
}

type Options struct {
	Logger          logrus.FieldLogger
	NewSequencer    func(prefix string) common.Sequencer
	ReferencePrefix string
	DefaultType     common.DocumentType
	Metadata        common.MetadataConfig
	SCB             scb_casa.Config
	Workers         int
}

func DefaultOptions() Options {
	return Options{
		ReferencePrefix: "TXN",
		DefaultType:     common.DocumentNone,
		Metadata:        common.DefaultMetadataConfig(),
		SCB:             scb_casa.DefaultConfig(),
		Workers:         runtime.NumCPU(),
	}
}

// LoadOptions reads the extract.*, metadata.* and statement.* sections of v.
func LoadOptions(v *viper.Viper) Options {
	opts := DefaultOptions()
	if v == nil {
		return opts
	}
	if p := v.GetString("extract.reference_prefix"); p != "" {
		opts.ReferencePrefix = p
	}
	if t := v.GetString("extract.default_type"); t != "" {
		opts.DefaultType = common.ParseDocumentType(t)
	}
	if n := v.GetInt("extract.workers"); n > 0 {
		opts.Workers = n
	}
	opts.Metadata = common.LoadMetadataConfig(v)
	opts.SCB = scb_casa.LoadConfig(v)
	return opts
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return common.DiscardLogger()
	}
	return o.Logger
}

func (o Options) sequencer(prefix string) common.Sequencer {
	if o.NewSequencer != nil {
		return o.NewSequencer(prefix)
	}
	return common.NewSequencer(prefix)
}

func (o Options) specialized() []Specialized {
	return []Specialized{scb_casa.New(o.SCB, o.logger())}
}

func (o Options) hint(t common.DocumentType) common.DocumentType {
	if t == "" {
		return o.DefaultType
	}
	return t
}

// DetectSpecialized returns the name of the specialized parser whose signature
// appears in text, or "" when none applies.
func DetectSpecialized(text string, opts Options) string {
	if p := detect(text, opts); p != nil {
		return p.Name()
	}
	return ""
}

func detect(text string, opts Options) Specialized {
	for _, p := range opts.specialized() {
		if p.Match(text) {
			return p
		}
	}
	return nil
}

// Extract runs the full pipeline on one text blob: normalization, metadata,
// the specialized parser if one matches, the four generic strategies, and
// finally the grid parser and the line heuristic. An empty transaction list
// is a valid result.
func Extract(text string, hint common.DocumentType, opts Options) common.Document {
	log := opts.logger()
	normalized := common.Normalize(text)
	meta := common.ExtractMetadataWith(normalized, opts.Metadata)
	doc := common.Document{Metadata: meta, Transactions: []common.Transaction{}}

	if trySpecialized(text, normalized, &doc, opts) {
		return doc
	}

	lines := common.SplitLines(normalized)
	env := generic.NewEnv(meta, opts.sequencer(opts.ReferencePrefix), log)
	if name, txns := generic.Extract(lines, env); len(txns) > 0 {
		doc.Parser, doc.Strategy, doc.Transactions = ParserGeneric, name, txns
		return doc
	}

	legacy(text, lines, opts.hint(hint), env, &doc)
	return doc
}

// ExtractSimple is the legacy entry point: specialized parser, then the grid
// parser, then the line heuristic. The four line strategies are not run.
func ExtractSimple(text string, hint common.DocumentType, opts Options) common.Document {
	normalized := common.Normalize(text)
	meta := common.ExtractMetadataWith(normalized, opts.Metadata)
	doc := common.Document{Metadata: meta, Transactions: []common.Transaction{}}

	if trySpecialized(text, normalized, &doc, opts) {
		return doc
	}

	env := generic.NewEnv(meta, opts.sequencer(opts.ReferencePrefix), opts.logger())
	legacy(text, common.SplitLines(normalized), opts.hint(hint), env, &doc)
	return doc
}

func trySpecialized(raw, normalized string, doc *common.Document, opts Options) bool {
	p := detect(normalized, opts)
	if p == nil {
		return false
	}
	txns := p.Parse(raw, doc.Metadata, opts.sequencer(p.ReferencePrefix()))
	if len(txns) == 0 {
		opts.logger().WithField("parser", p.Name()).Debug("specialized parser found nothing, falling through")
		return false
	}
	doc.Parser, doc.Transactions = p.Name(), txns
	return true
}

func legacy(raw string, lines []string, hint common.DocumentType, env *generic.Env, doc *common.Document) {
	layout := common.SplitLines(common.NormalizeLayout(raw))
	if txns := generic.ParseGrid(layout, env); len(txns) > 0 {
		doc.Parser, doc.Strategy, doc.Transactions = ParserLegacy, "grid", txns
		return
	}
	if txns := generic.LineHeuristic(lines, env, hint); len(txns) > 0 {
		doc.Parser, doc.Strategy, doc.Transactions = ParserLegacy, "heuristic", txns
	}
}

// Input is one document for ExtractBatch.
type Input struct {
	Source string
	Text   string
	Hint   common.DocumentType
}

// ExtractBatch extracts independent documents concurrently, bounded by
// opts.Workers. Results are in input order. Cancelling ctx stops documents
// that have not started yet; their slots hold an empty Document.
func ExtractBatch(ctx context.Context, inputs []Input, opts Options) ([]common.Document, error) {
	docs := make([]common.Document, len(inputs))
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, in := range inputs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", in.Source, err)
			}
			doc := Extract(in.Text, in.Hint, opts)
			doc.Source = in.Source
			docs[i] = doc
			return nil
		})
	}
	return docs, p.Wait()
}

// ProcessPath reads a file, or every supported file directly inside a
// directory, and extracts each one. Unreadable files are reported in the
// returned error and skipped; the remaining documents are still returned.
func ProcessPath(ctx context.Context, path string, hint common.DocumentType, opts Options) ([]common.Document, error) {
	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	var errs error
	inputs := make([]Input, 0, len(files))
	for _, f := range files {
		text, err := common.ReadText(f)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", f, err))
			continue
		}
		inputs = append(inputs, Input{Source: sourceName(f), Text: text, Hint: hint})
	}

	docs, err := ExtractBatch(ctx, inputs, opts)
	return docs, multierr.Append(errs, err)
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if !common.IsSupportedSource(path) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrUnsupportedSource)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type()&fs.ModeType != 0 || !common.IsSupportedSource(e.Name()) || filepath.Ext(e.Name()) == "" {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	return files, nil
}

func sourceName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// CreateFinalOutput shapes a Document for printing. transactionOnly yields the
// bare transaction list; statementOnly drops the transactions from the summary.
func CreateFinalOutput(doc common.Document, transactionOnly, statementOnly bool) interface{} {
	if transactionOnly {
		return doc.Transactions
	}

	credit, debit := doc.TotalCredit(), doc.TotalDebit()
	output := map[string]interface{}{
		"metadata":          doc.Metadata,
		"transaction_count": len(doc.Transactions),
		"total_credit":      credit,
		"total_debit":       debit,
		"nett":              credit.Add(debit),
	}
	if doc.Source != "" {
		output["source"] = doc.Source
	}
	if doc.Parser != "" {
		output["parser"] = doc.Parser
	}
	if doc.Strategy != "" {
		output["strategy"] = doc.Strategy
	}
	if !statementOnly {
		output["transactions"] = doc.Transactions
	}
	return output
}
