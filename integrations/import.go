// Package integrations imports extracted documents into a persistent store.
package integrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/aqlanhadi/stmtext/extractor"
	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// ErrEmptyDocument is returned for a document with no transactions.
var ErrEmptyDocument = errors.New("no transactions extracted")

// Store persists a document. SaveDocument reports false when the document
// already exists and force is not set.
type Store interface {
	SaveDocument(ctx context.Context, doc common.Document, force bool) (bool, error)
}

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force   bool                // Replace documents that already exist
	Hint    common.DocumentType // Passed to the extractor for every file
	Extract extractor.Options
}

// Import extracts a file or every supported file in a directory and saves
// each document. Per-file failures are counted and collected; the returned
// error joins them so callers can decide whether a partial import is fatal.
func Import(ctx context.Context, store Store, path string, opts ImportOptions) (*ImportResult, error) {
	log := opts.Extract.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "import")

	result := &ImportResult{}
	docs, errs := extractor.ProcessPath(ctx, path, opts.Hint, opts.Extract)
	for _, err := range multierr.Errors(errs) {
		result.Failed++
		result.Errors = append(result.Errors, err.Error())
	}
	if len(docs) == 0 && errs != nil {
		return result, errs
	}

	log.WithField("documents", len(docs)).Info("importing")
	for _, doc := range docs {
		// cancelled before extraction; already counted from errs
		if doc.Source == "" {
			continue
		}
		entry := log.WithField("source", doc.Source)
		if len(doc.Transactions) == 0 {
			err := fmt.Errorf("%s: %w", doc.Source, ErrEmptyDocument)
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			errs = multierr.Append(errs, err)
			entry.Warn("no transactions extracted")
			continue
		}

		saved, err := store.SaveDocument(ctx, doc, opts.Force)
		if err != nil {
			err = fmt.Errorf("%s: %w", doc.Source, err)
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			errs = multierr.Append(errs, err)
			entry.WithError(err).Warn("save failed")
			continue
		}
		if !saved {
			result.Skipped++
			entry.Debug("already exists")
			continue
		}
		result.Processed++
		entry.WithField("transactions", len(doc.Transactions)).Debug("saved")
	}
	return result, errs
}
