package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/jackc/pgx/v5"
)

// documentExists checks for a document by its natural key
// (source, account_number, statement_period).
func documentExists(ctx context.Context, tx pgx.Tx, doc common.Document) (bool, string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT id FROM documents
		WHERE source = $1 AND account_number = $2 AND statement_period = $3
	`, doc.Source, doc.Metadata.AccountNumber, doc.Metadata.StatementPeriod).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check document: %w", err)
	}

	return true, id, nil
}

func createDocument(ctx context.Context, tx pgx.Tx, doc common.Document) (string, error) {
	var id string
	credit, debit := doc.TotalCredit(), doc.TotalDebit()
	meta := doc.Metadata

	err := tx.QueryRow(ctx, `
		INSERT INTO documents (
			source, bank_name, account_holder, account_number, statement_period, currency,
			parser, strategy, total_credit, total_debit, nett
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		doc.Source, meta.BankName, meta.AccountHolder, meta.AccountNumber, meta.StatementPeriod, meta.Currency,
		doc.Parser, doc.Strategy, credit, debit, credit.Add(debit),
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	return id, nil
}

// deleteDocument removes a document and its transactions (cascade)
func deleteDocument(ctx context.Context, tx pgx.Tx, documentID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// SaveDocument stores the document and its transactions in one database
// transaction. An existing document is skipped unless force is set, in which
// case it is replaced.
func (db *DB) SaveDocument(ctx context.Context, doc common.Document, force bool) (bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, existingID, err := documentExists(ctx, tx, doc)
	if err != nil {
		return false, err
	}
	if exists {
		if !force {
			return false, nil
		}
		if err := deleteDocument(ctx, tx, existingID); err != nil {
			return false, err
		}
	}

	documentID, err := createDocument(ctx, tx, doc)
	if err != nil {
		return false, err
	}
	if err := createTransactions(ctx, tx, documentID, doc.Transactions); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}
