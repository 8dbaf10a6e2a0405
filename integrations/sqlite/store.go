// Package sqlite stores extracted documents in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/aqlanhadi/stmtext/integrations"
	_ "modernc.org/sqlite"
)

var _ integrations.Store = (*DB)(nil)

const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    bank_name TEXT NOT NULL,
    account_holder TEXT NOT NULL,
    account_number TEXT NOT NULL DEFAULT '',
    statement_period TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL,
    parser TEXT NOT NULL DEFAULT '',
    strategy TEXT NOT NULL DEFAULT '',
    total_credit TEXT NOT NULL,
    total_debit TEXT NOT NULL,
    nett TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(source, account_number, statement_period)
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    transaction_date TEXT NOT NULL,
    description TEXT NOT NULL,
    reference_number TEXT NOT NULL,
    amount TEXT NOT NULL,
    bank_name TEXT NOT NULL,
    client_name TEXT NOT NULL,
    UNIQUE(document_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_transactions_document_id ON transactions(document_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date);
`

// DB wraps a SQLite handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{DB: conn}, nil
}

// SaveDocument stores the document and its transactions atomically. An
// existing document is skipped unless force is set.
func (db *DB) SaveDocument(ctx context.Context, doc common.Document, force bool) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := doc.Metadata
	var existingID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM documents
		WHERE source = ? AND account_number = ? AND statement_period = ?
	`, doc.Source, meta.AccountNumber, meta.StatementPeriod).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("failed to check document: %w", err)
	case !force:
		return false, nil
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, existingID); err != nil {
			return false, fmt.Errorf("failed to delete document: %w", err)
		}
	}

	credit, debit := doc.TotalCredit(), doc.TotalDebit()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (
			source, bank_name, account_holder, account_number, statement_period, currency,
			parser, strategy, total_credit, total_debit, nett
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		doc.Source, meta.BankName, meta.AccountHolder, meta.AccountNumber, meta.StatementPeriod, meta.Currency,
		doc.Parser, doc.Strategy, credit.StringFixed(2), debit.StringFixed(2), credit.Add(debit).StringFixed(2),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create document: %w", err)
	}
	documentID, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			document_id, sequence, transaction_date, description, reference_number, amount, bank_name, client_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range doc.Transactions {
		if _, err := time.Parse(time.DateOnly, t.TransactionDate); err != nil {
			return false, fmt.Errorf("transaction %d: invalid date %q: %w", i+1, t.TransactionDate, err)
		}
		if _, err := stmt.ExecContext(ctx,
			documentID, i+1, t.TransactionDate, t.Description, t.ReferenceNumber, t.Amount.StringFixed(2), t.BankName, t.ClientName,
		); err != nil {
			return false, fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

// Transactions returns the stored transactions of a document in extraction order.
func (db *DB) Transactions(ctx context.Context, source string) ([]common.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.bank_name, t.client_name, t.transaction_date, t.description, t.reference_number, t.amount
		FROM transactions t JOIN documents d ON d.id = t.document_id
		WHERE d.source = ?
		ORDER BY d.id, t.sequence
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []common.Transaction
	for rows.Next() {
		var t common.Transaction
		var amount string
		if err := rows.Scan(&t.BankName, &t.ClientName, &t.TransactionDate, &t.Description, &t.ReferenceNumber, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if err := t.Amount.Scan(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
