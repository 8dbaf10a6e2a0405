package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/jackc/pgx/v5"
)

const insertTransaction = `
	INSERT INTO transactions (
		document_id, sequence, transaction_date, description, reference_number, amount, bank_name, client_name
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// createTransactions bulk inserts transactions for a document. Sequence is the
// position in extraction order, starting at 1.
func createTransactions(ctx context.Context, tx pgx.Tx, documentID string, transactions []common.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, t := range transactions {
		date, err := time.Parse(time.DateOnly, t.TransactionDate)
		if err != nil {
			return fmt.Errorf("transaction %d: invalid date %q: %w", i+1, t.TransactionDate, err)
		}
		batch.Queue(insertTransaction,
			documentID, i+1, date, t.Description, t.ReferenceNumber, t.Amount, t.BankName, t.ClientName,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range transactions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	return nil
}
