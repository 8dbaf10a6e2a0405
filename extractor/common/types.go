package common

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentType is the optional caller hint about what kind of document the text came from.
type DocumentType string

const (
	DocumentBank       DocumentType = "bank"
	DocumentCreditCard DocumentType = "creditcard"
	DocumentLedger     DocumentType = "ledger"
	DocumentNone       DocumentType = "none"
)

// ParseDocumentType maps free-form hints ("credit_card", "CC", "") onto a DocumentType.
// Anything unrecognised is DocumentNone.
func ParseDocumentType(s string) DocumentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank", "casa", "savings", "current":
		return DocumentBank
	case "creditcard", "credit_card", "credit-card", "cc", "card":
		return DocumentCreditCard
	case "ledger", "journal":
		return DocumentLedger
	default:
		return DocumentNone
	}
}

const (
	DefaultBankName      = "Unknown Bank"
	DefaultAccountHolder = "Customer"
	DefaultCurrency      = "USD"
)

// StatementMetadata is extracted once per document and copied into every transaction.
type StatementMetadata struct {
	BankName        string `json:"bank_name"`
	AccountHolder   string `json:"account_holder"`
	AccountNumber   string `json:"account_number"`
	StatementPeriod string `json:"statement_period"`
	Currency        string `json:"currency"`
}

// DefaultMetadata returns metadata with every required default populated.
func DefaultMetadata() StatementMetadata {
	return StatementMetadata{
		BankName:      DefaultBankName,
		AccountHolder: DefaultAccountHolder,
		Currency:      DefaultCurrency,
	}
}

// Transaction is a single extracted statement line. Amount is negative for
// outflows and positive for inflows.
type Transaction struct {
	BankName        string          `json:"bank_name"`
	ClientName      string          `json:"client_name"`
	TransactionDate string          `json:"transaction_date"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
}

// NewTransaction builds a Transaction from a validated candidate. The metadata
// fields are copied so the transaction holds no reference to meta.
func NewTransaction(meta StatementMetadata, date, description, reference string, amount decimal.Decimal) Transaction {
	return Transaction{
		BankName:        meta.BankName,
		ClientName:      meta.AccountHolder,
		TransactionDate: date,
		Description:     description,
		ReferenceNumber: reference,
		Amount:          amount.Round(2),
	}
}

// MarshalJSON renders Amount as a JSON number with exactly two decimals.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{
		alias:  alias(t),
		Amount: json.Number(t.Amount.StringFixed(2)),
	})
}

// Document is the result of extracting one text blob: the metadata side channel
// plus the transactions, and which parser tier produced them.
type Document struct {
	Source       string            `json:"source,omitempty"`
	Metadata     StatementMetadata `json:"metadata"`
	Transactions []Transaction     `json:"transactions"`
	Parser       string            `json:"parser,omitempty"`
	Strategy     string            `json:"strategy,omitempty"`
}

// TotalCredit sums the positive amounts.
func (d Document) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		if tx.Amount.IsPositive() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalDebit sums the negative amounts (the result is zero or negative).
func (d Document) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		if tx.Amount.IsNegative() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
