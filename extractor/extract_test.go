package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/aqlanhadi/stmtext/extractor/generic"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = "Date Description Amount\n02/01/2009 Opening Balance 1,000.00\n02/03/2009 PURCHASE - AMAZON -25.50\n02/05/2009 DIRECT DEPOSIT 2,000.00\nBalance: 2,974.50"

type expectedTx struct {
	date, description, amount string
}

func assertTransactions(t *testing.T, expected []expectedTx, actual []common.Transaction) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i, e := range expected {
		assert.Equal(t, e.date, actual[i].TransactionDate, "row %d", i)
		assert.Equal(t, e.description, actual[i].Description, "row %d", i)
		assert.Equal(t, e.amount, actual[i].Amount.StringFixed(2), "row %d", i)
		assert.NotEmpty(t, actual[i].ReferenceNumber, "row %d", i)
		assert.Equal(t, common.DefaultBankName, actual[i].BankName, "row %d", i)
		assert.Equal(t, common.DefaultAccountHolder, actual[i].ClientName, "row %d", i)
	}
}

func TestExtract_ScenarioA(t *testing.T) {
	doc := Extract(scenarioA, common.DocumentNone, DefaultOptions())

	assert.Equal(t, ParserGeneric, doc.Parser)
	assert.Equal(t, "strict", doc.Strategy)
	assertTransactions(t, []expectedTx{
		{"2009-02-01", "Opening Balance", "1000.00"},
		{"2009-02-03", "PURCHASE - AMAZON", "-25.50"},
		{"2009-02-05", "DIRECT DEPOSIT", "2000.00"},
	}, doc.Transactions)
}

func TestExtract_ScenarioB_OCRNoise(t *testing.T) {
	doc := Extract("O2/O1/2OO9 TESCO METRO -25.5O", common.DocumentNone, DefaultOptions())
	assertTransactions(t, []expectedTx{
		{"2009-02-01", "TESCO METRO", "-25.50"},
	}, doc.Transactions)
}

func TestExtract_ScenarioC_MultiLine(t *testing.T) {
	doc := Extract("2/4/2009 MWAVE ELECTRONICS\n12.00", common.DocumentNone, DefaultOptions())
	assert.Equal(t, "multi_line", doc.Strategy)
	assertTransactions(t, []expectedTx{
		{"2009-02-04", "MWAVE ELECTRONICS", "12.00"},
	}, doc.Transactions)
}

func TestExtract_InvalidDateRejected(t *testing.T) {
	doc := Extract("02/30/2009 NOT A DAY 10.00", common.DocumentNone, DefaultOptions())
	assert.Empty(t, doc.Transactions)
	assert.NotNil(t, doc.Transactions)
}

func TestExtract_AmountNormalization(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{"$12.00", "12.00"},
		{"-12.00", "-12.00"},
		{"1,234.56", "1234.56"},
		{"$ -12.00", "-12.00"},
	}

	for _, test := range tests {
		doc := Extract("03/15/2021 SAMPLE MERCHANT "+test.amount, common.DocumentNone, DefaultOptions())
		require.Len(t, doc.Transactions, 1, test.amount)
		assert.Equal(t, test.expected, doc.Transactions[0].Amount.StringFixed(2), test.amount)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extract(scenarioA, common.DocumentNone, DefaultOptions())
	second := Extract(scenarioA, common.DocumentNone, DefaultOptions())
	assert.Equal(t, first, second)
}

func TestExtract_EmptyInput(t *testing.T) {
	doc := Extract("", common.DocumentNone, DefaultOptions())
	assert.Empty(t, doc.Transactions)
	assert.Equal(t, common.DefaultMetadata(), doc.Metadata)
	assert.Equal(t, "", doc.Parser)
}

func TestExtract_FallbackCap(t *testing.T) {
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("%d/%d/2019 ENTRY %d", i%12+1, i%28+1, i))
		lines = append(lines, "note")
		lines = append(lines, fmt.Sprintf("%d.%02d", i%500+1, i%100))
	}
	doc := Extract(strings.Join(lines, "\n"), common.DocumentNone, DefaultOptions())

	assert.Equal(t, "nearest", doc.Strategy)
	assert.LessOrEqual(t, len(doc.Transactions), generic.NearestCap)
	assert.Len(t, doc.Transactions, generic.NearestCap)
}

// Synthetic Standard Chartered page - fake names and numbers
const scbStatement = `Standard Chartered Bank
Account Name: ALEX TAN
Account Number: 0123-4567-8901
Date Description Withdrawal Deposit Balance
04 Dec 2023 TRANSFER FROM JOHN 500.00 1,500.00
05 Dec 2023 ATM WITHDRAWAL 100.00 1,400.00
Closing balance 1,400.00`

func TestExtract_SpecializedParser(t *testing.T) {
	doc := Extract(scbStatement, common.DocumentNone, DefaultOptions())

	assert.Equal(t, "scb_casa", doc.Parser)
	require.Len(t, doc.Transactions, 2)
	assert.Equal(t, "SC-1", doc.Transactions[0].ReferenceNumber)
	assert.Equal(t, "Standard Chartered", doc.Transactions[0].BankName)
	assert.Equal(t, "Alex Tan", doc.Transactions[0].ClientName)
	assert.Equal(t, "-100.00", doc.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, "0123-4567-8901", doc.Metadata.AccountNumber)
}

func TestExtract_SpecializedFallsThrough(t *testing.T) {
	text := "Standard Chartered Bank\nPOSTED 03/01/2024 WIRE TRANSFER 75.00"
	assert.Equal(t, "scb_casa", DetectSpecialized(common.Normalize(text), DefaultOptions()))

	doc := Extract(text, common.DocumentNone, DefaultOptions())
	assert.Equal(t, ParserGeneric, doc.Parser)
	require.Len(t, doc.Transactions, 1)
	assert.Equal(t, "2024-03-01", doc.Transactions[0].TransactionDate)
	assert.Equal(t, "TXN-1", doc.Transactions[0].ReferenceNumber)
}

func TestDetectSpecialized_None(t *testing.T) {
	assert.Equal(t, "", DetectSpecialized("Wells Fargo", DefaultOptions()))
}

func TestExtract_SignatureInsideWordStaysGeneric(t *testing.T) {
	text := "Statement from www.misc.com\n02/03/2009 COFFEE SHOP 4.50"
	assert.Equal(t, "", DetectSpecialized(common.Normalize(text), DefaultOptions()))

	doc := Extract(text, common.DocumentNone, DefaultOptions())
	assert.Equal(t, ParserGeneric, doc.Parser)
	assert.Equal(t, "strict", doc.Strategy)
	assertTransactions(t, []expectedTx{
		{"2009-02-03", "COFFEE SHOP", "4.50"},
	}, doc.Transactions)
	assert.Equal(t, "TXN-1", doc.Transactions[0].ReferenceNumber)
}

func TestExtract_BankWordsInDescriptionsKeepDefaults(t *testing.T) {
	text := "02/03/2009 PURCHASE - AMAZON -25.50\n02/04/2009 ROCIMBALI CAFE -4.50\n02/05/2009 BONUS BANK CREDIT 10.00"
	doc := Extract(text, common.DocumentNone, DefaultOptions())
	assert.Equal(t, common.DefaultBankName, doc.Metadata.BankName)
	require.Len(t, doc.Transactions, 3)
	for _, tx := range doc.Transactions {
		assert.Equal(t, common.DefaultBankName, tx.BankName, tx.Description)
	}
}

func TestExtract_LegacyHeuristic(t *testing.T) {
	text := "15 Feb 2009 GROCER 12.00\n16 Feb 2009 ONLINE STORE 30.00"

	doc := Extract(text, common.DocumentCreditCard, DefaultOptions())
	assert.Equal(t, ParserLegacy, doc.Parser)
	assert.Equal(t, "heuristic", doc.Strategy)
	assertTransactions(t, []expectedTx{
		{"2009-02-15", "GROCER", "-12.00"},
		{"2009-02-16", "ONLINE STORE", "-30.00"},
	}, doc.Transactions)

	doc = Extract(text, common.DocumentBank, DefaultOptions())
	assert.Equal(t, "12.00", doc.Transactions[0].Amount.StringFixed(2))
}

func TestExtractSimple_Grid(t *testing.T) {
	doc := ExtractSimple(scenarioA, common.DocumentNone, DefaultOptions())
	assert.Equal(t, ParserLegacy, doc.Parser)
	assert.Equal(t, "grid", doc.Strategy)
	assertTransactions(t, []expectedTx{
		{"2009-02-01", "Opening Balance", "1000.00"},
		{"2009-02-03", "PURCHASE - AMAZON", "-25.50"},
		{"2009-02-05", "DIRECT DEPOSIT", "2000.00"},
	}, doc.Transactions)
}

type fixedSequencer struct{ n int }

func (s *fixedSequencer) Next() string {
	s.n++
	return fmt.Sprintf("FIXED-%d", s.n)
}

func TestExtract_InjectedSequencer(t *testing.T) {
	opts := DefaultOptions()
	opts.NewSequencer = func(string) common.Sequencer { return &fixedSequencer{} }

	doc := Extract(scenarioA, common.DocumentNone, opts)
	require.Len(t, doc.Transactions, 3)
	assert.Equal(t, "FIXED-3", doc.Transactions[2].ReferenceNumber)
}

func TestExtractBatch_KeepsInputOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 4

	var inputs []Input
	for i := 1; i <= 20; i++ {
		inputs = append(inputs, Input{
			Source: fmt.Sprintf("doc-%d", i),
			Text:   fmt.Sprintf("01/%02d/2022 ITEM NUMBER %d %d.00", i, i, i),
		})
	}

	docs, err := ExtractBatch(context.Background(), inputs, opts)
	require.NoError(t, err)
	require.Len(t, docs, 20)
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("doc-%d", i+1), doc.Source)
		require.Len(t, doc.Transactions, 1)
		assert.True(t, decimal.NewFromInt(int64(i+1)).Equal(doc.Transactions[0].Amount))
	}
}

func TestExtractBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs, err := ExtractBatch(ctx, []Input{{Source: "a", Text: scenarioA}}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, docs, 1)
	assert.Empty(t, docs[0].Transactions)
}

func TestProcessPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "january.txt"), []byte(scenarioA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.docx"), []byte("ignored"), 0o644))

	docs, err := ProcessPath(context.Background(), dir, common.DocumentNone, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "january", docs[0].Source)
	assert.Len(t, docs[0].Transactions, 3)

	_, err = ProcessPath(context.Background(), filepath.Join(dir, "notes.docx"), common.DocumentNone, DefaultOptions())
	assert.ErrorIs(t, err, common.ErrUnsupportedSource)
}

func TestLoadOptions(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
extract:
  default_type: credit_card
  workers: 3
  reference_prefix: REF
`)))

	opts := LoadOptions(v)
	assert.Equal(t, common.DocumentCreditCard, opts.DefaultType)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "REF", opts.ReferencePrefix)
	assert.Equal(t, "SC", opts.SCB.ReferencePrefix)

	doc := Extract(scenarioA, "", opts)
	assert.Equal(t, "REF-1", doc.Transactions[0].ReferenceNumber)
}

func TestCreateFinalOutput_TransactionOnly(t *testing.T) {
	doc := Extract(scenarioA, common.DocumentNone, DefaultOptions())

	result := CreateFinalOutput(doc, true, false)

	transactions, ok := result.([]common.Transaction)
	require.True(t, ok, "Expected result to be []common.Transaction")
	assert.Len(t, transactions, 3)
}

func TestCreateFinalOutput_StatementOnly(t *testing.T) {
	doc := Extract(scenarioA, common.DocumentNone, DefaultOptions())
	doc.Source = "test_statement"

	result := CreateFinalOutput(doc, false, true)

	outputMap, ok := result.(map[string]interface{})
	require.True(t, ok, "Expected result to be map[string]interface{}")
	assert.Equal(t, "test_statement", outputMap["source"])
	assert.Equal(t, 3, outputMap["transaction_count"])
	assert.Equal(t, "3000.00", outputMap["total_credit"].(decimal.Decimal).StringFixed(2))
	assert.Equal(t, "-25.50", outputMap["total_debit"].(decimal.Decimal).StringFixed(2))
	assert.Equal(t, "2974.50", outputMap["nett"].(decimal.Decimal).StringFixed(2))

	_, exists := outputMap["transactions"]
	assert.False(t, exists, "Expected no transactions in statement-only output")
}

func TestCreateFinalOutput_Full(t *testing.T) {
	doc := Extract(scenarioA, common.DocumentNone, DefaultOptions())

	outputMap := CreateFinalOutput(doc, false, false).(map[string]interface{})
	assert.Equal(t, "strict", outputMap["strategy"])
	assert.Equal(t, doc.Metadata, outputMap["metadata"])
	txs, ok := outputMap["transactions"].([]common.Transaction)
	require.True(t, ok)
	assert.Len(t, txs, 3)

	_, exists := outputMap["source"]
	assert.False(t, exists)
}
