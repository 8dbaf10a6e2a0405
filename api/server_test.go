package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStatementText = "Date Description Amount\n02/01/2009 Opening Balance 1,000.00\n02/03/2009 PURCHASE - AMAZON -25.50\n02/05/2009 DIRECT DEPOSIT 2,000.00\nBalance: 2,974.50"

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	io.WriteString(part, content)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	server := New(DefaultConfig())
	require.NotNil(t, server)
	assert.NotNil(t, server.mux)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "TXN", cfg.Extract.ReferencePrefix)
}

func TestHealthEndpoint(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractEndpoint_EmptyBody(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("  \n"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractEndpoint_InvalidPDF(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/extract", "test.pdf", "not a valid pdf"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractEndpoint_UnsupportedFile(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/extract", "statement.docx", "binary"))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestExtractEndpoint_TextBody(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(testStatementText))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Metadata     common.StatementMetadata `json:"metadata"`
		Strategy     string                   `json:"strategy"`
		Transactions []map[string]interface{} `json:"transactions"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "strict", response.Strategy)
	assert.Equal(t, common.DefaultCurrency, response.Metadata.Currency)
	require.Len(t, response.Transactions, 3)
	assert.Equal(t, "PURCHASE - AMAZON", response.Transactions[1]["description"])
	assert.Equal(t, -25.5, response.Transactions[1]["amount"])
}

func TestExtractEndpoint_TextUploadTransactionOnly(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/extract?transaction_only=true", "january.txt", testStatementText))

	require.Equal(t, http.StatusOK, w.Code)
	var txns []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txns))
	require.Len(t, txns, 3)
	assert.Equal(t, "2009-02-01", txns[0]["transaction_date"])
	assert.Equal(t, "TXN-1", txns[0]["reference_number"])
}

func TestExtractEndpoint_TextOnly(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/extract?text_only=true", "notes.txt", "hello"))

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "notes.txt", response["filename"])
	assert.Equal(t, "hello", response["text"])
}

func TestParseExtractOptions_FormValues(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("statement_only", "true")
	writer.WriteField("statement_type", "credit_card")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ParseMultipartForm(32 << 20)

	opts := parseExtractOptions(req)
	assert.True(t, opts.StatementOnly)
	assert.Equal(t, common.DocumentCreditCard, opts.StatementType)
}

func TestParseExtractOptions_QueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract?transaction_only=true&text_only=true", nil)

	opts := parseExtractOptions(req)
	assert.True(t, opts.TransactionOnly)
	assert.True(t, opts.TextOnly)
	assert.Equal(t, common.DocumentType(""), opts.StatementType)
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		input    []string
		expected string
	}{
		{[]string{"", "", "third"}, "third"},
		{[]string{"first", "second"}, "first"},
		{[]string{"", ""}, ""},
		{[]string{}, ""},
		{[]string{"only"}, "only"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, coalesce(tt.input...), "coalesce(%v)", tt.input)
	}
}

func TestHandler(t *testing.T) {
	server := New(DefaultConfig())
	handler := server.Handler()
	require.NotNil(t, handler)
	assert.Equal(t, http.Handler(server.mux), handler)
}
