// Package api exposes the extractor over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/aqlanhadi/stmtext/extractor"
	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/sirupsen/logrus"
)

// Config holds the API server configuration
type Config struct {
	Port           string
	MaxUploadBytes int64
	Extract        extractor.Options
	Logger         logrus.FieldLogger
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:           ":8080",
		MaxUploadBytes: 32 << 20,
		Extract:        extractor.DefaultOptions(),
		Logger:         logrus.StandardLogger(),
	}
}

type Server struct {
	config Config
	log    logrus.FieldLogger
	mux    *http.ServeMux
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		config: cfg,
		log:    cfg.Logger.WithField("component", "api"),
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.log.WithField("port", s.config.Port).Info("starting server")
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleExtract accepts either a multipart upload in the "file" field (.txt or
// .pdf) or a raw text body.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("remote", r.RemoteAddr)
	log.Debug("received extract request")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	text, filename, status, err := s.readText(r)
	if err != nil {
		log.WithError(err).Warn("could not read request")
		http.Error(w, err.Error(), status)
		return
	}

	opts := parseExtractOptions(r)
	if opts.TextOnly {
		writeJSON(w, map[string]string{"filename": filename, "text": text})
		return
	}

	doc := extractor.Extract(text, opts.StatementType, s.config.Extract)
	doc.Source = filename
	log.WithFields(logrus.Fields{
		"parser":       doc.Parser,
		"strategy":     doc.Strategy,
		"transactions": len(doc.Transactions),
	}).Info("extracted")

	writeJSON(w, extractor.CreateFinalOutput(doc, opts.TransactionOnly, opts.StatementOnly))
}

func (s *Server) readText(r *http.Request) (text, filename string, status int, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", "", http.StatusBadRequest, errors.New("could not read body: " + err.Error())
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return "", "", http.StatusBadRequest, errors.New("empty body")
		}
		return string(body), "", 0, nil
	}

	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		return "", "", http.StatusBadRequest, errors.New("could not parse multipart form: " + err.Error())
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", http.StatusBadRequest, errors.New("could not get uploaded file: " + err.Error())
	}
	defer file.Close()

	text, err = common.ReadTextFromReader(file, header.Filename)
	switch {
	case errors.Is(err, common.ErrUnsupportedSource):
		return "", "", http.StatusUnsupportedMediaType, err
	case err != nil:
		return "", "", http.StatusBadRequest, errors.New("could not extract text from file: " + err.Error())
	}
	return text, header.Filename, 0, nil
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	StatementOnly   bool
	TransactionOnly bool
	TextOnly        bool
	StatementType   common.DocumentType
}

// parseExtractOptions reads flags from form values or query params.
func parseExtractOptions(r *http.Request) ExtractOptions {
	flag := func(name string) bool {
		return r.FormValue(name) == "true" || r.URL.Query().Get(name) == "true"
	}
	opts := ExtractOptions{
		StatementOnly:   flag("statement_only"),
		TransactionOnly: flag("transaction_only"),
		TextOnly:        flag("text_only"),
	}
	if t := coalesce(r.FormValue("statement_type"), r.URL.Query().Get("statement_type")); t != "" {
		opts.StatementType = common.ParseDocumentType(t)
	}
	return opts
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
