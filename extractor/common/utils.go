package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedSource is returned for inputs whose text cannot be read here.
var ErrUnsupportedSource = errors.New("unsupported source type")

// IsSupportedSource reports whether ReadText understands the file extension.
func IsSupportedSource(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".text", "":
		return true
	}
	return false
}

// ReadText returns the text of a plain-text file or of a PDF text layer.
func ReadText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return ReadTextFromReader(file, filepath.Base(path))
}

// ReadTextFromReader dispatches on the file name's extension.
func ReadTextFromReader(reader io.Reader, name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		rows, err := ExtractRowsFromPDFReader(reader)
		if err != nil {
			return "", fmt.Errorf("reading pdf text layer: %w", err)
		}
		return strings.Join(*rows, "\n"), nil
	case ".txt", ".text", "":
		b, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("reading text: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupportedSource)
	}
}

// ExtractRowsFromPDFReader returns the text layer of a PDF as rows, one per
// visual line in page order. ReadTextFromReader joins them into the plain text
// the extractor consumes; scanned PDFs without a text layer yield no rows.
func ExtractRowsFromPDFReader(reader io.Reader) (*[]string, error) {
	rAt, size, err := readerAtSize(reader)
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(rAt, size)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	numPages := r.NumPage()
	extractedRows := make([]string, 0, numPages*100)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		rows, err := page.GetTextByRow()
		if err != nil {
			logrus.WithField("page", no).Warnf("error getting text from page: %v", err)
			continue
		}

		for _, row := range rows {
			var builder strings.Builder
			for i, text := range row.Content {
				builder.WriteString(text.S)
				if i < len(row.Content)-1 {
					builder.WriteByte(' ')
				}
			}

			if builder.Len() > 0 {
				extractedRows = append(extractedRows, builder.String())
			}
		}
	}

	return &extractedRows, nil
}

// readerAtSize adapts reader for pdf.NewReader, which needs random access and
// the total size. Plain readers are buffered in memory.
func readerAtSize(reader io.Reader) (io.ReaderAt, int64, error) {
	if rAt, ok := reader.(io.ReaderAt); ok {
		seeker, ok := reader.(io.Seeker)
		if !ok {
			return nil, 0, errors.New("reader is io.ReaderAt but not io.Seeker, cannot determine size")
		}
		cur, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, fmt.Errorf("seeking pdf: %w", err)
		}
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seeking pdf: %w", err)
		}
		if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, fmt.Errorf("seeking pdf: %w", err)
		}
		return rAt, end, nil
	}

	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, fmt.Errorf("reading pdf: %w", err)
	}
	return bytes.NewReader(b), int64(len(b)), nil
}
