package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

var (
	// ErrUnsupportedFormat marks content that is neither PDF nor plain
	// text. Retrying cannot fix it.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument marks a document that yielded no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// FromBytes extracts text from an in-memory payload.
// PDF extraction uses github.com/ledongthuc/pdf.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	var err error
	switch {
	case isPDF(mimeType, fileName, data):
		text, err = extractPDF(data)
		if err != nil {
			return "", err
		}
	case isPlainText(mimeType, data):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, normalizeMimeType(mimeType))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func isPDF(mimeType, fileName string, data []byte) bool {
	if normalizeMimeType(mimeType) == mimePDF {
		return true
	}
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func isPlainText(mimeType string, data []byte) bool {
	if strings.HasPrefix(normalizeMimeType(mimeType), "text/") {
		return true
	}
	return len(data) > 0 && utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
