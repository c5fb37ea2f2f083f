// Package extract turns uploaded documents into plain text for the
// assistant's context.  Extraction failures are warnings by contract: the
// caller reports them to the user and leaves the thread untouched.
package extract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupported reports a document format this extractor cannot read.
var ErrUnsupported = errors.New("unsupported document format")

// Extractor produces plain text from an uploaded document.
type Extractor interface {
	Extract(filename string, r io.Reader) (string, error)
}

// PlainText extracts text-based documents.  Binary formats (PDF, DOCX,
// images) are the province of an external extraction service and come back
// as ErrUnsupported here.
type PlainText struct {
	// MaxBytes caps how much of a document is read; 0 means the default.
	MaxBytes int64
}

const defaultMaxBytes = 2 << 20

// Extract reads a plain-text document.
func (p PlainText) Extract(filename string, r io.Reader) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md", ".csv":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	max := p.MaxBytes
	if max <= 0 {
		max = defaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, max))
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", filename, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid text", ErrUnsupported, filename)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("extract: %s is empty", filename)
	}
	return text, nil
}
