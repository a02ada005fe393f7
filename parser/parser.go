package parser

import (
	"context"
	"errors"
)

// ErrUnknownFormat is returned by the registry for unsupported extensions.
var ErrUnknownFormat = errors.New("parser: unsupported document format")

// Document is the text content extracted from a file.
type Document struct {
	Text   string // full plain text, paragraphs separated by blank lines
	Format string // txt, md, pdf, docx
	Pages  int    // page count where the format has pages, else 0
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*Document, error)
	SupportedFormats() []string
}
