package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/skelgen/internal/vnode"
)

// Parser converts raw document bytes into a markup tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*vnode.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".json":     true,
	".txt":      true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes parsers that need external settings.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("unsupported file extension: %q", filename)
	}
	return ForFormat(ext[1:], opts)
}

// ForFormat returns the parser for a format name ("html", "md", "json", ...).
func ForFormat(format string, opts Options) (Parser, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "html", "htm":
		return &HTMLParser{}, nil
	case "md", "markdown":
		return &MarkdownParser{}, nil
	case "json":
		return &JSONParser{}, nil
	case "txt", "text":
		return &TextParser{}, nil
	case "csv":
		return &CSVParser{}, nil
	case "pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case "docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatForContentType maps a request Content-Type to a format name.
func FormatForContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(ct)) {
	case "text/markdown", "text/x-markdown":
		return "md"
	case "application/json":
		return "json"
	case "text/plain":
		return "txt"
	case "text/csv":
		return "csv"
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	default:
		return "html"
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func textElement(tag, text string) *vnode.Node {
	return vnode.Element(tag, nil, vnode.Text(text))
}
