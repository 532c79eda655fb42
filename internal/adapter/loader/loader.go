// Package loader turns the source document into page units.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
)

// Format patterns, matched against the lowercased file name.
const (
	pdfPattern  = "**/*.pdf"
	textPattern = "**/*.{txt,md,text}"
)

// Source labels every page a loader produces.
type Source struct {
	Name    string
	DocType string
}

// Loader picks a format-specific reader by file name.
type Loader struct {
	source Source
	pdf    *PDFLoader
	text   *TextLoader
}

// New creates a Loader that runs pdftotext through runner.
// A nil runner uses os/exec.
func New(source Source, runner CommandRunner) *Loader {
	return &Loader{
		source: source,
		pdf:    NewPDFLoader(runner),
		text:   NewTextLoader(),
	}
}

// Load reads path and returns one Page per document page, numbered from 1.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: source document %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	var texts []string
	name := strings.ToLower(filepath.Base(path))
	switch {
	case match(pdfPattern, name):
		texts, err = l.pdf.Extract(ctx, path)
	case match(textPattern, name):
		texts, err = l.text.Extract(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %s", domain.ErrInvalidInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	pages := l.toPages(path, texts)
	logger.Debug("loaded %d pages from %s", len(pages), path)
	return pages, nil
}

func (l *Loader) toPages(path string, texts []string) []domain.Page {
	fileName := filepath.Base(path)
	pages := make([]domain.Page, len(texts))
	for i, text := range texts {
		pages[i] = domain.Page{
			Number: i + 1,
			Text:   text,
			Metadata: domain.Metadata{
				FileName:   fileName,
				Source:     l.source.Name,
				DocType:    l.source.DocType,
				Page:       i + 1,
				TotalPages: len(texts),
			},
		}
	}
	return pages
}

func match(pattern, name string) bool {
	ok, _ := doublestar.Match(pattern, name)
	return ok
}

// splitPages breaks extracted text on form feeds. A trailing empty page
// produced by a final form feed is dropped.
func splitPages(text string) []string {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = cleanText(p)
	}
	return parts
}

// cleanText strips characters that survive extraction but carry no content.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch r {
		case 0, '\uFFFD', '\r':
			return -1
		}
		return r
	}, s)
}
