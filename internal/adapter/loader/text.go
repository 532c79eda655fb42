package loader

import (
	"fmt"
	"os"
)

// TextLoader reads plain text and markdown files.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Extract returns the file split on form feeds, or the whole file as one page.
func (t *TextLoader) Extract(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return splitPages(string(data)), nil
}
