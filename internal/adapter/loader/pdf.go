package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// PDFLoader extracts text with poppler's pdftotext.
type PDFLoader struct {
	runner CommandRunner
}

// NewPDFLoader creates a PDFLoader. A nil runner uses os/exec.
func NewPDFLoader(runner CommandRunner) *PDFLoader {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDFLoader{runner: runner}
}

// Extract returns the text of each page in order.
func (p *PDFLoader) Extract(ctx context.Context, path string) ([]string, error) {
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("pdftotext not found: %w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	return splitPages(string(out)), nil
}

// InstallInstructions tells the user how to get pdftotext.
func InstallInstructions() string {
	return `PDF loading requires pdftotext (poppler).
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
