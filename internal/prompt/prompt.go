// Package prompt renders the grounding instructions sent to the model.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"cmsrag/internal/domain"
)

// NotFoundAnswer is the fixed reply when the context holds no answer.
const NotFoundAnswer = "I could not find that information in the provided documentation."

//go:embed templates/*.txt
var promptTemplates embed.FS

var systemTemplate = template.Must(
	template.New("system.txt").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/system.txt"),
)

type SystemData struct {
	Source   string
	NotFound string
	Chunks   []domain.Chunk
}

// System renders the system prompt for the given context chunks.
func System(source string, chunks []domain.Chunk) (string, error) {
	if source == "" {
		source = "provided documentation"
	}
	data := SystemData{
		Source:   source,
		NotFound: NotFoundAnswer,
		Chunks:   chunks,
	}

	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// FormatChunks labels each chunk with its position, page and source.
func FormatChunks(chunks []domain.Chunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&sb, "[%d] %s, page %d\n", i+1, c.Metadata.FileName, c.Metadata.Page)
		sb.WriteString(strings.TrimSpace(c.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatChunks": FormatChunks,
	}
}
