package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cmsrag/internal/domain"
)

var (
	answerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	contextLimit = 500
)

func renderAnswer(w io.Writer, answer string) {
	fmt.Fprintln(w, answerStyle.Render(answer))
}

// renderContext lists the retrieved chunks with their provenance.
func renderContext(w io.Writer, result domain.RetrievalResult) {
	if len(result) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No context retrieved."))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Context (%d passages)", len(result))))
	for i, sc := range result {
		m := sc.Chunk.Metadata
		label := fmt.Sprintf("[%d] %s, page %d", i+1, m.FileName, m.Page)
		fmt.Fprintf(w, "%s %s\n", sourceStyle.Render(label), dimStyle.Render(fmt.Sprintf("(score: %.2f)", sc.Score)))
		fmt.Fprintln(w, truncate(strings.TrimSpace(sc.Chunk.Text), contextLimit))
		fmt.Fprintln(w)
	}
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
