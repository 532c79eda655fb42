package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"cmsrag/internal/domain"
)

// DefaultSeparators go from paragraph break down to single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveChunker splits page text on the coarsest separator present and
// only falls back to finer separators for pieces that are still too long.
// Sizes are counted in characters.
type RecursiveChunker struct {
	maxSize    int
	overlap    int
	separators []string
}

// NewRecursiveChunker validates the sizes. The character separator "" is
// always tried last so no chunk can exceed maxSize.
func NewRecursiveChunker(maxSize, overlap int, separators []string) (*RecursiveChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidInput, overlap, maxSize)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	seps := append([]string(nil), separators...)
	if seps[len(seps)-1] != "" {
		seps = append(seps, "")
	}
	return &RecursiveChunker{
		maxSize:    maxSize,
		overlap:    overlap,
		separators: seps,
	}, nil
}

// Chunk splits pages into chunks numbered in document order.
func Chunk(pages []domain.Page, maxSize, overlap int) ([]domain.Chunk, error) {
	c, err := NewRecursiveChunker(maxSize, overlap, nil)
	if err != nil {
		return nil, err
	}
	return c.Chunk(pages)
}

// Chunk splits every page and copies the page metadata onto its chunks.
func (c *RecursiveChunker) Chunk(pages []domain.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	seq := 0

	for _, page := range pages {
		prev := ""
		for _, text := range c.SplitText(page.Text) {
			chunk := domain.Chunk{
				ID:       generateChunkID(page.Metadata.FileName, page.Number, seq),
				Seq:      seq,
				Text:     text,
				Length:   utf8.RuneCountInString(text),
				Overlap:  sharedBoundary(prev, text, c.overlap),
				Metadata: page.Metadata,
			}
			chunks = append(chunks, chunk)
			prev = text
			seq++
		}
	}

	return chunks, nil
}

// SplitText returns the trimmed, non-empty chunks of text.
func (c *RecursiveChunker) SplitText(text string) []string {
	return c.split(text, c.separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < c.maxSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, c.merge(small)...)
			small = nil
		}
		if len(finer) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				out = append(out, t)
			}
			continue
		}
		out = append(out, c.split(piece, finer)...)
	}
	if len(small) > 0 {
		out = append(out, c.merge(small)...)
	}
	return out
}

// merge packs small pieces greedily into chunks of at most maxSize. After a
// chunk is emitted, leading pieces are dropped until the carried tail fits
// in the overlap window.
func (c *RecursiveChunker) merge(pieces []string) []string {
	var out, current []string
	total := 0

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > c.maxSize {
			if len(current) > 0 {
				if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
					out = append(out, doc)
				}
				for total > c.overlap || (total+n > c.maxSize && total > 0) {
					total -= utf8.RuneCountInString(current[0])
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += n
	}

	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeepSeparator splits text on sep, keeping each separator at the start
// of the piece that follows it. The empty separator yields single characters.
func splitKeepSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	for i, part := range parts {
		if i > 0 {
			part = sep + part
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// sharedBoundary returns the length of the longest suffix of prev, at most
// limit characters, that is also a prefix of next.
func sharedBoundary(prev, next string, limit int) int {
	if prev == "" || next == "" || limit <= 0 {
		return 0
	}
	p := []rune(prev)
	n := []rune(next)
	k := min(limit, len(p), len(n))
	for ; k > 0; k-- {
		if string(p[len(p)-k:]) == string(n[:k]) {
			return k
		}
	}
	return 0
}

func generateChunkID(fileName string, page, seq int) string {
	data := fmt.Sprintf("%s:%d:%d", fileName, page, seq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
