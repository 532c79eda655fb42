package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize_FoldPlurals(t *testing.T) {
	tok := NewTokenizer(true)

	got := tok.Tokenize("The measure excludes planned readmissions")
	want := []string{"measure", "exclude", "planned", "readmission"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenizer_Tokenize_WithoutFolding(t *testing.T) {
	tok := NewTokenizer(false)

	got := tok.Tokenize("planned readmissions")
	want := []string{"planned", "readmissions"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestFoldPlural(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"categories", "category"},
		{"readmissions", "readmission"},
		{"diagnosis", "diagnosis"},
		{"status", "status"},
		{"class", "class"},
		{"cms", "cms"},
		{"days", "day"},
	}
	for _, tt := range tests {
		if got := foldPlural(tt.in); got != tt.want {
			t.Errorf("foldPlural(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("the quick brown fox")
	for _, token := range tokens {
		if token == "the" {
			t.Errorf("stopword 'the' should be removed, got %v", tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer(false)

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}
	if tok.CountTokens("") != 0 {
		t.Error("expected 0 count for empty input")
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(true)

	if tokens := tok.Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hospital-wide", 2},
		{"30-day readmission", 3},
		{"ICD-9-CM", 3},
		{"123numbers456", 1},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
