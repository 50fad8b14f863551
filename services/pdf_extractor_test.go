package services

import (
	"strings"
	"testing"
)

func TestCleanTextCollapsesNewlineRuns(t *testing.T) {
	got := CleanText("line one here\n\n\n\nline two here")
	want := "line one here\nline two here"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextCollapsesHorizontalWhitespace(t *testing.T) {
	got := CleanText("words   spread\t\tout  here")
	want := "words spread out here"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextStripsControlCharacters(t *testing.T) {
	got := CleanText("before\x00middle\x07after\x1fdone")
	want := "beforemiddleafterdone"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

// Lines shorter than three characters after trimming are extraction
// debris and get dropped.
func TestCleanTextDropsShortLines(t *testing.T) {
	got := CleanText("Hi\nThis is a real line\nOK\nAnother real line")
	want := "This is a real line\nAnother real line"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextTrimsLineEdges(t *testing.T) {
	got := CleanText("  padded line  \n x ")
	want := "padded line"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextEmptyInput(t *testing.T) {
	if got := CleanText(""); got != "" {
		t.Fatalf("CleanText(\"\") = %q", got)
	}
	if got := CleanText("   \n\t  "); got != "" {
		t.Fatalf("CleanText(whitespace) = %q", got)
	}
}

func TestCleanTextKeepsPageMarkers(t *testing.T) {
	got := CleanText("\n--- Page 1 ---\nFirst page content here\n--- Page 2 ---\nSecond page content here")
	want := "--- Page 1 ---\nFirst page content here\n--- Page 2 ---\nSecond page content here"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

// CR and CRLF both become \n, control characters vanish, tabs survive.
func TestSanitizeNormalizesLineEndings(t *testing.T) {
	got := sanitize("a line\r\nanother\rlast\x00one\tkept")
	want := "a line\nanother\nlastone\tkept"
	if got != want {
		t.Fatalf("sanitize = %q, want %q", got, want)
	}
}

func TestEvaluateTextQuality(t *testing.T) {
	prose := "The quick brown fox jumps over the lazy dog. It was a sunny day and everything was calm. Nothing else happened."
	if score := evaluateTextQuality(prose); score < 0.7 {
		t.Fatalf("prose scored %f, expected at least 0.7", score)
	}

	garbage := strings.Repeat("�", 50)
	if score := evaluateTextQuality(garbage); score >= 0.3 {
		t.Fatalf("replacement-character garbage scored %f", score)
	}

	if score := evaluateTextQuality(""); score != 0 {
		t.Fatalf("empty text scored %f", score)
	}

	if score := evaluateTextQuality("hi"); score != 0.1 {
		t.Fatalf("tiny text scored %f, want 0.1", score)
	}
}
