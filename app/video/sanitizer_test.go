package video

import (
	"testing"
)

func TestSanitize_HighlightSpans(t *testing.T) {
	result := Sanitize("<em class>Python</em> tutorial")

	if result != "Python tutorial" {
		t.Errorf("Expected 'Python tutorial', got '%s'", result)
	}
}

func TestSanitize_KeepsHighlightedText(t *testing.T) {
	result := Sanitize(`<em class="keyword">Go</em> concurrency patterns`)

	if result != "Go concurrency patterns" {
		t.Errorf("Expected 'Go concurrency patterns', got '%s'", result)
	}
}

func TestSanitize_RemovesRemainingTags(t *testing.T) {
	result := Sanitize(`<span>Intro</span> to <b>testing</b>`)

	if result != "Intro to testing" {
		t.Errorf("Expected 'Intro to testing', got '%s'", result)
	}
}

func TestSanitize_CollapsesWhitespace(t *testing.T) {
	result := Sanitize("  too \t many\n\nspaces  ")

	if result != "too many spaces" {
		t.Errorf("Expected 'too many spaces', got '%s'", result)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	if result := Sanitize(""); result != "N/A" {
		t.Errorf("Expected 'N/A' for empty input, got '%s'", result)
	}

	if result := Sanitize("<em></em>"); result != "N/A" {
		t.Errorf("Expected 'N/A' for markup-only input, got '%s'", result)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"<em class>Python</em> tutorial",
		"plain text",
		"  spaced   out  ",
		"<b>bold</b> and <i>italic</i>",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
