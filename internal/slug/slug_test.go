package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single word", input: "Design", want: "design"},
		{name: "two words", input: "Hello World", want: "hello-world"},
		{name: "seed title", input: "Migrating to Linear 101", want: "migrating-to-linear-101"},
		{name: "dotted name", input: "Building with React and Next.js", want: "building-with-react-and-next-js"},
		{name: "punctuation runs collapse", input: "Hello,   World!!  How's it going?", want: "hello-world-how-s-it-going"},
		{name: "leading and trailing symbols", input: "  --Rock & Roll--  ", want: "rock-roll"},
		{name: "accents transliterated", input: "Café Déjà Vu", want: "cafe-deja-vu"},
		{name: "german umlaut", input: "Über Größe", want: "uber-gro-e"},
		{name: "non latin dropped", input: "日本語 Go", want: "go"},
		{name: "only symbols", input: "!!!", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "underscores become hyphens", input: "snake_case_title", want: "snake-case-title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Fatalf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	input := "UX Review Presentations"
	first := Generate(input)
	for i := 0; i < 5; i++ {
		if got := Generate(input); got != first {
			t.Fatalf("expected %q on every call, got %q", first, got)
		}
	}
}

func TestGenerateTruncatesToMaxLength(t *testing.T) {
	got := Generate(strings.Repeat("ab ", 200))
	if len(got) > MaxLength {
		t.Fatalf("expected at most %d chars, got %d", MaxLength, len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("truncated slug must not end with a hyphen: %q", got)
	}
	if !Valid(got) {
		t.Fatalf("truncated slug should stay valid: %q", got)
	}
}

func TestValid(t *testing.T) {
	valid := []string{"design", "design-1", "a1-b2-c3"}
	invalid := []string{"", "Design", "design-", "-design", "design--1", "design_1", "désign"}

	for _, s := range valid {
		if !Valid(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if Valid(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("design", 0); got != "design" {
		t.Fatalf("expected base slug, got %q", got)
	}
	if got := WithSuffix("design", 1); got != "design-1" {
		t.Fatalf("expected design-1, got %q", got)
	}
	if got := WithSuffix("design", 12); got != "design-12" {
		t.Fatalf("expected design-12, got %q", got)
	}

	long := strings.Repeat("a", MaxLength)
	got := WithSuffix(long, 3)
	if len(got) != MaxLength || !strings.HasSuffix(got, "-3") {
		t.Fatalf("expected suffixed slug trimmed to %d chars, got %d (%q)", MaxLength, len(got), got[len(got)-4:])
	}
}
