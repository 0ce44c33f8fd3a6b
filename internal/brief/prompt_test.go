package brief

import (
	"strings"
	"testing"
)

func testMedia() SourceMedia {
	return SourceMedia{
		ID:          "dQw4w9WgXcQ",
		Title:       "Rainbow slime mixing",
		Description: "Satisfying slime sounds for sleep.",
		Channel:     "Calm Corner",
		Views:       123456,
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	media := testMedia()

	first := BuildPrompt(media, VariantSingle)
	second := BuildPrompt(media, VariantSingle)

	if first != second {
		t.Error("BuildPrompt produced different output for identical input")
	}
}

func TestBuildPrompt_ContainsMediaAndContract(t *testing.T) {
	media := testMedia()
	prompt := BuildPrompt(media, VariantSingle)

	for _, want := range []string{
		media.Title,
		media.Channel,
		media.Description,
		MarkerTag,
		"titleEnglish",
		"titleLocal",
		"primaryPrompt",
		"scriptEnglish",
		"scriptLocal",
		"tags",
		"comment",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	for _, banned := range vendorDenylist {
		if !strings.Contains(prompt, banned) {
			t.Errorf("prompt does not name denylisted vendor %q", banned)
		}
	}
}

func TestBuildPrompt_VariantControlsSecondaryPrompt(t *testing.T) {
	media := testMedia()

	single := BuildPrompt(media, VariantSingle)
	dual := BuildPrompt(media, VariantDual)

	if strings.Contains(single, "secondaryPrompt") {
		t.Error("single-variant prompt should not mention secondaryPrompt")
	}
	if !strings.Contains(dual, "secondaryPrompt") {
		t.Error("dual-variant prompt should mention secondaryPrompt")
	}
}

func TestBuildPrompt_TruncatesLongDescription(t *testing.T) {
	media := testMedia()
	media.Description = strings.Repeat("水", descriptionLimit+50)

	prompt := BuildPrompt(media, VariantSingle)

	if strings.Contains(prompt, media.Description) {
		t.Error("full description should have been truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("水", descriptionLimit)+"...") {
		t.Error("truncated description with ellipsis should be present")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{name: "short string unchanged", input: "abc", n: 10, expected: "abc"},
		{name: "exact length unchanged", input: "abc", n: 3, expected: "abc"},
		{name: "ascii truncated", input: "abcdef", n: 3, expected: "abc..."},
		{name: "multibyte truncated on rune boundary", input: "史萊姆很療癒", n: 3, expected: "史萊姆..."},
		{name: "empty string", input: "", n: 5, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateRunes(tt.input, tt.n)
			if result != tt.expected {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.input, tt.n, result, tt.expected)
			}
		})
	}
}
