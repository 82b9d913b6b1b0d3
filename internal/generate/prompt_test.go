package generate

import (
	"strings"
	"testing"

	"github.com/dgallion1/docfill/internal/analyzer"
)

func TestBuildPrompt_ListsChaptersAndSections(t *testing.T) {
	summary := analyzer.Summary{
		Chapters: []analyzer.ChapterSummary{
			{Number: 1, Title: "PENDAHULUAN", Sections: []string{"Latar Belakang", "Rumusan Masalah"}},
			{Number: 2, Title: "TINJAUAN PUSTAKA"},
		},
		EstimatedWords: 900,
	}
	p := BuildPrompt("  Sistem informasi perpustakaan  ", summary)

	for _, want := range []string{
		`Topic: "Sistem informasi perpustakaan"`,
		"chapter1: BAB 1 PENDAHULUAN",
		"  - Latar Belakang (about 300 words)",
		"  - Rumusan Masalah (about 300 words)",
		"chapter2: BAB 2 TINJAUAN PUSTAKA",
		"  (body, about 300 words)",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasPrefix(p, GenerationPrompt) {
		t.Error("prompt should start with the generation instructions")
	}
}

func TestBuildPrompt_NoChapters(t *testing.T) {
	p := BuildPrompt("topik", analyzer.Summary{})
	if !strings.Contains(p, "standard five chapters") {
		t.Errorf("expected fallback outline, got %q", p)
	}
}

func TestSectionWords_Floor(t *testing.T) {
	summary := analyzer.Summary{
		Chapters:       []analyzer.ChapterSummary{{Number: 1, Sections: []string{"a", "b", "c", "d"}}},
		EstimatedWords: 200,
	}
	if got := sectionWords(summary); got != minSectionWords {
		t.Errorf("expected floor %d, got %d", minSectionWords, got)
	}
}
