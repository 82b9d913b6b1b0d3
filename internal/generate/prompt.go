package generate

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docfill/internal/analyzer"
)

const SystemPrompt = `Anda adalah penulis akademik yang menyusun isi skripsi berbahasa Indonesia. ` +
	`Tulis dengan gaya formal, objektif dan sesuai kaidah ejaan yang berlaku.`

const GenerationPrompt = `Write the content of an Indonesian undergraduate thesis that follows the template outline below. Return ONE JSON object and nothing else.

Format:
{
  "chapter1": {
    "title": "PENDAHULUAN",
    "latar_belakang_title": "1.1 Latar Belakang",
    "latar_belakang": "paragraph one...\n\nparagraph two..."
  },
  "chapter2": { ... }
}

Rules:
- One key per chapter, named chapterN with N the chapter number from the outline
- Inside a chapter, "title" holds the chapter title without the "BAB N" prefix
- Each section gets a "<key>_title" entry with the numbered heading and a "<key>" entry with its body
- Section keys are lowercase with underscores, in outline order
- Separate paragraphs with a blank line; bullet lists start lines with "- "; tables use pipe rows
- Aim for the target length given per section
- Do NOT repeat template instructions or placeholder text`

// minSectionWords is the per-section target when the template gives no hint.
const minSectionWords = 150

// BuildPrompt renders the generation prompt for topic from a template summary.
func BuildPrompt(topic string, summary analyzer.Summary) string {
	var sb strings.Builder
	sb.WriteString(GenerationPrompt)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Topic: %q\n", strings.TrimSpace(topic))
	sb.WriteString("---\n")

	if len(summary.Chapters) == 0 {
		sb.WriteString("The template has no recognised chapters. Use the standard five chapters: ")
		sb.WriteString("PENDAHULUAN, TINJAUAN PUSTAKA, METODOLOGI PENELITIAN, HASIL DAN PEMBAHASAN, PENUTUP.\n")
		return sb.String()
	}

	per := sectionWords(summary)
	for _, ch := range summary.Chapters {
		fmt.Fprintf(&sb, "chapter%d: BAB %d %s\n", ch.Number, ch.Number, ch.Title)
		if len(ch.Sections) == 0 {
			fmt.Fprintf(&sb, "  (body, about %d words)\n", per)
		}
		for _, s := range ch.Sections {
			fmt.Fprintf(&sb, "  - %s (about %d words)\n", s, per)
		}
	}
	return sb.String()
}

// sectionWords spreads the template's estimated length over its sections.
func sectionWords(summary analyzer.Summary) int {
	n := 0
	for _, ch := range summary.Chapters {
		if len(ch.Sections) == 0 {
			n++
		}
		n += len(ch.Sections)
	}
	if n == 0 || summary.EstimatedWords == 0 {
		return minSectionWords
	}
	return max(minSectionWords, summary.EstimatedWords/n)
}
