package analyzer

// ChapterSummary lists one chapter heading and its subsection titles.
type ChapterSummary struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Sections []string `json:"sections,omitempty"`
}

// Summary is a compact, serialisable digest of a TemplateStructure, used for
// content-generation prompts and the archive.
type Summary struct {
	Chapters       []ChapterSummary `json:"chapters"`
	Zones          map[ZoneType]int `json:"zones"`
	Placeholders   int              `json:"placeholders"`
	EstimatedWords int              `json:"estimated_words"`
	Confidence     float64          `json:"confidence"`
	Paragraphs     int              `json:"paragraphs"`
}

// Summary digests the structure.
func (s *TemplateStructure) Summary() Summary {
	out := Summary{
		Zones:      make(map[ZoneType]int),
		Confidence: s.Confidence,
		Paragraphs: s.ParagraphCount,
	}
	var current *ChapterSummary
	for _, z := range s.InOrder() {
		out.Zones[z.Type]++
		switch {
		case z.Type == ZoneHeader && z.Style.Chapter > 0 && z.Level == 0:
			out.Chapters = append(out.Chapters, ChapterSummary{Number: z.Style.Chapter, Title: z.Style.Title})
			current = &out.Chapters[len(out.Chapters)-1]
		case z.Type == ZoneHeader && z.Level > 0 && current != nil:
			current.Sections = append(current.Sections, z.Style.Title)
		case z.Type == ZonePlaceholder:
			out.Placeholders++
			if z.Placeholder != nil {
				out.EstimatedWords += z.Placeholder.EstimatedWords
			}
		}
	}
	return out
}
