package analyzer

// ScoreConfidence computes the structural confidence of st in [0,1] from
// capped weighted counts of chapters, subsections, placeholders, recorded
// styles and classified zones. It reads st without modifying it.
func ScoreConfidence(st *TemplateStructure, w ConfidenceWeights) float64 {
	styled := 0
	for _, f := range st.StyleRules {
		if !f.IsEmpty() {
			styled++
		}
	}
	classified := st.CountType(ZoneHeader) + st.CountType(ZoneContent)

	score := w.Chapters.score(len(st.Patterns[CategoryChapters])) +
		w.Subsections.score(len(st.Patterns[CategorySubsections])) +
		w.Placeholders.score(len(st.Patterns[CategoryPlaceholders])) +
		w.Styles.score(styled) +
		w.Classified.score(classified)

	return min(max(score/100, 0), 1)
}
