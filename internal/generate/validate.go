package generate

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docfill/internal/content"
)

const (
	minBodyChars  = 3
	maxBodyChars  = 20000
	maxTitleChars = 300
)

var validKinds = map[content.Kind]bool{
	content.KindChapterTitle:    true,
	content.KindSubsectionTitle: true,
	content.KindParagraph:       true,
	content.KindListItem:        true,
	content.KindTable:           true,
	content.KindEquation:        true,
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|` +
		`new\s+instructions|abaikan\s+(instruksi|perintah))`,
)

// ValidateItem reports whether a generated item may be inserted.
func ValidateItem(it content.Item) bool {
	if !validKinds[it.Kind] {
		return false
	}
	text := strings.TrimSpace(it.Text)
	n := len([]rune(text))
	if n < minBodyChars {
		return false
	}
	if it.Kind.IsTitle() {
		if n > maxTitleChars {
			return false
		}
	} else if n > maxBodyChars {
		return false
	}
	return !injectionPattern.MatchString(text)
}

// ValidateItems keeps the valid items in order and returns the ids it dropped.
func ValidateItems(items []content.Item) (kept []content.Item, dropped []string) {
	kept = make([]content.Item, 0, len(items))
	for _, it := range items {
		if ValidateItem(it) {
			kept = append(kept, it)
			continue
		}
		dropped = append(dropped, it.ID)
	}
	return kept, dropped
}
