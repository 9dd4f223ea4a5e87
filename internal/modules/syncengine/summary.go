package syncengine

import "github.com/spes-app/core/internal/models"

const (
	summaryLimit  = 50
	emptySummary  = "New one"
	summarySuffix = "..."
)

// Summary formats the tooltip line for a marker: the category emoji
// followed by the report, truncated to 50 characters with an ellipsis.
// An empty report renders as "New one".
func Summary(report string, category models.Category) string {
	text := report
	if text == "" {
		text = emptySummary
	}
	if runes := []rune(text); len(runes) > summaryLimit {
		text = string(runes[:summaryLimit]) + summarySuffix
	}
	if category == "" {
		return text
	}
	return string(category) + " " + text
}
