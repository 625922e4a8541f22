package ai

import (
	"strings"

	"mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/textclean"
)

const (
	summaryFallbackLength = 180
	noSummary             = "No summary available."
)

// answerNoise strips formatting the model tends to wrap a one-word answer in
var answerNoise = strings.NewReplacer(
	".", "",
	"*", "",
	"`", "",
	"#", "",
	"\"", "",
	"'", "",
	"\r", " ",
	"\n", " ",
)

// parseCategory reads the category out of the first word of a model answer.
// Categories are tried in declaration order and the first hit wins.
func parseCategory(answer string) (domain.Category, bool) {
	fields := strings.Fields(answerNoise.Replace(answer))
	if len(fields) == 0 {
		return "", false
	}
	word := strings.ToLower(fields[0])
	for _, c := range domain.Categories {
		if strings.Contains(word, strings.ToLower(string(c))) {
			return c, true
		}
	}
	return "", false
}

// offlineCategory is used when no model can be reached
func offlineCategory(text string) domain.Category {
	if strings.Contains(strings.ToLower(text), "unsubscribe") {
		return domain.CategoryPromotional
	}
	return domain.CategoryBusiness
}

// unrecognizedCategory is used when the model answered something that is not a category
func unrecognizedCategory(text string) domain.Category {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "unsubscribe") &&
		!strings.Contains(lower, "order") &&
		!strings.Contains(lower, "invoice") {
		return domain.CategoryPromotional
	}
	return domain.CategoryBusiness
}

// fallbackSummary is the prefix of the normalized text
func fallbackSummary(text string) string {
	normalized := textclean.Normalize(text)
	if normalized == "" {
		return noSummary
	}
	return textclean.Truncate(normalized, summaryFallbackLength) + "..."
}
