package domain

import "strings"

// Category is the classification assigned to an enriched message
type Category string

const (
	CategoryBusiness    Category = "Business"
	CategoryPersonal    Category = "Personal"
	CategoryPromotional Category = "Promotional"
	CategorySpam        Category = "Spam"
)

// CategoryFilterAll disables category filtering on queries
const CategoryFilterAll = "All"

// Categories lists every category in matching priority order
var Categories = []Category{
	CategoryBusiness,
	CategoryPersonal,
	CategoryPromotional,
	CategorySpam,
}

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string {
	return string(c)
}
