package model

import "strings"

// Category is a reference to a category owned by the external budgeting service.
type Category struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// SameCategory compares two category titles ignoring case and surrounding space.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindCategory looks up a category by title.
func FindCategory(categories []Category, title string) (Category, bool) {
	for _, cat := range categories {
		if SameCategory(cat.Title, title) {
			return cat, true
		}
	}
	return Category{}, false
}

// CategoryTitles returns the titles of the given categories in order.
func CategoryTitles(categories []Category) []string {
	titles := make([]string, 0, len(categories))
	for _, cat := range categories {
		titles = append(titles, cat.Title)
	}
	return titles
}
