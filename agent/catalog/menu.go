package catalog

import (
	"fmt"
	"strings"

	"voicechef/agent/store"
)

// FormatMenu renders the menu as speakable text, grouped by category
// in the order categories first appear. Items without a category land
// under "Other".
func FormatMenu(restaurantName string, items []store.MenuItem) string {
	var order []string
	grouped := make(map[string][]store.MenuItem)
	for _, it := range items {
		cat := "Other"
		if it.Category != nil && it.Category.Name != "" {
			cat = it.Category.Name
		}
		if _, ok := grouped[cat]; !ok {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], it)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Menu for %s:\n", restaurantName)
	for _, cat := range order {
		fmt.Fprintf(&b, "\n%s:\n", cat)
		for _, it := range grouped[cat] {
			fmt.Fprintf(&b, "- %s: $%.2f\n", it.Name, it.Price)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
