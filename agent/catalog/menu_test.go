package catalog

import (
	"strings"
	"testing"

	"voicechef/agent/store"
)

func TestFormatMenuGroupsByCategory(t *testing.T) {
	t.Parallel()

	mains := &store.Category{Name: "Mains"}
	drinks := &store.Category{Name: "Drinks"}
	items := []store.MenuItem{
		{Name: "Chicken Biryani", Price: 12.5, Category: mains},
		{Name: "Mango Lassi", Price: 4, Category: drinks},
		{Name: "Paneer Tikka", Price: 9, Category: mains},
		{Name: "Papadum", Price: 1.5},
	}

	got := FormatMenu("Spice Route", items)

	for _, want := range []string{
		"Menu for Spice Route:",
		"Mains:",
		"- Chicken Biryani: $12.50",
		"- Paneer Tikka: $9.00",
		"Drinks:",
		"- Mango Lassi: $4.00",
		"Other:",
		"- Papadum: $1.50",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("menu missing %q:\n%s", want, got)
		}
	}

	// Category order follows first appearance, so Mains precedes Drinks.
	if strings.Index(got, "Mains:") > strings.Index(got, "Drinks:") {
		t.Errorf("category order not preserved:\n%s", got)
	}
}
