package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/chef.txt
var chefRaw string

// PolicyVersion identifies the embedded ordering policy. Bump it when
// template/chef.txt changes behavior so rollouts can be correlated
// with transcript changes.
const PolicyVersion = "v1"

// Placeholder tokens in the chef template. Plain tokens rather than a
// templating language because menu text may itself contain braces.
const (
	slotRestaurant = "<<RESTAURANT>>"
	slotMenu       = "<<MENU>>"
)

// Chef returns the system prompt for one restaurant with its name and
// menu text substituted in. Safe to call concurrently; the embed is
// compile-time.
func Chef(restaurantName, menuText string) string {
	r := strings.NewReplacer(
		slotRestaurant, restaurantName,
		slotMenu, menuText,
	)
	return strings.TrimSpace(r.Replace(chefRaw))
}
