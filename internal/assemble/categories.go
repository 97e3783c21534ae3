package assemble

import (
	"strings"

	"supplydesk/internal"
)

const OtherCategory = "Other"

// CategoryOrder is the order groups appear in an order document.
var CategoryOrder = []string{"Kitchen", "Bathroom", "Bedroom", "Living Room", "Laundry", "Balcony", OtherCategory}

// Group lists the positions of the request items that fall in a category.
type Group struct {
	Category string
	Items    []int
}

// CanonicalCategory maps a free-form category onto CategoryOrder.
func CanonicalCategory(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	for _, c := range CategoryOrder {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return OtherCategory
}

// GroupByCategory buckets items in canonical order, dropping empty groups.
// Items keep their request order inside a group.
func GroupByCategory(items []internal.LineItem) []Group {
	buckets := map[string][]int{}
	for i, item := range items {
		c := CanonicalCategory(item.Category)
		buckets[c] = append(buckets[c], i)
	}
	groups := make([]Group, 0, len(buckets))
	for _, c := range CategoryOrder {
		if len(buckets[c]) > 0 {
			groups = append(groups, Group{Category: c, Items: buckets[c]})
		}
	}
	return groups
}
