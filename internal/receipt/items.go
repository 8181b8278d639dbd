package receipt

import (
	"math"
	"strings"
)

// cleanItems drops entries without a usable name or a strictly positive
// price, trims names, and rounds prices to 2 decimal places so the engine
// only ever sees cent-precision inputs.
func cleanItems(items []Item) []Item {
	cleaned := make([]Item, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Price <= 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			continue
		}
		cleaned = append(cleaned, Item{
			Name:  name,
			Price: math.Round(item.Price*100) / 100,
		})
	}
	return cleaned
}
