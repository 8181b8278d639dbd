package calculator

import (
	"tabsplit/internal/models"
)

// PersonColors is the fixed palette used to tag people for display
// grouping, assigned round-robin in the order people are added.
var PersonColors = []string{
	"blue",
	"violet",
	"emerald",
	"orange",
	"pink",
	"cyan",
	"fuchsia",
	"lime",
	"red",
	"amber",
}

// NextColor returns the color for the next person to be added: the palette
// entry after the last currently-present person's color, wrapping around.
// It is a function of the current ordered list only, so removing people and
// re-adding changes future assignments.
func NextColor(existing []models.Person) string {
	if len(existing) == 0 {
		return PersonColors[0]
	}
	last := existing[len(existing)-1].Color
	lastIndex := -1
	for i, c := range PersonColors {
		if c == last {
			lastIndex = i
			break
		}
	}
	return PersonColors[(lastIndex+1)%len(PersonColors)]
}
