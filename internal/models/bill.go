package models

// Person represents one participant in the split.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string `json:"id"`

	// Name is the display label, trimmed of surrounding whitespace.
	Name string `json:"name"`

	// Color is one of the ten palette colors, assigned round-robin in the
	// order people are added. Display grouping only.
	Color string `json:"color"`
}

// BillItem represents a single priced line on the bill.
type BillItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name is the item's display text (e.g., "Pizza", "Beer").
	Name string `json:"name"`

	// Price is the pre-tax price of this item, at most 2 decimal places.
	Price float64 `json:"price"`

	// AssignedTo lists the person IDs who split this item equally.
	// An empty list means the item is split across everyone currently on
	// the bill; that default is resolved at calculation time, so the
	// effective payers track later people changes.
	AssignedTo []string `json:"assignedTo"`
}
