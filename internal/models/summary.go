package models

// ItemShare is one person's slice of a single item.
type ItemShare struct {
	// Name is the item's display text.
	Name string `json:"name"`

	// Amount is this person's share of the item's price.
	Amount float64 `json:"amount"`

	// Shared is true when more than one person pays for the item.
	Shared bool `json:"shared"`

	// SharedWith is the number of payers when Shared, zero otherwise.
	SharedWith int `json:"sharedWith,omitempty"`
}

// PersonSummary is one person's calculated share of the bill.
type PersonSummary struct {
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`

	// Items lists this person's share of each item assigned to them, in
	// bill order.
	Items []ItemShare `json:"items"`

	// Subtotal is the sum of this person's item shares (pre-tax).
	Subtotal float64 `json:"subtotal"`

	// Tax and Tip are this person's proportional slices of the bill-level
	// tax and tip.
	Tax float64 `json:"tax"`
	Tip float64 `json:"tip"`

	// Total is what this person owes: subtotal + tax + tip.
	Total float64 `json:"total"`
}

// BillSummary is the output of the allocation engine: a fully-derived
// breakdown, never persisted and recomputed fresh on every change.
type BillSummary struct {
	// PerPerson holds one summary per person, in the order people were
	// added to the bill.
	PerPerson []PersonSummary `json:"perPerson"`

	// TotalBill is subtotal + tax + tip.
	TotalBill float64 `json:"totalBill"`

	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
}
