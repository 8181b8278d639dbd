package calculator

// TipFromPercent converts a tip percentage into an absolute amount.
// Tip is calculated on the pre-tax subtotal only: the tax argument is
// accepted for call-site symmetry and never affects the result.
func TipFromPercent(subtotal, tax, percent float64) float64 {
	return subtotal * (percent / 100)
}
