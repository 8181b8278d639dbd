// Package calculator implements the bill allocation engine: pure,
// stateless computation of each person's fair share of an itemized bill,
// including proportional tax and tip.
package calculator

import (
	"tabsplit/internal/models"
)

// CalculateSplit computes how much each person owes, with a per-item
// breakdown and proportional shares of tax and tip.
//
// Each item is split equally across its payers. An item with an empty
// AssignedTo list is split across all current people. Tax and tip are
// distributed in proportion to each person's share of the subtotal; when
// the subtotal is zero they fall back to an equal split.
//
// The function is total: every input combination, including zero items or
// zero people, produces a well-defined (possibly all-zero) summary. Inputs
// are never mutated. Shares are kept as exact float divisions; rounding to
// cents is a display concern.
func CalculateSplit(items []models.BillItem, people []models.Person, tax, tipAmount float64) models.BillSummary {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price
	}

	personSubtotals := make(map[string]float64, len(people))
	personItems := make(map[string][]models.ItemShare, len(people))
	everyone := make([]string, len(people))
	for i, p := range people {
		personSubtotals[p.ID] = 0
		everyone[i] = p.ID
	}

	for _, item := range items {
		payers := item.AssignedTo
		if len(payers) == 0 {
			payers = everyone
		}
		if len(payers) == 0 {
			// No explicit payers and no people on the bill.
			continue
		}

		shareAmount := item.Price / float64(len(payers))
		shared := len(payers) > 1

		for _, personID := range payers {
			if _, known := personSubtotals[personID]; !known {
				// Dangling assignment; the id no longer names a person.
				continue
			}
			personSubtotals[personID] += shareAmount
			entry := models.ItemShare{
				Name:   item.Name,
				Amount: shareAmount,
				Shared: shared,
			}
			if shared {
				entry.SharedWith = len(payers)
			}
			personItems[personID] = append(personItems[personID], entry)
		}
	}

	perPerson := make([]models.PersonSummary, len(people))
	for i, person := range people {
		personSubtotal := personSubtotals[person.ID]

		proportion := 1 / float64(len(people))
		if subtotal > 0 {
			proportion = personSubtotal / subtotal
		}
		personTax := tax * proportion
		personTip := tipAmount * proportion

		perPerson[i] = models.PersonSummary{
			PersonID:   person.ID,
			PersonName: person.Name,
			Items:      personItems[person.ID],
			Subtotal:   personSubtotal,
			Tax:        personTax,
			Tip:        personTip,
			Total:      personSubtotal + personTax + personTip,
		}
	}

	return models.BillSummary{
		PerPerson: perPerson,
		TotalBill: subtotal + tax + tipAmount,
		Subtotal:  subtotal,
		Tax:       tax,
		Tip:       tipAmount,
	}
}
