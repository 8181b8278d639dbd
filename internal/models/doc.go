// Package models defines the core domain types for tabsplit.
//
// # Models
//
//   - Person: a participant in the split, tagged with a palette color
//   - BillItem: one priced line on the bill, optionally assigned to a
//     subset of people
//   - BillSummary / PersonSummary / ItemShare: the fully-derived output of
//     the allocation engine, recomputed fresh on every change
//
// # Design Principles
//
//  1. **Ephemeral state**: people and items live only in session memory;
//     nothing here is persisted.
//  2. **Empty assignment means everyone**: a BillItem with an empty
//     AssignedTo set is split across all current people, resolved at
//     calculation time rather than stored.
//  3. **Avoid circular references**: items reference people by ID string,
//     never by pointer.
package models
