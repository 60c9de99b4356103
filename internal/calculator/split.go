// Package calculator computes participants' shares of a split bill and
// summarizes how much of a split bill has been collected.
package calculator

import (
	"fmt"
	"math"
	"sort"
)

// PersonSplit represents the calculated share for one participant, in rupiah.
type PersonSplit struct {
	Subtotal int64
	Tax      int64
	Total    int64
}

// Item represents a single item on the bill
type Item struct {
	Description string
	Amount      int64
	AssignedTo  []int64
}

// CalculateSplit computes how much each participant owes including proportional tax.
// Based on the algorithm: person_total = person_subtotal × (1 + (total_tax / bill_subtotal))
//
// Shares are whole rupiah. Rounding residue goes to the participants with the
// largest fractional parts so the shares add up to the rounded exact total.
func CalculateSplit(items []Item, billTotal, billSubtotal int64, participants []int64) (map[int64]*PersonSplit, error) {
	if billSubtotal <= 0 {
		return nil, fmt.Errorf("subtotal must be positive")
	}
	if billTotal < billSubtotal {
		return nil, fmt.Errorf("total cannot be less than subtotal")
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	subtotals := make(map[int64]float64, len(participants))
	for _, p := range participants {
		if _, dup := subtotals[p]; dup {
			return nil, fmt.Errorf("participant %d listed twice", p)
		}
		subtotals[p] = 0
	}

	// If no items, split the subtotal equally among all participants
	if len(items) == 0 {
		per := float64(billSubtotal) / float64(len(participants))
		for p := range subtotals {
			subtotals[p] = per
		}
	}

	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}
		per := float64(item.Amount) / float64(len(item.AssignedTo))
		for _, person := range item.AssignedTo {
			if _, ok := subtotals[person]; !ok {
				return nil, fmt.Errorf("item %q assigned to non-participant %d", item.Description, person)
			}
			subtotals[person] += per
		}
	}

	ratio := float64(billTotal) / float64(billSubtotal)
	totals := make(map[int64]float64, len(participants))
	for p, sub := range subtotals {
		totals[p] = sub * ratio
	}

	roundedSub := largestRemainder(subtotals, participants)
	roundedTotal := largestRemainder(totals, participants)

	splits := make(map[int64]*PersonSplit, len(participants))
	for _, p := range participants {
		splits[p] = &PersonSplit{
			Subtotal: roundedSub[p],
			Tax:      roundedTotal[p] - roundedSub[p],
			Total:    roundedTotal[p],
		}
	}
	return splits, nil
}

// largestRemainder rounds every value down, then hands out the missing units
// to the largest fractional parts. Ties go to the earlier participant.
func largestRemainder(values map[int64]float64, order []int64) map[int64]int64 {
	var sum float64
	result := make(map[int64]int64, len(values))
	type frac struct {
		person int64
		rank   int
		part   float64
	}
	fracs := make([]frac, 0, len(order))
	var floored int64
	for i, p := range order {
		v := values[p]
		sum += v
		f := math.Floor(v)
		result[p] = int64(f)
		floored += int64(f)
		fracs = append(fracs, frac{person: p, rank: i, part: v - f})
	}

	missing := int64(math.Round(sum)) - floored
	sort.SliceStable(fracs, func(i, j int) bool {
		if fracs[i].part != fracs[j].part {
			return fracs[i].part > fracs[j].part
		}
		return fracs[i].rank < fracs[j].rank
	})
	for i := int64(0); i < missing && int(i) < len(fracs); i++ {
		result[fracs[i].person]++
	}
	return result
}
