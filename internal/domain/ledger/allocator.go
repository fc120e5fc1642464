package ledger

import (
	"sort"
	"time"

	"kardex/internal/core/types"
)

// DefaultLocation is assigned to movements whose batch carries no location.
const DefaultLocation = "Main Store"

// Allocate produces an ordered FIFO plan for deducting requested units from
// the given batch balances. Batches are consumed in ascending expiry order,
// with never-expiring stock (no expiry date) taken last. Batches that are
// empty or already expired as of today are skipped.
//
// If the dated and undated batches together cannot cover the request, the
// final allocation has a nil Batch: the remainder comes from historical
// stock that predates batch tracking.
//
// Allocate is pure; it performs no I/O and never mutates its inputs.
func Allocate(balances []BatchBalance, requested types.Quantity, today time.Time) []Allocation {
	day := truncateToDay(today)

	available := make([]BatchBalance, 0, len(balances))
	for _, b := range balances {
		if !b.Balance.IsPositive() {
			continue
		}
		if b.Expired(day) {
			continue
		}
		available = append(available, b)
	}

	sort.SliceStable(available, func(i, j int) bool {
		ei, ej := available[i].ExpiryDate, available[j].ExpiryDate
		switch {
		case ei == nil && ej == nil:
			return available[i].BatchNumber < available[j].BatchNumber
		case ei == nil:
			return false
		case ej == nil:
			return true
		case ei.Equal(*ej):
			return available[i].BatchNumber < available[j].BatchNumber
		default:
			return ei.Before(*ej)
		}
	})

	remaining := requested
	var plan []Allocation

	for i := range available {
		if !remaining.IsPositive() {
			break
		}
		b := available[i]
		take := b.Balance
		if take.GreaterThan(remaining) {
			take = remaining
		}
		plan = append(plan, Allocation{Batch: &available[i], Quantity: take})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		plan = append(plan, Allocation{Batch: nil, Quantity: remaining})
	}

	return plan
}
