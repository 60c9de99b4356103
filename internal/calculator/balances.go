package calculator

// BillForCollection represents a bill with the minimal information needed to
// summarize collection.
type BillForCollection struct {
	UserID int64
	Amount int64
	Paid   bool
}

// Collection summarizes how much of a split bill has been collected.
// The host's own bill is excluded: the host does not pay themselves.
type Collection struct {
	Collected   int64
	Outstanding int64
	PaidBills   int
	UnpaidBills int
}

// Complete reports whether every participant other than the host has paid.
func (c Collection) Complete() bool {
	return c.UnpaidBills == 0
}

// Summarize aggregates bill statuses into collected and outstanding amounts.
func Summarize(bills []BillForCollection, hostID int64) Collection {
	var c Collection
	for _, b := range bills {
		if b.UserID == hostID {
			continue
		}
		if b.Paid {
			c.Collected += b.Amount
			c.PaidBills++
		} else {
			c.Outstanding += b.Amount
			c.UnpaidBills++
		}
	}
	return c
}
