package calculator

import (
	"testing"
)

const (
	alice   int64 = 1
	bob     int64 = 2
	charlie int64 = 3
)

func sumTotals(splits map[int64]*PersonSplit) int64 {
	var sum int64
	for _, s := range splits {
		sum += s.Total
	}
	return sum
}

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		billTotal    int64
		billSubtotal int64
		participants []int64
		wantErr      bool
		validateFunc func(t *testing.T, splits map[int64]*PersonSplit)
	}{
		{
			name: "simple two-person split with tax",
			items: []Item{
				{Description: "Bakmi", Amount: 20000, AssignedTo: []int64{alice, bob}},
				{Description: "Es Teh", Amount: 10000, AssignedTo: []int64{alice}},
			},
			billTotal:    33000,
			billSubtotal: 30000,
			participants: []int64{alice, bob},
			validateFunc: func(t *testing.T, splits map[int64]*PersonSplit) {
				// Alice: subtotal = 10000 + 10000 = 20000, tax = 2000, total = 22000
				// Bob: subtotal = 10000, tax = 1000, total = 11000
				if got := splits[alice]; got.Subtotal != 20000 || got.Tax != 2000 || got.Total != 22000 {
					t.Errorf("Alice = %+v, want {20000 2000 22000}", *got)
				}
				if got := splits[bob]; got.Subtotal != 10000 || got.Tax != 1000 || got.Total != 11000 {
					t.Errorf("Bob = %+v, want {10000 1000 11000}", *got)
				}
			},
		},
		{
			name:         "zero subtotal should error",
			items:        []Item{{Description: "Item", Amount: 10000, AssignedTo: []int64{alice}}},
			billTotal:    10000,
			billSubtotal: 0,
			participants: []int64{alice},
			wantErr:      true,
		},
		{
			name:         "no participants should error",
			billTotal:    10000,
			billSubtotal: 10000,
			participants: []int64{},
			wantErr:      true,
		},
		{
			name:         "item assigned to stranger should error",
			items:        []Item{{Description: "Item", Amount: 10000, AssignedTo: []int64{charlie}}},
			billTotal:    10000,
			billSubtotal: 10000,
			participants: []int64{alice},
			wantErr:      true,
		},
		{
			name:         "no items - three people split with rounding residue",
			billTotal:    100000,
			billSubtotal: 100000,
			participants: []int64{alice, bob, charlie},
			validateFunc: func(t *testing.T, splits map[int64]*PersonSplit) {
				// 100000 / 3 = 33333.33, one rupiah of residue goes to the first participant
				if splits[alice].Total != 33334 {
					t.Errorf("Alice total = %d, want 33334", splits[alice].Total)
				}
				if splits[bob].Total != 33333 || splits[charlie].Total != 33333 {
					t.Errorf("Bob/Charlie totals = %d/%d, want 33333", splits[bob].Total, splits[charlie].Total)
				}
				if sum := sumTotals(splits); sum != 100000 {
					t.Errorf("sum of totals = %d, want 100000", sum)
				}
			},
		},
		{
			name:         "no items - tax split equally",
			billTotal:    90000,
			billSubtotal: 75000,
			participants: []int64{alice, bob, charlie},
			validateFunc: func(t *testing.T, splits map[int64]*PersonSplit) {
				for _, p := range []int64{alice, bob, charlie} {
					if got := splits[p]; got.Subtotal != 25000 || got.Tax != 5000 || got.Total != 30000 {
						t.Errorf("participant %d = %+v, want {25000 5000 30000}", p, *got)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := CalculateSplit(tt.items, tt.billTotal, tt.billSubtotal, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalculateSplit() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	bills := []BillForCollection{
		{UserID: alice, Amount: 50000, Paid: false}, // host
		{UserID: bob, Amount: 30000, Paid: true},
		{UserID: charlie, Amount: 20000, Paid: false},
	}

	c := Summarize(bills, alice)
	if c.Collected != 30000 || c.Outstanding != 20000 {
		t.Errorf("collected/outstanding = %d/%d, want 30000/20000", c.Collected, c.Outstanding)
	}
	if c.Complete() {
		t.Error("expected collection to be incomplete")
	}

	bills[2].Paid = true
	if !Summarize(bills, alice).Complete() {
		t.Error("expected collection to be complete once every guest paid")
	}
}
