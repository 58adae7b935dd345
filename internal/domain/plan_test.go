package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPaymentPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    PaymentPlan
		wantErr string
	}{
		{
			name: "valid",
			plan: PaymentPlan{Deposit: 20, Count: 2, Interval: 1},
		},
		{
			name:    "zero instalments",
			plan:    PaymentPlan{Deposit: 20, Count: 0, Interval: 1},
			wantErr: "set at least one instalment",
		},
		{
			name:    "zero deposit",
			plan:    PaymentPlan{Deposit: 0, Count: 2, Interval: 1},
			wantErr: "set an initial deposit",
		},
		{
			name:    "deposit over 100 percent",
			plan:    PaymentPlan{Deposit: 101, Count: 2, Interval: 1},
			wantErr: "the deposit cannot exceed 100 percent",
		},
		{
			name:    "zero interval",
			plan:    PaymentPlan{Deposit: 20, Count: 2, Interval: 0},
			wantErr: "set the number of months between instalments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestPaymentPlanDepositAmount(t *testing.T) {
	plan := PaymentPlan{Deposit: 20, Count: 2, Interval: 1}

	got := plan.DepositAmount(money("100"))

	assert.True(t, got.Equal(money("20.00")), "got %s", got)
}

func TestPaymentPlanInstalments(t *testing.T) {
	tests := []struct {
		name  string
		plan  PaymentPlan
		due   time.Time
		total decimal.Decimal
		want  []ScheduledPayment
	}{
		{
			name:  "simple two instalments",
			plan:  PaymentPlan{Deposit: 20, Count: 2, Interval: 1},
			due:   date(2015, time.January, 2),
			total: money("100"),
			want: []ScheduledPayment{
				{Due: date(2015, time.February, 1), Amount: money("40.00")},
				{Due: date(2015, time.March, 1), Amount: money("40.00")},
			},
		},
		{
			name:  "last instalment absorbs rounding residual",
			plan:  PaymentPlan{Deposit: 50, Count: 3, Interval: 2},
			due:   date(2015, time.January, 2),
			total: money("200"),
			want: []ScheduledPayment{
				{Due: date(2015, time.March, 1), Amount: money("33.33")},
				{Due: date(2015, time.May, 1), Amount: money("33.33")},
				{Due: date(2015, time.July, 1), Amount: money("33.34")},
			},
		},
		{
			name:  "deposit after the 15th pushes first instalment out a month",
			plan:  PaymentPlan{Deposit: 20, Count: 2, Interval: 1},
			due:   date(2015, time.January, 22),
			total: money("100"),
			want: []ScheduledPayment{
				{Due: date(2015, time.March, 1), Amount: money("40.00")},
				{Due: date(2015, time.April, 1), Amount: money("40.00")},
			},
		},
		{
			name:  "interval spans the year boundary",
			plan:  PaymentPlan{Deposit: 10, Count: 3, Interval: 3},
			due:   date(2015, time.November, 20),
			total: money("900"),
			want: []ScheduledPayment{
				{Due: date(2016, time.March, 1), Amount: money("270.00")},
				{Due: date(2016, time.June, 1), Amount: money("270.00")},
				{Due: date(2016, time.September, 1), Amount: money("270.00")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.plan.Instalments(tt.due, tt.total)

			diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b decimal.Decimal) bool {
				return a.Equal(b)
			}))
			assert.Empty(t, diff)
		})
	}
}

// The deposit plus the sum of all instalments must reconstitute the total
// exactly, whatever rounding drift the division introduces.
func TestPaymentPlanScheduleSumsToTotal(t *testing.T) {
	totals := []string{"100", "0.07", "33.33", "199.99", "1234.56", "10000"}
	plans := []PaymentPlan{
		{Deposit: 20, Count: 2, Interval: 1},
		{Deposit: 50, Count: 3, Interval: 2},
		{Deposit: 1, Count: 7, Interval: 1},
		{Deposit: 99, Count: 12, Interval: 6},
		{Deposit: 33, Count: 9, Interval: 3},
	}

	for _, plan := range plans {
		for _, raw := range totals {
			total := money(raw)
			sum := plan.DepositAmount(total)
			for _, sp := range plan.Instalments(date(2015, time.January, 2), total) {
				sum = sum.Add(sp.Amount)
			}

			assert.True(t, sum.Equal(total),
				"deposit %d%% count %d total %s: schedule sums to %s", plan.Deposit, plan.Count, raw, sum)
		}
	}
}

func TestPaymentPlanScheduleDates(t *testing.T) {
	plan := PaymentPlan{Deposit: 15, Count: 6, Interval: 2}

	schedule := plan.Instalments(date(2015, time.June, 3), money("600"))

	require.Len(t, schedule, 6)
	prev := schedule[0].Due
	assert.Equal(t, date(2015, time.August, 1), prev)
	for _, sp := range schedule[1:] {
		assert.Equal(t, 1, sp.Due.Day())
		assert.Equal(t, prev.AddDate(0, plan.Interval, 0), sp.Due)
		prev = sp.Due
	}
}

func TestPaymentPlanExample(t *testing.T) {
	plan := PaymentPlan{Deposit: 20, Count: 2, Interval: 1}

	got := plan.Example(date(2015, time.January, 2), money("100"))

	want := []ScheduledPayment{
		{Due: date(2015, time.January, 2), Amount: money("20.00")},
		{Due: date(2015, time.February, 1), Amount: money("40.00")},
		{Due: date(2015, time.March, 1), Amount: money("40.00")},
	}
	diff := cmp.Diff(want, got, cmp.Comparer(func(a, b decimal.Decimal) bool {
		return a.Equal(b)
	}))
	assert.Empty(t, diff)
}
