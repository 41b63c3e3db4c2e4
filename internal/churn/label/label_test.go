package label

import (
	"testing"
	"time"

	"github.com/smallbiznis/churnlab/internal/churn/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usageRow(id int64, m int, logins float64) domain.UsageEvent {
	return domain.UsageEvent{
		CustomerID: id,
		Month:      time.Date(2022, time.Month(m), 1, 0, 0, 0, 0, time.UTC),
		LoginCount: logins,
	}
}

func billingRow(id int64, m int, failed bool) domain.BillingEvent {
	return domain.BillingEvent{
		CustomerID:       id,
		InvoiceDate:      time.Date(2022, time.Month(m), 1, 0, 0, 0, 0, time.UTC),
		WasFailedPayment: failed,
	}
}

func TestDerive(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		sub     domain.Subscription
		usage   []domain.UsageEvent
		billing []domain.BillingEvent
		want    domain.ChurnLabel
	}{
		{
			name: "active customer with healthy usage and payments",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 10), usageRow(1, 2, 12), usageRow(1, 3, 9),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, false), billingRow(1, 2, false), billingRow(1, 3, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, Churn: 0},
		},
		{
			name: "cancelled always churns regardless of history",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusCancelled},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 50), usageRow(1, 2, 60),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, Cancelled: 1, Churn: 1},
		},
		{
			name: "no logins across trailing two months",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 40), usageRow(1, 2, 0), usageRow(1, 3, 0),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, true), billingRow(1, 2, false), billingRow(1, 3, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, NoUsage2Mo: 1, Churn: 1},
		},
		{
			name: "logins just outside the window do not rescue",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 40), usageRow(1, 2, 5), usageRow(1, 3, 0), usageRow(1, 4, 0),
			},
			want: domain.ChurnLabel{CustomerID: 1, NoUsage2Mo: 1, Churn: 1},
		},
		{
			name: "two failed payments in trailing three months",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 10), usageRow(1, 2, 10),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, true), billingRow(1, 2, true), billingRow(1, 3, true), billingRow(1, 4, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, FailedPayments3Mo: 1, Churn: 1},
		},
		{
			name: "single failed payment in the window is not churn",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 10), usageRow(1, 2, 10),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, true), billingRow(1, 2, true), billingRow(1, 3, false), billingRow(1, 4, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, Churn: 0},
		},
		{
			name: "single usage row with zero logins counts",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 0),
			},
			want: domain.ChurnLabel{CustomerID: 1, NoUsage2Mo: 1, Churn: 1},
		},
		{
			name: "no usage history is not churn by the usage rule",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			billing: []domain.BillingEvent{
				billingRow(1, 1, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, Churn: 0},
		},
		{
			name: "no billing history is not churn by the payment rule",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 10),
			},
			want: domain.ChurnLabel{CustomerID: 1, Churn: 0},
		},
		{
			name: "zero recent usage with one failed payment",
			sub:  domain.Subscription{CustomerID: 1, Status: domain.StatusActive},
			usage: []domain.UsageEvent{
				usageRow(1, 1, 20), usageRow(1, 2, 0), usageRow(1, 3, 0),
			},
			billing: []domain.BillingEvent{
				billingRow(1, 1, false), billingRow(1, 2, true), billingRow(1, 3, false),
			},
			want: domain.ChurnLabel{CustomerID: 1, NoUsage2Mo: 1, FailedPayments3Mo: 0, Churn: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := Derive(cfg, []domain.Subscription{tt.sub}, tt.usage, tt.billing)
			require.Len(t, labels, 1)
			assert.Equal(t, tt.want, labels[1])
		})
	}
}

func TestDerive_ChurnIsMaxOfIndicators(t *testing.T) {
	subs := []domain.Subscription{
		{CustomerID: 1, Status: domain.StatusCancelled},
		{CustomerID: 2, Status: domain.StatusActive},
	}
	usage := []domain.UsageEvent{
		usageRow(2, 1, 0), usageRow(2, 2, 0),
	}
	billing := []domain.BillingEvent{
		billingRow(2, 1, true), billingRow(2, 2, true),
	}

	labels := Derive(DefaultConfig(), subs, usage, billing)
	for id, l := range labels {
		want := max(l.Cancelled, l.NoUsage2Mo, l.FailedPayments3Mo)
		assert.Equal(t, want, l.Churn, "customer %d", id)
		assert.Contains(t, []int{0, 1}, l.Churn)
	}
	assert.Equal(t, 1, labels[1].Churn)
	assert.Equal(t, 1, labels[2].Churn)
}

func TestDerive_OnlyLabelsSubscribedCustomers(t *testing.T) {
	subs := []domain.Subscription{{CustomerID: 1, Status: domain.StatusActive}}
	usage := []domain.UsageEvent{usageRow(99, 1, 0)}

	labels := Derive(DefaultConfig(), subs, usage, nil)
	require.Len(t, labels, 1)
	_, ok := labels[99]
	assert.False(t, ok)
}
