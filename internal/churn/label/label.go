// Package label derives the binary churn label from subscription status,
// recent usage and recent payment failures.
package label

import "github.com/smallbiznis/churnlab/internal/churn/domain"

// Config holds the trailing windows of the label policy.
type Config struct {
	// UsageWindow is the number of trailing usage rows whose login counts
	// are summed for the no-usage rule.
	UsageWindow int
	// BillingWindow is the number of trailing billing rows inspected for
	// failed payments.
	BillingWindow int
	// FailureCutoff is the minimum number of failed payments within the
	// billing window that marks a customer churned.
	FailureCutoff int
}

// DefaultConfig is the reference policy: no logins across the last 2
// months, or 2+ failed payments across the last 3 months.
func DefaultConfig() Config {
	return Config{UsageWindow: 2, BillingWindow: 3, FailureCutoff: 2}
}

// Derive computes a label for every customer present in the subscription
// table. A customer is churned when their subscription is cancelled, OR
// their trailing usage window sums to zero logins, OR their trailing
// billing window holds enough failed payments. Customers absent from the
// usage or billing history score 0 on that sub-rule, never null.
//
// Usage and billing rows must be chronologically ordered within each
// customer; the loader guarantees that.
func Derive(cfg Config, subs []domain.Subscription, usage []domain.UsageEvent, billing []domain.BillingEvent) map[int64]domain.ChurnLabel {
	usageByID := make(map[int64][]domain.UsageEvent)
	for _, e := range usage {
		usageByID[e.CustomerID] = append(usageByID[e.CustomerID], e)
	}
	billingByID := make(map[int64][]domain.BillingEvent)
	for _, e := range billing {
		billingByID[e.CustomerID] = append(billingByID[e.CustomerID], e)
	}

	out := make(map[int64]domain.ChurnLabel, len(subs))
	for _, sub := range subs {
		l := domain.ChurnLabel{CustomerID: sub.CustomerID}

		if sub.Status == domain.StatusCancelled {
			l.Cancelled = 1
		}

		// A customer with fewer rows than the window is judged over
		// whatever rows exist; one with no rows at all is not churned
		// by this rule.
		if rows := usageByID[sub.CustomerID]; len(rows) > 0 {
			logins := 0.0
			for _, e := range tail(rows, cfg.UsageWindow) {
				logins += e.LoginCount
			}
			if logins == 0 {
				l.NoUsage2Mo = 1
			}
		}

		if rows := billingByID[sub.CustomerID]; len(rows) > 0 {
			failed := 0
			for _, e := range tail(rows, cfg.BillingWindow) {
				if e.WasFailedPayment {
					failed++
				}
			}
			if failed >= cfg.FailureCutoff {
				l.FailedPayments3Mo = 1
			}
		}

		l.Churn = max(l.Cancelled, l.NoUsage2Mo, l.FailedPayments3Mo)
		out[sub.CustomerID] = l
	}
	return out
}

func tail[T any](rows []T, n int) []T {
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}
