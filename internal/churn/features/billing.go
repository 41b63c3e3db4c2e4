package features

import "github.com/smallbiznis/churnlab/internal/churn/domain"

// AggregateBilling collapses billing rows into payment-behavior statistics.
// The failed-payment sum counts flagged rows across the customer's full
// history, not a trailing window.
func AggregateBilling(events []domain.BillingEvent) map[int64]domain.BillingAggregate {
	grouped := groupBy(events, func(e domain.BillingEvent) int64 { return e.CustomerID })

	out := make(map[int64]domain.BillingAggregate, len(grouped))
	for id, rows := range grouped {
		daysLate := column(rows, func(e domain.BillingEvent) float64 { return e.DaysLate })

		var failed int64
		for _, e := range rows {
			if e.WasFailedPayment {
				failed++
			}
		}

		out[id] = domain.BillingAggregate{
			CustomerID:       id,
			DaysLateMean:     mean(daysLate),
			DaysLateMax:      maxOf(daysLate),
			FailedPaymentSum: failed,
			AmountPaidMean:   mean(column(rows, func(e domain.BillingEvent) float64 { return e.AmountPaid })),
		}
	}
	return out
}
