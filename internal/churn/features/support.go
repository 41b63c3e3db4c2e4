package features

import "github.com/smallbiznis/churnlab/internal/churn/domain"

// AggregateSupport collapses ticket rows into support-interaction
// statistics. Customers with zero tickets are absent from the result; the
// final left join turns that absence into null columns.
func AggregateSupport(tickets []domain.SupportTicket) map[int64]domain.SupportAggregate {
	grouped := groupBy(tickets, func(t domain.SupportTicket) int64 { return t.CustomerID })

	out := make(map[int64]domain.SupportAggregate, len(grouped))
	for id, rows := range grouped {
		out[id] = domain.SupportAggregate{
			CustomerID:             id,
			TicketCount:            int64(len(rows)),
			AvgSatisfactionScore:   mean(column(rows, func(t domain.SupportTicket) float64 { return t.SatisfactionScore })),
			AvgResolutionTimeHours: mean(column(rows, func(t domain.SupportTicket) float64 { return t.ResolutionTimeHours })),
		}
	}
	return out
}
