// Package features collapses per-customer event histories into the flat
// summary statistics of the modeling dataset.
package features

import "github.com/smallbiznis/churnlab/internal/churn/domain"

// AggregateUsage collapses monthly usage rows into one summary per customer.
// Rows must be chronologically ordered within each customer; the loader
// guarantees that, and the "last" aggregates rely on it.
func AggregateUsage(events []domain.UsageEvent) map[int64]domain.UsageAggregate {
	grouped := groupBy(events, func(e domain.UsageEvent) int64 { return e.CustomerID })

	out := make(map[int64]domain.UsageAggregate, len(grouped))
	for id, rows := range grouped {
		logins := column(rows, func(e domain.UsageEvent) float64 { return e.LoginCount })
		activeDays := column(rows, func(e domain.UsageEvent) float64 { return e.ActiveDays })
		usageHours := column(rows, func(e domain.UsageEvent) float64 { return e.TotalUsageHours })
		last := rows[len(rows)-1]

		out[id] = domain.UsageAggregate{
			CustomerID:            id,
			LoginCountMean:        mean(logins),
			LoginCountStd:         sampleStd(logins),
			LoginCountLast:        last.LoginCount,
			ActiveDaysMean:        mean(activeDays),
			ActiveDaysStd:         sampleStd(activeDays),
			TotalUsageHoursMean:   mean(usageHours),
			TotalUsageHoursStd:    sampleStd(usageHours),
			TotalUsageHoursLast:   last.TotalUsageHours,
			NumFeaturesUsedMean:   mean(column(rows, func(e domain.UsageEvent) float64 { return e.NumFeaturesUsed })),
			HeavyFeatureUsageMean: mean(column(rows, func(e domain.UsageEvent) float64 { return e.HeavyFeatureUsage })),
			NumSessionsMobileMean: mean(column(rows, func(e domain.UsageEvent) float64 { return e.NumSessionsMobile })),
			NumSessionsWebMean:    mean(column(rows, func(e domain.UsageEvent) float64 { return e.NumSessionsWeb })),
		}
	}
	return out
}

// groupBy partitions rows by key, preserving input order within each group.
func groupBy[T any](rows []T, key func(T) int64) map[int64][]T {
	grouped := make(map[int64][]T)
	for _, r := range rows {
		k := key(r)
		grouped[k] = append(grouped[k], r)
	}
	return grouped
}
