package features

import (
	"testing"
	"time"

	"github.com/smallbiznis/churnlab/internal/churn/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestAggregateUsage_Summaries(t *testing.T) {
	events := []domain.UsageEvent{
		{CustomerID: 1, Month: month(2022, 1), LoginCount: 10, ActiveDays: 5, TotalUsageHours: 12, NumFeaturesUsed: 3, HeavyFeatureUsage: 0.2, NumSessionsMobile: 4, NumSessionsWeb: 8},
		{CustomerID: 1, Month: month(2022, 2), LoginCount: 20, ActiveDays: 7, TotalUsageHours: 18, NumFeaturesUsed: 5, HeavyFeatureUsage: 0.4, NumSessionsMobile: 6, NumSessionsWeb: 10},
		{CustomerID: 1, Month: month(2022, 3), LoginCount: 30, ActiveDays: 9, TotalUsageHours: 24, NumFeaturesUsed: 4, HeavyFeatureUsage: 0.6, NumSessionsMobile: 8, NumSessionsWeb: 12},
	}

	agg := AggregateUsage(events)
	require.Len(t, agg, 1)

	got := agg[1]
	assert.InDelta(t, 20.0, got.LoginCountMean, 1e-9)
	require.NotNil(t, got.LoginCountStd)
	assert.InDelta(t, 10.0, *got.LoginCountStd, 1e-9) // sample std of {10,20,30}
	assert.Equal(t, 30.0, got.LoginCountLast)
	assert.InDelta(t, 7.0, got.ActiveDaysMean, 1e-9)
	assert.InDelta(t, 18.0, got.TotalUsageHoursMean, 1e-9)
	assert.Equal(t, 24.0, got.TotalUsageHoursLast)
	assert.InDelta(t, 4.0, got.NumFeaturesUsedMean, 1e-9)
	assert.InDelta(t, 0.4, got.HeavyFeatureUsageMean, 1e-9)
	assert.InDelta(t, 6.0, got.NumSessionsMobileMean, 1e-9)
	assert.InDelta(t, 10.0, got.NumSessionsWebMean, 1e-9)
}

func TestAggregateUsage_LastFollowsRowOrder(t *testing.T) {
	// The aggregator trusts the row order it is given; the loader sorts
	// chronologically before handing rows over.
	events := []domain.UsageEvent{
		{CustomerID: 7, Month: month(2022, 1), LoginCount: 1, TotalUsageHours: 2},
		{CustomerID: 9, Month: month(2022, 1), LoginCount: 5, TotalUsageHours: 6},
		{CustomerID: 7, Month: month(2022, 2), LoginCount: 3, TotalUsageHours: 4},
	}

	agg := AggregateUsage(events)
	require.Len(t, agg, 2)
	assert.Equal(t, 3.0, agg[7].LoginCountLast)
	assert.Equal(t, 4.0, agg[7].TotalUsageHoursLast)
	assert.Equal(t, 5.0, agg[9].LoginCountLast)
}

func TestAggregateUsage_SingleSampleStdIsNull(t *testing.T) {
	events := []domain.UsageEvent{
		{CustomerID: 1, Month: month(2022, 1), LoginCount: 42, ActiveDays: 3, TotalUsageHours: 8},
	}

	agg := AggregateUsage(events)
	got := agg[1]

	assert.Nil(t, got.LoginCountStd)
	assert.Nil(t, got.ActiveDaysStd)
	assert.Nil(t, got.TotalUsageHoursStd)
	assert.Equal(t, 42.0, got.LoginCountMean)
	assert.Equal(t, 42.0, got.LoginCountLast)
}

func TestAggregateUsage_Empty(t *testing.T) {
	agg := AggregateUsage(nil)
	assert.Empty(t, agg)
}
