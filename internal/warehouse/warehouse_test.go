package warehouse

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlab/internal/churn/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRows() []domain.FeatureRow {
	std := 2.5
	return []domain.FeatureRow{
		{
			Customer:     domain.Customer{CustomerID: 1, SignupDate: "2021-01-01", Age: 30, Province: "ON", Segment: "Individual", AcquisitionChannel: "Organic"},
			Subscription: &domain.Subscription{CustomerID: 1, PlanType: "Basic", ContractType: "Monthly", PricePerMonth: 20, Status: "Active"},
			Usage:        &domain.UsageAggregate{CustomerID: 1, LoginCountMean: 12, LoginCountStd: &std, LoginCountLast: 9},
			Billing:      &domain.BillingAggregate{CustomerID: 1, DaysLateMean: 1, DaysLateMax: 4, FailedPaymentSum: 2, AmountPaidMean: 20},
			Label:        &domain.ChurnLabel{CustomerID: 1, Churn: 0},
		},
		{
			// Customer with no joins beyond the base attributes.
			Customer: domain.Customer{CustomerID: 2, SignupDate: "2020-06-06", Age: 50, Province: "BC", Segment: "Enterprise", AcquisitionChannel: "Referral"},
		},
	}
}

func openTestWarehouse(t *testing.T) *Warehouse {
	t.Helper()
	w, err := Open(filepath.Join(t.TempDir(), "warehouse.db"), zap.NewNop())
	require.NoError(t, err)
	return w
}

func TestStore_MirrorsRows(t *testing.T) {
	w := openTestWarehouse(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, w.Store(context.Background(), node.Generate(), sampleRows()))

	var rows []ModelDatasetRow
	require.NoError(t, w.db.Order("customer_id").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].CustomerID)
	require.NotNil(t, rows[0].LoginCountMean)
	assert.Equal(t, 12.0, *rows[0].LoginCountMean)
	require.NotNil(t, rows[0].Churn)
	assert.Equal(t, 0, *rows[0].Churn)

	// Unjoined customer persists with SQL NULLs, not zeroes.
	assert.Nil(t, rows[1].PlanType)
	assert.Nil(t, rows[1].LoginCountMean)
	assert.Nil(t, rows[1].TicketCount)
	assert.Nil(t, rows[1].Churn)
}

func TestStore_RebuildReplacesTable(t *testing.T) {
	w := openTestWarehouse(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, w.Store(context.Background(), node.Generate(), sampleRows()))
	require.NoError(t, w.Store(context.Background(), node.Generate(), sampleRows()))

	var rowCount int64
	require.NoError(t, w.db.Model(&ModelDatasetRow{}).Count(&rowCount).Error)
	assert.Equal(t, int64(2), rowCount, "rebuild must replace, not append")

	var builds int64
	require.NoError(t, w.db.Model(&DatasetBuild{}).Count(&builds).Error)
	assert.Equal(t, int64(2), builds, "every build is audited")
}

func TestStore_NilWarehouseIsDisabled(t *testing.T) {
	var w *Warehouse
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	assert.NoError(t, w.Store(context.Background(), node.Generate(), sampleRows()))
}
