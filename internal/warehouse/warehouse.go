// Package warehouse mirrors the assembled dataset into SQLite so
// downstream tooling can query it relationally. The CSV artifact remains
// the primary contract; the warehouse is an optional sink.
package warehouse

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/churnlab/internal/churn/domain"
	"github.com/smallbiznis/churnlab/internal/observability/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModelDatasetRow is the relational form of one model_dataset.csv row.
// Nullable aggregate columns stay pointers so SQL NULL matches the empty
// CSV cell.
type ModelDatasetRow struct {
	CustomerID         int64  `gorm:"primaryKey"`
	SignupDate         string `gorm:"type:text"`
	Age                int
	Province           string `gorm:"type:text"`
	Segment            string `gorm:"type:text"`
	AcquisitionChannel string `gorm:"type:text"`

	PlanType      *string `gorm:"type:text"`
	ContractType  *string `gorm:"type:text"`
	PricePerMonth *float64
	Status        *string `gorm:"type:text"`
	ChurnDate     *string `gorm:"type:text"`

	LoginCountMean        *float64
	LoginCountStd         *float64
	LoginCountLast        *float64
	ActiveDaysMean        *float64
	ActiveDaysStd         *float64
	TotalUsageHoursMean   *float64
	TotalUsageHoursStd    *float64
	TotalUsageHoursLast   *float64
	NumFeaturesUsedMean   *float64
	HeavyFeatureUsageMean *float64
	NumSessionsMobileMean *float64
	NumSessionsWebMean    *float64

	DaysLateMean     *float64
	DaysLateMax      *float64
	FailedPaymentSum *int64
	AmountPaidMean   *float64

	TicketCount            *int64
	AvgSatisfactionScore   *float64
	AvgResolutionTimeHours *float64

	Cancelled         *int
	NoUsage2Mo        *int
	FailedPayments3Mo *int
	Churn             *int
}

// TableName sets the database table name.
func (ModelDatasetRow) TableName() string { return "model_dataset" }

// DatasetBuild is the audit row recorded once per completed build.
type DatasetBuild struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	RowCount int64        `gorm:"not null"`
	BuiltAt  time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (DatasetBuild) TableName() string { return "dataset_builds" }

// Warehouse wraps the SQLite handle. A nil *Warehouse is a valid disabled
// sink.
type Warehouse struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (or creates) the SQLite file at path and migrates the schema.
func Open(path string, log *zap.Logger) (*Warehouse, error) {
	if path == "" {
		return nil, errors.New("warehouse path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ModelDatasetRow{}, &DatasetBuild{}); err != nil {
		return nil, err
	}
	return &Warehouse{db: db, log: log.Named("warehouse")}, nil
}

// Store replaces the model_dataset table with the latest build and records
// an audit row. The swap runs in one transaction so a failed build never
// leaves a partial table behind.
func (w *Warehouse) Store(ctx context.Context, buildID snowflake.ID, rows []domain.FeatureRow) error {
	if w == nil {
		return nil
	}

	records := make([]ModelDatasetRow, 0, len(rows))
	for i := range rows {
		records = append(records, fromFeatureRow(&rows[i]))
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ModelDatasetRow{}).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 500).Error; err != nil {
				return err
			}
		}
		return tx.Create(&DatasetBuild{
			ID:       buildID,
			RowCount: int64(len(records)),
			BuiltAt:  time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return err
	}

	w.log.Info("dataset mirrored to warehouse",
		zap.String("build_id", buildID.String()),
		zap.Int("rows", len(records)),
	)
	return nil
}

func fromFeatureRow(r *domain.FeatureRow) ModelDatasetRow {
	out := ModelDatasetRow{
		CustomerID:         r.CustomerID,
		SignupDate:         r.SignupDate,
		Age:                r.Age,
		Province:           r.Province,
		Segment:            r.Segment,
		AcquisitionChannel: r.AcquisitionChannel,
	}
	if s := r.Subscription; s != nil {
		out.PlanType = &s.PlanType
		out.ContractType = &s.ContractType
		out.PricePerMonth = &s.PricePerMonth
		out.Status = &s.Status
		out.ChurnDate = &s.ChurnDate
	}
	if u := r.Usage; u != nil {
		out.LoginCountMean = &u.LoginCountMean
		out.LoginCountStd = u.LoginCountStd
		out.LoginCountLast = &u.LoginCountLast
		out.ActiveDaysMean = &u.ActiveDaysMean
		out.ActiveDaysStd = u.ActiveDaysStd
		out.TotalUsageHoursMean = &u.TotalUsageHoursMean
		out.TotalUsageHoursStd = u.TotalUsageHoursStd
		out.TotalUsageHoursLast = &u.TotalUsageHoursLast
		out.NumFeaturesUsedMean = &u.NumFeaturesUsedMean
		out.HeavyFeatureUsageMean = &u.HeavyFeatureUsageMean
		out.NumSessionsMobileMean = &u.NumSessionsMobileMean
		out.NumSessionsWebMean = &u.NumSessionsWebMean
	}
	if b := r.Billing; b != nil {
		out.DaysLateMean = &b.DaysLateMean
		out.DaysLateMax = &b.DaysLateMax
		out.FailedPaymentSum = &b.FailedPaymentSum
		out.AmountPaidMean = &b.AmountPaidMean
	}
	if s := r.Support; s != nil {
		out.TicketCount = &s.TicketCount
		out.AvgSatisfactionScore = &s.AvgSatisfactionScore
		out.AvgResolutionTimeHours = &s.AvgResolutionTimeHours
	}
	if l := r.Label; l != nil {
		out.Cancelled = &l.Cancelled
		out.NoUsage2Mo = &l.NoUsage2Mo
		out.FailedPayments3Mo = &l.FailedPayments3Mo
		out.Churn = &l.Churn
	}
	return out
}
