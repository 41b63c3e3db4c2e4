// Package assembler left-joins customer attributes with the aggregate
// tables and the churn label, and persists the flat modeling dataset.
package assembler

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/smallbiznis/churnlab/internal/churn/domain"
)

// Columns is the stable schema of model_dataset.csv. The column order is
// part of the contract toward downstream consumers; do not reorder.
var Columns = []string{
	"customer_id", "signup_date", "age", "province", "segment", "acquisition_channel",
	"plan_type", "contract_type", "price_per_month", "status", "churn_date",
	"login_count_mean", "login_count_std", "login_count_last",
	"active_days_mean", "active_days_std",
	"total_usage_hours_mean", "total_usage_hours_std", "total_usage_hours_last",
	"num_features_used_mean", "heavy_feature_usage_mean",
	"num_sessions_mobile_mean", "num_sessions_web_mean",
	"days_late_mean", "days_late_max", "failed_payment_sum", "amount_paid_mean",
	"ticket_count", "avg_satisfaction_score", "avg_resolution_time_hours",
	"cancelled", "no_usage_2mo", "failed_payments_3mo", "churn",
}

// Assemble left-joins every source onto the customer table, preserving
// every customer row and the customer table's row order. A customer with
// no match in a source keeps a nil pointer there, which renders as empty
// cells downstream.
func Assemble(
	customers []domain.Customer,
	subs []domain.Subscription,
	usage map[int64]domain.UsageAggregate,
	billing map[int64]domain.BillingAggregate,
	support map[int64]domain.SupportAggregate,
	labels map[int64]domain.ChurnLabel,
) []domain.FeatureRow {
	subsByID := make(map[int64]domain.Subscription, len(subs))
	for _, s := range subs {
		subsByID[s.CustomerID] = s
	}

	rows := make([]domain.FeatureRow, 0, len(customers))
	for _, c := range customers {
		row := domain.FeatureRow{Customer: c}
		if s, ok := subsByID[c.CustomerID]; ok {
			row.Subscription = &s
		}
		if u, ok := usage[c.CustomerID]; ok {
			row.Usage = &u
		}
		if b, ok := billing[c.CustomerID]; ok {
			row.Billing = &b
		}
		if s, ok := support[c.CustomerID]; ok {
			row.Support = &s
		}
		if l, ok := labels[c.CustomerID]; ok {
			row.Label = &l
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV materializes the dataset at dst. The file is written to a temp
// path in the same directory and renamed into place, so a failed run never
// clobbers the previous output.
func WriteCSV(rows []domain.FeatureRow, dst string) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model_dataset-*.csv")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	w := csv.NewWriter(bw)
	if err = w.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err = w.Write(record(&rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

func record(r *domain.FeatureRow) []string {
	out := make([]string, 0, len(Columns))
	out = append(out,
		strconv.FormatInt(r.CustomerID, 10),
		r.SignupDate,
		strconv.Itoa(r.Age),
		r.Province,
		r.Segment,
		r.AcquisitionChannel,
	)

	if s := r.Subscription; s != nil {
		out = append(out, s.PlanType, s.ContractType, formatFloat(s.PricePerMonth), s.Status, s.ChurnDate)
	} else {
		out = appendEmpty(out, 5)
	}

	if u := r.Usage; u != nil {
		out = append(out,
			formatFloat(u.LoginCountMean),
			formatFloatPtr(u.LoginCountStd),
			formatFloat(u.LoginCountLast),
			formatFloat(u.ActiveDaysMean),
			formatFloatPtr(u.ActiveDaysStd),
			formatFloat(u.TotalUsageHoursMean),
			formatFloatPtr(u.TotalUsageHoursStd),
			formatFloat(u.TotalUsageHoursLast),
			formatFloat(u.NumFeaturesUsedMean),
			formatFloat(u.HeavyFeatureUsageMean),
			formatFloat(u.NumSessionsMobileMean),
			formatFloat(u.NumSessionsWebMean),
		)
	} else {
		out = appendEmpty(out, 12)
	}

	if b := r.Billing; b != nil {
		out = append(out,
			formatFloat(b.DaysLateMean),
			formatFloat(b.DaysLateMax),
			strconv.FormatInt(b.FailedPaymentSum, 10),
			formatFloat(b.AmountPaidMean),
		)
	} else {
		out = appendEmpty(out, 4)
	}

	if s := r.Support; s != nil {
		out = append(out,
			strconv.FormatInt(s.TicketCount, 10),
			formatFloat(s.AvgSatisfactionScore),
			formatFloat(s.AvgResolutionTimeHours),
		)
	} else {
		out = appendEmpty(out, 3)
	}

	if l := r.Label; l != nil {
		out = append(out,
			strconv.Itoa(l.Cancelled),
			strconv.Itoa(l.NoUsage2Mo),
			strconv.Itoa(l.FailedPayments3Mo),
			strconv.Itoa(l.Churn),
		)
	} else {
		out = appendEmpty(out, 4)
	}

	return out
}

// formatFloat uses the shortest round-trip representation so that repeated
// runs over unchanged input produce byte-identical files.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func appendEmpty(out []string, n int) []string {
	for i := 0; i < n; i++ {
		out = append(out, "")
	}
	return out
}
