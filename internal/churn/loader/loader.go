// Package loader reads the five raw entity tables from CSV storage.
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/churnlab/internal/churn/domain"
	"go.uber.org/zap"
)

const (
	customersFile     = "customers.csv"
	subscriptionsFile = "subscriptions.csv"
	usageFile         = "usage_monthly.csv"
	billingFile       = "billing.csv"
	ticketsFile       = "support_tickets.csv"
)

// Loader reads raw tables from a directory of CSV files. Any missing file,
// missing column or unparsable value is fatal; the pipeline does not
// recover locally from bad input.
type Loader struct {
	log *zap.Logger
	dir string
}

func New(log *zap.Logger, dir string) *Loader {
	return &Loader{log: log.Named("churn.loader"), dir: dir}
}

// Load reads all five tables. Usage and billing rows are stable-sorted by
// their date column so that trailing-window aggregates see chronological
// order regardless of storage order.
func (l *Loader) Load(ctx context.Context) (*domain.RawTables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customers, err := l.loadCustomers()
	if err != nil {
		return nil, err
	}
	subs, err := l.loadSubscriptions()
	if err != nil {
		return nil, err
	}
	usage, err := l.loadUsage()
	if err != nil {
		return nil, err
	}
	billing, err := l.loadBilling()
	if err != nil {
		return nil, err
	}
	tickets, err := l.loadTickets()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(usage, func(i, j int) bool {
		return usage[i].Month.Before(usage[j].Month)
	})
	sort.SliceStable(billing, func(i, j int) bool {
		return billing[i].InvoiceDate.Before(billing[j].InvoiceDate)
	})

	l.log.Info("raw tables loaded",
		zap.Int("customers", len(customers)),
		zap.Int("subscriptions", len(subs)),
		zap.Int("usage_rows", len(usage)),
		zap.Int("billing_rows", len(billing)),
		zap.Int("tickets", len(tickets)),
	)

	return &domain.RawTables{
		Customers:     customers,
		Subscriptions: subs,
		Usage:         usage,
		Billing:       billing,
		Tickets:       tickets,
	}, nil
}

func (l *Loader) loadCustomers() ([]domain.Customer, error) {
	t, err := readTable(filepath.Join(l.dir, customersFile))
	if err != nil {
		return nil, err
	}
	idx, err := t.indices("customer_id", "signup_date", "age", "province", "segment", "acquisition_channel")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Customer, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := t.parseInt(n, row[idx[0]], "customer_id")
		if err != nil {
			return nil, err
		}
		age, err := t.parseInt(n, row[idx[2]], "age")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Customer{
			CustomerID:         id,
			SignupDate:         strings.TrimSpace(row[idx[1]]),
			Age:                int(age),
			Province:           row[idx[3]],
			Segment:            row[idx[4]],
			AcquisitionChannel: row[idx[5]],
		})
	}
	return out, nil
}

func (l *Loader) loadSubscriptions() ([]domain.Subscription, error) {
	t, err := readTable(filepath.Join(l.dir, subscriptionsFile))
	if err != nil {
		return nil, err
	}
	idx, err := t.indices("customer_id", "plan_type", "contract_type", "price_per_month", "status", "churn_date")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Subscription, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := t.parseInt(n, row[idx[0]], "customer_id")
		if err != nil {
			return nil, err
		}
		price, err := t.parseFloat(n, row[idx[3]], "price_per_month")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Subscription{
			CustomerID:    id,
			PlanType:      row[idx[1]],
			ContractType:  row[idx[2]],
			PricePerMonth: price,
			Status:        strings.TrimSpace(row[idx[4]]),
			ChurnDate:     strings.TrimSpace(row[idx[5]]),
		})
	}
	return out, nil
}

func (l *Loader) loadUsage() ([]domain.UsageEvent, error) {
	t, err := readTable(filepath.Join(l.dir, usageFile))
	if err != nil {
		return nil, err
	}
	idx, err := t.indices("customer_id", "month", "login_count", "active_days", "total_usage_hours",
		"num_features_used", "heavy_feature_usage", "num_sessions_mobile", "num_sessions_web")
	if err != nil {
		return nil, err
	}

	out := make([]domain.UsageEvent, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := t.parseInt(n, row[idx[0]], "customer_id")
		if err != nil {
			return nil, err
		}
		month, err := t.parseDate(n, row[idx[1]], "month")
		if err != nil {
			return nil, err
		}
		var vals [7]float64
		for i, col := range []string{"login_count", "active_days", "total_usage_hours",
			"num_features_used", "heavy_feature_usage", "num_sessions_mobile", "num_sessions_web"} {
			v, err := t.parseFloat(n, row[idx[i+2]], col)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		out = append(out, domain.UsageEvent{
			CustomerID:        id,
			Month:             month,
			LoginCount:        vals[0],
			ActiveDays:        vals[1],
			TotalUsageHours:   vals[2],
			NumFeaturesUsed:   vals[3],
			HeavyFeatureUsage: vals[4],
			NumSessionsMobile: vals[5],
			NumSessionsWeb:    vals[6],
		})
	}
	return out, nil
}

func (l *Loader) loadBilling() ([]domain.BillingEvent, error) {
	t, err := readTable(filepath.Join(l.dir, billingFile))
	if err != nil {
		return nil, err
	}
	idx, err := t.indices("customer_id", "invoice_date", "amount_due", "amount_paid",
		"days_late", "payment_method", "was_failed_payment")
	if err != nil {
		return nil, err
	}

	out := make([]domain.BillingEvent, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := t.parseInt(n, row[idx[0]], "customer_id")
		if err != nil {
			return nil, err
		}
		invoiceDate, err := t.parseDate(n, row[idx[1]], "invoice_date")
		if err != nil {
			return nil, err
		}
		amountDue, err := t.parseFloat(n, row[idx[2]], "amount_due")
		if err != nil {
			return nil, err
		}
		amountPaid, err := t.parseFloat(n, row[idx[3]], "amount_paid")
		if err != nil {
			return nil, err
		}
		daysLate, err := t.parseFloat(n, row[idx[4]], "days_late")
		if err != nil {
			return nil, err
		}
		failed, err := t.parseBool(n, row[idx[6]], "was_failed_payment")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BillingEvent{
			CustomerID:       id,
			InvoiceDate:      invoiceDate,
			AmountDue:        amountDue,
			AmountPaid:       amountPaid,
			DaysLate:         daysLate,
			PaymentMethod:    row[idx[5]],
			WasFailedPayment: failed,
		})
	}
	return out, nil
}

func (l *Loader) loadTickets() ([]domain.SupportTicket, error) {
	t, err := readTable(filepath.Join(l.dir, ticketsFile))
	if err != nil {
		return nil, err
	}
	idx, err := t.indices("ticket_id", "customer_id", "ticket_date", "issue_type",
		"priority", "resolution_time_hours", "satisfaction_score")
	if err != nil {
		return nil, err
	}

	out := make([]domain.SupportTicket, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := t.parseInt(n, row[idx[1]], "customer_id")
		if err != nil {
			return nil, err
		}
		ticketDate, err := t.parseDate(n, row[idx[2]], "ticket_date")
		if err != nil {
			return nil, err
		}
		resolution, err := t.parseFloat(n, row[idx[5]], "resolution_time_hours")
		if err != nil {
			return nil, err
		}
		satisfaction, err := t.parseFloat(n, row[idx[6]], "satisfaction_score")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.SupportTicket{
			TicketID:            strings.TrimSpace(row[idx[0]]),
			CustomerID:          id,
			TicketDate:          ticketDate,
			IssueType:           row[idx[3]],
			Priority:            row[idx[4]],
			ResolutionTimeHours: resolution,
			SatisfactionScore:   satisfaction,
		})
	}
	return out, nil
}

// table is a parsed CSV with header-driven column lookup.
type table struct {
	file string
	cols map[string]int
	rows [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	records, err := csv.NewReader(bufio.NewReader(f)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrEmptyTable)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	return &table{file: filepath.Base(path), cols: cols, rows: records[1:]}, nil
}

func (t *table) indices(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		idx, ok := t.cols[name]
		if !ok {
			return nil, fmt.Errorf("%s: column %q: %w", t.file, name, domain.ErrMissingColumn)
		}
		out[i] = idx
	}
	return out, nil
}

func (t *table) parseInt(line int, value, col string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, t.badValue(line, value, col)
	}
	return v, nil
}

func (t *table) parseFloat(line int, value, col string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, t.badValue(line, value, col)
	}
	return v, nil
}

func (t *table) parseBool(line int, value, col string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, t.badValue(line, value, col)
	}
	return v, nil
}

// parseDate accepts day-resolution dates and bare year-month values. No
// timezone; everything is a calendar date.
func (t *table) parseDate(line int, value, col string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, t.badValue(line, value, col)
}

func (t *table) badValue(line int, value, col string) error {
	// line is zero-based over data rows; +2 accounts for the header.
	return fmt.Errorf("%s row %d: column %q value %q: %w", t.file, line+2, col, value, domain.ErrInvalidValue)
}
