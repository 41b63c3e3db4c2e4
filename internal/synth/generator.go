// Package synth generates the five raw entity tables with realistic
// distributions so the pipeline can be exercised without production data.
// Output is deterministic for a given seed.
package synth

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/churnlab/internal/config"
	"go.uber.org/zap"
)

var (
	provinces           = []string{"ON", "BC", "AB", "QC", "MB", "SK", "NS", "NB"}
	segments            = []string{"Individual", "Small Business", "Enterprise"}
	acquisitionChannels = []string{"Organic", "Referral", "Paid Ads", "Sales Team"}
	planTypes           = []string{"Basic", "Standard", "Premium"}
	contractTypes       = []string{"Monthly", "Annual"}
	paymentMethods      = []string{"Card", "Bank", "PayPal"}

	planPrices = map[string]float64{"Basic": 20, "Standard": 40, "Premium": 70}
)

type customer struct {
	id     int64
	signup time.Time
}

type subscription struct {
	customerID int64
	plan       string
	contract   string
	price      float64
}

// Generator writes synthetic raw tables into a directory.
type Generator struct {
	log   *zap.Logger
	cfg   config.GeneratorConfig
	dir   string
	rng   *rand.Rand
	start time.Time
}

func New(log *zap.Logger, cfg config.GeneratorConfig, dir string) (*Generator, error) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", cfg.StartDate, err)
	}
	return &Generator{
		log:   log.Named("synth"),
		cfg:   cfg,
		dir:   dir,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		start: start,
	}, nil
}

// Generate writes all five tables. Order matters: billing needs the plan
// price assigned during subscription generation.
func (g *Generator) Generate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("create raw data dir: %w", err)
	}

	g.log.Info("generating customers", zap.Int("count", g.cfg.Customers))
	customers, err := g.generateCustomers()
	if err != nil {
		return err
	}

	g.log.Info("generating subscriptions")
	subs, err := g.generateSubscriptions(customers)
	if err != nil {
		return err
	}

	g.log.Info("generating usage history", zap.Int("months", g.cfg.Months))
	if err := g.generateUsage(customers); err != nil {
		return err
	}

	g.log.Info("generating billing history")
	if err := g.generateBilling(subs); err != nil {
		return err
	}

	g.log.Info("generating support tickets")
	if err := g.generateTickets(customers); err != nil {
		return err
	}

	g.log.Info("raw data ready", zap.String("dir", g.dir))
	return nil
}

func (g *Generator) generateCustomers() ([]customer, error) {
	signupStart := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	signupEnd := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)
	signupDays := int(signupEnd.Sub(signupStart).Hours() / 24)

	customers := make([]customer, 0, g.cfg.Customers)
	rows := make([][]string, 0, g.cfg.Customers)
	for i := 0; i < g.cfg.Customers; i++ {
		c := customer{
			id:     int64(i + 1),
			signup: signupStart.AddDate(0, 0, g.rng.Intn(signupDays+1)),
		}
		customers = append(customers, c)
		rows = append(rows, []string{
			strconv.FormatInt(c.id, 10),
			c.signup.Format("2006-01-02"),
			strconv.Itoa(18 + g.rng.Intn(57)),
			pick(g.rng, provinces),
			pick(g.rng, segments),
			pick(g.rng, acquisitionChannels),
		})
	}

	header := []string{"customer_id", "signup_date", "age", "province", "segment", "acquisition_channel"}
	return customers, g.writeTable("customers.csv", header, rows)
}

func (g *Generator) generateSubscriptions(customers []customer) ([]subscription, error) {
	subs := make([]subscription, 0, len(customers))
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		plan := pick(g.rng, planTypes)
		s := subscription{
			customerID: c.id,
			plan:       plan,
			contract:   pick(g.rng, contractTypes),
			price:      planPrices[plan],
		}
		subs = append(subs, s)
		rows = append(rows, []string{
			strconv.FormatInt(s.customerID, 10),
			s.plan,
			s.contract,
			formatFloat(s.price),
			"Active",
			"",
		})
	}

	header := []string{"customer_id", "plan_type", "contract_type", "price_per_month", "status", "churn_date"}
	return subs, g.writeTable("subscriptions.csv", header, rows)
}

func (g *Generator) generateUsage(customers []customer) error {
	rows := make([][]string, 0, len(customers)*g.cfg.Months)
	for _, c := range customers {
		for m := 0; m < g.cfg.Months; m++ {
			month := g.start.AddDate(0, m, 0)

			// Usage drifts over time for some customers, which is what
			// makes the trailing-window churn rules interesting.
			base := g.normal(30, 10)
			trend := g.normal(0, 1) * float64(m) / float64(g.cfg.Months)
			loginCount := nonNegInt(base + trend + g.normal(0, 3))

			rows = append(rows, []string{
				strconv.FormatInt(c.id, 10),
				month.Format("2006-01"),
				strconv.Itoa(loginCount),
				strconv.Itoa(nonNegInt(g.normal(10, 4))),
				formatFloat(math.Max(0, g.normal(20, 8))),
				strconv.Itoa(atLeastInt(1, g.normal(4, 2))),
				formatFloat(g.beta(2, 5)),
				strconv.Itoa(nonNegInt(g.normal(8, 3))),
				strconv.Itoa(nonNegInt(g.normal(15, 5))),
			})
		}
	}

	header := []string{"customer_id", "month", "login_count", "active_days", "total_usage_hours",
		"num_features_used", "heavy_feature_usage", "num_sessions_mobile", "num_sessions_web"}
	return g.writeTable("usage_monthly.csv", header, rows)
}

func (g *Generator) generateBilling(subs []subscription) error {
	rows := make([][]string, 0, len(subs)*g.cfg.Months)
	for _, s := range subs {
		for m := 0; m < g.cfg.Months; m++ {
			invoiceDate := g.start.AddDate(0, m, 0)
			failed := g.rng.Float64() < g.cfg.FailedPaymentRate
			amountPaid := s.price
			if failed {
				amountPaid = 0
			}
			rows = append(rows, []string{
				strconv.FormatInt(s.customerID, 10),
				invoiceDate.Format("2006-01-02"),
				formatFloat(s.price),
				formatFloat(amountPaid),
				strconv.Itoa(nonNegInt(g.normal(2, 3))),
				pick(g.rng, paymentMethods),
				strconv.FormatBool(failed),
			})
		}
	}

	header := []string{"customer_id", "invoice_date", "amount_due", "amount_paid",
		"days_late", "payment_method", "was_failed_payment"}
	return g.writeTable("billing.csv", header, rows)
}

func (g *Generator) generateTickets(customers []customer) error {
	historyDays := int(g.start.AddDate(0, g.cfg.Months, 0).Sub(g.start).Hours() / 24)

	var rows [][]string
	for _, c := range customers {
		// Some customers open many tickets, others none at all.
		for i := 0; i < g.poisson(g.cfg.TicketRate); i++ {
			id, err := uuid.NewRandomFromReader(g.rng)
			if err != nil {
				return fmt.Errorf("generate ticket id: %w", err)
			}
			ticketDate := g.start.AddDate(0, 0, g.rng.Intn(historyDays))
			rows = append(rows, []string{
				id.String(),
				strconv.FormatInt(c.id, 10),
				ticketDate.Format("2006-01-02"),
				pick(g.rng, []string{"Billing", "Technical", "Onboarding", "Cancellation Inquiry"}),
				pick(g.rng, []string{"Low", "Medium", "High"}),
				formatFloat(g.rng.ExpFloat64() * 24),
				strconv.Itoa(1 + g.rng.Intn(5)),
			})
		}
	}

	header := []string{"ticket_id", "customer_id", "ticket_date", "issue_type",
		"priority", "resolution_time_hours", "satisfaction_score"}
	return g.writeTable("support_tickets.csv", header, rows)
}

func (g *Generator) writeTable(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(g.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return f.Close()
}

func (g *Generator) normal(mean, std float64) float64 {
	return g.rng.NormFloat64()*std + mean
}

// beta samples Beta(a, b) for small integer shapes via order statistics:
// the a-th smallest of a+b-1 uniforms.
func (g *Generator) beta(a, b int) float64 {
	n := a + b - 1
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = g.rng.Float64()
	}
	sort.Float64s(draws)
	return draws[a-1]
}

// poisson samples via Knuth's product-of-uniforms method; fine for the
// small rates used here.
func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func nonNegInt(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}

func atLeastInt(min int, v float64) int {
	if int(v) < min {
		return min
	}
	return int(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
