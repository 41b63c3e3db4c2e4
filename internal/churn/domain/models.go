// Package domain contains the raw entities and derived rows of the churn
// modeling dataset.
package domain

import "time"

// SubscriptionStatus values present in the raw data.
const (
	StatusActive    = "Active"
	StatusCancelled = "Cancelled"
)

// Customer is one row of customers.csv. Immutable input.
type Customer struct {
	CustomerID         int64
	SignupDate         string
	Age                int
	Province           string
	Segment            string
	AcquisitionChannel string
}

// Subscription is one row of subscriptions.csv, exactly one per customer.
type Subscription struct {
	CustomerID    int64
	PlanType      string
	ContractType  string
	PricePerMonth float64
	Status        string
	ChurnDate     string
}

// UsageEvent is one (customer, month) row of usage_monthly.csv.
type UsageEvent struct {
	CustomerID        int64
	Month             time.Time
	LoginCount        float64
	ActiveDays        float64
	TotalUsageHours   float64
	NumFeaturesUsed   float64
	HeavyFeatureUsage float64
	NumSessionsMobile float64
	NumSessionsWeb    float64
}

// BillingEvent is one (customer, month) row of billing.csv.
type BillingEvent struct {
	CustomerID       int64
	InvoiceDate      time.Time
	AmountDue        float64
	AmountPaid       float64
	DaysLate         float64
	PaymentMethod    string
	WasFailedPayment bool
}

// SupportTicket is one row of support_tickets.csv. Zero or more per customer.
type SupportTicket struct {
	TicketID            string
	CustomerID          int64
	TicketDate          time.Time
	IssueType           string
	Priority            string
	ResolutionTimeHours float64
	SatisfactionScore   float64
}

// RawTables bundles the five loaded input tables. Usage and billing rows
// are chronologically ordered within each customer after loading.
type RawTables struct {
	Customers     []Customer
	Subscriptions []Subscription
	Usage         []UsageEvent
	Billing       []BillingEvent
	Tickets       []SupportTicket
}

// UsageAggregate summarizes a customer's monthly usage history. Std fields
// are nil for single-sample histories; the sample standard deviation of one
// observation is undefined, not zero.
type UsageAggregate struct {
	CustomerID            int64
	LoginCountMean        float64
	LoginCountStd         *float64
	LoginCountLast        float64
	ActiveDaysMean        float64
	ActiveDaysStd         *float64
	TotalUsageHoursMean   float64
	TotalUsageHoursStd    *float64
	TotalUsageHoursLast   float64
	NumFeaturesUsedMean   float64
	HeavyFeatureUsageMean float64
	NumSessionsMobileMean float64
	NumSessionsWebMean    float64
}

// BillingAggregate summarizes a customer's payment behavior over their full
// billing history.
type BillingAggregate struct {
	CustomerID       int64
	DaysLateMean     float64
	DaysLateMax      float64
	FailedPaymentSum int64
	AmountPaidMean   float64
}

// SupportAggregate summarizes a customer's ticket history. Customers with
// zero tickets have no aggregate at all; they surface as nulls after the
// final left join.
type SupportAggregate struct {
	CustomerID             int64
	TicketCount            int64
	AvgSatisfactionScore   float64
	AvgResolutionTimeHours float64
}

// ChurnLabel is the three-rule disjunctive label for one customer. Churn is
// the max of the three indicator columns.
type ChurnLabel struct {
	CustomerID        int64
	Cancelled         int
	NoUsage2Mo        int
	FailedPayments3Mo int
	Churn             int
}

// FeatureRow is one assembled row of model_dataset.csv: customer attributes
// left-joined with subscription, aggregates and label. Nil pointers render
// as empty cells.
type FeatureRow struct {
	Customer
	Subscription *Subscription
	Usage        *UsageAggregate
	Billing      *BillingAggregate
	Support      *SupportAggregate
	Label        *ChurnLabel
}
