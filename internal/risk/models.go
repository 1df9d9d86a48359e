// Package risk scores checkout transactions. Scoring is a pure function of a
// TransactionContext; loading signals and auditing live in risk/service.
package risk

import (
	"time"

	id "trustplane/pkg/domain"
)

// Tier buckets a clamped score.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// Action is what checkout does with a transaction.
type Action string

const (
	ActionAllow  Action = "ALLOW"
	ActionReview Action = "REVIEW"
	ActionBlock  Action = "BLOCK"
)

const (
	maxScore = 100

	ReasonSubjectNotFound  = "subject not found"
	ReasonSubjectSuspended = "subject suspended"
)

// TransactionContext is built per evaluation and never persisted.
type TransactionContext struct {
	SubjectID         id.SubjectID
	Amount            float64
	IP                string
	UserAgent         string
	DeviceFingerprint string
	OrdersInLast24h   int
	OrdersInLastWeek  int
	// AverageOrderValue is nil when the subject has no order history.
	AverageOrderValue    *float64
	SubjectEmailVerified bool
	SubjectSuspended     bool
	SubjectKnown         bool
}

// HasHistory reports whether an average order value is available.
func (c TransactionContext) HasHistory() bool {
	return c.AverageOrderValue != nil && *c.AverageOrderValue > 0
}

// RiskScore is the outcome of one evaluation. Reasons follow rule table order.
type RiskScore struct {
	Value   int
	Tier    Tier
	Reasons []string
	Action  Action
}

// Signals is the subject state read in one snapshot from the store.
type Signals struct {
	Known             bool
	Suspended         bool
	EmailVerified     bool
	OrdersInLast24h   int
	OrdersInLastWeek  int
	AverageOrderValue *float64
}

// TransactionRequest is the checkout input to Service.Evaluate.
type TransactionRequest struct {
	SubjectID id.SubjectID
	Amount    float64
}

// NewTransactionContext joins a request with the loaded signals.
func NewTransactionContext(req TransactionRequest, s Signals) TransactionContext {
	return TransactionContext{
		SubjectID:            req.SubjectID,
		Amount:               req.Amount,
		OrdersInLast24h:      s.OrdersInLast24h,
		OrdersInLastWeek:     s.OrdersInLastWeek,
		AverageOrderValue:    s.AverageOrderValue,
		SubjectEmailVerified: s.EmailVerified,
		SubjectSuspended:     s.Suspended,
		SubjectKnown:         s.Known,
	}
}

// PastOrder is one historical checkout of a subject.
type PastOrder struct {
	Amount    float64
	CreatedAt time.Time
}

// SignalsFromHistory derives the signals of a known subject from its order
// history as of now.
func SignalsFromHistory(emailVerified, suspended bool, orders []PastOrder, now time.Time) Signals {
	signals := Signals{
		Known:         true,
		Suspended:     suspended,
		EmailVerified: emailVerified,
	}

	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	var total float64
	for _, o := range orders {
		total += o.Amount
		if o.CreatedAt.After(dayAgo) {
			signals.OrdersInLast24h++
		}
		if o.CreatedAt.After(weekAgo) {
			signals.OrdersInLastWeek++
		}
	}
	if len(orders) > 0 {
		avg := total / float64(len(orders))
		signals.AverageOrderValue = &avg
	}
	return signals
}
