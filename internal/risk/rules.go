package risk

import "fmt"

// RuleID names a rule so its weight can be overridden.
type RuleID string

const (
	RuleOrderBurst         RuleID = "order_burst"
	RuleWeeklyVolume       RuleID = "weekly_volume"
	RuleHighValue          RuleID = "high_value"
	RuleVeryHighValue      RuleID = "very_high_value"
	RuleFirstPurchaseValue RuleID = "first_purchase_value"
	RuleAboveAverage       RuleID = "above_average"
	RuleUnverifiedEmail    RuleID = "unverified_email"
)

// Rule is one additive entry of the scoring table.
type Rule struct {
	ID        RuleID
	Weight    int
	Reason    string
	Predicate func(TransactionContext) bool
}

// DefaultRules returns the scoring table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        RuleOrderBurst,
			Weight:    30,
			Reason:    "too many orders in 24h",
			Predicate: func(c TransactionContext) bool { return c.OrdersInLast24h > 5 },
		},
		{
			ID:        RuleWeeklyVolume,
			Weight:    20,
			Reason:    "high weekly volume",
			Predicate: func(c TransactionContext) bool { return c.OrdersInLastWeek > 20 },
		},
		{
			ID:        RuleHighValue,
			Weight:    15,
			Reason:    "high value",
			Predicate: func(c TransactionContext) bool { return c.Amount > 1000 },
		},
		{
			ID:        RuleVeryHighValue,
			Weight:    20,
			Reason:    "very high value",
			Predicate: func(c TransactionContext) bool { return c.Amount > 5000 },
		},
		{
			ID:        RuleFirstPurchaseValue,
			Weight:    25,
			Reason:    "first purchase with high value",
			Predicate: func(c TransactionContext) bool { return c.OrdersInLastWeek == 0 && c.Amount > 500 },
		},
		{
			ID:     RuleAboveAverage,
			Weight: 20,
			Reason: "value far above historical average",
			Predicate: func(c TransactionContext) bool {
				return c.HasHistory() && c.Amount > 3*(*c.AverageOrderValue)
			},
		},
		{
			ID:        RuleUnverifiedEmail,
			Weight:    15,
			Reason:    "unverified email",
			Predicate: func(c TransactionContext) bool { return !c.SubjectEmailVerified },
		},
	}
}

// KnownRule reports whether rid names an entry of the default table.
func KnownRule(rid RuleID) bool {
	for _, r := range DefaultRules() {
		if r.ID == rid {
			return true
		}
	}
	return false
}

// Thresholds are inclusive lower bounds of each tier.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
}

// WithDefaults replaces zero bounds with the default ones.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Critical > 0 {
		d.Critical = t.Critical
	}
	if t.High > 0 {
		d.High = t.High
	}
	if t.Medium > 0 {
		d.Medium = t.Medium
	}
	return d
}

// Validate requires positive, strictly ordered bounds.
func (t Thresholds) Validate() error {
	if t.Medium <= 0 || t.High <= t.Medium || t.Critical <= t.High {
		return fmt.Errorf("risk thresholds must satisfy critical > high > medium > 0, got %d/%d/%d",
			t.Critical, t.High, t.Medium)
	}
	return nil
}

func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 80, High: 50, Medium: 30}
}

// Config tunes the engine. Zero thresholds keep their defaults; Weights
// overrides the weight of individual rules.
type Config struct {
	Thresholds Thresholds
	Weights    map[RuleID]int
}

// Engine evaluates the rule table. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	rules      []Rule
	thresholds Thresholds
}

func NewEngine(cfg Config) *Engine {
	t := cfg.Thresholds.WithDefaults()

	rules := DefaultRules()
	for i := range rules {
		if w, ok := cfg.Weights[rules[i].ID]; ok {
			rules[i].Weight = w
		}
	}
	return &Engine{rules: rules, thresholds: t}
}

// Rules returns a copy of the configured table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Score is deterministic and never fails. An unknown or suspended subject
// short-circuits to a blocking score before any rule runs.
func (e *Engine) Score(c TransactionContext) RiskScore {
	if !c.SubjectKnown {
		return blocked(ReasonSubjectNotFound)
	}
	if c.SubjectSuspended {
		return blocked(ReasonSubjectSuspended)
	}

	value := 0
	reasons := []string{}
	for _, r := range e.rules {
		if r.Predicate(c) {
			value += r.Weight
			reasons = append(reasons, r.Reason)
		}
	}
	value = min(max(value, 0), maxScore)

	tier, action := e.classify(value)
	return RiskScore{Value: value, Tier: tier, Reasons: reasons, Action: action}
}

// ShouldBlock is derived from Score so both call sites share one decision.
func (e *Engine) ShouldBlock(c TransactionContext) bool {
	return e.Score(c).Action == ActionBlock
}

func (e *Engine) classify(value int) (Tier, Action) {
	switch {
	case value >= e.thresholds.Critical:
		return TierCritical, ActionBlock
	case value >= e.thresholds.High:
		return TierHigh, ActionReview
	case value >= e.thresholds.Medium:
		return TierMedium, ActionAllow
	default:
		return TierLow, ActionAllow
	}
}

func blocked(reason string) RiskScore {
	return RiskScore{
		Value:   maxScore,
		Tier:    TierCritical,
		Reasons: []string{reason},
		Action:  ActionBlock,
	}
}
