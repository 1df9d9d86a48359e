package audit

import (
	"context"
	"fmt"
	"time"

	id "trustplane/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance
	// (data subject rights, consent, fraud decisions).
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring
	// (authentication, credential lifecycle, admin actions).
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine business activity.
	CategoryOperations EventCategory = "operations"
)

// EventType is the closed set of auditable event kinds.
type EventType string

const (
	EventLogin            EventType = "login"
	EventLogout           EventType = "logout"
	EventRegister         EventType = "register"
	EventProfileUpdate    EventType = "profile_update"
	EventPasswordChange   EventType = "password_change"
	EventProductCreate    EventType = "product_create"
	EventProductUpdate    EventType = "product_update"
	EventProductDelete    EventType = "product_delete"
	EventOrderCreate      EventType = "order_create"
	EventOrderUpdate      EventType = "order_update"
	EventOrderDelete      EventType = "order_delete"
	EventPaymentProcessed EventType = "payment_processed"
	EventCartAction       EventType = "cart_action"
	EventAdminAction      EventType = "admin_action"
	EventDataExport       EventType = "data_export"
	EventDataDelete       EventType = "data_delete"
	EventConsentUpdate    EventType = "consent_update"
	EventFraudDecision    EventType = "fraud_decision"
)

// eventCategories is the single source of truth for valid event types.
var eventCategories = map[EventType]EventCategory{
	EventLogin:            CategorySecurity,
	EventLogout:           CategorySecurity,
	EventRegister:         CategoryCompliance,
	EventProfileUpdate:    CategoryOperations,
	EventPasswordChange:   CategorySecurity,
	EventProductCreate:    CategoryOperations,
	EventProductUpdate:    CategoryOperations,
	EventProductDelete:    CategoryOperations,
	EventOrderCreate:      CategoryOperations,
	EventOrderUpdate:      CategoryOperations,
	EventOrderDelete:      CategoryOperations,
	EventPaymentProcessed: CategoryCompliance,
	EventCartAction:       CategoryOperations,
	EventAdminAction:      CategorySecurity,
	EventDataExport:       CategoryCompliance,
	EventDataDelete:       CategoryCompliance,
	EventConsentUpdate:    CategoryCompliance,
	EventFraudDecision:    CategoryCompliance,
}

// IsValid reports whether t belongs to the closed event set.
func (t EventType) IsValid() bool {
	_, ok := eventCategories[t]
	return ok
}

// Category returns the category for t. Unknown types report operations.
func (t EventType) Category() EventCategory {
	if cat, ok := eventCategories[t]; ok {
		return cat
	}
	return CategoryOperations
}

// requiredDetails lists detail keys each event kind must carry.
var requiredDetails = map[EventType][]string{
	EventOrderCreate:      {"order_id", "item_count"},
	EventOrderUpdate:      {"order_id", "status"},
	EventOrderDelete:      {"order_id"},
	EventPaymentProcessed: {"order_id", "amount", "method", "success"},
	EventProductCreate:    {"product_id"},
	EventProductUpdate:    {"product_id"},
	EventProductDelete:    {"product_id"},
	EventCartAction:       {"cart_action"},
	EventDataDelete:       {"mode"},
	EventFraudDecision:    {"score", "tier", "action", "reasons"},
}

// Event is a single append-only audit record.
type Event struct {
	// ActorID is whoever performed the action; empty for system actions.
	ActorID string
	// SubjectID is the data subject the event concerns. Only the opaque id is
	// ever stored, never re-derivable PII.
	SubjectID  id.SubjectID
	Type       EventType
	Action     string
	Success    bool
	Details    map[string]any
	IP         string
	UserAgent  string
	RequestID  string
	OccurredAt time.Time
}

// Category returns the category derived from the event type.
func (e Event) Category() EventCategory {
	return e.Type.Category()
}

// Validate checks the closed type set, the action and the per-kind details.
func (e Event) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("audit event type %q is not supported", e.Type)
	}
	if e.Action == "" {
		return fmt.Errorf("audit event %s requires an action", e.Type)
	}
	for _, key := range requiredDetails[e.Type] {
		v, ok := e.Details[key]
		if !ok || v == nil || v == "" {
			return fmt.Errorf("audit event %s requires detail %q", e.Type, key)
		}
	}
	return nil
}

// Store is the durable audit sink port. Implementations must be safe for
// concurrent writers and deliver at least once.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can serve the admin console.
type Reader interface {
	ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Recorder is what business services depend on. Record never fails the
// caller; see publisher.Publisher.
type Recorder interface {
	Record(ctx context.Context, event Event)
}
