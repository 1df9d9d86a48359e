package audit

import (
	"errors"
	"time"

	id "trustplane/pkg/domain"
)

// Typed constructors for the event kinds the control plane emits. Each one
// fills the details the kind requires and returns a validation error when a
// required value is missing.

// New builds and validates an event of the given kind.
func New(eventType EventType, action string, success bool, details map[string]any) (Event, error) {
	if details == nil {
		details = map[string]any{}
	}
	e := Event{
		Type:    eventType,
		Action:  action,
		Success: success,
		Details: details,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// CredentialCreated records issuance of an API key. The secret is never part
// of the event.
func CredentialCreated(actorID string, owner id.SubjectID, credentialID id.CredentialID, name string, expiresAt *time.Time) Event {
	details := map[string]any{
		"credential_id": credentialID.String(),
		"name":          name,
		"expires_at":    nil,
	}
	if expiresAt != nil {
		details["expires_at"] = expiresAt.UTC().Format(time.RFC3339)
	}
	return Event{
		ActorID:   actorID,
		SubjectID: owner,
		Type:      EventAdminAction,
		Action:    "credential created",
		Success:   true,
		Details:   details,
	}
}

// CredentialRevoked records the active→revoked transition of an API key.
func CredentialRevoked(actorID string, owner id.SubjectID, credentialID id.CredentialID, name string) Event {
	return Event{
		ActorID:   actorID,
		SubjectID: owner,
		Type:      EventAdminAction,
		Action:    "credential revoked",
		Success:   true,
		Details: map[string]any{
			"credential_id": credentialID.String(),
			"name":          name,
		},
	}
}

// OrderCreated requires the order id and a positive item count.
func OrderCreated(subjectID id.SubjectID, orderID id.OrderID, itemCount int) (Event, error) {
	if orderID.IsNil() {
		return Event{}, errors.New("order_create requires order id")
	}
	if itemCount <= 0 {
		return Event{}, errors.New("order_create requires a positive item count")
	}
	e, err := New(EventOrderCreate, "order created", true, map[string]any{
		"order_id":   orderID.String(),
		"item_count": itemCount,
	})
	if err != nil {
		return Event{}, err
	}
	e.SubjectID = subjectID
	e.ActorID = subjectID.String()
	return e, nil
}

// PaymentProcessed requires order id, amount, method and the outcome.
func PaymentProcessed(subjectID id.SubjectID, orderID id.OrderID, amount float64, method string, success bool) (Event, error) {
	if orderID.IsNil() {
		return Event{}, errors.New("payment_processed requires order id")
	}
	if method == "" {
		return Event{}, errors.New("payment_processed requires payment method")
	}
	e, err := New(EventPaymentProcessed, "payment processed", success, map[string]any{
		"order_id": orderID.String(),
		"amount":   amount,
		"method":   method,
		"success":  success,
	})
	if err != nil {
		return Event{}, err
	}
	e.SubjectID = subjectID
	e.ActorID = subjectID.String()
	return e, nil
}

// FraudDecision carries the full ordered reasons list of a REVIEW or BLOCK.
func FraudDecision(subjectID id.SubjectID, score int, tier, action string, reasons []string) Event {
	kept := make([]string, len(reasons))
	copy(kept, reasons)
	return Event{
		SubjectID: subjectID,
		Type:      EventFraudDecision,
		Action:    "transaction " + action,
		Success:   true,
		Details: map[string]any{
			"score":   score,
			"tier":    tier,
			"action":  action,
			"reasons": kept,
		},
	}
}

// DataExported records a data-subject access request being served.
func DataExported(actorID string, subjectID id.SubjectID) Event {
	return Event{
		ActorID:   actorID,
		SubjectID: subjectID,
		Type:      EventDataExport,
		Action:    "subject data exported",
		Success:   true,
		Details:   map[string]any{},
	}
}

// DataDeleted records erasure of a subject. Only the opaque id is kept.
func DataDeleted(actorID string, subjectID id.SubjectID, mode string, counts map[string]int) Event {
	details := map[string]any{"mode": mode}
	for k, v := range counts {
		details[k] = v
	}
	return Event{
		ActorID:   actorID,
		SubjectID: subjectID,
		Type:      EventDataDelete,
		Action:    "subject data " + mode + "d",
		Success:   true,
		Details:   details,
	}
}

// ConsentUpdated records a change of optional consent categories made by
// actorID on behalf of the subject.
func ConsentUpdated(actorID string, subjectID id.SubjectID, analytics, marketing, cookies bool) Event {
	return Event{
		ActorID:   actorID,
		SubjectID: subjectID,
		Type:      EventConsentUpdate,
		Action:    "consent preferences updated",
		Success:   true,
		Details: map[string]any{
			"necessary": true,
			"analytics": analytics,
			"marketing": marketing,
			"cookies":   cookies,
		},
	}
}
