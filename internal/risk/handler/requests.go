package handler

import (
	"strings"

	"trustplane/internal/risk"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /checkout/risk.
type EvaluateRequest struct {
	SubjectID string  `json:"subject_id"`
	Amount    float64 `json:"amount"`

	parsedSubject id.SubjectID
}

// Validate implements httputil.Validatable.
func (r *EvaluateRequest) Validate() error {
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	}
	subject, err := id.ParseSubjectID(r.SubjectID)
	if err != nil {
		return err
	}
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	r.parsedSubject = subject
	return nil
}

func (r *EvaluateRequest) toDomain() risk.TransactionRequest {
	return risk.TransactionRequest{SubjectID: r.parsedSubject, Amount: r.Amount}
}
