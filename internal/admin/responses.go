package admin

import (
	"time"

	audit "trustplane/pkg/platform/audit"
)

// AuditEventResponse is the HTTP response DTO for one audit event.
type AuditEventResponse struct {
	Category   string         `json:"category"`
	Type       string         `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Action     string         `json:"action"`
	Success    bool           `json:"success"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditListResponse wraps the events for HTTP response.
type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`
	Total  int                  `json:"total"`
}

func toAuditEventResponse(e audit.Event) AuditEventResponse {
	resp := AuditEventResponse{
		Category:   string(e.Category()),
		Type:       string(e.Type),
		ActorID:    e.ActorID,
		Action:     e.Action,
		Success:    e.Success,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		RequestID:  e.RequestID,
		OccurredAt: e.OccurredAt,
	}
	if !e.SubjectID.IsNil() {
		resp.SubjectID = e.SubjectID.String()
	}
	return resp
}
