// Package admin serves read-only audit queries for the admin console.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/httputil"
	"trustplane/pkg/requestcontext"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// AuditReader is satisfied by the audit publisher.
type AuditReader interface {
	List(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	reader AuditReader
	logger *slog.Logger
}

func New(reader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		reader: reader,
		logger: logger,
	}
}

// Register mounts admin audit endpoints. The caller applies admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.HandleListAudit)
}

// HandleListAudit handles GET /admin/audit?subject_id=&limit=. Without a
// subject it returns the most recent events.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var events []audit.Event
	if raw := query.Get("subject_id"); raw != "" {
		subjectID, parseErr := id.ParseSubjectID(raw)
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		events, err = h.reader.List(ctx, subjectID, limit)
	} else {
		events, err = h.reader.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to query audit events",
			"request_id", requestcontext.RequestID(ctx),
			"actor_id", requestcontext.ActorID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit events"))
		return
	}

	resp := AuditListResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toAuditEventResponse(e))
	}
	resp.Total = len(resp.Events)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}
