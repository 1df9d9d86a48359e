package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustplane/internal/risk"
	dErrors "trustplane/pkg/domain-errors"
	"trustplane/pkg/platform/httputil"
	"trustplane/pkg/requestcontext"
)

// Service defines the risk operations used by checkout.
type Service interface {
	Evaluate(ctx context.Context, req risk.TransactionRequest) (risk.RiskScore, error)
}

// Handler wires checkout risk endpoints to the risk service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts risk endpoints. The caller applies API key auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkout/risk", h.HandleEvaluate)
}

// HandleEvaluate handles POST /checkout/risk. Every decision, including
// BLOCK, is a 200 response; checkout acts on the action field.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	client := requestcontext.APIKeyOwner(ctx)
	if client.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "API key required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	score, err := h.service.Evaluate(ctx, req.toDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "risk evaluation failed",
			"request_id", requestID,
			"client_id", client.String(),
			"subject_id", req.SubjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "risk evaluated",
		"request_id", requestID,
		"client_id", client.String(),
		"subject_id", req.SubjectID,
		"action", string(score.Action),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromScore(score))
}
