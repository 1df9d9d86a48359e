package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustplane/internal/compliance/models"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/httputil"
	"trustplane/pkg/requestcontext"
)

// Service defines the data-subject operations exposed over HTTP.
type Service interface {
	Export(ctx context.Context, subjectID id.SubjectID) (*models.DataBundle, error)
	Erase(ctx context.Context, subjectID id.SubjectID, mode models.EraseMode) (models.EraseCounts, error)
	ConsentStatus(ctx context.Context, subjectID id.SubjectID) (*models.ConsentStatus, error)
	UpdateConsent(ctx context.Context, subjectID id.SubjectID, update models.ConsentUpdate) (*models.ConsentPreferences, error)
}

// Handler wires subject rights endpoints to the compliance service.
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

// Register mounts subject endpoints. The caller applies admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subjects/{id}/export", h.HandleExport)
	r.Delete("/subjects/{id}", h.HandleErase)
	r.Get("/subjects/{id}/consent", h.HandleGetConsent)
	r.Put("/subjects/{id}/consent", h.HandleUpdateConsent)
}

// HandleExport handles GET /subjects/{id}/export.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bundle, err := h.service.Export(ctx, subjectID)
	if err != nil {
		h.logger.WarnContext(ctx, "subject export failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="subject-`+subjectID.String()+`.json"`)
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

// HandleErase handles DELETE /subjects/{id}?mode=anonymize|purge. The mode
// defaults to anonymize.
func (h *Handler) HandleErase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	mode := models.EraseAnonymize
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if mode, err = models.ParseEraseMode(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	counts, err := h.service.Erase(ctx, subjectID, mode)
	if err != nil {
		h.logger.WarnContext(ctx, "subject erasure failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID.String(),
			"mode", string(mode),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EraseResponse{
		SubjectID: subjectID.String(),
		Mode:      string(mode),
		Counts:    counts.Details(),
	})
}

// HandleGetConsent handles GET /subjects/{id}/consent.
func (h *Handler) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.ConsentStatus(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleUpdateConsent handles PUT /subjects/{id}/consent.
func (h *Handler) HandleUpdateConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	prefs, err := h.service.UpdateConsent(ctx, subjectID, req.toModel())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ConsentStatus{Preferences: prefs})
}

// ConsentRequest is the body of PUT /subjects/{id}/consent. Necessary
// processing cannot be switched off, so it is not accepted.
type ConsentRequest struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
	Cookies   bool `json:"cookies"`
}

func (r *ConsentRequest) Validate() error {
	return nil
}

func (r *ConsentRequest) toModel() models.ConsentUpdate {
	return models.ConsentUpdate{
		Analytics: r.Analytics,
		Marketing: r.Marketing,
		Cookies:   r.Cookies,
	}
}

// EraseResponse reports what an erasure touched.
type EraseResponse struct {
	SubjectID string         `json:"subject_id"`
	Mode      string         `json:"mode"`
	Counts    map[string]int `json:"counts"`
}
