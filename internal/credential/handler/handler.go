package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustplane/internal/credential/models"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/httputil"
	"trustplane/pkg/requestcontext"
)

// Service defines the credential operations exposed to administrators.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.Credential, string, error)
	Revoke(ctx context.Context, credID id.CredentialID, actorID string) (*models.Credential, error)
	List(ctx context.Context, owner id.SubjectID) ([]*models.Credential, error)
	Now() time.Time
}

// Handler wires admin credential endpoints to the credential service.
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

// Register mounts credential endpoints. The caller applies admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/credentials", h.HandleCreate)
	r.Get("/admin/credentials", h.HandleList)
	r.Post("/admin/credentials/{id}/revoke", h.HandleRevoke)
}

// HandleCreate handles POST /admin/credentials. The response is the only
// place the plaintext secret is ever returned.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, secret, err := h.service.Create(ctx, req.toModel())
	if err != nil {
		h.logger.WarnContext(ctx, "credential creation failed",
			"request_id", requestID,
			"owner_id", req.OwnerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.Created{
		View:   models.NewView(cred, h.service.Now()),
		Secret: secret,
	})
}

// HandleList handles GET /admin/credentials?owner_id=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := id.ParseSubjectID(r.URL.Query().Get("owner_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	creds, err := h.service.List(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list credentials",
			"request_id", requestcontext.RequestID(ctx),
			"owner_id", owner.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	now := h.service.Now()
	views := make([]models.View, 0, len(creds))
	for _, c := range creds {
		views = append(views, models.NewView(c, now))
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Credentials: views})
}

// HandleRevoke handles POST /admin/credentials/{id}/revoke. Revoking an
// already revoked credential succeeds with the stored record.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	credID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.service.Revoke(ctx, credID, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewView(cred, h.service.Now()))
}

// ListResponse wraps an owner's credentials.
type ListResponse struct {
	Credentials []models.View `json:"credentials"`
}
