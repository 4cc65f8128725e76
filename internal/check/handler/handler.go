// Package handler exposes the background check workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vetgate/internal/catalog"
	"vetgate/internal/check/models"
	"vetgate/internal/check/service"
	"vetgate/internal/consent"
	"vetgate/internal/intake"
	"vetgate/internal/transport/http/shared"
	"vetgate/pkg/domain"
	dErrors "vetgate/pkg/domain-errors"
	"vetgate/pkg/requestcontext"
)

// Service defines the check operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, input service.SubmitInput) (*models.BackgroundCheck, bool, error)
	Refresh(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error)
	Get(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error)
	GetByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error)
}

// Catalog lists the screening packages for the read endpoint.
type Catalog interface {
	List() []catalog.ScreeningPackage
}

// Handler handles check workflow endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	catalog Catalog
}

// New creates a check Handler.
func New(svc Service, cat Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
		catalog: cat,
	}
}

// Register registers the check routes with the chi router. Authentication and
// the common middleware chain are applied by the parent router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/packages", h.handleListPackages)
	r.Post("/checks", h.handleSubmit)
	r.Get("/checks/{checkID}", h.handleGet)
	r.Post("/checks/{checkID}/refresh", h.handleRefresh)
	r.Get("/applications/{applicationID}/check", h.handleGetByApplication)
}

// submitRequest is the intake payload. The candidate block is handed to the
// validator and forwarded to the provider; it is never echoed back or stored.
type submitRequest struct {
	ApplicationID string           `json:"application_id"`
	PackageID     string           `json:"package_id"`
	Candidate     intake.Candidate `json:"candidate"`
	Consent       consent.Record   `json:"consent"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	appID, err := domain.ParseApplicationID(req.ApplicationID)
	if err != nil {
		shared.WriteError(w, dErrors.NewField(dErrors.CodeValidation, "application_id",
			"application_id must be a valid UUID"))
		return
	}

	// The consent affirmation defaults to the authenticated operator when the
	// request body does not name one.
	if req.Consent.AffirmedBy == "" {
		req.Consent.AffirmedBy = requestcontext.OperatorID(ctx)
	}

	check, created, err := h.service.Submit(ctx, service.SubmitInput{
		ApplicationID: appID,
		PackageID:     req.PackageID,
		Candidate:     req.Candidate,
		Consent:       req.Consent,
	})
	if err != nil {
		h.logRejection(ctx, "submit rejected", err)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.WriteJSON(w, status, check)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	check, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	check, err := h.service.Refresh(ctx, id)
	if err != nil {
		h.logRejection(ctx, "refresh failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) handleGetByApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	check, err := h.service.GetByApplication(r.Context(), appID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"packages": h.catalog.List(),
	})
}

func (h *Handler) logRejection(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	// Internal failures log at error; expected precondition rejections at warn.
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err)
}
