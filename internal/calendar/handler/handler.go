// Package handler wires the tax calendar HTTP surface to the calendar
// service. Organization identity always comes from the authenticated request
// context, never from the URL or body.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/service"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/httputil"
	"taxcal/pkg/requestcontext"
)

// Service defines the calendar operations the HTTP layer depends on.
type Service interface {
	UpsertProfile(ctx context.Context, orgID id.OrgID, params service.UpsertProfileParams) (*models.Profile, error)
	GetProfile(ctx context.Context, orgID id.OrgID) (*models.Profile, error)
	CreateTemplate(ctx context.Context, orgID id.OrgID, params service.CreateTemplateParams) (*models.Template, error)
	UpdateTemplate(ctx context.Context, templateID id.TemplateID, orgID id.OrgID, params service.UpdateTemplateParams) (*models.Template, error)
	ListTemplates(ctx context.Context, orgID id.OrgID) ([]*models.Template, error)
	Generate(ctx context.Context, orgID id.OrgID, from, to time.Time) (int, error)
	ListEvents(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.Instance, error)
	StartInstance(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) (*models.Instance, error)
	MarkDone(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, note string) (*models.Instance, error)
	MarkSkipped(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, note string) (*models.Instance, error)
	AttachDocument(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, documentID id.DocumentID) (*models.Attachment, error)
	ListAttachments(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) ([]*models.Attachment, error)
}

// Handler wires calendar endpoints to the calendar service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a calendar handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts calendar endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tax-calendar", func(r chi.Router) {
		r.Post("/profile", h.HandleUpsertProfile)
		r.Get("/profile", h.HandleGetProfile)

		r.Get("/templates", h.HandleListTemplates)
		r.Post("/templates", h.HandleCreateTemplate)
		r.Patch("/templates/{templateID}", h.HandleUpdateTemplate)

		r.Get("/events", h.HandleListEvents)
		r.Post("/events/generate", h.HandleGenerate)
		r.Post("/events/{instanceID}/start", h.HandleStart)
		r.Post("/events/{instanceID}/done", h.HandleDone)
		r.Post("/events/{instanceID}/skip", h.HandleSkip)
		r.Post("/events/{instanceID}/attachments", h.HandleAttachDocument)
		r.Get("/events/{instanceID}/attachments", h.HandleListAttachments)
	})
}

// orgFromContext requires an authenticated organization on the request.
func orgFromContext(ctx context.Context) (id.OrgID, error) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsNil() {
		return id.OrgID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return orgID, nil
}

// HandleUpsertProfile handles POST /tax-calendar/profile requests.
func (h *Handler) HandleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpsertProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.UpsertProfile(ctx, orgID, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "profile upsert failed",
			"request_id", requestID,
			"organization_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile upserted",
		"request_id", requestID,
		"organization_id", orgID,
		"profile_id", profile.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleGetProfile handles GET /tax-calendar/profile requests.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.GetProfile(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleListTemplates handles GET /tax-calendar/templates requests.
func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	templates, err := h.service.ListTemplates(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTemplates(templates))
}

// HandleCreateTemplate handles POST /tax-calendar/templates requests.
func (h *Handler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tmpl, err := h.service.CreateTemplate(ctx, orgID, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "template creation failed",
			"request_id", requestID,
			"organization_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "template created",
		"request_id", requestID,
		"organization_id", orgID,
		"template_id", tmpl.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromTemplate(tmpl))
}

// HandleUpdateTemplate handles PATCH /tax-calendar/templates/{templateID}.
func (h *Handler) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tmpl, err := h.service.UpdateTemplate(ctx, templateID, orgID, req.Params())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTemplate(tmpl))
}

// HandleGenerate handles POST /tax-calendar/events/generate requests.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[GenerateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	from, to := req.Window()

	created, err := h.service.Generate(ctx, orgID, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "generation failed",
			"request_id", requestID,
			"organization_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "generation completed",
		"request_id", requestID,
		"organization_id", orgID,
		"created", created,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, GenerateResponse{Created: created})
}

// HandleListEvents handles GET /tax-calendar/events requests.
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	from, err := parseWindowTime(r.URL.Query().Get("from"), "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseWindowTime(r.URL.Query().Get("to"), "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	instances, err := h.service.ListEvents(ctx, orgID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromInstances(instances))
}

// instanceAction decodes the common note-bearing action request and invokes fn.
func (h *Handler) instanceAction(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, note string) (*models.Instance, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var note string
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[NoteRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		note = req.Note
	}

	inst, err := fn(ctx, instanceID, orgID, note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "instance action applied",
		"request_id", requestID,
		"organization_id", orgID,
		"instance_id", instanceID,
		"action", action,
		"status", inst.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromInstance(inst))
}

// HandleStart handles POST /tax-calendar/events/{instanceID}/start requests.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, "start", func(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, _ string) (*models.Instance, error) {
		return h.service.StartInstance(ctx, instanceID, orgID)
	})
}

// HandleDone handles POST /tax-calendar/events/{instanceID}/done requests.
func (h *Handler) HandleDone(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, "done", h.service.MarkDone)
}

// HandleSkip handles POST /tax-calendar/events/{instanceID}/skip requests.
func (h *Handler) HandleSkip(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, "skip", h.service.MarkSkipped)
}

// HandleAttachDocument handles POST /tax-calendar/events/{instanceID}/attachments.
func (h *Handler) HandleAttachDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AttachDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	att, err := h.service.AttachDocument(ctx, instanceID, orgID, req.ParsedDocumentID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document attached",
		"request_id", requestID,
		"organization_id", orgID,
		"instance_id", instanceID,
		"document_id", req.DocumentID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAttachment(att))
}

// HandleListAttachments handles GET /tax-calendar/events/{instanceID}/attachments.
func (h *Handler) HandleListAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := orgFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	attachments, err := h.service.ListAttachments(ctx, instanceID, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAttachments(attachments))
}
