package support

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rinknet/internal/moderation"
	"rinknet/internal/transport/http/shared"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/requestcontext"
)

// Handler serves the support ticket endpoints.
type Handler struct {
	logger  *slog.Logger
	support *Service
}

// NewHandler creates a support Handler.
func NewHandler(support *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, support: support}
}

// Register registers the user-facing routes. The caller mounts this under
// the authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/support/messages", h.handleOpen)
	r.Get("/support/messages", h.handleMine)
}

// RegisterAdmin registers the support routes mounted under /admin behind the
// admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/support/messages", h.handleAdminList)
	r.Post("/support/messages/{id}/reply", h.handleReply)
	r.Patch("/support/messages/{id}", h.handleSetStatus)
}

type ticketResponse struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
	Messages  []messageResponse `json:"messages,omitempty"`
}

type messageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

func toTicketResponse(t *Ticket, msgs []*moderation.ThreadMessage) ticketResponse {
	resp := ticketResponse{
		ID:        t.ID.String(),
		Subject:   t.Subject,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:        m.ID.String(),
			Role:      string(m.Role),
			Text:      m.Text,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	t, err := h.support.Open(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "support ticket creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toTicketResponse(t, nil))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	views, err := h.support.Mine(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]ticketResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTicketResponse(v.Ticket, v.Messages))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var status TicketStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		if status, ok = ParseTicketStatus(raw); !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "status must be open or closed"))
			return
		}
	}

	views, err := h.support.AdminList(ctx, actor, status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]ticketResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTicketResponse(v.Ticket, v.Messages))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseTicketID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	msg, err := h.support.Reply(ctx, actor, id, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, messageResponse{
		ID:        msg.ID.String(),
		Role:      string(msg.Role),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseTicketID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var body StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := body.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.support.SetStatus(ctx, actor, id, status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTicketResponse(t, nil))
}
