package subscription

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rinknet/internal/transport/http/shared"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/requestcontext"
)

// Handler serves the subscription endpoints. The webhook is registered
// separately because it is called by the payment provider, not by users.
type Handler struct {
	logger *slog.Logger
	subs   *Service
}

// NewHandler creates a subscription Handler.
func NewHandler(subs *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, subs: subs}
}

// Register registers the authenticated subscription routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subscription/checkout", h.handleCheckout)
	r.Get("/subscription/status", h.handleStatus)
}

// RegisterWebhook registers the provider-facing webhook route. The caller
// mounts it outside the auth chain.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/subscription/webhook", h.handleWebhook)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	url, err := h.subs.Checkout(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "checkout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	resp, err := h.subs.Status(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid webhook payload"))
		return
	}

	if err := h.subs.ApplyWebhook(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "webhook apply failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_type", event.Type,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
