package player

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rinknet/internal/transport/http/shared"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/requestcontext"
)

// Handler serves the player endpoints.
type Handler struct {
	logger  *slog.Logger
	players *Service
}

// NewHandler creates a player Handler.
func NewHandler(players *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, players: players}
}

// Register registers the player routes. The caller mounts this under the
// authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Get("/players/can-add", h.handleCanAdd)
	r.Post("/players", h.handleAdd)
	r.Get("/players/{id}", h.handleView)
}

func (h *Handler) handleCanAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	decision, err := h.players.CanAdd(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
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

	p, decision, err := h.players.Add(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "add player failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if p == nil {
		// Gate refusal carries the decision so the client can route the
		// parent to checkout or an upgrade.
		shared.WriteJSON(w, http.StatusForbidden, decision)
		return
	}

	view, err := h.players.View(ctx, actor, p.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParsePlayerID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	view, err := h.players.View(ctx, viewer, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}
