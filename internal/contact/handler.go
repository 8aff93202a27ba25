package contact

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rinknet/internal/transport/http/shared"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/requestcontext"
)

// Handler serves both contact request surfaces: coach-parent under
// /contact-requests and parent-parent under /parent-contact-requests.
type Handler struct {
	logger   *slog.Logger
	contacts *Service
}

// NewHandler creates a contact Handler.
func NewHandler(contacts *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, contacts: contacts}
}

// Register registers the contact routes. The caller mounts this under the
// authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Get("/contact-requests", h.handleList)
	r.Get("/contact-requests/check", h.handleCheck)
	r.Post("/contact-requests", h.handleCreate)
	r.Patch("/contact-requests/{id}", h.handleDecide)

	r.Get("/parent-contact-requests", h.handleParentList)
	r.Get("/parent-contact-requests/check", h.handleParentCheck)
	r.Post("/parent-contact-requests", h.handleParentCreate)
	r.Patch("/parent-contact-requests/{id}", h.handleDecide)
}

type requestResponse struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	CoachProfileID  string `json:"coachProfileId,omitempty"`
	ParentProfileID string `json:"parentProfileId,omitempty"`
	RequesterID     string `json:"requesterParentId,omitempty"`
	PlayerID        string `json:"playerId,omitempty"`
	Direction       string `json:"direction"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type checkResponse struct {
	Status string `json:"status"`
}

func toRequestResponse(req *ContactRequest, viewer domain.AccountID) requestResponse {
	resp := requestResponse{
		ID:        req.ID.String(),
		Kind:      string(req.Kind),
		Direction: string(FilterOutgoing),
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt.Format(time.RFC3339),
		UpdatedAt: req.UpdatedAt.Format(time.RFC3339),
	}
	if req.TargetAccountID == viewer {
		resp.Direction = string(FilterIncoming)
	}
	if !req.CoachID.IsNil() {
		resp.CoachProfileID = req.CoachID.String()
	}
	if !req.ParentID.IsNil() {
		resp.ParentProfileID = req.ParentID.String()
	}
	if !req.RequesterParentID.IsNil() {
		resp.RequesterID = req.RequesterParentID.String()
	}
	if !req.PlayerID.IsNil() {
		resp.PlayerID = req.PlayerID.String()
	}
	return resp
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
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

	created, err := h.contacts.Request(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "contact request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRequestResponse(created, actor.AccountID))
}

func (h *Handler) handleParentCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req ParentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.contacts.RequestParent(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "parent contact request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRequestResponse(created, actor.AccountID))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseContactRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var body DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	to, err := body.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	decided, err := h.contacts.Decide(ctx, actor, id, to)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(decided, actor.AccountID))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, KindCoachParent)
}

func (h *Handler) handleParentList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, KindParentParent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, kind Kind) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	filter, ok := ParseListFilter(r.URL.Query().Get("filter"))
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "filter must be incoming, outgoing, or all"))
		return
	}

	requests, err := h.contacts.List(ctx, actor, kind, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req, actor.AccountID))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	q := r.URL.Query()
	coachID, err := domain.ParseCoachID(q.Get("coachProfileId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "coachProfileId is required"))
		return
	}
	parentID, err := domain.ParseParentID(q.Get("parentProfileId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "parentProfileId is required"))
		return
	}
	var playerID domain.PlayerID
	if raw := q.Get("playerId"); raw != "" {
		if playerID, err = domain.ParsePlayerID(raw); err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	coachAcct, parentAcct, err := h.contacts.ResolveParties(ctx, coachID, parentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	status, err := h.contacts.Check(ctx, actor, KindCoachParent, coachAcct, parentAcct, playerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkResponse{Status: string(status)})
}

func (h *Handler) handleParentCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	q := r.URL.Query()
	targetParentID, err := domain.ParseParentID(q.Get("targetParentId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "targetParentId is required"))
		return
	}
	playerID, err := domain.ParsePlayerID(q.Get("playerId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "playerId is required"))
		return
	}

	targetAcct, err := h.contacts.ResolveParent(ctx, targetParentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	status, err := h.contacts.Check(ctx, actor, KindParentParent, actor.AccountID, targetAcct, playerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkResponse{Status: string(status)})
}
