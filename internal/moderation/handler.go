package moderation

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

// Handler serves reviews, disputes, and the admin moderation feed.
type Handler struct {
	logger     *slog.Logger
	moderation *Service
}

// NewHandler creates a moderation Handler.
func NewHandler(moderation *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, moderation: moderation}
}

// Register registers the user-facing routes. The caller mounts this under
// the authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/coaches/{id}/reviews", h.submitReview(KindCoach))
	r.Post("/players/{id}/reviews", h.submitReview(KindPlayer))
	r.Post("/coaches/reviews/{reviewId}/dispute", h.openDispute(KindCoach))
	r.Post("/players/reviews/{reviewId}/dispute", h.openDispute(KindPlayer))
	r.Get("/disputes", h.handleMyDisputes)
	r.Post("/disputes/{kind}/{id}/reply", h.handleReply)
}

// RegisterAdmin registers the moderation routes mounted under /admin behind
// the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/disputes", h.handleAdminFeed)
	r.Patch("/disputes/{kind}/{id}", h.handleClose)
	r.Post("/disputes/{kind}/{id}", h.handleReply)
	r.Post("/reviews/{kind}/{id}/restore", h.handleRestore)
}

type reviewResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	SubjectID  string `json:"subjectId"`
	Rating     int    `json:"rating"`
	Text       string `json:"text,omitempty"`
	Visibility string `json:"visibility"`
	CreatedAt  string `json:"createdAt"`
}

type disputeResponse struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	ReviewID  string            `json:"reviewId"`
	Reason    string            `json:"reason"`
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

func toReviewResponse(r *Review) reviewResponse {
	return reviewResponse{
		ID:         r.ID.String(),
		Kind:       string(r.Kind),
		SubjectID:  r.SubjectID,
		Rating:     r.Rating,
		Text:       r.Text,
		Visibility: string(r.Visibility),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func toDisputeResponse(d *Dispute, msgs []*ThreadMessage) disputeResponse {
	resp := disputeResponse{
		ID:        d.ID.String(),
		Kind:      string(d.Kind),
		ReviewID:  d.ReviewID.String(),
		Reason:    d.Reason,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
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

func (h *Handler) submitReview(kind ReviewKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, ok := requestcontext.Account(ctx)
		if !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req ReviewCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		review, err := h.moderation.SubmitReview(ctx, actor, kind, chi.URLParam(r, "id"), req)
		if err != nil {
			h.logger.WarnContext(ctx, "review submission failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusCreated, toReviewResponse(review))
	}
}

func (h *Handler) openDispute(kind ReviewKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, ok := requestcontext.Account(ctx)
		if !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}

		reviewID, err := domain.ParseReviewID(chi.URLParam(r, "reviewId"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		var req DisputeCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		d, err := h.moderation.OpenDispute(ctx, actor, kind, reviewID, req)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusCreated, toDisputeResponse(d, nil))
	}
}

func (h *Handler) handleMyDisputes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	views, err := h.moderation.MyDisputes(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]disputeResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toDisputeResponse(v.Dispute, v.Messages))
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

	kind, ok := ParseReviewKind(chi.URLParam(r, "kind"))
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "kind must be coach or player"))
		return
	}
	disputeID, err := domain.ParseDisputeID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	msg, err := h.moderation.Reply(ctx, actor, kind, disputeID, req)
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

func (h *Handler) handleAdminFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	q := r.URL.Query()
	var kind ReviewKind
	if raw := q.Get("type"); raw != "" {
		if kind, ok = ParseReviewKind(raw); !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "type must be coach or player"))
			return
		}
	}
	var status DisputeStatus
	if raw := q.Get("status"); raw != "" {
		if status, ok = ParseDisputeStatus(raw); !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown status"))
			return
		}
	}

	views, err := h.moderation.AdminFeed(ctx, actor, kind, status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]disputeResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toDisputeResponse(v.Dispute, v.Messages))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	kind, ok := ParseReviewKind(chi.URLParam(r, "kind"))
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "kind must be coach or player"))
		return
	}
	disputeID, err := domain.ParseDisputeID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var body DisputeDecideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	to, err := body.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	d, err := h.moderation.Close(ctx, actor, kind, disputeID, to)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDisputeResponse(d, nil))
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Account(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	kind, ok := ParseReviewKind(chi.URLParam(r, "kind"))
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "kind must be coach or player"))
		return
	}
	reviewID, err := domain.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	review, err := h.moderation.RestoreReview(ctx, actor, kind, reviewID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toReviewResponse(review))
}
