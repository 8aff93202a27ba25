package coach

import (
	"context"
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

// ReviewSummarizer exposes the visible-review aggregate for a profile.
// Implemented by the moderation service; hidden reviews never count.
type ReviewSummarizer interface {
	VisibleSummary(ctx context.Context, kind string, subjectID string) (avg float64, count int, err error)
}

// Handler serves the coach profile endpoints.
type Handler struct {
	logger  *slog.Logger
	coaches *Service
	reviews ReviewSummarizer
}

// NewHandler creates a coach Handler.
func NewHandler(coaches *Service, reviews ReviewSummarizer, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		coaches: coaches,
		reviews: reviews,
	}
}

// Register registers the coach routes. The caller mounts this under the
// authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/coaches", h.handleRegister)
	r.Get("/coaches/{id}", h.handleGet)
}

type profileResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	League        string  `json:"league"`
	Team          string  `json:"team"`
	Level         string  `json:"level"`
	BirthYear     int     `json:"birthYear"`
	CoachRole     string  `json:"coachRole"`
	CreatedAt     string  `json:"createdAt"`
	RatingAverage float64 `json:"ratingAverage"`
	RatingCount   int     `json:"ratingCount"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.coaches.Register(ctx, actor, req)
	if err != nil {
		h.logger.WarnContext(ctx, "coach registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toProfileResponse(profile, 0, 0))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseCoachID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.coaches.Get(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var avg float64
	var count int
	if h.reviews != nil {
		avg, count, err = h.reviews.VisibleSummary(ctx, "coach", id.String())
		if err != nil {
			h.logger.ErrorContext(ctx, "review summary failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load reviews"))
			return
		}
	}

	shared.WriteJSON(w, http.StatusOK, toProfileResponse(profile, avg, count))
}

func toProfileResponse(p *Profile, avg float64, count int) profileResponse {
	return profileResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		League:        p.League,
		Team:          p.Team,
		Level:         p.Level,
		BirthYear:     p.BirthYear,
		CoachRole:     string(p.CoachRole),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		RatingAverage: avg,
		RatingCount:   count,
	}
}
