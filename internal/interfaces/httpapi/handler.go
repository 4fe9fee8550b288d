package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/riskibarqy/volleyball-dashboard/internal/usecase"
)

const (
	refreshKindStandings = "standings"
	refreshKindUpcoming  = "upcoming"
	refreshKindActive    = "active"
)

// DashboardService is the read and refresh surface of usecase.DashboardService.
type DashboardService interface {
	ListLeagues(ctx context.Context) ([]league.League, error)
	GetLeague(ctx context.Context, leagueID string) (league.League, error)
	GetDashboardData(ctx context.Context, leagueID string) (usecase.Dashboard, error)
	RefreshStandings(ctx context.Context, leagueID string) error
	RefreshUpcomingMatches(ctx context.Context, leagueID string) error
	RefreshActiveMatches(ctx context.Context, leagueID string) error
}

type TrackingJobLister interface {
	TrackedJobs() []usecase.TrackingJob
}

type LogoLister interface {
	Logos() map[string]string
}

type Handler struct {
	dashboardService DashboardService
	tracker          TrackingJobLister
	logos            LogoLister
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	dashboardService DashboardService,
	tracker TrackingJobLister,
	logos LogoLister,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		dashboardService: dashboardService,
		tracker:          tracker,
		logos:            logos,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.dashboardService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	item, err := h.dashboardService.GetLeague(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(item))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDashboard")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	dashboard, err := h.dashboardService.GetDashboardData(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get dashboard failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dashboardToDTO(dashboard))
}

// Refresh runs one refresh operation. Unknown leagues are a no-op for the refresh
// operations, so they are rejected here first.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Refresh")
	defer span.End()

	req := refreshRequest{
		LeagueID: strings.TrimSpace(r.PathValue("leagueID")),
		Kind:     strings.ToLower(strings.TrimSpace(r.PathValue("kind"))),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if _, err := h.dashboardService.GetLeague(ctx, req.LeagueID); err != nil {
		writeError(ctx, w, err)
		return
	}

	var err error
	switch req.Kind {
	case refreshKindStandings:
		err = h.dashboardService.RefreshStandings(ctx, req.LeagueID)
	case refreshKindUpcoming:
		err = h.dashboardService.RefreshUpcomingMatches(ctx, req.LeagueID)
	case refreshKindActive:
		err = h.dashboardService.RefreshActiveMatches(ctx, req.LeagueID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "refresh failed", "league_id", req.LeagueID, "kind", req.Kind, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh completed", "league_id", req.LeagueID, "kind", req.Kind)
	writeSuccess(ctx, w, http.StatusAccepted, refreshResultDTO{LeagueID: req.LeagueID, Kind: req.Kind})
}

func (h *Handler) ListTrackingJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTrackingJobs")
	defer span.End()

	jobs := h.tracker.TrackedJobs()
	items := make([]trackingJobDTO, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, trackingJobToDTO(job))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeamLogos(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamLogos")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, teamLogosToDTO(h.logos.Logos()))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type refreshRequest struct {
	LeagueID string `validate:"required"`
	Kind     string `validate:"required,oneof=standings upcoming active"`
}
