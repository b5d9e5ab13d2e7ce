package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/platform/httpx"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
)

// Renderer converts a proposal to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, p proposals.Proposal) ([]byte, error)
}

// Enqueuer schedules proposal generation in the background.
type Enqueuer interface {
	EnqueueProposalGeneration(ctx context.Context, itineraryID int64) (string, error)
}

// Handler exposes the workspace engine over JSON.
type Handler struct {
	service   *Service
	renderer  Renderer
	enqueuer  Enqueuer
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler constructs a Handler. renderer and enqueuer may be nil.
func NewHandler(service *Service, renderer Renderer, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		renderer:  renderer,
		enqueuer:  enqueuer,
		logger:    logger,
		validator: validator.New(),
	}
}

// MountRoutes registers itinerary workspace routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/workspace", h.getWorkspace)
		r.Patch("/", h.updateItinerary)

		r.Route("/days/{day}", func(r chi.Router) {
			r.Get("/events", h.listEvents)
			r.Post("/events", h.addEvent)
			r.Put("/events/{eventID}", h.updateEvent)
			r.Delete("/events/{eventID}", h.removeEvent)
			r.Post("/events/{eventID}/move", h.moveEvent)
			r.Post("/events/{eventID}/options", h.addOption)
			r.Put("/events/{eventID}/options/{index}", h.updateOption)
			r.Delete("/events/{eventID}/options/{index}", h.removeOption)
			r.Post("/hotels", h.quickAddHotel)
		})

		r.Get("/pricing", h.getPricing)
		r.Put("/pricing/{key}", h.setPricing)
		r.Put("/overrides/{optionNumber}", h.setOverride)
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)

		r.Get("/proposals", h.listProposals)
		r.Post("/proposals", h.generateProposals)
		r.Get("/proposals/{proposalID}/pdf", h.proposalPDF)
	})
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (*Workspace, bool) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	ws, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return ws, true
}

func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ws.View())
}

func (h *Handler) updateItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req itineraryUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	it, err := h.service.UpdateItinerary(r.Context(), id, req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, err := pathInt(r, "day")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws.Events(day))
}

func (h *Handler) addEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, err := pathInt(r, "day")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var ev planner.Event
	if !h.decode(w, r, &ev) {
		return
	}
	added, err := ws.AddEvent(r.Context(), day, ev)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, added)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var ev planner.Event
	if !h.decode(w, r, &ev) {
		return
	}
	ev.ID = eventID
	updated, err := ws.UpdateEvent(r.Context(), day, ev)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) removeEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := ws.RemoveEvent(r.Context(), day, eventID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := ws.MoveEvent(r.Context(), day, eventID, *req.To); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws.Events(day))
}

func (h *Handler) addOption(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var draft planner.Option
	if !h.decode(w, r, &draft) {
		return
	}
	opt, err := ws.AddOption(r.Context(), day, eventID, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, opt)
}

func (h *Handler) updateOption(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var draft planner.Option
	if !h.decode(w, r, &draft) {
		return
	}
	opt, err := ws.UpdateOption(r.Context(), day, eventID, index, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opt)
}

func (h *Handler) removeOption(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	day, eventID, err := dayAndEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := ws.RemoveOption(r.Context(), day, eventID, index); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) quickAddHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	day, err := pathInt(r, "day")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req quickAddRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.service.QuickAddHotel(r.Context(), id, day, req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ev)
}

func (h *Handler) getPricing(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view := ws.View()
	httpx.JSON(w, http.StatusOK, pricingResponse{Entries: view.Ledger, Overrides: view.Overrides})
}

func (h *Handler) setPricing(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	key, err := pricing.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req pricingRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := ws.SetPricing(r.Context(), key, req.Net, req.Markup)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) setOverride(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	optionNumber, err := pathInt(r, "optionNumber")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req overrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := ws.SetOverride(r.Context(), optionNumber, req.Price); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ws.View().Overrides)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ws.Settings())
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req pricing.Settings
	if !h.decode(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, ws.UpdateSettings(r.Context(), req))
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListProposals(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) generateProposals(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if h.enqueuer == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background generation is not configured")
			return
		}
		taskID, err := h.enqueuer.EnqueueProposalGeneration(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		// The worker persists its own copy; reload on next use.
		h.service.Evict(id)
		httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: taskID})
		return
	}
	result, err := h.service.GenerateProposals(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(result.Generated) == 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) proposalPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Renderer Unavailable", "pdf rendering is not configured")
		return
	}
	p, err := h.service.Proposal(r.Context(), id, chi.URLParam(r, "proposalID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pdf, err := h.renderer.Render(r.Context(), p)
	if err != nil {
		h.logger.Error("render proposal pdf", slog.String("proposal_id", p.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "unable to render proposal")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=proposal-%s.pdf", p.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return false
		}
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrLimitExceeded) {
		h.logger.Error("workspace request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", shared.ErrValidation, name)
	}
	return v, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", shared.ErrValidation, name)
	}
	return v, nil
}

func dayAndEvent(r *http.Request) (int, int64, error) {
	day, err := pathInt(r, "day")
	if err != nil {
		return 0, 0, err
	}
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		return 0, 0, err
	}
	return day, eventID, nil
}
