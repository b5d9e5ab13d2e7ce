package catalog

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripdesk/tripdesk/internal/platform/httpx"
	"github.com/tripdesk/tripdesk/internal/shared"
)

// Handler exposes the catalog panels over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/hotels", h.listHotels)
	r.Get("/activities", h.listActivities)
	r.Get("/day-itineraries", h.listDayItineraries)
	r.Get("/hotel-search", h.searchHotels)
	r.Get("/hotels/{hotelID}/rooms", h.listRooms)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) listHotels(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Hotels(r.Context()))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Activities(r.Context()))
}

func (h *Handler) listDayItineraries(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.DayItineraries(r.Context()))
}

func (h *Handler) searchHotels(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.SearchHotels(r.Context(), city, r.URL.Query().Get("q")))
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := RoomParams{CheckIn: q.Get("checkIn"), CheckOut: q.Get("checkOut")}
	var err error
	if params.Adults, err = countParam(q.Get("adults"), "adults"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if params.Rooms, err = countParam(q.Get("rooms"), "rooms"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Rooms(r.Context(), chi.URLParam(r, "hotelID"), params))
}

// countParam parses an optional non-negative count; absent means zero.
func countParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", shared.ErrValidation, name, raw)
	}
	return n, nil
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
