package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// Service fronts the directories and the search provider. Upstream failures
// never reach callers of the list and search operations: lists degrade to
// empty and searches degrade to the fallback generator.
type Service struct {
	directory Directory
	search    SearchProvider
	fallback  Fallback
	cache     *Cache
	group     singleflight.Group
	logger    *slog.Logger
}

// NewService constructs the catalog service. directory and search may be nil
// when no backend is configured.
func NewService(directory Directory, search SearchProvider, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{directory: directory, search: search, cache: cache, logger: logger}
}

// Hotels lists stored hotels.
func (s *Service) Hotels(ctx context.Context) []Hotel {
	return cachedList(ctx, s, "hotels", func(ctx context.Context) ([]Hotel, error) {
		return s.directory.ListHotels(ctx)
	})
}

// Activities lists stored activities.
func (s *Service) Activities(ctx context.Context) []Activity {
	return cachedList(ctx, s, "activities", func(ctx context.Context) ([]Activity, error) {
		return s.directory.ListActivities(ctx)
	})
}

// DayItineraries lists stored day templates.
func (s *Service) DayItineraries(ctx context.Context) []DayItinerary {
	return cachedList(ctx, s, "day-itineraries", func(ctx context.Context) ([]DayItinerary, error) {
		return s.directory.ListDayItineraries(ctx)
	})
}

// Hotel looks up a stored hotel by id.
func (s *Service) Hotel(ctx context.Context, id string) (Hotel, error) {
	for _, h := range s.Hotels(ctx) {
		if h.ID == id {
			return h, nil
		}
	}
	return Hotel{}, fmt.Errorf("%w: hotel %q", shared.ErrNotFound, id)
}

// SearchHotels queries the live provider and falls back to generated
// candidates on error or an empty result.
func (s *Service) SearchHotels(ctx context.Context, city, query string) []Candidate {
	city = strings.TrimSpace(city)
	if s.search != nil {
		key := "search:" + strings.ToLower(city) + ":" + strings.ToLower(query)
		v, err, _ := s.group.Do(key, func() (any, error) {
			return s.search.Search(ctx, city, query)
		})
		if err != nil {
			s.logger.Warn("hotel search failed, using fallback", slog.String("city", city), slog.Any("error", err))
		} else if hits, _ := v.([]Candidate); len(hits) > 0 {
			return hits
		}
	}
	return s.fallback.Search(city, query)
}

// Rooms lists rooms of hotelID, falling back to generated rooms.
func (s *Service) Rooms(ctx context.Context, hotelID string, params RoomParams) []Room {
	if s.search != nil {
		rooms, err := s.search.Rooms(ctx, hotelID, params)
		if err != nil {
			s.logger.Warn("room lookup failed, using fallback", slog.String("hotel_id", hotelID), slog.Any("error", err))
		} else if len(rooms) > 0 {
			return rooms
		}
	}
	return s.fallback.Rooms(hotelID)
}

// Refresh invalidates every cached list.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.cache.Bump(ctx)
	return err
}

// cachedList serves a directory list through the versioned cache. Concurrent
// callers for the same list share one upstream fetch. A cache failure falls
// through to the directory; a directory failure yields an empty list.
func cachedList[T any](ctx context.Context, s *Service, name string, loader func(context.Context) ([]T, error)) []T {
	if s.directory == nil {
		return []T{}
	}
	v, err, _ := s.group.Do("list:"+name, func() (any, error) {
		var loadErr error
		load := func(ctx context.Context) (any, error) {
			items, err := loader(ctx)
			loadErr = err
			return items, err
		}
		key, err := s.cache.BuildKey(ctx, name)
		if err == nil {
			var out []T
			if err = s.cache.FetchJSON(ctx, key, &out, load); err == nil {
				return out, nil
			}
			if loadErr != nil {
				return nil, loadErr
			}
		}
		s.logger.Warn("catalog cache unavailable", slog.String("list", name), slog.Any("error", err))
		return loader(ctx)
	})
	if err != nil {
		s.logger.Warn("catalog list failed", slog.String("list", name), slog.Any("error", err))
		return []T{}
	}
	out, _ := v.([]T)
	if out == nil {
		return []T{}
	}
	return out
}
