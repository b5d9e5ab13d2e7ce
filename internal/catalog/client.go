package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// Directory lists the stored catalog records.
type Directory interface {
	ListHotels(ctx context.Context) ([]Hotel, error)
	ListActivities(ctx context.Context) ([]Activity, error)
	ListDayItineraries(ctx context.Context) ([]DayItinerary, error)
}

// SearchProvider queries live hotel inventory.
type SearchProvider interface {
	Search(ctx context.Context, city, query string) ([]Candidate, error)
	Rooms(ctx context.Context, hotelID string, params RoomParams) ([]Room, error)
}

// Client talks to a catalog or hotel search REST backend. It implements
// both Directory and SearchProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ListHotels implements Directory.
func (c *Client) ListHotels(ctx context.Context) ([]Hotel, error) {
	var out []Hotel
	return out, c.get(ctx, "/hotels", nil, &out)
}

// ListActivities implements Directory.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var out []Activity
	return out, c.get(ctx, "/activities", nil, &out)
}

// ListDayItineraries implements Directory.
func (c *Client) ListDayItineraries(ctx context.Context) ([]DayItinerary, error) {
	var out []DayItinerary
	return out, c.get(ctx, "/day-itineraries", nil, &out)
}

// Search implements SearchProvider.
func (c *Client) Search(ctx context.Context, city, query string) ([]Candidate, error) {
	var out []Candidate
	q := url.Values{}
	q.Set("city", city)
	if query != "" {
		q.Set("q", query)
	}
	return out, c.get(ctx, "/search", q, &out)
}

// Rooms implements SearchProvider.
func (c *Client) Rooms(ctx context.Context, hotelID string, params RoomParams) ([]Room, error) {
	var out []Room
	q := url.Values{}
	if params.CheckIn != "" {
		q.Set("checkIn", params.CheckIn)
	}
	if params.CheckOut != "" {
		q.Set("checkOut", params.CheckOut)
	}
	if params.Adults > 0 {
		q.Set("adults", strconv.Itoa(params.Adults))
	}
	if params.Rooms > 0 {
		q.Set("rooms", strconv.Itoa(params.Rooms))
	}
	return out, c.get(ctx, "/hotels/"+url.PathEscape(hotelID)+"/rooms", q, &out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: catalog request: %v", shared.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: catalog %s: %v", shared.ErrNetwork, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: catalog %s returned status %d", shared.ErrNetwork, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode catalog %s: %v", shared.ErrNetwork, path, err)
	}
	return nil
}
