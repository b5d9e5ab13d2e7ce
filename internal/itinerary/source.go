package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// Source reads and patches itinerary records.
type Source interface {
	Get(ctx context.Context, id int64) (Itinerary, error)
	Update(ctx context.Context, id int64, upd Update) (Itinerary, error)
}

// Client talks to the itinerary REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the backend rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Get fetches one itinerary.
func (c *Client) Get(ctx context.Context, id int64) (Itinerary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(id), nil)
	if err != nil {
		return Itinerary{}, err
	}
	return c.do(req, id)
}

// Update sends a partial update (cover photo, terms) and returns the stored record.
func (c *Client) Update(ctx context.Context, id int64, upd Update) (Itinerary, error) {
	if upd.Empty() {
		return Itinerary{}, fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}
	body, err := json.Marshal(upd)
	if err != nil {
		return Itinerary{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.url(id), bytes.NewReader(body))
	if err != nil {
		return Itinerary{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, id)
}

func (c *Client) url(id int64) string {
	return c.baseURL + "/itineraries/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(req *http.Request, id int64) (Itinerary, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Itinerary{}, fmt.Errorf("%w: itinerary %d: %v", shared.ErrNetwork, id, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Itinerary{}, fmt.Errorf("itinerary %d: %w", id, shared.ErrNotFound)
	case resp.StatusCode >= 400:
		return Itinerary{}, fmt.Errorf("%w: itinerary %d: backend returned status %d", shared.ErrNetwork, id, resp.StatusCode)
	}
	var it Itinerary
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return Itinerary{}, fmt.Errorf("%w: decode itinerary %d: %v", shared.ErrNetwork, id, err)
	}
	if it.ID == 0 {
		it.ID = id
	}
	return it, nil
}
