// Package osrm fetches travel-time matrices from an OSRM table service.
// It is the data-acquisition collaborator of the solver: missing
// durations are replaced with the unreachable sentinel here, so the
// solver core only ever sees a dense numeric matrix.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shash06sp/Project-LogiSwift/internal/geo"
	"github.com/shash06sp/Project-LogiSwift/internal/solver"
)

// DefaultBaseURL is the public demo server. It tolerates only light
// traffic, hence the client-side rate limiter.
const DefaultBaseURL = "http://router.project-osrm.org"

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Limiter  *rate.Limiter
	Sentinel float64
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		Limiter:  rate.NewLimiter(rate.Limit(1), 1),
		Sentinel: solver.Unreachable,
	}
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
}

// Table returns the pairwise driving durations in seconds for the given
// points (depot first). Unroutable pairs come back as null from OSRM and
// are replaced with the sentinel; the count of replacements is returned
// so callers can log a warning.
func (c *Client) Table(ctx context.Context, points []geo.Point) ([][]float64, int, error) {
	if len(points) == 0 {
		return nil, 0, fmt.Errorf("osrm: no points")
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	// OSRM wants lon,lat ordering
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%f,%f", p.Lng, p.Lat)
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration", c.BaseURL, strings.Join(coords, ";"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("osrm: table request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("osrm: table request: status %d", resp.StatusCode)
	}
	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, 0, fmt.Errorf("osrm: decode table: %w", err)
	}
	if tr.Code != "" && tr.Code != "Ok" {
		return nil, 0, fmt.Errorf("osrm: table error: %s %s", tr.Code, tr.Message)
	}
	if len(tr.Durations) != len(points) {
		return nil, 0, fmt.Errorf("osrm: got %d rows, want %d", len(tr.Durations), len(points))
	}
	cleaned := 0
	out := make([][]float64, len(tr.Durations))
	for i, row := range tr.Durations {
		if len(row) != len(points) {
			return nil, 0, fmt.Errorf("osrm: row %d has %d entries, want %d", i, len(row), len(points))
		}
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = c.Sentinel
				cleaned++
				continue
			}
			out[i][j] = *v
		}
	}
	return out, cleaned, nil
}
