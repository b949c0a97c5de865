package gbfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// HTTPDoer is the minimal HTTP client interface, satisfied by *Transport and
// *http.Client alike.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds feed endpoints and dependencies.
type ClientConfig struct {
	// InformationURL is the station_information.json endpoint.
	InformationURL string

	// StatusURL is the station_status.json endpoint.
	StatusURL string

	// HTTPClient defaults to a resilient Transport when nil.
	HTTPClient HTTPDoer

	Logger zerolog.Logger
}

// Client fetches and joins the two GBFS station documents.
type Client struct {
	informationURL string
	statusURL      string
	httpClient     HTTPDoer
	logger         zerolog.Logger
}

// NewClient creates a GBFS client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewTransport(TransportConfig{})
	}
	return &Client{
		informationURL: cfg.InformationURL,
		statusURL:      cfg.StatusURL,
		httpClient:     httpClient,
		logger:         cfg.Logger.With().Str("component", "gbfs_client").Logger(),
	}
}

// FetchStations retrieves both feed documents and joins them by station id,
// ordered by station id for deterministic downstream processing. Status
// records without a matching information record are dropped with a warning;
// information records without status are kept with a zero status so station
// sync still sees them.
func (c *Client) FetchStations(ctx context.Context) ([]FeedStation, error) {
	var info envelope[StationInfo]
	if err := c.fetch(ctx, c.informationURL, &info); err != nil {
		return nil, fmt.Errorf("station information: %w", err)
	}

	var status envelope[StationStatus]
	if err := c.fetch(ctx, c.statusURL, &status); err != nil {
		return nil, fmt.Errorf("station status: %w", err)
	}

	statusByID := make(map[string]StationStatus, len(status.Data.Stations))
	for _, s := range status.Data.Stations {
		statusByID[s.StationID] = s
	}

	stations := make([]FeedStation, 0, len(info.Data.Stations))
	seen := make(map[string]bool, len(info.Data.Stations))
	for _, i := range info.Data.Stations {
		if i.StationID == "" {
			return nil, fmt.Errorf("%w: station with empty id", ErrMalformedFeed)
		}
		seen[i.StationID] = true

		fs := FeedStation{Info: i}
		if st, ok := statusByID[i.StationID]; ok {
			fs.Status = st
			if st.LastReported > 0 {
				fs.ReportedAt = time.Unix(st.LastReported, 0).UTC()
			}
		}
		stations = append(stations, fs)
	}

	for id := range statusByID {
		if !seen[id] {
			c.logger.Warn().
				Str("station_id", id).
				Msg("status record without matching information record")
		}
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].Info.StationID < stations[j].Info.StationID
	})

	return stations, nil
}

func (c *Client) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: unexpected status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return nil
}
