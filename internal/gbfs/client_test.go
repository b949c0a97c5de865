package gbfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const informationPayload = `{
	"last_updated": 1750000000,
	"ttl": 60,
	"data": {
		"stations": [
			{"station_id": "42", "name": "Main Station", "lat": 54.3520, "lon": 18.6466, "capacity": 20},
			{"station_id": "7", "name": "Oliwa Park", "lat": 54.4102, "lon": 18.5606, "capacity": 12}
		]
	}
}`

const statusPayload = `{
	"last_updated": 1750000000,
	"ttl": 60,
	"data": {
		"stations": [
			{"station_id": "7", "num_bikes_available": 3, "num_docks_available": 9, "is_installed": true, "is_renting": true, "last_reported": 1750000000},
			{"station_id": "42", "num_bikes_available": 0, "num_docks_available": 20, "is_installed": true, "is_renting": true, "last_reported": 1749999900},
			{"station_id": "99", "num_bikes_available": 1, "num_docks_available": 5, "is_installed": true, "is_renting": true, "last_reported": 1750000000}
		]
	}
}`

func newFeedServer(t *testing.T, information, status string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/station_information.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(information))
	})
	mux.HandleFunc("/station_status.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(status))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFeedClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{
		InformationURL: srv.URL + "/station_information.json",
		StatusURL:      srv.URL + "/station_status.json",
		HTTPClient:     srv.Client(),
		Logger:         zerolog.Nop(),
	})
}

func TestFetchStationsJoinsByID(t *testing.T) {
	srv := newFeedServer(t, informationPayload, statusPayload)
	client := newFeedClient(srv)

	stations, err := client.FetchStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2, "status-only records are not invented into stations")

	// Ordered by station id.
	assert.Equal(t, "42", stations[0].Info.StationID)
	assert.Equal(t, "7", stations[1].Info.StationID)

	assert.Equal(t, "Main Station", stations[0].Info.Name)
	assert.Equal(t, 0, stations[0].Status.BikesAvailable)
	assert.Equal(t, 20, stations[0].Status.DocksAvailable)
	assert.Equal(t, time.Unix(1749999900, 0).UTC(), stations[0].ReportedAt)

	assert.Equal(t, 3, stations[1].Status.BikesAvailable)
	assert.Equal(t, 12, stations[1].Info.Capacity)
}

func TestFetchStationsInformationWithoutStatus(t *testing.T) {
	status := `{"last_updated": 1, "ttl": 60, "data": {"stations": []}}`
	srv := newFeedServer(t, informationPayload, status)
	client := newFeedClient(srv)

	stations, err := client.FetchStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Zero(t, stations[0].Status.BikesAvailable)
	assert.True(t, stations[0].ReportedAt.IsZero())
}

func TestFetchStationsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := newFeedClient(srv)

	_, err := client.FetchStations(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestFetchStationsMalformedPayload(t *testing.T) {
	srv := newFeedServer(t, `{"data": {"stations": [{]}`, statusPayload)
	client := newFeedClient(srv)

	_, err := client.FetchStations(context.Background())
	assert.ErrorIs(t, err, ErrMalformedFeed)
}

func TestFetchStationsEmptyStationID(t *testing.T) {
	information := `{"data": {"stations": [{"station_id": "", "name": "Ghost", "lat": 54.0, "lon": 18.6, "capacity": 4}]}}`
	srv := newFeedServer(t, information, statusPayload)
	client := newFeedClient(srv)

	_, err := client.FetchStations(context.Background())
	assert.ErrorIs(t, err, ErrMalformedFeed)
}

func TestTransportRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"stations": []}}`))
	}))
	t.Cleanup(srv.Close)

	transport := NewTransport(TransportConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := transport.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}
