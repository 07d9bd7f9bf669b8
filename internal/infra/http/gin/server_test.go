package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendarsvc "staycal/internal/app/services/calendar"
	exportsvc "staycal/internal/app/services/export"
	feedssvc "staycal/internal/app/services/feeds"
	domainavailability "staycal/internal/domain/availability"
	domainfeeds "staycal/internal/domain/feeds"
	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
	"staycal/internal/infra/storage/memory"
)

type stubFetcher struct {
	feeds map[string][]domainfeeds.EventRange
}

func (f stubFetcher) Fetch(ctx context.Context, feedURL string) ([]domainfeeds.EventRange, error) {
	ranges, ok := f.feeds[feedURL]
	if !ok {
		return nil, fmt.Errorf("%w: no such feed", domainfeeds.ErrUnreachable)
	}
	return ranges, nil
}

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, filename string, content io.Reader) (string, string, error) {
	return "https://exports.test/" + filename, "exports/" + filename, nil
}

func (stubPublisher) Unpublish(ctx context.Context, filePath string) error { return nil }

type stubBuilder struct{}

func (stubBuilder) Build(propertyID string, rows []domainavailability.BlockedDate) ([]byte, error) {
	return []byte("BEGIN:VCALENDAR"), nil
}

type testServer struct {
	handler http.Handler
	factory memory.Factory
	fetcher stubFetcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	factory := memory.NewFactory()
	fetcher := stubFetcher{feeds: make(map[string][]domainfeeds.EventRange)}
	exporter := &exportsvc.Regenerator{Builder: stubBuilder{}, Publisher: stubPublisher{}}

	handlers := Handlers{
		Calendar: CalendarHandler{Service: &calendarsvc.Service{
			UoW:      factory,
			Exporter: exporter,
		}},
		Feeds: FeedsHandler{
			Registry:     &feedssvc.Registry{UoW: factory, Fetcher: fetcher, Exporter: exporter},
			Syncer:       &feedssvc.Syncer{UoW: factory, Fetcher: fetcher, Exporter: exporter},
			ConflictsSvc: &feedssvc.Conflicts{UoW: factory, Fetcher: fetcher},
		},
	}
	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, handlers)
	return &testServer{handler: server.Handler, factory: factory, fetcher: fetcher}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", nil).Code)
}

func TestBlockUnblockListFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendar/block", map[string]any{
		"start_date": "2026-04-01",
		"end_date":   "2026-04-03",
		"reason":     "renovation",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var blocked struct {
		BlockedDays []struct {
			Date       string `json:"date"`
			IsCheckIn  bool   `json:"is_check_in"`
			IsCheckOut bool   `json:"is_check_out"`
		} `json:"blocked_days"`
		ExportURL string `json:"export_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))
	require.Len(t, blocked.BlockedDays, 3)
	assert.True(t, blocked.BlockedDays[0].IsCheckIn)
	assert.True(t, blocked.BlockedDays[2].IsCheckOut)
	assert.Equal(t, "https://exports.test/property-p1.ics", blocked.ExportURL)

	rec = s.do(t, http.MethodPost, "/api/v1/properties/p1/calendar/unblock", map[string]any{
		"dates": []string{"2026-04-02"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/properties/p1/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var calendar struct {
		BlockedDays []struct {
			Date string `json:"date"`
		} `json:"blocked_days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calendar))
	require.Len(t, calendar.BlockedDays, 2)
	assert.Equal(t, "2026-04-01", calendar.BlockedDays[0].Date)
	assert.Equal(t, "2026-04-03", calendar.BlockedDays[1].Date)
}

func TestBlockRejectsInvertedRange(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendar/block", map[string]any{
		"start_date": "2026-04-05",
		"end_date":   "2026-04-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendar/block", map[string]any{
		"start_date": "2026-04-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddSubscriptionEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.fetcher.feeds["https://a.test/cal.ics"] = []domainfeeds.EventRange{
		{Start: date(2026, time.April, 12), End: date(2026, time.April, 14)},
	}

	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendars", map[string]any{
		"calendar_name": "Airbnb",
		"feed_url":      "https://a.test/cal.ics",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		SubscriptionID string `json:"subscription_id"`
		EventsCount    int    `json:"events_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.SubscriptionID)
	assert.Equal(t, 1, created.EventsCount)
}

func TestAddSubscriptionBadFeed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendars", map[string]any{
		"calendar_name": "Broken",
		"feed_url":      "https://missing.test/cal.ics",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSyncEndpointReportsFailures(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.factory.SubscriptionsRepo.Save(context.Background(), &domainfeeds.Subscription{
		ID: "sub-a", PropertyID: "p1", Name: "Airbnb", FeedURL: "https://down.test/cal.ics", Enabled: true,
	}))

	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendars/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		SyncedCount int `json:"synced_count"`
		Failures    []struct {
			SubscriptionID string `json:"subscription_id"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Zero(t, report.SyncedCount)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "sub-a", report.Failures[0].SubscriptionID)
}

func TestToggleEndpoint(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.factory.SubscriptionsRepo.Save(ctx, &domainfeeds.Subscription{
		ID: "sub-a", PropertyID: "p1", Enabled: true,
	}))

	rec := s.do(t, http.MethodPatch, "/api/v1/calendars/sub-a", map[string]any{"is_enabled": false})
	require.Equal(t, http.StatusNoContent, rec.Code)

	sub, err := s.factory.SubscriptionsRepo.ByID(ctx, "sub-a")
	require.NoError(t, err)
	assert.False(t, sub.Enabled)
}

func TestRemoveUnknownSubscription(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodDelete, "/api/v1/properties/p1/calendars/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConflictsEndpoint(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.factory.SubscriptionsRepo.Save(ctx, &domainfeeds.Subscription{
		ID: "sub-a", PropertyID: "p1", Name: "Airbnb", FeedURL: "https://a.test/cal.ics", Enabled: true,
	}))
	require.NoError(t, s.factory.SubscriptionsRepo.Save(ctx, &domainfeeds.Subscription{
		ID: "sub-b", PropertyID: "p1", Name: "Booking", FeedURL: "https://b.test/cal.ics", Enabled: true,
	}))
	s.fetcher.feeds["https://a.test/cal.ics"] = []domainfeeds.EventRange{
		{Start: date(2026, time.April, 1), End: date(2026, time.April, 3)},
	}
	s.fetcher.feeds["https://b.test/cal.ics"] = []domainfeeds.EventRange{
		{Start: date(2026, time.April, 2), End: date(2026, time.April, 5)},
	}

	rec := s.do(t, http.MethodPost, "/api/v1/properties/p1/calendars/conflicts", map[string]any{
		"calendar_ids": []string{"sub-a", "sub-b"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		ContestedRuns []struct {
			Start   string   `json:"start"`
			End     string   `json:"end"`
			Sources []string `json:"sources"`
		} `json:"contested_runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.ContestedRuns, 1)
	assert.Equal(t, "2026-04-02", report.ContestedRuns[0].Start)
	assert.Equal(t, "2026-04-03", report.ContestedRuns[0].End)
	assert.Equal(t, []string{"Airbnb", "Booking"}, report.ContestedRuns[0].Sources)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
