package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetgate/internal/intake"
	"vetgate/internal/platform/config"
)

func newTestClient(serverURL string, timeout time.Duration) *HTTPClient {
	return NewHTTPClient(config.ProviderConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: timeout,
	})
}

func TestHTTPClientCreateRequest(t *testing.T) {
	t.Run("successful submission", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/screenings", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body, "package_id")
			assert.Contains(t, body, "candidate")

			_ = json.NewEncoder(w).Encode(map[string]string{"id": "req-abc"})
		}))
		defer srv.Close()

		res, err := newTestClient(srv.URL, time.Second).CreateRequest(context.Background(), CreateRequest{
			PackageID: "standard",
			Candidate: intake.Candidate{FullName: "Jordan Michaels"},
		})
		require.NoError(t, err)
		assert.Equal(t, "req-abc", res.RequestID)
	})

	t.Run("missing request id is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, time.Second).CreateRequest(context.Background(), CreateRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorBadData, CategoryOf(err))
	})

	t.Run("slow provider maps to timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "req-late"})
		}))
		defer srv.Close()

		start := time.Now()
		_, err := newTestClient(srv.URL, 50*time.Millisecond).CreateRequest(context.Background(), CreateRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorTimeout, CategoryOf(err))
		assert.Less(t, time.Since(start), 150*time.Millisecond, "call must honor its bound")
	})

	t.Run("unreachable provider maps to outage", func(t *testing.T) {
		_, err := newTestClient("http://127.0.0.1:1", time.Second).CreateRequest(context.Background(), CreateRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorOutage, CategoryOf(err))
	})
}

func TestHTTPClientPullStatus(t *testing.T) {
	t.Run("status with report and events", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/screenings/req-abc", r.URL.Path)
			_ = json.NewEncoder(w).Encode(StatusSnapshot{
				Code:      "clear",
				ReportURL: "https://reports.example.com/req-abc",
				Events: []TimelineEntry{
					{Timestamp: time.Now().UTC(), Description: "screening completed"},
				},
			})
		}))
		defer srv.Close()

		snap, err := newTestClient(srv.URL, time.Second).PullStatus(context.Background(), "req-abc")
		require.NoError(t, err)
		assert.Equal(t, "clear", snap.Code)
		assert.Equal(t, "https://reports.example.com/req-abc", snap.ReportURL)
		assert.Len(t, snap.Events, 1)
	})

	t.Run("status codes map to categories", func(t *testing.T) {
		cases := []struct {
			status   int
			category ErrorCategory
		}{
			{http.StatusUnauthorized, ErrorAuthentication},
			{http.StatusForbidden, ErrorAuthentication},
			{http.StatusNotFound, ErrorNotFound},
			{http.StatusUnprocessableEntity, ErrorBadData},
			{http.StatusInternalServerError, ErrorOutage},
			{http.StatusBadGateway, ErrorOutage},
		}
		for _, tc := range cases {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			_, err := newTestClient(srv.URL, time.Second).PullStatus(context.Background(), "req-x")
			srv.Close()
			require.Error(t, err)
			assert.Equal(t, tc.category, CategoryOf(err), "status %d", tc.status)
		}
	})

	t.Run("malformed body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, time.Second).PullStatus(context.Background(), "req-x")
		require.Error(t, err)
		assert.Equal(t, ErrorBadData, CategoryOf(err))
	})
}

func TestMockClient(t *testing.T) {
	t.Run("advances one stage per pull and clears by default", func(t *testing.T) {
		m := NewMockClient()
		res, err := m.CreateRequest(context.Background(), CreateRequest{
			Candidate: intake.Candidate{FullName: "Jordan Michaels"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.RequestID)

		codes := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			snap, err := m.PullStatus(context.Background(), res.RequestID)
			require.NoError(t, err)
			codes = append(codes, snap.Code)
		}
		assert.Equal(t, []string{"received", "in_progress", "clear"}, codes)
	})

	t.Run("name markers steer terminal outcome", func(t *testing.T) {
		m := NewMockClient()
		res, err := m.CreateRequest(context.Background(), CreateRequest{
			Candidate: intake.Candidate{FullName: "Riley Review"},
		})
		require.NoError(t, err)

		var snap StatusSnapshot
		for i := 0; i < 3; i++ {
			snap, err = m.PullStatus(context.Background(), res.RequestID)
			require.NoError(t, err)
		}
		assert.Equal(t, "needs_review", snap.Code)
		assert.NotEmpty(t, snap.ReportURL)
	})

	t.Run("unknown request id", func(t *testing.T) {
		m := NewMockClient()
		_, err := m.PullStatus(context.Background(), "mock-999999")
		require.Error(t, err)
		assert.Equal(t, ErrorNotFound, CategoryOf(err))
	})
}
