package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type dbPingerMock struct {
	err error
}

func (m *dbPingerMock) Ping(_ context.Context) error { return m.err }

type reachabilityMock struct {
	reachable bool
}

func (m *reachabilityMock) IsReachable(_ context.Context) bool { return m.reachable }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestLive_Always200(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&dbPingerMock{err: errors.New("down")}, nil, "test-version")
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp.Status != "ok" || resp.Timestamp.IsZero() {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		dbErr      error
		wantCode   int
		wantStatus string
	}{
		{name: "db up", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "db down", dbErr: errors.New("database is locked"), wantCode: http.StatusServiceUnavailable, wantStatus: "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(&dbPingerMock{err: tt.dbErr}, &reachabilityMock{}, "test-version")
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if resp := decodeHealth(t, rec); resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		dbErr           error
		translation     reachabilityChecker
		wantCode        int
		wantStatus      string
		wantDB          string
		wantTranslation string
	}{
		{
			name:            "all ok",
			translation:     &reachabilityMock{reachable: true},
			wantCode:        http.StatusOK,
			wantStatus:      "ok",
			wantDB:          "ok",
			wantTranslation: "ok",
		},
		{
			name:            "translation unreachable",
			translation:     &reachabilityMock{reachable: false},
			wantCode:        http.StatusOK,
			wantStatus:      "degraded",
			wantDB:          "ok",
			wantTranslation: "unreachable",
		},
		{
			name:            "db down",
			dbErr:           errors.New("connection refused"),
			translation:     &reachabilityMock{reachable: false},
			wantCode:        http.StatusServiceUnavailable,
			wantStatus:      "down",
			wantDB:          "down",
			wantTranslation: "unreachable",
		},
		{
			name:       "no translation checker",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantDB:     "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(&dbPingerMock{err: tt.dbErr}, tt.translation, "v1.0.0")
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			resp := decodeHealth(t, rec)
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if resp.Version != "v1.0.0" {
				t.Errorf("expected version v1.0.0, got %q", resp.Version)
			}
			if got := resp.Components["database"].Status; got != tt.wantDB {
				t.Errorf("database = %q, want %q", got, tt.wantDB)
			}
			if tt.wantDB == "ok" && resp.Components["database"].Latency == "" {
				t.Error("expected latency for healthy database")
			}
			comp, ok := resp.Components["translation"]
			if tt.wantTranslation == "" {
				if ok {
					t.Errorf("unexpected translation component %+v", comp)
				}
			} else if comp.Status != tt.wantTranslation {
				t.Errorf("translation = %q, want %q", comp.Status, tt.wantTranslation)
			}
		})
	}
}
