package autvya

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockServer creates an httptest server that mimics the AuTvya API.
func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	// Always register the login endpoint.
	if _, ok := handlers["POST /auth/login"]; !ok {
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		})
	}

	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:  serverURL,
		Email:    "parent@example.com",
		Password: "test-password",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Email: "a@b.com", Password: "x"}); err == nil {
		t.Error("expected error for missing BaseURL")
	}
	if _, err := NewClient(Config{BaseURL: "http://x", Password: "x"}); err == nil {
		t.Error("expected error for missing Email")
	}
	if _, err := NewClient(Config{BaseURL: "http://x", Email: "a@b.com"}); err == nil {
		t.Error("expected error for missing Password")
	}
}

func TestCreateChildSendsAuth(t *testing.T) {
	childID := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/children": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-token-xyz" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "UNAUTHORIZED", "message": "bad token"},
				})
				return
			}
			var req CreateChildRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusCreated, map[string]any{
				"data": Child{ID: childID, Name: req.Name, Age: req.Age, Phase: PhaseConnection, Timezone: "UTC"},
			})
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	child, err := c.CreateChild(context.Background(), CreateChildRequest{Name: "Miguel", Age: 6})
	if err != nil {
		t.Fatalf("CreateChild failed: %v", err)
	}
	if child.ID != childID {
		t.Errorf("expected child ID %s, got %s", childID, child.ID)
	}
	if child.Phase != PhaseConnection {
		t.Errorf("expected phase CONNECTION, got %s", child.Phase)
	}
}

func TestTokenRefreshOncePerExpiry(t *testing.T) {
	var logins atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			logins.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		},
		"GET /v1/children": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": []ChildWithCount{}})
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for range 3 {
		if _, err := c.ListChildren(context.Background()); err != nil {
			t.Fatalf("ListChildren failed: %v", err)
		}
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("expected 1 login, got %d", got)
	}
}

func TestSeededTokenSkipsLogin(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			t.Error("login should not be called when a fresh token is seeded")
		},
		"POST /auth/register": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{
				"data": AuthResult{
					Token:     "registered-token",
					ExpiresAt: time.Now().Add(1 * time.Hour),
					User:      User{ID: uuid.New(), Email: "parent@example.com"},
				},
			})
		},
		"GET /v1/children": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer registered-token" {
				t.Errorf("expected registered token, got %q", r.Header.Get("Authorization"))
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []ChildWithCount{}})
		},
	})
	defer srv.Close()

	c, result, err := Register(context.Background(), srv.URL, "parent@example.com", "test-password", "Parent", nil)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Token != "registered-token" {
		t.Errorf("expected registered token, got %q", result.Token)
	}
	if _, err := c.ListChildren(context.Background()); err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
}

func TestErrorHelpers(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/children/{child_id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"code": "NOT_FOUND", "message": "child not found"},
			})
		},
		"POST /v1/insights": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": map[string]any{"code": "UNPROCESSABLE", "message": "not enough interaction data for analysis"},
			})
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.GetChild(context.Background(), uuid.New())
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound, got %v", err)
	}
	if IsRateLimited(err) {
		t.Error("IsRateLimited should be false for a 404")
	}

	_, err = c.GenerateInsight(context.Background(), uuid.New(), 0)
	if !IsNotEnoughData(err) {
		t.Errorf("expected IsNotEnoughData, got %v", err)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Code != "UNPROCESSABLE" {
		t.Errorf("expected code UNPROCESSABLE, got %q", apiErr.Code)
	}
}

func TestDeleteChildNoContent(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"DELETE /v1/children/{child_id}": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.DeleteChild(context.Background(), uuid.New()); err != nil {
		t.Fatalf("DeleteChild failed: %v", err)
	}
}

func TestMetricsQueryParam(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/children/{child_id}/metrics": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("days"); got != "14" {
				t.Errorf("expected days=14, got %q", got)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": MetricsResponse{
					Metrics:    ChildMetrics{TotalInteractions: 42},
					DailyUsage: map[string]int{"2026-08-28": 42},
				},
			})
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	m, err := c.Metrics(context.Background(), uuid.New(), 14)
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.Metrics.TotalInteractions != 42 {
		t.Errorf("expected 42 interactions, got %d", m.Metrics.TotalInteractions)
	}
}
