package autvya

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// tokenManager handles JWT token acquisition and refresh.
// It is safe for concurrent use.
type tokenManager struct {
	baseURL  string
	email    string
	password string
	client   *http.Client
	margin   time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenManager(baseURL, email, password string, client *http.Client) *tokenManager {
	return &tokenManager{
		baseURL:  baseURL,
		email:    email,
		password: password,
		client:   client,
		margin:   30 * time.Second,
	}
}

// seed installs a token obtained outside the manager, such as the one
// returned by registration.
func (tm *tokenManager) seed(token string, expiresAt time.Time) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = token
	tm.expiresAt = expiresAt
}

func (tm *tokenManager) getToken(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token != "" && time.Now().Before(tm.expiresAt.Add(-tm.margin)) {
		return tm.token, nil
	}

	if err := tm.refresh(ctx); err != nil {
		return "", err
	}
	return tm.token, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseEnvelope struct {
	Data struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"data"`
}

func (tm *tokenManager) refresh(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{Email: tm.email, Password: tm.password})
	if err != nil {
		return fmt.Errorf("autvya: marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("autvya: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tm.client.Do(req)
	if err != nil {
		return fmt.Errorf("autvya: login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("autvya: read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	var envelope loginResponseEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("autvya: decode login response: %w", err)
	}
	if envelope.Data.Token == "" {
		return fmt.Errorf("autvya: login response contained no token")
	}

	tm.token = envelope.Data.Token
	tm.expiresAt = envelope.Data.ExpiresAt
	return nil
}
