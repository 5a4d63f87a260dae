package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/sirupsen/logrus"
)

// Store is the external record store for website credentials.
type Store interface {
	Get(ctx context.Context, telegramID int64) (*models.WebsiteCredential, error)
	Upsert(ctx context.Context, cred *models.WebsiteCredential) error
}

// SupabaseStore talks to a Supabase-style REST endpoint
// (/rest/v1/website_users).
type SupabaseStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

const credentialsTable = "website_users"

// NewSupabaseStore creates a credential store client from config.
func NewSupabaseStore(cfg *config.CredentialsConfig, logger *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{
		baseURL: strings.TrimSuffix(cfg.SupabaseURL, "/") + "/rest/v1",
		apiKey:  cfg.SupabaseKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Get returns the credential row for the user, or nil when none exists.
func (s *SupabaseStore) Get(ctx context.Context, telegramID int64) (*models.WebsiteCredential, error) {
	query := url.Values{}
	query.Set("telegram_id", fmt.Sprintf("eq.%d", telegramID))
	query.Set("select", "telegram_id,login,password,subscription_type,is_active")

	body, err := s.doRequest(ctx, http.MethodGet, credentialsTable+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var rows []models.WebsiteCredential
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse credentials response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Upsert writes the credential row, updating an existing one in place.
func (s *SupabaseStore) Upsert(ctx context.Context, cred *models.WebsiteCredential) error {
	existing, err := s.Get(ctx, cred.TelegramID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if existing != nil {
		endpoint := fmt.Sprintf("%s?telegram_id=eq.%d", credentialsTable, cred.TelegramID)
		_, err = s.doRequest(ctx, http.MethodPatch, endpoint, payload)
	} else {
		_, err = s.doRequest(ctx, http.MethodPost, credentialsTable, payload)
	}
	return err
}

func (s *SupabaseStore) doRequest(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credential store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.WithFields(logrus.Fields{
			"method": method,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Credential store request failed")
		return nil, fmt.Errorf("credential store returned status %d", resp.StatusCode)
	}

	return body, nil
}
