package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(baseURL string) *OpenRouterClient {
	return NewOpenRouterClient(&config.AIConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "openai/gpt-4o-mini",
		MaxTokens: 100,
		Timeout:   5 * time.Second,
	}, testLogger())
}

func TestGetResponseSuccess(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello back"}},
			},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)
	reply, err := client.GetResponse(context.Background(), []models.PromptMessage{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("reply = %q, want %q", reply, "hello back")
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer key", gotAuth)
	}
	if gotBody["model"] != "openai/gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
	msgs, ok := gotBody["messages"].([]interface{})
	if !ok || len(msgs) != 2 {
		t.Errorf("messages = %v, want 2 entries", gotBody["messages"])
	}
}

func TestGetResponseClientErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetResponse(context.Background(), []models.PromptMessage{
		{Role: models.RoleUser, Content: "hello"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Errorf("client error retried %d times, want 1 request", requests)
	}
}

func TestGetResponseAPIErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model overloaded"},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetResponse(context.Background(), []models.PromptMessage{
		{Role: models.RoleUser, Content: "hello"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error %q does not surface the API message", err)
	}
}

func TestGetResponseServerErrorRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "recovered"}},
			},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)
	reply, err := client.GetResponse(context.Background(), []models.PromptMessage{
		{Role: models.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("GetResponse failed after retry: %v", err)
	}
	if reply != "recovered" {
		t.Errorf("reply = %q, want %q", reply, "recovered")
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
}
