// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"weather-agent/internal/common/config"
	"weather-agent/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL, apiKey string) *config.Config {
	cfg := &config.Config{}
	cfg.APIs.OpenAI.BaseURL = baseURL
	cfg.APIs.OpenAI.APIKey = apiKey
	cfg.APIs.OpenAI.Model = "gpt-3.5-turbo"
	cfg.APIs.OpenAI.Timeout = 5000
	return cfg
}

func createChatResponse(content string) string {
	response := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(response)
	return string(data)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Complete_Success(t *testing.T) {
	tests := []struct {
		name     string
		system   string
		user     string
		reply    string
		expected string
	}{
		{
			name:     "plain completion",
			system:   "You are a weather query parser.",
			user:     "What's the weather in Paris?",
			reply:    `{"query_type": "weather_current", "location": "Paris"}`,
			expected: `{"query_type": "weather_current", "location": "Paris"}`,
		},
		{
			name:     "completion with surrounding whitespace",
			system:   "You are a weather assistant.",
			user:     "Hello",
			reply:    "  Hello! How can I help?  ",
			expected: "Hello! How can I help?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var reqBody map[string]interface{}
				json.NewDecoder(r.Body).Decode(&reqBody)
				assert.Equal(t, "gpt-3.5-turbo", reqBody["model"])
				assert.Len(t, reqBody["messages"], 2)
				assert.Equal(t, 0.1, reqBody["temperature"])
				assert.Equal(t, float64(500), reqBody["max_tokens"])

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(createChatResponse(tt.reply)))
			}))
			defer server.Close()

			client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewTestLogger(t))

			content, err := client.Complete(context.Background(), tt.system, tt.user, 0.1, 500)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestClient_Complete_Unconfigured(t *testing.T) {
	client := NewClient(createTestConfig("http://localhost:1", ""), logger.NewNoOpLogger())

	assert.False(t, client.Configured())

	content, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnconfigured))
	assert.Empty(t, content)
}

func TestClient_Complete_APIError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"Unauthorized", http.StatusUnauthorized},
		{"Rate Limited", http.StatusTooManyRequests},
		{"Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewTestLogger(t))

			content, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrCompletionFailed))
			assert.Empty(t, content)
		})
	}
}

func TestClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel r.Context(); otherwise Close hangs.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL, "test-key")
	cfg.APIs.OpenAI.Timeout = 50
	client := NewClient(cfg, logger.NewTestLogger(t))

	content, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "expected BACKEND_TIMEOUT, got: %v", err)
	assert.Empty(t, content)
}

func TestClient_Complete_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("invalid json {{{"))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
}

func TestClient_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(createChatResponse("   ")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "system", "user", 0.1, 500)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
}

func TestClient_Healthy(t *testing.T) {
	configured := NewClient(createTestConfig("http://localhost:1", "test-key"), logger.NewNoOpLogger())
	unconfigured := NewClient(createTestConfig("http://localhost:1", ""), logger.NewNoOpLogger())

	assert.True(t, configured.Healthy(context.Background()))
	assert.False(t, unconfigured.Healthy(context.Background()))
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkClient_Complete(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(createChatResponse("Test response")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL, "test-key"), logger.NewNoOpLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.Complete(context.Background(), "system", "user", 0.1, 500)
	}
}
