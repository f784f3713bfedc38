package test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gqlhandler "github.com/graphql-go/handler"

	gqlschema "github.com/yourorg/taskboard/internal/graphql"
	taskhandler "github.com/yourorg/taskboard/internal/handler"
	"github.com/yourorg/taskboard/internal/infrastructure/logger"
	"github.com/yourorg/taskboard/internal/observability/metrics"
	"github.com/yourorg/taskboard/internal/repository"
	"github.com/yourorg/taskboard/internal/security/audit"
	"github.com/yourorg/taskboard/internal/security/auth"
	"github.com/yourorg/taskboard/internal/security/middleware"
	"github.com/yourorg/taskboard/internal/security/ratelimit"
	"github.com/yourorg/taskboard/internal/service"
	"github.com/yourorg/taskboard/pkg/cache"
)

// TestServerHelper runs the full HTTP stack over in-memory repositories, so
// integration tests exercise the real middleware chain and GraphQL handler
// without Postgres or Redis.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger
	Tokens *auth.TokenManager
	Users  *service.UserService
	Tasks  *service.TaskService
	Events *service.TaskEvents
}

func NewTestServer(t *testing.T) *TestServerHelper {
	return NewTestServerWithRateLimit(t, 1000)
}

func NewTestServerWithRateLimit(t *testing.T, limitPerMinute int) *TestServerHelper {
	log := logger.NewLogger("error")

	tokens := auth.NewTokenManager("test-secret", "taskboard", 0)
	users := service.NewUserService(repository.NewMemoryUserRepository(), tokens, log)
	events := service.NewTaskEvents()
	tasks := service.NewTaskService(repository.NewMemoryTaskRepository(), nil, events, log)

	schema, err := gqlschema.NewSchema(&gqlschema.Resolvers{
		Users:  users,
		Tasks:  tasks,
		Audit:  audit.NewLogger(log),
		Logger: log,
	})
	if err != nil {
		t.Fatalf("schema build failed: %v", err)
	}

	graphqlHandler := gqlhandler.New(&gqlhandler.Config{
		Schema: &schema,
		Pretty: true,
	})

	healthHandler := taskhandler.NewHealthHandler(nil, nil, log)
	feedHandler := taskhandler.NewTaskFeedHandler(tokens, users, events, log, nil)

	mux := http.NewServeMux()
	mux.Handle("/graphql", graphqlHandler)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/ready", healthHandler.Ready)
	mux.Handle("GET /ws/tasks", feedHandler)

	limiter := ratelimit.NewLimiter(limitPerMinute, time.Minute)
	t.Cleanup(limiter.Stop)

	var root http.Handler = mux
	root = metrics.HTTPMetricsMiddleware(root)
	root = middleware.RateLimitMiddleware(limiter, log)(root)
	root = middleware.IdentityMiddleware(tokens, users, cache.New(), 30*time.Second, log)(root)
	root = middleware.RequestIDMiddleware(root)

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	return &TestServerHelper{
		Server: server,
		Logger: log,
		Tokens: tokens,
		Users:  users,
		Tasks:  tasks,
		Events: events,
	}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// RegisterUser creates a user directly through the service and returns a
// bearer token plus user id.
func (h *TestServerHelper) RegisterUser(t *testing.T, username, email string) (string, string) {
	t.Helper()

	payload, err := h.Users.Register(username, email, "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return payload.Token, payload.User.ID
}

// GraphQLResponse is the decoded GraphQL-over-HTTP envelope.
type GraphQLResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []GraphQLError         `json:"errors"`
}

type GraphQLError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

// Post sends a GraphQL request and returns the raw HTTP response.
func (h *TestServerHelper) Post(t *testing.T, token, query string, vars map[string]interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": vars,
	})
	if err != nil {
		t.Fatalf("encode request failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, h.URL()+"/graphql", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// GraphQL sends a request and decodes the envelope, failing on transport
// errors.
func (h *TestServerHelper) GraphQL(t *testing.T, token, query string, vars map[string]interface{}) GraphQLResponse {
	t.Helper()

	resp := h.Post(t, token, query, vars)
	defer resp.Body.Close()

	var decoded GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return decoded
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
