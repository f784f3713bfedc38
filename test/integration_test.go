package test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/taskboard/internal/service"
)

// TestHealthEndpoint verifies the liveness check
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	var decoded struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Status != "ok" {
		t.Errorf("expected ok, got %q", decoded.Status)
	}
}

// TestReadinessWithoutDependencies verifies /ready reports 503 when the
// database is not configured
func TestReadinessWithoutDependencies(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/ready")
	if err != nil {
		t.Fatalf("readiness check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusServiceUnavailable)

	var decoded struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Status != "not_ready" {
		t.Errorf("expected not_ready, got %q", decoded.Status)
	}
}

// TestRequestIDHeader verifies every response carries a request id
func TestRequestIDHeader(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("expected X-Request-ID header")
	}
}

// TestRegisterAndMeOverHTTP verifies the full auth round trip through the
// identity middleware
func TestRegisterAndMeOverHTTP(t *testing.T) {
	server := NewTestServer(t)

	registered := server.GraphQL(t, "", `
		mutation {
			register(input: {username: "alice", email: "alice@example.com", password: "Password123"}) {
				token
				user { id email }
			}
		}`, nil)
	if len(registered.Errors) > 0 {
		t.Fatalf("register failed: %v", registered.Errors)
	}
	payload := registered.Data["register"].(map[string]interface{})
	token := payload["token"].(string)
	userID := payload["user"].(map[string]interface{})["id"].(string)

	me := server.GraphQL(t, token, `{ me { id username } }`, nil)
	if len(me.Errors) > 0 {
		t.Fatalf("me failed: %v", me.Errors)
	}
	resolved := me.Data["me"].(map[string]interface{})
	if resolved["id"] != userID || resolved["username"] != "alice" {
		t.Errorf("unexpected me %+v", resolved)
	}
}

// TestInvalidTokenIsAnonymous verifies a bad bearer token yields an
// anonymous context rather than an HTTP error
func TestInvalidTokenIsAnonymous(t *testing.T) {
	server := NewTestServer(t)

	resp := server.Post(t, "not-a-real-token", `{ me { id } }`, nil)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	AssertStatusCode(t, resp, http.StatusOK)

	me := server.GraphQL(t, "not-a-real-token", `{ me { id } }`, nil)
	if len(me.Errors) > 0 {
		t.Fatalf("me failed: %v", me.Errors)
	}
	if me.Data["me"] != nil {
		t.Errorf("expected null me for invalid token")
	}
}

// TestGuardedQueryRequiresAuthentication verifies guarded fields fail with
// the UNAUTHENTICATED extension code
func TestGuardedQueryRequiresAuthentication(t *testing.T) {
	server := NewTestServer(t)

	result := server.GraphQL(t, "", `{ tasks { id } }`, nil)
	if len(result.Errors) == 0 {
		t.Fatalf("expected an error for anonymous tasks query")
	}
	if result.Errors[0].Message != "Authentication required" {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
	if code := result.Errors[0].Extensions["code"]; code != "UNAUTHENTICATED" {
		t.Errorf("expected UNAUTHENTICATED, got %v", code)
	}
}

// TestTaskFlowOverHTTP verifies create, list, and archive end to end
func TestTaskFlowOverHTTP(t *testing.T) {
	server := NewTestServer(t)
	token, _ := server.RegisterUser(t, "alice", "alice@example.com")

	created := server.GraphQL(t, token, `
		mutation {
			createTask(input: {title: "Write report", description: "Quarterly numbers"}) {
				id status
			}
		}`, nil)
	if len(created.Errors) > 0 {
		t.Fatalf("create failed: %v", created.Errors)
	}
	task := created.Data["createTask"].(map[string]interface{})
	if task["status"] != "TODO" {
		t.Errorf("expected TODO, got %v", task["status"])
	}
	taskID := task["id"].(string)

	listed := server.GraphQL(t, token, `{ tasks { id title } }`, nil)
	if len(listed.Errors) > 0 {
		t.Fatalf("list failed: %v", listed.Errors)
	}
	tasks := listed.Data["tasks"].([]interface{})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	archived := server.GraphQL(t, token, `
		mutation ($id: ID!) { archiveTask(id: $id) { status } }`,
		map[string]interface{}{"id": taskID})
	if len(archived.Errors) > 0 {
		t.Fatalf("archive failed: %v", archived.Errors)
	}
	if status := archived.Data["archiveTask"].(map[string]interface{})["status"]; status != "ARCHIVED" {
		t.Errorf("expected ARCHIVED, got %v", status)
	}
}

// TestCrossUserIsolationOverHTTP verifies one user cannot touch another's
// tasks
func TestCrossUserIsolationOverHTTP(t *testing.T) {
	server := NewTestServer(t)
	aliceToken, _ := server.RegisterUser(t, "alice", "alice@example.com")
	bobToken, _ := server.RegisterUser(t, "bob", "bob@example.com")

	created := server.GraphQL(t, aliceToken, `
		mutation { createTask(input: {title: "private", description: "d"}) { id } }`, nil)
	taskID := created.Data["createTask"].(map[string]interface{})["id"].(string)

	denied := server.GraphQL(t, bobToken, `
		mutation ($id: ID!) { archiveTask(id: $id) { id } }`,
		map[string]interface{}{"id": taskID})
	if len(denied.Errors) == 0 {
		t.Fatalf("expected cross-user archive to fail")
	}
	if denied.Errors[0].Message != "Not authorized to archive this task" {
		t.Errorf("unexpected message %q", denied.Errors[0].Message)
	}
}

// TestRateLimitEnforced verifies authenticated callers are throttled per
// user id
func TestRateLimitEnforced(t *testing.T) {
	server := NewTestServerWithRateLimit(t, 2)
	token, _ := server.RegisterUser(t, "alice", "alice@example.com")

	for i := 0; i < 2; i++ {
		resp := server.Post(t, token, `{ me { id } }`, nil)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		AssertStatusCode(t, resp, http.StatusOK)
	}

	resp := server.Post(t, token, `{ me { id } }`, nil)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	AssertStatusCode(t, resp, http.StatusTooManyRequests)
}

// TestTaskFeedWebsocket verifies task mutations reach a connected feed
// subscriber
func TestTaskFeedWebsocket(t *testing.T) {
	server := NewTestServer(t)
	token, userID := server.RegisterUser(t, "alice", "alice@example.com")

	wsURL := strings.Replace(server.URL(), "http://", "ws://", 1) + "/ws/tasks?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if _, err := server.Tasks.CreateTask(service.CreateTaskInput{Title: "t", Description: "d"}, userID); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var evt struct {
		Type string `json:"type"`
		Task struct {
			Title string `json:"title"`
		} `json:"task"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if evt.Type != "created" || evt.Task.Title != "t" {
		t.Errorf("unexpected event %s", payload)
	}
}

// TestTaskFeedRejectsBadToken verifies the feed requires a valid token
func TestTaskFeedRejectsBadToken(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/ws/tasks?token=garbage")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	AssertStatusCode(t, resp, http.StatusUnauthorized)
}
