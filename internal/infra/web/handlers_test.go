package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/adapter"
	"novai-server/internal/infra/jsonstore"
	"novai-server/internal/infra/memory"
	"novai-server/internal/infra/security"
	"novai-server/internal/usecase"
)

// fakeWebAI is a scriptable inference backend for endpoint tests.
type fakeWebAI struct {
	reply     string
	genErr    error
	statusErr error
	status    adapter.BackendStatus
}

var _ adapter.AIServiceAdapter = (*fakeWebAI)(nil)

func (f *fakeWebAI) Status(ctx context.Context) (adapter.BackendStatus, error) {
	if f.statusErr != nil {
		return adapter.BackendStatus{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeWebAI) ListModels(ctx context.Context) ([]string, error) {
	return f.status.AvailableModels, f.statusErr
}

func (f *fakeWebAI) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

type testEnv struct {
	server *httptest.Server
	ai     *fakeWebAI
	conv   *memory.ConversationRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	users, err := jsonstore.NewUserRepo(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("user repo: %v", err)
	}
	chats, err := jsonstore.NewTranscriptRepo(filepath.Join(dir, "chats.json"))
	if err != nil {
		t.Fatalf("transcript repo: %v", err)
	}

	log := zerolog.Nop()
	ai := &fakeWebAI{
		reply:  "Hello from the model.",
		status: adapter.BackendStatus{Running: true, Model: "llama3.2", ModelAvailable: true, AvailableModels: []string{"llama3.2:latest"}},
	}
	conv := memory.NewConversationRepo(memory.DefaultWindow)
	sessions := memory.NewSessionRepo(time.Hour)

	srv := NewServer(
		usecase.NewUserUseCase(users, security.NewPasswordHasher(), &log),
		usecase.NewChatUseCase(conv, ai, &log),
		usecase.NewTranscriptUseCase(chats, &log),
		sessions,
		"novai_session",
		time.Hour,
		false,
		"llama3.2",
		&log,
	)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, ai: ai, conv: conv}
}

func (e *testEnv) post(t *testing.T, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, path, body, cookie)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// signupAndLogin registers a user and returns the session cookie.
func (e *testEnv) signupAndLogin(t *testing.T, nickname, username, password string) *http.Cookie {
	t.Helper()
	resp := e.post(t, "/signup", map[string]string{
		"nickname": nickname, "username": username, "password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup: status %d", resp.StatusCode)
	}
	resp = e.post(t, "/login", map[string]string{
		"username": username, "password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "novai_session" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"nickname": "Bob", "username": "bob", "password": "secret"}
	if resp := env.post(t, "/signup", body, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("first signup: status %d", resp.StatusCode)
	}

	body["nickname"] = "Other Bob"
	resp := env.post(t, "/signup", body, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("duplicate signup: status %d, want 401", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if got["message"] != "Username already exists" {
		t.Errorf("duplicate signup message = %q", got["message"])
	}
}

func TestSignupMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/signup", map[string]string{"username": "bob"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "Bob", "bob", "secret")

	resp := env.post(t, "/login", map[string]string{"username": "bob", "password": "wrong"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if got["message"] != "Invalid credentials" {
		t.Errorf("message = %q", got["message"])
	}
}

func TestLoginReturnsIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "Bob", "bob", "secret")

	resp := env.post(t, "/login", map[string]string{"username": "bob", "password": "secret"}, nil)
	got := decode[map[string]string](t, resp)
	if got["username"] != "bob" || got["nickname"] != "Bob" {
		t.Errorf("identity = %v", got)
	}
}

func TestCheckAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/check-auth", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous check-auth: status %d, want 401", resp.StatusCode)
	}

	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")
	resp = env.do(t, http.MethodGet, "/check-auth", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated check-auth: status %d", resp.StatusCode)
	}
	if got := decode[map[string]bool](t, resp); !got["logged"] {
		t.Error("expected logged=true")
	}

	if resp := env.post(t, "/logout", nil, cookie); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/check-auth", nil, cookie)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("check-auth after logout: status %d, want 401", resp.StatusCode)
	}
}

func TestChatRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/chat", map[string]string{"message": "hi"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if got["message"] != "Not authorized" {
		t.Errorf("message = %q", got["message"])
	}
	if turns := env.conv.All("bob"); len(turns) != 0 {
		t.Errorf("rejected request must not touch the conversation, got %d turns", len(turns))
	}
}

func TestChatRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")

	resp := env.post(t, "/chat", map[string]string{"message": "hello there"}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if got["reply"] != "Hello from the model." {
		t.Errorf("reply = %q", got["reply"])
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z", got["timestamp"]); err != nil {
		t.Errorf("timestamp %q not in ISO format: %v", got["timestamp"], err)
	}

	resp = env.do(t, http.MethodGet, "/conversation", nil, cookie)
	conv := decode[struct {
		Conversation []model.Message `json:"conversation"`
	}](t, resp)
	if len(conv.Conversation) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(conv.Conversation))
	}
	if conv.Conversation[0].Role != "user" || conv.Conversation[1].Role != "assistant" {
		t.Errorf("turn roles = %q, %q", conv.Conversation[0].Role, conv.Conversation[1].Role)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")

	resp := env.post(t, "/chat", map[string]string{"message": "   "}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if got["message"] != "Empty message" {
		t.Errorf("message = %q", got["message"])
	}
}

func TestChatBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")
	env.ai.genErr = fmt.Errorf("backend at http://localhost:11434 is not reachable, start it with \"ollama serve\": %w", adapter.ErrBackendUnavailable)

	resp := env.post(t, "/chat", map[string]string{"message": "hi"}, cookie)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	got := decode[map[string]string](t, resp)
	if !strings.HasPrefix(got["message"], "AI error: ") {
		t.Errorf("message = %q", got["message"])
	}
	if !strings.Contains(got["error"], "ollama serve") {
		t.Errorf("error field must carry the remediation hint, got %q", got["error"])
	}

	// The user turn stays so the next attempt keeps the context.
	turns := env.conv.All("bob")
	if len(turns) != 1 || turns[0].Role != "user" {
		t.Errorf("expected only the user turn after a failure, got %+v", turns)
	}
}

func TestAIStatusOnline(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/ai-status", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	got := decode[struct {
		Status          string   `json:"status"`
		OllamaRunning   bool     `json:"ollamaRunning"`
		Model           string   `json:"model"`
		ModelAvailable  bool     `json:"modelAvailable"`
		AvailableModels []string `json:"availableModels"`
	}](t, resp)
	if got.Status != "online" || !got.OllamaRunning || !got.ModelAvailable {
		t.Errorf("payload = %+v", got)
	}
	if got.AvailableModels == nil {
		t.Error("availableModels must never be null")
	}
}

func TestAIStatusOffline(t *testing.T) {
	env := newTestEnv(t)
	env.ai.statusErr = fmt.Errorf("backend is not reachable: %w", adapter.ErrBackendUnavailable)

	resp := env.do(t, http.MethodGet, "/ai-status", nil, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", resp.StatusCode)
	}
	got := decode[struct {
		Status        string `json:"status"`
		OllamaRunning bool   `json:"ollamaRunning"`
		Model         string `json:"model"`
		ErrorCode     string `json:"errorCode"`
		InstallGuide  string `json:"installGuide"`
	}](t, resp)
	if got.Status != "offline" || got.OllamaRunning {
		t.Errorf("payload = %+v", got)
	}
	if got.ErrorCode != "ECONNREFUSED" {
		t.Errorf("errorCode = %q", got.ErrorCode)
	}
	if !strings.Contains(got.InstallGuide, "ollama pull llama3.2") {
		t.Errorf("installGuide = %q", got.InstallGuide)
	}
}

func TestSavedChatLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")

	msgs := []model.Message{
		{Role: "user", Content: "hi", Timestamp: time.Now().UTC()},
		{Role: "assistant", Content: "hello", Timestamp: time.Now().UTC()},
	}

	// Save.
	resp := env.post(t, "/save-chat", map[string]any{"title": "Greetings", "messages": msgs}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save-chat: status %d", resp.StatusCode)
	}
	saved := decode[struct {
		Message string           `json:"message"`
		Chat    model.Transcript `json:"chat"`
	}](t, resp)
	if saved.Chat.ID == "" || saved.Chat.Title != "Greetings" {
		t.Fatalf("saved chat = %+v", saved.Chat)
	}

	// List.
	resp = env.do(t, http.MethodGet, "/chats", nil, cookie)
	list := decode[struct {
		Chats []model.TranscriptSummary `json:"chats"`
	}](t, resp)
	if len(list.Chats) != 1 || list.Chats[0].MessageCount != 2 {
		t.Fatalf("list = %+v", list.Chats)
	}

	// Get.
	resp = env.do(t, http.MethodGet, "/chat/"+saved.Chat.ID, nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get chat: status %d", resp.StatusCode)
	}
	got := decode[struct {
		Chat model.Transcript `json:"chat"`
	}](t, resp)
	if len(got.Chat.Messages) != 2 {
		t.Errorf("expected full transcript, got %d messages", len(got.Chat.Messages))
	}

	// Rename.
	resp = env.do(t, http.MethodPut, "/chat/"+saved.Chat.ID, map[string]string{"title": "Renamed"}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename: status %d", resp.StatusCode)
	}
	renamed := decode[struct {
		Message string           `json:"message"`
		Chat    model.Transcript `json:"chat"`
	}](t, resp)
	if renamed.Chat.Title != "Renamed" || renamed.Message != "Chat renamed" {
		t.Errorf("rename payload = %+v", renamed)
	}

	// Delete.
	resp = env.do(t, http.MethodDelete, "/chat/"+saved.Chat.ID, nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/chat/"+saved.Chat.ID, nil, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestSavedChatValidationAndMisses(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signupAndLogin(t, "Bob", "bob", "secret")

	resp := env.post(t, "/save-chat", map[string]any{"title": "No messages"}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("save without messages: status %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPut, "/chat/missing", map[string]string{"title": ""}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("rename without title: status %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPut, "/chat/missing", map[string]string{"title": "x"}, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("rename unknown id: status %d, want 404", resp.StatusCode)
	}
	resp = env.do(t, http.MethodDelete, "/chat/missing", nil, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete unknown id: status %d, want 404", resp.StatusCode)
	}
}

func TestSavedChatsAreScopedPerUser(t *testing.T) {
	env := newTestEnv(t)
	bob := env.signupAndLogin(t, "Bob", "bob", "secret")
	eve := env.signupAndLogin(t, "Eve", "eve", "secret")

	resp := env.post(t, "/save-chat", map[string]any{
		"title":    "Bob's chat",
		"messages": []model.Message{{Role: "user", Content: "hi", Timestamp: time.Now().UTC()}},
	}, bob)
	saved := decode[struct {
		Chat model.Transcript `json:"chat"`
	}](t, resp)

	resp = env.do(t, http.MethodGet, "/chat/"+saved.Chat.ID, nil, eve)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user get: status %d, want 404", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/chats", nil, eve)
	list := decode[struct {
		Chats []model.TranscriptSummary `json:"chats"`
	}](t, resp)
	if len(list.Chats) != 0 {
		t.Errorf("eve sees %d chats, want 0", len(list.Chats))
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "Bob", "bob", "old-secret")

	// Nickname must match the account.
	resp := env.post(t, "/change-password", map[string]string{
		"username": "bob", "nickname": "Wrong", "newPassword": "fresh",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong nickname: status %d, want 401", resp.StatusCode)
	}

	// Reusing the current password is rejected.
	resp = env.post(t, "/change-password", map[string]string{
		"username": "bob", "nickname": "Bob", "newPassword": "old-secret",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("same password: status %d, want 400", resp.StatusCode)
	}

	resp = env.post(t, "/change-password", map[string]string{
		"username": "bob", "nickname": "Bob", "newPassword": "fresh",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change password: status %d", resp.StatusCode)
	}

	if resp := env.post(t, "/login", map[string]string{"username": "bob", "password": "old-secret"}, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old password still accepted: status %d", resp.StatusCode)
	}
	if resp := env.post(t, "/login", map[string]string{"username": "bob", "password": "fresh"}, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("new password rejected: status %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}
