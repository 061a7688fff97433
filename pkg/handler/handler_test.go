package handler_test

import (
	"bytes"
	"codegen-relay/pkg/db"
	"codegen-relay/pkg/handler"
	"codegen-relay/pkg/provider"
	"codegen-relay/pkg/relay"
	"codegen-relay/pkg/types"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

// MockProvider implements provider.Provider
type MockProvider struct {
	Response *types.OpenAIResponse
	Err      error
}

func (m *MockProvider) Send(ctx context.Context, req types.OpenAIRequest) (*types.OpenAIResponse, error) {
	return m.Response, m.Err
}

func testVariant() relay.Variant {
	return relay.Variant{
		Name:          "ui",
		Banner:        "Welcome to the SECOND AI Code Generator API (PORT 5005)!",
		Endpoint:      "http://upstream.invalid",
		Model:         "test-model",
		SystemPrompt:  "return only code",
		CredentialEnv: "HF_API_KEY",
	}
}

func newServer(prov provider.Provider, creds relay.CredentialSource, repo db.Repository, legacy bool) *handler.GenerateServer {
	r := relay.New(testVariant(), creds, relay.WithProviderFactory(func(string, string, *http.Client) provider.Provider {
		return prov
	}))
	return handler.NewGenerateServer(r, repo, nil, legacy)
}

func withKey() relay.CredentialSource {
	return relay.StaticCredentials{"HF_API_KEY": "hf-test"}
}

func post(t *testing.T, s *handler.GenerateServer, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/generate", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	s.GenerateHandler(w, req)

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return w, got
}

func TestGenerateHandler_Success(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mockDB.Close()

	prov := &MockProvider{
		Response: &types.OpenAIResponse{
			Choices: []types.OpenAIChoice{
				{Message: types.AssistantReply("```jsx\nconst X = <Box />;\n```")},
			},
			Usage: types.OpenAIUsage{PromptTokens: 10, CompletionTokens: 20},
		},
	}
	s := newServer(prov, withKey(), db.NewPostgresRepository(mockDB), true)

	mockDB.ExpectExec("INSERT INTO generation_logs").
		WithArgs("", "ui", "test-model", "success", 200, 200, 10, 20, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	w, got := post(t, s, `{"prompt": "a box"}`)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	if got["code"] != "const X = <Box />;" {
		t.Errorf("expected cleaned code, got %v", got["code"])
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("<Box />")) {
		t.Errorf("expected JSX to be written unescaped, got %s", w.Body.String())
	}

	s.Wait()

	if err := mockDB.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// recordingRepo captures log entries in memory.
type recordingRepo struct {
	mu      sync.Mutex
	entries []db.GenerationLog
}

func (r *recordingRepo) InsertGenerationLog(ctx context.Context, log db.GenerationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, log)
	return nil
}

func (r *recordingRepo) Close() {}

func TestGenerateHandler_LogsEveryOutcome(t *testing.T) {
	repo := &recordingRepo{}
	prov := &MockProvider{Err: &provider.UpstreamError{StatusCode: 503, Body: "service unavailable"}}
	s := newServer(prov, withKey(), repo, true)

	post(t, s, `{}`)
	post(t, s, `{"prompt": "hello"}`)
	s.Wait()

	if len(repo.entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(repo.entries))
	}
	outcomes := map[string]int{}
	for _, e := range repo.entries {
		outcomes[e.Outcome] = e.StatusCode
	}
	if outcomes["invalid_request"] != http.StatusBadRequest {
		t.Errorf("expected invalid_request logged with 400, got %v", outcomes)
	}
	if outcomes["upstream_error"] != http.StatusOK {
		t.Errorf("expected legacy upstream_error logged with 200, got %v", outcomes)
	}
}

func TestGenerateHandler_NopRepositorySkipsLogging(t *testing.T) {
	s := newServer(&MockProvider{}, withKey(), db.NopRepository{}, true)
	post(t, s, `{}`)
	// Nothing was scheduled, so Wait returns immediately.
	s.Wait()
}

func TestGenerateHandler_NoPrompt(t *testing.T) {
	for _, body := range []string{`{}`, `{"prompt": ""}`, `{"prompt": null}`} {
		t.Run(body, func(t *testing.T) {
			s := newServer(&MockProvider{Err: errors.New("must not be called")}, withKey(), nil, true)
			w, got := post(t, s, body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if got["error"] != "No prompt provided" || len(got) != 1 {
				t.Errorf("unexpected body %v", got)
			}
		})
	}
}

func TestGenerateHandler_InvalidBody(t *testing.T) {
	for _, body := range []string{``, `not json`, `{"prompt": 42}`} {
		t.Run(body, func(t *testing.T) {
			s := newServer(&MockProvider{}, withKey(), nil, true)
			w, got := post(t, s, body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if got["error"] != "Invalid request body" {
				t.Errorf("unexpected body %v", got)
			}
		})
	}
}

func TestGenerateHandler_MissingCredential(t *testing.T) {
	s := newServer(&MockProvider{Err: errors.New("must not be called")}, relay.StaticCredentials{}, nil, true)
	w, got := post(t, s, `{"prompt": "hello"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if got["error"] != "API key is missing. Set it in the .env file." || len(got) != 1 {
		t.Errorf("unexpected body %v", got)
	}
}

func TestGenerateHandler_UpstreamErrorLegacy(t *testing.T) {
	prov := &MockProvider{Err: &provider.UpstreamError{StatusCode: 503, Body: "service unavailable"}}
	s := newServer(prov, withKey(), nil, true)
	w, got := post(t, s, `{"prompt": "hello"}`)

	if w.Code != http.StatusOK {
		t.Errorf("expected legacy 200, got %d", w.Code)
	}
	if got["code"] != "Error: 503, service unavailable" {
		t.Errorf("unexpected code %v", got["code"])
	}
}

func TestGenerateHandler_UpstreamErrorStatus(t *testing.T) {
	prov := &MockProvider{Err: &provider.UpstreamError{StatusCode: 503, Body: "service unavailable"}}
	s := newServer(prov, withKey(), nil, false)
	w, got := post(t, s, `{"prompt": "hello"}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if got["error"] != "Error: 503, service unavailable" || got["upstream_status"] != float64(503) {
		t.Errorf("unexpected body %v", got)
	}
}

func TestGenerateHandler_TransportError(t *testing.T) {
	s := newServer(&MockProvider{Err: errors.New("dial tcp: connection refused")}, withKey(), nil, true)
	w, got := post(t, s, `{"prompt": "hello"}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if got["error"] != "Upstream request failed" {
		t.Errorf("unexpected body %v", got)
	}
}

func TestHomeHandler(t *testing.T) {
	s := newServer(&MockProvider{}, relay.StaticCredentials{}, nil, true)
	w := httptest.NewRecorder()
	s.HomeHandler(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "Welcome to the SECOND AI Code Generator API (PORT 5005)!" {
		t.Errorf("unexpected banner %q", w.Body.String())
	}
}
