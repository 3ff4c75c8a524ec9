package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
		Tokens:     tokens,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	return client
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "://bad"} {
		if _, err := NewClient(Config{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for base url %q", raw)
		}
	}
}

func TestClientNoContentYieldsEmptyObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	raw, err := client.Delete(context.Background(), "/accounts/me/")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("expected empty object, got %s", raw)
	}
}

func TestClientValidationErrorCarriesDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail": [{"loc": ["password"], "msg": "too short"}]}`)
	}, nil)

	_, err := client.Token(context.Background(), "pony", "x")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if validationErr.Code() != CodeValidation {
		t.Fatalf("unexpected code: %q", validationErr.Code())
	}
	if !strings.Contains(validationErr.Error(), `[{"loc":["password"],"msg":"too short"}]`) {
		t.Fatalf("message does not contain serialized detail: %q", validationErr.Error())
	}
	if !IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected status 422")
	}
}

func TestClientAPIErrorCarriesCodeAndMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "entity_not_found", "message": "Unable to find chat with id=5"}`)
	}, nil)

	_, err := client.Get(context.Background(), "/chats/5")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "entity_not_found" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
	if apiErr.Message != "Unable to find chat with id=5" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound")
	}
}

func TestClientNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	_, err := client.Get(context.Background(), "/chats")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "bad gateway" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: baseURL, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Get(context.Background(), "/chats")
	if !IsNetwork(err) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}

func TestClientReadsTokenAtCallTime(t *testing.T) {
	var (
		mu      sync.Mutex
		token   = "first"
		headers []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}, tokenFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		return token
	}))

	if err := client.Status(context.Background()); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	mu.Lock()
	token = "second"
	mu.Unlock()
	if err := client.Status(context.Background()); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(headers) != 2 || headers[0] != "Bearer first" || headers[1] != "Bearer second" {
		t.Fatalf("unexpected authorization headers: %v", headers)
	}
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if r.Header.Get(requestIDHeader) == "" {
			t.Fatalf("missing request id header")
		}
		w.WriteHeader(http.StatusNoContent)
	}, tokenFunc(func() string { return "" }))

	if err := client.Status(context.Background()); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
}

func TestClientFormEncoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != contentTypeForm {
			t.Fatalf("unexpected content type: %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("old_password") != "old" || r.PostForm.Get("new_password") != "new" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	if err := client.ChangePassword(context.Background(), "old", "new"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
}

func TestClientJSONEncoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != contentTypeJSON {
			t.Fatalf("unexpected content type: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"text":"hello","account_id":3}` {
			t.Fatalf("unexpected body: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 11, "chat_id": 5, "account_id": 3, "text": "hello", "created_at": "2024-01-02T10:00:00"}`)
	}, nil)

	msg, err := client.SendMessage(context.Background(), "5", 3, "hello")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID != 11 || msg.AccountID == nil || *msg.AccountID != 3 || msg.CreatedAt.IsZero() {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestClientMessagesKeepsRemovedAuthors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/42/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"metadata": {"count": 2}, "messages": [
			{"id": 2, "chat_id": 42, "account_id": null, "text": "b", "created_at": "2024-01-02"},
			{"id": 1, "chat_id": 42, "account_id": 7, "text": "a", "created_at": "2024-01-01"}
		]}`)
	}, nil)

	msgs, err := client.Messages(context.Background(), "42")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].AccountID != nil {
		t.Fatalf("expected removed author for message 2")
	}
}

func TestIsAuthExpired(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "expired", err: &APIError{Status: http.StatusForbidden, Code: CodeExpiredAccessToken}, want: true},
		{name: "invalid", err: &APIError{Status: http.StatusForbidden, Code: CodeInvalidAccessToken}, want: true},
		{name: "other forbidden", err: &APIError{Status: http.StatusForbidden, Code: "authentication_required"}, want: false},
		{name: "unauthorized", err: &APIError{Status: http.StatusUnauthorized, Code: CodeExpiredAccessToken}, want: false},
		{name: "network", err: &NetworkError{Err: url.InvalidHostError("x")}, want: false},
	}

	for _, tt := range tests {
		if got := IsAuthExpired(tt.err); got != tt.want {
			t.Fatalf("%s: IsAuthExpired() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
