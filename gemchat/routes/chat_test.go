package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gemchat/gemchat/config"
	"gemchat/gemchat/controllers"
	"gemchat/gemchat/services/gemini"
	"gemchat/gemchat/sources/filestore"
	"gemchat/gemchat/sources/session"

	"github.com/go-chi/chi/v5"
)

type scriptedGateway struct {
	reply string
	err   error
}

func (s *scriptedGateway) Generate(ctx context.Context, history []gemini.Turn, message string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type testAPI struct {
	router  chi.Router
	cookies []*http.Cookie
	gateway *scriptedGateway
}

func newTestAPI(t *testing.T) *testAPI {
	store, err := filestore.NewChatStore(filepath.Join(t.TempDir(), "chats"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	cfg := config.Config{SessionSecret: "test-secret"}
	sessions := session.NewStore(session.TTL)
	gateway := &scriptedGateway{reply: "Hi there"}
	ctrl := controllers.NewChatController(store, gateway)

	r := chi.NewRouter()
	r.Mount("/api/auth", AuthRoutes(cfg, sessions))
	r.Mount("/api/chat", ChatRoutes(ctrl, cfg, sessions))
	return &testAPI{router: r, gateway: gateway}
}

// do performs a request, replaying and capturing the session cookie the
// way a browser would.
func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	if cs := rr.Result().Cookies(); len(cs) > 0 {
		a.cookies = cs
	}

	var parsed map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("response is not JSON: %q", rr.Body.String())
		}
	}
	return rr, parsed
}

func (a *testAPI) newChat(t *testing.T) string {
	rr, body := a.do(t, "POST", "/api/chat/new", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("new chat returned %d: %v", rr.Code, body)
	}
	chat := body["chat"].(map[string]interface{})
	return chat["id"].(string)
}

func TestAuthMeMintsGuest(t *testing.T) {
	api := newTestAPI(t)

	rr, body := api.do(t, "GET", "/api/auth/me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	user := body["user"].(map[string]interface{})
	if user["username"] != "Guest" || user["provider"] != "guest" {
		t.Errorf("unexpected identity: %v", user)
	}

	// Same cookie, same identity.
	_, body2 := api.do(t, "GET", "/api/auth/me", nil)
	if body2["user"].(map[string]interface{})["id"] != user["id"] {
		t.Error("identity changed between requests with the same cookie")
	}
}

func TestSendScenario(t *testing.T) {
	api := newTestAPI(t)
	chatID := api.newChat(t)

	rr, body := api.do(t, "POST", "/api/chat/send", map[string]string{
		"chatId": chatID, "message": "Hello",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("send returned %d: %v", rr.Code, body)
	}
	if body["response"] != "Hi there" {
		t.Errorf("unexpected reply: %v", body["response"])
	}
	if body["title"] != "Hello" {
		t.Errorf("expected derived title, got %v", body["title"])
	}

	rr, body = api.do(t, "GET", "/api/chat/"+chatID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get chat returned %d", rr.Code)
	}
	chat := body["chat"].(map[string]interface{})
	msgs := chat["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestSendValidation(t *testing.T) {
	api := newTestAPI(t)

	rr, body := api.do(t, "POST", "/api/chat/send", map[string]string{"message": "hi"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing chatId should 400, got %d", rr.Code)
	}
	if body["error"] == "" {
		t.Error("expected an error body")
	}

	rr, _ = api.do(t, "POST", "/api/chat/send", map[string]string{"chatId": "x"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing message should 400, got %d", rr.Code)
	}
}

func TestSendUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"rate limited", gemini.ErrRateLimited, msgRateLimited},
		{"invalid key", gemini.ErrInvalidCredential, msgInvalidAPIKey},
		{"unavailable", gemini.ErrUnavailable, msgUnavailable},
		{"unknown", gemini.ErrUnknown, msgUpstreamFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			chatID := api.newChat(t)
			api.gateway.err = fmt.Errorf("%w: scripted", tt.err)

			rr, body := api.do(t, "POST", "/api/chat/send", map[string]string{
				"chatId": chatID, "message": "Hello",
			})
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rr.Code)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("expected message %q, got %v", tt.wantMsg, body["error"])
			}

			// The user's message survived the failed call.
			_, got := api.do(t, "GET", "/api/chat/"+chatID, nil)
			msgs := got["chat"].(map[string]interface{})["messages"].([]interface{})
			if len(msgs) != 1 {
				t.Errorf("expected the user message to be persisted, got %d messages", len(msgs))
			}
		})
	}
}

func TestGetUnknownChat(t *testing.T) {
	api := newTestAPI(t)

	rr, body := api.do(t, "GET", "/api/chat/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body["error"] != msgChatNotFound {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	chatID := api.newChat(t)

	rr, _ := api.do(t, "DELETE", "/api/chat/"+chatID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete returned %d", rr.Code)
	}
	rr, body := api.do(t, "DELETE", "/api/chat/"+chatID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("second delete should still 200, got %d", rr.Code)
	}
	if body["success"] != true {
		t.Errorf("expected success body, got %v", body)
	}
}

func TestHistoryIsPerIdentity(t *testing.T) {
	api := newTestAPI(t)
	api.newChat(t)
	api.newChat(t)

	_, body := api.do(t, "GET", "/api/chat/history", nil)
	if len(body["chats"].([]interface{})) != 2 {
		t.Errorf("expected 2 chats, got %v", body["chats"])
	}

	// A different client (no cookie) sees nothing.
	other := newTestAPI(t)
	_, body = other.do(t, "GET", "/api/chat/history", nil)
	if len(body["chats"].([]interface{})) != 0 {
		t.Errorf("expected empty history for a fresh guest, got %v", body["chats"])
	}
}

func TestRename(t *testing.T) {
	api := newTestAPI(t)
	chatID := api.newChat(t)

	rr, _ := api.do(t, "PUT", "/api/chat/"+chatID+"/rename", map[string]string{"title": "Renamed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("rename returned %d", rr.Code)
	}

	_, body := api.do(t, "GET", "/api/chat/"+chatID, nil)
	if body["chat"].(map[string]interface{})["title"] != "Renamed" {
		t.Errorf("expected renamed title, got %v", body["chat"])
	}

	rr, _ = api.do(t, "PUT", "/api/chat/missing/rename", map[string]string{"title": "x"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("rename of missing chat should 404, got %d", rr.Code)
	}
}
