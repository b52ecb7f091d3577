package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/datachat/internal/middleware"
	"github.com/zhouzirui/datachat/internal/model/chat"
	"github.com/zhouzirui/datachat/internal/service/analysis"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/service/surface"
	"github.com/zhouzirui/datachat/internal/view"
)

type stubCompleter struct{ reply string }

func (s stubCompleter) Complete(context.Context, string) (string, error) {
	return s.reply, nil
}

func setupRouter() (*chi.Mux, string) {
	store := session.NewStore(func() *analysis.Session {
		return analysis.NewSession(stubCompleter{reply: "the mean is 2"})
	}, time.Hour)
	info, _ := store.Create(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.Session(store, "sid"))
	New(surface.NewService(store), 1<<20).RegisterRoutes(r)
	return r, info.ID
}

func serve(r http.Handler, sid string, req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func uploadRequest(name, content string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", name)
	_, _ = part.Write([]byte(content))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func chatRequest(message string) *http.Request {
	payload, _ := json.Marshal(map[string]string{"message": message})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestStateBeforeUpload(t *testing.T) {
	r, sid := setupRouter()

	resp := serve(r, sid, httptest.NewRequest(http.MethodGet, "/state", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var v view.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if v.SessionID != sid || v.ChatEnabled || v.Notice != view.UploadNotice {
		t.Fatalf("unexpected state: %+v", v)
	}
}

func TestUploadChatAndHistory(t *testing.T) {
	r, sid := setupRouter()

	resp := serve(r, sid, uploadRequest("n.csv", "a\n1\n2\n3\n"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = serve(r, sid, chatRequest("what is the mean of a?"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var chatResp struct {
		Reply string    `json:"reply"`
		State view.View `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if chatResp.Reply != "the mean is 2" {
		t.Fatalf("unexpected reply: %q", chatResp.Reply)
	}

	resp = serve(r, sid, httptest.NewRequest(http.MethodGet, "/history", nil))
	var history struct {
		SessionID string       `json:"sessionId"`
		Entries   []chat.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(history.Entries) != 2 {
		t.Fatalf("expected 2 entries without system notes, got %d", len(history.Entries))
	}
	if history.Entries[0].Role != chat.RoleUser || history.Entries[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", history.Entries)
	}
}

func TestChatErrors(t *testing.T) {
	r, sid := setupRouter()

	if resp := serve(r, sid, chatRequest("hello")); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 before upload, got %d", resp.Code)
	}
	if resp := serve(r, sid, chatRequest("")); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	if resp := serve(r, sid, req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", resp.Code)
	}
}

func TestPromptPreview(t *testing.T) {
	r, sid := setupRouter()
	serve(r, sid, uploadRequest("n.csv", "a\n1\n"))

	resp := serve(r, sid, httptest.NewRequest(http.MethodGet, "/prompt?message=describe+the+data", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !strings.HasSuffix(body["prompt"], "User question: describe the data\n\nPlease provide a helpful response about the data.") {
		t.Fatalf("unexpected prompt: %q", body["prompt"])
	}

	if resp := serve(r, sid, httptest.NewRequest(http.MethodGet, "/prompt", nil)); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without message, got %d", resp.Code)
	}
}
