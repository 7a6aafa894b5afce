package handler

import (
	"Courier/internal/api/dto"
	"Courier/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type fakeConversations struct {
	service.ConversationService
	gotKey   string
	gotQuery *dto.ListMessagesQuery
	err      error
}

func (f *fakeConversations) ListMessages(_ context.Context, key string, query *dto.ListMessagesQuery) (*dto.MessagePage, error) {
	f.gotKey, f.gotQuery = key, query
	if f.err != nil {
		return nil, f.err
	}
	return &dto.MessagePage{Page: 1, PageSize: query.PageSize}, nil
}

type fakeMessages struct {
	service.MessageService
	sent *dto.SendMessageReq
}

func (f *fakeMessages) SendLocalMessage(_ context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	f.sent = req
	return &dto.MessageDTO{ConversationKey: req.ConversationKey, Content: req.Content, Status: "sent"}, nil
}

func newIMRouter(h *IMHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/im/conversations/:key/messages", h.ListMessages)
	r.POST("/api/im/send", h.SendMessage)
	return r
}

func serve(t *testing.T, r *gin.Engine, method, target, body string) dto.Response {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http %d", method, target, w.Code)
	}
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestListMessagesBindsQuery(t *testing.T) {
	convs := &fakeConversations{}
	r := newIMRouter(NewIMHandler(convs, &fakeMessages{}))

	resp := serve(t, r, http.MethodGet, "/api/im/conversations/55511/messages?page=2&pageSize=10&before=wamid.X", "")
	if resp.Code != 200 {
		t.Fatalf("code %d: %s", resp.Code, resp.Message)
	}
	if convs.gotKey != "55511" || convs.gotQuery.Page != 2 || convs.gotQuery.PageSize != 10 || convs.gotQuery.Before != "wamid.X" {
		t.Fatalf("got key %q query %+v", convs.gotKey, convs.gotQuery)
	}
}

func TestListMessagesMapsServiceErrors(t *testing.T) {
	r := newIMRouter(NewIMHandler(&fakeConversations{err: service.ErrAnchorMismatch}, &fakeMessages{}))
	if resp := serve(t, r, http.MethodGet, "/api/im/conversations/k/messages?before=x", ""); resp.Code != service.BadRequest {
		t.Fatalf("code %d, want %d", resp.Code, service.BadRequest)
	}

	r = newIMRouter(NewIMHandler(&fakeConversations{err: service.ErrMessageNotFound}, &fakeMessages{}))
	if resp := serve(t, r, http.MethodGet, "/api/im/conversations/k/messages?before=x", ""); resp.Code != service.NotFound {
		t.Fatalf("code %d, want %d", resp.Code, service.NotFound)
	}
}

func TestSendMessage(t *testing.T) {
	msgs := &fakeMessages{}
	r := newIMRouter(NewIMHandler(&fakeConversations{}, msgs))

	resp := serve(t, r, http.MethodPost, "/api/im/send", `{"conversationKey":"55511","content":"hello"}`)
	if resp.Code != 200 || msgs.sent == nil || msgs.sent.Content != "hello" {
		t.Fatalf("code %d sent %+v", resp.Code, msgs.sent)
	}

	msgs.sent = nil
	resp = serve(t, r, http.MethodPost, "/api/im/send", `{"conversationKey":"55511"}`)
	if resp.Code != 400 || msgs.sent != nil {
		t.Fatalf("missing content accepted: code %d", resp.Code)
	}

	resp = serve(t, r, http.MethodPost, "/api/im/send", `not json`)
	if resp.Code != 400 {
		t.Fatalf("bad json: code %d", resp.Code)
	}
}
