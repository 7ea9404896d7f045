package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/model"
	"github.com/drink-orders/internal/notify"
	"github.com/drink-orders/internal/repo"
	"github.com/drink-orders/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const allowedOrigin = "https://staff.example"

// countingRepo records every store access.
type countingRepo struct {
	*repo.MemoryOrderRepository
	mu    sync.Mutex
	calls int
}

func (r *countingRepo) hit() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.hit()
	return r.MemoryOrderRepository.GetByID(ctx, id)
}

func (r *countingRepo) GetAll(ctx context.Context) ([]model.Order, error) {
	r.hit()
	return r.MemoryOrderRepository.GetAll(ctx)
}

type fakeMessenger struct {
	mu      sync.Mutex
	pushes  []line.Message
	replies []string
	err     error
}

func (m *fakeMessenger) Push(ctx context.Context, to string, messages ...line.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.pushes = append(m.pushes, messages...)
	return nil
}

func (m *fakeMessenger) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.replies = append(m.replies, replyToken+"="+messages[0].Text)
	return nil
}

type testEnv struct {
	router    *gin.Engine
	repo      *countingRepo
	messenger *fakeMessenger
}

func newTestEnv(channelSecret string) *testEnv {
	gin.SetMode(gin.TestMode)

	store := &countingRepo{MemoryOrderRepository: repo.NewMemoryOrderRepository()}
	messenger := &fakeMessenger{}
	dispatcher := notify.NewDispatcher(messenger)
	svc := service.NewOrderService(store, dispatcher, nil)
	h := NewHandler(svc, dispatcher, channelSecret, allowedOrigin)

	return &testEnv{router: NewRouter(h, zap.NewNop()), repo: store, messenger: messenger}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func placeOrder(t *testing.T, e *testEnv) string {
	t.Helper()
	w := e.do(http.MethodPost, "/order", `{"userId":"u1","name":"Ann","drink":"latte","note":"no sugar"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode(t, w)["orderId"].(string)
}

func TestPlaceOrderHandler(t *testing.T) {
	e := newTestEnv("")

	id := placeOrder(t, e)
	if id == "" {
		t.Fatal("expected order id")
	}

	if len(e.messenger.pushes) != 1 || !strings.Contains(e.messenger.pushes[0].Text, "latte") {
		t.Errorf("expected confirmation push, got %+v", e.messenger.pushes)
	}
}

func TestPlaceOrderHandlerValidation(t *testing.T) {
	e := newTestEnv("")

	w := e.do(http.MethodPost, "/order", `{"userId":"u1","drink":"latte"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = e.do(http.MethodPost, "/order", `{not json`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestPlaceOrderHandlerNotificationFailure(t *testing.T) {
	e := newTestEnv("")
	e.messenger.err = errors.New("line down")

	w := e.do(http.MethodPost, "/order", `{"userId":"u1","name":"Ann","drink":"latte"}`, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	body := decode(t, w)
	id, _ := body["orderId"].(string)
	if id == "" {
		t.Fatal("expected orderId in partial-success response")
	}
	if body["outcome"] != "created_notification_failed" {
		t.Errorf("unexpected outcome %v", body["outcome"])
	}

	if _, err := e.repo.MemoryOrderRepository.GetByID(context.Background(), id); err != nil {
		t.Errorf("expected order to persist, got %v", err)
	}
}

func TestUpdateOrderHandler(t *testing.T) {
	e := newTestEnv("")
	id := placeOrder(t, e)

	w := e.do(http.MethodPost, "/update-order", `{"orderId":"`+id+`","status":"cancelled","userId":"u1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	order := decode(t, w)["order"].(map[string]any)
	if order["status"] != "cancelled" {
		t.Errorf("expected cancelled, got %v", order["status"])
	}
	last := e.messenger.pushes[len(e.messenger.pushes)-1]
	if last.Text != notify.CancelledText {
		t.Errorf("expected cancellation text, got %q", last.Text)
	}
}

func TestUpdateOrderHandlerNotFound(t *testing.T) {
	e := newTestEnv("")

	w := e.do(http.MethodPost, "/update-order", `{"orderId":"missing","status":"done"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if len(e.messenger.pushes) != 0 {
		t.Error("expected no notification for unknown order")
	}
}

func TestGetOrdersOriginGate(t *testing.T) {
	e := newTestEnv("")

	w := e.do(http.MethodGet, "/orders", "", map[string]string{"Origin": "https://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	w = e.do(http.MethodGet, "/orders", "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without origin, got %d", w.Code)
	}
	w = e.do(http.MethodGet, "/orders/some-id", "", map[string]string{"Origin": "https://staff.example.evil"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for get, got %d", w.Code)
	}
	if e.repo.calls != 0 {
		t.Errorf("expected store untouched, got %d calls", e.repo.calls)
	}
}

func TestGetOrdersAllowedOrigin(t *testing.T) {
	e := newTestEnv("")
	id := placeOrder(t, e)
	origin := map[string]string{"Origin": allowedOrigin}

	w := e.do(http.MethodGet, "/orders", "", origin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	orders := decode(t, w)["orders"].([]any)
	if len(orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(orders))
	}

	w = e.do(http.MethodGet, "/orders/"+id, "", origin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decode(t, w)["status"] != "pending" {
		t.Errorf("expected pending order")
	}

	w = e.do(http.MethodGet, "/orders/missing", "", origin)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWebhook(t *testing.T) {
	e := newTestEnv("")

	body := `{"events":[
		{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"u1"},"message":{"id":"1","type":"text","text":"` + notify.TriggerPhrase + `"}},
		{"type":"message","replyToken":"rt-2","source":{"type":"user","userId":"u2"},"message":{"id":"2","type":"text","text":"hello"}},
		{"type":"message","replyToken":"rt-3","source":{"type":"user","userId":"u3"},"message":{"id":"3","type":"sticker","packageId":"1","stickerId":"1"}},
		{"type":"follow","replyToken":"rt-4","source":{"type":"user","userId":"u4"}}
	]}`
	w := e.do(http.MethodPost, "/webhook", body, nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", w.Code, w.Body.String())
	}

	want := []string{"rt-1=" + notify.OrderPrompt, "rt-2=" + notify.EchoPrefix + "hello"}
	if strings.Join(e.messenger.replies, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected replies %v", e.messenger.replies)
	}
	if e.repo.calls != 0 {
		t.Error("webhook must not touch the order store")
	}
}

func TestWebhookReplyFailure(t *testing.T) {
	e := newTestEnv("")
	e.messenger.err = errors.New("line down")

	w := e.do(http.MethodPost, "/webhook", `[{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"u1"},"message":{"id":"1","type":"text","text":"hi"}}]`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestWebhookSignature(t *testing.T) {
	e := newTestEnv("secret")
	body := `{"events":[]}`

	w := e.do(http.MethodPost, "/webhook", body, map[string]string{line.SignatureHeader: "bad"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(body))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set(line.SignatureHeader, sig)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv("")
	w := e.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
