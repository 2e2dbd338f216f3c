package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efdarkside/whatsapi/internal/delivery"
	"github.com/efdarkside/whatsapi/internal/model"
	"go.uber.org/zap"
)

type fakeNormalizer struct {
	ev model.InboundEvent
	ok bool
}

func (f *fakeNormalizer) Normalize(body []byte, now time.Time) (model.InboundEvent, bool) {
	return f.ev, f.ok
}

type fakeGuard struct {
	fresh bool
	err   error
	calls int
}

func (f *fakeGuard) CheckAndRecord(ctx context.Context, messageID string) (bool, error) {
	f.calls++
	return f.fresh, f.err
}

type fakeDispatcher struct {
	res   model.RelayResult
	calls int
	last  model.InboundEvent
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, ev model.InboundEvent) model.RelayResult {
	f.calls++
	f.last = ev
	return f.res
}

func newTestServer(n Normalizer, g *fakeGuard, d *fakeDispatcher) *Server {
	cfg := ServerCfg{
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
		VerifyToken:  "secret",
		MaxBodyBytes: 1 << 20,
	}
	return NewServer(cfg, n, g, d, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeNormalizer{}, &fakeGuard{}, &fakeDispatcher{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.healthz(rr, req)
	if rr.Code != 200 || strings.TrimSpace(rr.Body.String()) != "ok" {
		t.Fatalf("unexpected: %d %s", rr.Code, rr.Body.String())
	}
}

func TestVerifyWebhook_Success(t *testing.T) {
	s := newTestServer(&fakeNormalizer{}, &fakeGuard{}, &fakeDispatcher{})
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=chal-123", nil)
	rr := httptest.NewRecorder()
	s.verifyWebhook(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "chal-123" {
		t.Fatalf("challenge not echoed: %q", rr.Body.String())
	}
}

func TestVerifyWebhook_WrongToken(t *testing.T) {
	s := newTestServer(&fakeNormalizer{}, &fakeGuard{}, &fakeDispatcher{})
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=chal-123", nil)
	rr := httptest.NewRecorder()
	s.verifyWebhook(rr, req)
	if rr.Code != 403 {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRelayWebhook_SkipReturns200NoDispatch(t *testing.T) {
	g := &fakeGuard{}
	d := &fakeDispatcher{}
	s := newTestServer(&fakeNormalizer{ok: false}, g, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"not":"actionable"}`))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if g.calls != 0 || d.calls != 0 {
		t.Fatalf("skip must short-circuit: guard=%d dispatch=%d", g.calls, d.calls)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "ignored" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRelayWebhook_DuplicateReturns200NoDispatch(t *testing.T) {
	ev := model.NewInboundEvent("m1", "5511999", "oi", time.Now())
	d := &fakeDispatcher{}
	s := newTestServer(&fakeNormalizer{ev: ev, ok: true}, &fakeGuard{fresh: false}, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if d.calls != 0 {
		t.Fatalf("duplicate must not dispatch, got %d calls", d.calls)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "duplicate" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRelayWebhook_Success(t *testing.T) {
	ev := model.NewInboundEvent("m1", "5511999", "oi", time.Now())
	d := &fakeDispatcher{res: model.RelayResult{Status: model.StatusSuccess, ProviderMessageID: "wamid.1"}}
	s := newTestServer(&fakeNormalizer{ev: ev, ok: true}, &fakeGuard{fresh: true}, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if d.calls != 1 || d.last.MessageID != "m1" {
		t.Fatalf("dispatch not invoked with the event: %#v", d.last)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "success" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRelayWebhook_IntentFailureReturns500(t *testing.T) {
	ev := model.NewInboundEvent("m1", "5511999", "oi", time.Now())
	failure := errors.New("nlu down")
	d := &fakeDispatcher{res: model.RelayResult{
		Status: model.StatusIntentFailure, Detail: failure.Error(), Err: failure,
	}}
	s := newTestServer(&fakeNormalizer{ev: ev, ok: true}, &fakeGuard{fresh: true}, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 500 {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestRelayWebhook_CredentialExpiryReturns401(t *testing.T) {
	ev := model.NewInboundEvent("m1", "5511999", "oi", time.Now())
	d := &fakeDispatcher{res: model.RelayResult{
		Status: model.StatusDeliveryFailure,
		Detail: "expired",
		Err:    delivery.ErrCredentialExpired,
	}}
	s := newTestServer(&fakeNormalizer{ev: ev, ok: true}, &fakeGuard{fresh: true}, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 401 {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRelayWebhook_GuardErrorFailsOpen(t *testing.T) {
	ev := model.NewInboundEvent("m1", "5511999", "oi", time.Now())
	d := &fakeDispatcher{res: model.RelayResult{Status: model.StatusSuccess}}
	s := newTestServer(&fakeNormalizer{ev: ev, ok: true}, &fakeGuard{err: errors.New("redis down")}, d)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.relayWebhook(rr, req)
	if rr.Code != 200 || d.calls != 1 {
		t.Fatalf("guard outage must not drop messages: code=%d dispatches=%d", rr.Code, d.calls)
	}
}
