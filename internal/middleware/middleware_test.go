package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func runWithMiddleware(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.String(http.StatusOK, "ok")
	})
	_ = handler(c)
	return rec, reached
}

func TestAPIAuth(t *testing.T) {
	mw := APIAuth("s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	rec, reached := runWithMiddleware(mw, req)
	if reached || rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: code=%d reached=%v", rec.Code, reached)
	}
	if !strings.Contains(rec.Body.String(), "Token is required") {
		t.Errorf("body = %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Token", "wrong")
	rec, reached = runWithMiddleware(mw, req)
	if reached || rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: code=%d reached=%v", rec.Code, reached)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Token", "s3cret")
	rec, reached = runWithMiddleware(mw, req)
	if !reached || rec.Code != http.StatusOK {
		t.Errorf("valid token: code=%d reached=%v", rec.Code, reached)
	}
}

func TestTelegramIPCheck(t *testing.T) {
	mw := TelegramIPCheck()

	cases := []struct {
		ip      string
		allowed bool
	}{
		{"149.154.167.1:5000", true},
		{"91.108.4.9:5000", true},
		{"127.0.0.1:5000", true},
		{"8.8.8.8:5000", false},
		{"203.0.113.50:5000", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/bot/webhook", nil)
		req.RemoteAddr = tc.ip
		rec, reached := runWithMiddleware(mw, req)
		if reached != tc.allowed {
			t.Errorf("ip %s: reached=%v, want %v (code %d)", tc.ip, reached, tc.allowed, rec.Code)
		}
	}
}

func TestMemoryUpdateDeduperSeen(t *testing.T) {
	d := newMemoryUpdateDeduper(time.Minute)
	ctx := context.Background()

	dup, err := d.Seen(ctx, 42)
	if err != nil || dup {
		t.Fatalf("first sighting: dup=%v err=%v", dup, err)
	}
	dup, err = d.Seen(ctx, 42)
	if err != nil || !dup {
		t.Fatalf("second sighting: dup=%v err=%v", dup, err)
	}
	dup, _ = d.Seen(ctx, 43)
	if dup {
		t.Error("a different update ID must not be a duplicate")
	}
}

func TestMemoryUpdateDeduperExpiry(t *testing.T) {
	d := newMemoryUpdateDeduper(10 * time.Millisecond)
	ctx := context.Background()

	_, _ = d.Seen(ctx, 7)
	time.Sleep(20 * time.Millisecond)
	dup, _ := d.Seen(ctx, 7)
	if dup {
		t.Error("an expired entry must not count as a duplicate")
	}
}

func TestTelegramUpdateDedup(t *testing.T) {
	d := newMemoryUpdateDeduper(time.Minute)
	mw := TelegramUpdateDedup(d)

	body := `{"update_id": 1001, "message": {"text": "/start"}}`

	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
	rec, reached := runWithMiddleware(mw, req)
	if !reached {
		t.Fatalf("first delivery must pass through (code %d)", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
	rec, reached = runWithMiddleware(mw, req)
	if reached {
		t.Fatal("duplicate delivery must be dropped")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("duplicate delivery answered %d, want 200 so Telegram stops retrying", rec.Code)
	}
}

func TestTelegramUpdateDedupPassesMalformedBody(t *testing.T) {
	mw := TelegramUpdateDedup(newMemoryUpdateDeduper(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader("not json"))
	_, reached := runWithMiddleware(mw, req)
	if !reached {
		t.Error("a body without an update_id must pass through untouched")
	}

	req = httptest.NewRequest(http.MethodPost, "/bot/webhook", nil)
	_, reached = runWithMiddleware(mw, req)
	if !reached {
		t.Error("an empty body must pass through untouched")
	}
}

func TestNewUpdateDeduperFallsBackWithoutRedis(t *testing.T) {
	d, err := NewUpdateDeduper("", "", 0, time.Minute)
	if err != nil {
		t.Fatalf("no-redis construction returned error: %v", err)
	}
	if _, ok := d.(*memoryUpdateDeduper); !ok {
		t.Errorf("deduper without a redis address should be in-memory, got %T", d)
	}
}
