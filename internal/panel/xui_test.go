package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"khpanel/internal/models"
	"khpanel/internal/pkg/httpclient"
)

const (
	testEmail  = "buyer@example.com-1234"
	testCookie = "3x-ui=session-token-1"
)

func writeEnvelope(w http.ResponseWriter, success bool, msg string, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"msg":     msg,
		"obj":     obj,
	})
}

// fakeXUI is a minimal in-process X-UI panel. It accepts one credential
// pair, requires the session cookie on API calls and keeps a single inbound
// with a configurable client list.
type fakeXUI struct {
	t        *testing.T
	apiBase  string
	clients  []map[string]interface{}
	resetOK  bool
	lastPath string
}

func (f *fakeXUI) requireCookie(w http.ResponseWriter, r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Cookie"), testCookie) {
		writeEnvelope(w, false, "not authenticated", nil)
		return false
	}
	return true
}

func (f *fakeXUI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != "admin" || r.FormValue("password") != "pass" {
			writeEnvelope(w, false, "invalid username or password", nil)
			return
		}
		w.Header().Set("Set-Cookie", testCookie+"; Path=/")
		writeEnvelope(w, true, "", nil)
	})

	mux.HandleFunc("/"+f.apiBase+"/onlines", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		writeEnvelope(w, true, "", []string{"a@x-1111", "b@x-2222"})
	})

	mux.HandleFunc("/"+f.apiBase+"/addClient/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		var payload struct {
			ID       int    `json:"id"`
			Settings string `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeEnvelope(w, false, "bad payload", nil)
			return
		}
		if payload.ID != 1 {
			writeEnvelope(w, false, fmt.Sprintf("unknown inbound %d", payload.ID), nil)
			return
		}
		var settings struct {
			Clients []map[string]interface{} `json:"clients"`
		}
		if err := json.Unmarshal([]byte(payload.Settings), &settings); err != nil || len(settings.Clients) == 0 {
			writeEnvelope(w, false, "settings payload is malformed", nil)
			return
		}
		f.clients = append(f.clients, settings.Clients...)
		writeEnvelope(w, true, "", nil)
	})

	mux.HandleFunc("/"+f.apiBase+"/get/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		settingsJSON, _ := json.Marshal(map[string]interface{}{"clients": f.clients})
		writeEnvelope(w, true, "", map[string]string{"settings": string(settingsJSON)})
	})

	mux.HandleFunc("/"+f.apiBase+"/updateClient/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		f.lastPath = r.URL.Path
		writeEnvelope(w, true, "", nil)
	})

	mux.HandleFunc("/"+f.apiBase+"/1/resetClientTraffic/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		if !f.resetOK {
			writeEnvelope(w, false, "reset unavailable", nil)
			return
		}
		writeEnvelope(w, true, "", nil)
	})

	mux.HandleFunc("/"+f.apiBase+"/1/delClient/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		f.lastPath = r.URL.Path
		f.clients = nil
		writeEnvelope(w, true, "", nil)
	})

	mux.HandleFunc("/"+f.apiBase+"/getClientTraffics/", func(w http.ResponseWriter, r *http.Request) {
		if !f.requireCookie(w, r) {
			return
		}
		email := strings.TrimPrefix(r.URL.Path, "/"+f.apiBase+"/getClientTraffics/")
		for _, c := range f.clients {
			if c["email"] == email {
				writeEnvelope(w, true, "", map[string]interface{}{
					"up": 100, "down": 300, "total": 1024, "expiryTime": 1700000000000, "enable": true,
				})
				return
			}
		}
		writeEnvelope(w, true, "", nil)
	})

	return mux
}

func newFakeXUI(t *testing.T, apiBase string) (*fakeXUI, *httptest.Server) {
	f := &fakeXUI{t: t, apiBase: apiBase, resetOK: true}
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)
	return f, ts
}

func testServer(url string) *models.Server {
	return &models.Server{
		ID:        1,
		Name:      "de-1",
		PanelType: TypeAlireza,
		PanelURL:  url,
		PanelUser: "admin",
		PanelPass: "pass",
	}
}

func TestXUITestConnection(t *testing.T) {
	for name, adapter := range map[string]*xuiAdapter{
		"alireza": newAlirezaAdapter(),
		"sanaei":  newSanaeiAdapter(),
	} {
		t.Run(name, func(t *testing.T) {
			_, ts := newFakeXUI(t, adapter.apiBase)
			res := adapter.TestConnection(context.Background(), testServer(ts.URL))
			if !res.Success {
				t.Fatalf("TestConnection failed: %s", res.Error)
			}
			if res.OnlineUsers != 2 {
				t.Errorf("OnlineUsers = %d, want 2", res.OnlineUsers)
			}
		})
	}
}

func TestXUITestConnectionBadCredentials(t *testing.T) {
	adapter := newAlirezaAdapter()
	_, ts := newFakeXUI(t, adapter.apiBase)

	srv := testServer(ts.URL)
	srv.PanelPass = "wrong"
	res := adapter.TestConnection(context.Background(), srv)
	if res.Success {
		t.Fatal("expected failure with bad credentials")
	}
	if res.Error != "invalid username or password" {
		t.Errorf("error = %q, want the panel's rejection message", res.Error)
	}
}

func TestXUITestConnectionIncompleteDetails(t *testing.T) {
	adapter := newAlirezaAdapter()
	res := adapter.TestConnection(context.Background(), &models.Server{Name: "empty"})
	if res.Success || !strings.Contains(res.Error, "incomplete") {
		t.Errorf("result = %+v, want an incomplete-details error", res)
	}
}

func TestXUICreateClient(t *testing.T) {
	adapter := newAlirezaAdapter()
	fake, ts := newFakeXUI(t, adapter.apiBase)

	plan := &models.Plan{
		Protocol:         "vless",
		InboundID:        "1",
		VolumeGB:         50,
		Remark:           "gold-{email}",
		ConnectionDomain: "vpn.example.com",
		ConnectionPort:   "443",
	}
	settings := ClientSettings{
		UUID:       "uuid-1",
		Email:      testEmail,
		InboundID:  "1",
		TotalBytes: 50 << 30,
		ExpiryTime: 1700000000000,
	}

	res := adapter.CreateClient(context.Background(), testServer(ts.URL), plan, settings)
	if !res.Success {
		t.Fatalf("CreateClient failed: %s\ntrace: %v", res.Error, res.Trace)
	}
	if len(fake.clients) != 1 {
		t.Fatalf("panel has %d clients, want 1", len(fake.clients))
	}
	if fake.clients[0]["email"] != testEmail || fake.clients[0]["id"] != "uuid-1" {
		t.Errorf("panel stored wrong client: %v", fake.clients[0])
	}
	if gotGB, ok := fake.clients[0]["totalGB"].(float64); !ok || int64(gotGB) != 50<<30 {
		t.Errorf("panel stored totalGB %v, want %d", fake.clients[0]["totalGB"], int64(50)<<30)
	}

	wantPrefix := "vless://uuid-1@vpn.example.com:443"
	if !strings.HasPrefix(res.ConfigLink, wantPrefix) {
		t.Errorf("ConfigLink = %q, want prefix %q", res.ConfigLink, wantPrefix)
	}
	if !res.Trace.Contains("client created on panel") {
		t.Errorf("trace is missing the creation step: %v", res.Trace)
	}
}

func TestXUICreateClientMissingLinkDetails(t *testing.T) {
	adapter := newAlirezaAdapter()
	_, ts := newFakeXUI(t, adapter.apiBase)

	// No protocol on the plan and no public domain on the server: the client
	// must still be created, with a placeholder instead of a link.
	plan := &models.Plan{InboundID: "1", VolumeGB: 10}
	res := adapter.CreateClient(context.Background(), testServer(ts.URL), plan, ClientSettings{
		UUID: "uuid-2", Email: testEmail, InboundID: "1",
	})
	if !res.Success {
		t.Fatalf("CreateClient failed: %s", res.Error)
	}
	if res.ConfigLink != MissingLinkMessage {
		t.Errorf("ConfigLink = %q, want the missing-details placeholder", res.ConfigLink)
	}
	if !res.Trace.Contains("link generation skipped") {
		t.Errorf("trace is missing the skip warning: %v", res.Trace)
	}
}

func TestXUIRenewClient(t *testing.T) {
	adapter := newAlirezaAdapter()
	fake, ts := newFakeXUI(t, adapter.apiBase)
	fake.clients = []map[string]interface{}{
		{"id": "uuid-1", "email": testEmail, "flow": "", "limitIp": 0, "tgId": "", "subId": ""},
	}

	res := adapter.RenewClient(context.Background(), testServer(ts.URL), RenewRequest{
		Email:      testEmail,
		InboundID:  "1",
		TotalBytes: 100 << 30,
		ExpiryTime: 1800000000000,
	})
	if !res.Success {
		t.Fatalf("RenewClient failed: %s\ntrace: %v", res.Error, res.Trace)
	}
	if res.Error != "" {
		t.Errorf("clean renewal reported an error: %s", res.Error)
	}
	if !strings.HasSuffix(fake.lastPath, "/updateClient/uuid-1") {
		t.Errorf("update hit wrong path: %s", fake.lastPath)
	}
	if !res.Trace.Contains("renewal complete") {
		t.Errorf("trace is missing the completion line: %v", res.Trace)
	}
}

// A failed traffic reset after a successful expiry update must not fail the
// renewal; the reset error is surfaced alongside Success=true.
func TestXUIRenewClientResetSoftFail(t *testing.T) {
	adapter := newAlirezaAdapter()
	fake, ts := newFakeXUI(t, adapter.apiBase)
	fake.resetOK = false
	fake.clients = []map[string]interface{}{
		{"id": "uuid-1", "email": testEmail, "flow": "", "limitIp": 0, "tgId": "", "subId": ""},
	}

	res := adapter.RenewClient(context.Background(), testServer(ts.URL), RenewRequest{
		Email: testEmail, InboundID: "1", TotalBytes: 1 << 30, ExpiryTime: 1800000000000,
	})
	if !res.Success {
		t.Fatalf("renewal must survive a failed reset, got error: %s", res.Error)
	}
	if !strings.Contains(res.Error, "traffic was not reset") {
		t.Errorf("reset failure was not surfaced: %q", res.Error)
	}
}

func TestXUIRenewClientNotFound(t *testing.T) {
	adapter := newAlirezaAdapter()
	_, ts := newFakeXUI(t, adapter.apiBase)

	res := adapter.RenewClient(context.Background(), testServer(ts.URL), RenewRequest{
		Email: "ghost@example.com-0000", InboundID: "1",
	})
	if res.Success {
		t.Fatal("renewal of a missing client must fail")
	}
	if res.Error != ErrClientNotFound.Error() {
		t.Errorf("error = %q, want %q", res.Error, ErrClientNotFound.Error())
	}
}

func TestXUIDeleteClient(t *testing.T) {
	adapter := newAlirezaAdapter()
	fake, ts := newFakeXUI(t, adapter.apiBase)
	fake.clients = []map[string]interface{}{
		{"id": "uuid-1", "email": testEmail},
	}

	res := adapter.DeleteClient(context.Background(), testServer(ts.URL), DeleteRequest{
		Email: testEmail, InboundID: "1",
	})
	if !res.Success {
		t.Fatalf("DeleteClient failed: %s\ntrace: %v", res.Error, res.Trace)
	}
	if !strings.HasSuffix(fake.lastPath, "/delClient/uuid-1") {
		t.Errorf("delete hit wrong path: %s", fake.lastPath)
	}
	if len(fake.clients) != 0 {
		t.Errorf("client was not removed from the panel")
	}
}

// Deleting a client that is already gone reports success so the caller can
// safely retry or clean up local state.
func TestXUIDeleteClientAlreadyGone(t *testing.T) {
	adapter := newAlirezaAdapter()
	_, ts := newFakeXUI(t, adapter.apiBase)

	res := adapter.DeleteClient(context.Background(), testServer(ts.URL), DeleteRequest{
		Email: "ghost@example.com-0000", InboundID: "1",
	})
	if !res.Success {
		t.Fatalf("idempotent delete must succeed, got: %s", res.Error)
	}
	if !strings.Contains(res.Error, "already deleted") {
		t.Errorf("informational note missing: %q", res.Error)
	}
}

func TestXUIClientTraffic(t *testing.T) {
	adapter := newAlirezaAdapter()
	fake, ts := newFakeXUI(t, adapter.apiBase)
	fake.clients = []map[string]interface{}{
		{"id": "uuid-1", "email": testEmail},
	}

	res := adapter.ClientTraffic(context.Background(), testServer(ts.URL), testEmail)
	if !res.Success {
		t.Fatalf("ClientTraffic failed: %s", res.Error)
	}
	if res.Data == nil || res.Data.Up != 100 || res.Data.Down != 300 || res.Data.Total != 1024 {
		t.Errorf("traffic data = %+v", res.Data)
	}
	if !res.Data.Enable {
		t.Error("enable flag not carried through")
	}
}

// X-UI answers a traffic query for an unknown email with success=true and a
// null obj; that must map to NotFound, not to a generic failure.
func TestXUIClientTrafficUnknownEmail(t *testing.T) {
	adapter := newAlirezaAdapter()
	_, ts := newFakeXUI(t, adapter.apiBase)

	res := adapter.ClientTraffic(context.Background(), testServer(ts.URL), "ghost@example.com-0000")
	if res.Success {
		t.Fatal("unknown email must not succeed")
	}
	if !res.NotFound {
		t.Errorf("result = %+v, want NotFound=true", res)
	}
}

func TestXUILoginWithoutCookie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Accepts the login but never issues a session cookie.
		writeEnvelope(w, true, "", nil)
	}))
	defer ts.Close()

	adapter := &xuiAdapter{typ: TypeAlireza, apiBase: "xui/API/inbounds", client: httpclient.NewPanel()}
	res := adapter.TestConnection(context.Background(), testServer(ts.URL))
	if res.Success || !strings.Contains(res.Error, "no session cookie") {
		t.Errorf("result = %+v, want a missing-cookie error", res)
	}
}
