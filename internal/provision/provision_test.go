package provision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"khpanel/internal/models"
	"khpanel/internal/panel"
	"khpanel/internal/pkg/utils"
)

// fakeXUI serves just enough of the X-UI API for an end-to-end create: a
// login that issues a cookie and an addClient endpoint that records the
// client it received.
func fakeXUI(t *testing.T) (*httptest.Server, *[]map[string]interface{}) {
	var created []map[string]interface{}
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "session=abc; Path=/")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	mux.HandleFunc("/xui/API/inbounds/addClient/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ID       int    `json:"id"`
			Settings string `json:"settings"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		var settings struct {
			Clients []map[string]interface{} `json:"clients"`
		}
		_ = json.Unmarshal([]byte(payload.Settings), &settings)
		created = append(created, settings.Clients...)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &created
}

func autoPlan(serverID uint) *models.Plan {
	return &models.Plan{
		ID:               3,
		Name:             "Gold 50GB",
		ProvisionType:    models.ProvisionAuto,
		ServerID:         serverID,
		Protocol:         "vless",
		VolumeGB:         50,
		InboundID:        "1",
		DurationDays:     30,
		ConnectionDomain: "vpn.example.com",
		ConnectionPort:   "443",
	}
}

func TestProvisionAutoEndToEnd(t *testing.T) {
	ts, created := fakeXUI(t)
	o := New(panel.NewRegistry())

	user := &models.Account{ID: 9, Email: "buyer@example.com"}
	servers := []models.Server{{
		ID:        7,
		Name:      "de-1",
		PanelType: panel.TypeAlireza,
		PanelURL:  ts.URL,
		PanelUser: "admin",
		PanelPass: "pass",
	}}

	before := time.Now()
	res := o.Provision(context.Background(), models.Service{UserID: 9, PlanID: 3}, autoPlan(7), user, servers, "")
	if !res.Success {
		t.Fatalf("Provision failed: %s\ntrace: %v", res.Error, res.Trace)
	}

	svc := res.Service
	if svc == nil {
		t.Fatal("successful provision returned no service")
	}
	if svc.ServerID != 7 {
		t.Errorf("ServerID = %d, want 7", svc.ServerID)
	}
	if matched, _ := regexp.MatchString(`^buyer@example\.com-\d{4}$`, svc.ClientEmail); !matched {
		t.Errorf("ClientEmail = %q, want <email>-<4 digits>", svc.ClientEmail)
	}
	if svc.ClientUUID == "" {
		t.Error("ClientUUID was not generated")
	}
	if svc.TotalTraffic != utils.GBToBytes(50) {
		t.Errorf("TotalTraffic = %d, want %d", svc.TotalTraffic, utils.GBToBytes(50))
	}

	wantExpiry := before.AddDate(0, 0, 30)
	if svc.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || svc.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %s, want about %s", svc.ExpiresAt, wantExpiry)
	}

	if !strings.HasPrefix(svc.ConfigLink, "vless://"+svc.ClientUUID+"@vpn.example.com:443") {
		t.Errorf("ConfigLink = %q", svc.ConfigLink)
	}

	if len(*created) != 1 {
		t.Fatalf("panel received %d clients, want 1", len(*created))
	}
	if (*created)[0]["email"] != svc.ClientEmail {
		t.Errorf("panel client email = %v, want %s", (*created)[0]["email"], svc.ClientEmail)
	}

	// Trace lines arrive in step order.
	wantSteps := []string{
		"starting automatic provisioning",
		"target server found",
		"client settings prepared",
		"provisioning successful",
	}
	idx := 0
	for _, line := range res.Trace {
		if idx < len(wantSteps) && strings.Contains(line, wantSteps[idx]) {
			idx++
		}
	}
	if idx != len(wantSteps) {
		t.Errorf("trace missing step %q:\n%v", wantSteps[idx], res.Trace)
	}
}

func TestProvisionAutoCustomIdentifier(t *testing.T) {
	ts, created := fakeXUI(t)
	o := New(panel.NewRegistry())

	servers := []models.Server{{
		ID: 7, Name: "de-1", PanelType: panel.TypeAlireza,
		PanelURL: ts.URL, PanelUser: "admin", PanelPass: "pass",
	}}
	res := o.Provision(context.Background(), models.Service{}, autoPlan(7),
		&models.Account{Email: "buyer@example.com"}, servers, "custom-id-42")
	if !res.Success {
		t.Fatalf("Provision failed: %s", res.Error)
	}
	if res.Service.ClientEmail != "custom-id-42" {
		t.Errorf("ClientEmail = %q, want the caller-supplied identifier", res.Service.ClientEmail)
	}
	if (*created)[0]["email"] != "custom-id-42" {
		t.Errorf("panel received %v", (*created)[0]["email"])
	}
}

func TestProvisionPreMadePassthrough(t *testing.T) {
	o := New(panel.NewRegistry())

	svc := models.Service{UserID: 5, PlanID: 2, PreMadeItemID: 11, ConfigLink: "vless://ready-made"}
	res := o.Provision(context.Background(), svc,
		&models.Plan{ProvisionType: models.ProvisionPreMade}, &models.Account{}, nil, "")
	if !res.Success {
		t.Fatalf("pre-made provision failed: %s", res.Error)
	}
	if res.Service.PreMadeItemID != 11 || res.Service.ConfigLink != "vless://ready-made" {
		t.Errorf("service data was not passed through unchanged: %+v", res.Service)
	}
	if res.Service.ServerID != 0 || res.Service.ClientEmail != "" {
		t.Errorf("pre-made service must not gain vendor fields: %+v", res.Service)
	}
	if !res.Trace.Contains("pre-made provisioning") {
		t.Errorf("trace = %v", res.Trace)
	}
}

func TestProvisionUnknownType(t *testing.T) {
	o := New(panel.NewRegistry())
	res := o.Provision(context.Background(), models.Service{},
		&models.Plan{ProvisionType: "manual"}, &models.Account{}, nil, "")
	if res.Success {
		t.Fatal("unknown provision type must fail")
	}
	if !strings.Contains(res.Error, "unknown provision type") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestProvisionAutoNoServerConfigured(t *testing.T) {
	o := New(panel.NewRegistry())
	plan := autoPlan(0)
	res := o.Provision(context.Background(), models.Service{}, plan, &models.Account{}, nil, "")
	if res.Success || !strings.Contains(res.Error, "no server is configured") {
		t.Errorf("result = %+v, want a no-server error", res)
	}
}

func TestProvisionAutoServerNotInList(t *testing.T) {
	o := New(panel.NewRegistry())
	servers := []models.Server{{ID: 1}, {ID: 2}}
	res := o.Provision(context.Background(), models.Service{}, autoPlan(7), &models.Account{}, servers, "")
	if res.Success {
		t.Fatal("provision must fail when the plan's server is absent")
	}
	if !strings.Contains(res.Error, "ID 7") {
		t.Errorf("error does not name the missing server: %q", res.Error)
	}
	if !res.Trace.Contains("not found in the provided server list") {
		t.Errorf("trace = %v", res.Trace)
	}
}

// Renewal extends the service's own expiry, not today's date, and converts
// the plan volume to bytes. Both values are computed before the vendor call,
// so an unsupported panel type still reports them.
func TestRenewComputesExpiryAndQuota(t *testing.T) {
	o := New(panel.NewRegistry())

	current := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	svc := &models.Service{ClientEmail: "buyer@example.com-1234", ExpiresAt: current}
	plan := autoPlan(7)
	server := &models.Server{PanelType: panel.TypeShahan}

	out := o.Renew(context.Background(), svc, plan, server)
	if out.Success {
		t.Fatal("renewal against a non-renewing panel type must fail")
	}
	if !strings.Contains(out.Error, "not implemented") {
		t.Errorf("error = %q", out.Error)
	}

	wantExpiry := current.AddDate(0, 0, 30)
	if !out.NewExpiry.Equal(wantExpiry) {
		t.Errorf("NewExpiry = %s, want %s", out.NewExpiry, wantExpiry)
	}
	if out.NewTotalBytes != utils.GBToBytes(50) {
		t.Errorf("NewTotalBytes = %d, want %d", out.NewTotalBytes, utils.GBToBytes(50))
	}
}

func TestRenewMissingIdentifier(t *testing.T) {
	o := New(panel.NewRegistry())
	out := o.Renew(context.Background(), &models.Service{}, autoPlan(7), &models.Server{})
	if out.Success || !strings.Contains(out.Error, "missing the client identifier") {
		t.Errorf("result = %+v", out)
	}
}

// Deleting a service with no vendor-side client is a local-only no-op.
func TestDeleteNonAutoService(t *testing.T) {
	o := New(panel.NewRegistry())
	svc := &models.Service{PreMadeItemID: 4}
	res := o.Delete(context.Background(), svc, nil, nil)
	if !res.Success {
		t.Fatalf("delete of a pre-made service failed: %s", res.Error)
	}
	if !res.Trace.Contains("nothing to clean up") {
		t.Errorf("trace = %v", res.Trace)
	}
}

func TestDeleteAutoServiceWithoutPlan(t *testing.T) {
	o := New(panel.NewRegistry())
	svc := &models.Service{ServerID: 7, ClientEmail: "buyer@example.com-1234"}
	res := o.Delete(context.Background(), svc, nil, &models.Server{PanelType: panel.TypeAlireza})
	if res.Success || !strings.Contains(res.Error, "could not be resolved") {
		t.Errorf("result = %+v", res)
	}
}

func TestTrafficMissingIdentifier(t *testing.T) {
	o := New(panel.NewRegistry())
	res := o.Traffic(context.Background(), &models.Service{}, &models.Server{PanelType: panel.TypeAlireza})
	if res.Success || !strings.Contains(res.Error, "missing the client identifier") {
		t.Errorf("result = %+v", res)
	}
}
