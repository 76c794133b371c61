package panel

import (
	"context"
	"strings"
	"testing"

	"khpanel/internal/models"
)

// Operations a panel type does not support must fail fast with a clear
// message and never touch the network. The server here has no reachable URL,
// so any accidental I/O would surface as a different error.
func TestRegistryNotImplemented(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	marzban := &models.Server{Name: "m1", PanelType: TypeMarzban}
	shahan := &models.Server{Name: "s1", PanelType: TypeShahan}
	unknown := &models.Server{Name: "u1", PanelType: "openvpn"}

	if res := r.Create(ctx, marzban, &models.Plan{}, ClientSettings{}); res.Success || !strings.Contains(res.Error, "not implemented") {
		t.Errorf("marzban create = %+v, want not-implemented error", res)
	}
	if res := r.Renew(ctx, shahan, RenewRequest{}); res.Success || !strings.Contains(res.Error, "not implemented") {
		t.Errorf("shahan renew = %+v, want not-implemented error", res)
	}
	if res := r.Delete(ctx, marzban, DeleteRequest{}); res.Success || !strings.Contains(res.Error, "not implemented") {
		t.Errorf("marzban delete = %+v, want not-implemented error", res)
	}
	if res := r.Traffic(ctx, shahan, "someone"); res.Success || !strings.Contains(res.Error, "not implemented") {
		t.Errorf("shahan traffic = %+v, want not-implemented error", res)
	}
	if res := r.Test(ctx, unknown); res.Success || !strings.Contains(res.Error, "not implemented") {
		t.Errorf("unknown type test = %+v, want not-implemented error", res)
	}
}

func TestRegistryCoversAllSupportedTypesForTest(t *testing.T) {
	r := NewRegistry()
	for _, typ := range SupportedTypes() {
		if _, ok := r.testers[typ]; !ok {
			t.Errorf("no tester registered for panel type %q", typ)
		}
	}
}

func TestTraceOrderAndPrefixes(t *testing.T) {
	var tr Trace
	tr.Infof("step %d", 1)
	tr.Warnf("careful")
	tr.Errorf("boom: %s", "reason")

	want := []string{"INFO: step 1", "WARN: careful", "ERROR: boom: reason"}
	if len(tr) != len(want) {
		t.Fatalf("trace has %d lines, want %d", len(tr), len(want))
	}
	for i, line := range want {
		if tr[i] != line {
			t.Errorf("trace[%d] = %q, want %q", i, tr[i], line)
		}
	}

	var other Trace
	other.Infof("tail")
	tr.Extend(other)
	if tr[len(tr)-1] != "INFO: tail" {
		t.Errorf("Extend did not append in order: %v", tr)
	}

	if !tr.Contains("boom") || tr.Contains("absent") {
		t.Error("Contains substring matching is wrong")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "http://1.2.3.4:2053/", want: "http://1.2.3.4:2053"},
		{in: "panel.example.com:8080", want: "http://panel.example.com:8080"},
		{in: "https://panel.example.com", want: "https://panel.example.com"},
		{in: "  ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := normalizeBaseURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("normalizeBaseURL(%q) expected an error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeBaseURL(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseInboundID(t *testing.T) {
	if got := parseInboundID("12"); got != 12 {
		t.Errorf("parseInboundID(12) = %d", got)
	}
	if got := parseInboundID(" 7 "); got != 7 {
		t.Errorf("parseInboundID with whitespace = %d", got)
	}
	if got := parseInboundID("abc"); got != 0 {
		t.Errorf("parseInboundID(abc) = %d, want 0", got)
	}
}
