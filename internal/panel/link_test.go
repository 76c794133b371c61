package panel

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGenerateLinkVless(t *testing.T) {
	link, err := GenerateLink(LinkRequest{
		Protocol: "vless",
		UUID:     "11111111-2222-3333-4444-555555555555",
		Domain:   "vpn.example.com",
		Port:     "443",
		Email:    "buyer@example.com-1234",
	})
	if err != nil {
		t.Fatalf("GenerateLink returned error: %v", err)
	}

	want := "vless://11111111-2222-3333-4444-555555555555@vpn.example.com:443" +
		"?encryption=none&security=none&type=tcp&headerType=none#buyer%40example.com-1234"
	if link != want {
		t.Errorf("vless link mismatch:\n got  %s\n want %s", link, want)
	}
}

func TestGenerateLinkVmess(t *testing.T) {
	link, err := GenerateLink(LinkRequest{
		Protocol: "vmess",
		UUID:     "abc-uuid",
		Domain:   "vpn.example.com",
		Port:     "8443",
		Remark:   "Gold Plan",
		Email:    "buyer@example.com-1234",
	})
	if err != nil {
		t.Fatalf("GenerateLink returned error: %v", err)
	}
	if !strings.HasPrefix(link, "vmess://") {
		t.Fatalf("vmess link has wrong scheme: %s", link)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(link, "vmess://"))
	if err != nil {
		t.Fatalf("vmess payload is not valid base64: %v", err)
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("vmess payload is not valid JSON: %v", err)
	}

	checks := map[string]string{
		"v":    "2",
		"ps":   "Gold Plan",
		"add":  "vpn.example.com",
		"port": "8443",
		"id":   "abc-uuid",
		"net":  "tcp",
	}
	for key, want := range checks {
		if got, _ := cfg[key].(string); got != want {
			t.Errorf("vmess field %q = %q, want %q", key, got, want)
		}
	}
}

func TestGenerateLinkTrojan(t *testing.T) {
	link, err := GenerateLink(LinkRequest{
		Protocol: "trojan",
		UUID:     "secret-pass",
		Domain:   "vpn.example.com",
		Port:     "443",
		Email:    "buyer",
	})
	if err != nil {
		t.Fatalf("GenerateLink returned error: %v", err)
	}
	want := "trojan://secret-pass@vpn.example.com:443#buyer"
	if link != want {
		t.Errorf("trojan link mismatch:\n got  %s\n want %s", link, want)
	}
}

func TestGenerateLinkRemarkSubstitution(t *testing.T) {
	link, err := GenerateLink(LinkRequest{
		Protocol: "trojan",
		UUID:     "p",
		Domain:   "d.example.com",
		Port:     "443",
		Remark:   "svc-{email}",
		Email:    "buyer",
	})
	if err != nil {
		t.Fatalf("GenerateLink returned error: %v", err)
	}
	if !strings.HasSuffix(link, "#svc-buyer") {
		t.Errorf("remark template was not substituted: %s", link)
	}
}

func TestGenerateLinkMissingDetails(t *testing.T) {
	cases := []LinkRequest{
		{Protocol: "", Domain: "d", Port: "443"},
		{Protocol: "vless", Domain: "", Port: "443"},
		{Protocol: "vless", Domain: "d", Port: ""},
	}
	for _, req := range cases {
		if _, err := GenerateLink(req); !errors.Is(err, ErrMissingLinkDetails) {
			t.Errorf("GenerateLink(%+v) error = %v, want ErrMissingLinkDetails", req, err)
		}
	}
}

func TestGenerateLinkUnsupportedProtocol(t *testing.T) {
	_, err := GenerateLink(LinkRequest{Protocol: "shadowsocks", UUID: "x", Domain: "d", Port: "443"})
	if err == nil {
		t.Fatal("expected an error for an unsupported protocol")
	}
	if errors.Is(err, ErrMissingLinkDetails) {
		t.Fatal("unsupported protocol must not be reported as missing details")
	}
}
