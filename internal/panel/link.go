package panel

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// LinkRequest holds everything needed to derive a shareable connection URI
// for a freshly created client.
type LinkRequest struct {
	Protocol string
	UUID     string
	Domain   string
	Port     string
	Remark   string // template; {email} is substituted with Email
	Email    string
}

type vmessConfig struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port string `json:"port"`
	ID   string `json:"id"`
	Aid  int    `json:"aid"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
	SNI  string `json:"sni"`
}

// GenerateLink builds a connection URI for the given protocol. It returns
// ErrMissingLinkDetails when protocol, domain or port are absent so callers
// can substitute a placeholder without failing the creation.
func GenerateLink(req LinkRequest) (string, error) {
	if req.Protocol == "" || req.Domain == "" || req.Port == "" {
		return "", ErrMissingLinkDetails
	}

	remark := req.Email
	if req.Remark != "" {
		remark = strings.ReplaceAll(req.Remark, "{email}", req.Email)
	}

	switch req.Protocol {
	case "vless":
		return fmt.Sprintf("vless://%s@%s:%s?encryption=none&security=none&type=tcp&headerType=none#%s",
			req.UUID, req.Domain, req.Port, url.QueryEscape(remark)), nil
	case "vmess":
		cfg := vmessConfig{
			V:    "2",
			PS:   remark,
			Add:  req.Domain,
			Port: req.Port,
			ID:   req.UUID,
			Net:  "tcp",
			Type: "none",
		}
		raw, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("marshal vmess config: %w", err)
		}
		return "vmess://" + base64.StdEncoding.EncodeToString(raw), nil
	case "trojan":
		return fmt.Sprintf("trojan://%s@%s:%s#%s",
			req.UUID, req.Domain, req.Port, url.QueryEscape(remark)), nil
	default:
		return "", fmt.Errorf("protocol %q is not supported for link generation", req.Protocol)
	}
}
