package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"khpanel/internal/models"
	"khpanel/internal/pkg/httpclient"
)

// xuiAdapter talks to X-UI-family panels. The Alireza fork and the Sanaei
// (3x-ui) fork expose the same API and differ only in the path prefix, so
// both panel types share this implementation.
//
// Every operation authenticates from scratch; the session cookie is carried
// only through the call chain that obtained it and never cached. Production
// deployments with many services on one server may eventually want a
// short-lived per-server session cache here.
type xuiAdapter struct {
	typ     string
	apiBase string
	client  *httpclient.Client
}

func newAlirezaAdapter() *xuiAdapter {
	return &xuiAdapter{typ: TypeAlireza, apiBase: "xui/API/inbounds", client: httpclient.NewPanel()}
}

func newSanaeiAdapter() *xuiAdapter {
	return &xuiAdapter{typ: TypeSanaei, apiBase: "panel/api/inbounds", client: httpclient.NewPanel()}
}

// envelope is the {success, msg, obj} wrapper X-UI panels put around every
// response.
type envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("panel URL is empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("panel URL %q is not valid", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// login authenticates against the panel and returns the normalized base URL
// plus the session cookie. A non-empty errMsg means the chain must stop; the
// message already names the failure class (network, HTTP status, parse,
// credentials, missing cookie).
func (x *xuiAdapter) login(ctx context.Context, server *models.Server, trace *Trace) (base, cookie, errMsg string) {
	trace.Infof("logging in to server %s (%s)", server.Name, server.PanelURL)

	if server.PanelURL == "" || server.PanelUser == "" || server.PanelPass == "" {
		trace.Errorf("server connection details (URL, username, password) are incomplete")
		return "", "", "server connection details (URL, username, password) are incomplete"
	}

	base, err := normalizeBaseURL(server.PanelURL)
	if err != nil {
		trace.Errorf("invalid panel URL: %v", err)
		return "", "", err.Error()
	}

	resp, err := x.client.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"username": server.PanelUser,
			"password": server.PanelPass,
		}).
		Post(base + "/login")
	if err != nil {
		msg := classifyNetworkError(err, server.PanelURL)
		trace.Errorf("login request failed: %v", err)
		return "", "", msg
	}
	if !resp.IsSuccess() {
		trace.Errorf("login request returned status %d", resp.StatusCode())
		return "", "", fmt.Sprintf("login request failed with status %d", resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		trace.Errorf("login response is not valid JSON: %.150s", string(resp.Body()))
		return "", "", "panel returned an invalid login response"
	}
	if !env.Success {
		trace.Errorf("login rejected: %s", env.Msg)
		if env.Msg != "" {
			return "", "", env.Msg
		}
		return "", "", "panel username or password is incorrect"
	}

	cookie = resp.Header().Get("Set-Cookie")
	if cookie == "" {
		trace.Errorf("login succeeded but no session cookie was received")
		return "", "", "no session cookie received after login"
	}

	trace.Infof("login successful, session cookie obtained")
	return base, cookie, ""
}

func (x *xuiAdapter) api(ctx context.Context, cookie string) *requestBuilder {
	return &requestBuilder{adapter: x, ctx: ctx, cookie: cookie}
}

// requestBuilder keeps the per-call session cookie on every request of one
// operation chain.
type requestBuilder struct {
	adapter *xuiAdapter
	ctx     context.Context
	cookie  string
}

func (b *requestBuilder) get(fullURL string) (*envelope, int, error) {
	resp, err := b.adapter.client.Request().
		SetContext(b.ctx).
		SetHeader("Cookie", b.cookie).
		Get(fullURL)
	if err != nil {
		return nil, 0, err
	}
	var env envelope
	if uErr := json.Unmarshal(resp.Body(), &env); uErr != nil {
		return nil, resp.StatusCode(), fmt.Errorf("invalid JSON response: %w", uErr)
	}
	return &env, resp.StatusCode(), nil
}

func (b *requestBuilder) post(fullURL string, body interface{}) (*envelope, int, error) {
	req := b.adapter.client.Request().
		SetContext(b.ctx).
		SetHeader("Cookie", b.cookie)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Post(fullURL)
	if err != nil {
		return nil, 0, err
	}
	var env envelope
	if uErr := json.Unmarshal(resp.Body(), &env); uErr != nil {
		return nil, resp.StatusCode(), fmt.Errorf("invalid JSON response: %w", uErr)
	}
	return &env, resp.StatusCode(), nil
}

// TestConnection authenticates and queries the online-clients endpoint.
func (x *xuiAdapter) TestConnection(ctx context.Context, server *models.Server) TestResult {
	var trace Trace
	base, cookie, errMsg := x.login(ctx, server, &trace)
	if errMsg != "" {
		return TestResult{Error: errMsg}
	}

	env, status, err := x.api(ctx, cookie).post(base+"/"+x.apiBase+"/onlines", nil)
	if err != nil {
		return TestResult{Error: classifyNetworkError(err, server.PanelURL)}
	}
	if status < 200 || status > 299 {
		return TestResult{Error: fmt.Sprintf("online clients request failed with status %d", status)}
	}
	if !env.Success {
		return TestResult{Error: fmt.Sprintf("online clients API error: %s", env.Msg)}
	}

	return TestResult{Success: true, OnlineUsers: countOnline(env.Obj)}
}

// countOnline counts entries in the onlines payload, which is a list of
// client emails on recent panels and a keyed object on older ones.
func countOnline(obj json.RawMessage) int {
	if len(obj) == 0 {
		return 0
	}
	var list []interface{}
	if err := json.Unmarshal(obj, &list); err == nil {
		return len(list)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(obj, &m); err == nil {
		return len(m)
	}
	return 0
}

// CreateClient creates a client under the plan's inbound and derives its
// connection link. Link generation is best effort: a client that exists on
// the panel but cannot get a link still counts as a successful creation.
func (x *xuiAdapter) CreateClient(ctx context.Context, server *models.Server, plan *models.Plan, settings ClientSettings) CreateResult {
	var trace Trace
	base, cookie, errMsg := x.login(ctx, server, &trace)
	if errMsg != "" {
		return CreateResult{Error: errMsg, Trace: trace}
	}

	trace.Infof("creating client %s on inbound %s", settings.Email, settings.InboundID)

	clientSettings := map[string]interface{}{
		"clients": []map[string]interface{}{
			{
				"id":         settings.UUID,
				"email":      settings.Email,
				"totalGB":    settings.TotalBytes,
				"expiryTime": settings.ExpiryTime,
				"enable":     true,
				"flow":       "",
				"limitIp":    0,
				"tgId":       "",
				"subId":      "",
			},
		},
	}
	settingsJSON, _ := json.Marshal(clientSettings)
	payload := map[string]interface{}{
		"id":       parseInboundID(settings.InboundID),
		"settings": string(settingsJSON),
	}

	env, status, err := x.api(ctx, cookie).post(base+"/"+x.apiBase+"/addClient/", payload)
	if err != nil {
		trace.Errorf("add client request failed: %v", err)
		return CreateResult{Error: classifyNetworkError(err, server.PanelURL), Trace: trace}
	}
	if status < 200 || status > 299 {
		trace.Errorf("add client request returned status %d", status)
		return CreateResult{Error: fmt.Sprintf("add client request failed with status %d", status), Trace: trace}
	}
	if !env.Success {
		trace.Errorf("panel rejected client creation: %s", env.Msg)
		if env.Msg == "" {
			env.Msg = "panel rejected the client creation"
		}
		return CreateResult{Error: env.Msg, Trace: trace}
	}
	trace.Infof("client created on panel")

	domain := plan.ConnectionDomain
	if domain == "" {
		domain = server.PublicDomain
	}
	if domain == "" {
		if u, pErr := url.Parse(base); pErr == nil {
			domain = u.Hostname()
		}
	}
	port := plan.ConnectionPort
	if port == "" {
		port = server.PublicPort
	}

	link, linkErr := GenerateLink(LinkRequest{
		Protocol: plan.Protocol,
		UUID:     settings.UUID,
		Domain:   domain,
		Port:     port,
		Remark:   plan.Remark,
		Email:    settings.Email,
	})
	if linkErr != nil {
		trace.Warnf("client created, but link generation skipped: %v", linkErr)
		return CreateResult{
			Success:    true,
			ConfigLink: MissingLinkMessage,
			Trace:      trace,
		}
	}

	trace.Infof("connection link generated for protocol %s", plan.Protocol)
	return CreateResult{Success: true, ConfigLink: link, Trace: trace}
}

// MissingLinkMessage replaces the connection link when the plan or server
// lacks the fields needed to build one. The vendor-side client still exists.
const MissingLinkMessage = "client created, but the plan or server is missing connection link details"

// lookupClient resolves a client's vendor-internal record by its email via
// the inbound detail endpoint. found=false with empty errMsg means the
// client simply is not there.
func (x *xuiAdapter) lookupClient(ctx context.Context, cookie, base, inboundID, email string, trace *Trace) (client map[string]interface{}, found bool, errMsg string) {
	env, status, err := x.api(ctx, cookie).get(base + "/" + x.apiBase + "/get/" + inboundID)
	if err != nil {
		trace.Errorf("inbound lookup failed: %v", err)
		return nil, false, fmt.Sprintf("could not fetch inbound %s: %v", inboundID, err)
	}
	if status < 200 || status > 299 {
		trace.Errorf("inbound lookup returned status %d", status)
		return nil, false, fmt.Sprintf("inbound lookup failed with status %d", status)
	}
	if !env.Success || len(env.Obj) == 0 {
		trace.Errorf("inbound lookup rejected: %s", env.Msg)
		return nil, false, fmt.Sprintf("no valid inbound object received: %s", env.Msg)
	}

	var inbound struct {
		Settings string `json:"settings"`
	}
	if err := json.Unmarshal(env.Obj, &inbound); err != nil {
		trace.Errorf("inbound object is malformed: %v", err)
		return nil, false, "inbound object is malformed"
	}

	var parsed struct {
		Clients []map[string]interface{} `json:"clients"`
	}
	if err := json.Unmarshal([]byte(inbound.Settings), &parsed); err != nil {
		trace.Errorf("inbound settings are malformed: %v", err)
		return nil, false, "inbound settings are malformed"
	}

	for _, c := range parsed.Clients {
		if strings.EqualFold(asString(c["email"]), email) {
			return c, true, ""
		}
	}
	return nil, false, ""
}

// RenewClient pushes new quota and expiry to an existing client, then resets
// its traffic counter. The reset is a soft failure: the expiry update has
// already been applied and is billing relevant, so a failed reset downgrades
// to a surfaced warning instead of undoing the renewal. (Delete takes the
// opposite stance and treats not-found as success; both behaviors are
// intentional.)
func (x *xuiAdapter) RenewClient(ctx context.Context, server *models.Server, req RenewRequest) RenewResult {
	var trace Trace
	base, cookie, errMsg := x.login(ctx, server, &trace)
	if errMsg != "" {
		return RenewResult{Error: errMsg, Trace: trace}
	}

	trace.Infof("renewing client %s on inbound %s", req.Email, req.InboundID)

	client, found, lookupErr := x.lookupClient(ctx, cookie, base, req.InboundID, req.Email, &trace)
	if lookupErr != "" {
		return RenewResult{Error: lookupErr, Trace: trace}
	}
	if !found {
		trace.Errorf("client %s not found in inbound %s", req.Email, req.InboundID)
		return RenewResult{Error: ErrClientNotFound.Error(), Trace: trace}
	}

	clientID := asString(client["id"])
	update := map[string]interface{}{
		"clients": []map[string]interface{}{
			{
				"id":         clientID,
				"email":      req.Email,
				"enable":     true,
				"totalGB":    req.TotalBytes,
				"expiryTime": req.ExpiryTime,
				"flow":       asString(client["flow"]),
				"limitIp":    client["limitIp"],
				"tgId":       client["tgId"],
				"subId":      client["subId"],
			},
		},
	}
	updateJSON, _ := json.Marshal(update)
	payload := map[string]interface{}{
		"id":       parseInboundID(req.InboundID),
		"settings": string(updateJSON),
	}

	env, status, err := x.api(ctx, cookie).post(base+"/"+x.apiBase+"/updateClient/"+clientID, payload)
	if err != nil {
		trace.Errorf("update client request failed: %v", err)
		return RenewResult{Error: classifyNetworkError(err, server.PanelURL), Trace: trace}
	}
	if status < 200 || status > 299 {
		trace.Errorf("update client request returned status %d", status)
		return RenewResult{Error: fmt.Sprintf("update client request failed with status %d", status), Trace: trace}
	}
	if !env.Success {
		trace.Errorf("panel rejected client update: %s", env.Msg)
		return RenewResult{Error: fmt.Sprintf("panel rejected the renewal: %s", env.Msg), Trace: trace}
	}
	trace.Infof("client %s updated, resetting traffic", req.Email)

	resetURL := fmt.Sprintf("%s/%s/%s/resetClientTraffic/%s", base, x.apiBase, req.InboundID, req.Email)
	resetEnv, resetStatus, resetErr := x.api(ctx, cookie).post(resetURL, nil)
	switch {
	case resetErr != nil:
		trace.Errorf("traffic reset failed after a successful update: %v", resetErr)
		return RenewResult{Success: true, Error: fmt.Sprintf("traffic was not reset: %v", resetErr), Trace: trace}
	case resetStatus < 200 || resetStatus > 299:
		trace.Errorf("traffic reset returned status %d after a successful update", resetStatus)
		return RenewResult{Success: true, Error: fmt.Sprintf("traffic was not reset (status %d)", resetStatus), Trace: trace}
	case !resetEnv.Success:
		trace.Errorf("traffic reset rejected after a successful update: %s", resetEnv.Msg)
		return RenewResult{Success: true, Error: fmt.Sprintf("traffic was not reset: %s", resetEnv.Msg), Trace: trace}
	}

	trace.Infof("traffic reset for client %s, renewal complete", req.Email)
	return RenewResult{Success: true, Trace: trace}
}

// DeleteClient removes a client from its inbound. A client that is already
// gone satisfies the deletion intent, so not-found reports success with an
// informational note; this keeps deletes safe to retry.
func (x *xuiAdapter) DeleteClient(ctx context.Context, server *models.Server, req DeleteRequest) DeleteResult {
	var trace Trace
	base, cookie, errMsg := x.login(ctx, server, &trace)
	if errMsg != "" {
		return DeleteResult{Error: errMsg, Trace: trace}
	}

	trace.Infof("deleting client %s from inbound %s", req.Email, req.InboundID)

	client, found, lookupErr := x.lookupClient(ctx, cookie, base, req.InboundID, req.Email, &trace)
	if lookupErr != "" {
		trace.Warnf("could not inspect inbound to locate client: %s", lookupErr)
	}
	if !found {
		trace.Warnf("client %s not found in inbound %s; it may have been already deleted", req.Email, req.InboundID)
		return DeleteResult{
			Success: true,
			Error:   "client was not found on the panel (it may have been already deleted)",
			Trace:   trace,
		}
	}

	clientID := asString(client["id"])
	deleteURL := fmt.Sprintf("%s/%s/%s/delClient/%s", base, x.apiBase, req.InboundID, clientID)
	env, status, err := x.api(ctx, cookie).post(deleteURL, nil)
	if err != nil {
		trace.Errorf("delete client request failed: %v", err)
		return DeleteResult{Error: classifyNetworkError(err, server.PanelURL), Trace: trace}
	}
	if status < 200 || status > 299 {
		trace.Errorf("delete client request returned status %d", status)
		return DeleteResult{Error: fmt.Sprintf("delete client request failed with status %d", status), Trace: trace}
	}
	if !env.Success {
		trace.Errorf("panel rejected client deletion: %s", env.Msg)
		return DeleteResult{Error: fmt.Sprintf("panel rejected the deletion: %s", env.Msg), Trace: trace}
	}

	trace.Infof("client %s deleted", req.Email)
	return DeleteResult{Success: true, Trace: trace}
}

// ClientTraffic fetches the usage snapshot for one client by email.
func (x *xuiAdapter) ClientTraffic(ctx context.Context, server *models.Server, email string) TrafficResult {
	var trace Trace
	base, cookie, errMsg := x.login(ctx, server, &trace)
	if errMsg != "" {
		return TrafficResult{Error: errMsg}
	}

	env, status, err := x.api(ctx, cookie).get(base + "/" + x.apiBase + "/getClientTraffics/" + email)
	if err != nil {
		return TrafficResult{Error: classifyNetworkError(err, server.PanelURL)}
	}
	if status < 200 || status > 299 {
		return TrafficResult{Error: fmt.Sprintf("traffic request failed with status %d", status)}
	}
	if !env.Success {
		return TrafficResult{Error: fmt.Sprintf("traffic API error: %s", env.Msg)}
	}
	if len(env.Obj) == 0 || string(env.Obj) == "null" {
		return TrafficResult{NotFound: true, Error: ErrClientNotFound.Error()}
	}

	var info TrafficInfo
	if err := json.Unmarshal(env.Obj, &info); err != nil {
		return TrafficResult{Error: "traffic payload is malformed"}
	}
	return TrafficResult{Success: true, Data: &info}
}

func parseInboundID(id string) int {
	n := 0
	for _, r := range strings.TrimSpace(id) {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
