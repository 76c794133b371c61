package panel

import (
	"context"
	"encoding/json"
	"fmt"

	"khpanel/internal/models"
	"khpanel/internal/pkg/httpclient"
)

// shahanAdapter probes Shahan panels. Shahan uses token auth: the server's
// password field carries the API token, sent as an x-access-token header.
// Only the connection test is supported.
type shahanAdapter struct {
	client *httpclient.Client
}

func newShahanAdapter() *shahanAdapter {
	return &shahanAdapter{client: httpclient.NewPanel()}
}

type shahanStatus struct {
	Status bool `json:"status"`
}

type shahanUsers struct {
	Users []struct {
		Username string `json:"username"`
		Online   int    `json:"online"`
	} `json:"users"`
}

// TestConnection checks the root status endpoint and counts online users.
func (s *shahanAdapter) TestConnection(ctx context.Context, server *models.Server) TestResult {
	if server.PanelURL == "" || server.PanelPass == "" {
		return TestResult{Error: "server connection details (panel URL and API token in the password field) are incomplete"}
	}

	base, err := normalizeBaseURL(server.PanelURL)
	if err != nil {
		return TestResult{Error: err.Error()}
	}

	req := func() map[string]string {
		return map[string]string{"x-access-token": server.PanelPass}
	}

	statusResp, err := s.client.Request().
		SetContext(ctx).
		SetHeaders(req()).
		Get(base + "/")
	if err != nil {
		return TestResult{Error: classifyNetworkError(err, server.PanelURL)}
	}
	if !statusResp.IsSuccess() {
		return TestResult{Error: fmt.Sprintf("panel responded with status %d; check the URL and API token", statusResp.StatusCode())}
	}

	var st shahanStatus
	if err := json.Unmarshal(statusResp.Body(), &st); err != nil {
		return TestResult{Error: "panel returned an invalid status response"}
	}
	if !st.Status {
		return TestResult{Error: "API token is invalid or the panel reported a failure"}
	}

	usersResp, err := s.client.Request().
		SetContext(ctx).
		SetHeaders(req()).
		Get(base + "/users")
	if err != nil {
		return TestResult{Error: classifyNetworkError(err, server.PanelURL)}
	}
	if !usersResp.IsSuccess() {
		return TestResult{Error: fmt.Sprintf("connected, but the user list request failed (status %d)", usersResp.StatusCode())}
	}

	var users shahanUsers
	if err := json.Unmarshal(usersResp.Body(), &users); err != nil {
		return TestResult{Error: "panel returned an invalid user list"}
	}

	online := 0
	for _, u := range users.Users {
		if u.Online == 1 {
			online++
		}
	}
	return TestResult{Success: true, OnlineUsers: online}
}
