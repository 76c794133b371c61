package panel

import (
	"context"

	"khpanel/internal/models"
)

// marzbanAdapter is a stub. Marzban support is limited to registering the
// panel type; the connection test fails explicitly instead of pretending.
//
// TODO: implement the real test against Marzban's API: exchange admin
// credentials for a bearer token at /api/admin/token, then query /api/users
// for the online count.
type marzbanAdapter struct{}

func newMarzbanAdapter() *marzbanAdapter {
	return &marzbanAdapter{}
}

func (m *marzbanAdapter) TestConnection(_ context.Context, _ *models.Server) TestResult {
	return TestResult{Error: "connection test for Marzban panels is not implemented yet"}
}
