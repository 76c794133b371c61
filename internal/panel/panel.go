package panel

import (
	"context"
	"fmt"

	"khpanel/internal/models"
)

// Supported panel types.
const (
	TypeAlireza = "alireza-xui"
	TypeSanaei  = "sanaei"
	TypeMarzban = "marzban"
	TypeShahan  = "shahan"
)

// SupportedTypes lists every panel type the registry knows about.
func SupportedTypes() []string {
	return []string{TypeAlireza, TypeSanaei, TypeMarzban, TypeShahan}
}

// ClientSettings is the per-call request value passed to a create operation:
// a generated identity plus the plan's quota/expiry mapped onto the target
// inbound. It is never persisted.
type ClientSettings struct {
	UUID       string
	Email      string
	InboundID  string
	TotalBytes int64
	ExpiryTime int64 // unix milliseconds, vendor convention
}

// RenewRequest carries the updated quota/expiry pushed to a vendor client.
type RenewRequest struct {
	Email      string
	InboundID  string
	TotalBytes int64
	ExpiryTime int64 // unix milliseconds
}

// DeleteRequest identifies a vendor client to remove.
type DeleteRequest struct {
	Email     string
	InboundID string
}

// TrafficInfo is a read-only usage snapshot fetched from the vendor panel.
type TrafficInfo struct {
	Up         int64 `json:"up"`
	Down       int64 `json:"down"`
	Total      int64 `json:"total"`
	ExpiryTime int64 `json:"expiryTime"`
	Enable     bool  `json:"enable"`
}

// TestResult is the outcome of a connection test.
type TestResult struct {
	Success     bool
	OnlineUsers int
	Error       string
}

// CreateResult is the outcome of a client creation.
type CreateResult struct {
	Success    bool
	ConfigLink string
	Error      string
	Trace      Trace
}

// RenewResult is the outcome of a renewal. A renewal whose traffic reset
// failed still reports Success=true with the reset error surfaced in Error.
type RenewResult struct {
	Success bool
	Error   string
	Trace   Trace
}

// DeleteResult is the outcome of a deletion. Not-found is reported as
// success so deletes stay safe to retry.
type DeleteResult struct {
	Success bool
	Error   string
	Trace   Trace
}

// TrafficResult is the outcome of a usage query.
type TrafficResult struct {
	Success  bool
	NotFound bool
	Data     *TrafficInfo
	Error    string
}

// Capability interfaces. Each vendor implements the subset its API supports;
// the registry answers "not implemented" for the rest.
type (
	Tester interface {
		TestConnection(ctx context.Context, server *models.Server) TestResult
	}
	Creator interface {
		CreateClient(ctx context.Context, server *models.Server, plan *models.Plan, settings ClientSettings) CreateResult
	}
	Renewer interface {
		RenewClient(ctx context.Context, server *models.Server, req RenewRequest) RenewResult
	}
	Deleter interface {
		DeleteClient(ctx context.Context, server *models.Server, req DeleteRequest) DeleteResult
	}
	TrafficReader interface {
		ClientTraffic(ctx context.Context, server *models.Server, email string) TrafficResult
	}
)

// Registry dispatches operations to the adapter registered for a panel type.
// Unsupported (type, operation) pairs return an explicit "not implemented"
// result without any network I/O.
type Registry struct {
	testers  map[string]Tester
	creators map[string]Creator
	renewers map[string]Renewer
	deleters map[string]Deleter
	readers  map[string]TrafficReader
}

// NewRegistry builds the default registry with all built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{
		testers:  make(map[string]Tester),
		creators: make(map[string]Creator),
		renewers: make(map[string]Renewer),
		deleters: make(map[string]Deleter),
		readers:  make(map[string]TrafficReader),
	}

	alireza := newAlirezaAdapter()
	sanaei := newSanaeiAdapter()

	for typ, a := range map[string]*xuiAdapter{TypeAlireza: alireza, TypeSanaei: sanaei} {
		r.testers[typ] = a
		r.creators[typ] = a
		r.renewers[typ] = a
		r.deleters[typ] = a
		r.readers[typ] = a
	}

	r.testers[TypeMarzban] = newMarzbanAdapter()
	r.testers[TypeShahan] = newShahanAdapter()

	return r
}

func notImplemented(op, panelType string) string {
	return fmt.Sprintf("%s is not implemented for panel type %q", op, panelType)
}

// Test runs a connection test against the server's panel.
func (r *Registry) Test(ctx context.Context, server *models.Server) TestResult {
	t, ok := r.testers[server.PanelType]
	if !ok {
		return TestResult{Error: notImplemented("connection test", server.PanelType)}
	}
	return t.TestConnection(ctx, server)
}

// Create provisions a new client on the server's panel.
func (r *Registry) Create(ctx context.Context, server *models.Server, plan *models.Plan, settings ClientSettings) CreateResult {
	c, ok := r.creators[server.PanelType]
	if !ok {
		return CreateResult{Error: notImplemented("client creation", server.PanelType)}
	}
	return c.CreateClient(ctx, server, plan, settings)
}

// Renew pushes new quota and expiry to an existing client.
func (r *Registry) Renew(ctx context.Context, server *models.Server, req RenewRequest) RenewResult {
	ren, ok := r.renewers[server.PanelType]
	if !ok {
		return RenewResult{Error: notImplemented("renewal", server.PanelType)}
	}
	return ren.RenewClient(ctx, server, req)
}

// Delete removes a client from the server's panel.
func (r *Registry) Delete(ctx context.Context, server *models.Server, req DeleteRequest) DeleteResult {
	d, ok := r.deleters[server.PanelType]
	if !ok {
		return DeleteResult{Error: notImplemented("deletion", server.PanelType)}
	}
	return d.DeleteClient(ctx, server, req)
}

// Traffic fetches the usage snapshot for one client.
func (r *Registry) Traffic(ctx context.Context, server *models.Server, email string) TrafficResult {
	rd, ok := r.readers[server.PanelType]
	if !ok {
		return TrafficResult{Error: notImplemented("traffic query", server.PanelType)}
	}
	return rd.ClientTraffic(ctx, server, email)
}
