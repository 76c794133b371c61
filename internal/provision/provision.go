package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"khpanel/internal/models"
	"khpanel/internal/panel"
	"khpanel/internal/pkg/utils"
)

// Result is the outcome of a provisioning attempt. Trace aggregates the
// orchestrator-level and adapter-level diagnostic lines in order.
type Result struct {
	Success bool
	Error   string
	Message string
	Service *models.Service
	Trace   panel.Trace
}

// RenewOutcome carries the adapter result of a renewal plus the values the
// caller must mirror into the local service record once the vendor accepted
// them.
type RenewOutcome struct {
	panel.RenewResult
	NewExpiry     time.Time
	NewTotalBytes int64
}

// Orchestrator is the top-level entry point for service fulfillment.
type Orchestrator struct {
	registry *panel.Registry
}

// New creates an orchestrator over the given adapter registry.
func New(registry *panel.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Provision fulfills a purchase. Pre-made plans short-circuit: the caller
// has already allocated the inventory item and the service data passes
// through unchanged. Auto plans create a client on the plan's server.
func (o *Orchestrator) Provision(
	ctx context.Context,
	service models.Service,
	plan *models.Plan,
	user *models.Account,
	servers []models.Server,
	clientIdentifier string,
) Result {
	switch plan.ProvisionType {
	case models.ProvisionAuto:
		return o.provisionAuto(ctx, service, plan, user, servers, clientIdentifier)
	case models.ProvisionPreMade:
		return Result{
			Success: true,
			Message: "service fulfilled from pre-made inventory",
			Service: &service,
			Trace:   panel.Trace{"INFO: pre-made provisioning; inventory item already allocated by the caller"},
		}
	default:
		return Result{
			Error: fmt.Sprintf("plan has an unknown provision type %q", plan.ProvisionType),
			Trace: panel.Trace{"ERROR: provision type is not specified in the plan"},
		}
	}
}

func (o *Orchestrator) provisionAuto(
	ctx context.Context,
	service models.Service,
	plan *models.Plan,
	user *models.Account,
	servers []models.Server,
	clientIdentifier string,
) Result {
	var trace panel.Trace
	trace.Infof("starting automatic provisioning")

	if plan.ServerID == 0 {
		trace.Errorf("no server is associated with the plan")
		return Result{Error: "no server is configured for this plan", Trace: trace}
	}
	trace.Infof("plan requires server ID %d", plan.ServerID)

	var target *models.Server
	for i := range servers {
		if servers[i].ID == plan.ServerID {
			target = &servers[i]
			break
		}
	}
	if target == nil {
		trace.Errorf("server with ID %d not found in the provided server list", plan.ServerID)
		return Result{Error: fmt.Sprintf("server configuration with ID %d was not found", plan.ServerID), Trace: trace}
	}
	trace.Infof("target server found: %s (panel type %s)", target.Name, target.PanelType)

	email := strings.TrimSpace(clientIdentifier)
	if email != "" {
		trace.Infof("using custom client identifier: %s", email)
	} else {
		email = fmt.Sprintf("%s-%d", user.Email, utils.RandomDigits(4))
		trace.Infof("no custom identifier provided, generated: %s", email)
	}

	clientUUID := uuid.NewString()
	expiry := time.Now().AddDate(0, 0, plan.DurationDays)
	totalBytes := utils.GBToBytes(float64(plan.VolumeGB))

	settings := panel.ClientSettings{
		UUID:       clientUUID,
		Email:      email,
		InboundID:  plan.InboundID,
		TotalBytes: totalBytes,
		ExpiryTime: expiry.UnixMilli(),
	}
	trace.Infof("client settings prepared: inbound %s, %d GB, expires %s",
		plan.InboundID, plan.VolumeGB, expiry.Format(time.RFC3339))

	created := o.registry.Create(ctx, target, plan, settings)
	trace.Extend(created.Trace)

	if !created.Success {
		return Result{Error: fmt.Sprintf("panel client creation failed: %s", created.Error), Trace: trace}
	}

	service.ServerID = plan.ServerID
	service.ClientEmail = email
	service.ClientUUID = clientUUID
	service.ConfigLink = created.ConfigLink
	service.ExpiresAt = expiry
	service.TotalTraffic = totalBytes

	trace.Infof("provisioning successful on server %s", target.Name)
	return Result{
		Success: true,
		Message: fmt.Sprintf("service created on server %q", target.Name),
		Service: &service,
		Trace:   trace,
	}
}

// Renew pushes a fresh expiry and quota for an existing service to its
// vendor panel. The new expiry extends the service's current expiry by the
// renewal plan's duration; quota is the plan's volume.
func (o *Orchestrator) Renew(ctx context.Context, service *models.Service, plan *models.Plan, server *models.Server) RenewOutcome {
	if service.ClientEmail == "" || plan.InboundID == "" {
		return RenewOutcome{RenewResult: panel.RenewResult{
			Error: "service is missing the client identifier or inbound ID required for renewal",
		}}
	}

	newExpiry := service.ExpiresAt.AddDate(0, 0, plan.DurationDays)
	totalBytes := utils.GBToBytes(float64(plan.VolumeGB))

	res := o.registry.Renew(ctx, server, panel.RenewRequest{
		Email:      service.ClientEmail,
		InboundID:  plan.InboundID,
		TotalBytes: totalBytes,
		ExpiryTime: newExpiry.UnixMilli(),
	})
	return RenewOutcome{RenewResult: res, NewExpiry: newExpiry, NewTotalBytes: totalBytes}
}

// Delete removes the vendor-side client of an auto-provisioned service.
// Pre-made services have nothing on a panel; their inventory item stays
// sold and is not returned to the pool.
func (o *Orchestrator) Delete(ctx context.Context, service *models.Service, plan *models.Plan, server *models.Server) panel.DeleteResult {
	if !service.AutoProvisioned() {
		return panel.DeleteResult{
			Success: true,
			Trace:   panel.Trace{"INFO: service has no vendor-side client, nothing to clean up"},
		}
	}
	if plan == nil || plan.InboundID == "" {
		return panel.DeleteResult{Error: "the service's plan or its inbound ID could not be resolved for deletion"}
	}
	return o.registry.Delete(ctx, server, panel.DeleteRequest{
		Email:     service.ClientEmail,
		InboundID: plan.InboundID,
	})
}

// Traffic fetches the current usage snapshot for a service.
func (o *Orchestrator) Traffic(ctx context.Context, service *models.Service, server *models.Server) panel.TrafficResult {
	if service.ClientEmail == "" {
		return panel.TrafficResult{Error: "service is missing the client identifier required for a traffic query"}
	}
	return o.registry.Traffic(ctx, server, service.ClientEmail)
}
