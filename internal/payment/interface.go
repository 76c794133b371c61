package payment

import "context"

// PaymentResult contains the result of a payment creation.
type PaymentResult struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Authority  string `json:"authority,omitempty"`
}

// VerifyResult contains the result of a payment verification.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	RefID    string `json:"ref_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Gateway defines the interface for payment gateway implementations.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string

	// CreatePayment initiates a new payment.
	CreatePayment(ctx context.Context, amount int64, orderID, description, callbackURL string) (*PaymentResult, error)

	// VerifyPayment verifies a payment after callback.
	VerifyPayment(ctx context.Context, authority string, amount int64) (*VerifyResult, error)
}

// Gateways indexes configured gateways by name.
type Gateways map[string]Gateway

// Get returns the gateway with the given name.
func (g Gateways) Get(name string) (Gateway, bool) {
	gw, ok := g[name]
	return gw, ok
}
