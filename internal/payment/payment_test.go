package payment

import (
	"context"
	"testing"
)

type stubGateway struct{ name string }

func (s *stubGateway) Name() string { return s.name }
func (s *stubGateway) CreatePayment(context.Context, int64, string, string, string) (*PaymentResult, error) {
	return &PaymentResult{}, nil
}
func (s *stubGateway) VerifyPayment(context.Context, string, int64) (*VerifyResult, error) {
	return &VerifyResult{}, nil
}

func TestGatewaysGet(t *testing.T) {
	gws := Gateways{}
	zp := &stubGateway{name: "zarinpal"}
	gws[zp.Name()] = zp

	if got, ok := gws.Get("zarinpal"); !ok || got != Gateway(zp) {
		t.Errorf("Get(zarinpal) = %v, %v", got, ok)
	}
	if _, ok := gws.Get("zibal"); ok {
		t.Error("unconfigured gateway must not be found")
	}
}

func TestGatewayNames(t *testing.T) {
	if NewZarinPalGateway("m", false).Name() != "zarinpal" {
		t.Error("zarinpal name mismatch")
	}
	if NewZibalGateway("m").Name() != "zibal" {
		t.Error("zibal name mismatch")
	}
}

func TestZarinPalBaseURLs(t *testing.T) {
	if NewZarinPalGateway("m", true).baseURL() != "https://sandbox.zarinpal.com" {
		t.Error("sandbox base URL mismatch")
	}
	if NewZarinPalGateway("m", false).baseURL() != "https://api.zarinpal.com" {
		t.Error("production base URL mismatch")
	}
}
