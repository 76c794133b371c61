package models

import (
	"testing"
	"time"
)

func TestAccountCanSpend(t *testing.T) {
	plain := &Account{WalletBalance: 1000}
	if !plain.CanSpend(1000) {
		t.Error("spending the exact balance must be allowed")
	}
	if plain.CanSpend(1001) {
		t.Error("overspending without an allowance must be denied")
	}

	agent := &Account{WalletBalance: 1000, AllowNegativeBalance: true, NegativeBalanceLimit: 500}
	if !agent.CanSpend(1500) {
		t.Error("spending within the negative allowance must be allowed")
	}
	if agent.CanSpend(1501) {
		t.Error("spending past the negative allowance must be denied")
	}
}

func TestServiceAutoProvisioned(t *testing.T) {
	if (&Service{ServerID: 1, ClientEmail: "x@y-1234"}).AutoProvisioned() == false {
		t.Error("service with server and client email is auto-provisioned")
	}
	if (&Service{ServerID: 1}).AutoProvisioned() {
		t.Error("service without a client email is not auto-provisioned")
	}
	if (&Service{PreMadeItemID: 3}).AutoProvisioned() {
		t.Error("pre-made service is not auto-provisioned")
	}
}

func TestCouponUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		c    Coupon
		want bool
	}{
		{"active unbounded", Coupon{Status: "active"}, true},
		{"disabled", Coupon{Status: "disabled"}, false},
		{"under usage limit", Coupon{Status: "active", UsageLimit: 5, UsedCount: 4}, true},
		{"at usage limit", Coupon{Status: "active", UsageLimit: 5, UsedCount: 5}, false},
		{"not yet expired", Coupon{Status: "active", ExpiryDate: &future}, true},
		{"expired", Coupon{Status: "active", ExpiryDate: &past}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Usable(now); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCouponApply(t *testing.T) {
	cases := []struct {
		name  string
		c     Coupon
		price int64
		want  int64
	}{
		{"20 percent", Coupon{Type: CouponPercentage, Value: 20}, 1000, 800},
		{"100 percent", Coupon{Type: CouponPercentage, Value: 100}, 1000, 0},
		{"fixed amount", Coupon{Type: CouponAmount, Value: 300}, 1000, 700},
		{"amount exceeds price", Coupon{Type: CouponAmount, Value: 1500}, 1000, 0},
		{"unknown type is a no-op", Coupon{Type: "mystery", Value: 50}, 1000, 1000},
	}
	for _, tc := range cases {
		if got := tc.c.Apply(tc.price); got != tc.want {
			t.Errorf("%s: Apply(%d) = %d, want %d", tc.name, tc.price, got, tc.want)
		}
	}
}
