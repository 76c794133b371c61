package utils

import (
	"strings"
	"testing"
)

func TestGBToBytes(t *testing.T) {
	cases := []struct {
		gb   float64
		want int64
	}{
		{0, 0},
		{1, 1 << 30},
		{50, 50 << 30},
		{0.5, 1 << 29},
	}
	for _, tc := range cases {
		if got := GBToBytes(tc.gb); got != tc.want {
			t.Errorf("GBToBytes(%v) = %d, want %d", tc.gb, got, tc.want)
		}
	}
}

func TestBytesToGB(t *testing.T) {
	if got := BytesToGB(1 << 30); got != 1 {
		t.Errorf("BytesToGB(1GiB) = %v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := RandomDigits(4)
		if n < 1000 || n > 9999 {
			t.Fatalf("RandomDigits(4) = %d, out of range", n)
		}
	}
	if n := RandomDigits(1); n < 1 || n > 9 {
		t.Errorf("RandomDigits(1) = %d", n)
	}
	if n := RandomDigits(0); n < 1 || n > 9 {
		t.Errorf("RandomDigits(0) = %d, want a single digit", n)
	}
}

func TestRandomCode(t *testing.T) {
	code := RandomCode(8)
	if len(code) != 8 {
		t.Fatalf("RandomCode(8) has length %d", len(code))
	}
	// Ambiguous characters are excluded from the charset.
	for _, forbidden := range []string{"I", "l", "O", "0", "1"} {
		if strings.Contains(code, forbidden) {
			t.Errorf("code %q contains ambiguous character %q", code, forbidden)
		}
	}
}

func TestGenerateOrderID(t *testing.T) {
	id := GenerateOrderID()
	if !strings.HasPrefix(id, "ORD-") {
		t.Errorf("order ID %q has wrong prefix", id)
	}
	if id == GenerateOrderID() {
		t.Error("two order IDs collided")
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt(" 42 ", 0); got != 42 {
		t.Errorf("ParseInt(42) = %d", got)
	}
	if got := ParseInt("nope", 7); got != 7 {
		t.Errorf("ParseInt default = %d, want 7", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{2500000, "2,500,000"},
		{-45000, "-45,000"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
