package models

import (
	"strings"
	"testing"
	"time"
)

func validTransferArgs() (Beneficiary, string, float64, string, string, time.Time) {
	b := Beneficiary{Firstname: "John", Lastname: "Doe"}
	return b, "México", 100.0, "credit_card", "digital_wallet",
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
}

func TestNewBeneficiary(t *testing.T) {
	b, err := NewBeneficiary("John", "Matthews")
	if err != nil {
		t.Fatalf("NewBeneficiary failed: %v", err)
	}

	if b.FullName() != "John Matthews" {
		t.Errorf("Expected full name 'John Matthews', got %q", b.FullName())
	}
}

func TestNewBeneficiary_MissingNames(t *testing.T) {
	if _, err := NewBeneficiary("", "Matthews"); err == nil {
		t.Error("Expected error for empty firstname")
	}

	if _, err := NewBeneficiary("John", ""); err == nil {
		t.Error("Expected error for empty lastname")
	}

	// Whitespace-only names are empty after sanitizing.
	if _, err := NewBeneficiary("   ", "Matthews"); err == nil {
		t.Error("Expected error for whitespace firstname")
	}
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input     string
		canonical string
		supported bool
	}{
		{"colombia", "Colombia", true},
		{"COLOMBIA", "Colombia", true},
		{"méxico", "México", true},
		{"el salvador", "El Salvador", true},
		{"república dominicana", "República Dominicana", true},
		{"France", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		canonical, ok := NormalizeCountry(tt.input)
		if ok != tt.supported {
			t.Errorf("NormalizeCountry(%q): expected supported=%v, got %v", tt.input, tt.supported, ok)
			continue
		}
		if canonical != tt.canonical {
			t.Errorf("NormalizeCountry(%q): expected %q, got %q", tt.input, tt.canonical, canonical)
		}
	}
}

func TestNewTransfer_CanonicalizesCountry(t *testing.T) {
	b, _, amount, pm, dm, ts := validTransferArgs()

	transfer, err := NewTransfer(b, "colombia", amount, pm, dm, ts)
	if err != nil {
		t.Fatalf("NewTransfer failed: %v", err)
	}

	if transfer.Country != "Colombia" {
		t.Errorf("Expected canonical country 'Colombia', got %q", transfer.Country)
	}
}

func TestNewTransfer_UnsupportedCountry(t *testing.T) {
	b, _, amount, pm, dm, ts := validTransferArgs()

	_, err := NewTransfer(b, "France", amount, pm, dm, ts)
	if err == nil {
		t.Fatal("Expected error for unsupported country")
	}
	if !strings.Contains(err.Error(), "Country") {
		t.Errorf("Expected error to mention country, got %q", err.Error())
	}
}

func TestNewTransfer_AmountBelowMinimum(t *testing.T) {
	b, country, _, pm, dm, ts := validTransferArgs()

	_, err := NewTransfer(b, country, 0.3, pm, dm, ts)
	if err == nil {
		t.Fatal("Expected error for amount below minimum")
	}
	if !strings.Contains(err.Error(), "0.5") {
		t.Errorf("Expected error to mention the minimum, got %q", err.Error())
	}
}

func TestNewTransfer_AmountAboveDailyCeiling(t *testing.T) {
	b, country, _, pm, dm, ts := validTransferArgs()

	// The per-transfer ceiling rejects at construction, before any rolling
	// window is consulted.
	_, err := NewTransfer(b, country, 1600.0, pm, dm, ts)
	if err == nil {
		t.Fatal("Expected error for amount above daily limit")
	}
	if !strings.Contains(err.Error(), "daily limit") {
		t.Errorf("Expected error to mention the daily limit, got %q", err.Error())
	}
}

func TestNewTransfer_AmountAtBounds(t *testing.T) {
	b, country, _, pm, dm, ts := validTransferArgs()

	if _, err := NewTransfer(b, country, MinAmount, pm, dm, ts); err != nil {
		t.Errorf("Expected amount at minimum to pass, got %v", err)
	}

	if _, err := NewTransfer(b, country, DailyLimit, pm, dm, ts); err != nil {
		t.Errorf("Expected amount at daily limit to pass, got %v", err)
	}
}

func TestNewTransfer_InvalidMethods(t *testing.T) {
	b, country, amount, pm, dm, ts := validTransferArgs()

	if _, err := NewTransfer(b, country, amount, "cash", dm, ts); err == nil {
		t.Error("Expected error for unsupported payment method")
	}

	if _, err := NewTransfer(b, country, amount, pm, "carrier_pigeon", ts); err == nil {
		t.Error("Expected error for unsupported delivery method")
	}
}

func TestMethodDisplayName(t *testing.T) {
	if name := MethodDisplayName("credit_card"); name != "Credit Card" {
		t.Errorf("Expected 'Credit Card', got %q", name)
	}
	if name := MethodDisplayName("unknown_method"); name != "unknown_method" {
		t.Errorf("Expected passthrough for unknown method, got %q", name)
	}
}
