package models

import (
	"fmt"
	"strings"
	"time"

	"send-money-api/internal/validation"
)

// SupportedCountries is the canonical list of transfer destinations. Inputs
// are matched case-insensitively but always stored in this exact form,
// diacritics included.
var SupportedCountries = []string{
	"México",
	"Guatemala",
	"Honduras",
	"El Salvador",
	"República Dominicana",
	"Colombia",
}

var PaymentMethods = []string{"credit_card", "debit_card", "bank_transfer"}

var DeliveryMethods = []string{"digital_wallet", "bank_account"}

// Transfer amount bounds in USD. DailyLimit doubles as the per-transfer
// ceiling: a single transfer above it fails construction before the rolling
// daily window is ever consulted.
const (
	MinAmount     = 0.5
	DailyLimit    = 1500.0
	MonthlyLimit  = 3000.0
	SemesterLimit = 18000.0
)

var methodDisplayNames = map[string]string{
	"credit_card":    "Credit Card",
	"debit_card":     "Debit Card",
	"bank_transfer":  "Bank Transfer",
	"digital_wallet": "Digital Wallet",
	"bank_account":   "Bank Account",
}

// MethodDisplayName maps a payment or delivery method ID to its human form.
func MethodDisplayName(method string) string {
	if name, ok := methodDisplayNames[method]; ok {
		return name
	}
	return method
}

// Beneficiary is the transfer recipient. No identity is persisted across
// transfers; "same recipient" is inferred at query time by name match.
type Beneficiary struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// NewBeneficiary validates and builds a beneficiary.
func NewBeneficiary(firstname, lastname string) (Beneficiary, error) {
	firstname = validation.SanitizeString(firstname)
	lastname = validation.SanitizeString(lastname)

	if err := validation.ValidateName(firstname, "firstname"); err != nil {
		return Beneficiary{}, err
	}
	if err := validation.ValidateName(lastname, "lastname"); err != nil {
		return Beneficiary{}, err
	}

	return Beneficiary{Firstname: firstname, Lastname: lastname}, nil
}

// FullName returns "Firstname Lastname".
func (b Beneficiary) FullName() string {
	return b.Firstname + " " + b.Lastname
}

// Transfer is one proposed or completed money transfer. Construction via
// NewTransfer is the single source of truth for field validation; an invalid
// combination never produces a Transfer value.
type Transfer struct {
	Beneficiary      Beneficiary `json:"beneficiary"`
	Country          string      `json:"country"`
	Amount           float64     `json:"amount"`
	PaymentMethod    string      `json:"payment_method"`
	DeliveryMethod   string      `json:"delivery_method"`
	Timestamp        time.Time   `json:"timestamp"`
	ConfirmationCode string      `json:"confirmation_code,omitempty"`
}

// NormalizeCountry resolves a country supplied in any casing to its
// canonical form. The second return reports whether the country is
// supported at all.
func NormalizeCountry(country string) (string, bool) {
	country = validation.SanitizeString(country)
	for _, supported := range SupportedCountries {
		if strings.EqualFold(supported, country) {
			return supported, true
		}
	}
	return "", false
}

// NewTransfer validates every field and builds a transfer. The country is
// stored in canonical casing regardless of input casing.
func NewTransfer(
	beneficiary Beneficiary,
	country string,
	amount float64,
	paymentMethod string,
	deliveryMethod string,
	timestamp time.Time,
) (Transfer, error) {
	canonical, ok := NormalizeCountry(country)
	if !ok {
		return Transfer{}, &validation.ValidationError{
			Field:   "country",
			Message: fmt.Sprintf("Country must be one of: %s", strings.Join(SupportedCountries, ", ")),
		}
	}

	if amount < MinAmount {
		return Transfer{}, &validation.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Amount must be at least $%g USD", MinAmount),
		}
	}
	if amount > DailyLimit {
		return Transfer{}, &validation.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Amount cannot exceed daily limit of $%g USD", DailyLimit),
		}
	}

	if !contains(PaymentMethods, paymentMethod) {
		return Transfer{}, &validation.ValidationError{
			Field:   "payment_method",
			Message: fmt.Sprintf("Payment method must be one of: %s", strings.Join(PaymentMethods, ", ")),
		}
	}

	if !contains(DeliveryMethods, deliveryMethod) {
		return Transfer{}, &validation.ValidationError{
			Field:   "delivery_method",
			Message: fmt.Sprintf("Delivery method must be one of: %s", strings.Join(DeliveryMethods, ", ")),
		}
	}

	return Transfer{
		Beneficiary:    beneficiary,
		Country:        canonical,
		Amount:         amount,
		PaymentMethod:  paymentMethod,
		DeliveryMethod: deliveryMethod,
		Timestamp:      timestamp,
	}, nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// HistoryRecord is the durable form of an executed transfer. Records are
// append-only: once written they are never mutated or deleted.
type HistoryRecord struct {
	PhoneNumber      string      `json:"phone_number"`
	Beneficiary      Beneficiary `json:"beneficiary"`
	Country          string      `json:"country"`
	Amount           float64     `json:"amount"`
	PaymentMethod    string      `json:"payment_method"`
	DeliveryMethod   string      `json:"delivery_method"`
	Timestamp        time.Time   `json:"timestamp"`
	ConfirmationCode string      `json:"confirmation_code"`
}
