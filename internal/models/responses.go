package models

// Request/response shapes for the tool boundary. The conversational policy
// consumes these as plain structured data.

// SetCountryRequest is the body for POST /sessions/{phone}/country.
type SetCountryRequest struct {
	Country string `json:"country"`
}

// SetAmountRequest is the body for POST /sessions/{phone}/amount.
type SetAmountRequest struct {
	Amount float64 `json:"amount"`
}

// SetBeneficiaryRequest is the body for POST /sessions/{phone}/beneficiary.
type SetBeneficiaryRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// SetPaymentMethodRequest is the body for POST /sessions/{phone}/payment-method.
type SetPaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// SetDeliveryMethodRequest is the body for POST /sessions/{phone}/delivery-method.
type SetDeliveryMethodRequest struct {
	DeliveryMethod string `json:"delivery_method"`
}

// TransferRequest is the body for POST /sessions/{phone}/transfer. Every
// field is re-validated on execution; staged session values are not trusted.
type TransferRequest struct {
	BeneficiaryFirstname string  `json:"beneficiary_firstname"`
	BeneficiaryLastname  string  `json:"beneficiary_lastname"`
	Country              string  `json:"country"`
	Amount               float64 `json:"amount"`
	PaymentMethod        string  `json:"payment_method"`
	DeliveryMethod       string  `json:"delivery_method"`
}

// ToolResponse is the success payload for the setter and transfer tools.
// Only the fields relevant to the operation are populated.
type ToolResponse struct {
	Success          bool    `json:"success"`
	Message          string  `json:"message,omitempty"`
	Country          string  `json:"country,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	Beneficiary      string  `json:"beneficiary,omitempty"`
	PaymentMethod    string  `json:"payment_method,omitempty"`
	DeliveryMethod   string  `json:"delivery_method,omitempty"`
	ConfirmationCode string  `json:"confirmation_code,omitempty"`
}

// ErrorResponse is the failure payload. The remaining-limit fields are set
// only when a rolling-window limit caused the rejection.
type ErrorResponse struct {
	Success           bool     `json:"success"`
	Error             string   `json:"error"`
	DailyRemaining    *float64 `json:"daily_remaining,omitempty"`
	MonthlyRemaining  *float64 `json:"monthly_remaining,omitempty"`
	SemesterRemaining *float64 `json:"semester_remaining,omitempty"`
}

// LimitsResponse reports the caller's current rolling-window usage.
type LimitsResponse struct {
	Success           bool    `json:"success"`
	DailyLimit        float64 `json:"daily_limit"`
	MonthlyLimit      float64 `json:"monthly_limit"`
	SemesterLimit     float64 `json:"semester_limit"`
	DailyUsed         float64 `json:"daily_used"`
	MonthlyUsed       float64 `json:"monthly_used"`
	SemesterUsed      float64 `json:"semester_used"`
	DailyRemaining    float64 `json:"daily_remaining"`
	MonthlyRemaining  float64 `json:"monthly_remaining"`
	SemesterRemaining float64 `json:"semester_remaining"`
}

// BeneficiaryHistoryResponse lists prior transfers to a named beneficiary,
// most recent first.
type BeneficiaryHistoryResponse struct {
	Success   bool            `json:"success"`
	Transfers []HistoryRecord `json:"transfers"`
}
