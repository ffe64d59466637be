package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"send-money-api/internal/limits"
	"send-money-api/internal/models"
	"send-money-api/internal/service"
	"send-money-api/internal/validation"
)

// Handler exposes the tool operations over HTTP for the conversational
// policy to call.
type Handler struct {
	service     *service.Service
	maxBodySize int64
}

// Options holds options for creating a handler.
type Options struct {
	MaxBodySize int64
}

// DefaultOptions returns default handler options.
func DefaultOptions() Options {
	return Options{
		MaxBodySize: 1 << 20, // 1MB; tool payloads are tiny
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts Options) *Handler {
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
	}
}

// SetCountry handles POST /sessions/{phone_number}/country
func (h *Handler) SetCountry(w http.ResponseWriter, r *http.Request) {
	var req models.SetCountryRequest
	if !h.decode(w, r, &req) {
		return
	}

	country, err := h.service.SetCountry(r.Context(), phoneParam(r), req.Country)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success: true,
		Country: country,
		Message: fmt.Sprintf("Country set to %s", country),
	})
}

// SetAmount handles POST /sessions/{phone_number}/amount
func (h *Handler) SetAmount(w http.ResponseWriter, r *http.Request) {
	var req models.SetAmountRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := h.service.SetAmount(r.Context(), phoneParam(r), req.Amount)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success: true,
		Amount:  amount,
		Message: fmt.Sprintf("Amount set to $%.2f USD", amount),
	})
}

// SetBeneficiary handles POST /sessions/{phone_number}/beneficiary
func (h *Handler) SetBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req models.SetBeneficiaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	fullName, err := h.service.SetBeneficiary(r.Context(), phoneParam(r), req.Firstname, req.Lastname)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success:     true,
		Beneficiary: fullName,
		Message:     fmt.Sprintf("Beneficiary set to %s", fullName),
	})
}

// SetPaymentMethod handles POST /sessions/{phone_number}/payment-method
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req models.SetPaymentMethodRequest
	if !h.decode(w, r, &req) {
		return
	}

	method, err := h.service.SetPaymentMethod(r.Context(), phoneParam(r), req.PaymentMethod)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success:       true,
		PaymentMethod: method,
		Message:       fmt.Sprintf("Payment method set to %s", models.MethodDisplayName(method)),
	})
}

// SetDeliveryMethod handles POST /sessions/{phone_number}/delivery-method
func (h *Handler) SetDeliveryMethod(w http.ResponseWriter, r *http.Request) {
	var req models.SetDeliveryMethodRequest
	if !h.decode(w, r, &req) {
		return
	}

	method, err := h.service.SetDeliveryMethod(r.Context(), phoneParam(r), req.DeliveryMethod)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success:        true,
		DeliveryMethod: method,
		Message:        fmt.Sprintf("Delivery method set to %s", models.MethodDisplayName(method)),
	})
}

// TransferMoney handles POST /sessions/{phone_number}/transfer
func (h *Handler) TransferMoney(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.TransferMoney(
		r.Context(),
		phoneParam(r),
		req.BeneficiaryFirstname,
		req.BeneficiaryLastname,
		req.Country,
		req.Amount,
		req.PaymentMethod,
		req.DeliveryMethod,
	)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ToolResponse{
		Success:          true,
		ConfirmationCode: result.ConfirmationCode,
		Amount:           result.Amount,
		Beneficiary:      result.Beneficiary,
		Country:          result.Country,
		PaymentMethod:    result.PaymentMethod,
		DeliveryMethod:   result.DeliveryMethod,
		Message: fmt.Sprintf("Transfer of $%.2f USD to %s in %s confirmed. Confirmation code: %s",
			result.Amount, result.Beneficiary, result.Country, result.ConfirmationCode),
	})
}

// GetLimits handles GET /sessions/{phone_number}/limits
func (h *Handler) GetLimits(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetLimits(r.Context(), phoneParam(r))
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.LimitsResponse{
		Success:           true,
		DailyLimit:        snapshot.DailyLimit,
		MonthlyLimit:      snapshot.MonthlyLimit,
		SemesterLimit:     snapshot.SemesterLimit,
		DailyUsed:         snapshot.DailyUsed,
		MonthlyUsed:       snapshot.MonthlyUsed,
		SemesterUsed:      snapshot.SemesterUsed,
		DailyRemaining:    snapshot.DailyRemaining(),
		MonthlyRemaining:  snapshot.MonthlyRemaining(),
		SemesterRemaining: snapshot.SemesterRemaining(),
	})
}

// GetBeneficiaryHistory handles GET /sessions/{phone_number}/beneficiary-history
func (h *Handler) GetBeneficiaryHistory(w http.ResponseWriter, r *http.Request) {
	firstname := r.URL.Query().Get("firstname")
	lastname := r.URL.Query().Get("lastname")

	records, err := h.service.BeneficiaryHistory(r.Context(), phoneParam(r), firstname, lastname)
	if err != nil {
		h.respondToolError(w, err)
		return
	}

	if records == nil {
		records = []models.HistoryRecord{}
	}

	h.respondJSON(w, http.StatusOK, models.BeneficiaryHistoryResponse{
		Success:   true,
		Transfers: records,
	})
}

func phoneParam(r *http.Request) string {
	return validation.SanitizeString(chi.URLParam(r, "phone_number"))
}

// decode reads and parses the request body, writing the error response
// itself when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return false
	}

	return true
}

// respondToolError maps the service's typed errors onto the wire shape the
// conversational policy pattern-matches on.
func (h *Handler) respondToolError(w http.ResponseWriter, err error) {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		h.respondError(w, http.StatusBadRequest, ve.Message)
		return
	}

	var le *limits.LimitExceededError
	if errors.As(err, &le) {
		daily := le.Limits.DailyRemaining()
		monthly := le.Limits.MonthlyRemaining()
		semester := le.Limits.SemesterRemaining()
		h.respondJSON(w, http.StatusConflict, models.ErrorResponse{
			Success:           false,
			Error:             le.Reason,
			DailyRemaining:    &daily,
			MonthlyRemaining:  &monthly,
			SemesterRemaining: &semester,
		})
		return
	}

	h.respondError(w, http.StatusInternalServerError, "internal error")
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Success: false, Error: message})
}
