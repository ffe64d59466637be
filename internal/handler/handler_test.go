package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"send-money-api/internal/cache"
	"send-money-api/internal/events"
	"send-money-api/internal/features"
	"send-money-api/internal/history"
	"send-money-api/internal/models"
	"send-money-api/internal/service"
	"send-money-api/internal/session"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func setupTestHandler(t *testing.T) (*Handler, *history.Store) {
	t.Helper()

	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	flags := features.NewManager()
	flags.Register(features.FeatureCacheEnabled, true, "")
	flags.Register(features.FeatureBeneficiarySuggestions, true, "")

	svc := service.NewServiceWithOptions(
		store,
		session.NewManager(),
		cache.NewInMemoryCache(),
		events.NewManager(false),
		flags,
		service.Options{Clock: func() time.Time { return testNow }},
	)

	return NewHandler(svc), store
}

func setupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/sessions/{phone_number}", func(r chi.Router) {
		r.Post("/country", h.SetCountry)
		r.Post("/amount", h.SetAmount)
		r.Post("/beneficiary", h.SetBeneficiary)
		r.Post("/payment-method", h.SetPaymentMethod)
		r.Post("/delivery-method", h.SetDeliveryMethod)
		r.Post("/transfer", h.TransferMoney)
		r.Get("/limits", h.GetLimits)
		r.Get("/beneficiary-history", h.GetBeneficiaryHistory)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return r
}

func postJSON(t *testing.T, r http.Handler, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest("POST", url, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	return rr
}

func TestHealthCheck(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestSetCountry_Canonicalizes(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/country",
		models.SetCountryRequest{Country: "colombia"})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp models.ToolResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success || resp.Country != "Colombia" {
		t.Errorf("Expected canonical 'Colombia', got %+v", resp)
	}
}

func TestSetCountry_Unsupported(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/country",
		models.SetCountryRequest{Country: "France"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Success || !strings.Contains(resp.Error, "not supported") {
		t.Errorf("Expected not-supported error, got %+v", resp)
	}
}

func TestSetAmount_BelowMinimum(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/amount",
		models.SetAmountRequest{Amount: 0.3})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(resp.Error, "0.5") {
		t.Errorf("Expected error to mention the minimum, got %q", resp.Error)
	}
}

func TestSetAmount_LimitRejectionCarriesRemaining(t *testing.T) {
	h, store := setupTestHandler(t)
	r := setupRouter(h)

	err := store.Append(models.HistoryRecord{
		PhoneNumber:      "+15550001111",
		Beneficiary:      models.Beneficiary{Firstname: "Gloria", Lastname: "Saavedra"},
		Country:          "Colombia",
		Amount:           1000.0,
		PaymentMethod:    "bank_transfer",
		DeliveryMethod:   "bank_account",
		Timestamp:        testNow.Add(-5 * time.Hour),
		ConfirmationCode: "TXN-SEED0001",
	})
	if err != nil {
		t.Fatalf("Failed to seed transfer: %v", err)
	}

	rr := postJSON(t, r, "/sessions/+15550001111/amount",
		models.SetAmountRequest{Amount: 600.0})

	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(resp.Error, "daily") {
		t.Errorf("Expected daily rejection, got %q", resp.Error)
	}
	if resp.DailyRemaining == nil || *resp.DailyRemaining != 500.0 {
		t.Errorf("Expected daily_remaining 500.0, got %v", resp.DailyRemaining)
	}
	if resp.MonthlyRemaining == nil || *resp.MonthlyRemaining != 2000.0 {
		t.Errorf("Expected monthly_remaining 2000.0, got %v", resp.MonthlyRemaining)
	}
}

func TestTransferMoney_Flow(t *testing.T) {
	h, store := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/transfer", models.TransferRequest{
		BeneficiaryFirstname: "John",
		BeneficiaryLastname:  "Matthews",
		Country:              "colombia",
		Amount:               250.0,
		PaymentMethod:        "credit_card",
		DeliveryMethod:       "digital_wallet",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp models.ToolResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success || !strings.HasPrefix(resp.ConfirmationCode, "TXN-") {
		t.Errorf("Expected confirmation code, got %+v", resp)
	}
	if resp.Country != "Colombia" {
		t.Errorf("Expected canonical country in response, got %q", resp.Country)
	}

	if records := store.LoadAll(); len(records) != 1 {
		t.Errorf("Expected 1 record appended, got %d", len(records))
	}

	// The executed transfer shows up in limits and beneficiary history.
	req := httptest.NewRequest("GET", "/sessions/+15550001111/limits", nil)
	lr := httptest.NewRecorder()
	r.ServeHTTP(lr, req)

	var limitsResp models.LimitsResponse
	if err := json.Unmarshal(lr.Body.Bytes(), &limitsResp); err != nil {
		t.Fatalf("Failed to parse limits response: %v", err)
	}
	if limitsResp.DailyUsed != 250.0 {
		t.Errorf("Expected daily used 250.0, got %v", limitsResp.DailyUsed)
	}

	req = httptest.NewRequest("GET", "/sessions/+15550001111/beneficiary-history?firstname=john&lastname=MATTHEWS", nil)
	hr := httptest.NewRecorder()
	r.ServeHTTP(hr, req)

	var historyResp models.BeneficiaryHistoryResponse
	if err := json.Unmarshal(hr.Body.Bytes(), &historyResp); err != nil {
		t.Fatalf("Failed to parse history response: %v", err)
	}
	if len(historyResp.Transfers) != 1 {
		t.Errorf("Expected 1 beneficiary history match, got %d", len(historyResp.Transfers))
	}
}

func TestTransferMoney_UnsupportedCountry(t *testing.T) {
	h, store := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/transfer", models.TransferRequest{
		BeneficiaryFirstname: "John",
		BeneficiaryLastname:  "Matthews",
		Country:              "France",
		Amount:               250.0,
		PaymentMethod:        "credit_card",
		DeliveryMethod:       "digital_wallet",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(resp.Error, "Country") {
		t.Errorf("Expected error to mention country, got %q", resp.Error)
	}

	if records := store.LoadAll(); len(records) != 0 {
		t.Errorf("Rejected transfer must not be recorded, got %d records", len(records))
	}
}

func TestSetBeneficiary_MissingBody(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	req := httptest.NewRequest("POST", "/sessions/+15550001111/beneficiary", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing body, got %d", rr.Code)
	}
}

func TestSetPaymentMethod_DisplayName(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupRouter(h)

	rr := postJSON(t, r, "/sessions/+15550001111/payment-method",
		models.SetPaymentMethodRequest{PaymentMethod: "bank_transfer"})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp models.ToolResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.PaymentMethod != "bank_transfer" {
		t.Errorf("Expected method echoed back, got %q", resp.PaymentMethod)
	}
	if !strings.Contains(resp.Message, "Bank Transfer") {
		t.Errorf("Expected display name in message, got %q", resp.Message)
	}
}
