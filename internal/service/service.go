package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"send-money-api/internal/cache"
	"send-money-api/internal/events"
	"send-money-api/internal/features"
	"send-money-api/internal/history"
	"send-money-api/internal/limits"
	"send-money-api/internal/models"
	"send-money-api/internal/session"
	"send-money-api/internal/tracing"
	"send-money-api/internal/validation"
)

// Service is the tool layer: each method validates one concern, mutates the
// session or the history store on success, and reports a typed error on
// rejection. A rejected call leaves both session and store untouched.
type Service struct {
	store    *history.Store
	sessions *session.Manager
	cache    cache.Cache
	events   *events.Manager
	flags    *features.Manager

	now        func() time.Time
	newCode    func() string
	historyTTL time.Duration
}

// Options holds optional service configuration.
type Options struct {
	// Clock supplies "now" for limit windows and transfer timestamps.
	Clock func() time.Time
	// HistoryTTL bounds how long cached user history may serve limit checks.
	HistoryTTL time.Duration
	// Codes overrides confirmation code generation.
	Codes func() string
}

// DefaultOptions returns default service options.
func DefaultOptions() Options {
	return Options{
		Clock:      time.Now,
		HistoryTTL: 30 * time.Second,
	}
}

// NewService creates a service with default options.
func NewService(store *history.Store, sessions *session.Manager, c cache.Cache, ev *events.Manager, flags *features.Manager) *Service {
	return NewServiceWithOptions(store, sessions, c, ev, flags, DefaultOptions())
}

// NewServiceWithOptions creates a service with custom options.
func NewServiceWithOptions(store *history.Store, sessions *session.Manager, c cache.Cache, ev *events.Manager, flags *features.Manager, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = 30 * time.Second
	}
	if opts.Codes == nil {
		opts.Codes = newConfirmationCode
	}

	return &Service{
		store:      store,
		sessions:   sessions,
		cache:      c,
		events:     ev,
		flags:      flags,
		now:        opts.Clock,
		newCode:    opts.Codes,
		historyTTL: opts.HistoryTTL,
	}
}

// TransferResult echoes the executed transfer back to the caller.
type TransferResult struct {
	ConfirmationCode string
	Amount           float64
	Beneficiary      string
	Country          string
	PaymentMethod    string
	DeliveryMethod   string
}

// SetCountry validates and stages the destination country, returning its
// canonical form.
func (s *Service) SetCountry(ctx context.Context, phoneNumber, country string) (string, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return "", err
	}

	canonical, ok := models.NormalizeCountry(country)
	if !ok {
		return "", &validation.ValidationError{
			Field: "country",
			Message: fmt.Sprintf("Country '%s' is not supported. Supported countries: %s",
				country, strings.Join(models.SupportedCountries, ", ")),
		}
	}

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.Draft.Country = &canonical
	})

	s.publishSessionUpdated(ctx, phoneNumber, "country", canonical)

	return canonical, nil
}

// SetAmount validates the amount against the absolute bounds, then against
// the caller's rolling-window limits, and stages it. A limit rejection
// carries the full snapshot so remaining headroom can be surfaced.
func (s *Service) SetAmount(ctx context.Context, phoneNumber string, amount float64) (float64, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return 0, err
	}

	if amount < models.MinAmount {
		return 0, &validation.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Amount must be at least $%g USD", models.MinAmount),
		}
	}
	if amount > models.DailyLimit {
		return 0, &validation.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Amount cannot exceed daily limit of $%g USD", models.DailyLimit),
		}
	}

	snapshot := limits.NewTracker(s.userTransactions(ctx, phoneNumber), s.now()).CurrentLimits()
	if ok, reason := snapshot.CanTransfer(amount); !ok {
		if s.events != nil {
			s.events.PublishTransferRejected(ctx, phoneNumber, amount, reason)
		}
		return 0, &limits.LimitExceededError{Reason: reason, Limits: snapshot}
	}

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.Draft.Amount = &amount
	})

	s.publishSessionUpdated(ctx, phoneNumber, "amount", fmt.Sprintf("%.2f", amount))

	return amount, nil
}

// SetBeneficiary validates and stages the recipient, returning the full name.
func (s *Service) SetBeneficiary(ctx context.Context, phoneNumber, firstname, lastname string) (string, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return "", err
	}

	if validation.SanitizeString(firstname) == "" || validation.SanitizeString(lastname) == "" {
		return "", &validation.ValidationError{
			Field:   "beneficiary",
			Message: "Both first name and last name are required for beneficiary",
		}
	}

	beneficiary, err := models.NewBeneficiary(firstname, lastname)
	if err != nil {
		return "", err
	}

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.Draft.BeneficiaryFirstname = &beneficiary.Firstname
		sess.Draft.BeneficiaryLastname = &beneficiary.Lastname
	})

	s.publishSessionUpdated(ctx, phoneNumber, "beneficiary", beneficiary.FullName())

	return beneficiary.FullName(), nil
}

// SetPaymentMethod validates and stages the payment method.
func (s *Service) SetPaymentMethod(ctx context.Context, phoneNumber, paymentMethod string) (string, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return "", err
	}

	paymentMethod = validation.SanitizeString(paymentMethod)
	if !containsMethod(models.PaymentMethods, paymentMethod) {
		return "", &validation.ValidationError{
			Field: "payment_method",
			Message: fmt.Sprintf("Payment method '%s' is not supported. Supported: %s",
				paymentMethod, strings.Join(models.PaymentMethods, ", ")),
		}
	}

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.Draft.PaymentMethod = &paymentMethod
	})

	s.publishSessionUpdated(ctx, phoneNumber, "payment_method", paymentMethod)

	return paymentMethod, nil
}

// SetDeliveryMethod validates and stages the delivery method.
func (s *Service) SetDeliveryMethod(ctx context.Context, phoneNumber, deliveryMethod string) (string, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return "", err
	}

	deliveryMethod = validation.SanitizeString(deliveryMethod)
	if !containsMethod(models.DeliveryMethods, deliveryMethod) {
		return "", &validation.ValidationError{
			Field: "delivery_method",
			Message: fmt.Sprintf("Delivery method '%s' is not supported. Supported: %s",
				deliveryMethod, strings.Join(models.DeliveryMethods, ", ")),
		}
	}

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.Draft.DeliveryMethod = &deliveryMethod
	})

	s.publishSessionUpdated(ctx, phoneNumber, "delivery_method", deliveryMethod)

	return deliveryMethod, nil
}

// TransferMoney executes a transfer. Every field is re-validated by
// constructing the Transfer; staged session values are not trusted. All
// validation and the limits check happen before any mutation, so a rejected
// call leaves session and store unchanged.
func (s *Service) TransferMoney(
	ctx context.Context,
	phoneNumber string,
	firstname, lastname string,
	country string,
	amount float64,
	paymentMethod, deliveryMethod string,
) (TransferResult, error) {
	ctx, span := tracing.GetTracer().StartSpan(ctx, "service.TransferMoney")
	defer span.End()

	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return TransferResult{}, err
	}

	beneficiary, err := models.NewBeneficiary(firstname, lastname)
	if err != nil {
		return TransferResult{}, err
	}

	transfer, err := models.NewTransfer(beneficiary, country, amount, paymentMethod, deliveryMethod, s.now())
	if err != nil {
		return TransferResult{}, err
	}

	snapshot := limits.NewTracker(s.userTransactions(ctx, phoneNumber), s.now()).CurrentLimits()
	if ok, reason := snapshot.CanTransfer(transfer.Amount); !ok {
		if s.events != nil {
			s.events.PublishTransferRejected(ctx, phoneNumber, transfer.Amount, reason)
		}
		return TransferResult{}, &limits.LimitExceededError{Reason: reason, Limits: snapshot}
	}

	record := models.HistoryRecord{
		PhoneNumber:      phoneNumber,
		Beneficiary:      transfer.Beneficiary,
		Country:          transfer.Country,
		Amount:           transfer.Amount,
		PaymentMethod:    transfer.PaymentMethod,
		DeliveryMethod:   transfer.DeliveryMethod,
		Timestamp:        transfer.Timestamp,
		ConfirmationCode: s.newCode(),
	}

	record, err = s.appendRecord(record)
	if err != nil {
		return TransferResult{}, fmt.Errorf("failed to record transfer: %w", err)
	}

	s.invalidateHistory(ctx, phoneNumber)

	s.sessions.Update(phoneNumber, func(sess *session.Session) {
		sess.LastConfirmationCode = record.ConfirmationCode
		sess.LastTransferAmount = record.Amount
		sess.LastBeneficiary = record.Beneficiary.FullName()
	})

	if s.events != nil {
		s.events.PublishTransferExecuted(ctx, record)
	}

	span.SetAttributes(
		attribute.String("transfer.country", record.Country),
		attribute.Float64("transfer.amount", record.Amount),
	)

	return TransferResult{
		ConfirmationCode: record.ConfirmationCode,
		Amount:           record.Amount,
		Beneficiary:      record.Beneficiary.FullName(),
		Country:          record.Country,
		PaymentMethod:    record.PaymentMethod,
		DeliveryMethod:   record.DeliveryMethod,
	}, nil
}

// GetLimits returns the caller's current rolling-window usage snapshot.
func (s *Service) GetLimits(ctx context.Context, phoneNumber string) (limits.TransferLimits, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return limits.TransferLimits{}, err
	}

	return limits.NewTracker(s.userTransactions(ctx, phoneNumber), s.now()).CurrentLimits(), nil
}

// BeneficiaryHistory returns prior transfers to a named beneficiary, most
// recent first. Matching is case-insensitive on firstname, and on lastname
// when supplied.
func (s *Service) BeneficiaryHistory(ctx context.Context, phoneNumber, firstname, lastname string) ([]models.HistoryRecord, error) {
	if err := validation.ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}

	if s.flags != nil && !s.flags.IsEnabled(features.FeatureBeneficiarySuggestions) {
		return nil, nil
	}

	return s.store.FindBeneficiaryHistory(phoneNumber, validation.SanitizeString(firstname), validation.SanitizeString(lastname)), nil
}

// userTransactions reads the user's history, serving from cache when the
// flag allows. Limit checks tolerate the short TTL; appends invalidate.
func (s *Service) userTransactions(ctx context.Context, phoneNumber string) []models.HistoryRecord {
	if s.cacheEnabled() {
		var records []models.HistoryRecord
		if err := cache.GetJSON(ctx, s.cache, cache.UserHistoryKey(phoneNumber), &records); err == nil {
			return records
		}
	}

	records := s.store.GetUserTransactions(phoneNumber)

	if s.cacheEnabled() {
		_ = cache.SetJSON(ctx, s.cache, cache.UserHistoryKey(phoneNumber), records, s.historyTTL)
	}

	return records
}

// appendRecord writes the record to the log. Confirmation codes carry 32
// bits of entropy, so a collision with an existing row is possible; the
// unique constraint catches it and one retry with a fresh code resolves it.
func (s *Service) appendRecord(record models.HistoryRecord) (models.HistoryRecord, error) {
	err := s.store.Append(record)
	if history.IsDuplicateCode(err) {
		record.ConfirmationCode = s.newCode()
		err = s.store.Append(record)
	}
	return record, err
}

func (s *Service) invalidateHistory(ctx context.Context, phoneNumber string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.UserHistoryKey(phoneNumber))
	}
}

func (s *Service) cacheEnabled() bool {
	if s.cache == nil {
		return false
	}
	return s.flags == nil || s.flags.IsEnabled(features.FeatureCacheEnabled)
}

func (s *Service) publishSessionUpdated(ctx context.Context, phoneNumber, field, value string) {
	if s.events != nil {
		s.events.PublishSessionUpdated(ctx, phoneNumber, field, value)
	}
}

func newConfirmationCode() string {
	id := uuid.New()
	return fmt.Sprintf("TXN-%X", id[:4])
}

func containsMethod(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
