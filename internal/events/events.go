package events

import (
	"context"
	"sync"
	"time"

	"send-money-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventTransferExecuted is emitted when a transfer is executed and recorded
	EventTransferExecuted EventType = "transfer.executed"
	// EventTransferRejected is emitted when a limits check rejects an amount
	EventTransferRejected EventType = "transfer.rejected"
	// EventSessionUpdated is emitted when a setter tool writes a draft field
	EventSessionUpdated EventType = "session.updated"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// TransferExecutedData contains data for transfer executed events.
type TransferExecutedData struct {
	Record models.HistoryRecord
}

// TransferRejectedData contains data for transfer rejected events.
type TransferRejectedData struct {
	PhoneNumber string
	Amount      float64
	Reason      string
}

// SessionUpdatedData contains data for session updated events.
type SessionUpdatedData struct {
	PhoneNumber string
	Field       string
	Value       string
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if !m.enabled {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				_ = err
			}
		}(handler)
	}
}

// PublishTransferExecuted publishes a transfer executed event.
func (m *Manager) PublishTransferExecuted(ctx context.Context, record models.HistoryRecord) {
	m.Publish(ctx, EventTransferExecuted, TransferExecutedData{Record: record})
}

// PublishTransferRejected publishes a transfer rejected event.
func (m *Manager) PublishTransferRejected(ctx context.Context, phoneNumber string, amount float64, reason string) {
	m.Publish(ctx, EventTransferRejected, TransferRejectedData{
		PhoneNumber: phoneNumber,
		Amount:      amount,
		Reason:      reason,
	})
}

// PublishSessionUpdated publishes a session updated event.
func (m *Manager) PublishSessionUpdated(ctx context.Context, phoneNumber, field, value string) {
	m.Publish(ctx, EventSessionUpdated, SessionUpdatedData{
		PhoneNumber: phoneNumber,
		Field:       field,
		Value:       value,
	})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}
