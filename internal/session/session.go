// Package session holds the per-conversation draft transfer. One session
// exists per phone number and lives only as long as the process.
package session

import (
	"sync"
	"time"
)

// Draft is the in-progress transfer. Each slot is nil until its setter tool
// has validated a value; setting a slot again is the correction mechanism,
// there is no undo history.
type Draft struct {
	Country              *string
	Amount               *float64
	BeneficiaryFirstname *string
	BeneficiaryLastname  *string
	PaymentMethod        *string
	DeliveryMethod       *string
}

// Complete reports whether every slot has been filled.
func (d Draft) Complete() bool {
	return d.Country != nil &&
		d.Amount != nil &&
		d.BeneficiaryFirstname != nil &&
		d.BeneficiaryLastname != nil &&
		d.PaymentMethod != nil &&
		d.DeliveryMethod != nil
}

// Session is one user's conversation state: the draft plus bookkeeping
// about the most recently executed transfer.
type Session struct {
	PhoneNumber string
	Draft       Draft

	LastConfirmationCode string
	LastTransferAmount   float64
	LastBeneficiary      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Manager hands out sessions keyed by phone number. Sessions are created on
// first touch and never persisted.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the session for a phone number, creating it if needed.
func (m *Manager) Get(phoneNumber string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(phoneNumber)
}

// Update applies fn to the session under the manager's lock, creating the
// session on first touch. All session writes go through here so concurrent
// requests for the same phone number never race.
func (m *Manager) Update(phoneNumber string, fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(phoneNumber)
	fn(s)
	s.UpdatedAt = time.Now()
}

func (m *Manager) getLocked(phoneNumber string) *Session {
	s, ok := m.sessions[phoneNumber]
	if !ok {
		now := time.Now()
		s = &Session{
			PhoneNumber: phoneNumber,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		m.sessions[phoneNumber] = s
	}
	return s
}

// End discards a session, if one exists.
func (m *Manager) End(phoneNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, phoneNumber)
}
