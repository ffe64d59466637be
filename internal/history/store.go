// Package history is the append-only durable log of executed transfers.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"send-money-api/internal/models"
)

// Store wraps the sqlite connection holding the transfer log. Records are
// only ever inserted; nothing updates or deletes a row once written.
type Store struct {
	conn *sql.DB
}

// NewStore opens (creating if needed) the transfer log at dbPath.
func NewStore(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	s := &Store{conn: conn}

	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transfers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number TEXT NOT NULL,
			beneficiary_firstname TEXT NOT NULL,
			beneficiary_lastname TEXT NOT NULL,
			country TEXT NOT NULL,
			amount REAL NOT NULL,
			payment_method TEXT NOT NULL,
			delivery_method TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			confirmation_code TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_phone ON transfers(phone_number)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_timestamp ON transfers(timestamp)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// Append durably adds one record to the log.
func (s *Store) Append(record models.HistoryRecord) error {
	query := `INSERT INTO transfers (
		phone_number, beneficiary_firstname, beneficiary_lastname,
		country, amount, payment_method, delivery_method,
		timestamp, confirmation_code
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.conn.Exec(
		query,
		record.PhoneNumber,
		record.Beneficiary.Firstname,
		record.Beneficiary.Lastname,
		record.Country,
		record.Amount,
		record.PaymentMethod,
		record.DeliveryMethod,
		record.Timestamp.Format(time.RFC3339Nano),
		record.ConfirmationCode,
	)
	if err != nil {
		return fmt.Errorf("failed to append transfer record: %w", err)
	}

	return nil
}

// IsDuplicateCode reports whether err is the unique-constraint violation
// raised when a record's confirmation code is already in the log.
func IsDuplicateCode(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// LoadAll returns every persisted record in storage order. An unreadable
// store yields an empty history with a warning to the operator log; the
// conversation never sees a storage failure. Rows that fail to parse are
// skipped the same way.
func (s *Store) LoadAll() []models.HistoryRecord {
	query := `SELECT phone_number, beneficiary_firstname, beneficiary_lastname,
		country, amount, payment_method, delivery_method,
		timestamp, confirmation_code
		FROM transfers ORDER BY id`

	rows, err := s.conn.Query(query)
	if err != nil {
		log.Printf("history: failed to load transfer log: %v", err)
		return nil
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		var timestampStr string

		err := rows.Scan(
			&r.PhoneNumber,
			&r.Beneficiary.Firstname,
			&r.Beneficiary.Lastname,
			&r.Country,
			&r.Amount,
			&r.PaymentMethod,
			&r.DeliveryMethod,
			&timestampStr,
			&r.ConfirmationCode,
		)
		if err != nil {
			log.Printf("history: skipping unreadable transfer row: %v", err)
			continue
		}

		r.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr)
		if err != nil {
			log.Printf("history: skipping transfer row with bad timestamp %q: %v", timestampStr, err)
			continue
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		log.Printf("history: error iterating transfer log: %v", err)
		return nil
	}

	return records
}

// GetUserTransactions returns the user's records, most recent first.
// Relative order of records with equal timestamps is not defined.
func (s *Store) GetUserTransactions(phoneNumber string) []models.HistoryRecord {
	var userRecords []models.HistoryRecord
	for _, r := range s.LoadAll() {
		if r.PhoneNumber == phoneNumber {
			userRecords = append(userRecords, r)
		}
	}

	sort.Slice(userRecords, func(i, j int) bool {
		return userRecords[i].Timestamp.After(userRecords[j].Timestamp)
	})

	return userRecords
}

// FindBeneficiaryHistory returns the user's transfers to a beneficiary
// matched by name, most recent first. Firstname matches case-insensitively;
// lastname, when supplied, must also match case-insensitively. An empty
// firstname yields an empty result since no useful filter is possible.
func (s *Store) FindBeneficiaryHistory(phoneNumber, firstname, lastname string) []models.HistoryRecord {
	if firstname == "" {
		return nil
	}

	var matches []models.HistoryRecord
	for _, r := range s.GetUserTransactions(phoneNumber) {
		if !strings.EqualFold(r.Beneficiary.Firstname, firstname) {
			continue
		}
		if lastname != "" && !strings.EqualFold(r.Beneficiary.Lastname, lastname) {
			continue
		}
		matches = append(matches, r)
	}

	return matches
}
