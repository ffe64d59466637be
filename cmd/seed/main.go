// Command seed populates the transfer history with demo data: one user with
// transfers at staggered ages so the daily, monthly, and semester windows
// all have something to count.
package main

import (
	"flag"
	"log"
	"time"

	"send-money-api/internal/history"
	"send-money-api/internal/models"
)

const demoPhone = "+15550001111"

func main() {
	dbPath := flag.String("db", "./transfer_history.db", "Transfer history database path")
	flag.Parse()

	store, err := history.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open transfer history: %v", err)
	}
	defer store.Close()

	if existing := store.LoadAll(); len(existing) > 0 {
		log.Printf("Transfer history already has %d records, not seeding", len(existing))
		return
	}

	now := time.Now()

	records := []models.HistoryRecord{
		{
			PhoneNumber:      demoPhone,
			Beneficiary:      models.Beneficiary{Firstname: "Gloria", Lastname: "Saavedra"},
			Country:          "Colombia",
			Amount:           800.0,
			PaymentMethod:    "bank_transfer",
			DeliveryMethod:   "bank_account",
			Timestamp:        now.AddDate(0, 0, -28),
			ConfirmationCode: "TXN-SEED0001",
		},
		{
			PhoneNumber:      demoPhone,
			Beneficiary:      models.Beneficiary{Firstname: "Diego", Lastname: "Saavedra"},
			Country:          "México",
			Amount:           250.0,
			PaymentMethod:    "debit_card",
			DeliveryMethod:   "digital_wallet",
			Timestamp:        now.AddDate(0, 0, -7),
			ConfirmationCode: "TXN-SEED0002",
		},
		{
			PhoneNumber:      demoPhone,
			Beneficiary:      models.Beneficiary{Firstname: "Marta", Lastname: "Lopez"},
			Country:          "El Salvador",
			Amount:           120.0,
			PaymentMethod:    "credit_card",
			DeliveryMethod:   "digital_wallet",
			Timestamp:        now.AddDate(0, 0, -1).Add(2 * time.Hour),
			ConfirmationCode: "TXN-SEED0003",
		},
	}

	for _, r := range records {
		if err := store.Append(r); err != nil {
			log.Fatalf("Failed to seed record %s: %v", r.ConfirmationCode, err)
		}
	}

	log.Printf("Seeded %d transfer records for %s into %s", len(records), demoPhone, *dbPath)
}
