package models

import "time"

// ImportBatch records one catalog import run.
type ImportBatch struct {
	ID           string    `json:"id" db:"id"`
	Path         string    `json:"path" db:"path"`
	Checksum     string    `json:"checksum" db:"checksum"`
	Products     int       `json:"products" db:"products"`
	Stores       int       `json:"stores" db:"stores"`
	Preferences  int       `json:"preferences" db:"preferences"`
	Transactions int       `json:"transactions" db:"transactions"`
	ImportedAt   time.Time `json:"imported_at" db:"imported_at"`
}
