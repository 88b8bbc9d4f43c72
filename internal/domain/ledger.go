package domain

import "time"

// LedgerKind differentiates waste from production entries.
type LedgerKind string

const (
	LedgerWaste      LedgerKind = "waste"
	LedgerProduction LedgerKind = "production"
)

// Valid reports whether k is a known ledger kind.
func (k LedgerKind) Valid() bool {
	return k == LedgerWaste || k == LedgerProduction
}

// LedgerEntry is an append-only measurement attached to a shift.
type LedgerEntry struct {
	ID        string
	ShiftID   string
	Kind      LedgerKind
	ItemName  string
	Quantity  float64
	Unit      string
	Reason    string
	LoggedBy  string
	CreatedAt time.Time
}
