// Package audit keeps the append-only record of privileged decisions and
// their outcomes. The application never updates or deletes entries.
package audit

import "time"

// Entry statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is one audit record. The acting admin's username is denormalised so
// the row survives deletion of the account that produced it.
type Entry struct {
	ID            int64
	AdminID       int64
	AdminUsername string
	ActionType    string
	Module        string
	ItemID        string
	Details       map[string]any
	IPAddress     string
	UserAgent     string
	Status        string
	CreatedAt     time.Time
}

// Filters narrows audit queries.
type Filters struct {
	Search  string
	Module  string
	AdminID int64
}
