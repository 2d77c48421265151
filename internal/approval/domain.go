// Package approval persists deferred privileged mutations and replays them
// transactionally, exactly once, on super-admin decision.
package approval

import (
	"time"

	"github.com/clubdesk/clubdesk/internal/content"
)

// Status is the lifecycle state of a pending approval.
type Status string

// The only transitions are pending→approved and pending→rejected, each
// exactly once. A resolved record is immutable.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a raw status name.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, true
	}
	return "", false
}

// PendingApproval is one deferred mutation awaiting review. The requester's
// username is denormalised at submission so historical records survive
// deletion of the account.
type PendingApproval struct {
	ID                  int64
	RequestedBy         int64
	RequestedByUsername string
	Module              content.Module
	ActionType          content.Action
	ItemData            map[string]any
	Status              Status
	ReviewedBy          int64
	ReviewedByUsername  string
	ReviewedAt          time.Time
	ReviewNotes         string
	CreatedAt           time.Time
}

// ItemID returns the target identifier carried in the payload, if any.
func (p PendingApproval) ItemID() string {
	id, _ := p.ItemData["id"].(string)
	return id
}
