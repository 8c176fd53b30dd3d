package event

import "time"

type Type string

const (
	TypeProposed Type = "proposed"
	TypeAccepted Type = "accepted"
	TypeModified Type = "modified"
	TypeRepaid   Type = "repaid"
	TypeClaimed  Type = "claimed"
)

// Event is the append-only journal entry written in the same transaction as
// the transition it records. One successful transition, one event.
type Event struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	EventID   string    `gorm:"column:event_id;type:char(32);not null;uniqueIndex" json:"event_id"`
	LoanID    uint64    `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Type      Type      `gorm:"column:type;size:16;not null" json:"type"`
	Actor     string    `gorm:"column:actor;size:42;not null" json:"actor"`
	Amount    uint64    `gorm:"column:amount" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string { return "loan_events" }
