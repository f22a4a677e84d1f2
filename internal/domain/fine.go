package domain

import "time"

type FineType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
}

type FineStatus string

const (
	FineStatusPending FineStatus = "pending"
	FineStatusPaid    FineStatus = "paid"
	FineStatusWaived  FineStatus = "waived"
)

var fineTransitions = map[FineStatus][]FineStatus{
	FineStatusPending: {FineStatusPaid, FineStatusWaived},
}

func (s FineStatus) CanTransitionTo(next FineStatus) bool {
	return allowed(fineTransitions[s], next)
}

func (s FineStatus) IsTerminal() bool {
	return len(fineTransitions[s]) == 0
}

type Fine struct {
	ID         string         `json:"id"`
	MemberID   string         `json:"member_id"`
	MemberName string         `json:"member_name"`
	TypeID     string         `json:"type_id"`
	TypeName   string         `json:"type_name"`
	Amount     Money          `json:"amount"`
	Date       time.Time      `json:"date"`
	Reason     string         `json:"reason"`
	Status     FineStatus     `json:"status"`
	Method     *PaymentMethod `json:"method,omitempty"`
	Reference  *string        `json:"reference,omitempty"`
	PaidAt     *time.Time     `json:"paid_at,omitempty"`
	WaivedAt   *time.Time     `json:"waived_at,omitempty"`
	WaivedWhy  *string        `json:"waiver_reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
