package domain

import "time"

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
	FrequencyOneTime   Frequency = "one_time"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually, FrequencyOneTime:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodMpesa        PaymentMethod = "mpesa"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMpesa, PaymentMethodBankTransfer, PaymentMethodCheque:
		return true
	}
	return false
}

type ContributionType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Amount      Money     `json:"amount"`
	Frequency   Frequency `json:"frequency"`
	Required    bool      `json:"required"`
}

type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusConfirmed ContributionStatus = "confirmed"
	ContributionStatusRejected  ContributionStatus = "rejected"
)

var contributionTransitions = map[ContributionStatus][]ContributionStatus{
	ContributionStatusPending: {ContributionStatusConfirmed, ContributionStatusRejected},
}

func (s ContributionStatus) CanTransitionTo(next ContributionStatus) bool {
	return allowed(contributionTransitions[s], next)
}

func (s ContributionStatus) IsTerminal() bool {
	return len(contributionTransitions[s]) == 0
}

type Contribution struct {
	ID          string             `json:"id"`
	MemberID    string             `json:"member_id"`
	MemberName  string             `json:"member_name"`
	TypeID      string             `json:"type_id"`
	TypeName    string             `json:"type_name"`
	Amount      Money              `json:"amount"`
	Date        time.Time          `json:"date"`
	Method      PaymentMethod      `json:"method"`
	Reference   *string            `json:"reference,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
	Status      ContributionStatus `json:"status"`
	ConfirmedBy *string            `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
	RejectedAt  *time.Time         `json:"rejected_at,omitempty"`
	Reason      *string            `json:"rejection_reason,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func allowed[S comparable](targets []S, next S) bool {
	for _, t := range targets {
		if t == next {
			return true
		}
	}
	return false
}
