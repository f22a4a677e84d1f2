package domain

import "time"

type Role string

const (
	RoleChairman      Role = "chairman"
	RoleViceChairman  Role = "vice_chairman"
	RoleTreasurer     Role = "treasurer"
	RoleViceTreasurer Role = "vice_treasurer"
	RoleSecretary     Role = "secretary"
	RoleViceSecretary Role = "vice_secretary"
	RoleAdmin         Role = "admin"
	RoleMember        Role = "member"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleChairman, RoleViceChairman, RoleTreasurer, RoleViceTreasurer,
		RoleSecretary, RoleViceSecretary, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusSuspended MemberStatus = "suspended"
)

func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusSuspended:
		return true
	}
	return false
}

// Member totals are projections of the contribution and loan ledgers. They
// are recomputed by the ledger store after every command.
type Member struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Role     Role         `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinDate time.Time    `json:"join_date"`

	TotalContributions Money `json:"total_contributions"`
	TotalLoans         Money `json:"total_loans"`
	OutstandingLoans   Money `json:"outstanding_loans"`
	Shares             int64 `json:"shares"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
