package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

// shareUnits is 100% expressed at four decimal places.
const shareUnits = 1_000_000

type AddProjectRequest struct {
	Name           string
	Description    string
	Status         domain.ProjectStatus
	StartDate      time.Time
	ExpectedIncome domain.Money
}

type ProjectTransactionRequest struct {
	ProjectID   string
	Type        domain.ProjectTransactionType
	Amount      domain.Money
	Description string
	MemberID    *string
	Date        time.Time
}

func (s *Store) AddProject(ctx context.Context, req AddProjectRequest) (*domain.Project, error) {
	p, err := commit(ctx, s, "AddProject", func(st *State) (func() *domain.Project, error) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
		}
		status := req.Status
		if status == "" {
			status = domain.ProjectStatusPlanning
		}
		if !status.IsValid() {
			return nil, fmt.Errorf("project status %q: %w", status, domain.ErrInvalidRequest)
		}
		st.Projects = append(st.Projects, domain.Project{
			ID:             s.newID(),
			Name:           name,
			Description:    strings.TrimSpace(req.Description),
			Status:         status,
			StartDate:      s.dateOrToday(req.StartDate),
			ExpectedIncome: req.ExpectedIncome,
			Members:        []domain.ProjectMember{},
			Milestones:     []domain.Milestone{},
			Transactions:   []domain.ProjectTransaction{},
			CreatedAt:      s.now(),
		})
		idx := len(st.Projects) - 1
		return func() *domain.Project { return ptr(cloneProject(st.Projects[idx])) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project added", "project_id", p.ID, "status", p.Status)
	return p, nil
}

// AddProjectMember records an investment by a member. A member already on the
// project tops up their stake. Every share percentage is recomputed.
func (s *Store) AddProjectMember(ctx context.Context, projectID, memberID string, amount domain.Money) (*domain.Project, error) {
	p, err := commit(ctx, s, "AddProjectMember", func(st *State) (func() *domain.Project, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, domain.ErrUnknownProject
		}
		m := st.member(memberID)
		if m == nil {
			return nil, domain.ErrUnknownMember
		}
		if !amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}

		today := s.today()
		if err := invest(p, m, amount, today); err != nil {
			return nil, err
		}
		p.Transactions = append(p.Transactions, domain.ProjectTransaction{
			ID:          s.newID(),
			Type:        domain.ProjectTxInvestment,
			Amount:      amount,
			Description: "Investment by " + m.Name,
			MemberID:    ptr(m.ID),
			Date:        today,
		})
		return func() *domain.Project { return ptr(cloneProject(*p)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project member invested",
		"project_id", p.ID,
		"member_id", memberID,
		"amount", amount.Minor(),
		"total_investment", p.TotalInvestment.Minor(),
	)
	return p, nil
}

// invest credits amount to m's stake, joining them to the project on date when
// they hold none yet, and moves the project's totals and shares with it.
func invest(p *domain.Project, m *domain.Member, amount domain.Money, date time.Time) error {
	if i := p.FindMember(m.ID); i >= 0 {
		stake, err := p.Members[i].InvestmentAmount.Add(amount)
		if err != nil {
			return err
		}
		p.Members[i].InvestmentAmount = stake
	} else {
		p.Members = append(p.Members, domain.ProjectMember{
			MemberID:         m.ID,
			MemberName:       m.Name,
			InvestmentAmount: amount,
			JoinedAt:         date,
		})
	}
	if err := creditInvestment(p, amount); err != nil {
		return err
	}
	return recomputeShares(p)
}

func creditInvestment(p *domain.Project, amount domain.Money) error {
	total, err := p.TotalInvestment.Add(amount)
	if err != nil {
		return err
	}
	value, err := p.CurrentValue.Add(amount)
	if err != nil {
		return err
	}
	p.TotalInvestment, p.CurrentValue = total, value
	return nil
}

// recomputeShares sets each member's share of the invested total. Shares are
// floored to four places and the leftover units go to the largest remainders,
// earliest member first on ties, so they always sum to exactly 100.
func recomputeShares(p *domain.Project) error {
	var invested domain.Money
	for _, m := range p.Members {
		var err error
		if invested, err = invested.Add(m.InvestmentAmount); err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
	}
	if invested.IsZero() {
		for i := range p.Members {
			p.Members[i].SharePercentage = decimal.Zero
		}
		return nil
	}

	type part struct {
		idx   int
		units int64
		rem   decimal.Decimal
	}
	scale := decimal.NewFromInt(shareUnits)
	parts := make([]part, len(p.Members))
	var assigned int64
	for i, m := range p.Members {
		q, r := m.InvestmentAmount.Decimal().Mul(scale).QuoRem(invested.Decimal(), 0)
		parts[i] = part{idx: i, units: q.IntPart(), rem: r}
		assigned += q.IntPart()
	}

	leftover := shareUnits - assigned
	if leftover < 0 || leftover > int64(len(parts)) {
		return fmt.Errorf("project %s: share distribution off by %d units: %w", p.ID, leftover, domain.ErrInvariantViolation)
	}
	order := slices.Clone(parts)
	slices.SortStableFunc(order, func(a, b part) int { return b.rem.Cmp(a.rem) })
	for i := range leftover {
		parts[order[i].idx].units++
	}

	for _, pt := range parts {
		p.Members[pt.idx].SharePercentage = decimal.New(pt.units, -4)
	}
	return nil
}

// RecordProjectTransaction appends to the project's ledger and moves its
// valuation. Expenses and withdrawals may not take the current value below zero.
// An investment attributed to a member is credited to their stake.
func (s *Store) RecordProjectTransaction(ctx context.Context, req ProjectTransactionRequest) (*domain.Project, error) {
	p, err := commit(ctx, s, "RecordProjectTransaction", func(st *State) (func() *domain.Project, error) {
		p := st.project(req.ProjectID)
		if p == nil {
			return nil, domain.ErrUnknownProject
		}
		if !req.Type.IsValid() {
			return nil, fmt.Errorf("transaction type %q: %w", req.Type, domain.ErrInvalidRequest)
		}
		if !req.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		var (
			member   *domain.Member
			memberID *string
		)
		if req.MemberID != nil && *req.MemberID != "" {
			if member = st.member(*req.MemberID); member == nil {
				return nil, domain.ErrUnknownMember
			}
			memberID = ptr(member.ID)
		}
		date := s.dateOrToday(req.Date)

		switch req.Type {
		case domain.ProjectTxInvestment:
			var err error
			if member != nil {
				err = invest(p, member, req.Amount, date)
			} else {
				err = creditInvestment(p, req.Amount)
			}
			if err != nil {
				return nil, err
			}
		case domain.ProjectTxIncome:
			income, err := p.ActualIncome.Add(req.Amount)
			if err != nil {
				return nil, err
			}
			value, err := p.CurrentValue.Add(req.Amount)
			if err != nil {
				return nil, err
			}
			p.ActualIncome, p.CurrentValue = income, value
		case domain.ProjectTxExpense, domain.ProjectTxWithdrawal:
			value, err := p.CurrentValue.Sub(req.Amount)
			if err != nil {
				return nil, fmt.Errorf("%s of %s against value %s: %w", req.Type, req.Amount, p.CurrentValue, err)
			}
			p.CurrentValue = value
		}
		p.Transactions = append(p.Transactions, domain.ProjectTransaction{
			ID:          s.newID(),
			Type:        req.Type,
			Amount:      req.Amount,
			Description: strings.TrimSpace(req.Description),
			MemberID:    memberID,
			Date:        date,
		})
		return func() *domain.Project { return ptr(cloneProject(*p)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project transaction recorded",
		"project_id", p.ID,
		"type", req.Type,
		"amount", req.Amount.Minor(),
		"current_value", p.CurrentValue.Minor(),
	)
	return p, nil
}

func (s *Store) AddProjectMilestone(ctx context.Context, projectID, title string, target time.Time) (*domain.Project, error) {
	p, err := commit(ctx, s, "AddProjectMilestone", func(st *State) (func() *domain.Project, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, domain.ErrUnknownProject
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, fmt.Errorf("title required: %w", domain.ErrInvalidRequest)
		}
		p.Milestones = append(p.Milestones, domain.Milestone{
			ID:         s.newID(),
			Title:      title,
			TargetDate: s.dateOrToday(target),
		})
		return func() *domain.Project { return ptr(cloneProject(*p)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project milestone added", "project_id", p.ID, "milestones", len(p.Milestones))
	return p, nil
}

func (s *Store) CompleteProjectMilestone(ctx context.Context, projectID, milestoneID string) (*domain.Project, error) {
	p, err := commit(ctx, s, "CompleteProjectMilestone", func(st *State) (func() *domain.Project, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, domain.ErrUnknownProject
		}
		i := slices.IndexFunc(p.Milestones, func(m domain.Milestone) bool { return m.ID == milestoneID })
		if i < 0 {
			return nil, domain.ErrUnknownMilestone
		}
		if p.Milestones[i].Completed {
			return nil, fmt.Errorf("milestone %s: %w", milestoneID, domain.ErrAlreadyFinalized)
		}
		now := s.now()
		p.Milestones[i].Completed = true
		p.Milestones[i].CompletedAt = &now
		return func() *domain.Project { return ptr(cloneProject(*p)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project milestone completed", "project_id", p.ID, "milestone_id", milestoneID)
	return p, nil
}

// DeleteProject removes a project nothing refers to: no linked loans and no
// recorded transactions.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	_, err := commit(ctx, s, "DeleteProject", func(st *State) (func() struct{}, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, domain.ErrUnknownProject
		}
		if len(p.Transactions) > 0 {
			return nil, fmt.Errorf("%d transactions recorded: %w", len(p.Transactions), domain.ErrProjectInUse)
		}
		for _, l := range st.Loans {
			if l.ProjectID != nil && *l.ProjectID == projectID {
				return nil, fmt.Errorf("linked loan %s: %w", l.ID, domain.ErrProjectInUse)
			}
		}
		st.Projects = slices.DeleteFunc(st.Projects, func(p domain.Project) bool { return p.ID == projectID })
		return func() struct{} { return struct{}{} }, nil
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("project deleted", "project_id", projectID)
	return nil
}

func (s *Store) Project(projectID string) (*domain.Project, error) {
	return read(s, func(st *State) (*domain.Project, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, fmt.Errorf("Project: %w", domain.ErrUnknownProject)
		}
		return ptr(cloneProject(*p)), nil
	})
}

func (s *Store) Projects() []domain.Project {
	out, _ := read(s, func(st *State) ([]domain.Project, error) {
		return cloneProjects(st.Projects), nil
	})
	return out
}
