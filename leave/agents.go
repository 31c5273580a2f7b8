package leave

import (
	"context"
	"strings"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// AGENTS
// =============================================================================

func validateAgent(a Agent) error {
	if strings.TrimSpace(a.LastName) == "" {
		return &generic.ValidationError{Field: "last_name", Message: "required"}
	}
	if strings.TrimSpace(a.FirstName) == "" {
		return &generic.ValidationError{Field: "first_name", Message: "required"}
	}
	if strings.TrimSpace(a.EmployeeNumber) == "" {
		return &generic.ValidationError{Field: "employee_number", Message: "required"}
	}
	return nil
}

// CreateAgent requires a non-negative opening balance. Leave may overdraw it
// later, so updates accept whatever balance the agent has reached.
func (s *Service) CreateAgent(ctx context.Context, a Agent) (generic.AgentID, error) {
	if err := validateAgent(a); err != nil {
		return 0, err
	}
	if a.Balance.IsNegative() {
		return 0, &generic.ValidationError{Field: "balance", Message: "must not be negative"}
	}
	id, err := s.Agents.CreateAgent(ctx, a)
	if err != nil {
		return 0, generic.Storage("create agent", err)
	}
	return id, nil
}

// UpdateAgent rewrites identity fields and the balance as given.
func (s *Service) UpdateAgent(ctx context.Context, a Agent) error {
	if err := validateAgent(a); err != nil {
		return err
	}
	if _, err := s.GetAgent(ctx, a.ID); err != nil {
		return err
	}
	return generic.Storage("update agent", s.Agents.UpdateAgent(ctx, a))
}

func (s *Service) GetAgent(ctx context.Context, id generic.AgentID) (*Agent, error) {
	a, err := s.Agents.GetAgent(ctx, id)
	if err != nil {
		return nil, generic.Storage("get agent", err)
	}
	if a == nil {
		return nil, &generic.NotFoundError{Kind: "agent", ID: id.String()}
	}
	return a, nil
}

func (s *Service) ListAgents(ctx context.Context, q AgentQuery) ([]Agent, error) {
	agents, err := s.Agents.ListAgents(ctx, q)
	if err != nil {
		return nil, generic.Storage("list agents", err)
	}
	return agents, nil
}

func (s *Service) CountAgents(ctx context.Context, term string) (int, error) {
	n, err := s.Agents.CountAgents(ctx, term)
	if err != nil {
		return 0, generic.Storage("count agents", err)
	}
	return n, nil
}

// DeleteAgent removes the agent and, by cascade, its leave. Certificate files
// are removed once the rows are gone.
func (s *Service) DeleteAgent(ctx context.Context, id generic.AgentID) error {
	if _, err := s.GetAgent(ctx, id); err != nil {
		return err
	}

	ops := &certOps{}
	leaves, err := s.Store.QueryLeaves(ctx, LeaveQuery{AgentID: id})
	if err != nil {
		return generic.Storage("list leaves", err)
	}
	for _, l := range leaves {
		cert, err := s.Store.GetCertificate(ctx, l.ID)
		if err != nil {
			return generic.Storage("load certificate", err)
		}
		if cert != nil {
			ops.drop(cert.Ref)
		}
	}

	err = s.Agents.DeleteAgent(ctx, id)
	s.settle(ctx, ops, err)
	return generic.Storage("delete agent", err)
}
