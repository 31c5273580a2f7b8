package leave

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/leave-engine/generic"
)

// CertificateFile describes an attachment to store for a leave.
type CertificateFile struct {
	LeaveID        generic.LeaveID
	EmployeeNumber string
	SourcePath     string
}

// CertificateStore keeps certificate files outside the database.
type CertificateStore interface {
	// Save copies the source file and returns an opaque reference to the copy.
	Save(ctx context.Context, f CertificateFile) (string, error)
	// Remove deletes a stored copy. Removing a missing reference is not an error.
	Remove(ctx context.Context, ref string) error
}

// certOps tracks file work that must follow the fate of a transaction:
// copies made inside it are undone on rollback, copies it released are
// deleted only once it commits.
type certOps struct {
	saved   []string
	dropped []string
}

func (o *certOps) save(ref string) {
	if o != nil {
		o.saved = append(o.saved, ref)
	}
}

func (o *certOps) drop(ref string) {
	if o != nil && ref != "" {
		o.dropped = append(o.dropped, ref)
	}
}

// settle applies the file side of a finished transaction. txErr is the WithTx result.
func (s *Service) settle(ctx context.Context, ops *certOps, txErr error) {
	if ops == nil || s.Certificates == nil {
		return
	}
	refs := ops.dropped
	if txErr != nil {
		refs = ops.saved
	}
	for _, ref := range refs {
		if err := s.Certificates.Remove(ctx, ref); err != nil {
			s.logger().Warn("certificate cleanup failed", "ref", ref, "error", err)
		}
	}
}

// syncCertificate makes the stored attachment of leave id agree with the request.
func (s *Service) syncCertificate(ctx context.Context, tx Tx, id generic.LeaveID, l Leave, req Request, ops *certOps) error {
	existing, err := tx.GetCertificate(ctx, id)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}

	if !s.Rules.RequiresCertificate[l.Type] {
		if existing == nil {
			return nil
		}
		if err := tx.RemoveCertificate(ctx, id); err != nil {
			return fmt.Errorf("remove certificate: %w", err)
		}
		ops.drop(existing.Ref)
		return nil
	}

	if req.CertificatePath == "" {
		if existing != nil && !existing.Days.Equal(l.DaysTaken) {
			existing.Days = l.DaysTaken
			return tx.SaveCertificate(ctx, *existing)
		}
		return nil
	}
	if s.Certificates == nil {
		s.logger().Warn("certificate ignored: no certificate store configured", "leave_id", id)
		return nil
	}

	agent, err := tx.GetAgent(ctx, l.AgentID)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	file := CertificateFile{LeaveID: id, SourcePath: req.CertificatePath}
	if agent != nil {
		file.EmployeeNumber = agent.EmployeeNumber
	}
	ref, err := s.Certificates.Save(ctx, file)
	if err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	ops.save(ref)

	if err := tx.SaveCertificate(ctx, Certificate{LeaveID: id, Days: l.DaysTaken, Ref: ref, CreatedAt: s.now()}); err != nil {
		return fmt.Errorf("record certificate: %w", err)
	}
	if existing != nil && existing.Ref != ref {
		ops.drop(existing.Ref)
	}
	return nil
}

// CertifiedLeaves lists leave of certificate-bearing types by attachment state.
// An empty status returns both. term filters on agent name or employee number.
func (s *Service) CertifiedLeaves(ctx context.Context, status CertificateStatus, term string) ([]CertifiedLeave, error) {
	var types []Type
	for t, needed := range s.Rules.RequiresCertificate {
		if needed {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil, nil
	}

	leaves, err := s.Store.QueryLeaves(ctx, LeaveQuery{Types: types})
	if err != nil {
		return nil, generic.Storage("query certified leaves", err)
	}

	term = strings.ToLower(strings.TrimSpace(term))
	agents := make(map[generic.AgentID]*Agent)
	var out []CertifiedLeave
	for _, l := range leaves {
		agent, ok := agents[l.AgentID]
		if !ok {
			if agent, err = s.Store.GetAgent(ctx, l.AgentID); err != nil {
				return nil, generic.Storage("load agent", err)
			}
			agents[l.AgentID] = agent
		}
		if agent == nil {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(agent.FullName()+" "+agent.EmployeeNumber), term) {
			continue
		}

		cert, err := s.Store.GetCertificate(ctx, l.ID)
		if err != nil {
			return nil, generic.Storage("load certificate", err)
		}
		if status == CertificateMissing && cert != nil || status == CertificateJustified && cert == nil {
			continue
		}
		out = append(out, CertifiedLeave{Leave: l, Agent: *agent, Certificate: cert})
	}
	return out, nil
}
