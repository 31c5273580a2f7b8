/*
service.go - Entry point of the leave core

PURPOSE:
  Service binds the store, the holiday calendar, the certificate store and
  the type rules together and exposes every operation callers use: submit
  (resolver.go), delete with restoration (restore.go), audit (audit.go) and
  the agent, holiday and listing helpers.

STATE:
  Service holds no leave or agent data between calls. Every mutating
  operation re-reads what it needs inside its own transaction.

COLLABORATORS:
  Store:        leave rows, origins, balances, certificates (required)
  Agents:       agent CRUD (required for the agent operations)
  Holidays:     holiday calendar (required)
  Certificates: file storage for certificates (optional, skipped when nil)
  Metrics:      Prometheus collectors (optional)

USAGE:
  svc := leave.NewService(store).
      WithLogger(logger).
      WithCertificates(certificate.NewFSStore(dir))

  id, err := svc.Submit(ctx, req, leave.AlwaysConfirm)

SEE ALSO:
  - recorder.go: Balance-aware primitives
  - store.go: Persistence interfaces
*/
package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/metrics"
)

type Service struct {
	Store        Store
	Agents       AgentStore
	Holidays     HolidayStore
	Certificates CertificateStore
	Rules        TypeRules
	Logger       *slog.Logger
	Metrics      *metrics.Metrics

	// FixedHolidays are installed by InstallDefaultHolidays.
	FixedHolidays []FixedHoliday

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// NewService wires a service over a single database with the default rules.
func NewService(store FullStore) *Service {
	return &Service{
		Store:         store,
		Agents:        store,
		Holidays:      store,
		Rules:         DefaultTypeRules(),
		FixedHolidays: DefaultFixedHolidays(),
	}
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	s.Logger = l
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.Metrics = m
	return s
}

func (s *Service) WithCertificates(c CertificateStore) *Service {
	s.Certificates = c
	return s
}

func (s *Service) WithRules(r TypeRules) *Service {
	s.Rules = r
	return s
}

func (s *Service) WithFixedHolidays(f []FixedHoliday) *Service {
	s.FixedHolidays = f
	return s
}

func (s *Service) recorder() Recorder { return Recorder{Rules: s.Rules} }

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock()
}

func (s *Service) today() generic.TimePoint { return generic.FromTime(s.now()) }

// =============================================================================
// LEAVE QUERIES
// =============================================================================

// GetLeave returns a leave or a NotFoundError.
func (s *Service) GetLeave(ctx context.Context, id generic.LeaveID) (*Leave, error) {
	l, err := s.Store.GetLeave(ctx, id)
	if err != nil {
		return nil, generic.Storage("get leave", err)
	}
	if l == nil {
		return nil, &generic.NotFoundError{Kind: "leave", ID: id.String()}
	}
	return l, nil
}

// LeavesForAgent returns every leave of an agent, cancelled split sources included, newest first.
func (s *Service) LeavesForAgent(ctx context.Context, agentID generic.AgentID) ([]Leave, error) {
	if _, err := s.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	leaves, err := s.Store.QueryLeaves(ctx, LeaveQuery{AgentID: agentID})
	if err != nil {
		return nil, generic.Storage("list leaves", err)
	}
	return leaves, nil
}

// ReturnDate is the first working day after the leave ends.
func (s *Service) ReturnDate(ctx context.Context, id generic.LeaveID) (generic.TimePoint, error) {
	l, err := s.GetLeave(ctx, id)
	if err != nil {
		return generic.TimePoint{}, err
	}
	hs, err := s.Holidays.HolidaySet(ctx, l.End.Year(), l.End.Year()+1)
	if err != nil {
		return generic.TimePoint{}, generic.Storage("load holidays", err)
	}
	return generic.NextBusinessDay(l.End, hs), nil
}

// OnLeave is an agent away on a given day and the leave that covers it.
type OnLeave struct {
	Agent Agent
	Leave Leave
}

// AgentsOnLeave lists agents with an active leave covering day. A zero day means today.
func (s *Service) AgentsOnLeave(ctx context.Context, day generic.TimePoint) ([]OnLeave, error) {
	if day.IsZero() {
		day = s.today()
	}
	leaves, err := s.Store.QueryLeaves(ctx, LeaveQuery{Status: StatusActive, OnDay: &day})
	if err != nil {
		return nil, generic.Storage("query leaves on day", err)
	}

	var out []OnLeave
	for _, l := range leaves {
		agent, err := s.Store.GetAgent(ctx, l.AgentID)
		if err != nil {
			return nil, generic.Storage("load agent", err)
		}
		if agent == nil {
			continue
		}
		out = append(out, OnLeave{Agent: *agent, Leave: l})
	}
	return out, nil
}
