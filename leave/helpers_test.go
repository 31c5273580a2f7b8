package leave_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqldb"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*leave.Service, *sqldb.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return leave.NewService(store), store
}

func newAgent(t *testing.T, svc *leave.Service, number string, balance int) generic.AgentID {
	id, err := svc.CreateAgent(context.Background(), leave.Agent{
		LastName:       "Alaoui",
		FirstName:      "Sara " + number,
		EmployeeNumber: number,
		Grade:          "Engineer",
		Balance:        decimal.NewFromInt(int64(balance)),
	})
	require.NoError(t, err)
	return id
}

func annual(agent generic.AgentID, start, end string) leave.Request {
	return leave.Request{AgentID: agent, Type: leave.TypeAnnual, StartDate: start, EndDate: end}
}

func sick(agent generic.AgentID, start, end string, days int) leave.Request {
	return leave.Request{AgentID: agent, Type: leave.TypeSick, StartDate: start, EndDate: end, DaysTaken: generic.Days(days)}
}

func submit(t *testing.T, svc *leave.Service, req leave.Request) generic.LeaveID {
	id, err := svc.Submit(context.Background(), req, leave.AlwaysConfirm)
	require.NoError(t, err)
	return id
}

func balanceOf(t *testing.T, svc *leave.Service, id generic.AgentID) decimal.Decimal {
	a, err := svc.GetAgent(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}

func activeLeaves(t *testing.T, store leave.Store, agent generic.AgentID) []leave.Leave {
	leaves, err := store.QueryLeaves(context.Background(), leave.LeaveQuery{AgentID: agent, Status: leave.StatusActive})
	require.NoError(t, err)
	return leaves
}

func allLeaves(t *testing.T, store leave.Store, agent generic.AgentID) []leave.Leave {
	leaves, err := store.QueryLeaves(context.Background(), leave.LeaveQuery{AgentID: agent})
	require.NoError(t, err)
	return leaves
}

func getLeave(t *testing.T, store leave.Store, id generic.LeaveID) *leave.Leave {
	l, err := store.GetLeave(context.Background(), id)
	require.NoError(t, err)
	return l
}

// periods renders leaves as "start..end" in ascending order for compact assertions.
func periods(leaves []leave.Leave) []string {
	out := make([]string, len(leaves))
	for i, l := range leaves {
		out[len(leaves)-1-i] = l.Period().String()
	}
	return out
}

// assertBalanceConserved checks balance == initial - sum of active annual days.
func assertBalanceConserved(t *testing.T, svc *leave.Service, store leave.Store, agent generic.AgentID, initial int) {
	t.Helper()
	taken := decimal.Zero
	for _, l := range activeLeaves(t, store, agent) {
		taken = taken.Add(svc.Rules.BalanceEffect(l.Type, l.DaysTaken))
	}
	expected := decimal.NewFromInt(int64(initial)).Sub(taken)
	assert.True(t, expected.Equal(balanceOf(t, svc, agent)),
		"balance %s should equal initial %d minus active days %s", balanceOf(t, svc, agent), initial, taken)
}

// assertNoActiveOverlap checks that no two active leaves of the agent intersect.
func assertNoActiveOverlap(t *testing.T, store leave.Store, agent generic.AgentID) {
	t.Helper()
	leaves := activeLeaves(t, store, agent)
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			assert.False(t, leaves[i].Period().Overlaps(leaves[j].Period()),
				"active leaves %s (%s) and %s (%s) overlap",
				leaves[i].ID, leaves[i].Period(), leaves[j].ID, leaves[j].Period())
		}
	}
}

func assertDays(t *testing.T, expected int, actual decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, generic.Days(expected).Equal(actual), "%s: expected %d days, got %s", msg, expected, actual)
}

// =============================================================================
// FAILURE INJECTION
// =============================================================================

var errInjected = errors.New("injected failure")

// failingStore fails the nth call of one Tx operation inside WithTx.
type failingStore struct {
	*sqldb.Store
	op    string
	nth   int
	calls int
}

func (f *failingStore) WithTx(ctx context.Context, fn func(leave.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx leave.Tx) error {
		return fn(&failingTx{Tx: tx, store: f})
	})
}

type failingTx struct {
	leave.Tx
	store *failingStore
}

func (t *failingTx) trip(op string) error {
	if op != t.store.op {
		return nil
	}
	t.store.calls++
	if t.store.calls == t.store.nth {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (t *failingTx) CreateLeave(ctx context.Context, l leave.Leave) (generic.LeaveID, error) {
	if err := t.trip("CreateLeave"); err != nil {
		return 0, err
	}
	return t.Tx.CreateLeave(ctx, l)
}

func (t *failingTx) SetLeaveStatus(ctx context.Context, id generic.LeaveID, status leave.Status) error {
	if err := t.trip("SetLeaveStatus"); err != nil {
		return err
	}
	return t.Tx.SetLeaveStatus(ctx, id, status)
}

func (t *failingTx) SaveCertificate(ctx context.Context, c leave.Certificate) error {
	if err := t.trip("SaveCertificate"); err != nil {
		return err
	}
	return t.Tx.SaveCertificate(ctx, c)
}

// =============================================================================
// CERTIFICATE STORE FAKE
// =============================================================================

type memCertificates struct {
	mu    sync.Mutex
	files map[string]leave.CertificateFile
	next  int
}

func newMemCertificates() *memCertificates {
	return &memCertificates{files: make(map[string]leave.CertificateFile)}
}

func (m *memCertificates) Save(_ context.Context, f leave.CertificateFile) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	ref := fmt.Sprintf("cert_%s_%s_%d", f.EmployeeNumber, f.LeaveID, m.next)
	m.files[ref] = f
	return ref, nil
}

func (m *memCertificates) Remove(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	return nil
}

func (m *memCertificates) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
