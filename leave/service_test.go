package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/metrics"
)

// =============================================================================
// AGENTS
// =============================================================================

func TestAgents_CRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateAgent(ctx, leave.Agent{
		LastName: "El Idrissi", FirstName: "Karim", EmployeeNumber: "P700", Grade: "Technician",
		Balance: decimal.RequireFromString("22.5"),
	})
	require.NoError(t, err)

	a, err := svc.GetAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "El Idrissi Karim", a.FullName())
	assert.True(t, decimal.RequireFromString("22.5").Equal(a.Balance))

	a.Grade = "Engineer"
	require.NoError(t, svc.UpdateAgent(ctx, *a))
	a, err = svc.GetAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Engineer", a.Grade)

	require.NoError(t, svc.DeleteAgent(ctx, id))
	_, err = svc.GetAgent(ctx, id)
	assert.True(t, generic.IsNotFound(err))
}

func TestAgents_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAgent(ctx, leave.Agent{FirstName: "Karim", EmployeeNumber: "P701"})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = svc.CreateAgent(ctx, leave.Agent{LastName: "A", FirstName: "B", EmployeeNumber: "P702", Balance: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, generic.ErrValidation)

	newAgent(t, svc, "P703", 10)
	_, err = svc.CreateAgent(ctx, leave.Agent{LastName: "A", FirstName: "B", EmployeeNumber: "P703"})
	assert.ErrorIs(t, err, generic.ErrValidation, "employee number is unique")
}

func TestAgents_UpdateOverdrawn(t *testing.T) {
	// GIVEN: An agent with 2 days who took a 5-day annual leave (balance -3)
	// WHEN: The agent is renamed with the balance it currently has
	// THEN: The update succeeds and the balance stays -3

	svc, _ := newTestService(t)
	ctx := context.Background()
	id := newAgent(t, svc, "P704", 2)
	submit(t, svc, annual(id, "2024-02-05", "2024-02-09"))

	a, err := svc.GetAgent(ctx, id)
	require.NoError(t, err)
	require.True(t, a.Balance.IsNegative())

	a.LastName = "Bennani"
	require.NoError(t, svc.UpdateAgent(ctx, *a))

	a, err = svc.GetAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bennani", a.LastName)
	assertDays(t, -3, a.Balance, "balance")
}

func TestAgents_ListSearchAndCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, a := range []leave.Agent{
		{LastName: "Berrada", FirstName: "Yassine", EmployeeNumber: "P710"},
		{LastName: "Amrani", FirstName: "Salma", EmployeeNumber: "P711"},
		{LastName: "Chraibi", FirstName: "Yassine", EmployeeNumber: "Q712"},
	} {
		_, err := svc.CreateAgent(ctx, a)
		require.NoError(t, err)
	}

	all, err := svc.ListAgents(ctx, leave.AgentQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Amrani", all[0].LastName, "ordered by name")

	found, err := svc.ListAgents(ctx, leave.AgentQuery{Term: "yassine"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	page, err := svc.ListAgents(ctx, leave.AgentQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Berrada", page[0].LastName)

	n, err := svc.CountAgents(ctx, "q7")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAgents_DeleteCascadesLeavesAndCertificates(t *testing.T) {
	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P720", 30)
	submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	submit(t, svc, sickWithCertificate(agent, "2024-01-10", "2024-01-15", 4))
	require.Equal(t, 1, certs.count())

	require.NoError(t, svc.DeleteAgent(context.Background(), agent))

	assert.Empty(t, allLeaves(t, store, agent))
	assert.Equal(t, 0, certs.count())
}

func TestAgents_UpdateMissing_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.UpdateAgent(context.Background(), leave.Agent{ID: 77, LastName: "A", FirstName: "B", EmployeeNumber: "P730"})
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// LEAVE QUERIES
// =============================================================================

func TestLeavesForAgent_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	agent := newAgent(t, svc, "P740", 30)
	first := submit(t, svc, annual(agent, "2024-02-05", "2024-02-06"))
	second := submit(t, svc, annual(agent, "2024-03-05", "2024-03-06"))

	leaves, err := svc.LeavesForAgent(context.Background(), agent)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, second, leaves[0].ID)
	assert.Equal(t, first, leaves[1].ID)

	_, err = svc.LeavesForAgent(context.Background(), 999)
	assert.True(t, generic.IsNotFound(err))
}

func TestAgentsOnLeave(t *testing.T) {
	svc, _ := newTestService(t)
	away := newAgent(t, svc, "P750", 30)
	present := newAgent(t, svc, "P751", 30)
	submit(t, svc, annual(away, "2024-02-05", "2024-02-09"))
	submit(t, svc, annual(present, "2024-02-12", "2024-02-16"))

	on, err := svc.AgentsOnLeave(context.Background(), generic.MustParseDate("2024-02-07"))
	require.NoError(t, err)
	require.Len(t, on, 1)
	assert.Equal(t, away, on[0].Agent.ID)

	svc.Clock = func() time.Time { return time.Date(2024, time.February, 13, 9, 0, 0, 0, time.UTC) }
	on, err = svc.AgentsOnLeave(context.Background(), generic.TimePoint{})
	require.NoError(t, err)
	require.Len(t, on, 1)
	assert.Equal(t, present, on[0].Agent.ID)
}

func TestReturnDate_SkipsWeekendAndHolidays(t *testing.T) {
	svc, _ := newTestService(t)
	agent := newAgent(t, svc, "P760", 30)
	id := submit(t, svc, annual(agent, "2024-05-06", "2024-05-10"))
	ctx := context.Background()

	ret, err := svc.ReturnDate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-13", ret.String())

	require.NoError(t, svc.AddHoliday(ctx, leave.Holiday{Date: generic.MustParseDate("2024-05-13"), Name: "Local"}))
	ret, err = svc.ReturnDate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-14", ret.String())

	_, err = svc.ReturnDate(ctx, 999)
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_InstallDefaultsAndMaintain(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.InstallDefaultHolidays(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, len(leave.DefaultFixedHolidays()), n)

	// Installing twice does not duplicate.
	_, err = svc.InstallDefaultHolidays(ctx, 2024)
	require.NoError(t, err)
	hs, err := svc.ListHolidays(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, hs, n)
	assert.Equal(t, "2024-01-01", hs[0].Date.String())
	assert.Equal(t, leave.HolidayAutomatic, hs[0].Kind)

	require.NoError(t, svc.AddHoliday(ctx, leave.Holiday{Date: generic.MustParseDate("2024-04-10"), Name: "Eid al-Fitr"}))
	hs, err = svc.ListHolidays(ctx, 2024)
	require.NoError(t, err)
	assert.Len(t, hs, n+1)

	require.NoError(t, svc.RemoveHoliday(ctx, generic.MustParseDate("2024-04-10")))
	err = svc.RemoveHoliday(ctx, generic.MustParseDate("2024-04-10"))
	assert.True(t, generic.IsNotFound(err))

	err = svc.AddHoliday(ctx, leave.Holiday{Date: generic.MustParseDate("2024-04-11")})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// METRICS
// =============================================================================

func TestMetrics_RecordOutcomes(t *testing.T) {
	svc, _ := newTestService(t)
	m := metrics.New(prometheus.NewRegistry())
	svc.WithMetrics(m)
	agent := newAgent(t, svc, "P780", 30)
	ctx := context.Background()

	submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	_, _ = svc.Submit(ctx, sick(agent, "2024-01-10", "2024-01-15", 4), leave.NeverConfirm)
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))
	require.NoError(t, svc.Delete(ctx, b))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions(metrics.OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions(metrics.OutcomeDeclined)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions(metrics.OutcomeSplit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Restorations(metrics.RestoreRestored)))
}
