package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// ATOMICITY - every failure rolls back the whole operation
// =============================================================================

func TestSplit_FailureRollsBackEverything(t *testing.T) {
	// GIVEN: Annual leave about to be split into two segments
	// WHEN: Inserting the replacing leave (third CreateLeave) fails
	// THEN: No segment persists, the parent is still active, the balance is unchanged

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P500", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	before := allLeaves(t, store, agent)
	balanceBefore := balanceOf(t, svc, agent)

	svc.Store = &failingStore{Store: store, op: "CreateLeave", nth: 3}
	_, err := svc.Submit(context.Background(), sick(agent, "2024-01-10", "2024-01-15", 4), leave.AlwaysConfirm)

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrStorage)
	assert.ErrorIs(t, err, errInjected)

	assert.Equal(t, before, allLeaves(t, store, agent))
	assert.Equal(t, leave.StatusActive, getLeave(t, store, a).Status)
	assert.True(t, balanceBefore.Equal(balanceOf(t, svc, agent)))

	children, err := store.Children(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestSplit_FailureOnFirstSegment(t *testing.T) {
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P501", 30)
	submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	before := allLeaves(t, store, agent)

	svc.Store = &failingStore{Store: store, op: "CreateLeave", nth: 1}
	_, err := svc.Submit(context.Background(), sick(agent, "2024-01-10", "2024-01-15", 4), leave.AlwaysConfirm)

	assert.ErrorIs(t, err, generic.ErrStorage)
	assert.Equal(t, before, allLeaves(t, store, agent))
}

func TestRestore_FailureRollsBackEverything(t *testing.T) {
	// GIVEN: A completed split
	// WHEN: Reactivating the parent fails during the delete of the replacing leave
	// THEN: The replacing leave, the segments and the cancelled parent are all untouched

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P502", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))
	before := allLeaves(t, store, agent)
	balanceBefore := balanceOf(t, svc, agent)

	svc.Store = &failingStore{Store: store, op: "SetLeaveStatus", nth: 1}
	err := svc.Delete(context.Background(), b)

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrStorage)
	assert.Equal(t, before, allLeaves(t, store, agent))
	assert.Equal(t, leave.StatusCancelled, getLeave(t, store, a).Status)
	assert.True(t, balanceBefore.Equal(balanceOf(t, svc, agent)))
}

func TestPlainSave_FailureLeavesNothing(t *testing.T) {
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P503", 30)

	svc.Store = &failingStore{Store: store, op: "CreateLeave", nth: 1}
	_, err := svc.Submit(context.Background(), annual(agent, "2024-02-05", "2024-02-09"), leave.AlwaysConfirm)

	assert.ErrorIs(t, err, generic.ErrStorage)
	assert.Empty(t, allLeaves(t, store, agent))
	assertDays(t, 30, balanceOf(t, svc, agent), "balance")
}
