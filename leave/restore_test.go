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
// DELETION & RESTORATION
// =============================================================================

func TestDelete_SplitRoundTrip(t *testing.T) {
	// GIVEN: Annual A = 2024-01-01..01-31 (23 days) split by sick B = 01-10..01-15
	// WHEN: B is deleted
	// THEN: B and both segments are gone, A is active again and the balance
	//       equals the balance before B was submitted

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P300", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	balanceBeforeB := balanceOf(t, svc, agent)

	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))
	require.Len(t, activeLeaves(t, store, agent), 3)

	require.NoError(t, svc.Delete(context.Background(), b))

	assert.Nil(t, getLeave(t, store, b))
	restored := getLeave(t, store, a)
	require.NotNil(t, restored)
	assert.Equal(t, leave.StatusActive, restored.Status)
	assertDays(t, 23, restored.DaysTaken, "parent keeps its original count")

	assert.Equal(t, []string{"2024-01-01..2024-01-31"}, periods(allLeaves(t, store, agent)),
		"segments are removed, not left behind")
	assert.True(t, balanceBeforeB.Equal(balanceOf(t, svc, agent)))
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_Missing_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), 404)

	assert.ErrorIs(t, err, generic.ErrNotFound)
	var nf *generic.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "leave", nf.Kind)
}

func TestDelete_Standalone_CreditsBalance(t *testing.T) {
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P301", 30)
	id := submit(t, svc, annual(agent, "2024-02-05", "2024-02-09"))

	require.NoError(t, svc.Delete(context.Background(), id))

	assert.Nil(t, getLeave(t, store, id))
	assertDays(t, 30, balanceOf(t, svc, agent), "balance")
}

func TestDelete_Cancelled_NoBalanceEffect(t *testing.T) {
	// GIVEN: A cancelled split source
	// WHEN: It is deleted directly
	// THEN: The row goes, the balance does not move, the split stays in place

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P302", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))
	balanceBefore := balanceOf(t, svc, agent)

	require.NoError(t, svc.Delete(context.Background(), a))

	assert.Nil(t, getLeave(t, store, a))
	assert.True(t, balanceBefore.Equal(balanceOf(t, svc, agent)))
	assert.Len(t, activeLeaves(t, store, agent), 3)
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_Segment_RestoresWholeParent(t *testing.T) {
	// Deleting a remainder segment undoes the split it belongs to.
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P303", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))

	var head generic.LeaveID
	for _, l := range activeLeaves(t, store, agent) {
		if l.Period().String() == "2024-01-01..2024-01-09" {
			head = l.ID
		}
	}
	require.NotZero(t, head)

	require.NoError(t, svc.Delete(context.Background(), head))

	assert.Equal(t, []string{"2024-01-01..2024-01-31"}, periods(allLeaves(t, store, agent)))
	assert.Equal(t, leave.StatusActive, getLeave(t, store, a).Status)
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_MultiParent_RestoresAll(t *testing.T) {
	// GIVEN: Sick leave 03-07..03-12 that replaced parts of two annual leaves
	// WHEN: It is deleted
	// THEN: Both annual leaves come back whole

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P304", 30)
	first := submit(t, svc, annual(agent, "2024-03-04", "2024-03-08"))
	second := submit(t, svc, annual(agent, "2024-03-11", "2024-03-15"))
	balanceBefore := balanceOf(t, svc, agent)

	b := submit(t, svc, sick(agent, "2024-03-07", "2024-03-12", 4))
	require.NoError(t, svc.Delete(context.Background(), b))

	assert.Equal(t, []string{"2024-03-04..2024-03-08", "2024-03-11..2024-03-15"}, periods(allLeaves(t, store, agent)))
	assert.Equal(t, leave.StatusActive, getLeave(t, store, first).Status)
	assert.Equal(t, leave.StatusActive, getLeave(t, store, second).Status)
	assert.True(t, balanceBefore.Equal(balanceOf(t, svc, agent)))
}

func TestDelete_NestedSplit_RestoresInnermostOnly(t *testing.T) {
	// GIVEN: A = 04-01..04-30 split by sick B = 04-10..04-12, then the tail
	//        segment S = 04-13..04-30 split by sick C = 04-22..04-23
	// WHEN: C is deleted
	// THEN: S is restored, A stays cancelled, B and the head segment survive

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P305", 40)
	a := submit(t, svc, annual(agent, "2024-04-01", "2024-04-30"))
	b := submit(t, svc, sick(agent, "2024-04-10", "2024-04-12", 3))
	c := submit(t, svc, sick(agent, "2024-04-22", "2024-04-23", 2))

	require.NoError(t, svc.Delete(context.Background(), c))

	assert.Equal(t, leave.StatusCancelled, getLeave(t, store, a).Status)
	assert.NotNil(t, getLeave(t, store, b))
	assert.Equal(t, []string{
		"2024-04-01..2024-04-09",
		"2024-04-10..2024-04-12",
		"2024-04-13..2024-04-30",
	}, periods(activeLeaves(t, store, agent)))
	assertBalanceConserved(t, svc, store, agent, 40)
	assertNoActiveOverlap(t, store, agent)
}

func TestDelete_NestedSplit_OuterSweepsEverything(t *testing.T) {
	// Same history as above, but deleting B undoes both splits: every leave
	// carved out of A, directly or through S, is removed.

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P306", 40)
	a := submit(t, svc, annual(agent, "2024-04-01", "2024-04-30"))
	b := submit(t, svc, sick(agent, "2024-04-10", "2024-04-12", 3))
	c := submit(t, svc, sick(agent, "2024-04-22", "2024-04-23", 2))

	require.NoError(t, svc.Delete(context.Background(), b))

	assert.Nil(t, getLeave(t, store, c))
	assert.Equal(t, []string{"2024-04-01..2024-04-30"}, periods(allLeaves(t, store, agent)))
	assert.Equal(t, leave.StatusActive, getLeave(t, store, a).Status)
	assertBalanceConserved(t, svc, store, agent, 40)
}

func TestDelete_RestoreConflict_FallsBackToPlainDelete(t *testing.T) {
	// GIVEN: Sick B carved out of annual A = 05-06..05-10, then moved away
	//        from A, and a new sick leave D placed where B used to be
	// WHEN: The head segment is deleted
	// THEN: Restoring A would overlap D, so the head is deleted on its own,
	//       A stays cancelled and the tail survives

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P307", 30)
	a := submit(t, svc, annual(agent, "2024-05-06", "2024-05-10"))
	b := submit(t, svc, sick(agent, "2024-05-08", "2024-05-08", 1))

	move := sick(agent, "2024-05-20", "2024-05-20", 1)
	move.LeaveID = b
	require.Equal(t, b, submit(t, svc, move))
	d := submit(t, svc, sick(agent, "2024-05-08", "2024-05-08", 1))

	var head generic.LeaveID
	for _, l := range activeLeaves(t, store, agent) {
		if l.Period().String() == "2024-05-06..2024-05-07" {
			head = l.ID
		}
	}
	require.NotZero(t, head)

	require.NoError(t, svc.Delete(context.Background(), head))

	assert.Nil(t, getLeave(t, store, head))
	assert.Equal(t, leave.StatusCancelled, getLeave(t, store, a).Status)
	assert.NotNil(t, getLeave(t, store, d))
	assert.NotNil(t, getLeave(t, store, b))
	assert.Equal(t, []string{"2024-05-08..2024-05-08", "2024-05-09..2024-05-10", "2024-05-20..2024-05-20"},
		periods(activeLeaves(t, store, agent)))
	assertBalanceConserved(t, svc, store, agent, 30)
	assertNoActiveOverlap(t, store, agent)
}

func TestDelete_MovedSegment_SurvivesRestore(t *testing.T) {
	// GIVEN: A = 01-01..01-31 split by sick B = 01-10..01-15, then the head
	//        segment moved to 08-05..08-09
	// WHEN: B is deleted
	// THEN: A is restored, the tail goes, the August leave stays

	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P309", 30)
	ctx := context.Background()
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))

	var head generic.LeaveID
	for _, l := range activeLeaves(t, store, agent) {
		if l.Period().String() == "2024-01-01..2024-01-09" {
			head = l.ID
		}
	}
	require.NotZero(t, head)
	move := annual(agent, "2024-08-05", "2024-08-09")
	move.LeaveID = head
	require.Equal(t, head, submit(t, svc, move))

	origins, err := store.Origins(ctx, head)
	require.NoError(t, err)
	assert.Empty(t, origins, "a leave moved off its source is no longer tied to it")

	require.NoError(t, svc.Delete(ctx, b))

	assert.Equal(t, leave.StatusActive, getLeave(t, store, a).Status)
	moved := getLeave(t, store, head)
	require.NotNil(t, moved)
	assert.Equal(t, "2024-08-05..2024-08-09", moved.Period().String())
	assert.Equal(t, []string{"2024-01-01..2024-01-31", "2024-08-05..2024-08-09"}, periods(allLeaves(t, store, agent)))
	assertDays(t, 2, balanceOf(t, svc, agent), "30 - 23 - 5")
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_MovedSegment_DoesNotUndoSplit(t *testing.T) {
	// Deleting a segment that was moved away is a plain delete: the split it
	// came from stays in place.
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P310", 30)
	ctx := context.Background()
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))

	var head generic.LeaveID
	for _, l := range activeLeaves(t, store, agent) {
		if l.Period().String() == "2024-01-01..2024-01-09" {
			head = l.ID
		}
	}
	require.NotZero(t, head)
	move := annual(agent, "2024-08-05", "2024-08-09")
	move.LeaveID = head
	submit(t, svc, move)

	require.NoError(t, svc.Delete(ctx, head))

	assert.Equal(t, leave.StatusCancelled, getLeave(t, store, a).Status)
	assert.NotNil(t, getLeave(t, store, b))
	assert.Equal(t, []string{"2024-01-10..2024-01-15", "2024-01-16..2024-01-31"}, periods(activeLeaves(t, store, agent)))
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_SegmentShortenedInPlace_StillRestores(t *testing.T) {
	// A segment edited within its source keeps its link: deleting the
	// replacing leave still brings the source back whole.
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P311", 30)
	ctx := context.Background()
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))

	var head generic.LeaveID
	for _, l := range activeLeaves(t, store, agent) {
		if l.Period().String() == "2024-01-01..2024-01-09" {
			head = l.ID
		}
	}
	require.NotZero(t, head)
	shorter := annual(agent, "2024-01-03", "2024-01-05")
	shorter.LeaveID = head
	submit(t, svc, shorter)

	require.NoError(t, svc.Delete(ctx, b))

	assert.Equal(t, leave.StatusActive, getLeave(t, store, a).Status)
	assert.Equal(t, []string{"2024-01-01..2024-01-31"}, periods(allLeaves(t, store, agent)))
	assertBalanceConserved(t, svc, store, agent, 30)
}

func TestDelete_ParentAlreadyGone_PlainDelete(t *testing.T) {
	// When the split source was deleted, removing the replacing leave is a plain delete.
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P308", 30)
	a := submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))
	b := submit(t, svc, sick(agent, "2024-01-10", "2024-01-15", 4))
	ctx := context.Background()
	require.NoError(t, svc.Delete(ctx, a))

	require.NoError(t, svc.Delete(ctx, b))

	assert.Equal(t, []string{"2024-01-01..2024-01-09", "2024-01-16..2024-01-31"}, periods(allLeaves(t, store, agent)))
	assertBalanceConserved(t, svc, store, agent, 30)
}
