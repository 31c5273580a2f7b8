package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

func sickWithCertificate(agent generic.AgentID, start, end string, days int) leave.Request {
	req := sick(agent, start, end, days)
	req.CertificatePath = "/tmp/scan.pdf"
	return req
}

func TestCertificate_SavedWithLeaveAndRemovedOnDelete(t *testing.T) {
	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P600", 30)
	ctx := context.Background()

	id := submit(t, svc, sickWithCertificate(agent, "2024-03-04", "2024-03-06", 3))

	cert, err := store.GetCertificate(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assertDays(t, 3, cert.Days, "certificate days")
	assert.Contains(t, cert.Ref, "P600")
	assert.Equal(t, 1, certs.count())

	require.NoError(t, svc.Delete(ctx, id))
	assert.Equal(t, 0, certs.count(), "file is removed after the delete commits")
}

func TestCertificate_SavedAfterSplitWithNewID(t *testing.T) {
	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P601", 30)
	submit(t, svc, annual(agent, "2024-01-01", "2024-01-31"))

	id := submit(t, svc, sickWithCertificate(agent, "2024-01-10", "2024-01-15", 4))

	cert, err := store.GetCertificate(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, id, cert.LeaveID)
	assert.Equal(t, 1, certs.count())
}

func TestCertificate_RollbackRemovesSavedFile(t *testing.T) {
	// GIVEN: A certificate file copied during the transaction
	// WHEN: Recording the certificate row fails
	// THEN: The transaction rolls back and the copied file is removed

	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P602", 30)

	svc.Store = &failingStore{Store: store, op: "SaveCertificate", nth: 1}
	_, err := svc.Submit(context.Background(), sickWithCertificate(agent, "2024-03-04", "2024-03-06", 3), leave.AlwaysConfirm)

	assert.ErrorIs(t, err, generic.ErrStorage)
	assert.Empty(t, allLeaves(t, store, agent))
	assert.Equal(t, 0, certs.count())
}

func TestCertificate_DroppedWhenTypeChanges(t *testing.T) {
	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P603", 30)
	ctx := context.Background()
	id := submit(t, svc, sickWithCertificate(agent, "2024-03-04", "2024-03-06", 3))

	req := annual(agent, "2024-03-04", "2024-03-06")
	req.LeaveID = id
	submit(t, svc, req)

	cert, err := store.GetCertificate(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cert)
	assert.Equal(t, 0, certs.count())
}

func TestCertificate_ReplacedOnModify(t *testing.T) {
	svc, store := newTestService(t)
	certs := newMemCertificates()
	svc.WithCertificates(certs)
	agent := newAgent(t, svc, "P604", 30)
	ctx := context.Background()
	id := submit(t, svc, sickWithCertificate(agent, "2024-03-04", "2024-03-06", 3))
	first, err := store.GetCertificate(ctx, id)
	require.NoError(t, err)

	req := sickWithCertificate(agent, "2024-03-04", "2024-03-07", 4)
	req.LeaveID = id
	submit(t, svc, req)

	second, err := store.GetCertificate(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Ref, second.Ref)
	assertDays(t, 4, second.Days, "certificate follows the leave")
	assert.Equal(t, 1, certs.count(), "the old copy is removed")
}

func TestCertificate_NoStoreConfigured_Skipped(t *testing.T) {
	svc, store := newTestService(t)
	agent := newAgent(t, svc, "P605", 30)

	id := submit(t, svc, sickWithCertificate(agent, "2024-03-04", "2024-03-06", 3))

	cert, err := store.GetCertificate(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestCertifiedLeaves_ByStatusAndTerm(t *testing.T) {
	svc, _ := newTestService(t)
	svc.WithCertificates(newMemCertificates())
	ctx := context.Background()

	justified, err := svc.CreateAgent(ctx, leave.Agent{LastName: "Bennani", FirstName: "Omar", EmployeeNumber: "P610"})
	require.NoError(t, err)
	missing, err := svc.CreateAgent(ctx, leave.Agent{LastName: "Tazi", FirstName: "Nadia", EmployeeNumber: "P611"})
	require.NoError(t, err)

	withCert := submit(t, svc, sickWithCertificate(justified, "2024-03-04", "2024-03-06", 3))
	without := submit(t, svc, sick(missing, "2024-03-04", "2024-03-06", 3))
	submit(t, svc, annual(missing, "2024-04-01", "2024-04-05"))

	got, err := svc.CertifiedLeaves(ctx, leave.CertificateMissing, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, without, got[0].Leave.ID)
	assert.Nil(t, got[0].Certificate)

	got, err = svc.CertifiedLeaves(ctx, leave.CertificateJustified, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, withCert, got[0].Leave.ID)
	assert.NotNil(t, got[0].Certificate)

	got, err = svc.CertifiedLeaves(ctx, "", "tazi")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tazi", got[0].Agent.LastName)
}
