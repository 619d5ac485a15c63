package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMemory() *Memory {
	return NewMemory(func() time.Time { return fixedNow })
}

func TestMemoryEmployees(t *testing.T) {
	ctx := context.Background()
	m := newMemory()

	require.NoError(t, m.Employees.Create(ctx, models.Employee{Kgid: "1001", Name: "Ravi", Email: "ravi@ksp.gov.in", District: "Mysuru", IsApproved: true}))
	require.NoError(t, m.Employees.Create(ctx, models.Employee{Kgid: "1002", Name: "Asha", District: "Mysuru", IsAdmin: true}))
	require.NoError(t, m.Employees.Create(ctx, models.Employee{Kgid: "1003", Name: "Kiran", District: "Udupi"}))

	e, err := m.Employees.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", e.Name)
	assert.Equal(t, fixedNow, e.CreatedAt)

	_, err = m.Employees.Get(ctx, "9999")
	assert.ErrorIs(t, err, ErrNotFound)

	inMysuru, err := m.Employees.Where(ctx, Cond{"district", "Mysuru"})
	require.NoError(t, err)
	assert.Len(t, inMysuru, 2)

	admins, err := m.Employees.Where(ctx, Cond{"isAdmin", true})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "1002", admins[0].Kgid)

	byEmail, err := m.Employees.FindByEmail(ctx, "ravi@ksp.gov.in")
	require.NoError(t, err)
	assert.Equal(t, "1001", byEmail.Kgid)

	require.NoError(t, m.Employees.Merge(ctx, "1001", map[string]any{"mobile1": int64(9876543210)}))
	e, _ = m.Employees.Get(ctx, "1001")
	assert.Equal(t, "9876543210", e.Mobile1, "numeric cells read back as strings")
	assert.Equal(t, "Ravi", e.Name, "merge keeps other fields")

	require.NoError(t, m.Employees.Delete(ctx, "1003"))
	assert.ErrorIs(t, m.Employees.Delete(ctx, "1003"), ErrNotFound)
}

func TestMemoryRegistrationApprove(t *testing.T) {
	ctx := context.Background()
	m := newMemory()

	id, err := m.Registrations.Create(ctx, models.PendingRegistration{
		Employee:  models.Employee{Kgid: "2001", Name: "Meena", Email: "meena@ksp.gov.in"},
		Status:    models.RegistrationPending,
		CreatedAt: fixedNow,
	})
	require.NoError(t, err)

	found, err := m.Registrations.FindPending(ctx, "", "meena@ksp.gov.in")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	e, err := m.Registrations.Approve(ctx, id, "chief@ksp.gov.in", fixedNow)
	require.NoError(t, err)
	assert.True(t, e.IsApproved)

	stored, err := m.Employees.Get(ctx, "2001")
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)

	p, err := m.Registrations.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, p.Status)
	assert.Equal(t, "chief@ksp.gov.in", p.ReviewedBy)

	_, err = m.Registrations.Approve(ctx, id, "chief@ksp.gov.in", fixedNow)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.ErrorIs(t, m.Registrations.Reject(ctx, id, "x", "dup", fixedNow), ErrAlreadyReviewed)

	pending, err := m.Registrations.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryOTPs(t *testing.T) {
	ctx := context.Background()
	m := newMemory()

	require.NoError(t, m.OTPs.Put(ctx, models.OTPRequest{Email: "a@x.in", Code: "123456", ExpiresAt: fixedNow.Add(-time.Minute)}))
	require.NoError(t, m.OTPs.Put(ctx, models.OTPRequest{Email: "b@x.in", Code: "654321", ExpiresAt: fixedNow.Add(time.Minute)}))

	require.NoError(t, m.OTPs.MarkUsed(ctx, "b@x.in", fixedNow))
	b, err := m.OTPs.Get(ctx, "b@x.in")
	require.NoError(t, err)
	assert.Equal(t, models.OTPUsed, b.Status)

	n, err := m.OTPs.DeleteExpired(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.OTPs.Get(ctx, "a@x.in")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAdminsAndQueue(t *testing.T) {
	ctx := context.Background()
	m := newMemory()
	m.PutDoc(AdminsCollection, "chief@ksp.gov.in", map[string]any{"isActive": true})
	m.PutDoc(AdminsCollection, "old@ksp.gov.in", map[string]any{"isActive": false})

	ok, err := m.Admins.IsActive(ctx, "chief@ksp.gov.in")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.Admins.IsActive(ctx, "old@ksp.gov.in")
	assert.False(t, ok)
	ok, _ = m.Admins.IsActive(ctx, "nobody@ksp.gov.in")
	assert.False(t, ok)

	m.Enqueue("n1", models.AppNotification{Title: "t", TargetType: models.TargetAll})
	require.NoError(t, m.Notifications.UpdateQueued(ctx, "n1", map[string]any{"status": models.NotificationProcessed, "sentCount": 3}))
	q := m.Queued("n1")
	assert.Equal(t, models.NotificationProcessed, q.Status)
	assert.Equal(t, 3, q.SentCount)

	require.NoError(t, m.SyncStatus.Update(ctx, "employees", map[string]any{"total": 10}))
	assert.Equal(t, 10, m.Doc(SyncStatusCollection, "employees")["total"])
}
