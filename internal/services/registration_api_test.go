package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/notify"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

func newRegistrationAPI(t *testing.T) (*RegistrationAPIFunction, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(fixedNow)
	f := NewRegistrationAPIWith(mem.Employees, mem.Registrations, auth.NewAdminChecker([]string{adminEmail}, mem.Admins.IsActive))
	f.now = fixedNow
	return f, mem
}

func registrationBody(pin string) map[string]any {
	body := validEmployee()
	body["pin"] = pin
	body["isAdmin"] = true
	return body
}

func TestHashedPin(t *testing.T) {
	hash := auth.HashPin("1234")
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1234", hash, false},
		{" 123456 ", auth.HashPin("123456"), false},
		{hash, hash, false},
		{"ABCDEF" + hash[6:], "abcdef" + hash[6:], false},
		{"123", "", true},
		{"12a4", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := hashedPin(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistrationAPIRegister(t *testing.T) {
	f, mem := newRegistrationAPI(t)
	rec := serve(t, f, http.MethodPost, "/?action=register", "", registrationBody("4321"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, models.RegistrationPending, body["status"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	p, err := mem.Registrations.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, p.Status)
	assert.Equal(t, auth.HashPin("4321"), p.Employee.Pin)
	assert.False(t, p.Employee.IsAdmin, "self registration never grants admin")
	assert.False(t, p.Employee.IsApproved)
	assert.Equal(t, "Meena Shetty", p.Employee.Name)
	assert.Equal(t, testNow, p.CreatedAt)

	_, err = mem.Employees.Get(t.Context(), "654321")
	assert.ErrorIs(t, err, store.ErrNotFound, "nothing is written to employees before approval")
}

func TestRegistrationAPIRegisterRejections(t *testing.T) {
	f, mem := newRegistrationAPI(t)
	require.NoError(t, mem.Employees.Create(t.Context(), models.Employee{Kgid: "111111", Name: "X", Email: "taken@ksp.gov.in"}))

	noEmail := registrationBody("1234")
	delete(noEmail, "email")
	takenEmail := registrationBody("1234")
	takenEmail["email"] = "taken@ksp.gov.in"
	takenKgid := registrationBody("1234")
	takenKgid["kgid"] = "111111"

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"bad pin", registrationBody("12"), http.StatusBadRequest},
		{"no email", noEmail, http.StatusBadRequest},
		{"kgid exists", takenKgid, http.StatusConflict},
		{"email exists", takenEmail, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, f, http.MethodPost, "/?action=register", "", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	pending, _ := mem.Registrations.ListPending(t.Context())
	assert.Empty(t, pending)
}

func TestRegistrationAPIDuplicatePending(t *testing.T) {
	f, _ := newRegistrationAPI(t)
	_, err := f.Register(t.Context(), models.Employee{Kgid: "654321", Name: "Meena", Email: "meena@ksp.gov.in", Rank: "SP"}, "1234")
	require.NoError(t, err)

	_, err = f.Register(t.Context(), models.Employee{Kgid: "777777", Name: "Other", Email: "MEENA@ksp.gov.in", Rank: "SP"}, "1234")
	assert.Equal(t, http.StatusConflict, httpx.StatusOf(err))
}

func TestRegistrationAPIReview(t *testing.T) {
	f, mem := newRegistrationAPI(t)
	approveID, err := f.Register(t.Context(), models.Employee{Kgid: "654321", Name: "Meena", Email: "meena@ksp.gov.in", Rank: "SP"}, "1234")
	require.NoError(t, err)
	rejectID, err := f.Register(t.Context(), models.Employee{Kgid: "777777", Name: "Other", Email: "other@ksp.gov.in", Rank: "SP"}, "1234")
	require.NoError(t, err)

	rec := serve(t, f, http.MethodGet, "/?action=listPending&adminEmail=pc@ksp.gov.in", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, f, http.MethodGet, "/?action=listPending&adminEmail="+adminEmail, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 2, list["count"])

	rec = serve(t, f, http.MethodPost, "/?action=approve", "", models.ReviewRequest{ID: approveID, AdminEmail: "pc@ksp.gov.in"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, f, http.MethodPost, "/?action=approve", "", models.ReviewRequest{ID: approveID, AdminEmail: adminEmail})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	e, err := mem.Employees.Get(t.Context(), "654321")
	require.NoError(t, err)
	assert.True(t, e.IsApproved)
	assert.Equal(t, auth.HashPin("1234"), e.Pin)

	rec = serve(t, f, http.MethodPost, "/?action=approve", "", models.ReviewRequest{ID: approveID, AdminEmail: adminEmail})
	assert.Equal(t, http.StatusConflict, rec.Code, "a registration is reviewed once")

	rec = serve(t, f, http.MethodPost, "/?action=reject", "", models.ReviewRequest{ID: rejectID, AdminEmail: adminEmail, Reason: "duplicate"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p, err := mem.Registrations.Get(t.Context(), rejectID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, p.Status)
	assert.Equal(t, "duplicate", p.Reason)
	assert.Equal(t, adminEmail, p.ReviewedBy)

	rec = serve(t, f, http.MethodPost, "/?action=reject", "", models.ReviewRequest{ID: "missing", AdminEmail: adminEmail})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	pending, _ := mem.Registrations.ListPending(t.Context())
	assert.Empty(t, pending)
}

func TestRegistrationAPIInvalidAction(t *testing.T) {
	f, _ := newRegistrationAPI(t)
	rec := serve(t, f, http.MethodGet, "/?action=register", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationNotifier(t *testing.T) {
	mem := store.NewMemory(fixedNow)
	require.NoError(t, mem.Employees.Create(t.Context(), models.Employee{Kgid: "1", IsAdmin: true, FCMToken: "admin-1"}))
	require.NoError(t, mem.Employees.Create(t.Context(), models.Employee{Kgid: "2", IsAdmin: true, FCMToken: "admin-2"}))
	require.NoError(t, mem.Employees.Create(t.Context(), models.Employee{Kgid: "3", FCMToken: "constable"}))
	id, err := mem.Registrations.Create(t.Context(), models.PendingRegistration{
		Employee: models.Employee{Kgid: "654321", Name: "Meena Shetty"}, Status: models.RegistrationPending,
	})
	require.NoError(t, err)

	sender := notify.NewFakeSender("admin-2")
	f := NewRegistrationNotifierWith(mem.Employees, mem.Registrations, sender)
	res, err := f.Process(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, notify.Result{Sent: 1, Failed: 1}, res)

	assert.Equal(t, []string{"admin-1"}, sender.Tokens())
	msg := sender.Sent["admin-1"]
	assert.Equal(t, "New Registration", msg.Title)
	assert.Equal(t, "Meena Shetty has registered.", msg.Body)
	assert.Equal(t, id, msg.Data["registrationId"])
}

func TestRegistrationNotifierWithoutAdminTokens(t *testing.T) {
	mem := store.NewMemory(fixedNow)
	require.NoError(t, mem.Employees.Create(t.Context(), models.Employee{Kgid: "1", IsAdmin: true}))
	id, err := mem.Registrations.Create(t.Context(), models.PendingRegistration{Status: models.RegistrationPending})
	require.NoError(t, err)

	sender := notify.NewFakeSender()
	res, err := NewRegistrationNotifierWith(mem.Employees, mem.Registrations, sender).Process(t.Context(), id)
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.Empty(t, sender.Sent)

	_, err = NewRegistrationNotifierWith(mem.Employees, mem.Registrations, sender).Process(t.Context(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
