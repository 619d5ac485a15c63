package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/notify"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

var (
	pinPattern     = regexp.MustCompile(`^[0-9]{4,6}$`)
	pinHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// registerRequest is the self-registration body: the employee record plus
// a PIN, sent either raw or already hashed by the client.
type registerRequest struct {
	models.Employee
	RawPin string `json:"pin"`
}

type RegistrationAPIFunction struct {
	employees     store.Employees
	registrations store.Registrations
	admins        *auth.AdminChecker
	now           func() time.Time
}

func NewRegistrationAPI(ctx context.Context) (*RegistrationAPIFunction, error) {
	clients, err := newGoogleClients(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := clients.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	repos := store.NewFirestoreSet(fs)
	checker := auth.NewAdminChecker(gcp.GetEnvList("ADMIN_EMAILS"), repos.Admins.IsActive)
	slog.Info("Registration API initialized.")
	return NewRegistrationAPIWith(repos.Employees, repos.Registrations, checker), nil
}

func NewRegistrationAPIWith(employees store.Employees, registrations store.Registrations, admins *auth.AdminChecker) *RegistrationAPIFunction {
	return &RegistrationAPIFunction{employees: employees, registrations: registrations, admins: admins, now: time.Now}
}

func (f *RegistrationAPIFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch act := action(r); {
	case act == "register" && r.Method == http.MethodPost:
		var req registerRequest
		if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &req); err != nil {
			writeError(w, err)
			return
		}
		id, err := f.Register(ctx, req.Employee, req.RawPin)
		if err != nil {
			writeError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "id": id, "status": models.RegistrationPending})

	case act == "listPending" && r.Method == http.MethodGet:
		if err := f.admins.Require(ctx, r.URL.Query().Get("adminEmail")); err != nil {
			writeError(w, err)
			return
		}
		pending, err := f.registrations.ListPending(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		for i := range pending {
			pending[i].Employee = pending[i].Employee.Public()
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "count": len(pending), "registrations": pending})

	case (act == "approve" || act == "reject") && r.Method == http.MethodPost:
		var req models.ReviewRequest
		if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := f.admins.Require(ctx, req.AdminEmail); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			writeError(w, badRequest("id required"))
			return
		}
		if act == "approve" {
			e, err := f.registrations.Approve(ctx, req.ID, directory.NormalizeEmail(req.AdminEmail), f.now())
			if err != nil {
				writeError(w, err)
				return
			}
			slog.Info("Registration approved.", "id", req.ID, "kgid", e.Kgid, "admin", req.AdminEmail)
			httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "status": models.RegistrationApproved, "kgid": e.Kgid})
			return
		}
		if err := f.registrations.Reject(ctx, req.ID, directory.NormalizeEmail(req.AdminEmail), strings.TrimSpace(req.Reason), f.now()); err != nil {
			writeError(w, err)
			return
		}
		slog.Info("Registration rejected.", "id", req.ID, "admin", req.AdminEmail)
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "status": models.RegistrationRejected})

	default:
		httpx.JSONError(w, http.StatusBadRequest, "Invalid action", nil)
	}
}

// hashedPin accepts a raw 4-6 digit PIN or a client-side SHA-256 hex hash.
func hashedPin(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	switch {
	case pinHashPattern.MatchString(pin):
		return strings.ToLower(pin), nil
	case pinPattern.MatchString(pin):
		return auth.HashPin(pin), nil
	}
	return "", directory.Violations{"pin": "invalid_pin"}
}

// Register validates a self-registration and stores it as pending.
func (f *RegistrationAPIFunction) Register(ctx context.Context, e models.Employee, pin string) (string, error) {
	normalizeEmployee(&e)
	e.IsAdmin = false
	e.IsApproved = false
	v := directory.Violations{}
	if err := directory.ValidateEmployee(e); err != nil {
		errors.As(err, &v)
	}
	if e.Email == "" {
		v["email"] = "required"
	}
	hash, err := hashedPin(pin)
	if err != nil {
		v["pin"] = "invalid_pin"
	}
	if err := v.Err(); err != nil {
		return "", err
	}
	e.Pin = hash

	if err := f.checkDuplicate(ctx, e); err != nil {
		return "", err
	}
	id, err := f.registrations.Create(ctx, models.PendingRegistration{
		ID:        uuid.NewString(),
		Employee:  e,
		Status:    models.RegistrationPending,
		CreatedAt: f.now(),
	})
	if err != nil {
		return "", err
	}
	slog.Info("Registration received.", "id", id, "kgid", e.Kgid)
	return id, nil
}

func (f *RegistrationAPIFunction) checkDuplicate(ctx context.Context, e models.Employee) error {
	_, err := f.employees.Get(ctx, e.Kgid)
	if err == nil {
		return httpx.Errorf(http.StatusConflict, "an employee with kgid %s already exists", e.Kgid)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err = f.employees.FindByEmail(ctx, e.Email)
	if err == nil {
		return httpx.Errorf(http.StatusConflict, "an employee with email %s already exists", e.Email)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	pending, err := f.registrations.FindPending(ctx, e.Kgid, e.Email)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return httpx.Errorf(http.StatusConflict, "a registration for this kgid or email is already pending")
	}
	return nil
}

// RegistrationNotifierFunction tells admins about new registrations.
type RegistrationNotifierFunction struct {
	employees     store.Employees
	registrations store.Registrations
	sender        notify.Sender
}

func NewRegistrationNotifier(ctx context.Context) (*RegistrationNotifierFunction, error) {
	clients, err := newGoogleClients(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := clients.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := clients.FCM(ctx)
	if err != nil {
		return nil, err
	}
	repos := store.NewFirestoreSet(fs)
	slog.Info("Registration notifier initialized.")
	return NewRegistrationNotifierWith(repos.Employees, repos.Registrations, notify.NewFCMSender(srv, clients.projectID)), nil
}

func NewRegistrationNotifierWith(employees store.Employees, registrations store.Registrations, sender notify.Sender) *RegistrationNotifierFunction {
	return &RegistrationNotifierFunction{employees: employees, registrations: registrations, sender: sender}
}

// Process notifies every admin device about pending registration id.
func (f *RegistrationNotifierFunction) Process(ctx context.Context, id string) (notify.Result, error) {
	logCtx := slog.With("registrationId", id)
	p, err := f.registrations.Get(ctx, id)
	if err != nil {
		logCtx.Error("Failed to read registration", "error", err)
		return notify.Result{}, err
	}
	admins, err := f.employees.Where(ctx, store.Cond{Field: "isAdmin", Value: true})
	if err != nil {
		return notify.Result{}, fmt.Errorf("failed to list admins: %w", err)
	}
	var tokens []string
	for _, a := range admins {
		if a.FCMToken != "" {
			tokens = append(tokens, a.FCMToken)
		}
	}
	if len(tokens) == 0 {
		logCtx.Info("No admin tokens. Nothing to send.")
		return notify.Result{}, nil
	}

	name := p.Employee.Name
	if name == "" {
		name = "A new user"
	}
	res, err := notify.SendAll(ctx, f.sender, tokens, notify.Message{
		Title: "New Registration",
		Body:  name + " has registered.",
		Data:  map[string]string{"registrationId": id, "type": "registration"},
	})
	if err != nil {
		return res, err
	}
	logCtx.Info("Admins notified.", "sent", res.Sent, "failed", res.Failed)
	return res, nil
}
