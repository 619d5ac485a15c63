// Package store holds the Firestore repositories behind the directory
// services, plus an in-memory implementation of the same interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

// Collection names.
const (
	EmployeesCollection     = "employees"
	OfficersCollection      = "officers"
	RegistrationsCollection = "pending_registrations"
	QueueCollection         = "notifications_queue"
	NotificationsCollection = "notifications"
	OTPCollection           = "otp_requests"
	AdminsCollection        = "admins"
	SyncStatusCollection    = "sync_status"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyReviewed = errors.New("registration already reviewed")
)

// Cond is an equality filter on a document field.
type Cond struct {
	Field string
	Value any
}

type Employees interface {
	Get(ctx context.Context, kgid string) (models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	Where(ctx context.Context, conds ...Cond) ([]models.Employee, error)
	FindByEmail(ctx context.Context, email string) (models.Employee, error)
	// Create replaces the document, stamping createdAt and updatedAt.
	Create(ctx context.Context, e models.Employee) error
	// Merge writes only the given fields and stamps updatedAt.
	Merge(ctx context.Context, kgid string, fields map[string]any) error
	Delete(ctx context.Context, kgid string) error
}

type Officers interface {
	Get(ctx context.Context, agid string) (models.Officer, error)
	List(ctx context.Context) ([]models.Officer, error)
	Put(ctx context.Context, o models.Officer) error
}

type Registrations interface {
	Create(ctx context.Context, p models.PendingRegistration) (string, error)
	Get(ctx context.Context, id string) (models.PendingRegistration, error)
	ListPending(ctx context.Context) ([]models.PendingRegistration, error)
	// FindPending returns pending registrations matching kgid or email.
	FindPending(ctx context.Context, kgid, email string) ([]models.PendingRegistration, error)
	// Approve copies the registration into employees and marks it approved, atomically.
	Approve(ctx context.Context, id, reviewer string, at time.Time) (models.Employee, error)
	Reject(ctx context.Context, id, reviewer, reason string, at time.Time) error
}

type Notifications interface {
	GetQueued(ctx context.Context, id string) (models.AppNotification, error)
	UpdateQueued(ctx context.Context, id string, fields map[string]any) error
	Record(ctx context.Context, n models.AppNotification) error
	Recent(ctx context.Context, limit int) ([]models.AppNotification, error)
}

type OTPs interface {
	Put(ctx context.Context, req models.OTPRequest) error
	Get(ctx context.Context, email string) (models.OTPRequest, error)
	MarkUsed(ctx context.Context, email string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Admins interface {
	IsActive(ctx context.Context, email string) (bool, error)
}

type SyncStatus interface {
	Update(ctx context.Context, name string, fields map[string]any) error
}

// Set bundles one implementation of every repository.
type Set struct {
	Employees     Employees
	Officers      Officers
	Registrations Registrations
	Notifications Notifications
	OTPs          OTPs
	Admins        Admins
	SyncStatus    SyncStatus
}

func approvedEmployee(p models.PendingRegistration) models.Employee {
	e := p.Employee
	e.IsApproved = true
	return e
}
