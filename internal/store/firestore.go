package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

// NewFirestoreSet wires every repository to client.
func NewFirestoreSet(client *firestore.Client) *Set {
	return &Set{
		Employees:     &FirestoreEmployees{client: client},
		Officers:      &FirestoreOfficers{client: client},
		Registrations: &FirestoreRegistrations{client: client},
		Notifications: &FirestoreNotifications{client: client},
		OTPs:          &FirestoreOTPs{client: client},
		Admins:        &FirestoreAdmins{client: client},
		SyncStatus:    &FirestoreSyncStatus{client: client},
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func getDoc(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("%s: %w", ref.Path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", ref.ID, err)
	}
	return snap, nil
}

func readAll(it *firestore.DocumentIterator) ([]*firestore.DocumentSnapshot, error) {
	defer it.Stop()
	var out []*firestore.DocumentSnapshot
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
}

type FirestoreEmployees struct {
	client *firestore.Client
}

func (r *FirestoreEmployees) col() *firestore.CollectionRef {
	return r.client.Collection(EmployeesCollection)
}

func (r *FirestoreEmployees) Get(ctx context.Context, kgid string) (models.Employee, error) {
	snap, err := getDoc(ctx, r.col().Doc(kgid))
	if err != nil {
		return models.Employee{}, err
	}
	return models.EmployeeFromMap(snap.Ref.ID, snap.Data()), nil
}

func (r *FirestoreEmployees) query(ctx context.Context, q firestore.Query) ([]models.Employee, error) {
	snaps, err := readAll(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	out := make([]models.Employee, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, models.EmployeeFromMap(s.Ref.ID, s.Data()))
	}
	return out, nil
}

func (r *FirestoreEmployees) List(ctx context.Context) ([]models.Employee, error) {
	return r.query(ctx, r.col().Query)
}

func (r *FirestoreEmployees) Where(ctx context.Context, conds ...Cond) ([]models.Employee, error) {
	q := r.col().Query
	for _, c := range conds {
		q = q.Where(c.Field, "==", c.Value)
	}
	return r.query(ctx, q)
}

func (r *FirestoreEmployees) FindByEmail(ctx context.Context, email string) (models.Employee, error) {
	found, err := r.query(ctx, r.col().Where("email", "==", email).Limit(1))
	if err != nil {
		return models.Employee{}, err
	}
	if len(found) == 0 {
		return models.Employee{}, fmt.Errorf("employee %s: %w", email, ErrNotFound)
	}
	return found[0], nil
}

func (r *FirestoreEmployees) Create(ctx context.Context, e models.Employee) error {
	fields := e.Fields()
	fields["createdAt"] = firestore.ServerTimestamp
	fields["updatedAt"] = firestore.ServerTimestamp
	if _, err := r.col().Doc(e.Kgid).Set(ctx, fields); err != nil {
		return fmt.Errorf("failed to write employee %s: %w", e.Kgid, err)
	}
	return nil
}

func (r *FirestoreEmployees) Merge(ctx context.Context, kgid string, fields map[string]any) error {
	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data["updatedAt"] = firestore.ServerTimestamp
	if _, err := r.col().Doc(kgid).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge employee %s: %w", kgid, err)
	}
	return nil
}

func (r *FirestoreEmployees) Delete(ctx context.Context, kgid string) error {
	_, err := r.col().Doc(kgid).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return fmt.Errorf("employee %s: %w", kgid, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete employee %s: %w", kgid, err)
	}
	return nil
}

type FirestoreOfficers struct {
	client *firestore.Client
}

func (r *FirestoreOfficers) Get(ctx context.Context, agid string) (models.Officer, error) {
	snap, err := getDoc(ctx, r.client.Collection(OfficersCollection).Doc(agid))
	if err != nil {
		return models.Officer{}, err
	}
	return models.OfficerFromMap(snap.Ref.ID, snap.Data()), nil
}

func (r *FirestoreOfficers) List(ctx context.Context) ([]models.Officer, error) {
	snaps, err := readAll(r.client.Collection(OfficersCollection).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}
	out := make([]models.Officer, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, models.OfficerFromMap(s.Ref.ID, s.Data()))
	}
	return out, nil
}

func (r *FirestoreOfficers) Put(ctx context.Context, o models.Officer) error {
	fields := o.Fields()
	fields["updatedAt"] = firestore.ServerTimestamp
	if _, err := r.client.Collection(OfficersCollection).Doc(o.Agid).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to write officer %s: %w", o.Agid, err)
	}
	return nil
}

type FirestoreRegistrations struct {
	client *firestore.Client
}

func (r *FirestoreRegistrations) col() *firestore.CollectionRef {
	return r.client.Collection(RegistrationsCollection)
}

func (r *FirestoreRegistrations) Create(ctx context.Context, p models.PendingRegistration) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := r.col().Doc(p.ID).Create(ctx, p.Fields()); err != nil {
		return "", fmt.Errorf("failed to create registration: %w", err)
	}
	return p.ID, nil
}

func (r *FirestoreRegistrations) Get(ctx context.Context, id string) (models.PendingRegistration, error) {
	snap, err := getDoc(ctx, r.col().Doc(id))
	if err != nil {
		return models.PendingRegistration{}, err
	}
	return models.RegistrationFromMap(snap.Ref.ID, snap.Data()), nil
}

func (r *FirestoreRegistrations) query(ctx context.Context, q firestore.Query) ([]models.PendingRegistration, error) {
	snaps, err := readAll(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	out := make([]models.PendingRegistration, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, models.RegistrationFromMap(s.Ref.ID, s.Data()))
	}
	return out, nil
}

func (r *FirestoreRegistrations) ListPending(ctx context.Context) ([]models.PendingRegistration, error) {
	return r.query(ctx, r.col().Where("status", "==", models.RegistrationPending).OrderBy("createdAt", firestore.Asc))
}

func (r *FirestoreRegistrations) FindPending(ctx context.Context, kgid, email string) ([]models.PendingRegistration, error) {
	var out []models.PendingRegistration
	seen := map[string]bool{}
	for _, c := range []Cond{{"kgid", kgid}, {"email", email}} {
		if c.Value == "" {
			continue
		}
		found, err := r.query(ctx, r.col().Where("status", "==", models.RegistrationPending).Where(c.Field, "==", c.Value))
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *FirestoreRegistrations) Approve(ctx context.Context, id, reviewer string, at time.Time) (models.Employee, error) {
	var approved models.Employee
	pendingRef := r.col().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(pendingRef)
		if isNotFound(err) {
			return fmt.Errorf("registration %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		p := models.RegistrationFromMap(id, snap.Data())
		if p.Status != models.RegistrationPending {
			return fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, id, p.Status)
		}

		approved = approvedEmployee(p)
		fields := approved.Fields()
		fields["createdAt"] = at
		fields["updatedAt"] = at
		if err := tx.Set(r.client.Collection(EmployeesCollection).Doc(approved.Kgid), fields); err != nil {
			return err
		}
		return tx.Update(pendingRef, []firestore.Update{
			{Path: "status", Value: models.RegistrationApproved},
			{Path: "reviewedBy", Value: reviewer},
			{Path: "reviewedAt", Value: at},
		})
	})
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to approve registration %s: %w", id, err)
	}
	return approved, nil
}

func (r *FirestoreRegistrations) Reject(ctx context.Context, id, reviewer, reason string, at time.Time) error {
	ref := r.col().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return fmt.Errorf("registration %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if s := models.RegistrationFromMap(id, snap.Data()).Status; s != models.RegistrationPending {
			return fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, id, s)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: models.RegistrationRejected},
			{Path: "reason", Value: reason},
			{Path: "reviewedBy", Value: reviewer},
			{Path: "reviewedAt", Value: at},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to reject registration %s: %w", id, err)
	}
	return nil
}

type FirestoreNotifications struct {
	client *firestore.Client
}

func (r *FirestoreNotifications) GetQueued(ctx context.Context, id string) (models.AppNotification, error) {
	snap, err := getDoc(ctx, r.client.Collection(QueueCollection).Doc(id))
	if err != nil {
		return models.AppNotification{}, err
	}
	var n models.AppNotification
	if err := snap.DataTo(&n); err != nil {
		return models.AppNotification{}, fmt.Errorf("failed to decode notification %s: %w", id, err)
	}
	n.ID = id
	return n, nil
}

func (r *FirestoreNotifications) UpdateQueued(ctx context.Context, id string, fields map[string]any) error {
	if _, err := r.client.Collection(QueueCollection).Doc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreNotifications) Record(ctx context.Context, n models.AppNotification) error {
	ref := r.client.Collection(NotificationsCollection).NewDoc()
	if n.ID != "" {
		ref = r.client.Collection(NotificationsCollection).Doc(n.ID)
	}
	if _, err := ref.Set(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (r *FirestoreNotifications) Recent(ctx context.Context, limit int) ([]models.AppNotification, error) {
	q := r.client.Collection(NotificationsCollection).OrderBy("createdAt", firestore.Desc).Limit(limit)
	snaps, err := readAll(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]models.AppNotification, 0, len(snaps))
	for _, s := range snaps {
		var n models.AppNotification
		if err := s.DataTo(&n); err != nil {
			return nil, fmt.Errorf("failed to decode notification %s: %w", s.Ref.ID, err)
		}
		n.ID = s.Ref.ID
		out = append(out, n)
	}
	return out, nil
}

type FirestoreOTPs struct {
	client *firestore.Client
}

func (r *FirestoreOTPs) Put(ctx context.Context, req models.OTPRequest) error {
	if _, err := r.client.Collection(OTPCollection).Doc(req.Email).Set(ctx, req); err != nil {
		return fmt.Errorf("failed to store otp for %s: %w", req.Email, err)
	}
	return nil
}

func (r *FirestoreOTPs) Get(ctx context.Context, email string) (models.OTPRequest, error) {
	snap, err := getDoc(ctx, r.client.Collection(OTPCollection).Doc(email))
	if err != nil {
		return models.OTPRequest{}, err
	}
	var req models.OTPRequest
	if err := snap.DataTo(&req); err != nil {
		return models.OTPRequest{}, fmt.Errorf("failed to decode otp for %s: %w", email, err)
	}
	return req, nil
}

func (r *FirestoreOTPs) MarkUsed(ctx context.Context, email string, at time.Time) error {
	_, err := r.client.Collection(OTPCollection).Doc(email).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.OTPUsed},
		{Path: "usedAt", Value: at},
	})
	if err != nil {
		return fmt.Errorf("failed to mark otp used for %s: %w", email, err)
	}
	return nil
}

// DeleteExpired removes every request past its expiry through a BulkWriter.
func (r *FirestoreOTPs) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	snaps, err := readAll(r.client.Collection(OTPCollection).Where("expiresAt", "<", now).Documents(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to query expired otps: %w", err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(snaps))
	for _, s := range snaps {
		job, err := bw.Delete(s.Ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to enqueue delete of %s: %w", s.Ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	if firstErr != nil {
		return deleted, fmt.Errorf("failed to delete %d expired otps: %w", len(jobs)-deleted, firstErr)
	}
	return deleted, nil
}

type FirestoreAdmins struct {
	client *firestore.Client
}

func (r *FirestoreAdmins) IsActive(ctx context.Context, email string) (bool, error) {
	snap, err := getDoc(ctx, r.client.Collection(AdminsCollection).Doc(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return models.BoolOf(snap.Data()["isActive"]), nil
}

type FirestoreSyncStatus struct {
	client *firestore.Client
}

func (r *FirestoreSyncStatus) Update(ctx context.Context, name string, fields map[string]any) error {
	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data["updatedAt"] = firestore.ServerTimestamp
	if _, err := r.client.Collection(SyncStatusCollection).Doc(name).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update sync status %s: %w", name, err)
	}
	return nil
}
