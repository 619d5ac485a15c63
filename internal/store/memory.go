package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

// memDB holds documents as loosely typed maps, the way Firestore returns
// them, so sheet-sourced values round-trip through the same conversions.
type memDB struct {
	mu   sync.Mutex
	now  func() time.Time
	docs map[string]map[string]map[string]any
}

func (db *memDB) coll(name string) map[string]map[string]any {
	c, ok := db.docs[name]
	if !ok {
		c = map[string]map[string]any{}
		db.docs[name] = c
	}
	return c
}

func (db *memDB) merge(coll, id string, fields map[string]any) {
	doc, ok := db.coll(coll)[id]
	if !ok {
		doc = map[string]any{}
		db.coll(coll)[id] = doc
	}
	maps.Copy(doc, fields)
}

func matches(doc map[string]any, conds []Cond) bool {
	for _, c := range conds {
		if models.StringOf(doc[c.Field]) != models.StringOf(c.Value) {
			return false
		}
	}
	return true
}

func sortedIDs(c map[string]map[string]any) []string {
	return slices.Sorted(maps.Keys(c))
}

// Memory is a Set backed by process memory, used by tests and dry runs.
type Memory struct {
	Set
	db *memDB
}

// NewMemory returns an empty in-memory Set. now stamps createdAt/updatedAt.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	db := &memDB{now: now, docs: map[string]map[string]map[string]any{}}
	return &Memory{
		db: db,
		Set: Set{
			Employees:     &memEmployees{db},
			Officers:      &memOfficers{db},
			Registrations: &memRegistrations{db},
			Notifications: &memNotifications{db: db},
			OTPs:          &memOTPs{db: db},
			Admins:        &memAdmins{db},
			SyncStatus:    &memSyncStatus{db},
		},
	}
}

// Doc returns a copy of a raw document, or nil.
func (m *Memory) Doc(coll, id string) map[string]any {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	doc, ok := m.db.coll(coll)[id]
	if !ok {
		return nil
	}
	return maps.Clone(doc)
}

// PutDoc stores a raw document, replacing any existing one.
func (m *Memory) PutDoc(coll, id string, fields map[string]any) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.coll(coll)[id] = maps.Clone(fields)
}

type memEmployees struct{ db *memDB }

func (r *memEmployees) Get(ctx context.Context, kgid string) (models.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.coll(EmployeesCollection)[kgid]
	if !ok {
		return models.Employee{}, fmt.Errorf("employee %s: %w", kgid, ErrNotFound)
	}
	return models.EmployeeFromMap(kgid, doc), nil
}

func (r *memEmployees) List(ctx context.Context) ([]models.Employee, error) {
	return r.Where(ctx)
}

func (r *memEmployees) Where(ctx context.Context, conds ...Cond) ([]models.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.coll(EmployeesCollection)
	var out []models.Employee
	for _, id := range sortedIDs(c) {
		if matches(c[id], conds) {
			out = append(out, models.EmployeeFromMap(id, c[id]))
		}
	}
	return out, nil
}

func (r *memEmployees) FindByEmail(ctx context.Context, email string) (models.Employee, error) {
	found, _ := r.Where(ctx, Cond{"email", email})
	if len(found) == 0 {
		return models.Employee{}, fmt.Errorf("employee %s: %w", email, ErrNotFound)
	}
	return found[0], nil
}

func (r *memEmployees) Create(ctx context.Context, e models.Employee) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	fields := e.Fields()
	now := r.db.now()
	fields["createdAt"] = now
	fields["updatedAt"] = now
	r.db.coll(EmployeesCollection)[e.Kgid] = fields
	return nil
}

func (r *memEmployees) Merge(ctx context.Context, kgid string, fields map[string]any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	data := maps.Clone(fields)
	data["updatedAt"] = r.db.now()
	r.db.merge(EmployeesCollection, kgid, data)
	return nil
}

func (r *memEmployees) Delete(ctx context.Context, kgid string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.coll(EmployeesCollection)
	if _, ok := c[kgid]; !ok {
		return fmt.Errorf("employee %s: %w", kgid, ErrNotFound)
	}
	delete(c, kgid)
	return nil
}

type memOfficers struct{ db *memDB }

func (r *memOfficers) Get(ctx context.Context, agid string) (models.Officer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.coll(OfficersCollection)[agid]
	if !ok {
		return models.Officer{}, fmt.Errorf("officer %s: %w", agid, ErrNotFound)
	}
	return models.OfficerFromMap(agid, doc), nil
}

func (r *memOfficers) List(ctx context.Context) ([]models.Officer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.coll(OfficersCollection)
	out := make([]models.Officer, 0, len(c))
	for _, id := range sortedIDs(c) {
		out = append(out, models.OfficerFromMap(id, c[id]))
	}
	return out, nil
}

func (r *memOfficers) Put(ctx context.Context, o models.Officer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	fields := o.Fields()
	fields["updatedAt"] = r.db.now()
	r.db.merge(OfficersCollection, o.Agid, fields)
	return nil
}

type memRegistrations struct{ db *memDB }

func (r *memRegistrations) Create(ctx context.Context, p models.PendingRegistration) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	c := r.db.coll(RegistrationsCollection)
	if _, ok := c[p.ID]; ok {
		return "", fmt.Errorf("registration %s already exists", p.ID)
	}
	c[p.ID] = p.Fields()
	return p.ID, nil
}

func (r *memRegistrations) Get(ctx context.Context, id string) (models.PendingRegistration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.coll(RegistrationsCollection)[id]
	if !ok {
		return models.PendingRegistration{}, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	return models.RegistrationFromMap(id, doc), nil
}

func (r *memRegistrations) pending(conds ...Cond) []models.PendingRegistration {
	c := r.db.coll(RegistrationsCollection)
	var out []models.PendingRegistration
	for _, id := range sortedIDs(c) {
		p := models.RegistrationFromMap(id, c[id])
		if p.Status == models.RegistrationPending && (len(conds) == 0 || anyMatch(c[id], conds)) {
			out = append(out, p)
		}
	}
	return out
}

func anyMatch(doc map[string]any, conds []Cond) bool {
	for _, c := range conds {
		if c.Value != "" && matches(doc, []Cond{c}) {
			return true
		}
	}
	return false
}

func (r *memRegistrations) ListPending(ctx context.Context) ([]models.PendingRegistration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.pending()
	slices.SortStableFunc(out, func(a, b models.PendingRegistration) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *memRegistrations) FindPending(ctx context.Context, kgid, email string) ([]models.PendingRegistration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.pending(Cond{"kgid", kgid}, Cond{"email", email}), nil
}

func (r *memRegistrations) review(id string) (models.PendingRegistration, error) {
	doc, ok := r.db.coll(RegistrationsCollection)[id]
	if !ok {
		return models.PendingRegistration{}, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	p := models.RegistrationFromMap(id, doc)
	if p.Status != models.RegistrationPending {
		return p, fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, id, p.Status)
	}
	return p, nil
}

func (r *memRegistrations) Approve(ctx context.Context, id, reviewer string, at time.Time) (models.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, err := r.review(id)
	if err != nil {
		return models.Employee{}, err
	}
	e := approvedEmployee(p)
	fields := e.Fields()
	fields["createdAt"] = at
	fields["updatedAt"] = at
	r.db.coll(EmployeesCollection)[e.Kgid] = fields
	r.db.merge(RegistrationsCollection, id, map[string]any{
		"status":     models.RegistrationApproved,
		"reviewedBy": reviewer,
		"reviewedAt": at,
	})
	return e, nil
}

func (r *memRegistrations) Reject(ctx context.Context, id, reviewer, reason string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, err := r.review(id); err != nil {
		return err
	}
	r.db.merge(RegistrationsCollection, id, map[string]any{
		"status":     models.RegistrationRejected,
		"reason":     reason,
		"reviewedBy": reviewer,
		"reviewedAt": at,
	})
	return nil
}

type memNotifications struct {
	db      *memDB
	queue   map[string]models.AppNotification
	history []models.AppNotification
}

// Enqueue seeds a queued notification, as a client write would.
func (m *Memory) Enqueue(id string, n models.AppNotification) {
	r := m.Notifications.(*memNotifications)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.queue == nil {
		r.queue = map[string]models.AppNotification{}
	}
	n.ID = id
	r.queue[id] = n
}

func (r *memNotifications) GetQueued(ctx context.Context, id string) (models.AppNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.queue[id]
	if !ok {
		return models.AppNotification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return n, nil
}

func (r *memNotifications) UpdateQueued(ctx context.Context, id string, fields map[string]any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.queue[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	for k, v := range fields {
		switch k {
		case "status":
			n.Status, _ = v.(string)
		case "error":
			n.Error, _ = v.(string)
		case "sentCount":
			n.SentCount, _ = v.(int)
		case "failedCount":
			n.FailedCount, _ = v.(int)
		case "processedAt":
			n.ProcessedAt, _ = v.(time.Time)
		}
	}
	r.queue[id] = n
	return nil
}

func (r *memNotifications) Record(ctx context.Context, n models.AppNotification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.history = append(r.history, n)
	return nil
}

func (r *memNotifications) Recent(ctx context.Context, limit int) ([]models.AppNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := slices.Clone(r.history)
	slices.SortStableFunc(out, func(a, b models.AppNotification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memOTPs struct {
	db   *memDB
	reqs map[string]models.OTPRequest
}

func (r *memOTPs) Put(ctx context.Context, req models.OTPRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.reqs == nil {
		r.reqs = map[string]models.OTPRequest{}
	}
	r.reqs[req.Email] = req
	return nil
}

func (r *memOTPs) Get(ctx context.Context, email string) (models.OTPRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.reqs[email]
	if !ok {
		return models.OTPRequest{}, fmt.Errorf("otp %s: %w", email, ErrNotFound)
	}
	return req, nil
}

func (r *memOTPs) MarkUsed(ctx context.Context, email string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.reqs[email]
	if !ok {
		return fmt.Errorf("otp %s: %w", email, ErrNotFound)
	}
	req.Status = models.OTPUsed
	req.UsedAt = at
	r.reqs[email] = req
	return nil
}

func (r *memOTPs) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for email, req := range r.reqs {
		if req.ExpiresAt.Before(now) {
			delete(r.reqs, email)
			n++
		}
	}
	return n, nil
}

type memAdmins struct{ db *memDB }

func (r *memAdmins) IsActive(ctx context.Context, email string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.coll(AdminsCollection)[email]
	return ok && models.BoolOf(doc["isActive"]), nil
}

type memSyncStatus struct{ db *memDB }

func (r *memSyncStatus) Update(ctx context.Context, name string, fields map[string]any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	data := maps.Clone(fields)
	data["updatedAt"] = r.db.now()
	r.db.merge(SyncStatusCollection, name, data)
	return nil
}

// History returns recorded notifications in insertion order.
func (m *Memory) History() []models.AppNotification {
	r := m.Notifications.(*memNotifications)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return slices.Clone(r.history)
}

// Queued returns the current state of a queued notification.
func (m *Memory) Queued(id string) models.AppNotification {
	n, _ := m.Notifications.GetQueued(context.Background(), id)
	return n
}
