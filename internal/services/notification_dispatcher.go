package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/notify"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

var errInvalidTarget = errors.New("invalid notification target")

// NotificationDispatcherFunction fans queued notifications out to devices.
type NotificationDispatcherFunction struct {
	employees     store.Employees
	notifications store.Notifications
	sender        notify.Sender
	now           func() time.Time
}

func NewNotificationDispatcher(ctx context.Context) (*NotificationDispatcherFunction, error) {
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
	f := NewNotificationDispatcherWith(repos.Employees, repos.Notifications, notify.NewFCMSender(srv, clients.projectID))
	slog.Info("Notification dispatcher initialized.")
	return f, nil
}

func NewNotificationDispatcherWith(employees store.Employees, notifications store.Notifications, sender notify.Sender) *NotificationDispatcherFunction {
	return &NotificationDispatcherFunction{employees: employees, notifications: notifications, sender: sender, now: time.Now}
}

// DocumentID extracts the id of a document in collection from a Firestore
// event subject such as "documents/notifications_queue/abc".
func DocumentID(subject, collection string) (string, error) {
	parts := strings.Split(strings.Trim(subject, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == collection && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("subject %q does not name a %s document", subject, collection)
}

// recipients resolves the target of n to employee records.
func (f *NotificationDispatcherFunction) recipients(ctx context.Context, n models.AppNotification) ([]models.Employee, error) {
	switch strings.ToUpper(strings.TrimSpace(n.TargetType)) {
	case models.TargetSingle:
		if n.TargetKgid == "" {
			return nil, errInvalidTarget
		}
		e, err := f.employees.Get(ctx, n.TargetKgid)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.Employee{e}, nil
	case models.TargetStation:
		if n.TargetDistrict == "" || n.TargetStation == "" {
			return nil, errInvalidTarget
		}
		return f.employees.Where(ctx, store.Cond{Field: "district", Value: n.TargetDistrict}, store.Cond{Field: "station", Value: n.TargetStation})
	case models.TargetDistrict:
		if n.TargetDistrict == "" {
			return nil, errInvalidTarget
		}
		return f.employees.Where(ctx, store.Cond{Field: "district", Value: n.TargetDistrict})
	case models.TargetAdmin:
		return f.employees.Where(ctx, store.Cond{Field: "isAdmin", Value: true})
	case models.TargetAll:
		return f.employees.List(ctx)
	}
	return nil, errInvalidTarget
}

// Process dispatches queue document id and writes the outcome back to it.
func (f *NotificationDispatcherFunction) Process(ctx context.Context, id string) error {
	logCtx := slog.With("notificationId", id)
	n, err := f.notifications.GetQueued(ctx, id)
	if err != nil {
		logCtx.Error("Failed to read queued notification", "error", err)
		return err
	}
	logCtx = logCtx.With("target", n.TargetType)
	if n.Status != "" {
		logCtx.Info("Notification already handled. Skipping.", "status", n.Status)
		return nil
	}

	result := map[string]any{"processedAt": f.now()}
	sent, err := f.dispatch(ctx, n)
	switch {
	case errors.Is(err, errInvalidTarget):
		result["status"] = models.NotificationInvalidParams
	case err != nil:
		logCtx.Error("Notification dispatch failed", "error", err)
		result["status"] = models.NotificationFailed
		result["error"] = err.Error()
	default:
		result["status"] = sent.status
		if sent.status == models.NotificationProcessed {
			result["sentCount"] = sent.Sent
			result["failedCount"] = sent.Failed
		}
	}

	if err := f.notifications.UpdateQueued(ctx, id, result); err != nil {
		logCtx.Error("Failed to write dispatch status", "error", err)
		return err
	}
	logCtx.Info("Notification handled.", "status", result["status"])
	return nil
}

type dispatchResult struct {
	notify.Result
	status string
}

func (f *NotificationDispatcherFunction) dispatch(ctx context.Context, n models.AppNotification) (dispatchResult, error) {
	employees, err := f.recipients(ctx, n)
	if err != nil {
		return dispatchResult{}, err
	}
	if len(employees) == 0 {
		return dispatchResult{status: models.NotificationNoRecipients}, nil
	}
	var tokens []string
	for _, e := range employees {
		if e.FCMToken != "" {
			tokens = append(tokens, e.FCMToken)
		}
	}
	if len(tokens) == 0 {
		return dispatchResult{status: models.NotificationNoTokens}, nil
	}

	res, err := notify.SendAll(ctx, f.sender, tokens, notify.Message{
		Title: n.Title,
		Body:  n.Body,
		Data:  map[string]string{"notificationId": n.ID, "targetType": n.TargetType},
	})
	if err != nil {
		return dispatchResult{}, err
	}

	history := n
	history.Status = models.NotificationProcessed
	history.SentCount = res.Sent
	history.FailedCount = res.Failed
	history.ProcessedAt = f.now()
	if history.CreatedAt.IsZero() {
		history.CreatedAt = history.ProcessedAt
	}
	if err := f.notifications.Record(ctx, history); err != nil {
		slog.Warn("Failed to record notification history", "notificationId", n.ID, "error", err)
	}
	return dispatchResult{Result: res, status: models.NotificationProcessed}, nil
}
