package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/policedirectory/internal/services"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

var (
	dispatcher *services.NotificationDispatcherFunction
	once       sync.Once
	initErr    error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by document creation in notifications_queue.
	functions.CloudEvent("DispatchNotification", dispatchNotification)
}

// main is required by the Go Functions Framework.
func main() {}

func dispatchNotification(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		dispatcher, initErr = services.NewNotificationDispatcher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	id, err := services.DocumentID(e.Subject(), store.QueueCollection)
	if err != nil {
		// A malformed subject will never succeed; acknowledge it instead of retrying.
		slog.Error("Ignoring event", "eventId", e.ID(), "error", err)
		return nil
	}
	return dispatcher.Process(ctx, id)
}
